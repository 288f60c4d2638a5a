package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/relnote/internal/changelog"
	"github.com/ariel-frischer/relnote/internal/config"
)

// isolate points user config lookups and the working directory at empty
// temp directories so only the test's own files are loaded.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("RELNOTE_STATE_DIR", t.TempDir())

	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// initRepo makes dir a git repository.
func initRepo(t *testing.T, dir string) {
	t.Helper()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
}

func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// fakeReleaser records the order of the steps it runs.
type fakeReleaser struct {
	calls []string
	fail  map[string]error
	cfg   *config.Configuration
}

func (f *fakeReleaser) step(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeReleaser) Changelog(context.Context) (*changelog.Changelog, error) {
	if err := f.step("changelog"); err != nil {
		return nil, err
	}
	return &changelog.Changelog{
		Version: "0.22.1",
		Changes: []changelog.Entry{{Text: "Clean up build warnings"}},
	}, nil
}

func (f *fakeReleaser) Notes(context.Context) (string, error) {
	if err := f.step("notes"); err != nil {
		return "", err
	}
	return "Empathy 0.22.1 is now available for download from:\n", nil
}

func (f *fakeReleaser) WriteNews(context.Context) (string, error) {
	return "NEWS", f.step("write-news")
}

func (f *fakeReleaser) Release(context.Context) (string, error) {
	return "EMPATHY_0_22_1", f.step("release")
}

func (f *fakeReleaser) Announce(context.Context) error {
	return f.step("announce")
}

// useFake swaps newReleaser for the duration of the test.
func useFake(t *testing.T, fake *fakeReleaser) {
	t.Helper()
	orig := newReleaser
	newReleaser = func(cfg *config.Configuration, _ io.Writer) (releaser, error) {
		fake.cfg = cfg
		return fake, nil
	}
	t.Cleanup(func() { newReleaser = orig })
}
