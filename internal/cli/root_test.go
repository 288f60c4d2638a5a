package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "github.com/ariel-frischer/relnote/internal/errors"
)

func TestRootCmd_Structure(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "relnote", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Example)
	assert.Len(t, cmd.Groups(), 2)

	for _, name := range []string{"news", "history", "config", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
		assert.NotEmpty(t, sub.GroupID, "%s should belong to a group", name)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := NewRootCmd()

	tests := map[string]struct {
		persistent bool
	}{
		"config":     {persistent: true},
		"debug":      {persistent: true},
		"repo":       {persistent: true},
		"prev-tag":   {persistent: true},
		"changelog":  {},
		"notes":      {},
		"write-news": {},
		"release":    {},
		"announce":   {},
		"format":     {},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if tt.persistent {
				assert.NotNil(t, cmd.PersistentFlags().Lookup(name))
			} else {
				assert.NotNil(t, cmd.Flags().Lookup(name))
			}
		})
	}
}

func TestRootCmd_StepOrder(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantCalls []string
	}{
		"changelog only": {
			args:      []string{"--changelog"},
			wantCalls: []string{"changelog"},
		},
		"flags given out of order run in fixed order": {
			args:      []string{"--announce", "--release", "--write-news", "--notes", "--changelog"},
			wantCalls: []string{"changelog", "notes", "write-news", "release", "announce"},
		},
		"write news then notes": {
			args:      []string{"--notes", "--write-news"},
			wantCalls: []string{"notes", "write-news"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			initRepo(t, dir)
			fake := &fakeReleaser{}
			useFake(t, fake)

			_, _, err := executeCmd(t, append([]string{"--repo", dir}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, fake.calls)
		})
	}
}

func TestRootCmd_StopsAtFirstFailure(t *testing.T) {
	dir := isolate(t)
	initRepo(t, dir)
	boom := errors.New("tag exists")
	fake := &fakeReleaser{fail: map[string]error{"release": boom}}
	useFake(t, fake)

	_, _, err := executeCmd(t, "--repo", dir, "--write-news", "--release", "--announce")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"write-news", "release"}, fake.calls)
}

func TestRootCmd_NoActionIsNoop(t *testing.T) {
	isolate(t)
	fake := &fakeReleaser{}
	useFake(t, fake)

	stdout, stderr, err := executeCmd(t)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
	assert.Empty(t, fake.calls)
	assert.Nil(t, fake.cfg, "no releaser is built without an action")
}

func TestRootCmd_Output(t *testing.T) {
	tests := map[string]struct {
		args       []string
		wantStdout []string
		wantStderr []string
	}{
		"text changelog": {
			args:       []string{"--changelog"},
			wantStdout: []string{"NEW in 0.22.1", "Clean up build warnings"},
		},
		"single step is not numbered": {
			args:       []string{"--write-news"},
			wantStderr: []string{"✓ Updated NEWS"},
		},
		"yaml changelog": {
			args:       []string{"--changelog", "--format", "yaml"},
			wantStdout: []string{"version: 0.22.1", "text: Clean up build warnings"},
		},
		"notes after changelog are separated": {
			args:       []string{"--changelog", "--notes"},
			wantStdout: []string{"NEW in 0.22.1", "announcement", "is now available for download"},
		},
		"write steps report on stderr": {
			args:       []string{"--write-news", "--release", "--announce"},
			wantStderr: []string{"[1/3] write-news...", "[3/3] announce...", "Updated NEWS", "Released EMPATHY_0_22_1", "Announcement sent to gnome-announce-list@gnome.org"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			initRepo(t, dir)
			useFake(t, &fakeReleaser{})

			stdout, stderr, err := executeCmd(t, append([]string{"--repo", dir}, tt.args...)...)
			require.NoError(t, err)
			for _, want := range tt.wantStdout {
				assert.Contains(t, stdout, want)
			}
			for _, want := range tt.wantStderr {
				assert.Contains(t, stderr, want)
			}
		})
	}
}

func TestRootCmd_FlagOverrides(t *testing.T) {
	dir := isolate(t)
	initRepo(t, dir)
	fake := &fakeReleaser{}
	useFake(t, fake)

	_, _, err := executeCmd(t, "--repo", dir, "--prev-tag", "EMPATHY_0_21_4", "--changelog")
	require.NoError(t, err)
	require.NotNil(t, fake.cfg)
	assert.Equal(t, dir, fake.cfg.RepoPath)
	assert.Equal(t, "EMPATHY_0_21_4", fake.cfg.PrevTag)
}

func TestRootCmd_Errors(t *testing.T) {
	tests := map[string]struct {
		args         []string
		gitRepo      bool
		wantCategory clierrors.ErrorCategory
		wantMsg      string
	}{
		"invalid format": {
			args:         []string{"--changelog", "--format", "html"},
			gitRepo:      true,
			wantCategory: clierrors.Argument,
			wantMsg:      "invalid output format: html",
		},
		"not a repository": {
			args:         []string{"--changelog"},
			wantCategory: clierrors.Prerequisite,
			wantMsg:      "not a git repository",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			if tt.gitRepo {
				initRepo(t, dir)
			}
			fake := &fakeReleaser{}
			useFake(t, fake)

			_, _, err := executeCmd(t, append([]string{"--repo", dir}, tt.args...)...)
			require.Error(t, err)
			cliErr := clierrors.AsCLIError(err)
			require.NotNil(t, cliErr)
			assert.Equal(t, tt.wantCategory, cliErr.Category)
			assert.Contains(t, cliErr.Message, tt.wantMsg)
			assert.Empty(t, fake.calls)
		})
	}
}

func TestRootCmd_BadConfig(t *testing.T) {
	dir := isolate(t)
	initRepo(t, dir)
	useFake(t, &fakeReleaser{})

	_, _, err := executeCmd(t, "--repo", dir, "--config", "missing.yml", "--changelog")
	require.Error(t, err)
	cliErr := clierrors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, clierrors.Configuration, cliErr.Category)
}
