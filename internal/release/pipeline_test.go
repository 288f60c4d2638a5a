package release

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/relnote/internal/config"
	clierrors "github.com/ariel-frischer/relnote/internal/errors"
	"github.com/ariel-frischer/relnote/internal/git"
	"github.com/ariel-frischer/relnote/internal/history"
	"github.com/ariel-frischer/relnote/internal/testutil"
	"github.com/ariel-frischer/relnote/internal/tracker"
)

const configHeader = `/* config.h.  Generated from config.h.in by configure.  */
#define PACKAGE_BUGREPORT "http://bugzilla.gnome.org/enter_bug.cgi?product=empathy"
#define PACKAGE_NAME "Empathy"
#define PACKAGE_VERSION "0.22.1"
`

const productPage = `<html><body>
<p><i>Instant messaging program</i></p>
<ul><li>GNOME SVN: <a href="http://live.gnome.org/Empathy">empathy</a></li></ul>
</body></html>`

var releaseTime = time.Date(2008, time.March, 3, 15, 0, 0, 0, time.UTC)

type fixture struct {
	dir      string
	repo     *gogit.Repository
	pipeline *Pipeline
	recorder *testutil.Recorder
	warnings *bytes.Buffer
	queries  *atomic.Int32
	n        int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	f := &fixture{dir: dir, repo: repo, queries: &atomic.Int32{}, warnings: &bytes.Buffer{}}

	first := f.commit(t, "Old Dev", "Initial import")
	_, err = repo.CreateTag("EMPATHY_0_21_4", first, nil)
	require.NoError(t, err)

	f.commit(t, "Xavier Claessens", "Clean up build warnings")
	f.commit(t, "Translation Bot", "Updated French Translation (Marie)")
	f.commit(t, "Jane Doe", "Fix crash on startup #42")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.h"), []byte(configHeader), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empathy-0.22.1.tar.gz"), []byte("gz"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empathy-0.22.1.tar.bz2"), []byte("bz2"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/buglist.cgi":
			f.queries.Add(1)
			_, _ = w.Write([]byte("bug_id,short_short_desc\n42,memory corruption in init\n"))
		case "/browse.cgi":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(productPage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg, err := config.LoadWithOptions(config.LoadOptions{SkipUserConfig: true})
	require.NoError(t, err)
	cfg.RepoPath = dir
	cfg.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Tracker.URL = srv.URL
	cfg.Upload.Username = "xclaesse"

	client := tracker.NewClient(tracker.Options{
		BaseURL:      srv.URL,
		Statuses:     cfg.Tracker.Statuses,
		Resolution:   cfg.Tracker.Resolution,
		WebsiteLabel: cfg.Tracker.WebsiteLabel,
	})

	f.recorder = testutil.NewRecorder()
	f.pipeline = &Pipeline{
		Config:   cfg,
		History:  &git.GoGitHistory{RepoPath: dir},
		Resolver: &tracker.Resolver{Querier: client, Products: client, Warnings: f.warnings},
		Runner:   f.recorder,
		Releases: &history.Writer{StateDir: cfg.StateDir, MaxEntries: 10, Warnings: f.warnings},
		Warnings: f.warnings,
		Now:      func() time.Time { return releaseTime },
		Tagger: func() (git.Signature, error) {
			return git.Signature{Name: "Xavier Claessens", Email: "x@example.org"}, nil
		},
	}
	return f
}

func (f *fixture) commit(t *testing.T, author, message string) plumbing.Hash {
	t.Helper()
	f.n++

	wt, err := f.repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "file.txt"), []byte(message), 0o644))
	_, err = wt.Add("file.txt")
	require.NoError(t, err)

	sig := &object.Signature{Name: author, Email: "dev@example.org", When: releaseTime.Add(time.Duration(f.n-10) * time.Hour)}
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return hash
}

const wantChangelog = `NEW in 0.22.1
=============
Changes:
- Clean up build warnings (Xavier Claessens).

Bugs fixed:
- Fixed #42, memory corruption in init (Jane Doe)

Translations:
- Updated French Translation (Marie).
`

func TestPipeline_Changelog(t *testing.T) {
	f := newFixture(t)

	c, err := f.pipeline.Changelog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantChangelog, c.String())
	assert.Equal(t, int32(1), f.queries.Load(), "one tracker request per run")

	again, err := f.pipeline.Changelog(context.Background())
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Equal(t, int32(1), f.queries.Load())
}

func TestPipeline_ChangelogTrackerDown(t *testing.T) {
	f := newFixture(t)
	f.pipeline.Resolver = &tracker.Resolver{
		Querier:  tracker.NewClient(tracker.Options{BaseURL: "http://127.0.0.1:1"}),
		Warnings: f.warnings,
	}

	c, err := f.pipeline.Changelog(context.Background())
	require.NoError(t, err)

	assert.Empty(t, c.Bugs)
	assert.Contains(t, c.String(), "- Fix crash on startup #42 (Jane Doe).")
	assert.Contains(t, f.warnings.String(), "Warning: bug tracker query failed")
}

func TestPipeline_PreviousTag(t *testing.T) {
	tests := map[string]struct {
		setup    func(t *testing.T, f *fixture)
		want     string
		wantWarn string
	}{
		"configured tag wins": {
			setup: func(t *testing.T, f *fixture) {
				f.pipeline.Config.PrevTag = "FORCED"
				f.logRelease(t, "Empathy", "0.21.3", "EMPATHY_0_21_3")
			},
			want: "FORCED",
		},
		"release log before repository": {
			setup: func(t *testing.T, f *fixture) {
				f.logRelease(t, "Empathy", "0.21.3", "EMPATHY_0_21_3")
			},
			want: "EMPATHY_0_21_3",
		},
		"newest repository tag": {
			setup: func(t *testing.T, f *fixture) {},
			want:  "EMPATHY_0_21_4",
		},
		"other project's release ignored": {
			setup: func(t *testing.T, f *fixture) {
				f.logRelease(t, "Empathy", "0.21.3", "EMPATHY_0_21_3")
				f.logRelease(t, "Telepathy-Gabble", "0.7.2", "TELEPATHY_GABBLE_0_7_2")
			},
			want: "EMPATHY_0_21_3",
		},
		"logged tag missing from repository": {
			setup: func(t *testing.T, f *fixture) {
				history.NewWriter(f.pipeline.Config.StateDir, 10).LogRelease("Empathy", "0.21.5", "EMPATHY_0_21_5", releaseTime)
			},
			want:     "EMPATHY_0_21_4",
			wantWarn: "release log tag EMPATHY_0_21_5 is not in the repository",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)

			got, err := f.pipeline.PreviousTag()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantWarn != "" {
				assert.Contains(t, f.warnings.String(), tt.wantWarn)
			} else {
				assert.Empty(t, f.warnings.String())
			}
		})
	}
}

// logRelease records a release in the state dir and, unless the tag already
// exists, tags the initial commit with it.
func (f *fixture) logRelease(t *testing.T, name, version, tag string) {
	t.Helper()

	if _, err := f.repo.Tag(tag); err != nil {
		initial, err := f.repo.Tag("EMPATHY_0_21_4")
		require.NoError(t, err)
		_, err = f.repo.CreateTag(tag, initial.Hash(), nil)
		require.NoError(t, err)
	}
	history.NewWriter(f.pipeline.Config.StateDir, 10).LogRelease(name, version, tag, releaseTime)
}

func TestPipeline_ChangelogAfterOtherProjectRelease(t *testing.T) {
	f := newFixture(t)
	// Released from another checkout; the tag is unknown here.
	history.NewWriter(f.pipeline.Config.StateDir, 10).LogRelease("Telepathy-Gabble", "0.7.2", "TELEPATHY_GABBLE_0_7_2", releaseTime)

	c, err := f.pipeline.Changelog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantChangelog, c.String())
}

func TestPipeline_ChangelogNoChanges(t *testing.T) {
	f := newFixture(t)
	head, err := f.repo.Head()
	require.NoError(t, err)
	_, err = f.repo.CreateTag("EMPATHY_0_22", head.Hash(), nil)
	require.NoError(t, err)
	f.pipeline.Config.PrevTag = "EMPATHY_0_22"

	c, err := f.pipeline.Changelog(context.Background())
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Contains(t, f.warnings.String(), "Warning: no changes since EMPATHY_0_22")
	assert.Zero(t, f.queries.Load())
}

func TestPipeline_ChangelogUnknownTag(t *testing.T) {
	f := newFixture(t)
	f.pipeline.Config.PrevTag = "NOPE"

	_, err := f.pipeline.Changelog(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, git.ErrTagNotFound)
	require.NotNil(t, clierrors.AsCLIError(err))
	assert.Equal(t, clierrors.Argument, clierrors.AsCLIError(err).Category)
}

func TestPipeline_ChangelogUnknownTagGitBackend(t *testing.T) {
	f := newFixture(t)
	f.pipeline.Config.PrevTag = "NOPE"
	rec := testutil.NewRecorder().On("git", testutil.Response{
		Err: errors.New("running git log --no-color --pretty=medium NOPE..: exit status 128: fatal: ambiguous argument 'NOPE..': unknown revision or path not in the working tree."),
	})
	f.pipeline.History = &git.CLIHistory{RepoPath: f.dir, Runner: rec}

	_, err := f.pipeline.Changelog(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, git.ErrTagNotFound)
	require.NotNil(t, clierrors.AsCLIError(err))
	assert.Equal(t, clierrors.Argument, clierrors.AsCLIError(err).Category)
}

func TestPipeline_Metadata(t *testing.T) {
	tests := map[string]struct {
		header   *string
		category clierrors.ErrorCategory
		wantErr  string
	}{
		"missing header": {
			category: clierrors.Prerequisite,
			wantErr:  "cannot read project metadata",
		},
		"no version": {
			header:   ptr("#define PACKAGE_NAME \"Empathy\"\n"),
			category: clierrors.Prerequisite,
			wantErr:  "PACKAGE_VERSION not defined",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			path := filepath.Join(f.dir, "config.h")
			require.NoError(t, os.Remove(path))
			if tt.header != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.header), 0o644))
			}

			_, err := f.pipeline.Metadata()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.category, clierrors.AsCLIError(err).Category)
		})
	}
}

func ptr(s string) *string { return &s }

func TestPipeline_WriteNewsThenNotes(t *testing.T) {
	f := newFixture(t)
	newsPath := filepath.Join(f.dir, "NEWS")
	require.NoError(t, os.WriteFile(newsPath, []byte("NEW in 0.21.4\n=============\nChanges:\n- Old (A).\n"), 0o644))

	path, err := f.pipeline.WriteNews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newsPath, path)

	data, err := os.ReadFile(newsPath)
	require.NoError(t, err)
	assert.Equal(t, wantChangelog+"\nNEW in 0.21.4\n=============\nChanges:\n- Old (A).\n", string(data))

	notes, err := f.pipeline.Notes(context.Background())
	require.NoError(t, err)

	assert.Contains(t, notes, "Empathy 0.22.1 is now available for download from:\nhttp://download.gnome.org/sources/empathy/0.22/\n")
	assert.Contains(t, notes, "c9317245afa86c4304c53887545eb21b  empathy-0.22.1.tar.gz")
	assert.Contains(t, notes, "What is it?\n===========\nInstant messaging program\n")
	assert.Contains(t, notes, "You can visit the project web site:\nhttp://live.gnome.org/Empathy\n")
	assert.Contains(t, notes, "What's New?\n===========\nChanges:\n- Clean up build warnings (Xavier Claessens).")
	assert.NotContains(t, notes, "- Old (A).")
	assert.Contains(t, notes, "03 March 2008\nEmpathy team")
	assert.Equal(t, int32(1), f.queries.Load())
}

func TestPipeline_NotesWithoutNewsEntry(t *testing.T) {
	f := newFixture(t)

	notes, err := f.pipeline.Notes(context.Background())
	require.NoError(t, err)

	assert.Contains(t, notes, "What's New?\n===========\nChanges:\n")
	assert.Contains(t, notes, "- Fixed #42, memory corruption in init (Jane Doe)")
	assert.Contains(t, f.warnings.String(), "has no entry for 0.22.1")
}

func TestPipeline_NotesCustomTemplate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "announce.tmpl"), []byte("{{.Name}} {{.Version}} <{{.Website}}>"), 0o644))
	f.pipeline.Config.TemplateFile = "announce.tmpl"

	notes, err := f.pipeline.Notes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Empathy 0.22.1 <http://live.gnome.org/Empathy>", notes)
}

func TestPipeline_Release(t *testing.T) {
	f := newFixture(t)

	tag, err := f.pipeline.Release(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EMPATHY_0_22_1", tag)

	exists, err := git.TagExists(f.dir, tag)
	require.NoError(t, err)
	assert.True(t, exists)

	require.Len(t, f.recorder.Calls, 2)
	assert.Equal(t, "scp", f.recorder.Calls[0].Name)
	assert.Equal(t, []string{"empathy-0.22.1.tar.gz", "xclaesse@master.gnome.org:"}, f.recorder.Calls[0].Args)
	assert.Equal(t, "ssh", f.recorder.Calls[1].Name)
	assert.Equal(t, []string{"xclaesse@master.gnome.org", "install-module", "empathy-0.22.1.tar.gz"}, f.recorder.Calls[1].Args)
	assert.Equal(t, f.dir, f.recorder.Calls[1].Dir)

	assert.Equal(t, "EMPATHY_0_22_1", history.LastTag(f.pipeline.Config.StateDir, "Empathy"))

	_, err = f.pipeline.Release(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag EMPATHY_0_22_1 already exists")
}

func TestPipeline_ReleaseFailures(t *testing.T) {
	tests := map[string]struct {
		setup   func(f *fixture)
		wantErr string
		tagged  bool
	}{
		"no tagger": {
			setup: func(f *fixture) {
				f.pipeline.Tagger = func() (git.Signature, error) { return git.Signature{}, nil }
			},
			wantErr: "no tagger identity configured",
		},
		"tagger lookup fails": {
			setup: func(f *fixture) {
				f.pipeline.Tagger = func() (git.Signature, error) { return git.Signature{}, errors.New("no config") }
			},
			wantErr: "no tagger identity configured",
		},
		"scp fails": {
			setup: func(f *fixture) {
				f.recorder.On("scp", testutil.Response{Err: errors.New("permission denied (publickey)")})
			},
			wantErr: "tarball upload failed: permission denied",
			tagged:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			_, err := f.pipeline.Release(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			exists, err := git.TagExists(f.dir, "EMPATHY_0_22_1")
			require.NoError(t, err)
			assert.Equal(t, tt.tagged, exists)
			assert.Empty(t, history.LastTag(f.pipeline.Config.StateDir, "Empathy"), "failed releases are not logged")
		})
	}
}

func TestPipeline_Announce(t *testing.T) {
	f := newFixture(t)
	f.pipeline.Config.Mail.From = "Xavier Claessens <x@example.org>"

	require.NoError(t, f.pipeline.Announce(context.Background()))

	require.Len(t, f.recorder.Calls, 1)
	call := f.recorder.Calls[0]
	assert.Equal(t, "sendmail", call.Name)
	assert.Equal(t, []string{"-t"}, call.Args)
	assert.Contains(t, call.Stdin, "From: Xavier Claessens <x@example.org>\n")
	assert.Contains(t, call.Stdin, "To: gnome-announce-list@gnome.org\n")
	assert.Contains(t, call.Stdin, "Subject: ANNOUNCE: Empathy 0.22.1\n")
	assert.Contains(t, call.Stdin, "Empathy 0.22.1 is now available for download from:")
}

func TestPipeline_AnnounceMailFails(t *testing.T) {
	f := newFixture(t)
	f.recorder.On("sendmail", testutil.Response{Err: errors.New("exit status 75")})

	err := f.pipeline.Announce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "announcement could not be sent")
	assert.Equal(t, clierrors.Runtime, clierrors.AsCLIError(err).Category)
}

func TestPipeline_UploadCommandsWithoutUsername(t *testing.T) {
	p := &Pipeline{Config: &config.Configuration{RepoPath: "/src", Upload: config.UploadConfig{Server: "master.gnome.org"}}}

	cmds := p.UploadCommands("x.tar.gz")
	require.Len(t, cmds, 2)
	assert.Equal(t, []string{"x.tar.gz", "master.gnome.org:"}, cmds[0].Args)
	assert.Equal(t, []string{"master.gnome.org", "install-module", "x.tar.gz"}, cmds[1].Args)
}

func TestNew(t *testing.T) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{SkipUserConfig: true})
	require.NoError(t, err)

	p, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &git.GoGitHistory{}, p.History)
	assert.NotNil(t, p.Resolver)
	assert.NotNil(t, p.Releases)

	cfg.History.Backend = "hg"
	_, err = New(cfg)
	require.Error(t, err)
	assert.Equal(t, clierrors.Configuration, clierrors.AsCLIError(err).Category)
}
