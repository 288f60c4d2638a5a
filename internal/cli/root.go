// Package cli implements the relnote command line: the release action flags
// on the root command plus the news, history, config and version
// subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relnote/internal/changelog"
	"github.com/ariel-frischer/relnote/internal/config"
	clierrors "github.com/ariel-frischer/relnote/internal/errors"
	"github.com/ariel-frischer/relnote/internal/git"
	"github.com/ariel-frischer/relnote/internal/gitlog"
	"github.com/ariel-frischer/relnote/internal/news"
	"github.com/ariel-frischer/relnote/internal/output"
	"github.com/ariel-frischer/relnote/internal/progress"
	"github.com/ariel-frischer/relnote/internal/release"
	"github.com/ariel-frischer/relnote/internal/shell"
	"github.com/ariel-frischer/relnote/internal/tracker"
)

// Output formats accepted by --format.
const (
	FormatText  = "text"
	FormatColor = "color"
	FormatYAML  = "yaml"
)

var validFormats = []string{FormatText, FormatColor, FormatYAML}

// Command groups
const (
	GroupRelease = "release"
	GroupInspect = "inspect"
)

// releaser is the set of release steps the root command drives.
type releaser interface {
	Changelog(ctx context.Context) (*changelog.Changelog, error)
	Notes(ctx context.Context) (string, error)
	WriteNews(ctx context.Context) (string, error)
	Release(ctx context.Context) (string, error)
	Announce(ctx context.Context) error
}

// newReleaser builds the production pipeline. Tests replace it.
var newReleaser = func(cfg *config.Configuration, errOut io.Writer) (releaser, error) {
	p, err := release.New(cfg)
	if err != nil {
		return nil, err
	}
	p.Warnings = errOut
	p.Progress = progress.NewIndicator(errOut, progress.DetectTerminalCapabilities())
	p.Releases.Warnings = errOut
	if r := p.Resolver; r != nil {
		r.Warnings = errOut
	}
	return p, nil
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
	repo       string
	prevTag    string
}

// actionOptions are the root command's release steps.
type actionOptions struct {
	changelog bool
	notes     bool
	writeNews bool
	release   bool
	announce  bool
	format    string
}

// selected returns the names of the chosen steps in run order.
func (a actionOptions) selected() []string {
	var steps []string
	for _, s := range []struct {
		name string
		on   bool
	}{
		{"changelog", a.changelog},
		{"notes", a.notes},
		{"write-news", a.writeNews},
		{"release", a.release},
		{"announce", a.announce},
	} {
		if s.on {
			steps = append(steps, s.name)
		}
	}
	return steps
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	global := &globalOptions{}
	actions := &actionOptions{}

	cmd := &cobra.Command{
		Use:   "relnote",
		Short: "Generate NEWS entries and release announcements from git history",
		Long: `relnote reads the commit log since the previous release tag, sorts each
commit into changes, bug fixes or translation updates, looks the bug numbers
up in the bug tracker with a single query, and renders a NEWS entry. It can
also prepend that entry to NEWS, tag and upload the release, and mail the
announcement.

The action flags can be combined. They always run in this order:
changelog, notes, write-news, release, announce. Without any flag relnote
does nothing.`,
		Example: `  # Preview the NEWS entry for the version in config.h
  relnote --changelog

  # Update NEWS and print the announcement
  relnote --write-news --notes

  # Full release against an explicit previous tag
  relnote --prev-tag EMPATHY_0_21_4 --write-news --release --announce`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if global.debug {
				enableDebug(cmd.ErrOrStderr())
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, global, actions)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&global.configPath, "config", "c", "", "Project config file (default .relnote/config.yml)")
	pf.BoolVarP(&global.debug, "debug", "d", false, "Print debug logging to stderr")
	pf.StringVar(&global.repo, "repo", "", "Repository path (overrides repo_path)")
	pf.StringVar(&global.prevTag, "prev-tag", "", "Previous release tag (overrides prev_tag and the release log)")

	f := cmd.Flags()
	f.BoolVar(&actions.changelog, "changelog", false, "Print the NEWS entry generated from the commit log")
	f.BoolVar(&actions.notes, "notes", false, "Print the release announcement")
	f.BoolVar(&actions.writeNews, "write-news", false, "Prepend the generated entry to the NEWS file")
	f.BoolVar(&actions.release, "release", false, "Tag the release, upload the tarball and record it")
	f.BoolVar(&actions.announce, "announce", false, "Mail the release announcement")
	f.StringVarP(&actions.format, "format", "f", FormatText, "Output format for --changelog: text, color or yaml")

	cmd.AddGroup(
		&cobra.Group{ID: GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: GroupInspect, Title: "Inspection Commands:"},
	)
	newsCmd := newNewsCmd(global)
	newsCmd.GroupID = GroupRelease
	historyCmd := newHistoryCmd(global)
	historyCmd.GroupID = GroupRelease
	configCmd := newConfigCmd(global)
	configCmd.GroupID = GroupInspect
	versionCmd := newVersionCmd()
	versionCmd.GroupID = GroupInspect
	cmd.AddCommand(newsCmd, historyCmd, configCmd, versionCmd)

	return cmd
}

// Execute runs the root command with signal-aware cancellation and prints
// any error with its remediation hints.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		clierrors.Fprint(cmd.ErrOrStderr(), err)
	}
	return err
}

func enableDebug(w io.Writer) {
	logger := log.New(w, "[DEBUG] ", 0).Printf
	git.SetDebugLogger(logger)
	gitlog.SetDebugLogger(logger)
	tracker.SetDebugLogger(logger)
	news.SetDebugLogger(logger)
	shell.SetDebugLogger(logger)
	release.SetDebugLogger(logger)
}

// loadConfig loads the layered configuration and applies flag overrides.
func loadConfig(global *globalOptions) (*config.Configuration, error) {
	cfg, err := config.Load(global.configPath)
	if err != nil {
		return nil, clierrors.ConfigParseError(err)
	}
	if global.repo != "" {
		cfg.RepoPath = global.repo
	}
	if global.prevTag != "" {
		cfg.PrevTag = global.prevTag
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, global *globalOptions, actions *actionOptions) error {
	steps := actions.selected()
	if len(steps) == 0 {
		return nil
	}

	if !isValidFormat(actions.format) {
		return clierrors.InvalidFormat(actions.format, validFormats)
	}

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	if !git.IsGitRepository(cfg.RepoPath) {
		return clierrors.GitNotRepository(cfg.RepoPath)
	}

	r, err := newReleaser(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	// Multi-step runs number each step on stderr.
	current := 0
	begin := func() {
		current++
		if len(steps) > 1 {
			output.PrintStep(errOut, current, len(steps), steps[current-1])
		}
	}

	if actions.changelog {
		begin()
		c, err := r.Changelog(ctx)
		if err != nil {
			return err
		}
		if err := printChangelog(out, c, actions.format); err != nil {
			return err
		}
	}

	if actions.notes {
		begin()
		notes, err := r.Notes(ctx)
		if err != nil {
			return err
		}
		if actions.changelog {
			output.PrintSeparator(out, "announcement")
		}
		fmt.Fprint(out, notes)
	}

	if actions.writeNews {
		begin()
		path, err := r.WriteNews(ctx)
		if err != nil {
			return err
		}
		output.PrintSuccess(errOut, "Updated "+path)
	}

	if actions.release {
		begin()
		tag, err := r.Release(ctx)
		if err != nil {
			return err
		}
		output.PrintSuccess(errOut, "Released "+tag)
	}

	if actions.announce {
		begin()
		if err := r.Announce(ctx); err != nil {
			return err
		}
		output.PrintSuccess(errOut, "Announcement sent to "+cfg.Mail.To)
	}

	return nil
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

func printChangelog(w io.Writer, c *changelog.Changelog, format string) error {
	switch format {
	case FormatYAML:
		data, err := c.YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatColor:
		return changelog.FormatTerminal(c, w, changelog.FormatOptions{})
	default:
		return c.Render(w)
	}
}
