// Package release wires the release steps together: changelog generation,
// announcement rendering, NEWS update, tagging with upload, and mailing the
// announcement. Each step is a Pipeline method; the CLI decides which run.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/relnote/internal/announce"
	"github.com/ariel-frischer/relnote/internal/changelog"
	"github.com/ariel-frischer/relnote/internal/config"
	clierrors "github.com/ariel-frischer/relnote/internal/errors"
	"github.com/ariel-frischer/relnote/internal/git"
	"github.com/ariel-frischer/relnote/internal/gitlog"
	"github.com/ariel-frischer/relnote/internal/history"
	"github.com/ariel-frischer/relnote/internal/news"
	"github.com/ariel-frischer/relnote/internal/output"
	"github.com/ariel-frischer/relnote/internal/progress"
	"github.com/ariel-frischer/relnote/internal/project"
	"github.com/ariel-frischer/relnote/internal/shell"
	"github.com/ariel-frischer/relnote/internal/tracker"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for release steps.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Pipeline holds the collaborators of one relnote run. The changelog and
// metadata are computed at most once per Pipeline.
type Pipeline struct {
	Config   *config.Configuration
	History  git.History
	Resolver *tracker.Resolver
	Runner   shell.Runner
	Releases *history.Writer
	// Progress wraps slow steps; nil runs them silently.
	Progress *progress.Indicator
	Warnings io.Writer
	Now      func() time.Time
	// Tagger returns the identity recorded on the release tag.
	Tagger func() (git.Signature, error)

	meta    *project.Metadata
	changes *changelog.Changelog
}

// New builds a Pipeline with production collaborators for cfg.
func New(cfg *config.Configuration) (*Pipeline, error) {
	runner := &shell.ExecRunner{}

	hist, err := git.NewHistory(cfg.History.Backend, cfg.RepoPath, runner)
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Configuration,
			fmt.Sprintf("Set history.backend to %s or %s", git.BackendGoGit, git.BackendCLI))
	}

	client := tracker.NewClient(tracker.Options{
		BaseURL:      cfg.Tracker.URL,
		Statuses:     cfg.Tracker.Statuses,
		Resolution:   cfg.Tracker.Resolution,
		WebsiteLabel: cfg.Tracker.WebsiteLabel,
	})

	releases := history.NewWriter(cfg.StateDir, cfg.MaxHistoryEntries)

	return &Pipeline{
		Config:   cfg,
		History:  hist,
		Resolver: tracker.NewResolver(client),
		Runner:   runner,
		Releases: releases,
		Warnings: os.Stderr,
		Now:      time.Now,
		Tagger: func() (git.Signature, error) {
			return git.DefaultSignature(cfg.RepoPath)
		},
	}, nil
}

func (p *Pipeline) warn(format string, args ...any) {
	w := p.Warnings
	if w == nil {
		w = os.Stderr
	}
	output.PrintWarning(w, format, args...)
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// step runs fn under the progress indicator when one is configured.
func (p *Pipeline) step(message string, fn func() error) error {
	if p.Progress == nil {
		return fn()
	}
	return p.Progress.Run(message, fn)
}

// Metadata reads the project header once.
func (p *Pipeline) Metadata() (*project.Metadata, error) {
	if p.meta != nil {
		return p.meta, nil
	}

	path := p.Config.ResolvePath(p.Config.ConfigHeader)
	meta, err := project.LoadMetadata(path)
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return nil, clierrors.MetadataNotFound(path, err)
	}
	if err != nil {
		return nil, clierrors.MetadataIncomplete(path, err)
	}

	logDebug("[release] metadata: name=%s version=%s module=%s", meta.Name, meta.Version, meta.Module)
	p.meta = meta
	return meta, nil
}

// PreviousTag returns the boundary tag for the log query: the configured
// prev_tag, else this project's last tag in the release log when the
// repository still has it, else the newest tag in the repository. "" means
// the whole history.
func (p *Pipeline) PreviousTag() (string, error) {
	if p.Config.PrevTag != "" {
		return p.Config.PrevTag, nil
	}

	meta, err := p.Metadata()
	if err != nil {
		return "", err
	}
	if tag := history.LastTag(p.Config.StateDir, meta.Name); tag != "" {
		exists, err := git.TagExists(p.Config.RepoPath, tag)
		if err != nil {
			return "", fmt.Errorf("checking release log tag: %w", err)
		}
		if exists {
			logDebug("[release] previous tag from release log: %s", tag)
			return tag, nil
		}
		p.warn("release log tag %s is not in the repository, ignoring it", tag)
	}

	tag, err := git.LatestTag(p.Config.RepoPath)
	if err != nil {
		return "", fmt.Errorf("finding previous release tag: %w", err)
	}
	if tag == "" {
		p.warn("no previous release tag found, using the whole history")
	}
	logDebug("[release] previous tag from repository: %q", tag)
	return tag, nil
}

// Changelog produces the NEWS entry for the current version. The tracker is
// queried once, for every bug number in the log at the same time.
func (p *Pipeline) Changelog(ctx context.Context) (*changelog.Changelog, error) {
	if p.changes != nil {
		return p.changes, nil
	}

	meta, err := p.Metadata()
	if err != nil {
		return nil, err
	}

	prev, err := p.PreviousTag()
	if err != nil {
		return nil, err
	}

	raw, err := p.History.LogSince(ctx, prev)
	if errors.Is(err, git.ErrTagNotFound) {
		return nil, clierrors.TagNotFound(prev, err)
	}
	if err != nil {
		return nil, fmt.Errorf("reading history since %q: %w", prev, err)
	}

	commits, err := gitlog.ParseString(raw)
	if err != nil {
		return nil, err
	}

	batch := changelog.ClassifyAll(commits)
	numbers := batch.BugNumbers()
	counts := batch.Counts()
	logDebug("[release] %d commits: %d changes, %d bugs, %d translations; %d bug numbers",
		len(batch.Records), counts[changelog.Plain], counts[changelog.Bug],
		counts[changelog.Translation], len(numbers))

	if len(numbers) > 0 {
		var descriptions tracker.Descriptions
		// Resolve fails soft, so the step always reports success.
		_ = p.step(fmt.Sprintf("Querying bug tracker for %d bugs", len(numbers)), func() error {
			descriptions = p.Resolver.Resolve(ctx, numbers)
			return nil
		})
		batch.ApplyDescriptions(descriptions)
	}

	p.changes = changelog.Assemble(meta.Version, batch)
	if p.changes.IsEmpty() && prev != "" {
		p.warn("no changes since %s", prev)
	}
	logDebug("[release] changelog for %s has %d entries", meta.Version, p.changes.Count())
	return p.changes, nil
}

// Notes renders the release announcement. The "What's New?" text is the
// NEWS entry for the version; when NEWS has none yet, the freshly generated
// changelog is used instead.
func (p *Pipeline) Notes(ctx context.Context) (string, error) {
	meta, err := p.Metadata()
	if err != nil {
		return "", err
	}

	newsPath := p.Config.ResolvePath(p.Config.NewsFile)
	text, err := news.Load(newsPath, meta.Version)
	if err != nil {
		return "", err
	}
	if text == "" {
		p.warn("%s has no entry for %s, using the generated changelog", newsPath, meta.Version)
		c, err := p.Changelog(ctx)
		if err != nil {
			return "", err
		}
		text = c.Body()
	}

	// The product page fetch fails soft, so only hashing can fail the group.
	// Checksum warnings are printed once both have finished.
	var (
		sums    []project.Checksum
		info    tracker.ProductInfo
		skipped []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sums, err = meta.Checksums(p.Config.RepoPath, func(format string, args ...any) {
			skipped = append(skipped, fmt.Sprintf(format, args...))
		})
		if err != nil {
			return fmt.Errorf("computing checksums: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if p.Resolver != nil {
			info = p.Resolver.Product(gctx, meta.Module)
		}
		return nil
	})
	if err := p.step("Reading tracker product page", g.Wait); err != nil {
		return "", err
	}
	for _, msg := range skipped {
		p.warn("%s", msg)
	}

	tmplPath := p.Config.TemplateFile
	if tmplPath != "" {
		tmplPath = p.Config.ResolvePath(tmplPath)
	}
	tmpl, err := announce.LoadTemplate(tmplPath)
	if err != nil {
		return "", err
	}

	return announce.Render(p.fields(meta, project.FormatChecksums(sums), info, text), tmpl)
}

func (p *Pipeline) fields(meta *project.Metadata, sums string, info tracker.ProductInfo, text string) announce.Fields {
	return announce.Fields{
		Name:     meta.Name,
		Version:  meta.Version,
		Download: meta.DownloadURL(p.Config.Download.BaseURL),
		MD5Sums:  sums,
		About:    info.Description,
		Website:  info.Website,
		News:     text,
		Footer:   announce.Footer(p.now(), meta.Name),
	}
}

// WriteNews prepends the generated entry to the NEWS file.
func (p *Pipeline) WriteNews(ctx context.Context) (string, error) {
	c, err := p.Changelog(ctx)
	if err != nil {
		return "", err
	}

	path := p.Config.ResolvePath(p.Config.NewsFile)
	if existing, err := news.Load(path, c.Version); err == nil && existing != "" {
		p.warn("%s already has an entry for %s", path, c.Version)
	}

	if err := news.Prepend(path, c.String()); err != nil {
		return "", clierrors.NewsWriteFailed(path, err)
	}
	return path, nil
}

// Release tags HEAD with the release tag, uploads the gzip tarball with scp
// and installs it with `ssh <server> install-module`, then records the
// release in the release log. It stops at the first failure.
func (p *Pipeline) Release(ctx context.Context) (string, error) {
	meta, err := p.Metadata()
	if err != nil {
		return "", err
	}

	tag := meta.NewTag()
	exists, err := git.TagExists(p.Config.RepoPath, tag)
	if err != nil {
		return "", err
	}
	if exists {
		return "", clierrors.TagAlreadyExists(tag)
	}

	sig, err := p.Tagger()
	if err != nil || sig.Name == "" || sig.Email == "" {
		if err != nil {
			logDebug("[release] reading tagger: %v", err)
		}
		return "", clierrors.TaggerMissing()
	}

	message := fmt.Sprintf("Tagged for release %s.", meta.Version)
	if err := git.CreateTag(p.Config.RepoPath, tag, message, sig, p.now()); err != nil {
		return "", err
	}

	if err := p.upload(ctx, meta.Tarballs()[0]); err != nil {
		return "", clierrors.UploadFailed(err)
	}

	if p.Releases != nil {
		p.Releases.LogRelease(meta.Name, meta.Version, tag, p.now())
	}
	return tag, nil
}

// UploadCommands returns the scp and ssh invocations for tarball.
func (p *Pipeline) UploadCommands(tarball string) []shell.Command {
	host := p.Config.Upload.Server
	if p.Config.Upload.Username != "" {
		host = p.Config.Upload.Username + "@" + host
	}
	return []shell.Command{
		{Name: "scp", Args: []string{tarball, host + ":"}, Dir: p.Config.RepoPath},
		{Name: "ssh", Args: []string{host, "install-module", tarball}, Dir: p.Config.RepoPath},
	}
}

func (p *Pipeline) upload(ctx context.Context, tarball string) error {
	for _, cmd := range p.UploadCommands(tarball) {
		err := p.step(cmd.String(), func() error {
			_, err := p.Runner.Run(ctx, cmd)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Announce renders the announcement and mails it to the configured list.
func (p *Pipeline) Announce(ctx context.Context) error {
	notes, err := p.Notes(ctx)
	if err != nil {
		return err
	}
	meta, err := p.Metadata()
	if err != nil {
		return err
	}

	mailer := &announce.Mailer{
		Runner:  p.Runner,
		Command: p.Config.Mail.Command,
		To:      p.Config.Mail.To,
		From:    p.Config.Mail.From,
	}
	subject := announce.Subject(announce.Fields{Name: meta.Name, Version: meta.Version})

	err = p.step("Mailing announcement to "+mailer.To, func() error {
		return mailer.Send(ctx, subject, notes)
	})
	if err != nil {
		return clierrors.MailFailed(err)
	}
	return nil
}
