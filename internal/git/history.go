package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/ariel-frischer/relnote/internal/shell"
)

// Backend names accepted by NewHistory.
const (
	BackendGoGit = "go-git"
	BackendCLI   = "git"
)

// History produces `git log <tag>..` text in medium format.
type History interface {
	LogSince(ctx context.Context, tag string) (string, error)
}

// NewHistory returns the history backend called name.
func NewHistory(name, repoPath string, runner shell.Runner) (History, error) {
	switch name {
	case "", BackendGoGit:
		return &GoGitHistory{RepoPath: repoPath}, nil
	case BackendCLI:
		if runner == nil {
			runner = &shell.ExecRunner{}
		}
		return &CLIHistory{RepoPath: repoPath, Runner: runner}, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q (valid: %s, %s)", name, BackendGoGit, BackendCLI)
	}
}

// GoGitHistory walks the repository with go-git.
type GoGitHistory struct {
	RepoPath string
}

// LogSince returns the commits reachable from HEAD but not from tag,
// newest first. An empty tag lists the whole history.
func (h *GoGitHistory) LogSince(ctx context.Context, tag string) (string, error) {
	repo, err := openRepo(h.RepoPath)
	if err != nil {
		return "", err
	}

	exclude := make(map[plumbing.Hash]bool)
	if tag != "" {
		base, err := resolveTagCommit(repo, tag)
		if err != nil {
			return "", err
		}
		iter := object.NewCommitPreorderIter(base, nil, nil)
		err = iter.ForEach(func(c *object.Commit) error {
			exclude[c.Hash] = true
			return ctx.Err()
		})
		if err != nil {
			return "", fmt.Errorf("walking history of %s: %w", tag, err)
		}
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}

	logIter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", fmt.Errorf("reading log: %w", err)
	}

	var (
		b     strings.Builder
		count int
	)
	err = logIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if exclude[c.Hash] {
			return nil
		}
		writeMedium(&b, c)
		count++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reading log: %w", err)
	}

	logDebug("[git] LogSince(%q): %d commits", tag, count)
	return b.String(), nil
}

// CLIHistory shells out to `git log`.
type CLIHistory struct {
	RepoPath string
	Runner   shell.Runner
}

// LogSince runs `git log --no-color --pretty=medium <tag>..` in RepoPath.
// Only stdout is parsed; a boundary git cannot resolve is ErrTagNotFound.
func (h *CLIHistory) LogSince(ctx context.Context, tag string) (string, error) {
	args := []string{"log", "--no-color", "--pretty=medium"}
	if tag != "" {
		args = append(args, tag+"..")
	}

	out, err := h.Runner.Run(ctx, shell.Command{Name: "git", Args: args, Dir: h.RepoPath, SeparateStderr: true})
	if err != nil {
		if tag != "" && isUnknownRevision(err) {
			return "", fmt.Errorf("%w: %s", ErrTagNotFound, tag)
		}
		return "", fmt.Errorf("git log since %s: %w", tag, err)
	}
	return out, nil
}

// isUnknownRevision matches git's messages for a range it cannot resolve.
func isUnknownRevision(err error) bool {
	msg := err.Error()
	for _, s := range []string{"unknown revision", "bad revision", "ambiguous argument"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
