// Package git provides the repository operations relnote needs: the commit
// log since the previous release tag, tag lookup and release tagging. It uses
// the go-git library by default and can fall back to the git CLI for the log
// query.
package git

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrTagNotFound is returned when the requested boundary tag does not exist.
var ErrTagNotFound = errors.New("tag not found")

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// openRepo opens a git repository at the specified path or current working directory.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
func openRepo(path string) (*git.Repository, error) {
	if path == "" || path == "." {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// IsGitRepository reports whether path is inside a git repository.
func IsGitRepository(path string) bool {
	_, err := openRepo(path)
	return err == nil
}

// resolveTagCommit returns the commit a tag points to, peeling annotated tags.
func resolveTagCommit(repo *git.Repository, name string) (*object.Commit, error) {
	ref, err := repo.Tag(name)
	if errors.Is(err, git.ErrTagNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up tag %s: %w", name, err)
	}

	hash := ref.Hash()
	if tagObj, err := repo.TagObject(hash); err == nil {
		commit, err := tagObj.Commit()
		if err != nil {
			return nil, fmt.Errorf("peeling tag %s: %w", name, err)
		}
		return commit, nil
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("reading commit for tag %s: %w", name, err)
	}
	return commit, nil
}

// TagExists reports whether a tag with the given name exists.
func TagExists(repoPath, name string) (bool, error) {
	repo, err := openRepo(repoPath)
	if err != nil {
		return false, err
	}
	_, err = repo.Tag(name)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up tag %s: %w", name, err)
	}
	return true, nil
}

// LatestTag returns the tag whose commit (or tagger date for annotated
// tags) is newest. It returns "" when the repository has no tags.
func LatestTag(repoPath string) (string, error) {
	repo, err := openRepo(repoPath)
	if err != nil {
		return "", err
	}

	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("listing tags: %w", err)
	}

	var (
		latest     string
		latestWhen time.Time
	)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		when, err := tagTime(repo, ref.Hash())
		if err != nil {
			logDebug("[git] skipping tag %s: %v", name, err)
			return nil
		}
		if latest == "" || when.After(latestWhen) || (when.Equal(latestWhen) && name > latest) {
			latest, latestWhen = name, when
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("iterating tags: %w", err)
	}

	logDebug("[git] LatestTag: %q", latest)
	return latest, nil
}

func tagTime(repo *git.Repository, hash plumbing.Hash) (time.Time, error) {
	if tagObj, err := repo.TagObject(hash); err == nil {
		return tagObj.Tagger.When, nil
	}
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return time.Time{}, err
	}
	return commit.Committer.When, nil
}

// Signature identifies the person creating a release tag.
type Signature struct {
	Name  string
	Email string
}

// DefaultSignature reads user.name and user.email from the repository,
// global and system git configuration.
func DefaultSignature(repoPath string) (Signature, error) {
	repo, err := openRepo(repoPath)
	if err != nil {
		return Signature{}, err
	}

	cfg, err := repo.ConfigScoped(config.SystemScope)
	if err != nil {
		return Signature{}, fmt.Errorf("reading git config: %w", err)
	}
	return Signature{Name: cfg.User.Name, Email: cfg.User.Email}, nil
}

// CreateTag creates an annotated tag called name on HEAD. An existing tag
// is an error; tags are never moved.
func CreateTag(repoPath, name, message string, tagger Signature, now time.Time) error {
	repo, err := openRepo(repoPath)
	if err != nil {
		return err
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD reference: %w", err)
	}

	if tagger.Name == "" || tagger.Email == "" {
		return fmt.Errorf("creating tag %s: tagger name and email are required (set user.name and user.email)", name)
	}

	_, err = repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  tagger.Name,
			Email: tagger.Email,
			When:  now,
		},
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", name, err)
	}

	logDebug("[git] created tag %s at %s", name, head.Hash())
	return nil
}

// gitDateLayout is git's default date format.
const gitDateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// writeMedium renders c the way `git log --pretty=medium` does.
func writeMedium(b *strings.Builder, c *object.Commit) {
	fmt.Fprintf(b, "commit %s\n", c.Hash)
	if len(c.ParentHashes) > 1 {
		parents := make([]string, 0, len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			parents = append(parents, p.String()[:7])
		}
		fmt.Fprintf(b, "Merge: %s\n", strings.Join(parents, " "))
	}
	fmt.Fprintf(b, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(b, "Date:   %s\n", c.Author.When.Format(gitDateLayout))
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		b.WriteString("    " + line + "\n")
	}
	b.WriteString("\n")
}
