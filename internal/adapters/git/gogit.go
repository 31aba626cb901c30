// Package git provides adapters for interacting with local Git repositories.
// Two implementations of domain.Inspector are available: CLIRepository shells
// out to the git executable, GoGitRepository reads the repository in-process
// with go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

// Logger defines the logging interface for the git adapters.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

var _ domain.Inspector = (*GoGitRepository)(nil)

// GoGitRepository implements domain.Inspector using go-git/v5.
type GoGitRepository struct {
	repo   *git.Repository
	path   string
	logger Logger
	root   string
}

// NewGoGitRepository opens the repository containing path.
// The path may be any directory inside the working tree.
// Returns domain.ErrNotRepository if no repository is found.
func NewGoGitRepository(path string, log Logger) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotRepository, path)
		}
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrQueryFailed, path, err)
	}

	return &GoGitRepository{
		repo:   repo,
		path:   path,
		logger: log,
	}, nil
}

// IsWorktree reports whether the repository has a working tree.
func (r *GoGitRepository) IsWorktree(_ context.Context) (bool, error) {
	_, err := r.repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: worktree: %w", domain.ErrQueryFailed, err)
	}
	return true, nil
}

// CurrentBranch returns the short branch name of objectName.
// A detached HEAD yields "HEAD", matching `git rev-parse --abbrev-ref HEAD`.
func (r *GoGitRepository) CurrentBranch(ctx context.Context, objectName string) (string, error) {
	obj := objectOrHead(objectName)
	if obj != domain.HeadObject {
		ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(obj), false)
		if err != nil {
			return "", fmt.Errorf("%w: branch %s: %w", domain.ErrQueryFailed, obj, err)
		}
		return ref.Name().Short(), nil
	}

	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get HEAD: %w", domain.ErrQueryFailed, err)
	}

	if !head.Name().IsBranch() {
		r.logger.Warn(ctx, "HEAD is detached", map[string]interface{}{
			"head_sha": head.Hash().String(),
			"path":     r.path,
		})
		return domain.HeadObject, nil
	}
	return head.Name().Short(), nil
}

// CurrentCommit returns the full hash objectName resolves to.
func (r *GoGitRepository) CurrentCommit(_ context.Context, objectName string) (string, error) {
	hash, err := r.resolve(objectName)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// NearestTaggedCommit returns the tagged commit with the latest committer time.
func (r *GoGitRepository) NearestTaggedCommit(ctx context.Context) (domain.Optional[string], error) {
	tagged, err := r.taggedCommits()
	if err != nil {
		return domain.None[string](), err
	}

	var newest *object.Commit
	for _, tc := range tagged {
		if newest == nil || tc.commit.Committer.When.After(newest.Committer.When) {
			newest = tc.commit
		}
	}
	if newest == nil {
		r.logger.Debug(ctx, "repository has no tags", map[string]interface{}{"path": r.path})
		return domain.None[string](), nil
	}
	return domain.Some(newest.Hash.String()), nil
}

// TagName walks history backwards from objectName in committer-time order and
// returns a tag of the first commit that carries one. Annotated tags win over
// lightweight ones, then the lexically smallest name.
func (r *GoGitRepository) TagName(ctx context.Context, objectName string) (domain.Optional[string], error) {
	tagged, err := r.taggedCommits()
	if err != nil {
		return domain.None[string](), err
	}
	if len(tagged) == 0 {
		return domain.None[string](), nil
	}

	byCommit := make(map[plumbing.Hash][]taggedCommit)
	for _, tc := range tagged {
		byCommit[tc.commit.Hash] = append(byCommit[tc.commit.Hash], tc)
	}

	from, err := r.resolve(objectName)
	if err != nil {
		return domain.None[string](), err
	}

	commits, err := r.repo.Log(&git.LogOptions{From: *from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return domain.None[string](), fmt.Errorf("%w: log %s: %w", domain.ErrQueryFailed, from.String(), err)
	}
	defer commits.Close()

	var found []taggedCommit
	err = commits.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if tags, ok := byCommit[c.Hash]; ok {
			found = tags
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return domain.None[string](), fmt.Errorf("%w: failed to walk commit history: %w", domain.ErrQueryFailed, err)
	}
	if len(found) == 0 {
		return domain.None[string](), nil
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].annotated != found[j].annotated {
			return found[i].annotated
		}
		return found[i].name < found[j].name
	})
	return domain.Some(found[0].name), nil
}

// CommitTimestamp returns the committer time of objectName.
func (r *GoGitRepository) CommitTimestamp(_ context.Context, objectName string) (time.Time, error) {
	hash, err := r.resolve(objectName)
	if err != nil {
		return time.Time{}, err
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to get commit object for %s: %w", domain.ErrQueryFailed, hash, err)
	}
	return commit.Committer.When, nil
}

// WorkingTreeStatus yields the same entries as `git status --porcelain`:
// tracked changes sorted by path, then untracked entries sorted by path.
// A directory holding no tracked files is reported once as "dir/", and a
// staged delete and add of the same blob is reported as one rename.
func (r *GoGitRepository) WorkingTreeStatus(_ context.Context) iter.Seq2[domain.FileStatus, error] {
	return func(yield func(domain.FileStatus, error) bool) {
		wt, err := r.repo.Worktree()
		if err != nil {
			yield(domain.FileStatus{}, fmt.Errorf("%w: worktree: %w", domain.ErrQueryFailed, err))
			return
		}

		status, err := wt.Status()
		if err != nil {
			yield(domain.FileStatus{}, fmt.Errorf("%w: status: %w", domain.ErrQueryFailed, err))
			return
		}

		entries, err := r.porcelainEntries(status)
		if err != nil {
			yield(domain.FileStatus{}, err)
			return
		}

		for _, entry := range entries {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// porcelainEntries folds go-git's per-file status into porcelain entries.
func (r *GoGitRepository) porcelainEntries(status git.Status) ([]domain.FileStatus, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("%w: index: %w", domain.ErrQueryFailed, err)
	}

	indexed := make(map[string]plumbing.Hash, len(idx.Entries))
	trackedDirs := make(map[string]bool)
	for _, e := range idx.Entries {
		indexed[e.Name] = e.Hash
		for dir := path.Dir(e.Name); dir != "."; dir = path.Dir(dir) {
			trackedDirs[dir] = true
		}
	}

	renames, err := r.stagedRenames(status, indexed)
	if err != nil {
		return nil, err
	}

	var changed []domain.FileStatus
	untracked := make(map[string]bool)
	for name, fs := range status {
		switch {
		case fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified:
		case fs.Staging == git.Untracked:
			untracked[collapseUntracked(name, trackedDirs)] = true
		case renames.sources[name]:
		case renames.targets[name]:
			changed = append(changed, domain.NewFileStatus(name, string([]byte{'R', byte(fs.Worktree)})))
		default:
			changed = append(changed, domain.NewFileStatus(name, string([]byte{byte(fs.Staging), byte(fs.Worktree)})))
		}
	}

	sort.Slice(changed, func(i, j int) bool { return changed[i].Path() < changed[j].Path() })

	names := make([]string, 0, len(untracked))
	for name := range untracked {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		changed = append(changed, domain.NewFileStatus(name, "??"))
	}
	return changed, nil
}

// renameSet records the paths of staged renames.
type renameSet struct {
	sources map[string]bool
	targets map[string]bool
}

// stagedRenames pairs paths deleted from the index with added paths whose
// blob is identical to the deleted one in HEAD. Renames with edits are not
// detected; git's similarity scoring has no go-git counterpart.
func (r *GoGitRepository) stagedRenames(status git.Status, indexed map[string]plumbing.Hash) (renameSet, error) {
	set := renameSet{sources: map[string]bool{}, targets: map[string]bool{}}

	var deleted, added []string
	for name, fs := range status {
		switch fs.Staging {
		case git.Deleted:
			deleted = append(deleted, name)
		case git.Added:
			added = append(added, name)
		}
	}
	if len(deleted) == 0 || len(added) == 0 {
		return set, nil
	}

	head, err := r.repo.Head()
	if err != nil {
		return set, fmt.Errorf("%w: failed to get HEAD: %w", domain.ErrQueryFailed, err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return set, fmt.Errorf("%w: failed to get commit object for %s: %w", domain.ErrQueryFailed, head.Hash(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return set, fmt.Errorf("%w: tree of %s: %w", domain.ErrQueryFailed, head.Hash(), err)
	}

	sort.Strings(deleted)
	sources := make(map[plumbing.Hash][]string)
	for _, name := range deleted {
		entry, err := tree.FindEntry(name)
		if err != nil {
			continue
		}
		sources[entry.Hash] = append(sources[entry.Hash], name)
	}

	sort.Strings(added)
	for _, name := range added {
		hash, ok := indexed[name]
		if !ok || len(sources[hash]) == 0 {
			continue
		}
		set.sources[sources[hash][0]] = true
		set.targets[name] = true
		sources[hash] = sources[hash][1:]
	}
	return set, nil
}

// collapseUntracked returns the outermost ancestor directory of name that
// holds no tracked files, as "dir/", or name itself when every ancestor is
// tracked.
func collapseUntracked(name string, trackedDirs map[string]bool) string {
	parts := strings.Split(name, "/")
	for i := 1; i < len(parts); i++ {
		dir := strings.Join(parts[:i], "/")
		if !trackedDirs[dir] {
			return dir + "/"
		}
	}
	return name
}

// RepositoryRoot returns the root of the working tree filesystem.
func (r *GoGitRepository) RepositoryRoot(_ context.Context) (string, error) {
	if r.root != "" {
		return r.root, nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: worktree: %w", domain.ErrQueryFailed, err)
	}
	r.root = wt.Filesystem.Root()
	return r.root, nil
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}

// taggedCommit pairs a tag with the commit it peels to.
type taggedCommit struct {
	name      string
	annotated bool
	commit    *object.Commit
}

// taggedCommits peels every tag in the repository to its commit. Tags that
// point at non-commit objects are skipped.
func (r *GoGitRepository) taggedCommits() ([]taggedCommit, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("%w: list tags: %w", domain.ErrQueryFailed, err)
	}
	defer refs.Close()

	var tagged []taggedCommit
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		tc := taggedCommit{name: ref.Name().Short()}

		tagObj, err := r.repo.TagObject(ref.Hash())
		switch {
		case err == nil:
			tc.annotated = true
			tc.commit, err = tagObj.Commit()
			if err != nil {
				return nil
			}
		case errors.Is(err, plumbing.ErrObjectNotFound):
			tc.commit, err = r.repo.CommitObject(ref.Hash())
			if err != nil {
				return nil
			}
		default:
			return err
		}

		tagged = append(tagged, tc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: peel tags: %w", domain.ErrQueryFailed, err)
	}
	return tagged, nil
}

func (r *GoGitRepository) resolve(objectName string) (*plumbing.Hash, error) {
	obj := objectOrHead(objectName)
	hash, err := r.repo.ResolveRevision(plumbing.Revision(obj))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", domain.ErrQueryFailed, obj, err)
	}
	return hash, nil
}
