package git

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/exec"
	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

// DefaultExecutable is the git binary used when none is configured.
const DefaultExecutable = "git"

var _ domain.Inspector = (*CLIRepository)(nil)

// CLIRepository implements domain.Inspector by invoking the git executable.
// Every query runs `git -C <path> ...` once; nothing is retried.
type CLIRepository struct {
	exec   exec.Executor
	git    string
	path   string
	logger Logger
	root   string
}

// NewCLIRepository creates a CLIRepository for the repository at path using
// the given git executable. An empty gitPath means DefaultExecutable.
func NewCLIRepository(e exec.Executor, gitPath, path string, log Logger) *CLIRepository {
	if gitPath == "" {
		gitPath = DefaultExecutable
	}
	return &CLIRepository{
		exec:   e,
		git:    gitPath,
		path:   path,
		logger: log,
	}
}

// IsWorktree reports whether the path is inside a git working tree.
// A git exit status other than zero means "no"; failing to start git at all
// is a query failure.
func (r *CLIRepository) IsWorktree(ctx context.Context) (bool, error) {
	out, result, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		if exec.IsExitError(err) {
			r.logger.Debug(ctx, "path is not inside a work tree", map[string]interface{}{
				"path":   r.path,
				"stderr": stderrOf(result),
			})
			return false, nil
		}
		return false, queryError("rev-parse --is-inside-work-tree", result, err)
	}
	return trimOutput(out) == "true", nil
}

// CurrentBranch returns the abbreviated ref name of objectName.
func (r *CLIRepository) CurrentBranch(ctx context.Context, objectName string) (string, error) {
	return r.query(ctx, "rev-parse", "--abbrev-ref", objectOrHead(objectName))
}

// CurrentCommit returns the full hash objectName resolves to.
func (r *CLIRepository) CurrentCommit(ctx context.Context, objectName string) (string, error) {
	return r.query(ctx, "rev-parse", objectOrHead(objectName))
}

// NearestTaggedCommit returns the most recent commit that carries a tag.
func (r *CLIRepository) NearestTaggedCommit(ctx context.Context) (domain.Optional[string], error) {
	commit, err := r.query(ctx, "rev-list", "--max-count=1", "--tags")
	if err != nil {
		return domain.None[string](), err
	}
	if commit == "" {
		return domain.None[string](), nil
	}
	return domain.Some(commit), nil
}

// TagName returns the nearest tag reachable from objectName. git describe
// exits non-zero when no tag exists, which is reported as absent.
func (r *CLIRepository) TagName(ctx context.Context, objectName string) (domain.Optional[string], error) {
	obj := objectOrHead(objectName)
	out, result, err := r.run(ctx, "describe", "--abbrev=0", "--tags", obj)
	if err != nil {
		if exec.IsExitError(err) {
			r.logger.Debug(ctx, "no tag reachable from object", map[string]interface{}{
				"object": obj,
				"stderr": stderrOf(result),
			})
			return domain.None[string](), nil
		}
		return domain.None[string](), queryError("describe", result, err)
	}

	tag := trimOutput(out)
	if tag == "" {
		return domain.None[string](), nil
	}
	return domain.Some(tag), nil
}

// CommitTimestamp returns the committer date of objectName.
func (r *CLIRepository) CommitTimestamp(ctx context.Context, objectName string) (time.Time, error) {
	iso, err := r.query(ctx, "log", "-1", "--format=%cd", "--date=iso-strict", objectOrHead(objectName))
	if err != nil {
		return time.Time{}, err
	}

	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidTimestamp, iso, err)
	}
	return ts, nil
}

// WorkingTreeStatus yields the porcelain status entries. The status command
// runs when iteration starts.
func (r *CLIRepository) WorkingTreeStatus(ctx context.Context) iter.Seq2[domain.FileStatus, error] {
	return func(yield func(domain.FileStatus, error) bool) {
		out, result, err := r.run(ctx, "status", "--porcelain", "-z")
		if err != nil {
			yield(domain.FileStatus{}, queryError("status", result, err))
			return
		}
		for entry := range ParsePorcelainZ(out) {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// RepositoryRoot returns the top-level directory of the working tree.
func (r *CLIRepository) RepositoryRoot(ctx context.Context) (string, error) {
	if r.root != "" {
		return r.root, nil
	}

	root, err := r.query(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	r.root = root
	return root, nil
}

// Close is a no-op; every query is a separate process.
func (r *CLIRepository) Close() error {
	return nil
}

// query runs a git command and returns its trimmed stdout.
func (r *CLIRepository) query(ctx context.Context, args ...string) (string, error) {
	out, result, err := r.run(ctx, args...)
	if err != nil {
		return "", queryError(strings.Join(args, " "), result, err)
	}
	return trimOutput(out), nil
}

// run executes git against the repository path and returns raw stdout.
func (r *CLIRepository) run(ctx context.Context, args ...string) (string, *exec.Result, error) {
	fullArgs := append([]string{"-C", r.path}, args...)

	r.logger.Debug(ctx, "running git", map[string]interface{}{
		"git":  r.git,
		"args": fullArgs,
	})

	result, err := r.exec.Run(ctx, &exec.RunOptions{
		Name: r.git,
		Args: fullArgs,
	})
	if err != nil {
		return "", result, err
	}
	return string(result.Stdout), result, nil
}

// queryError formats a failed git command, including stderr if available.
func queryError(operation string, result *exec.Result, err error) error {
	if stderr := stderrOf(result); stderr != "" {
		return fmt.Errorf("%w: git %s: %s", domain.ErrQueryFailed, operation, stderr)
	}
	return fmt.Errorf("%w: git %s: %w", domain.ErrQueryFailed, operation, err)
}

func stderrOf(result *exec.Result) string {
	if result == nil {
		return ""
	}
	return strings.TrimSpace(string(result.Stderr))
}

func trimOutput(out string) string {
	return strings.TrimRight(out, " \t\r\n")
}

func objectOrHead(objectName string) string {
	if objectName == "" {
		return domain.HeadObject
	}
	return objectName
}
