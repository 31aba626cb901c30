// Package domain defines the core business entities and interfaces for verhdr.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
	"iter"
	"time"
)

// Domain errors for repository inspection and version resolution.
var (
	// ErrNotRepository indicates the target path is not inside a git working tree.
	ErrNotRepository = errors.New("not a git repository")

	// ErrQueryFailed indicates an underlying repository query failed unexpectedly.
	ErrQueryFailed = errors.New("repository query failed")

	// ErrInvalidTimestamp indicates a commit timestamp could not be parsed.
	ErrInvalidTimestamp = errors.New("invalid commit timestamp")
)

// Inspector issues read-only queries against a single repository.
// Failed queries return an error wrapping ErrQueryFailed; data that is
// legitimately missing (no tags) is reported as an empty Optional instead.
type Inspector interface {
	// IsWorktree reports whether the repository path is inside a working tree.
	IsWorktree(ctx context.Context) (bool, error)

	// CurrentBranch returns the abbreviated branch name of objectName.
	// An empty objectName means HEAD.
	CurrentBranch(ctx context.Context, objectName string) (string, error)

	// CurrentCommit returns the full commit hash objectName resolves to.
	// An empty objectName means HEAD.
	CurrentCommit(ctx context.Context, objectName string) (string, error)

	// NearestTaggedCommit returns the most recent commit carrying any tag.
	NearestTaggedCommit(ctx context.Context) (Optional[string], error)

	// TagName returns the nearest tag reachable backwards from objectName.
	TagName(ctx context.Context, objectName string) (Optional[string], error)

	// CommitTimestamp returns the committer date of objectName.
	CommitTimestamp(ctx context.Context, objectName string) (time.Time, error)

	// WorkingTreeStatus yields the status entries of the working tree, in
	// report order. The sequence is finite and meant to be consumed once.
	WorkingTreeStatus(ctx context.Context) iter.Seq2[FileStatus, error]

	// RepositoryRoot returns the absolute top-level directory. The value is
	// computed once and cached.
	RepositoryRoot(ctx context.Context) (string, error)

	// Close releases any resources held by the inspector.
	Close() error
}

// Resolver turns inspector output into a VersionDescriptor.
type Resolver interface {
	// Resolve inspects the repository and returns its version descriptor.
	Resolve(ctx context.Context) (*VersionDescriptor, error)
}

// Renderer serializes a descriptor into its textual form.
type Renderer interface {
	Render(desc *VersionDescriptor) ([]byte, error)
}

// OutputWriter writes rendered content to a destination path.
type OutputWriter interface {
	// Write creates or truncates path and writes content to it.
	// The path "-" writes to standard output.
	Write(path string, content []byte) error
}

// Formatter runs an optional source formatter over a written file.
type Formatter interface {
	// Format reports whether the file was formatted. Failure is never fatal.
	Format(ctx context.Context, path string) bool
}
