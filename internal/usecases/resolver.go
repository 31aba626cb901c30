// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

// Logger defines the logging interface required by the resolver.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// VersionResolver derives a VersionDescriptor from repository inspection.
type VersionResolver struct {
	inspector domain.Inspector
	logger    Logger
}

// NewVersionResolver creates a new VersionResolver with the given dependencies.
func NewVersionResolver(inspector domain.Inspector, log Logger) *VersionResolver {
	return &VersionResolver{
		inspector: inspector,
		logger:    log,
	}
}

// Resolve inspects the repository and builds its version descriptor.
//
// The version string is the nearest tag (with a leading "v<digit>" reduced to
// the digits), or "<short>-<YYYYMMDD>" when the repository has no tags. A tag
// that does not point at HEAD gets "-next-<short>-<YYYYMMDD>" appended, and a
// dirty working tree gets "-dirty".
//
// Returns domain.ErrNotRepository if the path is not inside a working tree.
func (r *VersionResolver) Resolve(ctx context.Context) (*domain.VersionDescriptor, error) {
	ok, err := r.inspector.IsWorktree(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check work tree: %w", err)
	}
	if !ok {
		return nil, domain.ErrNotRepository
	}

	identity, err := r.headIdentity(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Debug(ctx, "resolved HEAD", map[string]interface{}{
		"branch": identity.Branch,
		"commit": identity.Commit,
		"time":   identity.Time,
	})

	taggedCommit, err := r.inspector.NearestTaggedCommit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find tagged commit: %w", err)
	}

	tag := domain.None[string]()
	if commit, found := taggedCommit.Get(); found {
		tag, err = r.inspector.TagName(ctx, commit)
		if err != nil {
			return nil, fmt.Errorf("failed to get tag name of %s: %w", commit, err)
		}
	}

	version := BaseVersion(identity, tag)
	if commit, found := taggedCommit.Get(); found && tag.IsPresent() && commit != identity.Commit {
		version = fmt.Sprintf("%s-next-%s-%s", version, identity.ShortCommit(), identity.Date())
	}

	var files []domain.FileStatus
	for entry, err := range r.inspector.WorkingTreeStatus(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to get working tree status: %w", err)
		}
		files = append(files, entry)
	}

	dirty := len(files) > 0
	if dirty {
		version += "-dirty"
	}

	root, err := r.inspector.RepositoryRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository root: %w", err)
	}

	desc := &domain.VersionDescriptor{
		CommitIdentity: identity,
		Version:        version,
		Dirty:          dirty,
		Files:          files,
		Repository:     root,
		Tag:            tag,
	}

	r.logger.Info(ctx, "version resolved", map[string]interface{}{
		"version":     desc.Version,
		"tag":         tag.OrElse(""),
		"dirty":       desc.Dirty,
		"dirty_files": len(desc.Files),
		"repository":  desc.Repository,
	})

	return desc, nil
}

// headIdentity fetches the mandatory branch, commit and timestamp of HEAD.
func (r *VersionResolver) headIdentity(ctx context.Context) (domain.CommitIdentity, error) {
	branch, err := r.inspector.CurrentBranch(ctx, domain.HeadObject)
	if err != nil {
		return domain.CommitIdentity{}, fmt.Errorf("failed to get current branch: %w", err)
	}

	commit, err := r.inspector.CurrentCommit(ctx, domain.HeadObject)
	if err != nil {
		return domain.CommitIdentity{}, fmt.Errorf("failed to get current commit: %w", err)
	}

	ts, err := r.inspector.CommitTimestamp(ctx, domain.HeadObject)
	if err != nil {
		return domain.CommitIdentity{}, fmt.Errorf("failed to get commit timestamp: %w", err)
	}

	return domain.CommitIdentity{Branch: branch, Commit: commit, Time: ts}, nil
}

// BaseVersion returns the version string before the "-next" and "-dirty"
// suffixes are applied.
func BaseVersion(identity domain.CommitIdentity, tag domain.Optional[string]) string {
	name, ok := tag.Get()
	if !ok {
		return identity.ShortCommit() + "-" + identity.Date()
	}
	return CanonicalTag(name)
}

// CanonicalTag strips the "v" of tags shaped like "v1.2.3". The character
// after the "v" may be any Unicode decimal digit (category Nd). Any other tag,
// including "version1", is returned unchanged.
func CanonicalTag(tag string) string {
	rest, ok := strings.CutPrefix(tag, "v")
	if !ok {
		return tag
	}
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsDigit(r) {
		return rest
	}
	return tag
}
