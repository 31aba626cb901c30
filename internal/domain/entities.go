// Package domain defines the core business entities and interfaces for verhdr.
package domain

import "time"

// HeadObject is the object name queried when the caller does not name one.
const HeadObject = "HEAD"

// ShortCommitLength is the number of hash characters in a short commit.
const ShortCommitLength = 7

// CommitDateLayout formats commit timestamps inside version strings (YYYYMMDD).
const CommitDateLayout = "20060102"

// FileStatus is a single entry of the working tree status report.
// See https://git-scm.com/docs/git-status#_short_format for the code values.
type FileStatus struct {
	path string
	code string
}

// NewFileStatus creates a FileStatus for the given path and 2-character code.
func NewFileStatus(path, code string) FileStatus {
	return FileStatus{path: path, code: code}
}

// Path returns the path of the file relative to the repository root.
func (s FileStatus) Path() string {
	return s.path
}

// Code returns the 2-character porcelain status code.
func (s FileStatus) Code() string {
	return s.code
}

// X returns the index status character.
func (s FileStatus) X() byte {
	return s.codeAt(0)
}

// Y returns the worktree status character.
func (s FileStatus) Y() byte {
	return s.codeAt(1)
}

func (s FileStatus) codeAt(i int) byte {
	if i < len(s.code) {
		return s.code[i]
	}
	return ' '
}

// CommitIdentity describes the commit HEAD points at.
type CommitIdentity struct {
	// Branch is the abbreviated ref name of HEAD ("HEAD" when detached).
	Branch string

	// Commit is the full commit hash of HEAD.
	Commit string

	// Time is the committer timestamp of HEAD, in the commit's own offset.
	Time time.Time
}

// ShortCommit returns the first ShortCommitLength characters of the commit hash.
func (c CommitIdentity) ShortCommit() string {
	if len(c.Commit) <= ShortCommitLength {
		return c.Commit
	}
	return c.Commit[:ShortCommitLength]
}

// Date returns the commit timestamp formatted as YYYYMMDD.
func (c CommitIdentity) Date() string {
	return c.Time.Format(CommitDateLayout)
}

// VersionDescriptor is the resolved provenance of a repository's working tree.
type VersionDescriptor struct {
	CommitIdentity

	// Version is the canonical human version string.
	Version string

	// Dirty is true iff Files is non-empty.
	Dirty bool

	// Files lists the working tree status entries in report order.
	Files []FileStatus

	// Repository is the absolute path of the top-level working directory.
	Repository string

	// Tag is the name of the nearest tag, when the repository has one.
	Tag Optional[string]
}
