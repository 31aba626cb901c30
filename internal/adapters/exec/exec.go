// Package exec provides an abstraction over executing external commands.
package exec

import (
	"context"
	"errors"
	"os/exec"
)

// Result holds the captured output of a completed command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// RunOptions configures command execution.
type RunOptions struct {
	Name string   // Command name or path (required)
	Args []string // Command arguments
}

// Executor runs external commands.
type Executor interface {
	// Run executes a command in the current working directory and captures
	// its output. Returns os/exec.ExitError on non-zero exit (use errors.As to
	// extract); the Result is populated either way.
	Run(ctx context.Context, opts *RunOptions) (*Result, error)
}

// IsExitError reports whether err means the command ran and exited non-zero,
// as opposed to failing to start at all.
func IsExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
