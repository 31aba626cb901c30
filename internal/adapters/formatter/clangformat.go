// Package formatter runs an optional source formatter over emitted headers.
package formatter

import (
	"context"
	"path/filepath"

	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/exec"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/workdir"
	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

// DefaultExecutable is the clang-format binary used when none is configured.
const DefaultExecutable = "clang-format"

// Logger defines the logging interface for the formatter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

var _ domain.Formatter = (*ClangFormat)(nil)

// ClangFormat formats files in place with clang-format.
type ClangFormat struct {
	exec   exec.Executor
	path   string
	args   []string
	dirs   *workdir.Stack
	logger Logger
}

// NewClangFormat creates a ClangFormat using the given binary and extra
// arguments. An empty path means DefaultExecutable.
func NewClangFormat(e exec.Executor, path string, args []string, dirs *workdir.Stack, log Logger) *ClangFormat {
	if path == "" {
		path = DefaultExecutable
	}
	return &ClangFormat{
		exec:   e,
		path:   path,
		args:   args,
		dirs:   dirs,
		logger: log,
	}
}

// Format runs clang-format -i on file from the file's own directory, so that
// the nearest .clang-format configuration is picked up. It reports false when
// the formatter is missing or fails; the file is then left as written.
func (f *ClangFormat) Format(ctx context.Context, file string) bool {
	abs, err := filepath.Abs(file)
	if err != nil {
		f.logger.Warn(ctx, "cannot resolve file to format", map[string]interface{}{
			"file":  file,
			"error": err.Error(),
		})
		return false
	}

	args := append(append([]string{}, f.args...), "-i", filepath.Base(abs))

	err = f.dirs.Within(filepath.Dir(abs), func() error {
		result, err := f.exec.Run(ctx, &exec.RunOptions{Name: f.path, Args: args})
		if err != nil && result != nil && len(result.Stderr) > 0 {
			f.logger.Debug(ctx, "clang-format stderr", map[string]interface{}{
				"stderr": string(result.Stderr),
			})
		}
		return err
	})
	if err != nil {
		f.logger.Warn(ctx, "formatting skipped", map[string]interface{}{
			"formatter": f.path,
			"file":      abs,
			"error":     err.Error(),
		})
		return false
	}

	f.logger.Debug(ctx, "formatted file", map[string]interface{}{
		"formatter": f.path,
		"file":      abs,
	})
	return true
}
