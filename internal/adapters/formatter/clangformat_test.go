package formatter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/exec"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/workdir"
)

type testLogger struct {
	warnings int
}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{}) {
	l.warnings++
}

// recordingExecutor captures the invocation and the working directory it ran in.
type recordingExecutor struct {
	err  error
	opts *exec.RunOptions
	cwd  string
}

func (r *recordingExecutor) Run(_ context.Context, opts *exec.RunOptions) (*exec.Result, error) {
	r.opts = opts
	r.cwd, _ = os.Getwd()
	if r.err != nil {
		return &exec.Result{ExitCode: 1, Stderr: []byte("error: invalid style")}, r.err
	}
	return &exec.Result{}, nil
}

func TestClangFormat_Format(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "version.h")
	start, err := os.Getwd()
	require.NoError(t, err)

	rec := &recordingExecutor{}
	log := &testLogger{}
	f := NewClangFormat(rec, "/opt/llvm/bin/clang-format", []string{"--style=file"}, workdir.NewStack(), log)

	ok := f.Format(context.Background(), file)

	assert.True(t, ok)
	assert.Zero(t, log.warnings)
	require.NotNil(t, rec.opts)
	assert.Equal(t, "/opt/llvm/bin/clang-format", rec.opts.Name)
	assert.Equal(t, []string{"--style=file", "-i", "version.h"}, rec.opts.Args)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, rec.cwd, "formatter runs in the header's directory")

	now, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, now)
}

func TestClangFormat_Format_FailureTolerated(t *testing.T) {
	start, err := os.Getwd()
	require.NoError(t, err)

	rec := &recordingExecutor{err: errors.New("exit status 1")}
	log := &testLogger{}
	f := NewClangFormat(rec, "", nil, workdir.NewStack(), log)

	ok := f.Format(context.Background(), filepath.Join(t.TempDir(), "version.h"))

	assert.False(t, ok)
	assert.Equal(t, 1, log.warnings)
	assert.Equal(t, DefaultExecutable, rec.opts.Name)

	now, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, now, "working directory restored after failure")
}

func TestClangFormat_Format_MissingDirectory(t *testing.T) {
	rec := &recordingExecutor{}
	f := NewClangFormat(rec, "", nil, workdir.NewStack(), &testLogger{})

	ok := f.Format(context.Background(), filepath.Join(t.TempDir(), "missing", "version.h"))

	assert.False(t, ok)
	assert.Nil(t, rec.opts, "formatter must not run when the directory cannot be entered")
}

func TestClangFormat_Format_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "version.h")
	require.NoError(t, os.WriteFile(file, []byte("#pragma once\n"), 0o644))

	f := NewClangFormat(exec.New(), "nonexistent-clang-format-12345", nil, workdir.NewStack(), &testLogger{})

	assert.False(t, f.Format(context.Background(), file))
	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "#pragma once\n", string(got))
}
