// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"
)

// StdoutPath is the destination path that selects standard output.
const StdoutPath = "-"

// Writer writes rendered content to files, or to its stdout writer for "-".
type Writer struct {
	out io.Writer
}

// NewWriter creates a new Writer whose "-" destination is os.Stdout.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput creates a new Writer with a custom "-" destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write creates or truncates path and writes content to it. A failure
// mid-write leaves a partial file behind; callers detect it from the error.
func (w *Writer) Write(path string, content []byte) error {
	if path == StdoutPath {
		_, err := w.out.Write(content)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
