package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Write(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "header content", content: "#pragma once\n"},
		{name: "empty content", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			path := filepath.Join(t.TempDir(), "version.h")
			writer := NewWriterWithOutput(&bytes.Buffer{})

			// Act
			err := writer.Write(path, []byte(tt.content))

			// Assert
			require.NoError(t, err)
			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(got))
		})
	}
}

func TestWriter_Write_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.h")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous header"), 0o644))

	require.NoError(t, NewWriter().Write(path, []byte("short")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestWriter_Write_Stdout(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriterWithOutput(&buf)

	require.NoError(t, writer.Write(StdoutPath, []byte("content\n")))

	assert.Equal(t, "content\n", buf.String())
}

func TestWriter_Write_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "version.h")

	err := NewWriter().Write(path, []byte("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create")
}

func TestNewWriter_UsesStdout(t *testing.T) {
	writer := NewWriter()
	assert.NotNil(t, writer)
	assert.Equal(t, os.Stdout, writer.out)
}
