// Package header renders a version descriptor as a C header. The header holds
// preprocessor definitions plus a git_status_t type whose array sizes are
// derived from the data itself, so the value returned by git_status() needs no
// pointers or dynamic allocation.
package header

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

//go:embed version.h.tmpl
var headerTemplate string

var tmpl = template.Must(template.New("version.h").Funcs(template.FuncMap{
	"cstring": CString,
	"cchar":   CChar,
}).Parse(headerTemplate))

// placeholder keeps files[] non-empty when the working tree is clean.
var placeholder = domain.NewFileStatus("", "  ")

// Layout holds the array sizes of the emitted git_status_t type.
type Layout struct {
	BranchWidth     int
	CommitWidth     int
	PathWidth       int
	FileSlots       int
	RepositoryWidth int
}

// ComputeLayout sizes every char array to its value's byte length plus the
// terminating NUL, and the files array to max(len(files), 1).
func ComputeLayout(desc *domain.VersionDescriptor) Layout {
	longestPath := 0
	for _, f := range desc.Files {
		longestPath = max(longestPath, len(f.Path()))
	}

	return Layout{
		BranchWidth:     len(desc.Branch) + 1,
		CommitWidth:     len(desc.Commit) + 1,
		PathWidth:       longestPath + 1,
		FileSlots:       max(len(desc.Files), 1),
		RepositoryWidth: len(desc.Repository) + 1,
	}
}

// view is the data handed to the template.
type view struct {
	Branch     string
	Commit     string
	Dirty      bool
	Repository string
	HasTag     bool
	Tag        string
	Version    string
	Layout     Layout
	Count      int
	Files      []domain.FileStatus
}

// Emitter renders version descriptors as C headers.
type Emitter struct{}

// NewEmitter creates a new Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Render returns the header text for desc.
func (e *Emitter) Render(desc *domain.VersionDescriptor) ([]byte, error) {
	files := desc.Files
	if len(files) == 0 {
		files = []domain.FileStatus{placeholder}
	}

	tag, hasTag := desc.Tag.Get()
	v := view{
		Branch:     desc.Branch,
		Commit:     desc.Commit,
		Dirty:      desc.Dirty,
		Repository: desc.Repository,
		HasTag:     hasTag,
		Tag:        tag,
		Version:    desc.Version,
		Layout:     ComputeLayout(desc),
		Count:      len(desc.Files),
		Files:      files,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render header: %w", err)
	}
	return buf.Bytes(), nil
}

// CString quotes s as a C string literal.
func CString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		writeEscaped(&b, s[i], '"')
	}
	b.WriteByte('"')
	return b.String()
}

// CChar quotes c as a C character literal.
func CChar(c byte) string {
	var b strings.Builder
	b.WriteByte('\'')
	writeEscaped(&b, c, '\'')
	b.WriteByte('\'')
	return b.String()
}

func writeEscaped(b *strings.Builder, c, quote byte) {
	switch {
	case c == quote || c == '\\':
		b.WriteByte('\\')
		b.WriteByte(c)
	case c == '\n':
		b.WriteString(`\n`)
	case c == '\t':
		b.WriteString(`\t`)
	case c == '\r':
		b.WriteString(`\r`)
	case c < 0x20 || c == 0x7f:
		// Octal escapes stop after three digits, unlike \x.
		fmt.Fprintf(b, `\%03o`, c)
	default:
		b.WriteByte(c)
	}
}
