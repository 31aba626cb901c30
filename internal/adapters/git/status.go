package git

import (
	"iter"
	"strings"

	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

// ParsePorcelainZ parses the output of `git status --porcelain -z`.
//
// Records are NUL-terminated and have the form "XY <path>". Renames and copies
// are followed by an extra record holding the source path, which is skipped so
// that every changed file yields exactly one entry.
func ParsePorcelainZ(out string) iter.Seq[domain.FileStatus] {
	return func(yield func(domain.FileStatus) bool) {
		records := strings.Split(out, "\x00")
		for i := 0; i < len(records); i++ {
			record := records[i]
			if record == "" {
				continue
			}

			entry := parseRecord(record)
			if isRenameOrCopy(entry) {
				i++
			}
			if !yield(entry) {
				return
			}
		}
	}
}

func parseRecord(record string) domain.FileStatus {
	code := record
	if len(code) > 2 {
		code = code[:2]
	}
	for len(code) < 2 {
		code += " "
	}

	var path string
	if len(record) > 3 {
		path = record[3:]
	}
	return domain.NewFileStatus(path, code)
}

func isRenameOrCopy(entry domain.FileStatus) bool {
	switch entry.X() {
	case 'R', 'C':
		return true
	}
	switch entry.Y() {
	case 'R', 'C':
		return true
	}
	return false
}
