// Package describe produces short descriptions of stored files.
//
// A Describer never fails: remote providers fall back to the
// content-derived Baseline on any error.
package describe

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultMaxBytes is how much of a file is inspected when no limit is configured.
const DefaultMaxBytes = 16000

// maxLineRunes caps the quoted first line in a baseline description.
const maxLineRunes = 140

// Describer produces a description for the file at path.
type Describer interface {
	Describe(ctx context.Context, path string) string
}

// Baseline derives a description from the file extension and the first
// non-empty line of readable text.
type Baseline struct {
	MaxBytes int
}

// Describe implements Describer.
func (b Baseline) Describe(_ context.Context, path string) string {
	ext := extLabel(path)

	head, err := readHead(path, b.maxBytes())
	if err != nil {
		return ext + " file - no readable text"
	}
	if line := firstLine(head); line != "" {
		return fmt.Sprintf("%s file - starts with: %s", ext, line)
	}
	return ext + " file - no readable text"
}

func (b Baseline) maxBytes() int {
	if b.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return b.MaxBytes
}

// extLabel returns the lowercase extension without its dot, or "unknown".
func extLabel(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "unknown"
	}
	return ext
}

// readHead reads up to n bytes from the start of path.
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, int64(n)))
}

// firstLine returns the first non-blank line of data with invalid UTF-8
// dropped, trimmed and capped at maxLineRunes.
func firstLine(data []byte) string {
	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, "\x00", "")
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if utf8.RuneCountInString(s) > maxLineRunes {
			s = string([]rune(s)[:maxLineRunes])
		}
		return s
	}
	return ""
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
