package preview

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/hpungsan/locky/internal/errors"
)

// dirSource serves vault entries from a directory with fixed descriptions.
type dirSource struct {
	dir   string
	descs map[string]string
}

func (s dirSource) Path(filename string) (string, error) {
	if strings.ContainsAny(filename, `/\`) {
		return "", errors.NewInvalidRequest("bad name")
	}
	return filepath.Join(s.dir, filename), nil
}

func (s dirSource) Description(_ context.Context, filename string) (*string, error) {
	d, ok := s.descs[filename]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func newSource(t *testing.T, files map[string]string, descs map[string]string) dirSource {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile error = %v", err)
		}
	}
	return dirSource{dir: dir, descs: descs}
}

func TestWriteEntry_Plain(t *testing.T) {
	src := newSource(t,
		map[string]string{"notes.txt": "hello\nworld\n"},
		map[string]string{"notes.txt": "txt file - starts with: hello"},
	)

	var b strings.Builder
	if err := WriteEntry(context.Background(), &b, src, "notes.txt", Options{}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}

	want := "File: notes.txt\n" +
		"Description: txt file - starts with: hello\n" +
		Rule + "\n" +
		"hello\nworld\n"
	if b.String() != want {
		t.Errorf("WriteEntry() =\n%s\nwant\n%s", b.String(), want)
	}
}

func TestWriteEntry_NoDescription(t *testing.T) {
	src := newSource(t, map[string]string{"a.txt": "x"}, nil)

	var b strings.Builder
	if err := WriteEntry(context.Background(), &b, src, "a.txt", Options{}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}
	if !strings.Contains(b.String(), "Description: (none)\n") {
		t.Errorf("WriteEntry() = %q", b.String())
	}
	// No trailing newline in the file, one is added
	if !strings.HasSuffix(b.String(), Rule+"\nx\n") {
		t.Errorf("WriteEntry() = %q", b.String())
	}
}

func TestWriteEntry_Missing(t *testing.T) {
	src := newSource(t, nil, map[string]string{"gone.txt": "was here"})

	var b strings.Builder
	if err := WriteEntry(context.Background(), &b, src, "gone.txt", Options{}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}
	want := "File: gone.txt\nDescription: was here\n" + Rule + "\n(file not found in vault)\n"
	if b.String() != want {
		t.Errorf("WriteEntry() = %q, want %q", b.String(), want)
	}
}

func TestWriteEntry_Binary(t *testing.T) {
	src := newSource(t, map[string]string{"img.png": "\x89PNG\x00\x00\x00"}, nil)

	var b strings.Builder
	if err := WriteEntry(context.Background(), &b, src, "img.png", Options{}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}
	if !strings.HasSuffix(b.String(), "(binary file, 7 B)\n") {
		t.Errorf("WriteEntry() = %q", b.String())
	}
}

func TestWriteEntry_Truncated(t *testing.T) {
	src := newSource(t, map[string]string{"big.txt": strings.Repeat("a", 100)}, nil)

	var b strings.Builder
	if err := WriteEntry(context.Background(), &b, src, "big.txt", Options{MaxBytes: 10}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}
	out := b.String()
	if !strings.Contains(out, Rule+"\n"+strings.Repeat("a", 10)+"\n") {
		t.Errorf("WriteEntry() = %q", out)
	}
	if !strings.Contains(out, "(showing first 10 B of 100 B)") {
		t.Errorf("WriteEntry() missing truncation note: %q", out)
	}
}

func TestWriteEntry_ColorHighlights(t *testing.T) {
	src := newSource(t, map[string]string{"main.go": "package main\n\nfunc main() {}\n"}, nil)

	var b strings.Builder
	if err := WriteEntry(context.Background(), &b, src, "main.go", Options{Color: true, Style: "monokai"}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI escapes in highlighted output: %q", out)
	}
	if !strings.Contains(ansi.ReplaceAllString(out, ""), "func main()") {
		t.Errorf("highlighted output lost content: %q", out)
	}
}

func TestWriteEntry_MarkdownRendered(t *testing.T) {
	src := newSource(t, map[string]string{"README.md": "# Title\n\nSome *text*.\n"}, nil)

	var b strings.Builder
	if err := WriteEntry(context.Background(), &b, src, "README.md", Options{Color: true}); err != nil {
		t.Fatalf("WriteEntry() error = %v", err)
	}
	out := ansi.ReplaceAllString(b.String(), "")
	if !strings.Contains(out, "Title") || !strings.Contains(out, "text") {
		t.Errorf("markdown output lost content: %q", out)
	}
	if strings.Contains(out, "*text*") {
		t.Errorf("markdown emphasis was not rendered: %q", out)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidate.txt")
	if err := os.WriteFile(path, []byte("line one\n"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	var b strings.Builder
	if err := WriteFile(&b, path, Options{}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	out := b.String()
	if !strings.HasPrefix(out, "File: "+path+"\nSize: 9 B, modified ") {
		t.Errorf("WriteFile() = %q", out)
	}
	if !strings.HasSuffix(out, Rule+"\nline one\n") {
		t.Errorf("WriteFile() = %q", out)
	}

	b.Reset()
	if err := WriteFile(&b, filepath.Join(t.TempDir(), "nope"), Options{}); err != nil {
		t.Fatalf("WriteFile(missing) error = %v", err)
	}
	if !strings.HasSuffix(b.String(), "(file not found)\n") {
		t.Errorf("WriteFile(missing) = %q", b.String())
	}
}

func TestString(t *testing.T) {
	src := newSource(t, map[string]string{"a.txt": "x"}, nil)

	if got := String(context.Background(), src, "a.txt", Options{}); !strings.HasPrefix(got, "File: a.txt\n") {
		t.Errorf("String() = %q", got)
	}
}
