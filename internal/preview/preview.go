// Package preview renders the text shown next to a highlighted entry in
// the selectors: a short header followed by the file's contents.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/hpungsan/locky/internal/storage"
)

// Rule separates the header from the contents.
var Rule = strings.Repeat("-", 60)

// DefaultMaxBytes bounds how much content is rendered when unset.
const DefaultMaxBytes = 64 * 1024

// Options control rendering.
type Options struct {
	MaxBytes int    // content cap; 0 means DefaultMaxBytes
	Style    string // chroma style name
	Color    bool   // emit ANSI highlighting
	Width    int    // markdown wrap width; 0 means 80
}

func (o Options) maxBytes() int {
	if o.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return o.MaxBytes
}

func (o Options) width() int {
	if o.Width <= 0 {
		return 80
	}
	return o.Width
}

// Source resolves vault entries. *vault.Manager satisfies it.
type Source interface {
	Path(filename string) (string, error)
	Description(ctx context.Context, filename string) (*string, error)
}

// WriteEntry writes the preview of the vault entry filename.
// A file missing from the vault still gets a header.
func WriteEntry(ctx context.Context, w io.Writer, src Source, filename string, opts Options) error {
	desc := "(none)"
	if d, err := src.Description(ctx, filename); err == nil && d != nil && *d != "" {
		desc = *d
	}

	fmt.Fprintf(w, "File: %s\n", filename)
	fmt.Fprintf(w, "Description: %s\n", desc)
	fmt.Fprintln(w, Rule)

	path, err := src.Path(filename)
	if err != nil || !isRegular(path) {
		_, err := fmt.Fprintln(w, "(file not found in vault)")
		return err
	}
	return writeContent(w, path, opts)
}

// WriteFile writes the preview of an arbitrary file, as offered by add.
func WriteFile(w io.Writer, path string, opts Options) error {
	fmt.Fprintf(w, "File: %s\n", path)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		fmt.Fprintf(w, "Size: %s, modified %s\n", humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
	}
	fmt.Fprintln(w, Rule)

	if !isRegular(path) {
		_, err := fmt.Fprintln(w, "(file not found)")
		return err
	}
	return writeContent(w, path, opts)
}

// String renders the entry preview to a string, for the built-in picker.
func String(ctx context.Context, src Source, filename string, opts Options) string {
	var b strings.Builder
	if err := WriteEntry(ctx, &b, src, filename, opts); err != nil {
		fmt.Fprintf(&b, "(preview failed: %v)\n", err)
	}
	return b.String()
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// writeContent writes the contents of path: highlighted text, rendered
// markdown, or a one-line note for binary files.
func writeContent(w io.Writer, path string, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		_, err := fmt.Fprintf(w, "(cannot read file: %v)\n", err)
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	limit := opts.maxBytes()
	data, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return err
	}

	if storage.LooksBinary(data) {
		_, err := fmt.Fprintf(w, "(binary file, %s)\n", humanize.Bytes(uint64(info.Size())))
		return err
	}

	truncated := info.Size() > int64(len(data))
	text := string(storage.TrimPartialRune(data))

	rendered := text
	if opts.Color {
		rendered = render(filepath.Base(path), text, opts)
	}
	if _, err := io.WriteString(w, rendered); err != nil {
		return err
	}
	if !strings.HasSuffix(rendered, "\n") {
		fmt.Fprintln(w)
	}
	if truncated {
		_, err := fmt.Fprintf(w, "... (showing first %s of %s)\n",
			humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(info.Size())))
		return err
	}
	return nil
}

// render highlights text for a terminal. Markdown goes through glamour,
// everything else through chroma. Failures fall back to plain text.
func render(name, text string, opts Options) string {
	if isMarkdown(name) {
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(opts.width()),
		)
		if err == nil {
			if out, err := r.Render(text); err == nil {
				return out
			}
		}
		return text
	}

	out, err := highlight(name, text, opts.Style)
	if err != nil {
		return text
	}
	return out
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown":
		return true
	}
	return false
}

// highlight runs text through the chroma lexer chosen by filename.
func highlight(name, text, styleName string) (string, error) {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", err
	}
	return buf.String(), nil
}
