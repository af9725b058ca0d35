// Package selector lets the user pick vault entries or add candidates
// from a list, through fzf when available or a built-in terminal picker.
package selector

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/hpungsan/locky/internal/config"
)

// Selector returns the subset of candidates the user chose, in the order
// they were chosen. An empty result means nothing was selected.
type Selector interface {
	Select(ctx context.Context, candidates []string) ([]string, error)
}

// Options tune a selector for one use.
type Options struct {
	// Multi allows choosing more than one candidate.
	Multi bool

	// Prompt is shown before the query.
	Prompt string

	// PreviewCommand is the fzf --preview command; {} is replaced by the
	// highlighted candidate. Empty disables the fzf preview pane.
	PreviewCommand string

	// Preview renders the preview pane of the built-in picker.
	// Nil disables it.
	Preview func(candidate string) string

	// In and Out are the terminal streams. Default to stdin and stderr.
	In  io.Reader
	Out io.Writer
}

func (o Options) input() io.Reader {
	if o.In == nil {
		return os.Stdin
	}
	return o.In
}

func (o Options) output() io.Writer {
	if o.Out == nil {
		return os.Stderr
	}
	return o.Out
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// New returns the selector configured by cfg.Selector. "auto" prefers fzf
// when it is on PATH and falls back to the built-in picker.
func New(cfg *config.Config, opts Options) (Selector, error) {
	switch cfg.Selector {
	case config.SelectorFzf:
		path, err := lookPath("fzf")
		if err != nil {
			return nil, fmt.Errorf("selector fzf: %w", err)
		}
		return NewFzf(path, opts), nil
	case config.SelectorTUI:
		return NewPicker(opts), nil
	case config.SelectorAuto, "":
		if path, err := lookPath("fzf"); err == nil {
			return NewFzf(path, opts), nil
		}
		return NewPicker(opts), nil
	}
	return nil, fmt.Errorf("unknown selector %q", cfg.Selector)
}
