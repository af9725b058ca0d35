package selector

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
)

// Fzf runs the fzf binary as a subprocess. Candidates go to its stdin and
// the chosen lines come back on stdout; fzf draws on the terminal itself.
type Fzf struct {
	path string
	opts Options
}

// NewFzf returns a selector running the fzf binary at path.
func NewFzf(path string, opts Options) *Fzf {
	return &Fzf{path: path, opts: opts}
}

// Select implements Selector. fzf exit codes 1 (no match) and 130
// (interrupted) mean nothing was selected.
func (f *Fzf) Select(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	cmd := f.command(ctx)
	cmd.Stdin = strings.NewReader(strings.Join(candidates, "\n") + "\n")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = f.opts.output()

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case 1, 130:
				return nil, nil
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fzf: %w", err)
	}

	return parseLines(stdout.String()), nil
}

func (f *Fzf) command(ctx context.Context) *exec.Cmd {
	args := []string{"--height", "80%", "--layout", "reverse"}
	if f.opts.Multi {
		args = append(args, "--multi")
	}
	if f.opts.Prompt != "" {
		args = append(args, "--prompt", f.opts.Prompt)
	}
	if f.opts.PreviewCommand != "" {
		args = append(args,
			"--preview", f.opts.PreviewCommand,
			"--preview-window", "right:50%:wrap",
		)
	}
	return exec.CommandContext(ctx, f.path, args...)
}

// parseLines splits fzf output into non-empty lines.
func parseLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ShellQuote quotes s for use inside an fzf --preview command.
func ShellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
