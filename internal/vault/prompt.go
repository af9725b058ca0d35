package vault

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter answers overwrite confirmations.
type Prompter interface {
	// Confirm shows message and reports whether the user agreed.
	Confirm(message string) bool
}

// AlwaysPrompter answers every confirmation with its own value.
// AlwaysPrompter(true) backs --yes; AlwaysPrompter(false) never overwrites.
type AlwaysPrompter bool

// Confirm implements Prompter.
func (a AlwaysPrompter) Confirm(string) bool { return bool(a) }

// StdinPrompter asks on an interactive terminal. Only "y" or "yes"
// (case-insensitive) counts as agreement; anything else, including EOF,
// is a decline.
type StdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdinPrompter returns a prompter reading answers from in and writing
// questions to out.
func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{in: bufio.NewReader(in), out: out}
}

// Confirm implements Prompter.
func (p *StdinPrompter) Confirm(message string) bool {
	fmt.Fprintf(p.out, "%s (y/n): ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
