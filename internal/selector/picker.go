package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// Picker is the built-in terminal picker used when fzf is unavailable.
// Typing filters candidates with fuzzy matching; tab marks entries in
// multi mode, enter confirms and esc cancels.
type Picker struct {
	opts Options
}

// NewPicker returns a terminal picker.
func NewPicker(opts Options) *Picker {
	return &Picker{opts: opts}
}

// Select implements Selector.
func (p *Picker) Select(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prog := tea.NewProgram(
		newPickerModel(candidates, p.opts),
		tea.WithContext(ctx),
		tea.WithInput(p.opts.input()),
		tea.WithOutput(p.opts.output()),
		tea.WithAltScreen(),
	)
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("picker: %w", err)
	}

	m, ok := final.(pickerModel)
	if !ok {
		return nil, nil
	}
	return m.result(), nil
}

// pickerStyles holds the lipgloss styles of the picker.
type pickerStyles struct {
	cursor   lipgloss.Style
	marked   lipgloss.Style
	dim      lipgloss.Style
	preview  lipgloss.Style
	selected lipgloss.Style
}

func defaultPickerStyles() pickerStyles {
	return pickerStyles{
		cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		marked:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		preview:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
		selected: lipgloss.NewStyle().Bold(true),
	}
}

// pickerModel is the bubbletea model behind Picker.
type pickerModel struct {
	width  int
	height int

	candidates []string
	matches    []int // indices into candidates, best match first
	cursor     int   // position within matches
	offset     int   // first visible match

	marked map[int]bool
	order  []int // marked indices in marking order

	filter textinput.Model
	opts   Options

	previews map[int]string

	done      bool
	cancelled bool

	styles pickerStyles
}

func newPickerModel(candidates []string, opts Options) pickerModel {
	fi := textinput.New()
	fi.Placeholder = "type to filter..."
	fi.Prompt = "> "
	if opts.Prompt != "" {
		fi.Prompt = opts.Prompt
	}
	fi.CharLimit = 256
	fi.Focus()

	m := pickerModel{
		width:      80,
		height:     24,
		candidates: candidates,
		marked:     make(map[int]bool),
		filter:     fi,
		opts:       opts,
		previews:   make(map[int]string),
		styles:     defaultPickerStyles(),
	}
	m.applyFilter()
	return m
}

// Init initializes the model.
func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "up", "ctrl+p", "ctrl+k":
			m.move(-1)
			return m, nil
		case "down", "ctrl+n", "ctrl+j":
			m.move(1)
			return m, nil
		case "tab":
			if m.opts.Multi {
				m.toggleCurrent()
				m.move(1)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

// applyFilter recomputes matches from the filter text.
func (m *pickerModel) applyFilter() {
	query := m.filter.Value()
	m.matches = m.matches[:0]
	if strings.TrimSpace(query) == "" {
		for i := range m.candidates {
			m.matches = append(m.matches, i)
		}
	} else {
		for _, match := range fuzzy.Find(query, m.candidates) {
			m.matches = append(m.matches, match.Index)
		}
	}
	m.cursor = 0
	m.offset = 0
}

func (m *pickerModel) move(delta int) {
	if len(m.matches) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.matches) {
		m.cursor = len(m.matches) - 1
	}
	m.clampOffset()
}

// clampOffset keeps the cursor inside the visible window.
func (m *pickerModel) clampOffset() {
	rows := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m *pickerModel) toggleCurrent() {
	idx, ok := m.current()
	if !ok {
		return
	}
	if m.marked[idx] {
		delete(m.marked, idx)
		for i, v := range m.order {
			if v == idx {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		return
	}
	m.marked[idx] = true
	m.order = append(m.order, idx)
}

// current returns the candidate index under the cursor.
func (m pickerModel) current() (int, bool) {
	if len(m.matches) == 0 {
		return 0, false
	}
	return m.matches[m.cursor], true
}

// result returns the confirmed selection: marked entries in marking order,
// else the entry under the cursor. Cancelled pickers select nothing.
func (m pickerModel) result() []string {
	if m.cancelled || !m.done {
		return nil
	}
	if m.opts.Multi && len(m.order) > 0 {
		out := make([]string, len(m.order))
		for i, idx := range m.order {
			out[i] = m.candidates[idx]
		}
		return out
	}
	if idx, ok := m.current(); ok {
		return []string{m.candidates[idx]}
	}
	return nil
}

func (m pickerModel) listHeight() int {
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the picker.
func (m pickerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	listWidth := m.width
	showPreview := m.opts.Preview != nil && m.width >= 60
	if showPreview {
		listWidth = m.width / 2
	}

	var b strings.Builder
	b.WriteString(m.filter.View())
	b.WriteString("\n")

	end := min(m.offset+m.listHeight(), len(m.matches))
	for i := m.offset; i < end; i++ {
		idx := m.matches[i]
		name := truncate(m.candidates[idx], listWidth-4)

		mark := "  "
		if m.marked[idx] {
			mark = m.styles.marked.Render("● ")
		}
		if i == m.cursor {
			b.WriteString(m.styles.cursor.Render("▌") + mark + m.styles.selected.Render(name))
		} else {
			b.WriteString(" " + mark + name)
		}
		b.WriteString("\n")
	}

	status := fmt.Sprintf("%d/%d", len(m.matches), len(m.candidates))
	if m.opts.Multi {
		status += fmt.Sprintf("  (%d marked, tab to mark)", len(m.order))
	}
	b.WriteString(m.styles.dim.Render(status))

	list := lipgloss.NewStyle().Width(listWidth).Render(b.String())
	if !showPreview {
		return list
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, list, m.renderPreview(m.width-listWidth-4))
}

func (m pickerModel) renderPreview(width int) string {
	idx, ok := m.current()
	content := ""
	if ok {
		if cached, hit := m.previews[idx]; hit {
			content = cached
		} else {
			content = m.opts.Preview(m.candidates[idx])
			m.previews[idx] = content
		}
	}

	lines := strings.Split(content, "\n")
	if limit := m.height - 2; limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	return m.styles.preview.Width(width).Render(strings.Join(lines, "\n"))
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
