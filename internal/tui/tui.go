package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/f3rmion/plecoise/internal/clipboard"
	"github.com/f3rmion/plecoise/internal/dict"
	"github.com/mattn/go-runewidth"
)

// Clipboard messages
type clearCopiedMsg struct{}

func clearCopiedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// copyFunc is replaced in tests.
var copyFunc = clipboard.Write

// Model is the Bubble Tea model for the playground: type field text and see
// the markup the converter would write plus a tone-colored preview.
type Model struct {
	input  textinput.Model
	tr     *annotate.Transformer
	lookup dict.Lookuper

	markup string
	copied bool
	err    error

	width  int
	height int
}

// New creates a playground model.
func New(lookup dict.Lookuper) Model {
	if lookup == nil {
		lookup = dict.None
	}

	ti := textinput.New()
	ti.Placeholder = "Type field text, e.g. 你好, how's it going?"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(ColorSecondary)
	ti.TextStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	return Model{
		input:  ti,
		tr:     annotate.NewTransformer(lookup),
		lookup: lookup,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+y":
			if m.markup == "" {
				return m, nil
			}
			if err := copyFunc(m.markup); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.copied = true
			return m, clearCopiedAfter(2 * time.Second)
		case "ctrl+u":
			m.input.SetValue("")
			m.markup = ""
			return m, nil
		}

	case clearCopiedMsg:
		m.copied = false
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 10 {
			m.input.Width = msg.Width - 6
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.markup = m.tr.Transform(m.input.Value())
	return m, cmd
}

// Markup returns the annotated form of the current input.
func (m Model) Markup() string {
	return m.markup
}

// View renders the playground.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("plecoise playground"))
	b.WriteString("  ")
	b.WriteString(SubtitleStyle.Render("live preview of field annotation"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	width := m.width - 4
	if width < 20 {
		width = 76
	}

	text := m.input.Value()
	if text != "" {
		b.WriteString(PreviewBoxStyle.Width(width).Render(RenderText(m.tr, m.lookup, text)))
		b.WriteString("\n")
		b.WriteString(m.viewWords(width))
		b.WriteString(BoxStyle.Width(width).Render(MarkupStyle.Render(wrap(m.markup, width-2))))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.copied:
		b.WriteString(CopiedStyle.Render("Copied markup to clipboard"))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("ctrl+y copy markup • ctrl+u clear • esc quit"))
	return b.String()
}

// viewWords lists the dictionary reading of every fresh Chinese run.
func (m Model) viewWords(width int) string {
	var b strings.Builder
	for _, run := range m.tr.Runs(m.input.Value()) {
		if run.Kind != annotate.Chinese {
			continue
		}
		entries := m.lookup.Lookup(run.Text)
		line := LabelStyle.Render(run.Text) + " "
		if len(entries) == 0 {
			line += HelpStyle.Render("not in dictionary")
		} else {
			line += PinyinStyle.Render(entries[0].Pinyin)
			if len(entries[0].Definitions) > 0 {
				line += "  " + ValueStyle.Render(Truncate(strings.Join(entries[0].Definitions, "; "), width/2))
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// wrap breaks s into lines of at most width cells. Markup has no spaces to
// break on, so lines are cut by cell width.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if col+w > width {
			b.WriteByte('\n')
			col = 0
		}
		b.WriteRune(r)
		col += w
	}
	return b.String()
}
