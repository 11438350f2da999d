// Package tui renders tone-colored Chinese text in the terminal and hosts the
// interactive playground.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/f3rmion/plecoise/internal/dict"
	"github.com/f3rmion/plecoise/internal/pinyin"
	"github.com/f3rmion/plecoise/internal/tui/bigchar"
	"github.com/mattn/go-runewidth"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#FF6B6B") // Red - titles, errors
	ColorSecondary = lipgloss.Color("#4ecdc4") // Teal - subtitles, prompt
	ColorAccent    = lipgloss.Color("#ffe66d") // Yellow - input text
	ColorMuted     = lipgloss.Color("#666666") // Gray - help text
	ColorSuccess   = lipgloss.Color("#a8e6cf") // Green - success
	ColorText      = lipgloss.Color("#f1faee") // Light text
	ColorLabel     = lipgloss.Color("#a8dadc") // Label color
	ColorBg        = lipgloss.Color("#1a1a2e") // Dark background
	ColorBorder    = lipgloss.Color("#3d5a80") // Border color
)

// Title styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorBg).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)
)

// Entry styles
var (
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorLabel).
			Bold(true).
			Width(12)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	PinyinStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Italic(true)

	MarkupStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Box styles
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	PreviewBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1).
			Margin(1, 0, 0, 0)
)

// Status styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	CopiedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)
)

// ToneStyles color characters the way the tone classes do in Anki.
var ToneStyles = func() map[pinyin.Tone]lipgloss.Style {
	styles := make(map[pinyin.Tone]lipgloss.Style, len(annotate.ToneColors))
	for tone, color := range annotate.ToneColors {
		styles[tone] = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	}
	return styles
}()

// ToneStyle returns the style for tone, falling back to plain text.
func ToneStyle(tone pinyin.Tone) lipgloss.Style {
	if s, ok := ToneStyles[tone]; ok {
		return s
	}
	return ValueStyle
}

// RenderWord colors each character of word by the tones of the first entry.
func RenderWord(word string, entries []dict.Entry) string {
	var entry dict.Entry
	if len(entries) > 0 {
		entry = entries[0]
	}

	var sb strings.Builder
	i := 0
	for _, r := range word {
		sb.WriteString(ToneStyle(entry.Tone(i)).Render(string(r)))
		i++
	}
	return sb.String()
}

// RenderBig draws word as block art, one tone-colored glyph per character.
// It returns "" when rd has no font.
func RenderBig(rd *bigchar.Renderer, word string, entries []dict.Entry, cols, rows int) string {
	if !rd.Available() {
		return ""
	}

	var entry dict.Entry
	if len(entries) > 0 {
		entry = entries[0]
	}

	var blocks []string
	i := 0
	for _, r := range word {
		block := rd.Render(r, cols, rows)
		blocks = append(blocks, ToneStyle(entry.Tone(i)).Render(block), " ")
		i++
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// RenderText colors every Chinese run of text the way the converter would
// annotate it. Runs that are already annotated are shown as plain text.
func RenderText(tr *annotate.Transformer, lookup dict.Lookuper, text string) string {
	var sb strings.Builder
	for _, run := range tr.Runs(text) {
		if run.Kind != annotate.Chinese {
			sb.WriteString(ValueStyle.Render(run.Text))
			continue
		}
		sb.WriteString(RenderWord(run.Text, lookup.Lookup(run.Text)))
	}
	return sb.String()
}

// Truncate shortens s to at most width terminal cells, marking the cut with
// an ellipsis. Wide CJK characters count as two cells.
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width <= 0 {
		width = 40
	}
	return DividerStyle.Render(strings.Repeat("─", width))
}
