package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/f3rmion/plecoise/internal/dict"
	"github.com/f3rmion/plecoise/internal/pinyin"
	"github.com/f3rmion/plecoise/internal/tui/bigchar"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T) Model {
	t.Helper()
	d, err := dict.Default()
	require.NoError(t, err)
	return New(d)
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func TestModelTyping(t *testing.T) {
	m := typeText(newModel(t), "hi 你好")

	assert.Equal(t, `hi <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">好</span></a>`, m.Markup())

	view := m.View()
	assert.Contains(t, view, "ni3 hao3")
	assert.Contains(t, view, "plecoapi")
}

func TestModelCopy(t *testing.T) {
	var copied string
	prev := copyFunc
	copyFunc = func(s string) error {
		copied = s
		return nil
	}
	defer func() { copyFunc = prev }()

	m := typeText(newModel(t), "你好")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	m = next.(Model)

	assert.Equal(t, m.Markup(), copied)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Copied")

	next, _ = m.Update(clearCopiedMsg{})
	assert.NotContains(t, next.(Model).View(), "Copied")
}

func TestModelCopyError(t *testing.T) {
	prev := copyFunc
	copyFunc = func(string) error { return errors.New("no clipboard") }
	defer func() { copyFunc = prev }()

	m := typeText(newModel(t), "你好")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Contains(t, next.(Model).View(), "no clipboard")
}

func TestModelClearAndQuit(t *testing.T) {
	m := typeText(newModel(t), "你好")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	m = next.(Model)
	assert.Empty(t, m.Markup())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderWordKeepsCharacters(t *testing.T) {
	entries := []dict.Entry{{Tones: []pinyin.Tone{pinyin.Tone3, pinyin.ToneUnknown}}}
	out := RenderWord("你好", entries)
	assert.Contains(t, out, "你")
	assert.Contains(t, out, "好")
}

func TestRenderTextSkipsAnnotated(t *testing.T) {
	tr := annotate.NewTransformer(nil)
	done := tr.Transform("你好")
	out := RenderText(tr, dict.None, done)
	assert.Contains(t, out, "plecoapi")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "a b", Truncate("a\nb", 10))

	got := Truncate("你好你好你好", 7)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 7)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestDivider(t *testing.T) {
	assert.Contains(t, Divider(5), strings.Repeat("─", 5))
	assert.NotContains(t, Divider(5), strings.Repeat("─", 6))
	assert.Contains(t, Divider(0), strings.Repeat("─", 40))
}

func TestWrap(t *testing.T) {
	got := wrap("abcdef你好", 4)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 4)
	}
	assert.Equal(t, "abcdef你好", strings.ReplaceAll(got, "\n", ""))
}

func TestRenderBig(t *testing.T) {
	assert.Empty(t, RenderBig(bigchar.Load(), "你好", nil, 8, 4))

	rd := bigchar.Load(bigchar.DefaultFontPaths...)
	if !rd.Available() {
		t.Skip("no CJK font installed")
	}
	out := RenderBig(rd, "你好", nil, 8, 4)
	assert.Len(t, strings.Split(out, "\n"), 4)
}
