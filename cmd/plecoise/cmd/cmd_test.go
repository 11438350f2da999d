package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/f3rmion/plecoise/internal/anki/ankitest"
	"github.com/f3rmion/plecoise/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append(args, "--config", t.TempDir()))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestTextCommand(t *testing.T) {
	out := execute(t, "text", "hello there,", "你好")
	assert.Equal(t, `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">好</span></a>`+"\n", out)
}

func TestConvertCommand(t *testing.T) {
	in := ankitest.Build(t, ankitest.Deck{
		Models: []ankitest.Model{{ID: 1, Name: "Basic", Fields: []string{"Front", "Back"}}},
		Notes:  []ankitest.Note{{ID: 1, ModelID: 1, Fields: []string{"你好", "hello"}}},
	})
	out := filepath.Join(t.TempDir(), "out.apkg")

	execute(t, "-f", in, "-o", out, "--workers", "2")

	notes := ankitest.ReadNotes(t, out, "collection.anki2")
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Flds, `<span class="tone3">你</span>`)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	rootCmd.SetArgs([]string{"init", "--config", dir})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, filepath.Join(dir, config.FileName))

	rootCmd.SetArgs([]string{"init", "--config", dir})
	assert.Error(t, rootCmd.Execute())
}
