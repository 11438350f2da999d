package anki

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/f3rmion/plecoise/internal/anki/ankitest"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var basicModel = ankitest.Model{
	ID:     1001,
	Name:   "Basic",
	Fields: []string{"Front", "Back"},
	CSS:    ".card { font-family: arial; }",
}

func basicDeck(schema ankitest.Schema) ankitest.Deck {
	return ankitest.Deck{
		Schema: schema,
		Models: []ankitest.Model{basicModel},
		Notes: []ankitest.Note{
			{ID: 1, ModelID: 1001, Fields: []string{"你好", "hello"}},
			{ID: 2, ModelID: 1001, Fields: []string{"再见", "goodbye"}},
		},
	}
}

func openTestPackage(t *testing.T, deck ankitest.Deck) *Package {
	t.Helper()
	pkg, err := Open(context.Background(), ankitest.Build(t, deck))
	require.NoError(t, err)
	t.Cleanup(func() { pkg.Close() })
	return pkg
}

func TestOpenCollections(t *testing.T) {
	tests := []struct {
		name string
		deck ankitest.Deck
		want []string
	}{
		{
			name: "Legacy",
			deck: basicDeck(ankitest.Legacy),
			want: []string{"collection.anki2"},
		},
		{
			name: "Schema 18",
			deck: basicDeck(ankitest.Schema18),
			want: []string{"collection.anki21"},
		},
		{
			name: "Compressed",
			deck: ankitest.Deck{Schema: ankitest.Schema18, Compressed: true},
			want: []string{"collection.anki2", "collection.anki21b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := openTestPackage(t, tt.deck)
			assert.Equal(t, tt.want, pkg.Collections())
		})
	}
}

func TestOpenKeepsPath(t *testing.T) {
	path := ankitest.Build(t, basicDeck(ankitest.Legacy))
	pkg, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, path, pkg.Path())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.apkg"))
	require.Error(t, err)
}

func TestOpenRejectsZipSlip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.apkg")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Open(context.Background(), path)
	require.Error(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(path), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpenCollectionUnknown(t *testing.T) {
	pkg := openTestPackage(t, basicDeck(ankitest.Legacy))
	_, err := pkg.OpenCollection(context.Background(), "collection.anki21")
	assert.ErrorIs(t, err, ErrNoCollection)
}

func TestSaveAsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, compressed := range []bool{false, true} {
		name := "collection.anki21"
		if compressed {
			name = "collection.anki21b"
		}
		t.Run(name, func(t *testing.T) {
			deck := basicDeck(ankitest.Schema18)
			deck.Compressed = compressed
			deck.Media = true
			pkg := openTestPackage(t, deck)

			col, err := pkg.OpenCollection(ctx, name)
			require.NoError(t, err)
			require.NoError(t, col.UpdateNotes(ctx, []NoteUpdate{{ID: 2, Flds: "再见!\x1fbye"}}, time.Unix(1700000000, 0)))
			require.NoError(t, col.Close())

			out := filepath.Join(t.TempDir(), "out.apkg")
			require.NoError(t, pkg.SaveAs(ctx, out))

			entries := make([]string, len(pkg.Entries()))
			for i, e := range pkg.Entries() {
				entries[i] = e.Name
			}
			assert.Equal(t, entries, ankitest.EntryNames(t, out))
			assert.Equal(t, []byte("ID3 not really audio"), ankitest.Entry(t, out, "0"))

			notes := ankitest.ReadNotes(t, out, name)
			require.Len(t, notes, 2)
			assert.Equal(t, "你好\x1fhello", notes[0].Flds)
			assert.Equal(t, int64(0), notes[0].Mod)
			assert.Equal(t, "再见!\x1fbye", notes[1].Flds)
			assert.Equal(t, int64(1700000000), notes[1].Mod)
			assert.Equal(t, -1, notes[1].USN)
		})
	}
}

func TestSaveAsLeavesNoTempFiles(t *testing.T) {
	pkg := openTestPackage(t, basicDeck(ankitest.Legacy))
	dir := t.TempDir()
	out := filepath.Join(dir, "out.apkg")
	require.NoError(t, pkg.SaveAs(context.Background(), out))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "out.apkg", files[0].Name())
}

func TestSaveAsCancelled(t *testing.T) {
	pkg := openTestPackage(t, basicDeck(ankitest.Legacy))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "out.apkg")
	require.ErrorIs(t, pkg.SaveAs(ctx, out), context.Canceled)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestCloseRemovesTempDir(t *testing.T) {
	pkg, err := Open(context.Background(), ankitest.Build(t, basicDeck(ankitest.Legacy)))
	require.NoError(t, err)
	dir := pkg.tempDir

	require.NoError(t, pkg.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestIsCompressed(t *testing.T) {
	assert.True(t, IsCompressed("collection.anki21b"))
	assert.False(t, IsCompressed("collection.anki21"))
	assert.False(t, IsCompressed("collection.anki2"))
}
