// Package ankitest builds small .apkg decks for tests.
package ankitest

import (
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/f3rmion/plecoise/internal/annotate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// Schema selects the collection layout.
type Schema int

const (
	// Legacy stores note types as JSON in col.models (.anki2, .anki21).
	Legacy Schema = iota
	// Schema18 stores note types in the notetypes and fields tables.
	Schema18
)

// Model is a note type to create.
type Model struct {
	ID     int64
	Name   string
	Fields []string
	CSS    string
}

// Note is a note to create. Fields are joined with the unit separator.
type Note struct {
	ID      int64
	ModelID int64
	Fields  []string
}

// Deck describes the package to build.
type Deck struct {
	Schema Schema
	Models []Model
	Notes  []Note
	// Compressed stores the collection as collection.anki21b next to a
	// placeholder collection.anki2, the way current Anki exports do.
	Compressed bool
	// Media adds a media manifest and one media file.
	Media bool
}

const noteSchema = `CREATE TABLE notes (
	id integer PRIMARY KEY,
	guid text NOT NULL,
	mid integer NOT NULL,
	mod integer NOT NULL,
	usn integer NOT NULL,
	tags text NOT NULL,
	flds text NOT NULL,
	sfld text NOT NULL,
	csum integer NOT NULL,
	flags integer NOT NULL,
	data text NOT NULL
)`

// Build writes deck as an .apkg file in a temp dir and returns its path.
func Build(t *testing.T, deck Deck) string {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "collection.db")
	createCollection(t, dbPath, deck)

	var entries []zipEntry
	if deck.Compressed {
		placeholder := filepath.Join(dir, "placeholder.db")
		createCollection(t, placeholder, Deck{Schema: Legacy})
		entries = append(entries,
			zipEntry{name: "collection.anki2", data: readFile(t, placeholder)},
			zipEntry{name: "collection.anki21b", data: compress(t, readFile(t, dbPath))},
		)
	} else {
		name := "collection.anki2"
		if deck.Schema == Schema18 {
			name = "collection.anki21"
		}
		entries = append(entries, zipEntry{name: name, data: readFile(t, dbPath)})
	}
	if deck.Media {
		entries = append(entries,
			zipEntry{name: "media", data: []byte(`{"0": "sound.mp3"}`)},
			zipEntry{name: "0", data: []byte("ID3 not really audio")},
		)
	} else {
		entries = append(entries, zipEntry{name: "media", data: []byte("{}")})
	}

	apkg := filepath.Join(dir, "deck.apkg")
	writeZip(t, apkg, entries)
	return apkg
}

func createCollection(t *testing.T, path string, deck Deck) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	exec := func(query string, args ...any) {
		t.Helper()
		_, err := db.Exec(query, args...)
		require.NoError(t, err)
	}

	exec("PRAGMA journal_mode = DELETE")
	exec(noteSchema)
	exec("CREATE TABLE col (id integer PRIMARY KEY, crt integer NOT NULL, mod integer NOT NULL, ver integer NOT NULL, models text NOT NULL)")

	switch deck.Schema {
	case Legacy:
		exec("INSERT INTO col (id, crt, mod, ver, models) VALUES (1, 0, 0, 11, ?)", legacyModels(t, deck.Models))
	case Schema18:
		exec("INSERT INTO col (id, crt, mod, ver, models) VALUES (1, 0, 0, 18, '')")
		exec("CREATE TABLE notetypes (id integer PRIMARY KEY, name text NOT NULL, mtime_secs integer NOT NULL, usn integer NOT NULL, config blob NOT NULL)")
		exec("CREATE TABLE fields (ntid integer NOT NULL, ord integer NOT NULL, name text NOT NULL, config blob NOT NULL, PRIMARY KEY (ntid, ord))")
		for _, m := range deck.Models {
			exec("INSERT INTO notetypes (id, name, mtime_secs, usn, config) VALUES (?, ?, 0, 0, x'')", m.ID, m.Name)
			for ord, name := range m.Fields {
				exec("INSERT INTO fields (ntid, ord, name, config) VALUES (?, ?, ?, x'')", m.ID, ord, name)
			}
		}
	}

	for _, n := range deck.Notes {
		sfld := ""
		if len(n.Fields) > 0 {
			sfld = n.Fields[0]
		}
		exec("INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data) VALUES (?, ?, ?, 0, 0, '', ?, ?, 0, 0, '')",
			n.ID, "guid"+strconv.FormatInt(n.ID, 10), n.ModelID, strings.Join(n.Fields, annotate.FieldSeparator), sfld)
	}
}

func legacyModels(t *testing.T, models []Model) string {
	t.Helper()

	type field struct {
		Name string `json:"name"`
		Ord  int    `json:"ord"`
		Font string `json:"font"`
	}
	type model struct {
		ID     int64   `json:"id"`
		Name   string  `json:"name"`
		Type   int     `json:"type"`
		Fields []field `json:"flds"`
		CSS    string  `json:"css"`
		Sortf  int     `json:"sortf"`
	}

	out := make(map[string]model, len(models))
	for _, m := range models {
		jm := model{ID: m.ID, Name: m.Name, CSS: m.CSS}
		for ord, name := range m.Fields {
			jm.Fields = append(jm.Fields, field{Name: name, Ord: ord, Font: "Arial"})
		}
		out[strconv.FormatInt(m.ID, 10)] = jm
	}

	data, err := json.Marshal(out)
	require.NoError(t, err)
	return string(data)
}

type zipEntry struct {
	name string
	data []byte
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

// Entry returns the raw bytes of a zip entry, decompressing .anki21b
// collections.
func Entry(t *testing.T, apkg, name string) []byte {
	t.Helper()

	r, err := zip.OpenReader(apkg)
	require.NoError(t, err)
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		if strings.HasSuffix(name, ".anki21b") {
			dec, err := zstd.NewReader(nil)
			require.NoError(t, err)
			defer dec.Close()
			data, err = dec.DecodeAll(data, nil)
			require.NoError(t, err)
		}
		return data
	}

	t.Fatalf("entry %s not found in %s", name, apkg)
	return nil
}

// EntryNames lists the zip entries of apkg in archive order.
func EntryNames(t *testing.T, apkg string) []string {
	t.Helper()

	r, err := zip.OpenReader(apkg)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	return names
}

// StoredNote is a notes row as found in a built or converted deck.
type StoredNote struct {
	ID   int64
	Flds string
	Mod  int64
	USN  int
}

// ReadNotes returns the notes stored in the named collection entry of apkg,
// ordered by id.
func ReadNotes(t *testing.T, apkg, collection string) []StoredNote {
	t.Helper()

	path := filepath.Join(t.TempDir(), "read.db")
	require.NoError(t, os.WriteFile(path, Entry(t, apkg, collection), 0o644))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT id, flds, mod, usn FROM notes ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var notes []StoredNote
	for rows.Next() {
		var n StoredNote
		require.NoError(t, rows.Scan(&n.ID, &n.Flds, &n.Mod, &n.USN))
		notes = append(notes, n)
	}
	require.NoError(t, rows.Err())
	return notes
}

// ReadModelsCSS returns the css of every legacy model in the named
// collection entry, keyed by model id.
func ReadModelsCSS(t *testing.T, apkg, collection string) map[string]string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "read.db")
	require.NoError(t, os.WriteFile(path, Entry(t, apkg, collection), 0o644))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var raw string
	require.NoError(t, db.QueryRow("SELECT models FROM col").Scan(&raw))

	var models map[string]struct {
		CSS string `json:"css"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &models))

	out := make(map[string]string, len(models))
	for id, m := range models {
		out[id] = m.CSS
	}
	return out
}
