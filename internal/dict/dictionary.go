// Package dict holds word pronunciation data used to tone-color Chinese text.
package dict

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/f3rmion/plecoise/internal/pinyin"
	"github.com/klauspost/compress/gzip"
)

//go:embed data/cedict_seed.u8
var seed string

// Entry is one dictionary sense of a word.
type Entry struct {
	Traditional string
	Simplified  string
	Pinyin      string        // Reading as written in the source, e.g. "ni3 hao3"
	Tones       []pinyin.Tone // One tone per character; ToneUnknown where none applies
	Definitions []string
}

// Tone returns the tone of the i-th character, or ToneUnknown.
func (e Entry) Tone(i int) pinyin.Tone {
	if i < 0 || i >= len(e.Tones) {
		return pinyin.ToneUnknown
	}
	return e.Tones[i]
}

// Lookuper finds the pronunciation entries of a word. Implementations must be
// safe for concurrent reads.
type Lookuper interface {
	Lookup(word string) []Entry
}

// Dictionary maps simplified words to their entries in source order.
// It is read-only once loading has finished.
type Dictionary struct {
	entries map[string][]Entry
	skipped int
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		entries: make(map[string][]Entry),
	}
}

// Default returns a dictionary built from the bundled CC-CEDICT subset.
func Default() (*Dictionary, error) {
	d := NewDictionary()
	if err := d.Read(strings.NewReader(seed)); err != nil {
		return nil, fmt.Errorf("reading bundled dictionary: %w", err)
	}
	return d, nil
}

// LoadFromFile loads CC-CEDICT data from path. Files ending in .gz are
// decompressed on the fly.
func (d *Dictionary) LoadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening dictionary file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("opening gzip dictionary: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	if err := d.Read(r); err != nil {
		return fmt.Errorf("reading dictionary file: %w", err)
	}
	return nil
}

// Read parses CC-CEDICT lines from r and adds them to the dictionary.
// Comments and blank lines are ignored; malformed lines are skipped and counted.
func (d *Dictionary) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, ok := parseLine(line)
		if !ok {
			d.skipped++
			continue
		}
		d.Add(entry)
	}

	return scanner.Err()
}

// parseLine parses "Traditional Simplified [pin1 yin1] /def 1/def 2/".
func parseLine(line string) (Entry, bool) {
	open := strings.IndexByte(line, '[')
	if open < 0 {
		return Entry{}, false
	}
	closing := strings.IndexByte(line[open:], ']')
	if closing < 0 {
		return Entry{}, false
	}
	closing += open

	head := strings.Fields(line[:open])
	if len(head) != 2 {
		return Entry{}, false
	}

	reading := strings.TrimSpace(line[open+1 : closing])
	rest := strings.TrimSpace(line[closing+1:])
	if !strings.HasPrefix(rest, "/") {
		return Entry{}, false
	}

	var defs []string
	for _, def := range strings.Split(rest, "/") {
		if def = strings.TrimSpace(def); def != "" {
			defs = append(defs, def)
		}
	}

	return Entry{
		Traditional: head[0],
		Simplified:  head[1],
		Pinyin:      reading,
		Tones:       pinyin.NumberedTones(reading),
		Definitions: defs,
	}, true
}

// Add appends an entry under its simplified form.
func (d *Dictionary) Add(e Entry) {
	d.entries[e.Simplified] = append(d.entries[e.Simplified], e)
}

// Lookup returns the entries for word, or nil when it is absent.
func (d *Dictionary) Lookup(word string) []Entry {
	return d.entries[word]
}

// Size returns the number of distinct words in the dictionary.
func (d *Dictionary) Size() int {
	return len(d.entries)
}

// Skipped returns the number of malformed lines ignored while loading.
func (d *Dictionary) Skipped() int {
	return d.skipped
}

type none struct{}

func (none) Lookup(string) []Entry { return nil }

// None is a Lookuper without any data; every word renders untoned.
var None Lookuper = none{}
