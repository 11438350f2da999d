package dict

import (
	"errors"
	"fmt"
	"strings"

	"github.com/f3rmion/plecoise/internal/pinyin"
)

// Dictionary sources selectable from configuration.
const (
	SourceCEDICT = "cedict"
	SourcePinyin = "pinyin"
	SourceNone   = "none"
)

// Sources lists the valid source names.
var Sources = []string{SourceCEDICT, SourcePinyin, SourceNone}

// ErrUnknownSource is returned by Open for an unsupported source name.
var ErrUnknownSource = errors.New("unknown dictionary source")

// Open builds the Lookuper for source. For SourceCEDICT an empty path
// selects the bundled subset.
func Open(source, path string) (Lookuper, error) {
	switch source {
	case SourceCEDICT, "":
		if path == "" {
			d, err := Default()
			if err != nil {
				return nil, err
			}
			return d, nil
		}
		d := NewDictionary()
		if err := d.LoadFromFile(path); err != nil {
			return nil, err
		}
		return d, nil
	case SourcePinyin:
		return NewPinyinLookup(), nil
	case SourceNone:
		return None, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownSource, source, strings.Join(Sources, ", "))
	}
}

// PinyinLookup derives a single entry for any word from per-character
// go-pinyin readings. It needs no data file.
type PinyinLookup struct {
	parser *pinyin.Parser
}

// NewPinyinLookup creates a PinyinLookup.
func NewPinyinLookup() *PinyinLookup {
	return &PinyinLookup{parser: pinyin.NewParser()}
}

// Lookup returns one synthetic entry for word, or nil when go-pinyin knows
// none of its characters.
func (p *PinyinLookup) Lookup(word string) []Entry {
	tones, syllables := p.parser.Tones(word)

	known := false
	for _, t := range tones {
		if t.Valid() {
			known = true
			break
		}
	}
	if !known {
		return nil
	}

	return []Entry{{
		Traditional: word,
		Simplified:  word,
		Pinyin:      strings.Join(syllables, " "),
		Tones:       tones,
	}}
}
