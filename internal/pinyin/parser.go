// Package pinyin extracts tone classes from pinyin syllables and from go-pinyin readings.
package pinyin

import (
	"strings"
	"unicode/utf8"

	gopinyin "github.com/mozillazg/go-pinyin"
)

// Parser handles pinyin conversion for single characters.
type Parser struct {
	args gopinyin.Args
}

// NewParser creates a new pinyin parser.
func NewParser() *Parser {
	args := gopinyin.NewArgs()
	args.Style = gopinyin.Tone // Returns tone marks: zhōng
	args.Heteronym = true      // Return all possible readings
	return &Parser{args: args}
}

// Readings returns all pinyin readings for a character, most common first.
func (p *Parser) Readings(char string) []string {
	result := gopinyin.Pinyin(char, p.args)
	if len(result) == 0 {
		return nil
	}
	return result[0]
}

// Tones returns one tone per rune of word, taken from the first reading of
// each character. Characters go-pinyin does not know get ToneUnknown.
func (p *Parser) Tones(word string) ([]Tone, []string) {
	n := utf8.RuneCountInString(word)
	tones := make([]Tone, 0, n)
	syllables := make([]string, 0, n)
	for _, r := range word {
		readings := p.Readings(string(r))
		if len(readings) == 0 {
			tones = append(tones, ToneUnknown)
			syllables = append(syllables, "")
			continue
		}
		tones = append(tones, MarkedTone(readings[0]))
		syllables = append(syllables, readings[0])
	}
	return tones, syllables
}

var toneMarks = map[rune]struct {
	base rune
	tone Tone
}{
	'ā': {'a', Tone1}, 'á': {'a', Tone2}, 'ǎ': {'a', Tone3}, 'à': {'a', Tone4},
	'ē': {'e', Tone1}, 'é': {'e', Tone2}, 'ě': {'e', Tone3}, 'è': {'e', Tone4},
	'ī': {'i', Tone1}, 'í': {'i', Tone2}, 'ǐ': {'i', Tone3}, 'ì': {'i', Tone4},
	'ō': {'o', Tone1}, 'ó': {'o', Tone2}, 'ǒ': {'o', Tone3}, 'ò': {'o', Tone4},
	'ū': {'u', Tone1}, 'ú': {'u', Tone2}, 'ǔ': {'u', Tone3}, 'ù': {'u', Tone4},
	'ǖ': {'ü', Tone1}, 'ǘ': {'ü', Tone2}, 'ǚ': {'ü', Tone3}, 'ǜ': {'ü', Tone4},
	'ń': {'n', Tone2}, 'ň': {'n', Tone3}, 'ǹ': {'n', Tone4},
	'ḿ': {'m', Tone2},
}

// MarkedTone returns the tone of a tone-marked syllable such as "hǎo".
// A syllable without a mark is neutral (Tone5).
func MarkedTone(syllable string) Tone {
	tone, _ := extractTone(syllable)
	return tone
}

// StripMarks returns the syllable with tone marks replaced by their base vowels.
func StripMarks(syllable string) string {
	_, base := extractTone(syllable)
	return base
}

// extractTone extracts the tone number and returns the pinyin without tone marks.
func extractTone(pinyin string) (Tone, string) {
	tone := ToneUnknown
	var result strings.Builder

	for _, r := range pinyin {
		if mark, ok := toneMarks[r]; ok {
			result.WriteRune(mark.base)
			tone = mark.tone
		} else {
			result.WriteRune(r)
		}
	}

	// If no tone mark found, it's neutral tone (5)
	if tone == ToneUnknown {
		tone = Tone5
	}

	return tone, result.String()
}

// NumberedTone returns the tone of a CC-CEDICT style syllable such as "hao3"
// or "lu:4". Syllables without a trailing digit 1-5 (letters, punctuation)
// have no tone.
func NumberedTone(syllable string) Tone {
	if syllable == "" {
		return ToneUnknown
	}
	last := syllable[len(syllable)-1]
	if last < '1' || last > '5' {
		return ToneUnknown
	}
	return Tone(last - '0')
}

// NumberedTones splits a space separated CC-CEDICT reading and returns the
// tone of each syllable.
func NumberedTones(reading string) []Tone {
	syllables := strings.Fields(reading)
	tones := make([]Tone, len(syllables))
	for i, s := range syllables {
		tones[i] = NumberedTone(s)
	}
	return tones
}
