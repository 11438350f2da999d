// Package annotate turns Chinese text inside flashcard fields into Pleco
// lookup links with one tone-colored span per character.
//
// A field is split into maximal Chinese and non-Chinese runs, runs that are
// already part of earlier output are demoted to plain text, and every
// remaining Chinese run is rendered as
//
//	<a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">好</span></a>
//
// Applying the transform to its own output returns that output unchanged.
package annotate

import (
	"sync"
	"unicode"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Kind tags a run as Chinese or not.
type Kind int

const (
	Other Kind = iota
	Chinese
)

func (k Kind) String() string {
	if k == Chinese {
		return "chinese"
	}
	return "other"
}

// Run is a maximal substring of a single Kind.
type Run struct {
	Kind Kind
	Text string
}

// Classifier reports whether a rune is a Chinese character.
type Classifier func(r rune) bool

var (
	simplifiedOnce sync.Once
	simplified     map[rune]struct{}
)

// IsChinese reports whether r is a simplified Chinese ideograph: a Han
// character in the GB2312 repertoire. Traditional-only forms such as 麼 and
// radicals are not.
func IsChinese(r rune) bool {
	if r < 0x3000 || r > 0x9FFF {
		return false
	}
	simplifiedOnce.Do(loadSimplified)
	_, ok := simplified[r]
	return ok
}

// loadSimplified collects the Han runes the GB2312 encoder accepts. All of
// them lie in the BMP between U+3000 and U+9FFF.
func loadSimplified() {
	enc := simplifiedchinese.HZGB2312.NewEncoder()
	simplified = make(map[rune]struct{}, 6800)
	for r := rune(0x3000); r <= 0x9FFF; r++ {
		if !unicode.Is(unicode.Han, r) {
			continue
		}
		if _, err := enc.String(string(r)); err == nil {
			simplified[r] = struct{}{}
		}
	}
}

// Segment splits text into alternating runs in a single left-to-right pass.
// Run texts are slices of text, so their concatenation is byte-identical to
// the input even when it holds invalid UTF-8. Empty input yields nil.
func Segment(text string, isChinese Classifier) []Run {
	if isChinese == nil {
		isChinese = IsChinese
	}

	var runs []Run
	start := 0
	kind := Other
	for i, r := range text {
		k := Other
		if isChinese(r) {
			k = Chinese
		}
		if i == 0 {
			kind = k
			continue
		}
		if k != kind {
			runs = append(runs, Run{Kind: kind, Text: text[start:i]})
			start = i
			kind = k
		}
	}
	if start < len(text) {
		runs = append(runs, Run{Kind: kind, Text: text[start:]})
	}

	return runs
}
