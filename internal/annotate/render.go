package annotate

import (
	"strings"

	"github.com/f3rmion/plecoise/internal/dict"
)

const (
	linkOpen   = `<a href="plecoapi://x-callback-url/s?q=`
	linkAttrs  = `" style="text-decoration:none">`
	linkClose  = `</a>`
	spanOpen   = `<span class="`
	tonePrefix = `tone`
	spanClose  = `</span>`
)

// Render returns the Pleco link markup for one Chinese word. Only the first
// entry is used; characters it has no tone for are written bare.
func Render(word string, entries []dict.Entry) string {
	var sb strings.Builder
	sb.Grow(len(linkOpen) + len(linkAttrs) + len(linkClose) + len(word)*8)

	sb.WriteString(linkOpen)
	sb.WriteString(word)
	sb.WriteString(linkAttrs)

	var entry *dict.Entry
	if len(entries) > 0 {
		entry = &entries[0]
	}

	pos := 0
	for _, r := range word {
		if entry != nil {
			if tone := entry.Tone(pos); tone.Valid() {
				sb.WriteString(spanOpen)
				sb.WriteString(tone.Class())
				sb.WriteString(`">`)
				sb.WriteRune(r)
				sb.WriteString(spanClose)
				pos++
				continue
			}
		}
		sb.WriteRune(r)
		pos++
	}

	sb.WriteString(linkClose)
	return sb.String()
}
