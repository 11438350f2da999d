package annotate

import "strings"

// AnnotatedSignatures are the markup fragments Render places directly after
// the Chinese text it emits. A Chinese run followed by one of them is already
// part of a rendered link.
//
// "</span>" only appeared in the tone-colored variant of the output; both
// variants are recognized so decks converted by either one stay stable.
var AnnotatedSignatures = []string{
	linkClose,             // after untoned characters at the end of a link
	spanClose,             // after a toned character
	`" style`,             // after the lookup query in the href
	spanOpen + tonePrefix, // after an untoned character that precedes a toned one
}

// MarkAnnotated demotes every Chinese run whose following run starts with one
// of AnnotatedSignatures to Other. Text is never changed. The slice is
// modified in place and returned.
func MarkAnnotated(runs []Run) []Run {
	for i := 0; i+1 < len(runs); i++ {
		if runs[i].Kind != Chinese || runs[i+1].Kind != Other {
			continue
		}
		if hasSignature(runs[i+1].Text) {
			runs[i].Kind = Other
		}
	}
	return runs
}

func hasSignature(s string) bool {
	for _, sig := range AnnotatedSignatures {
		if strings.HasPrefix(s, sig) {
			return true
		}
	}
	return false
}
