package annotate

import (
	"strings"

	"github.com/f3rmion/plecoise/internal/dict"
)

// FieldSeparator separates the fields of an Anki note's flds column.
const FieldSeparator = "\x1f"

// Transformer rewrites field text using a fixed dictionary. It holds no
// mutable state and is safe for concurrent use.
type Transformer struct {
	dict      dict.Lookuper
	isChinese Classifier
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithClassifier replaces IsChinese as the character predicate.
func WithClassifier(c Classifier) Option {
	return func(t *Transformer) {
		if c != nil {
			t.isChinese = c
		}
	}
}

// NewTransformer creates a Transformer. A nil dictionary renders every link
// without tone spans.
func NewTransformer(d dict.Lookuper, opts ...Option) *Transformer {
	if d == nil {
		d = dict.None
	}
	t := &Transformer{dict: d, isChinese: IsChinese}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Runs returns the segmented runs of field with already annotated runs
// demoted to Other.
func (t *Transformer) Runs(field string) []Run {
	return MarkAnnotated(Segment(field, t.isChinese))
}

// Transform annotates every Chinese run in field that is not already part of
// a link. Text without Chinese is returned as is.
func (t *Transformer) Transform(field string) string {
	runs := t.Runs(field)

	fresh := false
	for _, run := range runs {
		if run.Kind == Chinese {
			fresh = true
			break
		}
	}
	if !fresh {
		return field
	}

	var sb strings.Builder
	sb.Grow(len(field) * 4)
	for _, run := range runs {
		if run.Kind != Chinese {
			sb.WriteString(run.Text)
			continue
		}
		sb.WriteString(Render(run.Text, t.dict.Lookup(run.Text)))
	}
	return sb.String()
}

// TransformFields transforms the FieldSeparator-delimited fields of flds for
// which selected returns true, or all of them when selected is nil. Field
// count and order are preserved.
func (t *Transformer) TransformFields(flds string, selected func(i int) bool) string {
	fields := strings.Split(flds, FieldSeparator)
	for i, field := range fields {
		if selected != nil && !selected(i) {
			continue
		}
		fields[i] = t.Transform(field)
	}
	return strings.Join(fields, FieldSeparator)
}
