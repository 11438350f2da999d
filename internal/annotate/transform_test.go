package annotate

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/f3rmion/plecoise/internal/dict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTransformer(t *testing.T) *Transformer {
	t.Helper()
	d, err := dict.Default()
	require.NoError(t, err)
	return NewTransformer(d)
}

func TestTransformWithDictionary(t *testing.T) {
	tr := defaultTransformer(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "No Chinese",
			input: "hello there",
			want:  "hello there",
		},
		{
			name:  "Single word",
			input: "hello there, 你好",
			want:  `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">好</span></a>`,
		},
		{
			name:  "Two words",
			input: "hello there, 你好, how's it going, 你怎么样",
			want:  `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">好</span></a>, how's it going, <a href="plecoapi://x-callback-url/s?q=你怎么样" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">怎</span><span class="tone5">么</span><span class="tone4">样</span></a>`,
		},
		{
			name:  "Already linked without tones",
			input: `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none">你好</a>`,
			want:  `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none">你好</a>`,
		},
		{
			name:  "Already linked with tones",
			input: `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">好</span></a>`,
			want:  `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">好</span></a>`,
		},
		{
			name:  "Only the fresh run is annotated",
			input: `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none">你好</a>, how's it going, 你怎么样`,
			want:  `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none">你好</a>, how's it going, <a href="plecoapi://x-callback-url/s?q=你怎么样" style="text-decoration:none"><span class="tone3">你</span><span class="tone3">怎</span><span class="tone5">么</span><span class="tone4">样</span></a>`,
		},
		{
			name:  "Word missing from the dictionary",
			input: "象棋",
			want:  `<a href="plecoapi://x-callback-url/s?q=象棋" style="text-decoration:none">象棋</a>`,
		},
		{
			name:  "Traditional text passes through",
			input: "謝謝, 你怎麼樣",
			want:  `謝謝, <a href="plecoapi://x-callback-url/s?q=你怎" style="text-decoration:none">你怎</a>麼樣`,
		},
		{
			name:  "Empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Transform(tt.input))
		})
	}
}

func TestTransformWithoutDictionary(t *testing.T) {
	tr := NewTransformer(nil)

	got := tr.Transform("hello there, 你好")
	assert.Equal(t, `hello there, <a href="plecoapi://x-callback-url/s?q=你好" style="text-decoration:none">你好</a>`, got)
	assert.Equal(t, got, tr.Transform(got))
}

func TestTransformHTMLField(t *testing.T) {
	tr := defaultTransformer(t)

	got := tr.Transform("<div>学习</div><br>to study")
	assert.Equal(t, `<div><a href="plecoapi://x-callback-url/s?q=学习" style="text-decoration:none"><span class="tone2">学</span><span class="tone2">习</span></a></div><br>to study`, got)
}

func TestTransformFields(t *testing.T) {
	tr := NewTransformer(nil)
	flds := strings.Join([]string{"中", "", "x", "文"}, FieldSeparator)

	t.Run("All", func(t *testing.T) {
		got := tr.TransformFields(flds, nil)
		parts := strings.Split(got, FieldSeparator)
		require.Len(t, parts, 4)
		assert.Equal(t, Render("中", nil), parts[0])
		assert.Equal(t, "", parts[1])
		assert.Equal(t, "x", parts[2])
		assert.Equal(t, Render("文", nil), parts[3])
	})

	t.Run("Selected", func(t *testing.T) {
		got := tr.TransformFields(flds, func(i int) bool { return i == 3 })
		parts := strings.Split(got, FieldSeparator)
		require.Len(t, parts, 4)
		assert.Equal(t, "中", parts[0])
		assert.Equal(t, Render("文", nil), parts[3])
	})

	t.Run("Single field", func(t *testing.T) {
		assert.Equal(t, "abc", tr.TransformFields("abc", nil))
	})
}

var fragments = []string{
	"你", "好", "怎么样", "学习", "卡拉", "a", " ", ", ", "。", "<b>", "</b>", "</a>", "</span>",
	`" style`, "<br>", "\xff", "⼝", "中文", "OK",
}

// randomText stitches fragments together, including pieces of markup that
// look like earlier output.
func randomText(rng *rand.Rand) string {
	var sb strings.Builder
	n := rng.Intn(12)
	for i := 0; i < n; i++ {
		sb.WriteString(fragments[rng.Intn(len(fragments))])
	}
	return sb.String()
}

func TestTransformIdempotent(t *testing.T) {
	d, err := dict.Default()
	require.NoError(t, err)

	// A sparse entry produces an untoned character followed by a toned one.
	sparse := dict.NewDictionary()
	sparse.Add(toneEntry("卡拉", 0, 1))

	transformers := map[string]*Transformer{
		"cedict": NewTransformer(d),
		"none":   NewTransformer(dict.None),
		"sparse": NewTransformer(sparse),
		"pinyin": NewTransformer(dict.NewPinyinLookup()),
	}

	rng := rand.New(rand.NewSource(7))
	inputs := []string{"", "hello", "你好", "卡拉", "卡拉OK 卡拉", "你好</a>", "学习</span>学习"}
	for i := 0; i < 300; i++ {
		inputs = append(inputs, randomText(rng))
	}

	for name, tr := range transformers {
		t.Run(name, func(t *testing.T) {
			for _, input := range inputs {
				once := tr.Transform(input)
				assert.Equal(t, once, tr.Transform(once), "input %q", input)
			}
		})
	}
}

var insertedMarkup = regexp.MustCompile(`<a href="plecoapi://x-callback-url/s\?q=[^"]*" style="text-decoration:none">|</a>|<span class="tone[1-5]">|</span>`)

func TestTransformPreservesContent(t *testing.T) {
	tr := defaultTransformer(t)
	inputs := []string{
		"hello there, 你好",
		"你好, how's it going, 你怎么样",
		"中文。学习汉语！",
		"不 了 的 吗",
	}

	for _, input := range inputs {
		got := tr.Transform(input)
		assert.Equal(t, input, insertedMarkup.ReplaceAllString(got, ""), "input %q", input)
	}
}

func TestTransformPassthrough(t *testing.T) {
	tr := defaultTransformer(t)
	for _, input := range []string{"hello", "<b>bold</b>", "123 ⼝ ，。", "\xff\xfe", "</a>"} {
		assert.Equal(t, input, tr.Transform(input))
	}
}

func TestWithClassifier(t *testing.T) {
	tr := NewTransformer(nil, WithClassifier(func(r rune) bool { return r == 'x' }))
	assert.Equal(t, `a<a href="plecoapi://x-callback-url/s?q=x" style="text-decoration:none">x</a>`, tr.Transform("ax"))
}
