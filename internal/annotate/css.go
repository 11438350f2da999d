package annotate

import (
	"fmt"
	"strings"

	"github.com/f3rmion/plecoise/internal/pinyin"
)

// ToneColors are Pleco's default tone colors.
var ToneColors = map[pinyin.Tone]string{
	pinyin.Tone1: "#E30000",
	pinyin.Tone2: "#02B31C",
	pinyin.Tone3: "#1510F0",
	pinyin.Tone4: "#8900BF",
	pinyin.Tone5: "#777777",
}

// StylesheetMarker opens the block written by Stylesheet.
const StylesheetMarker = "/* plecoise tone colors */"

// Stylesheet returns the CSS rules for the tone classes emitted by Render.
func Stylesheet() string {
	var sb strings.Builder
	sb.WriteString(StylesheetMarker)
	for t := pinyin.Tone1; t <= pinyin.Tone5; t++ {
		fmt.Fprintf(&sb, "\n.%s { color: %s; }", t.Class(), ToneColors[t])
	}
	return sb.String()
}
