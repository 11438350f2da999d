package pinyin

import "fmt"

// Tone represents the four tones of Mandarin plus neutral tone.
type Tone int

const (
	ToneUnknown Tone = 0
	Tone1       Tone = 1 // First tone (high level) - ˉ
	Tone2       Tone = 2 // Second tone (rising) - ˊ
	Tone3       Tone = 3 // Third tone (dipping) - ˇ
	Tone4       Tone = 4 // Fourth tone (falling) - ˋ
	Tone5       Tone = 5 // Fifth tone (neutral)
)

// Valid reports whether t is one of the five tone classes.
func (t Tone) Valid() bool {
	return t >= Tone1 && t <= Tone5
}

// Class returns the CSS class used for t, e.g. "tone3".
func (t Tone) Class() string {
	return fmt.Sprintf("tone%d", int(t))
}

func (t Tone) String() string {
	if !t.Valid() {
		return "?"
	}
	return fmt.Sprintf("%d", int(t))
}
