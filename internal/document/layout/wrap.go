package layout

import "strings"

// Line is one wrapped line of a paragraph.
type Line struct {
	Words []string
}

// Text joins the words with single spaces.
func (l Line) Text() string {
	return strings.Join(l.Words, " ")
}

// Wrap breaks text into lines greedily. Words are taken left to right and a
// word joins the current line only if the candidate line, spaces included,
// still measures within maxWidth. A word wider than maxWidth on its own is
// emitted as a line by itself rather than split.
func Wrap(text string, f Font, maxWidth float64, m Measurer) []Line {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []Line
	current := []string{words[0]}
	for _, word := range words[1:] {
		candidate := strings.Join(current, " ") + " " + word
		if m.Width(candidate, f) <= maxWidth {
			current = append(current, word)
			continue
		}
		lines = append(lines, Line{Words: current})
		current = []string{word}
	}
	return append(lines, Line{Words: current})
}
