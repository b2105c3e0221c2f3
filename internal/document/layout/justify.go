package layout

// Placement is a word and its x offset from the start of the line.
type Placement struct {
	Word string
	X    float64
}

// Justify spreads the slack of line evenly across its gaps so the line spans
// width exactly: the words' own widths are summed without spaces, and the
// remainder is divided by n-1. It returns the placements and the gap used.
// Lines of fewer than two words cannot be stretched and are placed at 0.
func Justify(line Line, f Font, width float64, m Measurer) ([]Placement, float64) {
	n := len(line.Words)
	if n == 0 {
		return nil, 0
	}
	if n == 1 {
		return []Placement{{Word: line.Words[0]}}, 0
	}

	widths := make([]float64, n)
	var total float64
	for i, w := range line.Words {
		widths[i] = m.Width(w, f)
		total += widths[i]
	}
	gap := (width - total) / float64(n-1)

	out := make([]Placement, n)
	x := 0.0
	for i, w := range line.Words {
		out[i] = Placement{Word: w, X: x}
		x += widths[i] + gap
	}
	return out, gap
}
