package layout

// Style fixes the geometry of the consent document.
type Style struct {
	Page Size
	// Margin is the left/right margin and the top reference line.
	Margin float64
	// TopOffset is the distance from Margin to the first baseline of a page.
	TopOffset float64
	// BottomLimit is the minimum distance between a body baseline and the
	// bottom edge of the page.
	BottomLimit float64

	BodyFont     Font
	TitleFont    Font
	SubtitleFont Font

	LineHeight   float64
	ParagraphGap float64
	TitleGap     float64 // title baseline to subtitle baseline
	SubtitleGap  float64 // subtitle baseline to first body baseline
	// TrailerGap separates the last paragraph from the trailer line and
	// leaves room for the signature block stamped later.
	TrailerGap float64
}

// DefaultStyle is A4 with Helvetica 11 body text and 50pt margins.
func DefaultStyle() Style {
	return Style{
		Page:         A4,
		Margin:       50,
		TopOffset:    20,
		BottomLimit:  100,
		BodyFont:     Font{Family: "Helvetica", Size: 11},
		TitleFont:    Font{Family: "Helvetica", Style: "B", Size: 14},
		SubtitleFont: Font{Family: "Helvetica", Style: "B", Size: 12},
		LineHeight:   18,
		ParagraphGap: 15,
		TitleGap:     40,
		SubtitleGap:  50,
		TrailerGap:   100,
	}
}

// UsableWidth is the page width minus both margins.
func (s Style) UsableWidth() float64 {
	return s.Page.Width - 2*s.Margin
}

// Top is the first baseline on every page.
func (s Style) Top() float64 {
	return s.Margin + s.TopOffset
}

// Bottom is the lowest baseline a body line may use.
func (s Style) Bottom() float64 {
	return s.Page.Height - s.BottomLimit
}

// Content is the already-substituted text of one document.
type Content struct {
	Title      string
	Subtitle   string
	Paragraphs []string
	// Trailer is the "place, date" line drawn after the last paragraph.
	Trailer string
}

// Composer lays out Content with a fixed Style.
type Composer struct {
	style    Style
	measurer Measurer
}

// NewComposer returns a Composer measuring text with m.
func NewComposer(m Measurer, style Style) *Composer {
	return &Composer{style: style, measurer: m}
}

// Style returns the composer's geometry.
func (c *Composer) Style() Style {
	return c.style
}

// Compose lays out content into pages.
//
// Title and subtitle are centered on page 1 only. Each paragraph is wrapped
// to the usable width; every line except the paragraph's last, and except
// single-word lines, is justified. A page break happens after a paragraph
// when the cursor passes Bottom and paragraphs remain, and before any line
// whose baseline would pass Bottom. The trailer is not moved to a new page:
// it lands TrailerGap below the cursor, kept above the bottom margin.
func (c *Composer) Compose(content Content) *Document {
	s := c.style
	doc := &Document{Size: s.Page}
	page := doc.NewPage()
	y := s.Top()

	if content.Title != "" {
		c.centered(page, y, content.Title, s.TitleFont)
		y += s.TitleGap
	}
	if content.Subtitle != "" {
		c.centered(page, y, content.Subtitle, s.SubtitleFont)
		y += s.SubtitleGap
	}

	width := s.UsableWidth()
	for i, paragraph := range content.Paragraphs {
		lines := Wrap(paragraph, s.BodyFont, width, c.measurer)
		for j, line := range lines {
			if y > s.Bottom() {
				page = doc.NewPage()
				y = s.Top()
			}
			c.drawLine(page, line, y, j == len(lines)-1)
			y += s.LineHeight
		}
		y += s.ParagraphGap

		if y > s.Bottom() && i < len(content.Paragraphs)-1 {
			page = doc.NewPage()
			y = s.Top()
		}
	}
	doc.Cursor = y

	if content.Trailer != "" {
		ty := y + s.TrailerGap
		if limit := s.Page.Height - s.Margin; ty > limit {
			ty = limit
		}
		page.Text(s.Margin, ty, content.Trailer, s.BodyFont)
	}
	return doc
}

func (c *Composer) centered(page *Page, y float64, text string, f Font) {
	w := c.measurer.Width(text, f)
	page.Text((c.style.Page.Width-w)/2, y, text, f)
}

func (c *Composer) drawLine(page *Page, line Line, y float64, last bool) {
	s := c.style
	if last || len(line.Words) < 2 {
		page.Text(s.Margin, y, line.Text(), s.BodyFont)
		return
	}
	placements, _ := Justify(line, s.BodyFont, s.UsableWidth(), c.measurer)
	for _, p := range placements {
		page.Text(s.Margin+p.X, y, p.Word, s.BodyFont)
	}
}
