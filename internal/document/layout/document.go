// Package layout turns paragraphs of text into positioned draw operations on
// fixed-size pages. It knows nothing about PDF encoding: widths come from a
// Measurer and the resulting Document is drawn by the render package.
//
// Coordinates are in points from the top-left corner of the page. For text,
// Y is the baseline; for images, Y is the top edge.
package layout

// Size is a page size in points.
type Size struct {
	Width  float64
	Height float64
}

// A4 is the only page size the consent document uses.
var A4 = Size{Width: 595.28, Height: 841.89}

// Font selects a face and size for measuring and drawing text.
type Font struct {
	Family string
	Style  string // "" regular, "B" bold
	Size   float64
}

// Measurer reports the rendered width of text in points.
type Measurer interface {
	Width(text string, f Font) float64
}

// Op is a positioned draw operation.
type Op interface {
	op()
}

// TextOp draws Text with its baseline starting at (X, Y).
type TextOp struct {
	X, Y float64
	Text string
	Font Font
}

// ImageOp draws an encoded PNG into the box whose top-left corner is (X, Y).
type ImageOp struct {
	X, Y, W, H float64
	Name       string
	PNG        []byte
}

func (TextOp) op()  {}
func (ImageOp) op() {}

// Page is an ordered list of draw operations.
type Page struct {
	Ops []Op
}

// Text appends a text operation.
func (p *Page) Text(x, y float64, text string, f Font) {
	p.Ops = append(p.Ops, TextOp{X: x, Y: y, Text: text, Font: f})
}

// Image appends an image operation.
func (p *Page) Image(op ImageOp) {
	p.Ops = append(p.Ops, op)
}

// TextOps returns the page's text operations in draw order.
func (p *Page) TextOps() []TextOp {
	var out []TextOp
	for _, op := range p.Ops {
		if t, ok := op.(TextOp); ok {
			out = append(out, t)
		}
	}
	return out
}

// Document is an ordered sequence of same-sized pages.
type Document struct {
	Size  Size
	Pages []*Page
	// Cursor is the baseline the next body line would have used on the last
	// page once composition finished.
	Cursor float64
}

// NewPage appends an empty page and returns it.
func (d *Document) NewPage() *Page {
	p := &Page{}
	d.Pages = append(d.Pages, p)
	return p
}

// LastPage returns the final page, or nil for an empty document.
func (d *Document) LastPage() *Page {
	if len(d.Pages) == 0 {
		return nil
	}
	return d.Pages[len(d.Pages)-1]
}
