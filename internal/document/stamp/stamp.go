// Package stamp overlays a signature onto an already generated document
// without regenerating its content.
package stamp

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/mattetti/filebuffer"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"termo/internal/document/layout"
	"termo/internal/document/render"
)

// Marker is written to the Info Keywords of every stamped document.
const Marker = "termo-signature-v1"

// ErrUnreadable is returned when the source is not a PDF that can be imported.
var ErrUnreadable = errors.New("unreadable document")

func init() {
	api.DisableConfigDir()
}

// Placement positions the signature block on the last page. Offsets are
// measured from the page's top-left corner, never from where the body text
// ended.
type Placement struct {
	X, Top        float64
	Width, Height float64
	// CaptionGap is the distance from the image bottom to the caption baseline.
	CaptionGap  float64
	CaptionFont layout.Font
}

// DefaultPlacement is a 300x60pt box 640pt from the top with a bold 10pt
// caption 20pt below it.
func DefaultPlacement() Placement {
	return Placement{
		X:           50,
		Top:         640,
		Width:       300,
		Height:      60,
		CaptionGap:  20,
		CaptionFont: layout.Font{Family: "Helvetica", Style: "B", Size: 10},
	}
}

// Overlay is what gets drawn on the last page.
type Overlay struct {
	// PNG is the encoded signature image.
	PNG     []byte
	Caption string
	// Meta is carried into the rewritten document; Keywords is replaced by Marker.
	Meta render.Metadata
}

// Ops returns the draw operations for ov.
func (p Placement) Ops(ov Overlay) []layout.Op {
	ops := []layout.Op{layout.ImageOp{
		X: p.X, Y: p.Top, W: p.Width, H: p.Height,
		Name: "signature",
		PNG:  ov.PNG,
	}}
	if ov.Caption != "" {
		ops = append(ops, layout.TextOp{
			X:    p.X,
			Y:    p.Top + p.Height + p.CaptionGap,
			Text: ov.Caption,
			Font: p.CaptionFont,
		})
	}
	return ops
}

// Compositor re-emits every page of a document and draws an overlay on the
// last one.
type Compositor struct {
	placement Placement
	conf      *model.Configuration
}

// NewCompositor returns a Compositor using placement.
func NewCompositor(placement Placement) *Compositor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Compositor{placement: placement, conf: conf}
}

// PageCount validates src and returns its number of pages.
func (c *Compositor) PageCount(src []byte) (int, error) {
	if err := api.Validate(bytes.NewReader(src), c.conf); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	n, err := api.PageCount(bytes.NewReader(src), c.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrUnreadable)
	}
	return n, nil
}

// Apply returns src with ov drawn on its last page. Every page is imported
// unchanged and keeps its own media box.
func (c *Compositor) Apply(src []byte, ov Overlay) (out []byte, err error) {
	if len(ov.PNG) == 0 {
		return nil, errors.New("stamp: overlay has no image")
	}
	n, err := c.PageCount(src)
	if err != nil {
		return nil, err
	}

	// gofpdi panics on structures it cannot parse
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	canvas := render.NewCanvas(layout.A4)
	pdf := canvas.PDF()
	imp := gofpdi.NewImporter()
	var rs io.ReadSeeker = filebuffer.New(src)

	for i := 1; i <= n; i++ {
		tpl := imp.ImportPageFromStream(pdf, &rs, i, "/MediaBox")
		size := mediaBox(imp, i)
		canvas.AddPage(size)
		imp.UseImportedTemplate(pdf, tpl, 0, 0, size.Width, size.Height)
		if i == n {
			canvas.Draw(c.placement.Ops(ov)...)
		}
	}

	canvas.SetMetadata(ov.Meta)
	pdf.SetKeywords(Marker, false)
	return canvas.Bytes()
}

// IsStamped reports whether src was produced by Apply.
func IsStamped(src []byte) bool {
	return bytes.Contains(src, []byte(Marker))
}

func mediaBox(imp *gofpdi.Importer, page int) layout.Size {
	size := layout.A4
	if dims, ok := imp.GetPageSizes()[page]; ok {
		if mb, ok := dims["/MediaBox"]; ok && mb["w"] > 0 && mb["h"] > 0 {
			size = layout.Size{Width: mb["w"], Height: mb["h"]}
		}
	}
	return size
}
