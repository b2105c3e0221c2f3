// Package render draws a layout.Document with gofpdf.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"termo/internal/document/layout"
)

// Metadata fills the PDF Info dictionary.
type Metadata struct {
	Title     string
	Author    string
	Subject   string
	Keywords  string
	CreatedAt time.Time
}

func newPDF(size layout.Size) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

// Canvas is a gofpdf document that understands layout operations. It is
// also used by the stamp package to draw on top of imported pages.
type Canvas struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
	images    map[string]bool
}

// NewCanvas starts an empty document whose default page size is size.
func NewCanvas(size layout.Size) *Canvas {
	pdf := newPDF(size)
	return &Canvas{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		images:    make(map[string]bool),
	}
}

// PDF exposes the underlying document for operations layout does not model.
func (c *Canvas) PDF() *gofpdf.Fpdf {
	return c.pdf
}

// AddPage appends a page of the given size.
func (c *Canvas) AddPage(size layout.Size) {
	c.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
}

// Draw renders ops onto the current page.
func (c *Canvas) Draw(ops ...layout.Op) {
	for _, op := range ops {
		switch o := op.(type) {
		case layout.TextOp:
			c.pdf.SetFont(o.Font.Family, o.Font.Style, o.Font.Size)
			c.pdf.Text(o.X, o.Y, c.translate(o.Text))
		case layout.ImageOp:
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			if !c.images[o.Name] {
				c.pdf.RegisterImageOptionsReader(o.Name, opts, bytes.NewReader(o.PNG))
				c.images[o.Name] = true
			}
			c.pdf.ImageOptions(o.Name, o.X, o.Y, o.W, o.H, false, opts, 0, "")
		}
	}
}

// SetMetadata writes the Info dictionary.
func (c *Canvas) SetMetadata(m Metadata) {
	if m.Title != "" {
		c.pdf.SetTitle(m.Title, true)
	}
	if m.Author != "" {
		c.pdf.SetAuthor(m.Author, true)
	}
	if m.Subject != "" {
		c.pdf.SetSubject(m.Subject, true)
	}
	if m.Keywords != "" {
		c.pdf.SetKeywords(m.Keywords, true)
	}
	if !m.CreatedAt.IsZero() {
		c.pdf.SetCreationDate(m.CreatedAt)
	}
}

// Bytes serializes the document.
func (c *Canvas) Bytes() ([]byte, error) {
	if err := c.pdf.Error(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: output: %w", err)
	}
	return buf.Bytes(), nil
}

// Render draws every page of doc and returns the encoded PDF.
func Render(doc *layout.Document, meta Metadata) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("render: document has no pages")
	}
	c := NewCanvas(doc.Size)
	c.SetMetadata(meta)
	for _, page := range doc.Pages {
		c.AddPage(doc.Size)
		c.Draw(page.Ops...)
	}
	return c.Bytes()
}
