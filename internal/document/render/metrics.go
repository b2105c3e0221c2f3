package render

import (
	"sync"

	"github.com/jung-kurt/gofpdf"

	"termo/internal/document/layout"
)

// Metrics measures text with the same core-font tables the renderer embeds,
// so wrapping decisions match what ends up on the page.
type Metrics struct {
	mu        sync.Mutex
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

// NewMetrics returns a Measurer backed by gofpdf's Helvetica metrics.
func NewMetrics() *Metrics {
	pdf := newPDF(layout.A4)
	return &Metrics{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// Width implements layout.Measurer. Safe for concurrent use.
func (m *Metrics) Width(text string, f layout.Font) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(f.Family, f.Style, f.Size)
	return m.pdf.GetStringWidth(m.translate(text))
}
