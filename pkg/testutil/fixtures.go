package testutil

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// SignaturePNG draws a small stroke on a transparent canvas, the shape a
// browser signature pad produces, and returns the encoded PNG.
func SignaturePNG(t testing.TB) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 40))
	for x := 10; x < 190; x++ {
		y := 20 + (x%20 - 10)
		img.Set(x, y, color.NRGBA{A: 255})
		img.Set(x, y+1, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// SignatureDataURI returns SignaturePNG as a canvas.toDataURL() payload.
func SignatureDataURI(t testing.TB) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(SignaturePNG(t))
}
