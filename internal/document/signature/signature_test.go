package signature

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termo/pkg/testutil"
)

func TestDecode(t *testing.T) {
	pngBytes := testutil.SignaturePNG(t)

	var jpg bytes.Buffer
	src := image.NewRGBA(image.Rect(0, 0, 30, 10))
	src.Set(3, 3, color.Black)
	require.NoError(t, jpeg.Encode(&jpg, src, nil))

	tests := []struct {
		name    string
		payload string
		format  string
	}{
		{"data uri", testutil.SignatureDataURI(t), "png"},
		{"bare base64", base64.StdEncoding.EncodeToString(pngBytes), "png"},
		{"unpadded base64", base64.RawStdEncoding.EncodeToString(pngBytes), "png"},
		{"surrounding whitespace", "  " + testutil.SignatureDataURI(t) + "\n", "png"},
		{"jpeg", "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpg.Bytes()), "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.format, img.Format)
			assert.Positive(t, img.Bounds.Dx())

			decoded, err := png.Decode(bytes.NewReader(img.PNG))
			require.NoError(t, err)
			assert.Equal(t, img.Bounds.Dx(), decoded.Bounds().Dx())
			assert.Equal(t, img.Bounds.Dy(), decoded.Bounds().Dy())
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"empty data uri", "data:image/png;base64,"},
		{"no comma", "data:image/png;base64"},
		{"not base64 data uri", "data:image/png,abc"},
		{"garbage", "!!!not-base64!!!"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello world"))},
		{"too large", strings.Repeat("A", MaxPayload+4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDecode_DimensionGuard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, MaxDimension+1, 1))))

	_, err := Decode(base64.StdEncoding.EncodeToString(buf.Bytes()))
	assert.ErrorIs(t, err, ErrInvalid)
}
