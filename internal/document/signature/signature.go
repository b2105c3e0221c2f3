// Package signature decodes the signature pad payload posted by the browser.
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrInvalid is returned for payloads that are not a usable image.
var ErrInvalid = errors.New("invalid signature image")

const (
	// MaxDimension bounds either side of the decoded image in pixels.
	MaxDimension = 4096
	// MaxPayload bounds the base64 payload length.
	MaxPayload = 8 << 20
)

// Image is a decoded signature ready to be embedded.
type Image struct {
	Format string
	Bounds image.Rectangle
	// PNG is the image re-encoded as non-premultiplied RGBA PNG.
	PNG []byte
}

// Decode accepts either a data URI ("data:image/png;base64,...") or bare
// base64 and returns the image it carries. PNG, JPEG and WebP are accepted.
func Decode(payload string) (*Image, error) {
	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d out of range", ErrInvalid, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	encoded, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	return &Image{Format: format, Bounds: img.Bounds(), PNG: encoded}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	data := strings.TrimSpace(payload)
	if strings.HasPrefix(data, "data:") {
		comma := strings.IndexByte(data, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URI", ErrInvalid)
		}
		if !strings.HasSuffix(data[:comma], ";base64") {
			return nil, fmt.Errorf("%w: data URI is not base64", ErrInvalid)
		}
		data = data[comma+1:]
	}
	if data == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalid)
	}
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("%w: payload too large", ErrInvalid)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		// canvas exports are padded, hand-built payloads sometimes are not
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return raw, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, fmt.Errorf("encode signature: %w", err)
	}
	return buf.Bytes(), nil
}
