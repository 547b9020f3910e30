// Package imaging validates uploaded item photos and scales them down to a
// bounded size.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	// Decoders for the accepted formats.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the compression quality for downscaled photos.
const JPEGQuality = 85

var (
	// ErrEmpty is returned for a missing or empty photo payload.
	ErrEmpty = errors.New("photo data is empty")
	// ErrNotBase64 is returned for text payloads that are not valid base64.
	ErrNotBase64 = errors.New("photo data is neither an image nor base64")
	// ErrUnsupportedFormat is returned when the bytes are not a JPEG, PNG,
	// GIF or WebP image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// AllowedMIME lists the accepted image types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Result is a validated, possibly downscaled photo.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// DecodePayload returns the image bytes carried by a payload. Raw image bytes
// are returned as is; anything else is treated as base64 text, optionally
// with a data URI prefix.
func DecodePayload(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmpty
	}
	if AllowedMIME[http.DetectContentType(payload)] {
		return payload, nil
	}

	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "data:") {
		if i := strings.Index(text, ","); i >= 0 {
			text = text[i+1:]
		}
	}
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return nil, ErrEmpty
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBase64, err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// Process checks that data is an image in an accepted format and reads its
// dimensions. Images larger than maxDim on either side are downscaled and
// re-encoded as JPEG; smaller ones keep their original bytes. A maxDim of
// zero disables scaling.
func Process(data []byte, maxDim int) (*Result, error) {
	// Sniff the type from the bytes, never from client headers.
	mime := http.DetectContentType(data)
	if !AllowedMIME[mime] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	if maxDim <= 0 || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		// A full decode catches truncated images that have a valid header.
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return &Result{Data: data, MIME: mime, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	img = downscale(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Result{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// downscale fits the image into a maxDim square, keeping its aspect ratio.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
