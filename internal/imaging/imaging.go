// Package imaging normalises uploaded item photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const JPEGQuality = 85

// ErrUnsupported is returned for uploads that are not one of the allowed image types.
var ErrUnsupported = errors.New("unsupported image format")

type Processor struct {
	MaxDimension int
	MaxBytes     int64
	Allowed      map[string]bool
}

func NewProcessor(maxDimension int, maxBytes int64, allowedTypes []string) *Processor {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &Processor{MaxDimension: maxDimension, MaxBytes: maxBytes, Allowed: allowed}
}

// Process sniffs the upload's real type, downscales it to MaxDimension and
// re-encodes it as JPEG.
func (p *Processor) Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", p.MaxBytes)
	}

	detected := http.DetectContentType(data)
	if !p.Allowed[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = downscale(img, p.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale keeps the aspect ratio and leaves images within bounds untouched.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
