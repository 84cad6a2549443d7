// Package imaging normalizes uploaded item photos: it sniffs the real format,
// shrinks oversized pictures and re-encodes everything as JPEG.
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

	"github.com/erazemk/donacije/internal/model"
)

// Options bound the photos accepted for an item.
type Options struct {
	MaxDimension int   // longest stored edge in pixels
	Quality      int   // JPEG quality, 1-100
	MaxBytes     int64 // upload size limit
}

// DefaultOptions suit shelf photos viewed on a phone.
var DefaultOptions = Options{
	MaxDimension: 1024,
	Quality:      85,
	MaxBytes:     10 << 20,
}

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalized item photo ready for storage.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize reads an uploaded photo and returns it as a JPEG no larger than
// opts.MaxDimension on either edge. Unsupported or oversized uploads fail
// with model.ErrValidation.
func Normalize(r io.Reader, opts Options) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", model.ErrValidation, opts.MaxBytes)
	}

	// Client headers are not trusted.
	if detected := http.DetectContentType(data); !accepted[detected] {
		return nil, fmt.Errorf("%w: unsupported photo format %s, only JPEG and PNG are accepted",
			model.ErrValidation, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(model.ErrValidation, fmt.Errorf("decoding photo: %w", err))
	}

	img = fit(img, opts.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down, keeping its aspect ratio, so that neither edge exceeds
// maxEdge. Smaller images are returned unchanged.
func fit(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
