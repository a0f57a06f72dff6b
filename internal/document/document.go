// Package document loads image sources into the in-memory form the save
// pipeline consumes. JPEG decoding goes through jpegli; PNG and GIF sources
// are accepted so they can be converted on save.
package document

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/png"
	"io"
	"os"

	_ "github.com/gen2brain/jpegli"
)

// Document is a decoded raster held between load and save.
type Document struct {
	img    image.Image
	format string
}

// Load decodes an image from r.
func Load(r io.Reader) (*Document, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &Document{img: img, format: format}, nil
}

// LoadFile decodes the image stored at path.
func LoadFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	doc, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

// Image returns the decoded image.
func (d *Document) Image() image.Image {
	return d.img
}

// Format returns the registered name of the decoded format, e.g. "jpeg".
func (d *Document) Format() string {
	return d.format
}

// Bounds returns the pixel bounds of the decoded image.
func (d *Document) Bounds() image.Rectangle {
	return d.img.Bounds()
}

// RGBA renders the document into an RGBA surface anchored at the origin.
// This is the composed bitmap handed to the save pipeline; the decoded image
// itself is left untouched. A document that already wraps an origin-anchored
// RGBA image is returned as-is.
func (d *Document) RGBA() *image.RGBA {
	if rgba, ok := d.img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := d.img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), d.img, bounds.Min, draw.Src)
	return dst
}
