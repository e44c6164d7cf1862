package codeshot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path/filepath"
	"slices"
	"strings"
)

// Format selects an output encoding.
type Format int

const (
	FormatPNG Format = iota
	FormatRGBA8
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatRGBA8:
		return "rgba8"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatForPath picks the output format from a file extension: ".png" or
// ".rgba" for raw pixels.
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return FormatPNG, nil
	case ".rgba":
		return FormatRGBA8, nil
	default:
		return 0, fmt.Errorf("codeshot: output extension %q: %w", ext, ErrInvalidOption)
	}
}

// Image is a rendered image: straight-alpha RGBA8 pixels, row-major, top to
// bottom, with no padding between rows.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// RGBA8 returns the pixel buffer, 4·Width·Height bytes.
func (i *Image) RGBA8() []byte { return i.Pix }

// NRGBA wraps the pixels as an image without copying.
func (i *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: i.Pix, Stride: 4 * i.Width, Rect: image.Rect(0, 0, i.Width, i.Height)}
}

// toNRGBA converts the compositing buffer to straight alpha.
func toNRGBA(img image.Image) (*image.NRGBA, error) {
	switch m := img.(type) {
	case *image.NRGBA:
		return m, nil
	case *image.RGBA:
		out := image.NewNRGBA(image.Rectangle{Max: m.Bounds().Size()})
		draw.Draw(out, out.Bounds(), m, m.Bounds().Min, draw.Src)
		return out, nil
	default:
		return nil, fmt.Errorf("codeshot: pixel buffer %T: %w", img, ErrUnsupportedImageMode)
	}
}

// NewImage copies an RGBA or NRGBA buffer into an Image.
func NewImage(img image.Image) (*Image, error) {
	n, err := toNRGBA(img)
	if err != nil {
		return nil, err
	}
	b := n.Bounds()
	out := &Image{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, 0, 4*b.Dx()*b.Dy())}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := n.Pix[n.PixOffset(b.Min.X, y):n.PixOffset(b.Max.X, y)]
		out.Pix = append(out.Pix, row...)
	}
	return out, nil
}

// EncodePNG encodes img as a deflate-compressed PNG.
func EncodePNG(img *Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img.NRGBA()); err != nil {
		return nil, fmt.Errorf("codeshot: png: %v: %w", err, ErrEncoding)
	}
	return buf.Bytes(), nil
}

// Encode serializes img in the given format.
func Encode(img *Image, f Format) ([]byte, error) {
	switch f {
	case FormatPNG:
		return EncodePNG(img)
	case FormatRGBA8:
		return slices.Clone(img.Pix), nil
	default:
		return nil, fmt.Errorf("codeshot: format %v: %w", f, ErrEncoding)
	}
}
