package codeshot

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	xdraw "golang.org/x/image/draw"
)

// Larger blurs run on a downscaled layer so the kernel stays short.
const maxDirectSigma = 4.0

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ShadowBounds returns the size of a w×h image after AddShadow and the
// position the image is drawn at.
func ShadowBounds(w, h int, sc ShadowConfig) (size, origin image.Point) {
	size = image.Pt(w+2*sc.PadHoriz+abs(sc.OffsetX), h+2*sc.PadVert+abs(sc.OffsetY))
	origin = image.Pt(sc.PadHoriz+max(0, -sc.OffsetX), sc.PadVert+max(0, -sc.OffsetY))
	return size, origin
}

// gaussianKernel is a normalized 1-d Gaussian with standard deviation sigma,
// cut off at three sigma.
func gaussianKernel(sigma float64) convolution.Matrix {
	half := int(math.Ceil(3 * sigma))
	k := convolution.NewKernel(2*half+1, 1)
	for i := range k.Matrix {
		x := float64(i - half)
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
	}
	return k.Normalized()
}

// blurShadow renders the alpha of img tinted with the shadow colour onto a
// transparent layer with room for the blur to spread, and blurs it. The
// returned point is where the layer's origin belongs relative to img.
func blurShadow(img *image.RGBA, sc ShadowConfig) (*image.RGBA, image.Point) {
	b := img.Bounds()
	margin := 0
	if sc.BlurRadius > 0 {
		margin = int(math.Ceil(3 * sc.BlurRadius))
	}
	layer := image.NewRGBA(image.Rect(0, 0, b.Dx()+2*margin, b.Dy()+2*margin))
	dst := image.Rect(margin, margin, margin+b.Dx(), margin+b.Dy())
	draw.DrawMask(layer, dst, image.NewUniform(sc.Color), image.Point{}, img, b.Min, draw.Src)
	if sc.BlurRadius > 0 {
		layer = gaussianBlur(layer, sc.BlurRadius)
	}
	return layer, image.Pt(-margin, -margin)
}

func convolveGaussian(img *image.RGBA, sigma float64) *image.RGBA {
	k := gaussianKernel(sigma)
	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false}
	img = convolution.Convolve(img, k, opts)
	return convolution.Convolve(img, k.Transposed(), opts)
}

// gaussianBlur blurs img with standard deviation sigma. Past maxDirectSigma
// the image is shrunk by ceil(sigma/maxDirectSigma), blurred at the scaled
// sigma and stretched back.
func gaussianBlur(img *image.RGBA, sigma float64) *image.RGBA {
	if sigma <= maxDirectSigma {
		return convolveGaussian(img, sigma)
	}
	scale := int(math.Ceil(sigma / maxDirectSigma))
	b := img.Bounds()
	small := image.NewRGBA(image.Rect(0, 0, (b.Dx()+scale-1)/scale, (b.Dy()+scale-1)/scale))
	xdraw.CatmullRom.Scale(small, small.Bounds(), img, b, xdraw.Src, nil)
	small = convolveGaussian(small, sigma/float64(scale))

	out := image.NewRGBA(b)
	xdraw.CatmullRom.Scale(out, b, small, small.Bounds(), xdraw.Src, nil)
	return out
}

// AddShadow places img on a larger canvas filled with the shadow background
// and composites a blurred, offset copy of its alpha beneath it.
func AddShadow(img *image.RGBA, sc ShadowConfig) (*image.RGBA, error) {
	b := img.Bounds()
	size, origin := ShadowBounds(b.Dx(), b.Dy(), sc)
	out := image.NewRGBA(image.Rectangle{Max: size})
	switch bg := sc.Background.(type) {
	case nil:
	case Solid:
		draw.Draw(out, out.Bounds(), image.NewUniform(bg.Color), image.Point{}, draw.Src)
	default:
		return nil, fmt.Errorf("codeshot: background %T: %w", bg, ErrInvalidOption)
	}

	layer, at := blurShadow(img, sc)
	at = at.Add(origin).Add(image.Pt(sc.OffsetX, sc.OffsetY))
	lb := layer.Bounds()
	draw.Draw(out, lb.Sub(lb.Min).Add(at), layer, lb.Min, draw.Over)

	draw.Draw(out, image.Rectangle{Min: origin, Max: origin.Add(b.Size())}, img, b.Min, draw.Over)
	return out, nil
}
