package codeshot

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gg"
)

const cornerRadius = 12

var controlColors = [3]color.NRGBA{
	{0xFF, 0x5F, 0x56, 0xFF},
	{0xFF, 0xBD, 0x2E, 0xFF},
	{0x27, 0xC9, 0x3F, 0xFF},
}

// ---- Canvas ----

type canvas struct {
	img *image.RGBA
	gp  *GlyphProvider
	pal Palette
}

func newCanvas(p Plan, gp *GlyphProvider, pal Palette) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(pal.Background), image.Point{}, draw.Src)
	return &canvas{img: img, gp: gp, pal: pal}
}

func (c *canvas) fillRect(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *canvas) drawLine(p Plan, l PlacedLine) {
	if l.Highlighted {
		c.fillRect(image.Rect(0, l.Top, p.Width, l.Top+p.LineHeight), c.pal.Highlight)
	}
	if l.Label != "" {
		c.gp.DrawString(c.img, l.Label, l.LabelX, l.Baseline, c.pal.LineNumber)
	}
	for _, g := range l.Glyphs {
		if g.Style.Background.A != 0 {
			c.fillRect(image.Rect(g.X.Floor(), l.Top, (g.X + g.Advance).Ceil(), l.Top+p.LineHeight), g.Style.Background)
		}
		if g.Rune != ' ' {
			c.gp.DrawStyledGlyph(c.img, g.Rune, g.Style, g.X+g.Offset, l.Baseline)
		}
		if g.Style.Underline {
			y := l.Baseline + 2
			c.fillRect(image.Rect(g.X.Floor(), y, (g.X + g.Advance).Ceil(), y+1), g.Style.Foreground)
		}
	}
}

// drawControls paints the three window dots and the title into the bar.
func (c *canvas) drawControls(p Plan) error {
	dc := gg.NewContext(p.Width, p.TitleBar)
	defer dc.Close()
	cy := float64(p.TitleBar) / 2
	for i, col := range controlColors {
		cx := float64(controlsInset + controlsRadius + i*controlsSpacing)
		dc.SetColor(col)
		dc.DrawCircle(cx, cy, controlsRadius)
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	draw.Draw(c.img, image.Rect(0, 0, p.Width, p.TitleBar), dc.Image(), image.Point{}, draw.Over)

	if p.Title != "" {
		baseline := (p.TitleBar + c.gp.Ascent() - c.gp.Descent()) / 2
		c.gp.DrawString(c.img, p.Title, p.TitleX, baseline, c.pal.WindowTitle)
	}
	return nil
}

// roundCorners clips img to a rounded rectangle covering all of it.
func roundCorners(img *image.RGBA, radius float64) *image.RGBA {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	defer dc.Close()
	dc.DrawRoundedRectangle(0, 0, float64(b.Dx()), float64(b.Dy()), radius)
	m := dc.AsMask()
	mask := &image.Alpha{Pix: m.Data(), Stride: m.Width(), Rect: m.Bounds()}

	out := image.NewRGBA(b)
	draw.DrawMask(out, b, img, b.Min, mask, image.Point{}, draw.Src)
	return out
}

// Decorate draws the plan: background, highlighted lines, line numbers,
// glyphs, window chrome and finally the rounded-corner mask.
func Decorate(p Plan, gp *GlyphProvider, pal Palette, cfg Config) (*image.RGBA, error) {
	c := newCanvas(p, gp, pal)
	for _, l := range p.Lines {
		c.drawLine(p, l)
	}
	if p.TitleBar > 0 {
		if err := c.drawControls(p); err != nil {
			return nil, err
		}
	}
	if cfg.RoundCorner {
		return roundCorners(c.img, cornerRadius), nil
	}
	return c.img, nil
}
