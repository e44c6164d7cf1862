package codeshot

import (
	"image"
	"strconv"
	"strings"

	"golang.org/x/image/math/fixed"
	"golang.org/x/text/width"
)

const (
	codePadding    = 25 // around the code block
	titleBarHeight = 50
	gutterMargin   = 20 // between line numbers and code

	controlsInset   = 15
	controlsRadius  = 6
	controlsSpacing = 22
	controlsWidth   = 2*controlsRadius + 2*controlsSpacing
	titleGap        = 10
)

// runeColumns is the number of monospace columns r occupies.
func runeColumns(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// ExpandTabs replaces each tab with spaces up to the next multiple of
// tabWidth columns.
func ExpandTabs(s string, tabWidth int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		col = expandRune(&b, r, col, tabWidth)
	}
	return b.String()
}

func expandRune(b *strings.Builder, r rune, col, tabWidth int) int {
	if r != '\t' {
		b.WriteRune(r)
		return col + runeColumns(r)
	}
	if tabWidth < 1 {
		tabWidth = 1
	}
	n := tabWidth - col%tabWidth
	b.WriteString(strings.Repeat(" ", n))
	return col + n
}

// expandLine expands tabs across the spans of one line, keeping tab stops
// aligned to the start of the line.
func expandLine(l Line, tabWidth int) Line {
	out := make(Line, 0, len(l))
	col := 0
	for _, span := range l {
		if !strings.ContainsRune(span.Text, '\t') {
			for _, r := range span.Text {
				col += runeColumns(r)
			}
			out = append(out, span)
			continue
		}
		var b strings.Builder
		for _, r := range span.Text {
			col = expandRune(&b, r, col, tabWidth)
		}
		out = append(out, Span{Style: span.Style, Text: b.String()})
	}
	return out
}

// PlacedGlyph is one rune positioned on the canvas. X and Advance span the
// rune's columns; the glyph is drawn at X+Offset, centred in them.
type PlacedGlyph struct {
	X       fixed.Int26_6
	Advance fixed.Int26_6
	Offset  fixed.Int26_6
	Rune    rune
	Style   Style
}

// PlacedLine is one source line positioned on the canvas.
type PlacedLine struct {
	Number      int
	Label       string        // line number text, empty without a gutter
	LabelX      fixed.Int26_6 // pen start putting Label's end at NumberRight
	Top         int
	Baseline    int
	Width       int
	Highlighted bool
	Glyphs      []PlacedGlyph
}

// Plan is the geometry of a render before decoration.
type Plan struct {
	Width, Height int
	LineHeight    int

	TitleBar int // height of the chrome bar, 0 without window controls
	Title    string
	TitleX   fixed.Int26_6

	GutterWidth int // 0 without line numbers
	NumberRight int // line numbers end here
	TextX       int

	Lines []PlacedLine
}

// Size is the canvas size of the plan.
func (p Plan) Size() image.Point { return image.Pt(p.Width, p.Height) }

// Layout positions every glyph of lines and sizes the canvas.
func Layout(lines []Line, gp *GlyphProvider, cfg Config) Plan {
	p := Plan{LineHeight: gp.Ascent() + gp.Descent() + cfg.LinePad}
	// Every column is as wide as the primary face's digit.
	cell := gp.Advance('0')
	if cfg.WindowControls {
		p.TitleBar = titleBarHeight
	}
	if cfg.LineNumber {
		last := cfg.LineOffset + max(len(lines), 1) - 1
		digits := len(strconv.Itoa(last))
		numbers := (cell * fixed.Int26_6(digits)).Ceil()
		p.GutterWidth = numbers + gutterMargin
		p.NumberRight = codePadding + numbers
	}
	p.TextX = codePadding + p.GutterWidth

	maxWidth := 0
	y := p.TitleBar + codePadding
	p.Lines = make([]PlacedLine, len(lines))
	for i, l := range lines {
		pl := PlacedLine{
			Number:      cfg.LineOffset + i,
			Top:         y,
			Baseline:    y + gp.Ascent(),
			Highlighted: cfg.highlighted(i + 1),
		}
		if cfg.LineNumber {
			pl.Label = strconv.Itoa(pl.Number)
			pl.LabelX = fixed.I(p.NumberRight - gp.MeasureString(pl.Label))
		}
		start := fixed.I(p.TextX)
		col := 0
		for _, span := range expandLine(l, cfg.TabWidth) {
			for _, r := range span.Text {
				slot := cell * fixed.Int26_6(runeColumns(r))
				pl.Glyphs = append(pl.Glyphs, PlacedGlyph{
					X:       start + cell*fixed.Int26_6(col),
					Advance: slot,
					Offset:  (slot - gp.Advance(r)) / 2,
					Rune:    r,
					Style:   span.Style,
				})
				col += runeColumns(r)
			}
		}
		pl.Width = (cell * fixed.Int26_6(col)).Ceil()
		maxWidth = max(maxWidth, pl.Width)
		p.Lines[i] = pl
		y += p.LineHeight
	}

	p.Width = 2*codePadding + p.GutterWidth + maxWidth
	p.Height = p.TitleBar + 2*codePadding + len(lines)*p.LineHeight

	if cfg.WindowControls {
		minWidth := 2*controlsInset + controlsWidth
		if cfg.WindowTitle != "" {
			p.Title = cfg.WindowTitle
			titleWidth := gp.MeasureString(p.Title)
			// Keep the centred title clear of the dots on both sides.
			minWidth = 2*(controlsInset+controlsWidth+titleGap) + titleWidth
			p.Width = max(p.Width, minWidth)
			p.TitleX = fixed.I(p.Width-titleWidth) / 2
		}
		p.Width = max(p.Width, minWidth)
	}
	return p
}
