package codeshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

func testGlyphs(t *testing.T) *GlyphProvider {
	t.Helper()
	gp, err := NewFontLibrary().Resolve([]FontSpec{{Family: "Go Mono", Size: 20}})
	require.NoError(t, err)
	return gp
}

func plainLines(t *testing.T, code string) []Line {
	t.Helper()
	reg := DefaultRegistry()
	lexer, err := reg.Lexer("text")
	require.NoError(t, err)
	theme, err := reg.Theme(ThemeName("dracula"))
	require.NoError(t, err)
	lines, err := Highlight(code, lexer, theme)
	require.NoError(t, err)
	return lines
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "    x", ExpandTabs("\tx", 4))
	assert.Equal(t, "ab  c", ExpandTabs("ab\tc", 4))
	assert.Equal(t, "abcd    e", ExpandTabs("abcd\te", 4))
	assert.Equal(t, "  x", ExpandTabs("\tx", 2))
	assert.Equal(t, "no tabs", ExpandTabs("no tabs", 8))
	// A wide rune takes two columns.
	assert.Equal(t, "漢  x", ExpandTabs("漢\tx", 4))
}

func TestLayoutLineNumbersFollowOffset(t *testing.T) {
	gp := testGlyphs(t)
	cfg := DefaultConfig()
	cfg.LineOffset = 10
	p := Layout(plainLines(t, "a\nb\nc\n"), gp, cfg)
	require.Len(t, p.Lines, 3)
	digits := (gp.Advance('0') * 2).Ceil()
	assert.Equal(t, digits+gutterMargin, p.GutterWidth)
	assert.Equal(t, codePadding+digits, p.NumberRight)

	for i, want := range []string{"10", "11", "12"} {
		l := p.Lines[i]
		assert.Equal(t, 10+i, l.Number)
		assert.Equal(t, want, l.Label)
		assert.Equal(t, fixed.I(p.NumberRight), l.LabelX+fixed.I(gp.MeasureString(l.Label)), want)
	}
}

func TestLayoutRightAlignsShortLabels(t *testing.T) {
	gp := testGlyphs(t)
	cfg := DefaultConfig()
	cfg.LineOffset = 9
	p := Layout(plainLines(t, "a\nb\n"), gp, cfg)
	require.Len(t, p.Lines, 2)
	assert.Equal(t, "9", p.Lines[0].Label)
	assert.Equal(t, fixed.I(p.NumberRight-gp.MeasureString("9")), p.Lines[0].LabelX)
	assert.Greater(t, p.Lines[0].LabelX, p.Lines[1].LabelX)

	cfg.LineNumber = false
	p = Layout(plainLines(t, "a\n"), gp, cfg)
	assert.Empty(t, p.Lines[0].Label)
}

// mixedGlyphs puts Latin Modern Mono first and lets Go Mono, whose advance
// is wider, supply 'w'.
func mixedGlyphs(t *testing.T) *GlyphProvider {
	t.Helper()
	lib := NewFontLibrary()
	primary, err := lib.Resolve([]FontSpec{{Family: "Latin Modern Mono", Size: 20}})
	require.NoError(t, err)
	secondary, err := lib.Resolve([]FontSpec{{Family: "Go Mono", Size: 20}})
	require.NoError(t, err)

	first, second := primary.faces[0], secondary.faces[0]
	has := first.has
	first.has = func(r rune) bool { return r != 'w' && has(r) }
	return &GlyphProvider{
		faces:   []glyphFace{first, second},
		byRune:  make(map[rune]int),
		ascent:  primary.Ascent(),
		descent: primary.Descent(),
	}
}

func TestLayoutKeepsColumnsAcrossFaces(t *testing.T) {
	gp := mixedGlyphs(t)
	cell := gp.Advance('0')
	require.NotEqual(t, cell, gp.Advance('w'))

	cfg := DefaultConfig()
	fallback := Layout(plainLines(t, "wx\n"), gp, cfg)
	primary := Layout(plainLines(t, "ax\n"), gp, cfg)
	fg, pg := fallback.Lines[0].Glyphs, primary.Lines[0].Glyphs
	require.Len(t, fg, 2)
	require.Len(t, pg, 2)

	assert.Equal(t, pg[1].X, fg[1].X)
	assert.Equal(t, fixed.I(fallback.TextX)+cell, fg[1].X)
	assert.Equal(t, cell, fg[0].Advance)
	// The fallback glyph is centred in its cell.
	assert.Equal(t, (cell-gp.Advance('w'))/2, fg[0].Offset)
	assert.Zero(t, pg[0].Offset)
	assert.Equal(t, (cell * 2).Ceil(), fallback.Lines[0].Width)
	assert.Equal(t, primary.Width, fallback.Width)
}

func TestLayoutWideRunesTakeTwoColumns(t *testing.T) {
	gp := testGlyphs(t)
	cell := gp.Advance('0')
	cfg := DefaultConfig()
	wide := Layout(plainLines(t, "漢\tx\n"), gp, cfg)
	narrow := Layout(plainLines(t, "ab\tx\n"), gp, cfg)

	wg, ng := wide.Lines[0].Glyphs, narrow.Lines[0].Glyphs
	require.Equal(t, 'x', wg[len(wg)-1].Rune)
	require.Equal(t, 'x', ng[len(ng)-1].Rune)
	assert.Equal(t, ng[len(ng)-1].X, wg[len(wg)-1].X)
	assert.Equal(t, fixed.I(wide.TextX)+4*cell, wg[len(wg)-1].X)
	assert.Equal(t, 2*cell, wg[0].Advance)
	assert.Equal(t, (cell * 5).Ceil(), wide.Lines[0].Width)
}

func TestLayoutSize(t *testing.T) {
	gp := testGlyphs(t)
	cfg := DefaultConfig()
	cfg.LineNumber = false
	cfg.WindowControls = false
	p := Layout(plainLines(t, "ab\nabcd\n"), gp, cfg)

	lineHeight := gp.Ascent() + gp.Descent() + DefaultLinePad
	assert.Equal(t, lineHeight, p.LineHeight)
	assert.Equal(t, 2*codePadding+2*lineHeight, p.Height)
	assert.Equal(t, 2*codePadding+gp.MeasureString("abcd"), p.Width)
	assert.Equal(t, p.Lines[0].Top+lineHeight, p.Lines[1].Top)
	assert.Zero(t, p.GutterWidth)
}

func TestLayoutWidensForTitle(t *testing.T) {
	gp := testGlyphs(t)
	cfg := DefaultConfig()
	cfg.WindowTitle = "a rather long window title"
	p := Layout(plainLines(t, "x\n"), gp, cfg)

	titleWidth := gp.MeasureString(cfg.WindowTitle)
	assert.GreaterOrEqual(t, p.Width, 2*(controlsInset+controlsWidth+titleGap)+titleWidth)
	assert.Equal(t, titleBarHeight, p.TitleBar)
	assert.Equal(t, fixed.I(p.Width-titleWidth)/2, p.TitleX)
}

func TestLayoutTabMatchesSpaces(t *testing.T) {
	gp := testGlyphs(t)
	cfg := DefaultConfig()
	tabbed := Layout(plainLines(t, "\tx\n"), gp, cfg)
	spaced := Layout(plainLines(t, "    x\n"), gp, cfg)

	assert.Equal(t, spaced.Width, tabbed.Width)
	tg, sg := tabbed.Lines[0].Glyphs, spaced.Lines[0].Glyphs
	require.Len(t, tg, 5)
	require.Len(t, sg, 5)
	assert.Equal(t, sg[4].X, tg[4].X)
	assert.Equal(t, 'x', tg[4].Rune)
}

func TestLayoutHighlightFlags(t *testing.T) {
	gp := testGlyphs(t)
	cfg := DefaultConfig()
	cfg.HighlightLines = []int{2}
	cfg.LineOffset = 40
	p := Layout(plainLines(t, "a\nb\nc\n"), gp, cfg)
	assert.False(t, p.Lines[0].Highlighted)
	assert.True(t, p.Lines[1].Highlighted)
	assert.False(t, p.Lines[2].Highlighted)
}
