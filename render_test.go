package codeshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rustSample = "fn main() {\n    println!(\"hi\");\n}\n"

func testRenderer() *Renderer {
	return NewRenderer(WithFonts(NewFontLibrary()))
}

func flat() *ImageOptions {
	return &ImageOptions{
		Fonts:          []FontSpec{{Family: "Go Mono", Size: 14}},
		LineNumber:     Ptr(false),
		WindowControls: Ptr(false),
		RoundCorner:    Ptr(false),
	}
}

func TestRenderPNGMatchesMeasure(t *testing.T) {
	r := testRenderer()
	req := FormatRequest{Language: "rust", Theme: ThemeName("dracula"), Image: &ImageOptions{
		Fonts:       []FontSpec{{Family: "Go Mono", Size: 16}},
		WindowTitle: Ptr("main.rs"),
	}}
	size, err := r.Measure(rustSample, req)
	require.NoError(t, err)

	data, err := r.RenderPNG(rustSample, req)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, size, img.Bounds().Size())

	again, err := r.RenderPNG(rustSample, req)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, again), "identical requests should encode identically")
}

func TestMeasureIncludesShadow(t *testing.T) {
	r := testRenderer()
	req := FormatRequest{Language: "go", Theme: ThemeName("monokai"), Image: flat()}
	plain, err := r.Measure("package main\n", req)
	require.NoError(t, err)

	opts := flat()
	opts.Shadow = &ShadowOptions{BlurRadius: Ptr(2.0), PadHoriz: Ptr(7), PadVert: Ptr(9), OffsetX: Ptr(3), OffsetY: Ptr(-4)}
	req.Image = opts
	shadowed, err := r.Measure("package main\n", req)
	require.NoError(t, err)
	assert.Equal(t, plain.Add(image.Pt(2*7+3, 2*9+4)), shadowed)

	img, err := r.Render("package main\n", req)
	require.NoError(t, err)
	assert.Equal(t, shadowed, img.Bounds().Size())
}

func TestSharpShadowStillPads(t *testing.T) {
	r := testRenderer()
	req := FormatRequest{Language: "go", Theme: ThemeName("monokai"), Image: flat()}
	plain, err := r.Measure("package main\n", req)
	require.NoError(t, err)

	for _, sh := range []*ShadowOptions{{}, {BlurRadius: Ptr(0.0)}} {
		opts := flat()
		opts.Shadow = sh
		req.Image = opts
		shadowed, err := r.Measure("package main\n", req)
		require.NoError(t, err)
		assert.Equal(t, plain.Add(image.Pt(2*DefaultPadHoriz, 2*DefaultPadVert)), shadowed)
	}
}

func TestLookupErrorsComeBeforeFonts(t *testing.T) {
	r := testRenderer()
	unusable := &ImageOptions{Fonts: []FontSpec{{Family: "/no/such/font.ttf", Size: 12}}}

	_, err := r.RenderPNG("x", FormatRequest{Language: "no-such-language", Theme: ThemeName("dracula"), Image: unusable})
	require.ErrorIs(t, err, ErrUnknownLanguage)

	_, err = r.RenderPNG("x", FormatRequest{Language: "go", Theme: ThemeName("no-such-theme"), Image: unusable})
	require.ErrorIs(t, err, ErrUnknownTheme)

	_, err = r.RenderPNG("x", FormatRequest{Language: "go", Theme: nil, Image: unusable})
	require.ErrorIs(t, err, ErrUnknownTheme)

	_, err = r.RenderPNG("x", FormatRequest{Language: "go", Theme: ThemeName("dracula"), Image: unusable})
	require.ErrorIs(t, err, ErrNoUsableFont)
}

func TestInvalidOptionsAreRejected(t *testing.T) {
	r := testRenderer()
	_, err := r.Render("x", FormatRequest{Language: "go", Theme: ThemeName("dracula"), Image: &ImageOptions{TabWidth: Ptr(0)}})
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestRoundedCornersAreTransparent(t *testing.T) {
	r := testRenderer()
	img, err := r.Render(rustSample, FormatRequest{Language: "rust", Theme: ThemeName("dracula"), Image: &ImageOptions{
		Fonts: []FontSpec{{Family: "Go Mono", Size: 14}},
	}})
	require.NoError(t, err)
	b := img.Bounds()
	for _, p := range []image.Point{{b.Min.X, b.Min.Y}, {b.Max.X - 1, b.Min.Y}, {b.Min.X, b.Max.Y - 1}, {b.Max.X - 1, b.Max.Y - 1}} {
		assert.Zero(t, img.NRGBAAt(p.X, p.Y).A, "corner %v", p)
	}
	assert.Equal(t, uint8(0xFF), img.NRGBAAt(b.Dx()/2, b.Dy()/2).A)
}

func TestSquareCornersAreOpaque(t *testing.T) {
	r := testRenderer()
	img, err := r.Render(rustSample, FormatRequest{Language: "rust", Theme: ThemeName("dracula"), Image: flat()})
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), img.NRGBAAt(0, 0).A)
}

func TestRGBA8MatchesPNG(t *testing.T) {
	r := testRenderer()
	req := FormatRequest{Language: "rust", Theme: ThemeName("github"), Image: &ImageOptions{
		Fonts:  []FontSpec{{Family: "Go Mono", Size: 14}},
		Shadow: &ShadowOptions{BlurRadius: Ptr(3.0)},
	}}
	raw, err := r.RenderRGBA8(rustSample, req)
	require.NoError(t, err)
	require.Len(t, raw.RGBA8(), 4*raw.Width*raw.Height)

	data, err := r.RenderPNG(rustSample, req)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Pt(raw.Width, raw.Height), decoded.Bounds().Size())

	want := raw.NRGBA()
	for y := 0; y < raw.Height; y++ {
		for x := 0; x < raw.Width; x++ {
			got := color.NRGBAModel.Convert(decoded.At(x, y)).(color.NRGBA)
			if got != want.NRGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want.NRGBAAt(x, y))
			}
		}
	}
}

func TestHighlightedLineBackground(t *testing.T) {
	r := testRenderer()
	opts := flat()
	opts.HighlightLines = []int{2}
	req := FormatRequest{Language: "text", Theme: ThemeName("dracula"), Image: opts}

	s, err := r.prepare("a\nb\nc\n", req)
	require.NoError(t, err)
	require.Len(t, s.plan.Lines, 3)
	img, err := r.Render("a\nb\nc\n", req)
	require.NoError(t, err)

	at := func(l PlacedLine) color.NRGBA {
		return img.NRGBAAt(2, l.Top+s.plan.LineHeight/2)
	}
	first, second, third := at(s.plan.Lines[0]), at(s.plan.Lines[1]), at(s.plan.Lines[2])
	assert.Equal(t, first, third)
	assert.NotEqual(t, first, second)
	assert.Equal(t, s.pal.Highlight, second)
}

func TestEmptyCodeRenders(t *testing.T) {
	r := testRenderer()
	img, err := r.Render("", FormatRequest{Language: "go", Theme: ThemeName("dracula")})
	require.NoError(t, err)
	assert.Equal(t, titleBarHeight+2*codePadding, img.Bounds().Dy())
}

func TestLoadedThemeHandle(t *testing.T) {
	h, err := LoadTheme([]byte(miniTheme))
	require.NoError(t, err)
	r := testRenderer()
	img, err := r.Render("x := 1\n", FormatRequest{Language: "go", Theme: h, Image: flat()})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x10, 0x10, 0x10, 0xFF}, img.NRGBAAt(0, 0))
}

func TestRendererIsSafeForConcurrentUse(t *testing.T) {
	r := testRenderer()
	req := FormatRequest{Language: "rust", Theme: ThemeName("dracula"), Image: flat()}
	want, err := r.RenderPNG(rustSample, req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = r.RenderPNG(rustSample, req)
		}()
	}
	wg.Wait()
	for i, got := range results {
		assert.True(t, bytes.Equal(want, got), "render %d differs", i)
	}
}

func TestPackageLevelRender(t *testing.T) {
	img, err := RenderRGBA8("x", FormatRequest{Language: "go", Theme: ThemeName("dracula"), Image: flat()})
	require.NoError(t, err)
	assert.Positive(t, img.Width)
	assert.Positive(t, img.Height)

	data, err := RenderPNG("x", FormatRequest{Language: "go", Theme: ThemeName("dracula"), Image: flat()})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
