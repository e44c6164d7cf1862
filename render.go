package codeshot

import (
	"image"
	"log/slog"
	"sync"
)

// FormatRequest says how to render a piece of code.
type FormatRequest struct {
	Language string        // alias, name or file extension, e.g. "go", "Rust", "rs"
	Theme    ThemeSource   // ThemeName or *ThemeHandle
	Image    *ImageOptions // nil renders with DefaultConfig
}

// Renderer turns code into images. Nil fields fall back to the process-wide
// registry, a bundled-only font library and a discarding logger. A Renderer
// is safe for concurrent use.
type Renderer struct {
	Registry *Registry
	Fonts    *FontLibrary
	Logger   *slog.Logger
}

// RendererOption configures NewRenderer.
type RendererOption func(*Renderer)

// WithRegistry sets the language and theme registry.
func WithRegistry(r *Registry) RendererOption {
	return func(rd *Renderer) { rd.Registry = r }
}

// WithFonts sets the font library.
func WithFonts(l *FontLibrary) RendererOption {
	return func(rd *Renderer) { rd.Fonts = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RendererOption {
	return func(rd *Renderer) { rd.Logger = l }
}

// NewRenderer returns a Renderer with every field filled in.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Registry == nil {
		r.Registry = DefaultRegistry()
	}
	if r.Logger == nil {
		r.Logger = discardLogger()
	}
	if r.Fonts == nil {
		r.Fonts = NewFontLibrary(WithFontLogger(r.Logger))
	}
	return r
}

var (
	bundledFontsOnce sync.Once
	bundledLibrary   *FontLibrary
)

func defaultFonts() *FontLibrary {
	bundledFontsOnce.Do(func() { bundledLibrary = NewFontLibrary() })
	return bundledLibrary
}

func (r *Renderer) registry() *Registry {
	if r.Registry != nil {
		return r.Registry
	}
	return DefaultRegistry()
}

func (r *Renderer) fonts() *FontLibrary {
	if r.Fonts != nil {
		return r.Fonts
	}
	return defaultFonts()
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return discardLogger()
}

// stage is everything known about a render before pixels are touched.
type stage struct {
	cfg  Config
	pal  Palette
	gp   *GlyphProvider
	plan Plan
}

// prepare validates the request and lays the code out. The language and
// theme are checked before any font is loaded.
func (r *Renderer) prepare(code string, req FormatRequest) (*stage, error) {
	cfg, err := req.Image.Resolve()
	if err != nil {
		return nil, err
	}
	reg := r.registry()
	lexer, err := reg.Lexer(req.Language)
	if err != nil {
		return nil, err
	}
	theme, err := reg.Theme(req.Theme)
	if err != nil {
		return nil, err
	}
	lines, err := Highlight(code, lexer, theme)
	if err != nil {
		return nil, err
	}
	gp, err := r.fonts().Resolve(cfg.Fonts)
	if err != nil {
		return nil, err
	}
	plan := Layout(lines, gp, cfg)
	r.logger().Debug("laid out code",
		"language", req.Language,
		"theme", theme.Name(),
		"lines", len(lines),
		"width", plan.Width,
		"height", plan.Height)
	return &stage{cfg: cfg, pal: paletteOf(theme.style), gp: gp, plan: plan}, nil
}

func (s *stage) size() image.Point {
	size := s.plan.Size()
	if s.cfg.Shadow != nil {
		size, _ = ShadowBounds(size.X, size.Y, *s.cfg.Shadow)
	}
	return size
}

// Measure reports the size Render would produce without drawing anything.
func (r *Renderer) Measure(code string, req FormatRequest) (image.Point, error) {
	s, err := r.prepare(code, req)
	if err != nil {
		return image.Point{}, err
	}
	return s.size(), nil
}

// Render draws code into a straight-alpha image.
func (r *Renderer) Render(code string, req FormatRequest) (*image.NRGBA, error) {
	s, err := r.prepare(code, req)
	if err != nil {
		return nil, err
	}
	img, err := Decorate(s.plan, s.gp, s.pal, s.cfg)
	if err != nil {
		return nil, err
	}
	if s.cfg.Shadow != nil {
		if img, err = AddShadow(img, *s.cfg.Shadow); err != nil {
			return nil, err
		}
	}
	r.logger().Debug("rendered code", "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return toNRGBA(img)
}

// RenderRGBA8 renders code and returns the raw pixels.
func (r *Renderer) RenderRGBA8(code string, req FormatRequest) (*Image, error) {
	img, err := r.Render(code, req)
	if err != nil {
		return nil, err
	}
	return NewImage(img)
}

// RenderPNG renders code and encodes it as PNG.
func (r *Renderer) RenderPNG(code string, req FormatRequest) ([]byte, error) {
	img, err := r.RenderRGBA8(code, req)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

var defaultRenderer = sync.OnceValue(func() *Renderer { return NewRenderer() })

// RenderPNG renders with the default registry and bundled fonts.
func RenderPNG(code string, req FormatRequest) ([]byte, error) {
	return defaultRenderer().RenderPNG(code, req)
}

// RenderRGBA8 renders with the default registry and bundled fonts.
func RenderRGBA8(code string, req FormatRequest) (*Image, error) {
	return defaultRenderer().RenderRGBA8(code, req)
}
