package codeshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-fonts/latin-modern/lmmono10italic"
	"github.com/go-fonts/latin-modern/lmmono10regular"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Sizes are pixel sizes: at 72 DPI one point is one pixel.
const fontDPI = 72

// FontSpec names one font of the fallback list.
type FontSpec struct {
	Family string  `toml:"family" yaml:"family"`
	Size   float64 `toml:"size" yaml:"size"`
}

// DefaultFamily is the family used when a request names no fonts. Without a
// system copy of Hack the bundled Go Mono is drawn in its place.
const DefaultFamily = "Hack"

// DefaultFontSize is the size used when a request names no fonts.
const DefaultFontSize = 26.0

// variant selects the bold and italic faces of a family.
type variant int

const (
	variantRegular variant = 0
	variantBold    variant = 1 << 0
	variantItalic  variant = 1 << 1

	numVariants = 4
)

func (v variant) String() string {
	return [...]string{"regular", "bold", "italic", "bold italic"}[v]
}

func styleVariant(s Style) variant {
	var v variant
	if s.Bold {
		v |= variantBold
	}
	if s.Italic {
		v |= variantItalic
	}
	return v
}

// bundledFonts holds each bundled family's faces by variant. A nil entry is
// drawn with the regular face.
var bundledFonts = map[string][numVariants][]byte{
	"Go Mono":           {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
	"Go Mono Bold":      {gomonobold.TTF, gomonobold.TTF, gomonobolditalic.TTF, gomonobolditalic.TTF},
	"Latin Modern Mono": {lmmono10regular.TTF, nil, lmmono10italic.TTF, nil},
	DefaultFamily:       {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
}

// BundledFamilies lists the families that resolve without system fonts.
func BundledFamilies() []string {
	return []string{"Go Mono", "Go Mono Bold", "Latin Modern Mono", DefaultFamily}
}

// ---- Font loading ----

type parsedFont struct {
	name string
	tt   *truetype.Font
	ot   *opentype.Font
}

func parseFont(name string, data []byte, index int) (*parsedFont, error) {
	if index == 0 {
		if tt, err := truetype.Parse(data); err == nil {
			return &parsedFont{name: name, tt: tt}, nil
		}
	}
	// CFF outlines and collections need the sfnt parser.
	if coll, err := opentype.ParseCollection(data); err == nil && coll.NumFonts() > 1 {
		f, err := coll.Font(index)
		if err != nil {
			return nil, err
		}
		return &parsedFont{name: name, ot: f}, nil
	}
	ot, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return &parsedFont{name: name, ot: ot}, nil
}

func (p *parsedFont) newFace(size float64) (glyphFace, error) {
	if p.tt != nil {
		tt := p.tt
		face := truetype.NewFace(tt, &truetype.Options{Size: size, DPI: fontDPI, Hinting: font.HintingFull})
		return glyphFace{
			name: p.name,
			face: face,
			has:  func(r rune) bool { return tt.Index(r) != 0 },
		}, nil
	}
	face, err := opentype.NewFace(p.ot, &opentype.FaceOptions{Size: size, DPI: fontDPI, Hinting: font.HintingFull})
	if err != nil {
		return glyphFace{}, err
	}
	ot := p.ot
	var buf sfnt.Buffer
	return glyphFace{
		name: p.name,
		face: face,
		has: func(r rune) bool {
			idx, err := ot.GlyphIndex(&buf, r)
			return err == nil && idx != 0
		},
	}, nil
}

// FontLibrary turns font families into glyph providers. Parsed fonts are
// cached and never modified; faces are built fresh for every provider, so a
// library can serve concurrent renders.
type FontLibrary struct {
	logger   *slog.Logger
	system   bool
	cacheDir string

	systemOnce sync.Once
	systemIdx  map[string][numVariants][]fontscan.Location

	mu     sync.Mutex
	parsed map[fontKey]*parsedFont
}

// FontOption configures a FontLibrary.
type FontOption func(*FontLibrary)

// WithSystemFonts enables lookup of installed fonts. The font index is cached
// under cacheDir; an empty cacheDir uses the user cache directory.
func WithSystemFonts(cacheDir string) FontOption {
	return func(l *FontLibrary) {
		l.system = true
		l.cacheDir = cacheDir
	}
}

// WithFontLogger sets the logger used for font resolution messages.
func WithFontLogger(logger *slog.Logger) FontOption {
	return func(l *FontLibrary) { l.logger = logger }
}

// NewFontLibrary returns a library serving the bundled families and anything
// added with Add.
func NewFontLibrary(opts ...FontOption) *FontLibrary {
	l := &FontLibrary{
		parsed: make(map[fontKey]*parsedFont),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = discardLogger()
	}
	return l
}

// Add registers font bytes as the regular face of family, taking precedence
// over system and bundled fonts of the same name.
func (l *FontLibrary) Add(family string, data []byte) error {
	pf, err := parseFont(family, data, 0)
	if err != nil {
		return fmt.Errorf("codeshot: font %q: %w", family, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.parsed[fontKey{family, variantRegular}] = pf
	return nil
}

func normalizeFamily(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

func isFontPath(family string) bool {
	switch strings.ToLower(filepath.Ext(family)) {
	case ".ttf", ".otf", ".ttc", ".otc":
		return true
	}
	return strings.ContainsRune(family, '/') || strings.ContainsRune(family, filepath.Separator)
}

func aspectVariant(a gtfont.Aspect) variant {
	var v variant
	if a.Weight >= gtfont.WeightBold {
		v |= variantBold
	}
	if a.Style == gtfont.StyleItalic {
		v |= variantItalic
	}
	return v
}

func (l *FontLibrary) indexSystemFonts() {
	l.systemOnce.Do(func() {
		l.systemIdx = make(map[string][numVariants][]fontscan.Location)
		dir := l.cacheDir
		if dir == "" {
			if d, err := os.UserCacheDir(); err == nil {
				dir = filepath.Join(d, "codeshot")
			}
		}
		footprints, err := fontscan.SystemFonts(nil, dir)
		if err != nil {
			l.logger.Warn("scanning system fonts", "error", err)
			return
		}
		for _, fp := range footprints {
			key := normalizeFamily(fp.Family)
			v := aspectVariant(fp.Aspect)
			locs := l.systemIdx[key]
			// Exact 400 and 700 weights go ahead of medium, semibold and the like.
			if exact := fp.Aspect.Weight == gtfont.WeightNormal || fp.Aspect.Weight == gtfont.WeightBold; exact {
				locs[v] = append([]fontscan.Location{fp.Location}, locs[v]...)
			} else {
				locs[v] = append(locs[v], fp.Location)
			}
			l.systemIdx[key] = locs
		}
		l.logger.Debug("indexed system fonts", "families", len(l.systemIdx))
	})
}

type fontKey struct {
	family  string
	variant variant
}

// load returns the parsed font for one variant of family, or nil when
// nothing provides it. Font files given by path only have a regular face.
func (l *FontLibrary) load(family string, v variant) (*parsedFont, error) {
	key := fontKey{family, v}
	l.mu.Lock()
	pf, ok := l.parsed[key]
	l.mu.Unlock()
	if ok {
		return pf, nil
	}

	switch {
	case isFontPath(family):
		if v != variantRegular {
			return nil, nil
		}
		data, err := os.ReadFile(family)
		if err != nil {
			return nil, err
		}
		if pf, err = parseFont(family, data, 0); err != nil {
			return nil, err
		}
	default:
		if l.system {
			pf = l.loadSystem(family, v)
		}
		if pf == nil {
			data := bundledFonts[family][v]
			if data == nil {
				return nil, nil
			}
			var err error
			if pf, err = parseFont(family, data, 0); err != nil {
				return nil, err
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.parsed[key]; ok {
		return existing, nil
	}
	l.parsed[key] = pf
	return pf, nil
}

func (l *FontLibrary) loadSystem(family string, v variant) *parsedFont {
	l.indexSystemFonts()
	for _, loc := range l.systemIdx[normalizeFamily(family)][v] {
		data, err := os.ReadFile(loc.File)
		if err != nil {
			l.logger.Warn("reading system font", "file", loc.File, "error", err)
			continue
		}
		pf, err := parseFont(family, data, int(loc.Index))
		if err != nil {
			l.logger.Warn("parsing system font", "file", loc.File, "error", err)
			continue
		}
		l.logger.Debug("using system font", "family", family, "variant", v, "file", loc.File)
		return pf
	}
	return nil
}

// Resolve builds a glyph provider from the fallback list. Entries that cannot
// be loaded are skipped; at least one must load.
func (l *FontLibrary) Resolve(specs []FontSpec) (*GlyphProvider, error) {
	gp := &GlyphProvider{byRune: make(map[rune]int)}
	for _, spec := range specs {
		if spec.Size <= 0 {
			l.logger.Warn("skipping font with non-positive size", "family", spec.Family, "size", spec.Size)
			continue
		}
		pf, err := l.load(spec.Family, variantRegular)
		if err != nil {
			l.logger.Warn("skipping font", "family", spec.Family, "error", err)
			continue
		}
		if pf == nil {
			l.logger.Warn("font not found", "family", spec.Family)
			continue
		}
		gf, err := pf.newFace(spec.Size)
		if err != nil {
			l.logger.Warn("skipping font", "family", spec.Family, "error", err)
			continue
		}
		for v := variantBold; v < numVariants; v++ {
			gf.variants[v] = l.variantFace(spec, v)
		}
		gp.faces = append(gp.faces, gf)
	}
	if len(gp.faces) == 0 {
		return nil, fmt.Errorf("codeshot: none of %s could be loaded: %w", describeFonts(specs), ErrNoUsableFont)
	}
	m := gp.faces[0].face.Metrics()
	gp.ascent = m.Ascent.Ceil()
	gp.descent = m.Descent.Ceil()
	l.logger.Debug("resolved fonts", "primary", gp.faces[0].name, "faces", len(gp.faces), "ascent", gp.ascent, "descent", gp.descent)
	return gp, nil
}

// variantFace is the bold or italic face of spec, or nil when the family
// has none.
func (l *FontLibrary) variantFace(spec FontSpec, v variant) *glyphFace {
	pf, err := l.load(spec.Family, v)
	if err != nil {
		l.logger.Warn("skipping font variant", "family", spec.Family, "variant", v, "error", err)
		return nil
	}
	if pf == nil {
		return nil
	}
	gf, err := pf.newFace(spec.Size)
	if err != nil {
		l.logger.Warn("skipping font variant", "family", spec.Family, "variant", v, "error", err)
		return nil
	}
	return &gf
}

func describeFonts(specs []FontSpec) string {
	if len(specs) == 0 {
		return "an empty font list"
	}
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = strconv.Quote(s.Family) + "@" + strconv.FormatFloat(s.Size, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// ---- Glyphs ----

type glyphFace struct {
	name string
	face font.Face
	has  func(rune) bool

	variants [numVariants]*glyphFace // bold and italic faces; index 0 unused
}

// GlyphProvider measures and draws runes with per-rune fallback across an
// ordered list of faces. A provider belongs to a single render.
type GlyphProvider struct {
	faces   []glyphFace
	byRune  map[rune]int
	ascent  int
	descent int
}

// faceFor returns the first face holding r. When none does, the primary face
// draws its placeholder glyph.
func (g *GlyphProvider) faceFor(r rune) font.Face {
	if i, ok := g.byRune[r]; ok {
		return g.faces[i].face
	}
	idx := 0
	for i, f := range g.faces {
		if f.has(r) {
			idx = i
			break
		}
	}
	g.byRune[r] = idx
	return g.faces[idx].face
}

// Ascent is the primary face's ascent in pixels.
func (g *GlyphProvider) Ascent() int { return g.ascent }

// Descent is the primary face's descent in pixels.
func (g *GlyphProvider) Descent() int { return g.descent }

// Advance returns the horizontal advance of r.
func (g *GlyphProvider) Advance(r rune) fixed.Int26_6 {
	adv, ok := g.faceFor(r).GlyphAdvance(r)
	if !ok {
		adv, _ = g.faces[0].face.GlyphAdvance(r)
	}
	return adv
}

// Measure returns the advance, ascent and descent used to lay out r.
func (g *GlyphProvider) Measure(r rune) (advance fixed.Int26_6, ascent, descent int) {
	return g.Advance(r), g.ascent, g.descent
}

// MeasureString sums the advances of s in pixels, rounded up.
func (g *GlyphProvider) MeasureString(s string) int {
	var w fixed.Int26_6
	for _, r := range s {
		w += g.Advance(r)
	}
	return w.Ceil()
}

// styledFace returns the face drawing r in variant v: the styled face of
// the entry holding r when it has the glyph, otherwise the regular one.
func (g *GlyphProvider) styledFace(r rune, v variant) font.Face {
	face := g.faceFor(r)
	if v == variantRegular {
		return face
	}
	gf := &g.faces[g.byRune[r]]
	if sv := gf.variants[v]; sv != nil && sv.has(r) {
		return sv.face
	}
	return face
}

func (g *GlyphProvider) draw(dst draw.Image, face font.Face, r rune, x fixed.Int26_6, baseline int, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: fixed.I(baseline)},
	}
	d.DrawString(string(r))
}

// DrawGlyph draws r with its pen at (x, baseline) and returns its advance.
func (g *GlyphProvider) DrawGlyph(dst draw.Image, r rune, x fixed.Int26_6, baseline int, col color.Color) fixed.Int26_6 {
	g.draw(dst, g.faceFor(r), r, x, baseline, col)
	return g.Advance(r)
}

// DrawStyledGlyph is DrawGlyph with the bold or italic face s asks for,
// falling back to the regular face where the family has none.
func (g *GlyphProvider) DrawStyledGlyph(dst draw.Image, r rune, s Style, x fixed.Int26_6, baseline int) {
	g.draw(dst, g.styledFace(r, styleVariant(s)), r, x, baseline, s.Foreground)
}

// DrawString draws s starting at (x, baseline) and returns the end position.
func (g *GlyphProvider) DrawString(dst draw.Image, s string, x fixed.Int26_6, baseline int, col color.Color) fixed.Int26_6 {
	for _, r := range s {
		x += g.DrawGlyph(dst, r, x, baseline, col)
	}
	return x
}
