package codeshot

import (
	"fmt"
	"image/color"
	"math"
	"slices"
)

// Background fills the area around a shadowed image.
type Background interface {
	background()
}

// Solid is a single-colour background.
type Solid struct {
	Color color.NRGBA
}

func (Solid) background() {}

// ShadowOptions requests a drop shadow. Unset fields take their defaults.
type ShadowOptions struct {
	Background Background   // transparent when nil
	Color      *color.NRGBA // semi-transparent black when nil
	BlurRadius *float64     // Gaussian standard deviation in pixels
	PadHoriz   *int
	PadVert    *int
	OffsetX    *int
	OffsetY    *int
}

// ImageOptions holds the optional knobs of a render. A nil field keeps the
// default; Shadow being non-nil is what turns the shadow on.
type ImageOptions struct {
	LinePad        *int
	LineNumber     *bool
	Fonts          []FontSpec
	HighlightLines []int
	WindowControls *bool
	WindowTitle    *string
	RoundCorner    *bool
	Shadow         *ShadowOptions
	TabWidth       *int
	LineOffset     *int
}

// ShadowConfig is a resolved ShadowOptions.
type ShadowConfig struct {
	Background Background
	Color      color.NRGBA
	BlurRadius float64
	PadHoriz   int
	PadVert    int
	OffsetX    int
	OffsetY    int
}

// Config is a resolved ImageOptions.
type Config struct {
	LinePad        int
	LineNumber     bool
	Fonts          []FontSpec
	HighlightLines []int // sorted, unique, 1-indexed
	WindowControls bool
	WindowTitle    string
	RoundCorner    bool
	Shadow         *ShadowConfig
	TabWidth       int
	LineOffset     int
}

// Defaults.
const (
	DefaultLinePad    = 2
	DefaultTabWidth   = 4
	DefaultLineOffset = 1
	DefaultBlurRadius = 50.0

	// Room around a shadowed image, sized for the default blur whatever
	// blur is asked for.
	DefaultPadHoriz = 80
	DefaultPadVert  = 100
)

// DefaultShadowColor is the shadow colour when none is given.
var DefaultShadowColor = color.NRGBA{0x00, 0x00, 0x00, 0x80}

// DefaultConfig returns the configuration used for a request without image
// options.
func DefaultConfig() Config {
	return Config{
		LinePad:        DefaultLinePad,
		LineNumber:     true,
		Fonts:          []FontSpec{{Family: DefaultFamily, Size: DefaultFontSize}},
		WindowControls: true,
		RoundCorner:    true,
		TabWidth:       DefaultTabWidth,
		LineOffset:     DefaultLineOffset,
	}
}

func (c Config) highlighted(line int) bool {
	_, ok := slices.BinarySearch(c.HighlightLines, line)
	return ok
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("codeshot: "+format+": %w", append(args, ErrInvalidOption)...)
}

// Resolve overlays o onto the defaults. A nil receiver yields DefaultConfig.
func (o *ImageOptions) Resolve() (Config, error) {
	cfg := DefaultConfig()
	if o == nil {
		return cfg, nil
	}
	if o.LinePad != nil {
		if *o.LinePad < 0 {
			return Config{}, invalid("line pad %d is negative", *o.LinePad)
		}
		cfg.LinePad = *o.LinePad
	}
	if o.LineNumber != nil {
		cfg.LineNumber = *o.LineNumber
	}
	if o.Fonts != nil {
		cfg.Fonts = slices.Clone(o.Fonts)
	}
	if o.HighlightLines != nil {
		lines := slices.Clone(o.HighlightLines)
		for _, n := range lines {
			if n < 1 {
				return Config{}, invalid("highlight line %d is not 1-indexed", n)
			}
		}
		slices.Sort(lines)
		cfg.HighlightLines = slices.Compact(lines)
	}
	if o.WindowControls != nil {
		cfg.WindowControls = *o.WindowControls
	}
	if o.WindowTitle != nil {
		cfg.WindowTitle = *o.WindowTitle
	}
	if o.RoundCorner != nil {
		cfg.RoundCorner = *o.RoundCorner
	}
	if o.TabWidth != nil {
		if *o.TabWidth < 1 || *o.TabWidth > math.MaxUint8 {
			return Config{}, invalid("tab width %d out of range 1-255", *o.TabWidth)
		}
		cfg.TabWidth = *o.TabWidth
	}
	if o.LineOffset != nil {
		if *o.LineOffset < 0 {
			return Config{}, invalid("line offset %d is negative", *o.LineOffset)
		}
		cfg.LineOffset = *o.LineOffset
	}
	if o.Shadow != nil {
		sc, err := o.Shadow.Resolve()
		if err != nil {
			return Config{}, err
		}
		cfg.Shadow = &sc
	}
	return cfg, nil
}

// Resolve overlays o onto the shadow defaults.
func (o *ShadowOptions) Resolve() (ShadowConfig, error) {
	sc := ShadowConfig{
		Background: Solid{},
		Color:      DefaultShadowColor,
		BlurRadius: DefaultBlurRadius,
	}
	if o == nil {
		o = &ShadowOptions{}
	}
	if o.Background != nil {
		sc.Background = o.Background
	}
	if o.Color != nil {
		sc.Color = *o.Color
	}
	if o.BlurRadius != nil {
		if *o.BlurRadius < 0 || math.IsNaN(*o.BlurRadius) || math.IsInf(*o.BlurRadius, 0) {
			return ShadowConfig{}, invalid("blur radius %g must be a non-negative number", *o.BlurRadius)
		}
		sc.BlurRadius = *o.BlurRadius
	}
	sc.PadHoriz = DefaultPadHoriz
	sc.PadVert = DefaultPadVert
	if o.PadHoriz != nil {
		if *o.PadHoriz < 0 {
			return ShadowConfig{}, invalid("horizontal padding %d is negative", *o.PadHoriz)
		}
		sc.PadHoriz = *o.PadHoriz
	}
	if o.PadVert != nil {
		if *o.PadVert < 0 {
			return ShadowConfig{}, invalid("vertical padding %d is negative", *o.PadVert)
		}
		sc.PadVert = *o.PadVert
	}
	if o.OffsetX != nil {
		sc.OffsetX = *o.OffsetX
	}
	if o.OffsetY != nil {
		sc.OffsetY = *o.OffsetY
	}
	return sc, nil
}

// Merge returns base with every field set in over replacing it. Neither
// argument is modified.
func Merge(base, over *ImageOptions) *ImageOptions {
	switch {
	case base == nil && over == nil:
		return nil
	case base == nil:
		out := *over
		return &out
	case over == nil:
		out := *base
		return &out
	}
	out := *base
	if over.LinePad != nil {
		out.LinePad = over.LinePad
	}
	if over.LineNumber != nil {
		out.LineNumber = over.LineNumber
	}
	if over.Fonts != nil {
		out.Fonts = over.Fonts
	}
	if over.HighlightLines != nil {
		out.HighlightLines = over.HighlightLines
	}
	if over.WindowControls != nil {
		out.WindowControls = over.WindowControls
	}
	if over.WindowTitle != nil {
		out.WindowTitle = over.WindowTitle
	}
	if over.RoundCorner != nil {
		out.RoundCorner = over.RoundCorner
	}
	if over.TabWidth != nil {
		out.TabWidth = over.TabWidth
	}
	if over.LineOffset != nil {
		out.LineOffset = over.LineOffset
	}
	if over.Shadow != nil {
		out.Shadow = mergeShadow(base.Shadow, over.Shadow)
	}
	return &out
}

func mergeShadow(base, over *ShadowOptions) *ShadowOptions {
	if base == nil {
		out := *over
		return &out
	}
	out := *base
	if over.Background != nil {
		out.Background = over.Background
	}
	if over.Color != nil {
		out.Color = over.Color
	}
	if over.BlurRadius != nil {
		out.BlurRadius = over.BlurRadius
	}
	if over.PadHoriz != nil {
		out.PadHoriz = over.PadHoriz
	}
	if over.PadVert != nil {
		out.PadVert = over.PadVert
	}
	if over.OffsetX != nil {
		out.OffsetX = over.OffsetX
	}
	if over.OffsetY != nil {
		out.OffsetY = over.OffsetY
	}
	return &out
}

// Ptr returns a pointer to v, for filling optional fields.
func Ptr[T any](v T) *T { return &v }
