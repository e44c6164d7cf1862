package codeshot

import (
	"bytes"
	"fmt"
	"image/color"
	"os"

	"github.com/alecthomas/chroma/v2"
)

// ThemeSource selects the colour theme of a render. It is either a ThemeName
// looked up in a Registry or a *ThemeHandle loaded ahead of time.
type ThemeSource interface {
	themeSource()
}

// ThemeName is a key into the bundled theme table, e.g. "dracula".
type ThemeName string

func (ThemeName) themeSource() {}

// ThemeHandle is a parsed theme. It is immutable and may be shared between
// concurrent renders.
type ThemeHandle struct {
	style *chroma.Style
}

func (*ThemeHandle) themeSource() {}

// Name returns the name declared by the theme.
func (h *ThemeHandle) Name() string {
	if h == nil || h.style == nil {
		return ""
	}
	return h.style.Name
}

// LoadTheme parses a chroma XML style definition.
func LoadTheme(data []byte) (*ThemeHandle, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("codeshot: empty theme: %w", ErrInvalidThemeAsset)
	}
	style, err := chroma.NewXMLStyle(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codeshot: parsing theme: %v: %w", err, ErrInvalidThemeAsset)
	}
	if style == nil {
		return nil, fmt.Errorf("codeshot: parsing theme: %w", ErrInvalidThemeAsset)
	}
	return &ThemeHandle{style: style}, nil
}

// LoadThemeFile reads and parses a chroma XML style from disk.
func LoadThemeFile(path string) (*ThemeHandle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codeshot: reading theme %s: %w", path, err)
	}
	return LoadTheme(data)
}

// Palette holds the colours the decoration stage needs from a theme.
type Palette struct {
	Background  color.NRGBA
	Foreground  color.NRGBA
	LineNumber  color.NRGBA
	Highlight   color.NRGBA
	WindowTitle color.NRGBA
}

var (
	white = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	black = color.NRGBA{0x00, 0x00, 0x00, 0xFF}
)

func paletteOf(style *chroma.Style) Palette {
	var p Palette
	bgEntry := style.Get(chroma.Background)
	p.Background = white
	if bgEntry.Background.IsSet() {
		p.Background = fromChroma(bgEntry.Background)
	}

	switch text := style.Get(chroma.Text); {
	case text.Colour.IsSet():
		p.Foreground = fromChroma(text.Colour)
	case bgEntry.Colour.IsSet():
		p.Foreground = fromChroma(bgEntry.Colour)
	case bgEntry.Background.IsSet() && bgEntry.Background.Brightness() < 0.5:
		p.Foreground = white
	default:
		p.Foreground = black
	}

	p.LineNumber = blend(p.Foreground, p.Background, 0.5)
	if style.Has(chroma.LineNumbers) {
		if e := style.Get(chroma.LineNumbers); e.Colour.IsSet() {
			p.LineNumber = fromChroma(e.Colour)
		}
	}

	p.Highlight = blend(p.Background, p.Foreground, 0.15)
	if style.Has(chroma.LineHighlight) {
		if e := style.Get(chroma.LineHighlight); e.Background.IsSet() {
			p.Highlight = fromChroma(e.Background)
		}
	}
	if p.Highlight == p.Background {
		p.Highlight = blend(p.Background, p.Foreground, 0.3)
	}

	p.WindowTitle = blend(p.Foreground, p.Background, 0.2)
	return p
}

// Style is the presentation of one span of highlighted text.
type Style struct {
	Foreground color.NRGBA
	Background color.NRGBA // zero when the theme sets none
	Bold       bool
	Italic     bool
	Underline  bool
}

func styleOf(style *chroma.Style, pal Palette, tt chroma.TokenType) Style {
	e := style.Get(tt)
	s := Style{
		Foreground: pal.Foreground,
		Bold:       e.Bold == chroma.Yes,
		Italic:     e.Italic == chroma.Yes,
		Underline:  e.Underline == chroma.Yes,
	}
	if e.Colour.IsSet() {
		s.Foreground = fromChroma(e.Colour)
	}
	if e.Background.IsSet() {
		if bg := fromChroma(e.Background); bg != pal.Background {
			s.Background = bg
		}
	}
	return s
}
