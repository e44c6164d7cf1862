package codeshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of a render request, read from TOML or YAML.
// Absent keys leave the defaults alone.
type FileConfig struct {
	Language  string `toml:"language" yaml:"language"`
	Theme     string `toml:"theme" yaml:"theme"`
	ThemeFile string `toml:"theme_file" yaml:"theme_file"`

	LinePad        *int        `toml:"line_pad" yaml:"line_pad"`
	LineNumber     *bool       `toml:"line_number" yaml:"line_number"`
	Fonts          []FontSpec  `toml:"fonts" yaml:"fonts"`
	HighlightLines []int       `toml:"highlight_lines" yaml:"highlight_lines"`
	WindowControls *bool       `toml:"window_controls" yaml:"window_controls"`
	WindowTitle    *string     `toml:"window_title" yaml:"window_title"`
	RoundCorner    *bool       `toml:"round_corner" yaml:"round_corner"`
	TabWidth       *int        `toml:"tab_width" yaml:"tab_width"`
	LineOffset     *int        `toml:"line_offset" yaml:"line_offset"`
	Shadow         *FileShadow `toml:"shadow" yaml:"shadow"`
}

// FileShadow is the shadow table of a FileConfig. Colours are hex strings.
type FileShadow struct {
	Background string   `toml:"background" yaml:"background"`
	Color      string   `toml:"color" yaml:"color"`
	BlurRadius *float64 `toml:"blur_radius" yaml:"blur_radius"`
	PadHoriz   *int     `toml:"pad_horiz" yaml:"pad_horiz"`
	PadVert    *int     `toml:"pad_vert" yaml:"pad_vert"`
	OffsetX    *int     `toml:"offset_x" yaml:"offset_x"`
	OffsetY    *int     `toml:"offset_y" yaml:"offset_y"`
}

// ParseConfig decodes data as TOML or YAML, chosen by ext (".toml", ".yaml",
// ".yml"). Unknown keys are errors.
func ParseConfig(data []byte, ext string) (*FileConfig, error) {
	var fc FileConfig
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return nil, fmt.Errorf("codeshot: toml config: %v: %w", err, ErrInvalidOption)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("codeshot: yaml config: %v: %w", err, ErrInvalidOption)
		}
	default:
		return nil, fmt.Errorf("codeshot: config format %q: %w", ext, ErrInvalidOption)
	}
	return &fc, nil
}

// LoadConfigFile reads a TOML or YAML config file.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codeshot: reading config: %w", err)
	}
	return ParseConfig(data, filepath.Ext(path))
}

// ImageOptions converts the image keys of fc.
func (fc *FileConfig) ImageOptions() (*ImageOptions, error) {
	o := &ImageOptions{
		LinePad:        fc.LinePad,
		LineNumber:     fc.LineNumber,
		Fonts:          fc.Fonts,
		HighlightLines: fc.HighlightLines,
		WindowControls: fc.WindowControls,
		WindowTitle:    fc.WindowTitle,
		RoundCorner:    fc.RoundCorner,
		TabWidth:       fc.TabWidth,
		LineOffset:     fc.LineOffset,
	}
	if fc.Shadow != nil {
		s := fc.Shadow
		so := &ShadowOptions{
			BlurRadius: s.BlurRadius,
			PadHoriz:   s.PadHoriz,
			PadVert:    s.PadVert,
			OffsetX:    s.OffsetX,
			OffsetY:    s.OffsetY,
		}
		if s.Color != "" {
			c, err := ParseColor(s.Color)
			if err != nil {
				return nil, err
			}
			so.Color = &c
		}
		if s.Background != "" {
			c, err := ParseColor(s.Background)
			if err != nil {
				return nil, err
			}
			so.Background = Solid{Color: c}
		}
		o.Shadow = so
	}
	return o, nil
}
