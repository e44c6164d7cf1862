package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/arran4/codeshot"
)

const defaultTheme = "dracula"

func main() {
	in := flag.String("in", "", "Input source file (default: stdin if empty)")
	out := flag.String("out", "out.png", "Output file (.png, or .rgba for raw RGBA8 pixels)")
	lang := flag.String("lang", "", "Language alias, name or extension (default: from the input file extension)")
	theme := flag.String("theme", "", "Bundled theme name (default "+defaultTheme+")")
	themeFile := flag.String("theme-file", "", "Path to a chroma XML style, overrides -theme")
	fonts := flag.String("font", "", `Font fallback list, e.g. "Hack=26;Go Mono=26"`)
	linePad := flag.Int("line-pad", codeshot.DefaultLinePad, "Extra pixels between lines")
	noLineNumber := flag.Bool("no-line-number", false, "Hide line numbers")
	highlight := flag.String("highlight-lines", "", `Lines to highlight, e.g. "1;3-5"`)
	noControls := flag.Bool("no-window-controls", false, "Hide the window title bar")
	title := flag.String("window-title", "", "Title shown in the window bar")
	noRound := flag.Bool("no-round-corner", false, "Keep square corners")
	shadow := flag.Bool("shadow", false, "Add a drop shadow (implied by any shadow flag)")
	shadowColor := flag.String("shadow-color", "", "Shadow colour, #rrggbb[aa] (default #00000080)")
	background := flag.String("background", "", "Colour behind the shadow (default transparent)")
	blur := flag.Float64("shadow-blur-radius", codeshot.DefaultBlurRadius, "Shadow blur radius in pixels")
	padHoriz := flag.Int("pad-horiz", 0, "Horizontal shadow padding (default 80)")
	padVert := flag.Int("pad-vert", 0, "Vertical shadow padding (default 100)")
	offX := flag.Int("shadow-offset-x", 0, "Horizontal shadow offset")
	offY := flag.Int("shadow-offset-y", 0, "Vertical shadow offset")
	tabWidth := flag.Int("tab-width", codeshot.DefaultTabWidth, "Columns per tab stop")
	lineOffset := flag.Int("line-offset", codeshot.DefaultLineOffset, "Number of the first line")
	mdBlock := flag.Int("markdown-block", 0, "Treat the input as Markdown and render its N-th code block")
	configPath := flag.String("config", "", "TOML or YAML file with default options; flags override it")
	systemFonts := flag.Bool("system-fonts", false, "Also look up installed fonts")
	listThemes := flag.Bool("list-themes", false, "Print the bundled theme names and exit")
	listLanguages := flag.Bool("list-languages", false, "Print the accepted language tokens and exit")
	verbose := flag.Bool("v", false, "Log debug output to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	registry := codeshot.DefaultRegistry()
	if *listThemes {
		fmt.Println(strings.Join(registry.Themes(), "\n"))
		return
	}
	if *listLanguages {
		fmt.Println(strings.Join(registry.Languages(), "\n"))
		return
	}

	format, err := codeshot.FormatForPath(*out)
	if err != nil {
		fatal(err)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	fc := &codeshot.FileConfig{}
	if *configPath != "" {
		if fc, err = codeshot.LoadConfigFile(*configPath); err != nil {
			fatal(err)
		}
	}
	base, err := fc.ImageOptions()
	if err != nil {
		fatal(err)
	}

	var data []byte
	if *in == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*in)
	}
	if err != nil {
		fatal(err)
	}

	code := string(data)
	language := fc.Language
	if *mdBlock > 0 {
		block, err := codeshot.CodeBlockAt(data, *mdBlock)
		if err != nil {
			fatal(err)
		}
		code = block.Code
		if language == "" {
			language = block.Language
		}
	}
	if *lang != "" {
		language = *lang
	}
	if language == "" && *in != "" {
		language = strings.TrimPrefix(filepath.Ext(*in), ".")
	}
	if language == "" {
		fatal(errors.New("no language given and none could be guessed; use -lang"))
	}

	var src codeshot.ThemeSource = codeshot.ThemeName(defaultTheme)
	switch {
	case *themeFile != "":
		if src, err = codeshot.LoadThemeFile(*themeFile); err != nil {
			fatal(err)
		}
	case *theme != "":
		src = codeshot.ThemeName(*theme)
	case fc.ThemeFile != "":
		if src, err = codeshot.LoadThemeFile(fc.ThemeFile); err != nil {
			fatal(err)
		}
	case fc.Theme != "":
		src = codeshot.ThemeName(fc.Theme)
	}

	over := &codeshot.ImageOptions{}
	if set["font"] {
		if over.Fonts, err = codeshot.ParseFontList(*fonts); err != nil {
			fatal(err)
		}
	}
	if set["highlight-lines"] {
		if over.HighlightLines, err = codeshot.ParseLineRanges(*highlight); err != nil {
			fatal(err)
		}
	}
	if set["line-pad"] {
		over.LinePad = linePad
	}
	if set["no-line-number"] {
		over.LineNumber = codeshot.Ptr(!*noLineNumber)
	}
	if set["no-window-controls"] {
		over.WindowControls = codeshot.Ptr(!*noControls)
	}
	if set["window-title"] {
		over.WindowTitle = title
	}
	if set["no-round-corner"] {
		over.RoundCorner = codeshot.Ptr(!*noRound)
	}
	if set["tab-width"] {
		over.TabWidth = tabWidth
	}
	if set["line-offset"] {
		over.LineOffset = lineOffset
	}

	so := &codeshot.ShadowOptions{}
	wantShadow := *shadow
	if set["shadow-color"] {
		c, err := codeshot.ParseColor(*shadowColor)
		if err != nil {
			fatal(err)
		}
		so.Color, wantShadow = &c, true
	}
	if set["background"] {
		c, err := codeshot.ParseColor(*background)
		if err != nil {
			fatal(err)
		}
		so.Background, wantShadow = codeshot.Solid{Color: c}, true
	}
	if set["shadow-blur-radius"] {
		so.BlurRadius, wantShadow = blur, true
	}
	if set["pad-horiz"] {
		so.PadHoriz, wantShadow = padHoriz, true
	}
	if set["pad-vert"] {
		so.PadVert, wantShadow = padVert, true
	}
	if set["shadow-offset-x"] {
		so.OffsetX, wantShadow = offX, true
	}
	if set["shadow-offset-y"] {
		so.OffsetY, wantShadow = offY, true
	}
	if wantShadow {
		over.Shadow = so
	}

	var fontOpts []codeshot.FontOption
	fontOpts = append(fontOpts, codeshot.WithFontLogger(logger))
	if *systemFonts {
		fontOpts = append(fontOpts, codeshot.WithSystemFonts(""))
	}
	r := codeshot.NewRenderer(
		codeshot.WithRegistry(registry),
		codeshot.WithFonts(codeshot.NewFontLibrary(fontOpts...)),
		codeshot.WithLogger(logger),
	)

	img, err := r.RenderRGBA8(code, codeshot.FormatRequest{
		Language: language,
		Theme:    src,
		Image:    codeshot.Merge(base, over),
	})
	if err != nil {
		fatal(err)
	}

	encoded, err := codeshot.Encode(img, format)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(*out, encoded, 0o644); err != nil {
		fatal(err)
	}
	logger.Info("wrote image", "file", *out, "width", img.Width, "height", img.Height)
}

func fatal(err error) {
	_, _ = os.Stderr.WriteString("codeshot: " + err.Error() + "\n")
	os.Exit(1)
}
