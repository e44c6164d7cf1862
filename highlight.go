package codeshot

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
)

// Span is a run of text drawn in one style.
type Span struct {
	Style Style
	Text  string
}

// Line is the spans of one source line in document order. Line endings are
// never part of the span text.
type Line []Span

// Text returns the line's characters without styling.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text)
	}
	return b.String()
}

// SplitLines splits code after each line ending. A trailing line without an
// ending still counts; the empty string has no lines.
func SplitLines(code string) []string {
	var lines []string
	for code != "" {
		i := strings.IndexByte(code, '\n')
		if i < 0 {
			lines = append(lines, code)
			break
		}
		lines = append(lines, code[:i+1])
		code = code[i+1:]
	}
	return lines
}

func trimEnding(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// Highlight tokenises code with lexer and styles every token with theme.
// The result has exactly one Line per line of code.
func Highlight(code string, lexer chroma.Lexer, theme *ThemeHandle) ([]Line, error) {
	src := SplitLines(code)
	if len(src) == 0 {
		return nil, nil
	}
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, fmt.Errorf("codeshot: tokenising: %w", err)
	}
	pal := paletteOf(theme.style)
	tokenLines := chroma.SplitTokensIntoLines(it.Tokens())

	out := make([]Line, len(src))
	for i := range out {
		if i >= len(tokenLines) {
			// The lexer dropped trailing content; keep it unstyled.
			if text := trimEnding(src[i]); text != "" {
				out[i] = Line{{Style: Style{Foreground: pal.Foreground}, Text: text}}
			}
			continue
		}
		for _, tok := range tokenLines[i] {
			text := strings.ReplaceAll(trimEnding(tok.Value), "\r", "")
			if text == "" {
				continue
			}
			out[i] = append(out[i], Span{Style: styleOf(theme.style, pal, tok.Type), Text: text})
		}
	}
	return out, nil
}
