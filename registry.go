package codeshot

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Registry is the read-only table of languages and themes a Renderer looks
// keys up in. A Registry is never mutated after construction, so it can be
// shared by any number of goroutines without locking.
type Registry struct {
	byAlias map[string]chroma.Lexer
	byName  map[string]chroma.Lexer
	byExt   map[string]chroma.Lexer
	themes  map[string]*ThemeHandle
}

// NewRegistry indexes chroma's bundled lexers and styles.
func NewRegistry() *Registry {
	r := &Registry{
		byAlias: make(map[string]chroma.Lexer),
		byName:  make(map[string]chroma.Lexer),
		byExt:   make(map[string]chroma.Lexer),
		themes:  make(map[string]*ThemeHandle, len(styles.Registry)),
	}
	for _, l := range lexers.GlobalLexerRegistry.Lexers {
		r.addLexer(l)
	}
	for name, style := range styles.Registry {
		r.themes[name] = &ThemeHandle{style: style}
	}
	return r
}

func (r *Registry) addLexer(l chroma.Lexer) {
	cfg := l.Config()
	if cfg == nil {
		return
	}
	l = chroma.Coalesce(l)
	put := func(m map[string]chroma.Lexer, key string) {
		if key == "" {
			return
		}
		if _, ok := m[key]; !ok {
			m[key] = l
		}
	}
	put(r.byName, cfg.Name)
	for _, alias := range cfg.Aliases {
		put(r.byAlias, alias)
	}
	for _, glob := range cfg.Filenames {
		ext, ok := strings.CutPrefix(glob, "*.")
		if !ok || strings.ContainsAny(ext, "*?[]{}") {
			continue
		}
		put(r.byExt, ext)
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns a process-wide Registry built on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Lexer finds the syntax definition for a language token. The token must
// match an alias, a name or a file extension exactly.
func (r *Registry) Lexer(token string) (chroma.Lexer, error) {
	if l, ok := r.byAlias[token]; ok {
		return l, nil
	}
	if l, ok := r.byName[token]; ok {
		return l, nil
	}
	if l, ok := r.byExt[token]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("codeshot: language %q: %w", token, ErrUnknownLanguage)
}

// Theme resolves a ThemeSource. Handles are returned as-is.
func (r *Registry) Theme(src ThemeSource) (*ThemeHandle, error) {
	switch t := src.(type) {
	case ThemeName:
		if h, ok := r.themes[string(t)]; ok {
			return h, nil
		}
		return nil, fmt.Errorf("codeshot: theme %q: %w", string(t), ErrUnknownTheme)
	case *ThemeHandle:
		if t == nil || t.style == nil {
			return nil, fmt.Errorf("codeshot: nil theme handle: %w", ErrUnknownTheme)
		}
		return t, nil
	case nil:
		return nil, fmt.Errorf("codeshot: no theme given: %w", ErrUnknownTheme)
	default:
		return nil, fmt.Errorf("codeshot: theme source %T: %w", src, ErrUnknownTheme)
	}
}

// WithTheme returns a copy of r where name also resolves to h.
func (r *Registry) WithTheme(name string, h *ThemeHandle) *Registry {
	out := *r
	out.themes = maps.Clone(r.themes)
	out.themes[name] = h
	return &out
}

// Languages lists every key Lexer accepts.
func (r *Registry) Languages() []string {
	keys := make(map[string]struct{}, len(r.byAlias)+len(r.byName)+len(r.byExt))
	for _, m := range []map[string]chroma.Lexer{r.byAlias, r.byName, r.byExt} {
		for k := range m {
			keys[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(keys))
}

// Themes lists the theme names.
func (r *Registry) Themes() []string {
	return slices.Sorted(maps.Keys(r.themes))
}
