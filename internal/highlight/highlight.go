// Package highlight turns fenced code into themed HTML.
package highlight

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownTheme is returned when a configured theme does not exist.
	ErrUnknownTheme = errors.New("highlight: unknown theme")
	// ErrUnknownLanguage is returned for languages without a loaded grammar.
	ErrUnknownLanguage = errors.New("highlight: unknown language")
)

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "github-dark"

// DefaultLangs are the grammars loaded when none are configured.
var DefaultLangs = []string{"javascript", "typescript", "css", "html", "json", "markdown", "bash"}

// Highlighter renders code for a language using a theme.
type Highlighter interface {
	CodeToHTML(code, lang, theme string) (string, error)
}

// Factory builds a Highlighter from a theme configuration.
type Factory func(cfg ThemeConfig) (Highlighter, error)

// ThemeConfig selects the loaded themes and grammars and the theme used
// when rendering.
type ThemeConfig struct {
	Themes []string
	Langs  []string
	Theme  string
}

// WithDefaults fills empty fields with DefaultTheme and DefaultLangs.
func (c ThemeConfig) WithDefaults() ThemeConfig {
	out := ThemeConfig{
		Themes: normalizeNames(c.Themes),
		Langs:  normalizeNames(c.Langs),
		Theme:  strings.ToLower(strings.TrimSpace(c.Theme)),
	}
	if len(out.Themes) == 0 {
		out.Themes = []string{DefaultTheme}
	}
	if len(out.Langs) == 0 {
		out.Langs = append([]string(nil), DefaultLangs...)
	}
	if out.Theme == "" {
		out.Theme = out.Themes[0]
	}
	return out
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five HTML special characters.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
