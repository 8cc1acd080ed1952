package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var plainTextAliases = map[string]struct{}{
	"":          {},
	"text":      {},
	"txt":       {},
	"plain":     {},
	"plaintext": {},
}

// Chroma is a Highlighter backed by github.com/alecthomas/chroma. Grammars
// and styles are resolved once at construction; CodeToHTML only reads them
// and is safe for concurrent use.
type Chroma struct {
	lexers       map[string]chroma.Lexer
	styles       map[string]*chroma.Style
	defaultTheme string
}

var _ Highlighter = (*Chroma)(nil)

// NewChroma loads the configured themes and grammars.
func NewChroma(cfg ThemeConfig) (Highlighter, error) {
	cfg = cfg.WithDefaults()

	h := &Chroma{
		lexers:       make(map[string]chroma.Lexer, len(cfg.Langs)),
		styles:       make(map[string]*chroma.Style, len(cfg.Themes)),
		defaultTheme: cfg.Theme,
	}

	for _, name := range cfg.Themes {
		style, ok := styles.Registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, name)
		}
		h.styles[name] = style
	}
	if _, ok := h.styles[cfg.Theme]; !ok {
		return nil, fmt.Errorf("%w: %s is not loaded", ErrUnknownTheme, cfg.Theme)
	}

	for _, name := range cfg.Langs {
		lexer := lexers.Get(name)
		if lexer == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
		}
		h.lexers[name] = chroma.Coalesce(lexer)
	}

	// Fence tags usually use short names (js, sh, md), so every loaded
	// grammar also answers to its aliases. Configured names take precedence.
	for _, name := range cfg.Langs {
		lexer := h.lexers[name]
		config := lexer.Config()
		if config == nil {
			continue
		}
		for _, alias := range append([]string{config.Name}, config.Aliases...) {
			key := strings.ToLower(strings.TrimSpace(alias))
			if _, taken := h.lexers[key]; key == "" || taken {
				continue
			}
			h.lexers[key] = lexer
		}
	}

	return h, nil
}

// CodeToHTML renders code with the grammar for lang. Languages not loaded at
// construction fail with ErrUnknownLanguage; plain-text aliases always work.
func (h *Chroma) CodeToHTML(code, lang, theme string) (string, error) {
	lexer, err := h.lexer(lang)
	if err != nil {
		return "", err
	}

	themeName := strings.ToLower(strings.TrimSpace(theme))
	if themeName == "" {
		themeName = h.defaultTheme
	}
	style, ok := h.styles[themeName]
	if !ok {
		return "", fmt.Errorf("%w: %s is not loaded", ErrUnknownTheme, themeName)
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("highlight: tokenise %s: %w", lang, err)
	}

	formatter := chromahtml.New(
		chromahtml.WithClasses(false),
		chromahtml.WithPreWrapper(preWrapper{theme: themeName}),
	)

	var out strings.Builder
	if err := formatter.Format(&out, style, iterator); err != nil {
		return "", fmt.Errorf("highlight: format %s: %w", lang, err)
	}
	return out.String(), nil
}

func (h *Chroma) lexer(lang string) (chroma.Lexer, error) {
	key := strings.ToLower(strings.TrimSpace(lang))
	if lexer, ok := h.lexers[key]; ok {
		return lexer, nil
	}
	if _, ok := plainTextAliases[key]; ok {
		return lexers.Fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
}

type preWrapper struct {
	theme string
}

func (w preWrapper) Start(code bool, styleAttr string) string {
	if !code {
		return fmt.Sprintf(`<pre class="chroma %s"%s>`, w.theme, styleAttr)
	}
	return fmt.Sprintf(`<pre class="chroma %s"%s><code>`, w.theme, styleAttr)
}

func (w preWrapper) End(code bool) string {
	if !code {
		return "</pre>"
	}
	return "</code></pre>"
}
