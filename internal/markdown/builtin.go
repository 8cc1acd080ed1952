package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-wmarkdown/internal/highlight"
	"github.com/goliatone/go-wmarkdown/internal/rules"
)

// Default rule names, in application order.
const (
	RuleHeaders    = "headers"
	RuleBold       = "bold"
	RuleItalic     = "italic"
	RuleCode       = "code"
	RuleCodeBlock  = "code_block"
	RuleLink       = "link"
	RuleImage      = "image"
	RuleBlockquote = "blockquote"
	RuleList       = "list"
	RuleParagraph  = "paragraph"
)

// DefaultRuleNames lists the built-in rules in the order they are installed.
var DefaultRuleNames = []string{
	RuleHeaders, RuleBold, RuleItalic, RuleCode, RuleCodeBlock,
	RuleLink, RuleImage, RuleBlockquote, RuleList, RuleParagraph,
}

var (
	headerPattern     = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+)$`)
	codeBlockPattern  = regexp.MustCompile("(?s)```(\\w+)?\\n(.+?)```")
	blockquotePattern = regexp.MustCompile(`(?m)^>[ \t]+(.+)$`)
	unorderedItem     = regexp.MustCompile(`^([ \t]*)[-*+][ \t]+(.+)$`)
	orderedItem       = regexp.MustCompile(`^([ \t]*)\d+\.[ \t]+(.+)$`)
	lineSplitter      = regexp.MustCompile(`(?m)^.+$`)
)

func (e *Engine) installDefaultRules() {
	e.rules.Add(RuleHeaders, rules.Func(headersRule))
	e.rules.Add(RuleBold, protected(replaceBold))
	e.rules.Add(RuleItalic, protected(replaceItalic))
	e.rules.Add(RuleCode, protected(replaceInlineCode))
	e.rules.Add(RuleCodeBlock, rules.Func(e.codeBlockRule))
	e.rules.Add(RuleLink, protected(replaceLinks))
	e.rules.Add(RuleImage, protected(replaceImages))
	e.rules.Add(RuleBlockquote, protected(func(text string) string {
		return blockquotePattern.ReplaceAllString(text, "<blockquote>$1</blockquote>")
	}))
	e.rules.Add(RuleList, rules.Func(listRule))
	e.rules.Add(RuleParagraph, rules.Func(paragraphRule))
}

func protected(fn func(string) string) rules.Rule {
	return rules.Func(func(text string) string {
		return outsideProtected(text, fn)
	})
}

func headersRule(text string) string {
	return outsideProtected(text, func(segment string) string {
		return headerPattern.ReplaceAllStringFunc(segment, func(line string) string {
			m := headerPattern.FindStringSubmatch(line)
			level := len(m[1])
			return fmt.Sprintf("<h%d>%s</h%d>", level, parseInline(strings.TrimSpace(m[2])), level)
		})
	})
}

func (e *Engine) codeBlockRule(text string) string {
	return codeBlockPattern.ReplaceAllStringFunc(text, func(block string) string {
		m := codeBlockPattern.FindStringSubmatch(block)
		return e.renderCodeBlock(strings.TrimSpace(m[2]), m[1])
	})
}

func (e *Engine) renderCodeBlock(code, lang string) string {
	if !e.opts.enableHighlight {
		return plainCodeBlock(code, lang)
	}

	if hook := e.opts.highlight; hook != nil {
		result := hook(code, lang)
		if result.IsDeferred() {
			return plainCodeBlock(code, lang)
		}
		return result.Text()
	}

	h := e.currentHighlighter()
	if h == nil {
		return plainCodeBlock(code, lang)
	}

	name := lang
	if name == "" {
		name = "text"
	}
	html, err := safeHighlight(h, code, name, e.opts.themes.Theme)
	if err != nil {
		e.logger.Debug("markdown.code_block.highlight_fallback", "lang", name, "error", err)
		return plainCodeBlock(code, lang)
	}
	return html
}

func safeHighlight(h highlight.Highlighter, code, lang, theme string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("markdown: highlighter panic: %v", r)
		}
	}()
	return h.CodeToHTML(code, lang, theme)
}

func plainCodeBlock(code, lang string) string {
	if lang == "" {
		lang = "text"
	}
	return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, lang, highlight.EscapeHTML(code))
}

type listKind int

const (
	listNone listKind = iota
	listUnordered
	listOrdered
)

func (k listKind) open() string {
	if k == listOrdered {
		return "<ol>"
	}
	return "<ul>"
}

func (k listKind) close() string {
	if k == listOrdered {
		return "</ol>"
	}
	return "</ul>"
}

// listRule turns list items into <li> elements and wraps each run of
// consecutive items of the same kind in <ul> or <ol>.
func listRule(text string) string {
	return outsideProtected(text, func(segment string) string {
		lines := strings.Split(segment, "\n")
		out := make([]string, 0, len(lines))
		current := listNone

		for _, line := range lines {
			kind := listNone
			var m []string
			if m = unorderedItem.FindStringSubmatch(line); m != nil {
				kind = listUnordered
			} else if m = orderedItem.FindStringSubmatch(line); m != nil {
				kind = listOrdered
			}

			if kind != current && current != listNone {
				out = append(out, current.close())
			}
			if kind == listNone {
				current = listNone
				out = append(out, line)
				continue
			}
			if kind != current {
				out = append(out, kind.open())
				current = kind
			}
			out = append(out, m[1]+"<li>"+parseInline(m[2])+"</li>")
		}
		if current != listNone {
			out = append(out, current.close())
		}
		return strings.Join(out, "\n")
	})
}

// paragraphRule wraps every non-blank line that does not already start with
// markup in <p>. Blank lines are emptied.
func paragraphRule(text string) string {
	return outsideProtected(text, func(segment string) string {
		return lineSplitter.ReplaceAllStringFunc(segment, func(line string) string {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				return ""
			}
			if strings.HasPrefix(trimmed, "<") {
				return line
			}
			return "<p>" + line + "</p>"
		})
	})
}
