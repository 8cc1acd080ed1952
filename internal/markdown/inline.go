package markdown

import (
	"regexp"
	"strings"
)

var (
	protectedPattern = regexp.MustCompile("(?s)```.*?```|<pre[\\s>].*?</pre>")

	boldPattern       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*([^\s*](?:.*?[^\s*])?)\*`)
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// outsideProtected applies fn to every part of text that is neither an
// unrendered fenced block nor an emitted <pre> block.
func outsideProtected(text string, fn func(string) string) string {
	locs := protectedPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return fn(text)
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		b.WriteString(fn(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(text[last:]))
	return b.String()
}

func replaceBold(text string) string {
	return boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
}

func replaceItalic(text string) string {
	return italicPattern.ReplaceAllString(text, "<em>$1</em>")
}

func replaceInlineCode(text string) string {
	return inlineCodePattern.ReplaceAllString(text, "<code>$1</code>")
}

// replaceLinks rewrites [text](href) but leaves ![alt](src) for the image rule.
func replaceLinks(text string) string {
	matches := linkPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] > 0 && text[m[0]-1] == '!' {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(`<a href="`)
		b.WriteString(text[m[4]:m[5]])
		b.WriteString(`">`)
		b.WriteString(text[m[2]:m[3]])
		b.WriteString(`</a>`)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func replaceImages(text string) string {
	return imagePattern.ReplaceAllString(text, `<img src="$2" alt="$1">`)
}

// parseInline re-applies emphasis, inline code and links inside block
// content such as headings and list items.
func parseInline(text string) string {
	text = replaceBold(text)
	text = replaceItalic(text)
	text = replaceInlineCode(text)
	return replaceLinks(text)
}
