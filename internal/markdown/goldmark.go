package markdown

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-wmarkdown/internal/plugins"
	"github.com/goliatone/go-wmarkdown/internal/rules"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

const (
	// CommonMarkPluginName is the name of the goldmark-backed plugin.
	CommonMarkPluginName = "commonmark"
	// RuleCommonMark is the rule installed by the CommonMark plugin.
	RuleCommonMark = "commonmark"
)

// CommonMarkPlugin swaps the regex rules for a single rule rendering through
// goldmark. Rules added after installation still run on goldmark's output.
func CommonMarkPlugin(opts interfaces.ParseOptions) plugins.Plugin {
	md := newGoldmarkEngine(opts)
	return plugins.New(CommonMarkPluginName, func(host plugins.Host) {
		for _, name := range DefaultRuleNames {
			host.RemoveRule(name)
		}
		host.AddRule(RuleCommonMark, goldmarkRule{md: md})
	})
}

type goldmarkRule struct {
	md goldmark.Markdown
}

func (r goldmarkRule) Apply(_ context.Context, text string) rules.Result {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return rules.Failed(fmt.Errorf("markdown: goldmark convert: %w", err))
	}
	return rules.Resolved(buf.String())
}

func newGoldmarkEngine(opts interfaces.ParseOptions) goldmark.Markdown {
	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode && !opts.Sanitize {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parserOptions...),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	if exts := collectExtensions(opts.Extensions); len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}

	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// collectExtensions maps extension names onto goldmark extenders. Unknown
// names are ignored; an empty list selects GFM, linkify and task lists.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}
