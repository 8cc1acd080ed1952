package interfaces

import "context"

// MarkdownRenderer converts markdown text into an HTML fragment. Render may
// suspend (highlighter construction, deferred rules); it only fails when a
// shared resource cannot be built or the context ends.
type MarkdownRenderer interface {
	Render(ctx context.Context, markdown string) (string, error)
}

// AsyncMarkdownRenderer is implemented by renderers exposing the explicitly
// asynchronous entry point.
type AsyncMarkdownRenderer interface {
	MarkdownRenderer
	RenderAsync(ctx context.Context, markdown string) <-chan RenderResult
}

// RenderResult carries the outcome of an asynchronous render.
type RenderResult struct {
	HTML string
	Err  error
}

// ParseOptions customises the goldmark-backed CommonMark plugin.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// TransformMeta is the metadata attached to a transformed markdown module.
type TransformMeta struct {
	FrontMatter map[string]any `json:"frontmatter,omitempty"`
	Headings    []Heading      `json:"headings,omitempty"`
}

// Heading is a single entry of a rendered document outline.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}
