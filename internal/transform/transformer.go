package transform

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

type cacheEntry struct {
	html string
	meta interfaces.TransformMeta
}

// Transformer renders markdown files into modules.
type Transformer struct {
	renderer interfaces.MarkdownRenderer
	filters  filters
	async    bool
	ids      bool
	cache    *lru.Cache[string, cacheEntry]
	logger   interfaces.Logger
}

// New builds a Transformer around renderer.
func New(renderer interfaces.MarkdownRenderer, opts Options) (*Transformer, error) {
	if renderer == nil {
		return nil, fmt.Errorf("transform: renderer is required")
	}

	f, err := compileFilters(opts)
	if err != nil {
		return nil, err
	}

	t := &Transformer{
		renderer: renderer,
		filters:  f,
		async:    opts.Async,
		ids:      opts.HeadingIDs,
		logger:   logging.Ensure(opts.Logger),
	}

	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, cacheEntry](size)
		if err != nil {
			return nil, fmt.Errorf("transform: cache: %w", err)
		}
		t.cache = cache
	}
	return t, nil
}

// Matches reports whether id would be transformed.
func (t *Transformer) Matches(id string) bool {
	return t.filters.matches(id)
}

// ShouldReload reports whether a change to file needs a reload, which is the
// case for any file carrying a handled extension.
func (t *Transformer) ShouldReload(file string) bool {
	return t.filters.hasExtension(file)
}

// Transform renders code, the contents of the file id. It returns nil without
// error when id is filtered out. Render failures are logged and returned; a
// frontmatter block that does not parse is logged and rendered as markdown.
func (t *Transformer) Transform(ctx context.Context, code, id string) (*Module, error) {
	if !t.Matches(id) {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.WithFileContext(t.logger, id)
	key := cacheKey(code)

	if t.cache != nil {
		if entry, ok := t.cache.Get(key); ok {
			logger.Debug("transform.cache_hit")
			return t.module(id, entry, true)
		}
	}

	frontMatter, body, err := splitFrontMatter(code)
	if err != nil {
		logger.Warn("transform.frontmatter_failed", "error", err)
		frontMatter = nil
	}

	html, err := t.render(ctx, body)
	if err != nil {
		logger.Error("transform.render_failed", "error", err)
		return nil, fmt.Errorf("transform: render %s: %w", id, err)
	}

	headings, html, err := outline(html, t.ids)
	if err != nil {
		logger.Error("transform.outline_failed", "error", err)
		return nil, fmt.Errorf("transform: %s: %w", id, err)
	}

	entry := cacheEntry{
		html: html,
		meta: interfaces.TransformMeta{FrontMatter: frontMatter, Headings: headings},
	}
	if t.cache != nil {
		t.cache.Add(key, entry)
	}

	logger.Debug("transform.rendered", "headings", len(headings))
	return t.module(id, entry, false)
}

// Purge drops every cached render. Call it after changing engine rules.
func (t *Transformer) Purge() {
	if t.cache != nil {
		t.cache.Purge()
	}
}

// CacheLen returns the number of cached renders.
func (t *Transformer) CacheLen() int {
	if t.cache == nil {
		return 0
	}
	return t.cache.Len()
}

func (t *Transformer) render(ctx context.Context, body string) (string, error) {
	async, ok := t.renderer.(interfaces.AsyncMarkdownRenderer)
	if !t.async || !ok {
		return t.renderer.Render(ctx, body)
	}

	select {
	case result, ok := <-async.RenderAsync(ctx, body):
		if !ok {
			return "", fmt.Errorf("transform: async render closed without result")
		}
		return result.HTML, result.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *Transformer) module(id string, entry cacheEntry, cached bool) (*Module, error) {
	meta := interfaces.TransformMeta{
		FrontMatter: maps.Clone(entry.meta.FrontMatter),
		Headings:    slices.Clone(entry.meta.Headings),
	}
	code, err := buildModuleCode(entry.html, meta)
	if err != nil {
		return nil, err
	}
	return &Module{
		ID:     id,
		HTML:   entry.html,
		Meta:   meta,
		Code:   code,
		Cached: cached,
	}, nil
}

func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
