package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// DefaultCacheSize is used when Options.CacheSize is zero.
const DefaultCacheSize = 128

var (
	// DefaultExtensions lists the file extensions handled by default.
	DefaultExtensions = []string{".md", ".markdown"}
	// DefaultInclude matches the ids transformed by default.
	DefaultInclude = []string{`\.md$`}
	// DefaultExclude matches the ids skipped by default.
	DefaultExclude = []string{`node_modules`}
)

// Options configures a Transformer. Empty slices select the defaults; a
// negative CacheSize disables the render cache.
type Options struct {
	Extensions []string
	Include    []string
	Exclude    []string
	CacheSize  int

	// Async renders through RenderAsync when the renderer supports it.
	Async bool
	// HeadingIDs writes outline anchors back into the HTML as id attributes.
	HeadingIDs bool

	Logger interfaces.Logger
}

type filters struct {
	extensions []string
	include    []*regexp.Regexp
	exclude    []*regexp.Regexp
}

func compileFilters(opts Options) (filters, error) {
	f := filters{extensions: normalizeExtensions(opts.Extensions)}

	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	exclude := opts.Exclude
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}

	var err error
	if f.include, err = compilePatterns(include); err != nil {
		return filters{}, fmt.Errorf("transform: include: %w", err)
	}
	if f.exclude, err = compilePatterns(exclude); err != nil {
		return filters{}, fmt.Errorf("transform: exclude: %w", err)
	}
	return f, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// matches reports whether id passes the include, exclude and extension
// filters, checked in that order.
func (f filters) matches(id string) bool {
	if !anyMatch(f.include, id) {
		return false
	}
	if anyMatch(f.exclude, id) {
		return false
	}
	return f.hasExtension(id)
}

func (f filters) hasExtension(id string) bool {
	lower := strings.ToLower(id)
	for _, ext := range f.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func anyMatch(patterns []*regexp.Regexp, id string) bool {
	for _, re := range patterns {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}
