package transform

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// splitFrontMatter strips a YAML or TOML frontmatter block from source.
// Documents without frontmatter are returned unchanged with nil metadata. On
// a parse error the unchanged source is returned along with the error.
func splitFrontMatter(source string) (map[string]any, string, error) {
	source = strings.TrimPrefix(source, "\ufeff")
	if !hasFrontMatter(source) {
		return nil, source, nil
	}

	var raw map[string]any
	body, err := frontmatter.Parse(strings.NewReader(source), &raw)
	if err != nil {
		return nil, source, fmt.Errorf("transform: parse frontmatter: %w", err)
	}

	body = bytes.TrimLeft(body, "\r\n")
	if len(raw) == 0 {
		return nil, string(body), nil
	}

	meta := make(map[string]any, len(raw))
	for key, value := range raw {
		meta[key] = normalizeValue(value)
	}
	return meta, string(body), nil
}

// hasFrontMatter reports whether the first line is exactly a "---" or "+++"
// delimiter.
func hasFrontMatter(source string) bool {
	first, _, _ := strings.Cut(source, "\n")
	first = strings.TrimRight(first, " \t\r")
	return first == "---" || first == "+++"
}

// normalizeValue converts YAML maps keyed by interface{} into string keyed
// maps so metadata can be encoded as JSON.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
