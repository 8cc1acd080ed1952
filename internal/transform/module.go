package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// Module is the result of transforming one markdown file.
type Module struct {
	ID   string
	HTML string
	Meta interfaces.TransformMeta
	// Code is the JavaScript module exporting HTML as its default export and,
	// when present, the metadata as the named export meta.
	Code string
	// Cached reports whether the HTML came from the render cache.
	Cached bool
}

// HasMeta reports whether the module carries frontmatter or headings.
func (m *Module) HasMeta() bool {
	return m != nil && (len(m.Meta.FrontMatter) > 0 || len(m.Meta.Headings) > 0)
}

func buildModuleCode(html string, meta interfaces.TransformMeta) (string, error) {
	encoded, err := json.Marshal(html)
	if err != nil {
		return "", fmt.Errorf("transform: encode html: %w", err)
	}

	var b strings.Builder
	b.WriteString("export default ")
	b.Write(encoded)
	b.WriteString(";\n")

	if len(meta.FrontMatter) > 0 || len(meta.Headings) > 0 {
		encodedMeta, err := json.Marshal(meta)
		if err != nil {
			return "", fmt.Errorf("transform: encode meta: %w", err)
		}
		b.WriteString("export const meta = ")
		b.Write(encodedMeta)
		b.WriteString(";\n")
	}
	return b.String(), nil
}
