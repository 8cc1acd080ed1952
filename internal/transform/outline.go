package transform

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// outline collects the headings of an HTML fragment. Existing id attributes
// are used as anchors; other headings get a slug of their text, made unique
// within the document. With writeIDs the anchors are added to the markup and
// the re-serialised fragment is returned.
func outline(html string, writeIDs bool) ([]interfaces.Heading, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("transform: parse html: %w", err)
	}

	var headings []interfaces.Heading
	seen := map[string]int{}
	changed := false

	doc.Find(headingSelector).Each(func(_ int, sel *goquery.Selection) {
		name := goquery.NodeName(sel)
		text := strings.TrimSpace(sel.Text())

		anchor, ok := sel.Attr("id")
		if !ok || strings.TrimSpace(anchor) == "" {
			anchor = uniqueAnchor(seen, anchorFor(text))
			if writeIDs {
				sel.SetAttr("id", anchor)
				changed = true
			}
		} else {
			seen[anchor]++
		}

		headings = append(headings, interfaces.Heading{
			Level:  int(name[1] - '0'),
			Text:   text,
			Anchor: anchor,
		})
	})

	if !changed {
		return headings, html, nil
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return nil, "", fmt.Errorf("transform: serialise html: %w", err)
	}
	return headings, out, nil
}

func anchorFor(text string) string {
	normalized, err := slug.Normalize(text)
	if err != nil || normalized == "" {
		return "section"
	}
	return normalized
}

func uniqueAnchor(seen map[string]int, anchor string) string {
	count := seen[anchor]
	seen[anchor] = count + 1
	if count == 0 {
		return anchor
	}
	return fmt.Sprintf("%s-%d", anchor, count)
}
