package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ValidateSelector reports whether selector is a CSS selector cascadia can
// compile.
func ValidateSelector(selector string) error {
	if _, err := cascadia.Parse(selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return nil
}

// OptionValues returns the value attribute of every element matching
// selector, in document order. Values are returned verbatim so they match
// their own input again; blank values are skipped.
func OptionValues(rawHTML, selector string) ([]string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	var values []string
	for _, node := range cascadia.QueryAll(doc, sel) {
		for _, attr := range node.Attr {
			if attr.Key != "value" {
				continue
			}
			if strings.TrimSpace(attr.Val) != "" {
				values = append(values, attr.Val)
			}
			break
		}
	}
	return values, nil
}

// OuterHTML returns the concatenated outer HTML of all elements matching
// selector, or "" when nothing matches.
func OuterHTML(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, node := range cascadia.QueryAll(doc, sel) {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// CleanLabel collapses runs of whitespace in scraped text.
func CleanLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
