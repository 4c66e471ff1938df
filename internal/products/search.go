package products

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter returns the products whose name contains term, ignoring case.
// The result is always derived from list, never from a previous result.
func Filter(list []Product, term string) []Product {
	lower := cases.Lower(language.Und)
	needle := lower.String(term)
	out := make([]Product, 0, len(list))
	for _, p := range list {
		if strings.Contains(lower.String(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}
