// Package search resolves a free-text query against the currently loaded
// datasets. Resolution is local and synchronous; no network call is made.
package search

import (
	"strings"

	"stocktracker/pkg/stocktracker"
)

// Resolve matches the query case-insensitively against ticker and
// company-name substrings over the given datasets in order, returning the
// first match. The union is iterated in the order the datasets are passed
// (gainers, losers, analysis results by convention).
func Resolve(query string, datasets ...[]stocktracker.Stock) (stocktracker.Stock, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return stocktracker.Stock{}, false
	}
	for _, set := range datasets {
		for _, s := range set {
			if strings.Contains(strings.ToLower(s.Ticker), q) ||
				strings.Contains(strings.ToLower(s.CompanyName), q) {
				return s, true
			}
		}
	}
	return stocktracker.Stock{}, false
}
