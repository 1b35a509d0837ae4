// Package query owns the analysis query: the user-adjustable filter, sort,
// and date-range parameters, their canonical request body, and the engine
// that fetches the filtered dataset.
package query

import (
	"fmt"
	"sort"
	"strconv"

	"stocktracker/pkg/stocktracker"
)

// DefaultPeriods is the initial set of price-change lookback periods.
var DefaultPeriods = []int{1, 5, 10, 15, 20, 30}

// DefaultSortBy and DefaultSortOrder are the initial sort.
const (
	DefaultSortBy    = "market_cap"
	DefaultSortOrder = "desc"
)

// fixedSortFields are the sort keys always available, independent of the
// active change periods.
var fixedSortFields = []string{"market_cap", "company_name", "sector", "latest_price"}

// Params is the complete set of analysis query parameters. ChangePeriods is
// always sorted ascending and de-duplicated; use the mutators to preserve
// the invariants.
type Params struct {
	StartDate     string
	EndDate       string
	ChangePeriods []int
	MarketCapMin  *float64
	MarketCapMax  *float64
	Sector        string
	SortBy        string
	SortOrder     string
}

// Default returns the parameters used on the first fetch: the full
// availability window, all default periods, sorted by market cap descending,
// no filters.
func Default(window stocktracker.Availability) Params {
	periods := make([]int, len(DefaultPeriods))
	copy(periods, DefaultPeriods)
	return Params{
		StartDate:     window.StartDate,
		EndDate:       window.EndDate,
		ChangePeriods: periods,
		SortBy:        DefaultSortBy,
		SortOrder:     DefaultSortOrder,
	}
}

// Clone returns a deep copy of the parameters.
func (p Params) Clone() Params {
	out := p
	out.ChangePeriods = make([]int, len(p.ChangePeriods))
	copy(out.ChangePeriods, p.ChangePeriods)
	if p.MarketCapMin != nil {
		v := *p.MarketCapMin
		out.MarketCapMin = &v
	}
	if p.MarketCapMax != nil {
		v := *p.MarketCapMax
		out.MarketCapMax = &v
	}
	return out
}

// TogglePeriod adds the period if absent and removes it if present,
// keeping ChangePeriods strictly increasing and unique. Non-positive
// periods are ignored. If the removed period's change column was the active
// sort key, the sort falls back to market cap.
func (p *Params) TogglePeriod(period int) {
	if period <= 0 {
		return
	}
	for i, existing := range p.ChangePeriods {
		if existing == period {
			p.ChangePeriods = append(p.ChangePeriods[:i], p.ChangePeriods[i+1:]...)
			if p.SortBy == stocktracker.ChangeKey(period) {
				p.SortBy = DefaultSortBy
			}
			return
		}
	}
	p.ChangePeriods = append(p.ChangePeriods, period)
	p.normalizePeriods()
}

func (p *Params) normalizePeriods() {
	sort.Ints(p.ChangePeriods)
	out := p.ChangePeriods[:0]
	for i, v := range p.ChangePeriods {
		if v <= 0 {
			continue
		}
		if i > 0 && v == p.ChangePeriods[i-1] {
			continue
		}
		out = append(out, v)
	}
	p.ChangePeriods = out
}

// SetMarketCapRange parses the min/max filter inputs. An empty string means
// "no bound" and omits the field from the request body. An unparsable value
// returns a ValidationError and leaves the parameters unchanged.
func (p *Params) SetMarketCapRange(minStr, maxStr string) error {
	parse := func(field, s string) (*float64, error) {
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a number", s)}
		}
		return &v, nil
	}

	minVal, err := parse("market_cap_min", minStr)
	if err != nil {
		return err
	}
	maxVal, err := parse("market_cap_max", maxStr)
	if err != nil {
		return err
	}
	p.MarketCapMin = minVal
	p.MarketCapMax = maxVal
	return nil
}

// SetDateRange sets the analysis window, clamping both ends into the
// availability window. Date strings are compared lexically (ISO dates).
func (p *Params) SetDateRange(start, end string, window stocktracker.Availability) {
	p.StartDate = clampDate(start, window)
	p.EndDate = clampDate(end, window)
}

func clampDate(d string, window stocktracker.Availability) string {
	if d == "" || d < window.StartDate {
		return window.StartDate
	}
	if d > window.EndDate {
		return window.EndDate
	}
	return d
}

// SetSort sets the sort key and order. Keys outside SortOptions and orders
// other than asc/desc are ignored.
func (p *Params) SetSort(by, order string) {
	for _, opt := range p.SortOptions() {
		if by == opt {
			p.SortBy = by
			break
		}
	}
	if order == "asc" || order == "desc" {
		p.SortOrder = order
	}
}

// SortOptions returns the valid sort keys for the current parameter set:
// the fixed fields plus one change column per active period.
func (p Params) SortOptions() []string {
	opts := make([]string, 0, len(fixedSortFields)+len(p.ChangePeriods))
	opts = append(opts, fixedSortFields...)
	for _, period := range p.ChangePeriods {
		opts = append(opts, stocktracker.ChangeKey(period))
	}
	return opts
}

// Body derives the canonical analysis request. Identical parameters always
// produce an identical serialized body; the optional filters are present
// only when set.
func (p Params) Body() stocktracker.AnalysisRequest {
	req := stocktracker.AnalysisRequest{
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		ChangePeriods: make([]int, len(p.ChangePeriods)),
		SortBy:        p.SortBy,
		SortOrder:     p.SortOrder,
		Sector:        p.Sector,
	}
	copy(req.ChangePeriods, p.ChangePeriods)
	if p.MarketCapMin != nil {
		v := *p.MarketCapMin
		req.MarketCapMin = &v
	}
	if p.MarketCapMax != nil {
		v := *p.MarketCapMax
		req.MarketCapMax = &v
	}
	return req
}

// ValidationError reports malformed local filter input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
