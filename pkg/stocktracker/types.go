// Package stocktracker provides a Go client SDK for the stock-market
// analysis API. All calls are plain HTTP JSON; authenticated endpoints
// attach the bearer credential held by the Client.
package stocktracker

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// ChangeKey returns the JSON key carrying the percent change over the given
// lookback period, e.g. ChangeKey(5) == "5D_change_%".
func ChangeKey(period int) string {
	return fmt.Sprintf("%dD_change_%%", period)
}

var changeKeyRe = regexp.MustCompile(`^(\d+)D_change_%$`)

// Stock is a single analyzed stock row. Rows are immutable snapshots: the
// client never mutates a Stock after decoding it.
type Stock struct {
	Ticker              string  `json:"ticker"`
	CompanyName         string  `json:"company_name"`
	Sector              string  `json:"sector"`
	MarketCap           float64 `json:"market_cap"`
	LatestPrice         float64 `json:"latest_price"`
	LatestPriceDate     string  `json:"latest_price_date,omitempty"`
	DataCompletenessPct float64 `json:"data_completeness_%,omitempty"`
	DaysWithPrice       int     `json:"days_with_price,omitempty"`
	TotalDays           int     `json:"total_days,omitempty"`

	// Detail-page fields, present only on the per-ticker endpoint.
	Description     string   `json:"description,omitempty"`
	Products        []string `json:"products,omitempty"`
	Promoters       []string `json:"promoters,omitempty"`
	PromoterShare   float64  `json:"promoter_share,omitempty"`
	Debt            float64  `json:"debt,omitempty"`
	Employees       int      `json:"employees,omitempty"`
	Founded         int      `json:"founded,omitempty"`

	// Changes maps a lookback period in days to the percent change over
	// that period. On the wire each entry is a top-level "{p}D_change_%"
	// key, so the map is flattened during (un)marshalling.
	Changes map[int]float64 `json:"-"`
}

// Change returns the percent change for the given period and whether the
// row carries it.
func (s Stock) Change(period int) (float64, bool) {
	v, ok := s.Changes[period]
	return v, ok
}

// stockAlias avoids recursing into the custom (un)marshallers.
type stockAlias Stock

// MarshalJSON flattens the Changes map into "{p}D_change_%" keys.
func (s Stock) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(stockAlias(s))
	if err != nil {
		return nil, err
	}
	if len(s.Changes) == 0 {
		return base, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for period, pct := range s.Changes {
		raw, err := json.Marshal(pct)
		if err != nil {
			return nil, err
		}
		m[ChangeKey(period)] = raw
	}
	return json.Marshal(m)
}

// UnmarshalJSON collects any "{p}D_change_%" keys into the Changes map.
func (s *Stock) UnmarshalJSON(data []byte) error {
	var alias stockAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*s = Stock(alias)

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for k, raw := range m {
		match := changeKeyRe.FindStringSubmatch(k)
		if match == nil {
			continue
		}
		period, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		var pct float64
		if err := json.Unmarshal(raw, &pct); err != nil {
			continue
		}
		if s.Changes == nil {
			s.Changes = make(map[int]float64)
		}
		s.Changes[period] = pct
	}
	return nil
}

// User is the identity the backend derives from a valid credential.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Availability describes the inclusive date range for which the backend has
// usable historical data. It is immutable for a session once fetched.
type Availability struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	TotalDays   int    `json:"total_days"`
	LastUpdated string `json:"last_updated"`
}

// Movers holds ranked gainers and losers for a fixed lookback period.
type Movers struct {
	Gainers []Stock `json:"gainers"`
	Losers  []Stock `json:"losers"`
}

// QualitySummary summarizes data completeness over an analysis result.
type QualitySummary struct {
	TotalStocks           int     `json:"total_stocks"`
	StocksWithFullData    int     `json:"stocks_with_full_data"`
	StocksWithPartialData int     `json:"stocks_with_partial_data"`
	AvgDataCompleteness   float64 `json:"avg_data_completeness"`
}

// AnalysisRequest is the canonical body for POST /stocks/analysis. The three
// optional filters are pointers so that an unset filter is omitted from the
// serialized body entirely (absence, not null, signals "no filter"); given
// identical field values the serialization is identical.
type AnalysisRequest struct {
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	ChangePeriods []int    `json:"change_periods"`
	SortBy        string   `json:"sort_by"`
	SortOrder     string   `json:"sort_order"`
	MarketCapMin  *float64 `json:"market_cap_min,omitempty"`
	MarketCapMax  *float64 `json:"market_cap_max,omitempty"`
	Sector        string   `json:"sector,omitempty"`
}

// AnalysisResult pairs the filtered rows with their quality summary. It is
// replaced atomically by the query engine on each successful fetch.
type AnalysisResult struct {
	Data    []Stock        `json:"data"`
	Summary QualitySummary `json:"summary"`
}

// MarketOverview holds unauthenticated aggregate statistics.
type MarketOverview struct {
	TotalStocks int    `json:"total_stocks"`
	Sectors     int    `json:"sectors"`
	Advancers   int    `json:"advancers"`
	Decliners   int    `json:"decliners"`
	LastUpdated string `json:"last_updated"`
}
