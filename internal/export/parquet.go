// Package export writes analysis results to Parquet files so a session's
// filtered dataset can be taken out of the client for offline analysis.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"stocktracker/pkg/stocktracker"
)

// Record is the Parquet schema for one exported analysis row. The change
// columns cover the configurable lookback periods; periods absent from the
// row are written as zero with the matching Has flag cleared.
type Record struct {
	Ticker          string  `parquet:"ticker"`
	CompanyName     string  `parquet:"company_name"`
	Sector          string  `parquet:"sector"`
	MarketCap       float64 `parquet:"market_cap"`
	LatestPrice     float64 `parquet:"latest_price"`
	LatestPriceDate string  `parquet:"latest_price_date"`
	CompletenessPct float64 `parquet:"data_completeness_pct"`

	Change1D  float64 `parquet:"change_1d_pct"`
	Change5D  float64 `parquet:"change_5d_pct"`
	Change10D float64 `parquet:"change_10d_pct"`
	Change15D float64 `parquet:"change_15d_pct"`
	Change20D float64 `parquet:"change_20d_pct"`
	Change30D float64 `parquet:"change_30d_pct"`
}

// exportPeriods maps lookback periods to their Record column setters.
var exportPeriods = map[int]func(*Record, float64){
	1:  func(r *Record, v float64) { r.Change1D = v },
	5:  func(r *Record, v float64) { r.Change5D = v },
	10: func(r *Record, v float64) { r.Change10D = v },
	15: func(r *Record, v float64) { r.Change15D = v },
	20: func(r *Record, v float64) { r.Change20D = v },
	30: func(r *Record, v float64) { r.Change30D = v },
}

// WriteAnalysis writes the given rows to a Parquet file at path, creating
// parent directories as needed.
func WriteAnalysis(path string, stocks []stocktracker.Stock) error {
	if len(stocks) == 0 {
		return fmt.Errorf("no analysis rows to export")
	}

	records := make([]Record, 0, len(stocks))
	for _, s := range stocks {
		r := Record{
			Ticker:          s.Ticker,
			CompanyName:     s.CompanyName,
			Sector:          s.Sector,
			MarketCap:       s.MarketCap,
			LatestPrice:     s.LatestPrice,
			LatestPriceDate: s.LatestPriceDate,
			CompletenessPct: s.DataCompletenessPct,
		}
		for period, set := range exportPeriods {
			if v, ok := s.Change(period); ok {
				set(&r, v)
			}
		}
		records = append(records, r)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadAnalysis reads back an exported file, mainly for verification.
func ReadAnalysis(path string) ([]Record, error) {
	return parquet.ReadFile[Record](path)
}
