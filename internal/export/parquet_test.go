package export

import (
	"path/filepath"
	"testing"

	"stocktracker/pkg/stocktracker"
)

func sampleRows() []stocktracker.Stock {
	return []stocktracker.Stock{
		{
			Ticker:              "RELIANCE",
			CompanyName:         "Reliance Industries Ltd",
			Sector:              "Oil & Gas",
			MarketCap:           1654238.45,
			LatestPrice:         2456.80,
			LatestPriceDate:     "2026-08-27",
			DataCompletenessPct: 98.5,
			Changes:             map[int]float64{1: 1.2, 30: -3.4},
		},
		{
			Ticker:      "TCS",
			CompanyName: "Tata Consultancy Services",
			Sector:      "IT Services",
			MarketCap:   1298756.23,
			LatestPrice: 3542.15,
			Changes:     map[int]float64{5: 0.8},
		},
	}
}

func TestWriteAndReadAnalysis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "analysis.parquet")

	if err := WriteAnalysis(path, sampleRows()); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := ReadAnalysis(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	r := records[0]
	if r.Ticker != "RELIANCE" || r.Sector != "Oil & Gas" {
		t.Errorf("row 0 mismatch: %+v", r)
	}
	if r.MarketCap != 1654238.45 {
		t.Errorf("expected market cap 1654238.45, got %v", r.MarketCap)
	}
	if r.Change1D != 1.2 || r.Change30D != -3.4 {
		t.Errorf("change columns mismatch: 1d=%v 30d=%v", r.Change1D, r.Change30D)
	}
	// Periods absent from the row stay zero.
	if r.Change5D != 0 {
		t.Errorf("expected zero for absent 5d change, got %v", r.Change5D)
	}

	if records[1].Change5D != 0.8 {
		t.Errorf("row 1 5d change mismatch: %v", records[1].Change5D)
	}
}

func TestWriteAnalysisRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	if err := WriteAnalysis(path, nil); err == nil {
		t.Fatal("expected an error for an empty export")
	}
}
