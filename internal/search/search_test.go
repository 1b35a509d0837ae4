package search

import (
	"testing"

	"stocktracker/pkg/stocktracker"
)

func stock(ticker, name string) stocktracker.Stock {
	return stocktracker.Stock{Ticker: ticker, CompanyName: name}
}

var (
	gainers = []stocktracker.Stock{
		stock("TCS", "Tata Consultancy Services"),
		stock("INFY", "Infosys Limited"),
	}
	losers = []stocktracker.Stock{
		stock("WIPRO", "Wipro Limited"),
	}
	analysis = []stocktracker.Stock{
		stock("RELIANCE", "Reliance Industries Ltd"),
		stock("HDFCBANK", "HDFC Bank Limited"),
	}
)

func TestResolveByTickerSubstring(t *testing.T) {
	got, ok := Resolve("rel", gainers, losers, analysis)
	if !ok {
		t.Fatal("expected a match for \"rel\"")
	}
	if got.Ticker != "RELIANCE" {
		t.Errorf("expected RELIANCE, got %s", got.Ticker)
	}
}

func TestResolveByCompanyName(t *testing.T) {
	got, ok := Resolve("infosys", gainers, losers, analysis)
	if !ok {
		t.Fatal("expected a match for \"infosys\"")
	}
	if got.Ticker != "INFY" {
		t.Errorf("expected INFY, got %s", got.Ticker)
	}
}

// The first match in union order wins: gainers before losers before analysis.
func TestResolveUnionOrder(t *testing.T) {
	// "limited" appears in all three datasets.
	got, ok := Resolve("limited", gainers, losers, analysis)
	if !ok {
		t.Fatal("expected a match for \"limited\"")
	}
	if got.Ticker != "INFY" {
		t.Errorf("expected the gainers match INFY first, got %s", got.Ticker)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	got, ok := Resolve("HdFcBaNk", gainers, losers, analysis)
	if !ok || got.Ticker != "HDFCBANK" {
		t.Errorf("expected case-insensitive HDFCBANK match, got %v (ok=%v)", got.Ticker, ok)
	}
}

func TestResolveNoMatch(t *testing.T) {
	if _, ok := Resolve("zzz", gainers, losers, analysis); ok {
		t.Error("expected no match for \"zzz\"")
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	if _, ok := Resolve("", gainers); ok {
		t.Error("empty query must not match")
	}
	if _, ok := Resolve("   ", gainers); ok {
		t.Error("whitespace query must not match")
	}
}

func TestResolveEmptyDatasets(t *testing.T) {
	if _, ok := Resolve("tcs"); ok {
		t.Error("no datasets, no match")
	}
	if _, ok := Resolve("tcs", nil, nil); ok {
		t.Error("nil datasets, no match")
	}
}
