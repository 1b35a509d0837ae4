package demoserver

import (
	"fmt"
	"time"

	"stocktracker/pkg/stocktracker"
)

// changePeriods are the lookback periods the demo dataset carries.
var changePeriods = []int{1, 5, 10, 15, 20, 30}

// baseStock is the static part of a sample row; per-request analysis fields
// are generated on top of it.
type baseStock struct {
	Ticker      string
	CompanyName string
	MarketCap   float64
	Sector      string
	LatestPrice float64
}

// sampleStocks mirrors the pre-loaded NSE/BSE dataset of the demo backend.
var sampleStocks = []baseStock{
	{"RELIANCE", "Reliance Industries Ltd", 1654238.45, "Oil & Gas", 2456.80},
	{"TCS", "Tata Consultancy Services", 1298756.23, "IT Services", 3542.15},
	{"HDFCBANK", "HDFC Bank Limited", 1187435.67, "Banking", 1587.90},
	{"BHARTIARTL", "Bharti Airtel Limited", 698234.12, "Telecommunications", 1254.75},
	{"ICICIBANK", "ICICI Bank Limited", 856789.34, "Banking", 1234.56},
	{"INFY", "Infosys Limited", 754321.89, "IT Services", 1789.45},
	{"ITC", "ITC Limited", 567892.12, "Consumer Goods", 456.78},
	{"HINDUNILVR", "Hindustan Unilever Limited", 589234.56, "Consumer Goods", 2487.63},
	{"LT", "Larsen & Toubro Limited", 234567.89, "Engineering", 1678.90},
	{"SBIN", "State Bank of India", 456789.23, "Banking", 512.34},
	{"AXISBANK", "Axis Bank Limited", 345678.91, "Banking", 1143.27},
	{"WIPRO", "Wipro Limited", 289456.78, "IT Services", 456.89},
	{"ASIANPAINT", "Asian Paints Limited", 298765.43, "Consumer Goods", 3123.45},
	{"MARUTI", "Maruti Suzuki India Limited", 267894.56, "Automobile", 8756.23},
	{"SUNPHARMA", "Sun Pharmaceutical Industries", 198765.43, "Pharmaceuticals", 834.56},
	{"BAJFINANCE", "Bajaj Finance Limited", 423567.89, "Financial Services", 6894.35},
	{"M&M", "Mahindra & Mahindra Limited", 156789.12, "Automobile", 1267.89},
	{"TECHM", "Tech Mahindra Limited", 134567.89, "IT Services", 1398.76},
	{"NTPC", "NTPC Limited", 234567.12, "Power", 241.56},
	{"POWERGRID", "Power Grid Corporation", 189234.56, "Power", 213.45},
}

// enrich builds a full analyzed row from a base row using the server's RNG.
// Callers must hold s.mu.
func (s *Server) enrich(b baseStock) stocktracker.Stock {
	changes := make(map[int]float64, len(changePeriods))
	for _, p := range changePeriods {
		changes[p] = round2(s.rng.Float64()*30 - 15)
	}
	return stocktracker.Stock{
		Ticker:              b.Ticker,
		CompanyName:         b.CompanyName,
		Sector:              b.Sector,
		MarketCap:           b.MarketCap,
		LatestPrice:         b.LatestPrice,
		LatestPriceDate:     s.now().AddDate(0, 0, -s.rng.Intn(3)).Format("2006-01-02"),
		DataCompletenessPct: round1(75 + s.rng.Float64()*25),
		DaysWithPrice:       25 + s.rng.Intn(6),
		TotalDays:           30,
		Changes:             changes,
	}
}

// enrichAll returns a freshly analyzed copy of the whole dataset.
func (s *Server) enrichAll() []stocktracker.Stock {
	out := make([]stocktracker.Stock, 0, len(sampleStocks))
	for _, b := range sampleStocks {
		out = append(out, s.enrich(b))
	}
	return out
}

// detail adds the fields only the per-ticker endpoint carries.
func (s *Server) detail(row stocktracker.Stock) stocktracker.Stock {
	row.Description = fmt.Sprintf("%s is a leading company in the %s sector.", row.CompanyName, row.Sector)
	row.Products = []string{"Product A", "Product B", "Product C"}
	row.Promoters = []string{"Promoter 1", "Promoter 2"}
	row.PromoterShare = round2(40 + s.rng.Float64()*35)
	row.Debt = round2(1000 + s.rng.Float64()*49000)
	row.Employees = 1000 + s.rng.Intn(99001)
	row.Founded = 1950 + s.rng.Intn(51)
	return row
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }

// now returns the server clock, which tests can pin.
func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}
