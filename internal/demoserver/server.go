// Package demoserver implements the stock-analysis API over a built-in
// sample dataset. It serves the same endpoints the production backend
// exposes, so the client suite can be exercised end to end without any
// external service; the test suites also mount its handler on httptest
// servers.
package demoserver

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stocktracker/pkg/stocktracker"
)

// account is a registered demo user with its password.
type account struct {
	user     stocktracker.User
	password string
}

// Server holds the demo state: RNG, registered accounts, and issued tokens.
type Server struct {
	log *slog.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	accounts map[string]*account // by email
	tokens   map[string]string   // token → email
	clock    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithSeed pins the RNG so generated analysis fields are reproducible.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock pins the server clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// NewServer creates a demo server with one pre-registered account
// (demo@stocktracker.local / demo123).
func NewServer(log *slog.Logger, opts ...Option) *Server {
	s := &Server{
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.accounts["demo@stocktracker.local"] = &account{
		user: stocktracker.User{
			ID:    uuid.NewString(),
			Name:  "Demo User",
			Email: "demo@stocktracker.local",
		},
		password: "demo123",
	}
	return s
}

// Handler returns the HTTP handler serving the /api routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data/availability", s.handleAvailability)
	mux.HandleFunc("GET /api/stocks/sectors", s.handleSectors)
	mux.HandleFunc("GET /api/stocks/top-movers", s.handleTopMovers)
	mux.HandleFunc("POST /api/stocks/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/stocks/{ticker}", s.handleStockDetail)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("GET /api/public/top-movers-preview", s.handlePublicMovers)
	mux.HandleFunc("GET /api/public/market-overview", s.handleOverview)
	return mux
}

// ---------------------------------------------------------------------------
// Data endpoints
// ---------------------------------------------------------------------------

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"start_date":   now.AddDate(0, 0, -365).Format("2006-01-02"),
		"end_date":     now.Format("2006-01-02"),
		"total_days":   365,
		"last_updated": now.Format("2006-01-02"),
	})
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	var sectors []string
	for _, b := range sampleStocks {
		if !seen[b.Sector] {
			seen[b.Sector] = true
			sectors = append(sectors, b.Sector)
		}
	}
	sort.Strings(sectors)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sectors": sectors})
}

func (s *Server) handleTopMovers(w http.ResponseWriter, r *http.Request) {
	period := queryInt(r, "period", 1)
	limit := queryInt(r, "limit", 10)

	s.mu.Lock()
	rows := s.enrichAll()
	s.mu.Unlock()

	gainers, losers := splitMovers(rows, period, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"gainers": gainers,
		"losers":  losers,
	})
}

// splitMovers ranks rows by the period's change: gainers are the positive
// changes sorted descending, losers the negative ones sorted ascending
// (most negative first), each truncated to limit.
func splitMovers(rows []stocktracker.Stock, period, limit int) (gainers, losers []stocktracker.Stock) {
	gainers = make([]stocktracker.Stock, 0, limit)
	losers = make([]stocktracker.Stock, 0, limit)
	for _, row := range rows {
		switch change, _ := row.Change(period); {
		case change > 0:
			gainers = append(gainers, row)
		case change < 0:
			losers = append(losers, row)
		}
	}
	sort.Slice(gainers, func(i, j int) bool {
		a, _ := gainers[i].Change(period)
		b, _ := gainers[j].Change(period)
		return a > b
	})
	sort.Slice(losers, func(i, j int) bool {
		a, _ := losers[i].Change(period)
		b, _ := losers[j].Change(period)
		return a < b
	})
	if len(gainers) > limit {
		gainers = gainers[:limit]
	}
	if len(losers) > limit {
		losers = losers[:limit]
	}
	return gainers, losers
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req stocktracker.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "error": "invalid request body",
		})
		return
	}

	s.mu.Lock()
	rows := s.enrichAll()
	s.mu.Unlock()

	filtered := make([]stocktracker.Stock, 0, len(rows))
	for _, row := range rows {
		if req.Sector != "" && row.Sector != req.Sector {
			continue
		}
		if req.MarketCapMin != nil && row.MarketCap < *req.MarketCapMin {
			continue
		}
		if req.MarketCapMax != nil && row.MarketCap > *req.MarketCapMax {
			continue
		}
		filtered = append(filtered, row)
	}

	sortRows(filtered, req.SortBy, req.SortOrder)

	total := len(filtered)
	full := 0
	sumCompleteness := 0.0
	for _, row := range filtered {
		if row.DataCompletenessPct >= 95 {
			full++
		}
		sumCompleteness += row.DataCompletenessPct
	}
	avg := 0.0
	if total > 0 {
		avg = round1(sumCompleteness / float64(total))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    filtered,
		"summary": stocktracker.QualitySummary{
			TotalStocks:           total,
			StocksWithFullData:    full,
			StocksWithPartialData: total - full,
			AvgDataCompleteness:   avg,
		},
	})
}

// sortRows orders rows by the requested key. Unknown keys leave the order
// unchanged, matching the reference backend's lenient behaviour.
func sortRows(rows []stocktracker.Stock, sortBy, sortOrder string) {
	if sortBy == "" {
		sortBy = "market_cap"
	}
	desc := sortOrder != "asc"

	key := func(row stocktracker.Stock) (float64, string, bool) {
		switch sortBy {
		case "market_cap":
			return row.MarketCap, "", true
		case "latest_price":
			return row.LatestPrice, "", true
		case "company_name":
			return 0, row.CompanyName, false
		case "sector":
			return 0, row.Sector, false
		case "ticker":
			return 0, row.Ticker, false
		}
		if m := changeKeyPeriod(sortBy); m > 0 {
			v, _ := row.Change(m)
			return v, "", true
		}
		return 0, "", true
	}

	_, _, numeric := key(stocktracker.Stock{})
	asc := func(i, j int) bool {
		ni, si, _ := key(rows[i])
		nj, sj, _ := key(rows[j])
		if numeric {
			return ni < nj
		}
		return si < sj
	}
	if desc {
		sort.SliceStable(rows, func(i, j int) bool { return asc(j, i) })
	} else {
		sort.SliceStable(rows, asc)
	}
}

// changeKeyPeriod parses "ND_change_%" keys, returning 0 for other keys.
func changeKeyPeriod(key string) int {
	rest, ok := strings.CutSuffix(key, "D_change_%")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	for _, b := range sampleStocks {
		if b.Ticker == ticker {
			s.mu.Lock()
			row := s.detail(s.enrich(b))
			s.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": row})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false, "detail": "Stock not found",
	})
}

// ---------------------------------------------------------------------------
// Auth endpoints
// ---------------------------------------------------------------------------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "detail": "invalid request body",
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.Email]
	if !ok || acct.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false, "detail": "Invalid credentials",
		})
		return
	}

	token := uuid.NewString()
	s.tokens[token] = req.Email
	s.log.Info("login", "email", req.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "token": token, "user": acct.user,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "detail": "invalid request body",
		})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "detail": "Email and password are required",
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "detail": "Email already registered",
		})
		return
	}

	acct := &account{
		user: stocktracker.User{
			ID:    uuid.NewString(),
			Name:  req.Name,
			Email: req.Email,
		},
		password: req.Password,
	}
	s.accounts[req.Email] = acct

	token := uuid.NewString()
	s.tokens[token] = req.Email
	s.log.Info("account registered", "email", req.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "token": token, "user": acct.user,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false, "detail": "Missing bearer token",
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.tokens[token]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false, "detail": "Invalid token",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "user": s.accounts[email].user,
	})
}

// RevokeToken invalidates an issued token, mainly for tests exercising the
// rejected-credential path.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Public endpoints
// ---------------------------------------------------------------------------

func (s *Server) handlePublicMovers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)

	s.mu.Lock()
	rows := s.enrichAll()
	s.mu.Unlock()

	gainers, losers := splitMovers(rows, 1, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"gainers": gainers,
		"losers":  losers,
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows := s.enrichAll()
	now := s.now()
	s.mu.Unlock()

	sectors := make(map[string]bool)
	advancers, decliners := 0, 0
	for _, row := range rows {
		sectors[row.Sector] = true
		switch change, _ := row.Change(1); {
		case change > 0:
			advancers++
		case change < 0:
			decliners++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"total_stocks": len(rows),
		"sectors":      len(sectors),
		"advancers":    advancers,
		"decliners":    decliners,
		"last_updated": now.Format("2006-01-02"),
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
