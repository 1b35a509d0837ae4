package stocktracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8800/api"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != baseURL {
		t.Errorf("expected baseURL %q, got %q", baseURL, c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
}

func TestTokenLifecycle(t *testing.T) {
	c := NewClient("http://localhost")

	if got := c.Token(); got != "" {
		t.Errorf("new client should have no token, got %q", got)
	}
	c.SetToken("abc123")
	if got := c.Token(); got != "abc123" {
		t.Errorf("expected token %q, got %q", "abc123", got)
	}
	c.ClearToken()
	if got := c.Token(); got != "" {
		t.Errorf("expected empty token after clear, got %q", got)
	}
}

func TestBearerHeaderAttachment(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "sectors": []string{"Banking"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.GetSectors(context.Background()); err != nil {
		t.Fatalf("GetSectors: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("no token set, but Authorization header was %q", gotAuth)
	}

	c.SetToken("tok-1")
	if _, err := c.GetSectors(context.Background()); err != nil {
		t.Fatalf("GetSectors with token: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("expected Authorization %q, got %q", "Bearer tok-1", gotAuth)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error with detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{"success": false, "detail": "Invalid credentials"})
			},
			check: func(t *testing.T, err error) {
				var srv *ServerError
				if !errors.As(err, &srv) {
					t.Fatalf("expected ServerError, got %T: %v", err, err)
				}
				if srv.Message != "Invalid credentials" {
					t.Errorf("expected message %q, got %q", "Invalid credentials", srv.Message)
				}
				if srv.StatusCode != http.StatusUnauthorized {
					t.Errorf("expected status 401, got %d", srv.StatusCode)
				}
			},
		},
		{
			name: "success false on 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "nope"})
			},
			check: func(t *testing.T, err error) {
				var srv *ServerError
				if !errors.As(err, &srv) {
					t.Fatalf("expected ServerError, got %T: %v", err, err)
				}
				if srv.Message != "nope" {
					t.Errorf("expected message %q, got %q", "nope", srv.Message)
				}
			},
		},
		{
			name: "non-2xx without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var status *StatusError
				if !errors.As(err, &status) {
					t.Fatalf("expected StatusError, got %T: %v", err, err)
				}
				if status.StatusCode != http.StatusBadGateway {
					t.Errorf("expected status 502, got %d", status.StatusCode)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL)
			_, err := c.GetAvailability(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			tt.check(t, err)
		})
	}
}

func TestTransportError(t *testing.T) {
	// Nothing listens here.
	c := NewClient("http://127.0.0.1:1")
	_, err := c.GetAvailability(context.Background())
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}

func TestErrorMessage(t *testing.T) {
	fallback := "Network error."

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message wins", &ServerError{StatusCode: 401, Message: "Invalid credentials"}, "Invalid credentials"},
		{"status error appends code", &StatusError{StatusCode: 502}, "Network error. (HTTP 502)"},
		{"transport falls back", &TransportError{Err: errors.New("dial refused")}, fallback},
		{"plain error falls back", errors.New("boom"), fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err, fallback); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStockChangeKeysRoundtrip(t *testing.T) {
	in := Stock{
		Ticker:      "RELIANCE",
		CompanyName: "Reliance Industries Ltd",
		Sector:      "Oil & Gas",
		MarketCap:   1654238.45,
		LatestPrice: 2456.80,
		Changes:     map[int]float64{1: 2.5, 30: -4.75},
	}

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"1D_change_%":2.5`) {
		t.Errorf("expected flattened 1D change key in %s", raw)
	}
	if !strings.Contains(string(raw), `"30D_change_%":-4.75`) {
		t.Errorf("expected flattened 30D change key in %s", raw)
	}

	var out Stock
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Ticker != in.Ticker || out.MarketCap != in.MarketCap {
		t.Errorf("base fields lost in roundtrip: %+v", out)
	}
	if len(out.Changes) != 2 {
		t.Fatalf("expected 2 change entries, got %d", len(out.Changes))
	}
	if v, ok := out.Change(30); !ok || v != -4.75 {
		t.Errorf("expected 30d change -4.75, got %v (ok=%v)", v, ok)
	}
}

func TestStockUnmarshalIgnoresForeignKeys(t *testing.T) {
	raw := `{"ticker":"TCS","market_cap":1,"latest_price":2,"XD_change_%":9,"5D_change_%":1.25}`
	var s Stock
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s.Changes) != 1 {
		t.Fatalf("expected exactly the 5D change entry, got %v", s.Changes)
	}
	if v, _ := s.Change(5); v != 1.25 {
		t.Errorf("expected 5d change 1.25, got %v", v)
	}
}

func TestAnalysisRequestOmitsUnsetFilters(t *testing.T) {
	req := AnalysisRequest{
		StartDate:     "2025-01-01",
		EndDate:       "2025-12-31",
		ChangePeriods: []int{1, 5},
		SortBy:        "market_cap",
		SortOrder:     "desc",
	}
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, absent := range []string{"market_cap_min", "market_cap_max", "sector"} {
		if strings.Contains(body, absent) {
			t.Errorf("unset filter %q should be omitted from body: %s", absent, body)
		}
	}

	minVal := 1000.0
	req.MarketCapMin = &minVal
	req.Sector = "Banking"
	raw, err = json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal with filters: %v", err)
	}
	body = string(raw)
	if !strings.Contains(body, `"market_cap_min":1000`) {
		t.Errorf("expected market_cap_min in body: %s", body)
	}
	if !strings.Contains(body, `"sector":"Banking"`) {
		t.Errorf("expected sector in body: %s", body)
	}
	if strings.Contains(body, "market_cap_max") {
		t.Errorf("market_cap_max still unset, should stay omitted: %s", body)
	}
}

func TestGetStockPathEscaping(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"ticker": "M&M"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	stock, err := c.GetStock(context.Background(), "M&M")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if stock.Ticker != "M&M" {
		t.Errorf("expected ticker M&M, got %q", stock.Ticker)
	}
	if gotPath != "/stocks/M&M" {
		t.Errorf("unexpected request path %q", gotPath)
	}
}
