package stocktracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Client talks to the stock-analysis API. It holds the session credential
// and attaches it as a bearer header to every request while set. The client
// never decides authorization itself: a rejected credential surfaces to the
// caller as a ServerError or StatusError.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the API rooted at baseURL (including the
// "/api" prefix, e.g. "http://localhost:8800/api").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the session credential attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the session credential.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently installed credential, or "" if none.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

// GetAvailability fetches the data availability window.
func (c *Client) GetAvailability(ctx context.Context) (Availability, error) {
	var resp struct {
		envelope
		Availability
	}
	if err := c.doJSON(ctx, http.MethodGet, "/data/availability", nil, &resp); err != nil {
		return Availability{}, err
	}
	return resp.Availability, nil
}

// GetSectors fetches the list of available sectors.
func (c *Client) GetSectors(ctx context.Context) ([]string, error) {
	var resp struct {
		envelope
		Sectors []string `json:"sectors"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/stocks/sectors", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sectors, nil
}

// GetTopMovers fetches ranked gainers and losers for the given lookback
// period (days) and per-side limit.
func (c *Client) GetTopMovers(ctx context.Context, period, limit int) (Movers, error) {
	path := "/stocks/top-movers?period=" + strconv.Itoa(period) + "&limit=" + strconv.Itoa(limit)
	var resp struct {
		envelope
		Movers
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Movers{}, err
	}
	return resp.Movers, nil
}

// GetAnalysis posts the canonical analysis request and returns the filtered,
// sorted rows with their quality summary. An empty result with success=true
// is a valid result, not an error.
func (c *Client) GetAnalysis(ctx context.Context, req AnalysisRequest) (AnalysisResult, error) {
	var resp struct {
		envelope
		AnalysisResult
	}
	if err := c.doJSON(ctx, http.MethodPost, "/stocks/analysis", req, &resp); err != nil {
		return AnalysisResult{}, err
	}
	return resp.AnalysisResult, nil
}

// GetStock fetches the detail record for a single ticker.
func (c *Client) GetStock(ctx context.Context, ticker string) (Stock, error) {
	var resp struct {
		envelope
		Data Stock `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/stocks/"+url.PathEscape(ticker), nil, &resp); err != nil {
		return Stock{}, err
	}
	return resp.Data, nil
}

// Login exchanges credentials for a bearer token and identity. It does not
// install the token on the client; that is the session store's decision.
func (c *Client) Login(ctx context.Context, email, password string) (string, User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		envelope
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", User{}, err
	}
	return resp.Token, resp.User, nil
}

// Register creates a new account and returns its bearer token and identity.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp struct {
		envelope
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return "", User{}, err
	}
	return resp.Token, resp.User, nil
}

// Me verifies the installed credential and returns the identity behind it.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp struct {
		envelope
		User User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

// GetTopMoversPreview fetches the unauthenticated movers preview.
func (c *Client) GetTopMoversPreview(ctx context.Context, limit int) (Movers, error) {
	path := "/public/top-movers-preview?limit=" + strconv.Itoa(limit)
	var resp struct {
		envelope
		Movers
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Movers{}, err
	}
	return resp.Movers, nil
}

// GetMarketOverview fetches unauthenticated aggregate market statistics.
func (c *Client) GetMarketOverview(ctx context.Context) (MarketOverview, error) {
	var resp struct {
		envelope
		MarketOverview
	}
	if err := c.doJSON(ctx, http.MethodGet, "/public/market-overview", nil, &resp); err != nil {
		return MarketOverview{}, err
	}
	return resp.MarketOverview, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// envelope is the common response wrapper. Different endpoints report their
// failure message under different keys.
type envelope struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
	Err     string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e envelope) message() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != "":
		return e.Err
	default:
		return e.Message
	}
}

// doJSON issues one request and decodes the response into out, which must
// embed envelope. Failures are reported as exactly one of TransportError,
// ServerError, or StatusError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	var env envelope
	jsonOK := json.Unmarshal(raw, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if jsonOK && env.message() != "" {
			return &ServerError{StatusCode: resp.StatusCode, Message: env.message()}
		}
		return &StatusError{StatusCode: resp.StatusCode}
	}

	if !jsonOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	if !env.Success {
		msg := env.message()
		if msg == "" {
			msg = "request failed"
		}
		return &ServerError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
