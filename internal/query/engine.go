package query

import (
	"context"
	"log/slog"
	"sync"

	"stocktracker/pkg/stocktracker"
)

// networkErrMsg is the fallback shown when an analysis fetch fails without a
// server-provided message.
const networkErrMsg = "Network error while fetching analysis."

// State is the engine's lifecycle state.
type State int

const (
	// Idle: the availability window is not known yet; fetches are no-ops.
	Idle State = iota
	// Ready: the window is known and no fetch is in flight.
	Ready
	// Fetching: the latest-issued fetch has not completed yet.
	Fetching
)

// Engine owns the analysis query parameters and the result of the last
// successful fetch. Responses are tagged with a monotonically increasing
// sequence number; only the response matching the latest issued request is
// applied ("last request issued wins"), so the displayed result always
// corresponds to exactly one completed response.
type Engine struct {
	client *stocktracker.Client
	log    *slog.Logger

	mu      sync.Mutex
	state   State
	window  stocktracker.Availability
	params  Params
	seq     uint64
	results []stocktracker.Stock
	summary stocktracker.QualitySummary
	lastErr string
}

// NewEngine creates an engine in the Idle state.
func NewEngine(client *stocktracker.Client, log *slog.Logger) *Engine {
	return &Engine{client: client, log: log}
}

// SetAvailability installs the availability window. The first call moves the
// engine from Idle to Ready with default parameters anchored to the window;
// the caller performs the initial fetch on that transition. Subsequent calls
// (an explicit reload) keep the user's filters, periods, and sort untouched
// and only re-clamp the date range into the new window.
func (e *Engine) SetAvailability(window stocktracker.Availability) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.window = window
	if e.state == Idle {
		e.params = Default(window)
		e.state = Ready
		return
	}
	e.params.SetDateRange(e.params.StartDate, e.params.EndDate, window)
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Window returns the availability window and whether it is known.
func (e *Engine) Window() (stocktracker.Availability, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window, e.state != Idle
}

// Params returns a copy of the current parameters.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Clone()
}

// UpdateParams applies fn to a copy of the parameters and installs the
// result if fn succeeds. The caller issues the follow-up fetch; the engine
// never fetches implicitly.
func (e *Engine) UpdateParams(fn func(*Params) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	updated := e.params.Clone()
	if err := fn(&updated); err != nil {
		return err
	}
	e.params = updated
	return nil
}

// Fetch is an issued analysis request: its sequence number and canonical
// body.
type Fetch struct {
	Seq uint64
	Req stocktracker.AnalysisRequest
}

// Begin issues a new fetch: it bumps the sequence, snapshots the canonical
// body, and moves the engine to Fetching. It returns false while the
// availability window is unknown (the fetch is then a no-op, per contract).
// An already in-flight fetch is not cancelled; it becomes stale and its
// response will be discarded.
func (e *Engine) Begin() (Fetch, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Idle {
		return Fetch{}, false
	}
	e.seq++
	e.state = Fetching
	return Fetch{Seq: e.seq, Req: e.params.Body()}, true
}

// Apply delivers the response for a previously issued fetch. Stale
// responses — any whose sequence is not the latest issued — are discarded
// entirely, success or failure. For the latest response: success replaces
// the result set and summary atomically and clears the error; failure
// leaves the previous result set untouched and records the error message.
// Returns whether the response was applied.
func (e *Engine) Apply(seq uint64, res stocktracker.AnalysisResult, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		e.log.Debug("discarding stale analysis response", "seq", seq, "latest", e.seq)
		return false
	}
	e.state = Ready
	if err != nil {
		e.lastErr = stocktracker.ErrorMessage(err, networkErrMsg)
		e.log.Warn("analysis fetch failed", "seq", seq, "error", err)
		return true
	}
	e.results = res.Data
	e.summary = res.Summary
	e.lastErr = ""
	return true
}

// Run performs one complete fetch synchronously: Begin, the network call,
// Apply. It returns the fetch error, or nil both on success and when the
// engine is Idle (no-op).
func (e *Engine) Run(ctx context.Context) error {
	f, ok := e.Begin()
	if !ok {
		return nil
	}
	res, err := e.client.GetAnalysis(ctx, f.Req)
	e.Apply(f.Seq, res, err)
	return err
}

// Results returns the rows of the last successful fetch. The slice is an
// immutable snapshot: it is replaced wholesale, never mutated in place.
func (e *Engine) Results() []stocktracker.Stock {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}

// Summary returns the quality summary of the last successful fetch.
func (e *Engine) Summary() stocktracker.QualitySummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// Err returns the error message from the latest completed fetch, or ""
// after a success.
func (e *Engine) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
