// Package refdata fetches the session's reference data — the availability
// window and sector list — and the top-movers sets. Reference data is loaded
// once per session and again only on an explicit reload, never on filter
// edits.
package refdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stocktracker/internal/util"
	"stocktracker/pkg/stocktracker"
)

// Cache holds the one-shot reference data.
type Cache struct {
	client *stocktracker.Client
	log    *slog.Logger

	mu           sync.RWMutex
	availability *stocktracker.Availability
	sectors      []string
}

// NewCache creates an empty reference data cache.
func NewCache(client *stocktracker.Client, log *slog.Logger) *Cache {
	return &Cache{client: client, log: log}
}

// Load fetches the availability window and the sector list. Availability is
// required — without it the query engine stays Idle — so its failure is
// returned. A sector failure only costs the sector filter and is logged.
// Transient transport failures are retried once.
func (c *Cache) Load(ctx context.Context) error {
	var window stocktracker.Availability
	err := util.Retry(ctx, 2, 500*time.Millisecond, func() error {
		var err error
		window, err = c.client.GetAvailability(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetching data availability: %w", err)
	}

	sectors, err := c.client.GetSectors(ctx)
	if err != nil {
		c.log.Warn("fetching sectors", "error", err)
		sectors = nil
	}

	c.mu.Lock()
	c.availability = &window
	if sectors != nil {
		c.sectors = sectors
	}
	c.mu.Unlock()
	return nil
}

// Availability returns the cached window and whether it has been loaded.
func (c *Cache) Availability() (stocktracker.Availability, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.availability == nil {
		return stocktracker.Availability{}, false
	}
	return *c.availability, true
}

// Sectors returns the cached sector list (possibly empty).
func (c *Cache) Sectors() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sectors
}

// MoversFetcher fetches ranked gainers and losers. Failures never surface
// as blocking errors: the last good set (possibly the empty default) is
// kept and the failure is logged.
type MoversFetcher struct {
	client *stocktracker.Client
	log    *slog.Logger

	mu  sync.RWMutex
	set stocktracker.Movers
}

// NewMoversFetcher creates a fetcher with an empty movers set.
func NewMoversFetcher(client *stocktracker.Client, log *slog.Logger) *MoversFetcher {
	return &MoversFetcher{client: client, log: log}
}

// Fetch retrieves the movers for the given period and per-side limit,
// retrying once on transient failure. On success the set is replaced
// atomically; on failure the previous set is kept.
func (m *MoversFetcher) Fetch(ctx context.Context, period, limit int) {
	var set stocktracker.Movers
	err := util.Retry(ctx, 2, 500*time.Millisecond, func() error {
		var err error
		set, err = m.client.GetTopMovers(ctx, period, limit)
		return err
	})
	if err != nil {
		m.log.Warn("fetching top movers", "period", period, "error", err)
		return
	}

	m.mu.Lock()
	m.set = set
	m.mu.Unlock()
}

// Set returns the current movers set. Readers treat it as an immutable
// snapshot.
func (m *MoversFetcher) Set() stocktracker.Movers {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set
}
