/*
board.go - Kitchen order board refresh

PURPOSE:
  While the order board is open, orders are re-fetched on a fixed interval
  so new orders and status changes show up without a manual reload.

DESIGN:
  - Activate starts a ticker goroutine and loads once immediately
  - The activation load and Refresh read like FetchOrders: remote first,
    local cache when the remote fails, so offline orders stay visible
  - Deactivate stops it; nothing is scheduled while the board is closed
  - Ticks are skipped while the service reports the remote store offline
  - A failed tick keeps the previous snapshot; nothing is surfaced

USAGE:
  board := NewBoard(svc)
  board.Activate()
  snap := board.Snapshot()
  board.Deactivate()
*/
package backoffice

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fuego/backoffice/restaurant"
)

// RefreshInterval is the default board polling period.
const RefreshInterval = 15 * time.Second

// BoardSnapshot is what the board currently shows.
type BoardSnapshot struct {
	Orders    []restaurant.Order `json:"orders"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Active    bool               `json:"active"`
}

// Board keeps an in-memory copy of the orders and refreshes it while active.
type Board struct {
	Service  *Service
	Interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	snapMu   sync.RWMutex
	orders   []restaurant.Order
	fetched  time.Time
	isActive bool
}

func NewBoard(svc *Service) *Board {
	return &Board{
		Service:  svc,
		Interval: RefreshInterval,
		orders:   []restaurant.Order{},
	}
}

// Activate starts periodic refresh. Calling it on an active board does nothing.
func (b *Board) Activate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ticker != nil {
		return
	}

	b.ticker = time.NewTicker(b.Interval)
	b.stop = make(chan struct{})
	b.setActive(true)
	b.wg.Add(1)

	go b.run(b.ticker, b.stop)

	log.Printf("[Board] Activated with refresh interval: %v", b.Interval)
}

// Deactivate stops periodic refresh and waits for an in-flight refresh.
func (b *Board) Deactivate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ticker == nil {
		return
	}
	b.ticker.Stop()
	close(b.stop)
	b.wg.Wait()
	b.ticker = nil
	b.setActive(false)
	log.Println("[Board] Deactivated")
}

// Active reports whether periodic refresh is running.
func (b *Board) Active() bool {
	b.snapMu.RLock()
	defer b.snapMu.RUnlock()
	return b.isActive
}

// Snapshot returns the orders as of the last successful refresh.
func (b *Board) Snapshot() BoardSnapshot {
	b.snapMu.RLock()
	defer b.snapMu.RUnlock()
	return BoardSnapshot{
		Orders:    append([]restaurant.Order{}, b.orders...),
		FetchedAt: b.fetched,
		Active:    b.isActive,
	}
}

// Refresh loads orders now, regardless of connectivity, falling back to
// the local cache when the remote read fails.
func (b *Board) Refresh(ctx context.Context) {
	b.replace(b.Service.FetchOrders(ctx))
	b.Service.metrics.BoardRefresh("ok")
}

// Poll is one periodic refresh. A failed remote read keeps the previous
// snapshot; Poll reports whether the snapshot was replaced.
func (b *Board) Poll(ctx context.Context) bool {
	orders, err := b.Service.refreshOrders(ctx)
	if err != nil {
		log.Printf("[Board] Refresh failed, keeping previous orders: %v", err)
		b.Service.metrics.BoardRefresh("error")
		return false
	}
	b.replace(orders)
	b.Service.metrics.BoardRefresh("ok")
	return true
}

func (b *Board) replace(orders []restaurant.Order) {
	b.snapMu.Lock()
	b.orders = orders
	b.fetched = b.Service.now()
	b.snapMu.Unlock()
}

func (b *Board) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer b.wg.Done()

	b.Refresh(context.Background())

	for {
		select {
		case <-ticker.C:
			b.tick()
		case <-stop:
			return
		}
	}
}

func (b *Board) tick() {
	if !b.Service.Status().Online {
		b.Service.metrics.BoardRefresh("skipped")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.Interval)
	defer cancel()
	b.Poll(ctx)
}

func (b *Board) setActive(v bool) {
	b.snapMu.Lock()
	b.isActive = v
	b.snapMu.Unlock()
}

// refreshOrders is FetchOrders without the cache fallback: a failed remote
// read is reported so a periodic poll can keep what it has.
func (s *Service) refreshOrders(ctx context.Context) ([]restaurant.Order, error) {
	if s.remote == nil {
		return s.cache.Orders(ctx), nil
	}
	return s.remoteOrders(ctx)
}
