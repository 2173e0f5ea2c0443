/*
scheduler.go - Periodic connectivity probe

PURPOSE:
  Re-runs the connection and schema probes on a fixed interval so the
  status endpoint and the order board's online gate follow the remote
  store coming and going without a client asking.

USAGE:
  scheduler := NewProbeScheduler(svc, time.Minute)
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fuego/backoffice/backoffice"
)

// ProbeScheduler runs Service.Probe in the background.
type ProbeScheduler struct {
	Service       *backoffice.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastMu sync.RWMutex
	last   time.Time
}

// NewProbeScheduler creates a scheduler. A non-positive interval disables it.
func NewProbeScheduler(svc *backoffice.Service, interval time.Duration) *ProbeScheduler {
	return &ProbeScheduler{
		Service:       svc,
		CheckInterval: interval,
		Enabled:       interval > 0 && svc.Configured(),
	}
}

// Start begins probing, immediately and then once per interval.
func (ps *ProbeScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop)

	log.Printf("[Scheduler] Started with check interval: %v", ps.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight probe.
func (ps *ProbeScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (ps *ProbeScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	// Run immediately on start
	ps.RunNow()

	for {
		select {
		case <-ticker.C:
			ps.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow probes once and returns the resulting connectivity.
func (ps *ProbeScheduler) RunNow() backoffice.Connectivity {
	c := ps.Service.Probe(context.Background())
	if !c.Online || !c.SchemaReady {
		log.Printf("[Scheduler] Remote degraded: online=%v schema=%v", c.Online, c.SchemaReady)
	}

	ps.lastMu.Lock()
	ps.last = c.CheckedAt
	ps.lastMu.Unlock()
	return c
}

// NextRunTime returns when the next scheduled probe will occur.
func (ps *ProbeScheduler) NextRunTime() time.Time {
	ps.lastMu.RLock()
	defer ps.lastMu.RUnlock()
	if ps.last.IsZero() {
		return time.Now()
	}
	return ps.last.Add(ps.CheckInterval)
}
