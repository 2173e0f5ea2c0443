/*
Package backoffice is the reconciliation layer between the hosted store and
the local fallback cache.

PURPOSE:
  Handlers never talk to storage directly. They call Service, which decides
  for every operation whether the remote store, the local cache, or both are
  involved, and always answers with canonical records from package
  restaurant. Storage failures are logged and absorbed; the only errors a
  caller sees are validation errors.

READ PATHS:
  reservations, announcements: remote rows merged with local rows, remote
                               wins on id conflict, newest first
  menu:   remote rows, or local rows when the remote call fails; zero remote
          rows is an intentionally empty catalog
  orders: remote rows only; local rows when the remote call fails or no
          remote is configured

WRITE PATHS:
  create: a local record is built first; the remote insert is attempted and
          the local record is persisted only if that fails
  update: local-origin ids and unconfigured deployments touch only the
          cache; otherwise the remote row is updated and the cached copy, if
          any, is kept in step

CONNECTIVITY:
  Status() is owned here and recomputed by CheckConnection / CheckSchema.
  Nothing else mutates it.

SEE ALSO:
  - localcache.go: typed access to the KV cache
  - board.go: periodic order refresh
*/
package backoffice

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fuego/backoffice/events"
	"github.com/fuego/backoffice/metrics"
	"github.com/fuego/backoffice/store"
)

// =============================================================================
// VALIDATION ERRORS - the only errors returned to callers
// =============================================================================

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidPrice      = errors.New("price must be a non-negative number")
	ErrEmptyMessage      = errors.New("message is required")
	ErrNoItems           = errors.New("order has no items")
)

// probeTimeout bounds the connection and schema probes.
const probeTimeout = 5 * time.Second

// Options configures a Service.
type Options struct {
	// Remote is the hosted store. Nil means no credentials are configured
	// and the service runs on the local cache alone.
	Remote store.Remote

	// Cache is the local fallback cache. Required.
	Cache store.KV

	Events  events.Publisher
	Metrics *metrics.Metrics

	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string
}

// Connectivity is the service's view of the remote store.
type Connectivity struct {
	Configured  bool      `json:"configured"`
	Online      bool      `json:"online"`
	SchemaReady bool      `json:"schemaReady"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// Degraded reports whether requests are being served from the local cache.
func (c Connectivity) Degraded() bool { return !c.Configured || !c.Online }

// Service is the single entry point for reading and writing back office data.
type Service struct {
	remote  store.Remote
	cache   *LocalCache
	events  events.Publisher
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string

	// cacheMu serializes read-modify-write sequences on the local cache.
	cacheMu sync.Mutex

	statusMu sync.RWMutex
	status   Connectivity
}

// NewService builds a Service. Before the first probe a configured remote
// is assumed online.
func NewService(opts Options) *Service {
	s := &Service{
		remote:  opts.Remote,
		cache:   NewLocalCache(opts.Cache),
		events:  opts.Events,
		metrics: opts.Metrics,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	configured := opts.Remote != nil
	s.status = Connectivity{Configured: configured, Online: configured, SchemaReady: configured}
	return s
}

// Configured reports whether a remote store was supplied.
func (s *Service) Configured() bool { return s.remote != nil }

// Status returns the last computed connectivity.
func (s *Service) Status() Connectivity {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Now is the service clock.
func (s *Service) Now() time.Time { return s.now() }

// =============================================================================
// PROBES
// =============================================================================

// CheckConnection runs a count-only query on reservations and records
// whether the remote store answered.
func (s *Service) CheckConnection(ctx context.Context) bool {
	if s.remote == nil {
		s.setStatus(func(c *Connectivity) { c.Online = false })
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	started := s.now()
	_, err := s.remote.Count(ctx, store.TableReservations)
	s.metrics.ObserveRemote(store.TableReservations, "count", started, err)

	online := err == nil
	if !online {
		log.Printf("[Service] Connection probe failed: %v", err)
	}
	s.setStatus(func(c *Connectivity) { c.Online = online })
	return online
}

// CheckSchema probes the orders relation. A missing relation (42P01) means
// the deployment was never migrated. Any other error reported by the store
// means the relation exists; a transport failure means it cannot be known.
func (s *Service) CheckSchema(ctx context.Context) bool {
	if s.remote == nil {
		s.setStatus(func(c *Connectivity) { c.SchemaReady = false })
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	started := s.now()
	_, err := s.remote.Select(ctx, store.Query{Table: store.TableOrders, Limit: 1})
	s.metrics.ObserveRemote(store.TableOrders, "select", started, err)

	ready := schemaReady(err)
	if !ready {
		log.Printf("[Service] Schema probe: orders relation unavailable: %v", err)
	}
	s.setStatus(func(c *Connectivity) { c.SchemaReady = ready })
	return ready
}

func schemaReady(err error) bool {
	switch {
	case err == nil:
		return true
	case store.IsUndefinedTable(err):
		return false
	case store.IsStoreError(err):
		return true
	default:
		return false
	}
}

// Probe runs both probes and returns the resulting status.
func (s *Service) Probe(ctx context.Context) Connectivity {
	s.CheckConnection(ctx)
	s.CheckSchema(ctx)
	return s.Status()
}

func (s *Service) setStatus(fn func(*Connectivity)) {
	s.statusMu.Lock()
	fn(&s.status)
	s.status.Configured = s.remote != nil
	s.status.CheckedAt = s.now()
	st := s.status
	s.statusMu.Unlock()

	s.metrics.SetConnectivity(st.Online, st.SchemaReady)
}

// =============================================================================
// HELPERS
// =============================================================================

// remoteCall times and counts one remote operation.
func (s *Service) remoteCall(table, op string, fn func() error) error {
	started := s.now()
	err := fn()
	s.metrics.ObserveRemote(table, op, started, err)
	return err
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now()
	if err := s.events.Publish(ctx, e); err != nil {
		log.Printf("[Service] Publish %s for %s failed: %v", e.Type, e.Subject, err)
	}
}

// mutateCache runs fn with the cache lock held.
func (s *Service) mutateCache(fn func()) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	fn()
}
