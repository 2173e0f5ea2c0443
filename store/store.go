/*
Package store defines the persistence capabilities the back office consumes.

PURPOSE:
  Two black boxes sit under the reconciliation layer:
  - Remote: the hosted relational store (reservations, announcements,
    menu_items, orders, order_items). Row-set queries, insert-returning,
    update-by-id, delete-by-filter and a count-only probe.
  - KV: the local fallback cache, one JSON payload per key.

  Both are interfaces so the service can run against PostgreSQL, SQLite,
  Redis or the in-memory fakes without knowing which.

KEY INTERFACES:
  Remote:   row-set capability of the hosted store
  TxRemote: Remote + all-or-nothing execution of several calls
  KV:       durable key -> payload storage

IMPLEMENTATIONS:
  - store/postgres: Remote on PostgreSQL (pgx)
  - store/sqlite:   KV on SQLite
  - store/redis:    KV on Redis
  - store/memory:   Remote and KV in memory (tests, dev mode)

SEE ALSO:
  - errors.go: structured store errors
  - backoffice/service.go: the only consumer
*/
package store

import "context"

// Relation names of the hosted schema.
const (
	TableReservations  = "reservations"
	TableAnnouncements = "announcements"
	TableMenuItems     = "menu_items"
	TableOrders        = "orders"
	TableOrderItems    = "order_items"
)

// Row is one record of a relation, keyed by column name. Embedded child
// collections appear under the child relation's name as []Row.
type Row = map[string]any

// Op is a filter comparison.
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
)

// Filter restricts a query or delete to rows where Column Op Value.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// Neq is shorthand for an inequality filter.
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }

// Query describes a row-set read.
type Query struct {
	Table      string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int // 0 = no limit

	// Embed lists child relations to attach to each row, e.g. order_items
	// under orders. Children are matched on <singular parent>_id.
	Embed []string
}

// =============================================================================
// REMOTE - hosted relational store
// =============================================================================

// Remote is the capability surface of the hosted data store. Every call
// either returns rows or an error; *Error carries the store's code.
type Remote interface {
	// Select returns the rows matching q.
	Select(ctx context.Context, q Query) ([]Row, error)

	// Insert writes rows and returns them as stored, including defaults
	// the store filled in (id, created_at, status).
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)

	// Update sets values on the row with the given id. Matching no row is
	// not an error.
	Update(ctx context.Context, table, id string, values Row) error

	// Delete removes rows matching all filters. At least one filter is
	// required; "delete all" is expressed as Neq on an impossible id.
	Delete(ctx context.Context, table string, filters ...Filter) error

	// Count returns the number of rows without fetching them.
	Count(ctx context.Context, table string) (int, error)
}

// TxRemote runs several Remote calls atomically.
type TxRemote interface {
	Remote

	// WithTx executes fn within a transaction.
	// If fn returns error, everything it wrote is rolled back.
	WithTx(ctx context.Context, fn func(Remote) error) error
}

// =============================================================================
// KV - local fallback cache
// =============================================================================

// KV persists one opaque payload per key.
type KV interface {
	// Get returns the payload stored under key; ok is false when absent.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Set replaces the payload stored under key.
	Set(ctx context.Context, key string, payload []byte) error

	Close() error
}
