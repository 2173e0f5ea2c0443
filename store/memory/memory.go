// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fuego/backoffice/store"
)

// =============================================================================
// MEMORY REMOTE - In-memory hosted store (for testing/dev)
// =============================================================================

// timestampLayout is fixed-width so created_at strings sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

type failKey struct {
	op    string
	table string
}

// Remote behaves like the hosted store: generated ids and timestamps,
// column defaults, foreign keys and cascades on order_items. Failures can
// be injected per operation and per table.
type Remote struct {
	mu       sync.RWMutex
	tables   map[string][]store.Row
	dropped  map[string]bool
	failures map[failKey]error
	calls    map[failKey]int
	now      func() time.Time
}

var _ store.TxRemote = (*Remote)(nil)

// NewRemote returns an empty store with all five relations present.
func NewRemote() *Remote {
	m := &Remote{
		tables:   make(map[string][]store.Row),
		dropped:  make(map[string]bool),
		failures: make(map[failKey]error),
		calls:    make(map[failKey]int),
		now:      time.Now,
	}
	for name := range store.Schema {
		m.tables[name] = []store.Row{}
	}
	return m
}

// SetClock replaces the clock used for generated created_at values.
func (m *Remote) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailWith makes every call fail with err, as if the network were down.
// A nil err clears it.
func (m *Remote) FailWith(err error) { m.FailOn("", "", err) }

// FailTable makes every call on table fail with err.
func (m *Remote) FailTable(table string, err error) { m.FailOn("", table, err) }

// FailOn makes op ("select", "insert", "update", "delete", "count") on
// table fail with err. Empty op or table match anything.
func (m *Remote) FailOn(op, table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := failKey{op: op, table: table}
	if err == nil {
		delete(m.failures, k)
		return
	}
	m.failures[k] = err
}

// DropTable removes a relation so calls on it fail with 42P01, like an
// un-migrated deployment.
func (m *Remote) DropTable(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[table] = true
}

// Calls returns how many times op was attempted on table.
func (m *Remote) Calls(op, table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[failKey{op: op, table: table}]
}

// Rows returns a copy of every row in table, in insertion order.
func (m *Remote) Rows(table string) []store.Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRows(m.tables[table])
}

// Put stores rows verbatim, bypassing defaults. Tests use it to seed
// rows with arbitrary shapes.
func (m *Remote) Put(table string, rows ...store.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], copyRows(rows)...)
}

// =============================================================================
// store.Remote
// =============================================================================

func (m *Remote) Select(_ context.Context, q store.Query) ([]store.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectLocked(q)
}

func (m *Remote) Insert(_ context.Context, table string, rows []store.Row) ([]store.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(table, rows)
}

func (m *Remote) Update(_ context.Context, table, id string, values store.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(table, id, values)
}

func (m *Remote) Delete(_ context.Context, table string, filters ...store.Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(table, filters)
}

func (m *Remote) Count(_ context.Context, table string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("count", table); err != nil {
		return 0, err
	}
	return len(m.tables[table]), nil
}

// WithTx executes fn within a transaction.
// Simulated with a snapshot + rollback on error.
func (m *Remote) WithTx(_ context.Context, fn func(store.Remote) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string][]store.Row, len(m.tables))
	for name, rows := range m.tables {
		snapshot[name] = copyRows(rows)
	}

	if err := fn(&txView{parent: m}); err != nil {
		m.tables = snapshot
		return err
	}
	return nil
}

// =============================================================================
// LOCKED OPERATIONS
// =============================================================================

func (m *Remote) check(op, table string) error {
	m.calls[failKey{op: op, table: table}]++

	for _, k := range []failKey{{op, table}, {op, ""}, {"", table}, {"", ""}} {
		if err, ok := m.failures[k]; ok {
			return err
		}
	}
	if _, err := store.Lookup(table); err != nil {
		return err
	}
	if m.dropped[table] {
		return &store.Error{
			Op:      op,
			Table:   table,
			Code:    store.CodeUndefinedTable,
			Message: fmt.Sprintf("relation \"public.%s\" does not exist", table),
		}
	}
	return nil
}

func (m *Remote) selectLocked(q store.Query) ([]store.Row, error) {
	if err := m.check("select", q.Table); err != nil {
		return nil, err
	}
	rel, _ := store.Lookup(q.Table)

	out := []store.Row{}
	for _, row := range m.tables[q.Table] {
		if matches(row, q.Filters) {
			out = append(out, copyRow(row))
		}
	}

	if q.OrderBy != "" {
		if !rel.HasColumn(q.OrderBy) {
			return nil, columnError("select", q.Table, q.OrderBy)
		}
		sort.SliceStable(out, func(i, j int) bool {
			a, b := fmt.Sprint(out[i][q.OrderBy]), fmt.Sprint(out[j][q.OrderBy])
			if q.Descending {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	for _, child := range q.Embed {
		crel, err := store.Lookup(child)
		if err != nil {
			return nil, err
		}
		if err := m.check("select", child); err != nil {
			return nil, err
		}
		for _, parent := range out {
			items := []any{}
			for _, c := range m.tables[child] {
				if fmt.Sprint(c[crel.ParentKey]) == fmt.Sprint(parent["id"]) {
					items = append(items, map[string]any(copyRow(c)))
				}
			}
			parent[child] = items
		}
	}
	return out, nil
}

func (m *Remote) insertLocked(table string, rows []store.Row) ([]store.Row, error) {
	if err := m.check("insert", table); err != nil {
		return nil, err
	}
	rel, _ := store.Lookup(table)

	prepared := make([]store.Row, 0, len(rows))
	for _, in := range rows {
		row := store.Row{}
		for c, v := range store.Defaults[table] {
			row[c] = v
		}
		for c, v := range in {
			if !rel.HasColumn(c) {
				return nil, columnError("insert", table, c)
			}
			row[c] = v
		}
		for _, g := range rel.Generated {
			if _, ok := row[g]; ok {
				continue
			}
			switch g {
			case "id":
				row["id"] = uuid.NewString()
			case "created_at":
				row["created_at"] = m.now().UTC().Format(timestampLayout)
			}
		}

		id, ok := row["id"]
		if !ok || id == nil {
			return nil, &store.Error{Op: "insert", Table: table, Code: "23502",
				Message: fmt.Sprintf("null value in column \"id\" of relation \"%s\" violates not-null constraint", table)}
		}
		if m.indexOf(table, fmt.Sprint(id)) >= 0 || containsID(prepared, fmt.Sprint(id)) {
			return nil, &store.Error{Op: "insert", Table: table, Code: "23505",
				Message: fmt.Sprintf("duplicate key value violates unique constraint \"%s_pkey\"", table)}
		}
		if rel.Parent != "" {
			if m.indexOf(rel.Parent, fmt.Sprint(row[rel.ParentKey])) < 0 {
				return nil, &store.Error{Op: "insert", Table: table, Code: "23503",
					Message: fmt.Sprintf("insert or update on table \"%s\" violates foreign key constraint", table)}
			}
		}
		prepared = append(prepared, row)
	}

	m.tables[table] = append(m.tables[table], prepared...)
	return copyRows(prepared), nil
}

func (m *Remote) updateLocked(table, id string, values store.Row) error {
	if err := m.check("update", table); err != nil {
		return err
	}
	rel, _ := store.Lookup(table)
	for c := range values {
		if !rel.HasColumn(c) || c == "id" {
			return columnError("update", table, c)
		}
	}

	i := m.indexOf(table, id)
	if i < 0 {
		return nil
	}
	for c, v := range values {
		m.tables[table][i][c] = v
	}
	return nil
}

func (m *Remote) deleteLocked(table string, filters []store.Filter) error {
	if err := m.check("delete", table); err != nil {
		return err
	}
	if len(filters) == 0 {
		return store.ErrNoFilter
	}

	var kept []store.Row
	removed := map[string]bool{}
	for _, row := range m.tables[table] {
		if matches(row, filters) {
			removed[fmt.Sprint(row["id"])] = true
			continue
		}
		kept = append(kept, row)
	}
	if kept == nil {
		kept = []store.Row{}
	}
	m.tables[table] = kept

	// on delete cascade
	for name, rel := range store.Schema {
		if rel.Parent != table {
			continue
		}
		var children []store.Row
		for _, c := range m.tables[name] {
			if !removed[fmt.Sprint(c[rel.ParentKey])] {
				children = append(children, c)
			}
		}
		if children == nil {
			children = []store.Row{}
		}
		m.tables[name] = children
	}
	return nil
}

func (m *Remote) indexOf(table, id string) int {
	for i, row := range m.tables[table] {
		if fmt.Sprint(row["id"]) == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// TRANSACTION VIEW
// =============================================================================

// txView runs calls against the parent while WithTx holds its lock.
type txView struct {
	parent *Remote
}

func (tv *txView) Select(_ context.Context, q store.Query) ([]store.Row, error) {
	return tv.parent.selectLocked(q)
}

func (tv *txView) Insert(_ context.Context, table string, rows []store.Row) ([]store.Row, error) {
	return tv.parent.insertLocked(table, rows)
}

func (tv *txView) Update(_ context.Context, table, id string, values store.Row) error {
	return tv.parent.updateLocked(table, id, values)
}

func (tv *txView) Delete(_ context.Context, table string, filters ...store.Filter) error {
	return tv.parent.deleteLocked(table, filters)
}

func (tv *txView) Count(_ context.Context, table string) (int, error) {
	if err := tv.parent.check("count", table); err != nil {
		return 0, err
	}
	return len(tv.parent.tables[table]), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func matches(row store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		eq := fmt.Sprint(row[f.Column]) == fmt.Sprint(f.Value)
		if (f.Op == store.OpNeq) == eq {
			return false
		}
	}
	return true
}

func columnError(op, table, column string) error {
	return &store.Error{
		Op:      op,
		Table:   table,
		Code:    "42703",
		Message: fmt.Sprintf("column \"%s\" of relation \"%s\" does not exist", column, table),
		Err:     store.ErrUnknownColumn,
	}
}

func containsID(rows []store.Row, id string) bool {
	for _, r := range rows {
		if fmt.Sprint(r["id"]) == id {
			return true
		}
	}
	return false
}

func copyRow(r store.Row) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func copyRows(rows []store.Row) []store.Row {
	out := make([]store.Row, len(rows))
	for i, r := range rows {
		out[i] = copyRow(r)
	}
	return out
}
