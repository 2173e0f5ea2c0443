/*
Package postgres implements store.Remote on PostgreSQL.

PURPOSE:
  The hosted store is plain PostgreSQL. This package gives the reconciliation
  layer the same row-set surface a hosted data API would: rows come back as
  JSON objects (to_jsonb), numeric columns as JSON numbers, timestamps as
  ISO strings, uuids as strings.

SAFETY:
  Table and column names are checked against store.Schema before they are
  quoted into SQL. Values always travel as bind parameters.

ERRORS:
  Server errors become *store.Error carrying the SQLSTATE, so callers can
  tell "relation does not exist" (42P01) apart from everything else.
  Connection failures are returned wrapped, without a code.

USAGE:
  remote, err := postgres.Open(ctx, dsn)
  if err != nil {
      log.Fatal(err) // malformed DSN
  }
  defer remote.Close()
  if err := remote.WaitReady(ctx, 5, 2*time.Second); err != nil {
      log.Printf("database not reachable yet: %v", err)
  }

SEE ALSO:
  - schema.go: migration SQL and menu seed
  - store/store.go: the Remote contract
*/
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fuego/backoffice/store"
)

// querier is the subset shared by the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Remote is a store.TxRemote backed by a pgx pool.
type Remote struct {
	pool *pgxpool.Pool
	q    querier
}

var _ store.TxRemote = (*Remote)(nil)

// Open creates the pool without contacting the server. Connections are
// dialed on first use, so an unreachable database surfaces as query errors
// and the connectivity checks can recover once it comes back.
func Open(ctx context.Context, dsn string) (*Remote, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return &Remote{pool: pool, q: pool}, nil
}

// Connect opens a pool and waits until the server answers a ping,
// retrying a few times while the database starts.
func Connect(ctx context.Context, dsn string) (*Remote, error) {
	r, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := r.WaitReady(ctx, 5, 2*time.Second); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// WaitReady pings the server up to attempts times, sleeping delay between
// tries. The pool stays open whatever the outcome.
func (r *Remote) WaitReady(ctx context.Context, attempts int, delay time.Duration) error {
	const pingTTL = 5 * time.Second

	var err error
	for i := 1; i <= attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, pingTTL)
		err = r.pool.Ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("database ping canceled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

// Close releases the pool.
func (r *Remote) Close() {
	if r != nil && r.pool != nil {
		r.pool.Close()
	}
}

// =============================================================================
// READS
// =============================================================================

// Select returns the rows matching q as JSON-shaped maps.
func (r *Remote) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	rel, err := store.Lookup(q.Table)
	if err != nil {
		return nil, err
	}
	query, args, err := selectSQL(rel, q)
	if err != nil {
		return nil, err
	}

	rows, err := r.queryJSON(ctx, "select", rel.Name, query, args...)
	if err != nil {
		return nil, err
	}

	for _, child := range q.Embed {
		if err := r.embed(ctx, rows, child); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// embed attaches child rows to their parents under the child's name.
func (r *Remote) embed(ctx context.Context, parents []store.Row, child string) error {
	rel, err := store.Lookup(child)
	if err != nil {
		return err
	}
	if rel.ParentKey == "" {
		return fmt.Errorf("embed %s: %w", child, store.ErrUnknownColumn)
	}

	ids := make([]string, 0, len(parents))
	byID := make(map[string]store.Row, len(parents))
	for _, p := range parents {
		id := fmt.Sprint(p["id"])
		ids = append(ids, id)
		byID[id] = p
		p[child] = []any{}
	}
	if len(ids) == 0 {
		return nil
	}

	children, err := r.queryJSON(ctx, "select", rel.Name, embedSQL(rel), ids)
	if err != nil {
		return err
	}

	for _, c := range children {
		parent, ok := byID[fmt.Sprint(c[rel.ParentKey])]
		if !ok {
			continue
		}
		parent[child] = append(parent[child].([]any), map[string]any(c))
	}
	return nil
}

// Count returns the row count of table.
func (r *Remote) Count(ctx context.Context, table string) (int, error) {
	rel, err := store.Lookup(table)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.q.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", ident(rel.Name))).Scan(&n)
	if err != nil {
		return 0, wrapErr("count", rel.Name, err)
	}
	return n, nil
}

// =============================================================================
// WRITES
// =============================================================================

// Insert writes rows and returns them as stored. Columns missing from a
// row take the relation default.
func (r *Remote) Insert(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
	rel, err := store.Lookup(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []store.Row{}, nil
	}
	query, args, err := insertSQL(rel, rows)
	if err != nil {
		return nil, err
	}
	return r.queryJSON(ctx, "insert", rel.Name, query, args...)
}

// insertSQL builds a multi-row INSERT over the union of the rows' columns.
// A column a row does not carry is written as DEFAULT.
func insertSQL(rel store.Relation, rows []store.Row) (string, []any, error) {
	// Union of columns across rows, in a stable order.
	colSet := map[string]bool{}
	for _, row := range rows {
		for c := range row {
			if !rel.HasColumn(c) {
				return "", nil, fmt.Errorf("insert %s.%s: %w", rel.Name, c, store.ErrUnknownColumn)
			}
			colSet[c] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var (
		sb   strings.Builder
		args []any
	)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
	}
	fmt.Fprintf(&sb, "INSERT INTO %s AS t (%s) VALUES ", ident(rel.Name), strings.Join(quoted, ", "))

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		values := make([]string, len(cols))
		for j, c := range cols {
			v, ok := row[c]
			if !ok {
				values[j] = "DEFAULT"
				continue
			}
			args = append(args, bindValue(v))
			values[j] = fmt.Sprintf("$%d", len(args))
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(values, ", "))
	}
	sb.WriteString(" RETURNING to_jsonb(t)")
	return sb.String(), args, nil
}

// Update sets values on the row whose id matches.
func (r *Remote) Update(ctx context.Context, table, id string, values store.Row) error {
	rel, err := store.Lookup(table)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	query, args, err := updateSQL(rel, id, values)
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapErr("update", rel.Name, err)
	}
	return nil
}

func updateSQL(rel store.Relation, id string, values store.Row) (string, []any, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		if !rel.HasColumn(c) || c == "id" {
			return "", nil, fmt.Errorf("update %s.%s: %w", rel.Name, c, store.ErrUnknownColumn)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		args = append(args, bindValue(values[c]))
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), len(args))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id::text = $%d",
		ident(rel.Name), strings.Join(sets, ", "), len(args))
	return query, args, nil
}

// Delete removes rows matching every filter.
func (r *Remote) Delete(ctx context.Context, table string, filters ...store.Filter) error {
	rel, err := store.Lookup(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return store.ErrNoFilter
	}

	where, args, err := whereClause(rel, filters, nil)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s t%s", ident(rel.Name), where)
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapErr("delete", rel.Name, err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction.
func (r *Remote) WithTx(ctx context.Context, fn func(store.Remote) error) error {
	if r.pool == nil {
		return errors.New("nested transactions are not supported")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Remote{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit", "", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Remote) queryJSON(ctx context.Context, op, table, query string, args ...any) ([]store.Row, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, table, err)
	}
	defer rows.Close()

	out := []store.Row{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, wrapErr(op, table, err)
		}
		row, err := decodeRow(raw)
		if err != nil {
			return nil, fmt.Errorf("%s %s: decode row: %w", op, table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, table, err)
	}
	return out, nil
}

func decodeRow(raw []byte) (store.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}

func selectSQL(rel store.Relation, q store.Query) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT to_jsonb(t) FROM %s t", ident(rel.Name))

	where, args, err := whereClause(rel, q.Filters, nil)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(where)

	if q.OrderBy != "" {
		if !rel.HasColumn(q.OrderBy) {
			return "", nil, fmt.Errorf("order by %q: %w", q.OrderBy, store.ErrUnknownColumn)
		}
		fmt.Fprintf(&sb, " ORDER BY t.%s", ident(q.OrderBy))
		if q.Descending {
			sb.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	return sb.String(), args, nil
}

// embedSQL selects the children of a set of parent ids passed as $1.
func embedSQL(rel store.Relation) string {
	return fmt.Sprintf("SELECT to_jsonb(c) FROM %s c WHERE c.%s::text = ANY($1)",
		ident(rel.Name), ident(rel.ParentKey))
}

func whereClause(rel store.Relation, filters []store.Filter, args []any) (string, []any, error) {
	if len(filters) == 0 {
		return "", args, nil
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if !rel.HasColumn(f.Column) {
			return "", nil, fmt.Errorf("filter %s.%s: %w", rel.Name, f.Column, store.ErrUnknownColumn)
		}
		op := "="
		if f.Op == store.OpNeq {
			op = "<>"
		}
		args = append(args, fmt.Sprint(bindValue(f.Value)))
		parts = append(parts, fmt.Sprintf("t.%s::text %s $%d", ident(f.Column), op, len(args)))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// bindValue converts values pgx cannot encode natively.
func bindValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return v
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func wrapErr(op, table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &store.Error{
			Op:      op,
			Table:   table,
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Err:     err,
		}
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}
