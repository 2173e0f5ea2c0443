package store

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownTable is returned for a relation outside the hosted schema.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned for a column outside the relation.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoFilter guards Delete against wiping a relation by accident.
	ErrNoFilter = errors.New("delete requires at least one filter")
)

// CodeUndefinedTable is the SQLSTATE for "relation does not exist". It is
// how an un-migrated deployment shows up.
const CodeUndefinedTable = "42P01"

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// Error is a failure reported by the store itself (as opposed to a
// transport failure). Code is the machine-readable code, when there is one.
type Error struct {
	Op      string
	Table   string
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %s (%s)", e.Op, e.Table, e.Message, e.Code)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Table, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsUndefinedTable reports whether err says the relation is missing,
// either by code or by the store's message.
func IsUndefinedTable(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code == CodeUndefinedTable {
		return true
	}
	return strings.Contains(se.Message, "relation \"public.") && strings.Contains(se.Message, "does not exist")
}

// IsStoreError reports whether err was produced by the store (it has an
// *Error in its chain) rather than by the network or the caller.
func IsStoreError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
