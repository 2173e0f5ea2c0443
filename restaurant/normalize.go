/*
normalize.go - Remote row to canonical record conversion

PURPOSE:
  The remote store hands back loosely typed rows: snake_case keys, NULLs,
  numbers that arrive as strings, booleans encoded four different ways.
  The functions here turn those rows into fully populated records and
  never fail. A field that cannot be parsed falls back to its default.

ROW VALUES:
  Rows decode from JSON, so a value is one of: nil, string, bool,
  float64, json.Number, int/int64 (in-memory store), []any, map[string]any.

HYGIENE FILTER:
  Catalog items named "teste" or "po" (trimmed, any case) are test
  leftovers in production data and are removed from every menu read.

SEE ALSO:
  - types.go: target shapes
  - backoffice/service.go: applies these on every read path
*/
package restaurant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is a raw record as returned by the remote store.
type Row = map[string]any

// =============================================================================
// SAFE PARSING
// =============================================================================

// String returns v as a string; nil and non-scalar values become "".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	return ""
}

// Decimal parses v as a decimal, yielding zero when it cannot.
func Decimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// Int parses v as an integer, yielding def when it cannot.
func Int(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

// Truthy accepts the boolean encodings seen in remote rows:
// true, "true", "t" and 1.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "t"
	case float64:
		return t == 1
	case int:
		return t == 1
	case int64:
		return t == 1
	case json.Number:
		return t.String() == "1"
	}
	return false
}

// Millis converts a timestamp value to epoch milliseconds. Missing or
// unparseable timestamps yield fallback.
func Millis(v any, fallback time.Time) int64 {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMilli()
	case string:
		if t == "" {
			break
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UnixMilli()
			}
		}
	case float64:
		return int64(t)
	case int64:
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
	}
	return fallback.UnixMilli()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999-07",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// =============================================================================
// RESERVATIONS
// =============================================================================

// NormalizeReservation converts a reservations row. Numeric pax is
// rendered for display ("4 Pessoas").
func NormalizeReservation(row Row, now time.Time) Reservation {
	status := ReservationStatus(String(row["status"]))
	if status == "" {
		status = ReservationConfirmed
	}
	return Reservation{
		ID:         RemoteID(String(row["id"])),
		ClientName: String(row["client_name"]),
		Phone:      String(row["phone"]),
		Pax:        normalizePax(row["pax"]),
		Date:       String(row["date"]),
		Time:       String(row["time"]),
		TableType:  orDefault(String(row["table_type"]), DefaultTableType),
		Status:     status,
		CreatedAt:  Millis(row["created_at"], now),
	}
}

func normalizePax(v any) string {
	switch t := v.(type) {
	case float64, int, int64, json.Number:
		return fmt.Sprintf("%d Pessoas", Int(t, DefaultPaxCount))
	case string:
		if t != "" {
			return t
		}
	}
	return DefaultPax
}

// ParsePax extracts the party size from a display string such as
// "4 Pessoas". Strings without digits give the default party of two.
func ParsePax(pax string) int {
	var b strings.Builder
	for _, r := range pax {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n == 0 {
		return DefaultPaxCount
	}
	return n
}

// =============================================================================
// ANNOUNCEMENTS
// =============================================================================

func NormalizeAnnouncement(row Row, now time.Time) Announcement {
	return Announcement{
		ID:        RemoteID(String(row["id"])),
		Message:   String(row["message"]),
		IsActive:  Truthy(row["is_active"]),
		CreatedAt: Millis(row["created_at"], now),
	}
}

// =============================================================================
// MENU
// =============================================================================

// NormalizeCategory lower-cases and trims; empty becomes "outros".
// Unknown categories are kept.
func NormalizeCategory(v string) Category {
	c := strings.ToLower(strings.TrimSpace(v))
	if c == "" {
		return CategoryOther
	}
	return Category(c)
}

func NormalizeMenuItem(row Row) MenuItem {
	return MenuItem{
		ID:          String(row["id"]),
		Name:        orDefault(String(row["name"]), DefaultItemName),
		Description: String(row["description"]),
		Price:       Decimal(row["price"]),
		Category:    NormalizeCategory(String(row["category"])),
		Highlight:   Truthy(row["highlight"]),
		Image:       orDefault(String(row["image"]), ImageFallback),
	}
}

// IsHygieneName reports whether name marks a leftover test item.
func IsHygieneName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == "teste" || n == "po"
}

// FilterHygiene drops leftover test items. The result is never nil.
func FilterHygiene(items []MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if IsHygieneName(it.Name) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// =============================================================================
// ORDERS
// =============================================================================

// NormalizeOrder converts an orders row together with its embedded
// order_items collection.
func NormalizeOrder(row Row, now time.Time) Order {
	status := OrderStatus(String(row["status"]))
	if status == "" {
		status = OrderPendingPayment
	}

	var items []OrderItem
	if raw, ok := row["order_items"].([]any); ok {
		items = make([]OrderItem, 0, len(raw))
		for _, r := range raw {
			if child, ok := r.(map[string]any); ok {
				items = append(items, NormalizeOrderItem(child))
			}
		}
	} else if raw, ok := row["order_items"].([]Row); ok {
		items = make([]OrderItem, 0, len(raw))
		for _, child := range raw {
			items = append(items, NormalizeOrderItem(child))
		}
	}
	if items == nil {
		items = []OrderItem{}
	}

	return Order{
		ID:          RemoteID(String(row["id"])),
		ClientName:  String(row["client_name"]),
		ClientPhone: String(row["client_phone"]),
		Total:       Decimal(row["total"]),
		Status:      status,
		CreatedAt:   Millis(row["created_at"], now),
		PaymentID:   String(row["payment_id"]),
		Items:       items,
	}
}

func NormalizeOrderItem(row Row) OrderItem {
	return OrderItem{
		ID:         String(row["id"]),
		MenuItemID: String(row["menu_item_id"]),
		Name:       String(row["name"]),
		Quantity:   Int(row["quantity"], 0),
		Price:      Decimal(row["price"]),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
