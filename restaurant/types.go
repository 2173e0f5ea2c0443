/*
Package restaurant holds the canonical records of the back office.

PURPOSE:
  Every remote row and every cached payload is converted into one of the
  types in this package before the rest of the system touches it. Handlers,
  the financial aggregator and the pre-order linker only ever see these
  shapes: camelCase JSON, typed money, defaulted strings.

KEY CONCEPTS IN THIS FILE (types.go):
  - RecordID: identifier + origin (remote-assigned or created offline)
  - Reservation, Announcement, MenuItem, Order, OrderItem
  - ReservationStatus / OrderStatus and their allowed transitions

MONEY:
  Prices and totals are decimal.Decimal. An order total is fixed when the
  order is created and never recomputed.

SEE ALSO:
  - normalize.go: remote row -> canonical record
  - finance.go: revenue aggregation
  - linker.go: reservation <-> pre-order heuristic
*/
package restaurant

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD IDENTITY
// =============================================================================

// Origin tells where a record's identifier was assigned.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// LocalPrefix is written on every synthesized offline identifier.
const LocalPrefix = "local_"

// RecordID is an identifier tagged with its origin. Local records only
// exist in the fallback cache; the remote store has no row for them.
type RecordID struct {
	Value  string `json:"value"`
	Origin Origin `json:"origin"`
}

// RemoteID wraps an identifier assigned by the remote store.
func RemoteID(v string) RecordID { return RecordID{Value: v, Origin: OriginRemote} }

// LocalID wraps an identifier synthesized while offline.
func LocalID(v string) RecordID { return RecordID{Value: v, Origin: OriginLocal} }

func (id RecordID) IsLocal() bool  { return id.Origin == OriginLocal }
func (id RecordID) IsZero() bool   { return id.Value == "" }
func (id RecordID) String() string { return id.Value }

// UnmarshalJSON accepts the tagged object form and the bare string form
// written by older cache payloads. Bare strings are classified by prefix.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*id = ParseRecordID(v)
		return nil
	}

	type plain RecordID
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Origin != OriginLocal {
		p.Origin = OriginRemote
	}
	*id = RecordID(p)
	return nil
}

// ParseRecordID classifies a bare identifier by its prefix.
func ParseRecordID(v string) RecordID {
	if strings.HasPrefix(v, LocalPrefix) {
		return LocalID(v)
	}
	return RemoteID(v)
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a reservation in status s may move to next.
// Re-applying the current status is allowed and has no effect.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ReservationPending:
		return next == ReservationConfirmed || next == ReservationCancelled
	case ReservationConfirmed:
		return next == ReservationCancelled
	}
	return false
}

type Reservation struct {
	ID         RecordID          `json:"id"`
	ClientName string            `json:"clientName"`
	Phone      string            `json:"phone"`
	Pax        string            `json:"pax"`
	Date       string            `json:"date"`
	Time       string            `json:"time"`
	TableType  string            `json:"tableType"`
	Status     ReservationStatus `json:"status"`
	CreatedAt  int64             `json:"createdAt"`
}

// =============================================================================
// ANNOUNCEMENTS
// =============================================================================

type Announcement struct {
	ID        RecordID `json:"id"`
	Message   string   `json:"message"`
	IsActive  bool     `json:"isActive"`
	CreatedAt int64    `json:"createdAt"`
}

// =============================================================================
// MENU
// =============================================================================

type Category string

const (
	CategoryMeats    Category = "carnes"
	CategoryPasta    Category = "massas"
	CategoryStarters Category = "entradas"
	CategoryDesserts Category = "sobremesas"
	CategoryWines    Category = "vinhos"
	CategoryOther    Category = "outros"
)

// Categories lists the catalog sections in display order.
var Categories = []Category{CategoryMeats, CategoryPasta, CategoryStarters, CategoryDesserts, CategoryWines}

// Known reports whether c is one of the fixed catalog sections.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return c == CategoryOther
}

// MenuItem ids are plain text: the menu relation uses a text primary key
// and the catalog is the one collection whose ids are chosen client-side.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Highlight   bool            `json:"highlight"`
	Image       string          `json:"image"`
}

// =============================================================================
// ORDERS
// =============================================================================

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderPaid           OrderStatus = "paid"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

var orderRank = map[OrderStatus]int{
	OrderPendingPayment: 0,
	OrderPaid:           1,
	OrderPreparing:      2,
	OrderReady:          3,
	OrderDelivered:      4,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderRank[s]
	return ok || s == OrderCancelled
}

// Terminal reports whether no further status change is accepted.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo enforces forward-only movement through the kitchen
// pipeline. Cancellation is accepted from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return orderRank[next] > orderRank[s]
}

type OrderItem struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// Subtotal is quantity x unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID          RecordID        `json:"id"`
	ClientName  string          `json:"clientName"`
	ClientPhone string          `json:"clientPhone"`
	Total       decimal.Decimal `json:"total"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   int64           `json:"createdAt"`
	PaymentID   string          `json:"paymentId,omitempty"`
	Items       []OrderItem     `json:"items"`
}

// OrderTotal sums quantity x price over items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
