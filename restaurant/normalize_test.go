package restaurant

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func TestNormalizeReservation_Defaults(t *testing.T) {
	// GIVEN: a sparse row with numeric pax and no table type
	row := Row{"id": "r1", "client_name": "Ana", "pax": float64(4), "table_type": nil}

	// WHEN
	r := NormalizeReservation(row, now)

	// THEN
	assert.Equal(t, RemoteID("r1"), r.ID)
	assert.Equal(t, "4 Pessoas", r.Pax)
	assert.Equal(t, DefaultTableType, r.TableType)
	assert.Equal(t, ReservationConfirmed, r.Status)
	assert.Equal(t, now.UnixMilli(), r.CreatedAt, "missing timestamp falls back to now")
}

func TestNormalizeReservation_PaxForms(t *testing.T) {
	tests := []struct {
		pax  any
		want string
	}{
		{nil, DefaultPax},
		{"", DefaultPax},
		{"6 Pessoas", "6 Pessoas"},
		{json.Number("3"), "3 Pessoas"},
		{int64(8), "8 Pessoas"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeReservation(Row{"pax": tt.pax}, now).Pax, "%v", tt.pax)
	}
}

func TestParsePax(t *testing.T) {
	assert.Equal(t, 4, ParsePax("4 Pessoas"))
	assert.Equal(t, 12, ParsePax("12"))
	assert.Equal(t, DefaultPaxCount, ParsePax("muitas"))
	assert.Equal(t, DefaultPaxCount, ParsePax(""))
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{true, "true", "t", float64(1), 1, json.Number("1")} {
		assert.True(t, Truthy(v), "%#v", v)
	}
	for _, v := range []any{false, "false", "f", "yes", float64(0), nil, "1"} {
		assert.False(t, Truthy(v), "%#v", v)
	}
}

func TestDecimal_NeverFails(t *testing.T) {
	assert.True(t, Decimal("89.90").Equal(decimal.RequireFromString("89.9")))
	assert.True(t, Decimal(json.Number("12.5")).Equal(decimal.RequireFromString("12.5")))
	assert.True(t, Decimal(float64(3)).Equal(decimal.NewFromInt(3)))
	assert.True(t, Decimal("abc").IsZero())
	assert.True(t, Decimal(nil).IsZero())
	assert.True(t, Decimal(map[string]any{}).IsZero())
}

func TestMillis_Layouts(t *testing.T) {
	want := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC).UnixMilli()

	assert.Equal(t, want, Millis("2024-05-01T18:30:00Z", now))
	assert.Equal(t, want, Millis("2024-05-01T18:30:00.000000+00:00", now))
	assert.Equal(t, want, Millis("2024-05-01 18:30:00+00", now))
	assert.Equal(t, now.UnixMilli(), Millis("yesterday", now))
	assert.Equal(t, now.UnixMilli(), Millis(nil, now))
}

func TestNormalizeMenuItem(t *testing.T) {
	it := NormalizeMenuItem(Row{
		"id": "item_1", "name": "", "price": "42.5", "category": " Carnes ",
		"highlight": "t", "image": nil,
	})

	assert.Equal(t, DefaultItemName, it.Name)
	assert.Equal(t, CategoryMeats, it.Category)
	assert.True(t, it.Highlight)
	assert.Equal(t, ImageFallback, it.Image)
	assert.Equal(t, "42.5", it.Price.String())

	assert.Equal(t, CategoryOther, NormalizeMenuItem(Row{}).Category)
}

func TestFilterHygiene(t *testing.T) {
	items := []MenuItem{{ID: "1", Name: "Picanha"}, {ID: "2", Name: " TESTE "}, {ID: "3", Name: "Po"}, {ID: "4", Name: "Pão"}}

	got := FilterHygiene(items)

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
	assert.NotNil(t, FilterHygiene(nil))
}

func TestNormalizeOrder_UnnestsItems(t *testing.T) {
	row := Row{
		"id": "o1", "client_name": "Caio", "total": json.Number("236.00"), "status": "paid",
		"created_at": "2024-05-15T11:00:00Z",
		"order_items": []any{
			map[string]any{"id": "i1", "name": "Tiramisu", "quantity": json.Number("2"), "price": "28"},
			"garbage",
		},
	}

	o := NormalizeOrder(row, now)

	assert.Equal(t, OrderPaid, o.Status)
	assert.Equal(t, "236", o.Total.String())
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	empty := NormalizeOrder(Row{"id": "o2"}, now)
	assert.Equal(t, OrderPendingPayment, empty.Status)
	assert.NotNil(t, empty.Items)
}
