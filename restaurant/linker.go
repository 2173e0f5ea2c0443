package restaurant

import (
	"strings"
	"time"
)

// PreorderWindow bounds how far apart a reservation and its food order
// may have been created.
const PreorderWindow = 10 * time.Minute

// LinkedOrder finds the order placed alongside a reservation. Orders carry
// no reservation reference, so the match is by client name (trimmed,
// case-folded) and creation time strictly within PreorderWindow. The
// first matching order wins.
func LinkedOrder(res Reservation, orders []Order) (Order, bool) {
	name := foldName(res.ClientName)
	window := PreorderWindow.Milliseconds()

	for _, o := range orders {
		if foldName(o.ClientName) != name {
			continue
		}
		diff := o.CreatedAt - res.CreatedAt
		if diff < 0 {
			diff = -diff
		}
		if diff < window {
			return o, true
		}
	}
	return Order{}, false
}

// LinkedItems returns the items of the linked pre-order, or an empty slice.
func LinkedItems(res Reservation, orders []Order) []OrderItem {
	o, ok := LinkedOrder(res, orders)
	if !ok || o.Items == nil {
		return []OrderItem{}
	}
	return o.Items
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
