package restaurant

import (
	"sort"
	"time"
)

// OverviewStats are the headline counters of the dashboard.
type OverviewStats struct {
	TotalReservations     int
	PendingReservations   int
	ConfirmedReservations int
	TodayOrders           int
	KitchenOrders         int
}

// Overview counts reservations by status, orders created on now's
// calendar day, and orders the kitchen is working on (paid or preparing).
func Overview(reservations []Reservation, orders []Order, now time.Time) OverviewStats {
	var s OverviewStats
	s.TotalReservations = len(reservations)
	for _, r := range reservations {
		switch r.Status {
		case ReservationPending:
			s.PendingReservations++
		case ReservationConfirmed:
			s.ConfirmedReservations++
		}
	}

	y, m, d := now.Date()
	for _, o := range orders {
		oy, om, od := time.UnixMilli(o.CreatedAt).In(now.Location()).Date()
		if oy == y && om == m && od == d {
			s.TodayOrders++
		}
		if o.Status == OrderPaid || o.Status == OrderPreparing {
			s.KitchenOrders++
		}
	}
	return s
}

// FilterReservations keeps reservations in the given status ("" or "all"
// keeps everything), newest first.
func FilterReservations(list []Reservation, status string) []Reservation {
	out := make([]Reservation, 0, len(list))
	for _, r := range list {
		if r.ID.IsZero() {
			continue
		}
		if status == "" || status == "all" || string(r.Status) == status {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}
