package backoffice

import (
	"context"

	"github.com/fuego/backoffice/restaurant"
)

// Overview computes the dashboard counters from freshly reconciled data.
func (s *Service) Overview(ctx context.Context) restaurant.OverviewStats {
	return restaurant.Overview(s.FetchReservations(ctx), s.FetchOrders(ctx), s.now())
}

// Financials computes revenue figures over the current order history.
func (s *Service) Financials(ctx context.Context) restaurant.FinancialStats {
	return restaurant.Financials(s.FetchOrders(ctx), s.now())
}

// Preorder returns the items of the order linked to a reservation, and
// false when the reservation is unknown.
func (s *Service) Preorder(ctx context.Context, id restaurant.RecordID) ([]restaurant.OrderItem, bool) {
	for _, r := range s.FetchReservations(ctx) {
		if r.ID.Value == id.Value {
			return restaurant.LinkedItems(r, s.FetchOrders(ctx)), true
		}
	}
	return nil, false
}
