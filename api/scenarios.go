/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Populates the back office with realistic data for demos and manual
  testing. Loaders go through the reconciliation service like any client,
  so they work online, offline, and in degraded mode alike.

AVAILABLE SCENARIOS:
  dinner-service:  Default menu, tonight's reservations, orders at every
                   kitchen stage, one pre-order linked to a reservation
  quiet-night:     Default menu and a single announcement

NOTE:
  Scenarios add records; they never clear existing ones.

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "dinner-service"}
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fuego/backoffice/backoffice"
	"github.com/fuego/backoffice/restaurant"
)

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "dinner-service",
		Name:        "Dinner Service",
		Description: "Reservations for tonight and orders at every kitchen stage",
	},
	{
		ID:          "quiet-night",
		Name:        "Quiet Night",
		Description: "Default menu and one announcement",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	var err error
	switch req.ScenarioID {
	case "dinner-service":
		err = loadDinnerService(ctx, h.Service)
	case "quiet-night":
		err = loadQuietNight(ctx, h.Service)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadQuietNight(ctx context.Context, svc *backoffice.Service) error {
	svc.ResetMenu(ctx)
	_, err := svc.CreateAnnouncement(ctx, "Hoje fechamos às 22h")
	return err
}

func loadDinnerService(ctx context.Context, svc *backoffice.Service) error {
	svc.ResetMenu(ctx)
	date := svc.Now().Format("2006-01-02")

	if _, err := svc.CreateAnnouncement(ctx, "Música ao vivo a partir das 20h"); err != nil {
		return err
	}

	guests := []backoffice.NewReservation{
		{ClientName: "Helena Costa", Phone: "11987654321", Pax: "4 Pessoas", Date: date, Time: "19:30", TableType: "Varanda"},
		{ClientName: "Rafael Lima", Phone: "11912345678", Pax: "2 Pessoas", Date: date, Time: "20:00"},
		{ClientName: "Beatriz Souza", Phone: "11955554444", Pax: "6 Pessoas", Date: date, Time: "21:00"},
	}
	var booked []restaurant.Reservation
	for _, g := range guests {
		booked = append(booked, svc.CreateReservation(ctx, g))
	}
	if err := svc.UpdateReservationStatus(ctx, booked[2].ID, restaurant.ReservationCancelled); err != nil {
		return err
	}

	menu := restaurant.DefaultMenu()
	line := func(i, qty int) backoffice.NewOrderItem {
		it := menu[i%len(menu)]
		return backoffice.NewOrderItem{MenuItemID: it.ID, Name: it.Name, Quantity: qty, Price: it.Price}
	}

	// Helena's pre-order is placed with her reservation and stays linked by name.
	orders := []struct {
		in     backoffice.NewOrder
		status restaurant.OrderStatus
	}{
		{backoffice.NewOrder{ClientName: "Helena Costa", ClientPhone: "11987654321", Items: []backoffice.NewOrderItem{line(0, 2), line(12, 1)}}, restaurant.OrderPaid},
		{backoffice.NewOrder{ClientName: "Mesa 7", Items: []backoffice.NewOrderItem{line(3, 1), line(5, 1)}}, restaurant.OrderPreparing},
		{backoffice.NewOrder{ClientName: "Mesa 2", Items: []backoffice.NewOrderItem{line(8, 3)}}, restaurant.OrderReady},
		{backoffice.NewOrder{ClientName: "Delivery Jardins", Items: []backoffice.NewOrderItem{{Name: "Couvert", Quantity: 1, Price: decimal.NewFromInt(18)}}}, restaurant.OrderPendingPayment},
	}
	for _, o := range orders {
		created, err := svc.CreateOrder(ctx, o.in)
		if err != nil {
			return err
		}
		if o.status == restaurant.OrderPendingPayment {
			continue
		}
		if err := svc.UpdateOrderStatus(ctx, created.ID, o.status); err != nil {
			return err
		}
	}
	return nil
}
