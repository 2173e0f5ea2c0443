/*
handlers.go - HTTP API handlers for the back office

PURPOSE:
  Exposes the reconciliation service over REST. Handles HTTP
  request/response, JSON serialization and request validation, and
  delegates everything else to backoffice.Service.

ENDPOINTS:
  Status:
    GET    /api/status                      Connectivity state and event broker health
    POST   /api/status/probe                Re-run connection and schema probes
    GET    /api/overview                    Dashboard counters

  Reservations:
    GET    /api/reservations                List (optional ?status=)
    POST   /api/reservations                Create
    PATCH  /api/reservations/{id}/status    Change status
    GET    /api/reservations/{id}/preorder  Linked pre-order items

  Announcements:
    GET    /api/announcements               List
    POST   /api/announcements               Create
    POST   /api/announcements/{id}/toggle   Set active flag

  Menu:
    GET    /api/menu                        Catalog
    POST   /api/menu                        Add item
    PATCH  /api/menu/{id}/price             Change price
    DELETE /api/menu/{id}                   Remove item
    POST   /api/menu/reset                  Restore default catalog

  Orders:
    GET    /api/orders                      List
    POST   /api/orders                      Create
    PATCH  /api/orders/{id}/status          Change status
    GET    /api/orders/board                Board snapshot

  Finance:
    GET    /api/finance                     Revenue figures
    GET    /api/finance/report.xlsx         Monthly workbook

ERROR HANDLING:
  Storage failures never reach this layer; the service absorbs them.
  - 400: Malformed body, validation errors, invalid status or price
  - 404: Unknown reservation for pre-order lookup
  - 409: Status transition not allowed
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fuego/backoffice/backoffice"
	"github.com/fuego/backoffice/events"
	"github.com/fuego/backoffice/report"
	"github.com/fuego/backoffice/restaurant"
	"github.com/fuego/backoffice/store/postgres"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *backoffice.Service
	Board    *backoffice.Board
	Validate *validator.Validate

	// Events reports the kitchen event broker link; nil when none is configured.
	Events events.Pinger
}

// NewHandler creates a handler around a service and its order board.
func NewHandler(svc *backoffice.Service, board *backoffice.Board) *Handler {
	return &Handler{
		Service:  svc,
		Board:    board,
		Validate: validator.New(),
	}
}

// =============================================================================
// STATUS
// =============================================================================

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	dto := toStatusDTO(h.Service.Status())
	dto.Events = h.eventsHealth()
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) eventsHealth() string {
	if h.Events == nil {
		return "disabled"
	}
	if err := h.Events.Ping(); err != nil {
		log.Printf("[Events] Broker link down: %v", err)
		return "down"
	}
	return "ok"
}

func (h *Handler) Probe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStatusDTO(h.Service.Probe(r.Context())))
}

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OverviewDTO(h.Service.Overview(r.Context())))
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	list := h.Service.FetchReservations(r.Context())
	list = restaurant.FilterReservations(list, r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, toReservationDTOs(list))
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.Service.CreateReservation(r.Context(), req.toNew())
	writeJSON(w, http.StatusCreated, toReservationDTO(res))
}

func (h *Handler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := h.Service.ResolveReservationID(r.Context(), chi.URLParam(r, "id"))
	err := h.Service.UpdateReservationStatus(r.Context(), id, restaurant.ReservationStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.Value, "status": req.Status})
}

func (h *Handler) GetPreorder(w http.ResponseWriter, r *http.Request) {
	id := h.Service.ResolveReservationID(r.Context(), chi.URLParam(r, "id"))
	items, ok := h.Service.Preorder(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "Reservation not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toOrderItemDTOs(items))
}

// =============================================================================
// ANNOUNCEMENTS
// =============================================================================

func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAnnouncementDTOs(h.Service.FetchAnnouncements(r.Context())))
}

func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req CreateAnnouncementRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.Service.CreateAnnouncement(r.Context(), req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAnnouncementDTOs([]restaurant.Announcement{a})[0])
}

func (h *Handler) ToggleAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req ToggleAnnouncementRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := h.Service.ResolveAnnouncementID(r.Context(), chi.URLParam(r, "id"))
	list := h.Service.ToggleAnnouncement(r.Context(), id, *req.Active)
	writeJSON(w, http.StatusOK, toAnnouncementDTOs(list))
}

// =============================================================================
// MENU
// =============================================================================

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toMenu(h.Service.FetchMenu(r.Context())))
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req CreateMenuItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.Service.CreateMenuItem(r.Context(), req.toNew())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItemPrice(w http.ResponseWriter, r *http.Request) {
	var req UpdatePriceRequest
	if !h.decode(w, r, &req) {
		return
	}
	menu, err := h.Service.UpdateMenuItemPrice(r.Context(), chi.URLParam(r, "id"), *req.Price)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenu(menu))
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toMenu(h.Service.DeleteMenuItem(r.Context(), chi.URLParam(r, "id"))))
}

func (h *Handler) ResetMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toMenu(h.Service.ResetMenu(r.Context())))
}

// =============================================================================
// ORDERS
// =============================================================================

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toOrderDTOs(h.Service.FetchOrders(r.Context())))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	o, err := h.Service.CreateOrder(r.Context(), req.toNew())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := h.Service.ResolveOrderID(r.Context(), chi.URLParam(r, "id"))
	err := h.Service.UpdateOrderStatus(r.Context(), id, restaurant.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.Value, "status": req.Status})
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	snap := h.Board.Snapshot()
	writeJSON(w, http.StatusOK, BoardDTO{
		Active:    snap.Active,
		FetchedAt: snap.FetchedAt,
		Orders:    toOrderDTOs(snap.Orders),
	})
}

func (h *Handler) ActivateBoard(w http.ResponseWriter, r *http.Request) {
	h.Board.Activate()
	h.GetBoard(w, r)
}

func (h *Handler) DeactivateBoard(w http.ResponseWriter, r *http.Request) {
	h.Board.Deactivate()
	h.GetBoard(w, r)
}

// =============================================================================
// FINANCE
// =============================================================================

func (h *Handler) GetFinance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toFinanceDTO(h.Service.Financials(r.Context())))
}

func (h *Handler) GetFinanceReport(w http.ResponseWriter, r *http.Request) {
	now := h.Service.Now()
	orders := h.Service.FetchOrders(r.Context())

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="fuego_%s.xlsx"`, now.Format("2006_01")))
	if err := report.Monthly(w, orders, now); err != nil {
		log.Printf("[API] Report generation failed: %v", err)
	}
}

// =============================================================================
// ADMIN
// =============================================================================

// GetSchemaSQL returns the migration script plus the default menu seed, for
// pasting into the hosted database console.
func (h *Handler) GetSchemaSQL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(postgres.SchemaSQL))
	w.Write([]byte("\n"))
	w.Write([]byte(postgres.SeedSQL(backoffice.DefaultMenuRows())))
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backoffice.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Status change not allowed", err)
	case errors.Is(err, backoffice.ErrInvalidStatus),
		errors.Is(err, backoffice.ErrInvalidPrice),
		errors.Is(err, backoffice.ErrEmptyMessage),
		errors.Is(err, backoffice.ErrNoItems),
		errors.Is(err, backoffice.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
