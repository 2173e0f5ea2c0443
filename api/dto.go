/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures of the back office API. Record identifiers
  are flattened: "id" carries the value and "local" is true for records
  that only exist in the local fallback cache.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator/v10 tags; handlers call Validate.Struct
  before delegating. Domain rules (status values, transitions, prices)
  are enforced by the backoffice service.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fuego/backoffice/backoffice"
	"github.com/fuego/backoffice/restaurant"
)

// =============================================================================
// REQUESTS
// =============================================================================

type CreateReservationRequest struct {
	ClientName string `json:"clientName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Pax        string `json:"pax"`
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
	TableType  string `json:"tableType"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateAnnouncementRequest struct {
	Message string `json:"message" validate:"required"`
}

type ToggleAnnouncementRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type CreateMenuItemRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Highlight   bool            `json:"highlight"`
	Image       string          `json:"image"`
}

type UpdatePriceRequest struct {
	Price *decimal.Decimal `json:"price" validate:"required"`
}

type OrderItemRequest struct {
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name" validate:"required"`
	Quantity   int             `json:"quantity" validate:"min=1"`
	Price      decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	ClientName  string             `json:"clientName" validate:"required"`
	ClientPhone string             `json:"clientPhone"`
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (r CreateReservationRequest) toNew() backoffice.NewReservation {
	return backoffice.NewReservation{
		ClientName: r.ClientName,
		Phone:      r.Phone,
		Pax:        r.Pax,
		Date:       r.Date,
		Time:       r.Time,
		TableType:  r.TableType,
	}
}

func (r CreateMenuItemRequest) toNew() backoffice.NewMenuItem {
	return backoffice.NewMenuItem{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Highlight:   r.Highlight,
		Image:       r.Image,
	}
}

func (r CreateOrderRequest) toNew() backoffice.NewOrder {
	items := make([]backoffice.NewOrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, backoffice.NewOrderItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}
	return backoffice.NewOrder{ClientName: r.ClientName, ClientPhone: r.ClientPhone, Items: items}
}

// =============================================================================
// RESPONSES
// =============================================================================

type ReservationDTO struct {
	ID         string `json:"id"`
	Local      bool   `json:"local"`
	ClientName string `json:"clientName"`
	Phone      string `json:"phone"`
	Pax        string `json:"pax"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	TableType  string `json:"tableType"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"createdAt"`
}

type AnnouncementDTO struct {
	ID        string `json:"id"`
	Local     bool   `json:"local"`
	Message   string `json:"message"`
	IsActive  bool   `json:"isActive"`
	CreatedAt int64  `json:"createdAt"`
}

type OrderItemDTO struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type OrderDTO struct {
	ID          string          `json:"id"`
	Local       bool            `json:"local"`
	ClientName  string          `json:"clientName"`
	ClientPhone string          `json:"clientPhone"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   int64           `json:"createdAt"`
	PaymentID   string          `json:"paymentId,omitempty"`
	Items       []OrderItemDTO  `json:"items"`
}

type StatusDTO struct {
	Configured  bool      `json:"configured"`
	Online      bool      `json:"online"`
	SchemaReady bool      `json:"schemaReady"`
	Degraded    bool      `json:"degraded"`
	CheckedAt   time.Time `json:"checkedAt"`
	Events      string    `json:"events"` // disabled | ok | down
}

type OverviewDTO struct {
	TotalReservations     int `json:"totalReservations"`
	PendingReservations   int `json:"pendingReservations"`
	ConfirmedReservations int `json:"confirmedReservations"`
	TodayOrders           int `json:"todayOrders"`
	KitchenOrders         int `json:"kitchenOrders"`
}

type FinanceDTO struct {
	CurrentRevenue  decimal.Decimal   `json:"currentRevenue"`
	PreviousRevenue decimal.Decimal   `json:"previousRevenue"`
	GrowthPercent   float64           `json:"growthPercent"`
	DailyRevenue    []decimal.Decimal `json:"dailyRevenue"`
	MaxDailyRevenue decimal.Decimal   `json:"maxDailyRevenue"`
}

type BoardDTO struct {
	Active    bool       `json:"active"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Orders    []OrderDTO `json:"orders"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toReservationDTO(r restaurant.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:         r.ID.Value,
		Local:      r.ID.IsLocal(),
		ClientName: r.ClientName,
		Phone:      r.Phone,
		Pax:        r.Pax,
		Date:       r.Date,
		Time:       r.Time,
		TableType:  r.TableType,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

func toReservationDTOs(list []restaurant.Reservation) []ReservationDTO {
	out := make([]ReservationDTO, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationDTO(r))
	}
	return out
}

func toAnnouncementDTOs(list []restaurant.Announcement) []AnnouncementDTO {
	out := make([]AnnouncementDTO, 0, len(list))
	for _, a := range list {
		out = append(out, AnnouncementDTO{
			ID:        a.ID.Value,
			Local:     a.ID.IsLocal(),
			Message:   a.Message,
			IsActive:  a.IsActive,
			CreatedAt: a.CreatedAt,
		})
	}
	return out
}

func toOrderItemDTOs(items []restaurant.OrderItem) []OrderItemDTO {
	out := make([]OrderItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, OrderItemDTO(it))
	}
	return out
}

func toOrderDTO(o restaurant.Order) OrderDTO {
	return OrderDTO{
		ID:          o.ID.Value,
		Local:       o.ID.IsLocal(),
		ClientName:  o.ClientName,
		ClientPhone: o.ClientPhone,
		Total:       o.Total,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		PaymentID:   o.PaymentID,
		Items:       toOrderItemDTOs(o.Items),
	}
}

func toOrderDTOs(list []restaurant.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderDTO(o))
	}
	return out
}

func toMenu(items []restaurant.MenuItem) []restaurant.MenuItem {
	if items == nil {
		return []restaurant.MenuItem{}
	}
	return items
}

func toStatusDTO(c backoffice.Connectivity) StatusDTO {
	return StatusDTO{
		Configured:  c.Configured,
		Online:      c.Online,
		SchemaReady: c.SchemaReady,
		Degraded:    c.Degraded(),
		CheckedAt:   c.CheckedAt,
	}
}

func toFinanceDTO(s restaurant.FinancialStats) FinanceDTO {
	return FinanceDTO{
		CurrentRevenue:  s.CurrentRevenue,
		PreviousRevenue: s.PreviousRevenue,
		GrowthPercent:   s.GrowthPercent,
		DailyRevenue:    s.DailyRevenue[:],
		MaxDailyRevenue: s.MaxDailyRevenue,
	}
}
