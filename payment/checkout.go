/*
Package payment creates hosted checkout sessions for customer orders.

PURPOSE:
  The storefront posts an order id, its lines and the URL to come back to.
  A provider (Stripe, or Midtrans) creates a hosted checkout page and the
  handler answers with its URL. Failures are returned to the caller as
  {"error": message} with status 400; nothing is retried.

AMOUNTS:
  Unit prices arrive as decimal currency and are converted once, here, to
  integer minor units: round(price * 100).

REDIRECTS:
  success: <returnUrl>?success=true&order_id=<orderId>
  cancel:  <returnUrl>?canceled=true
*/
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ISO code every session is priced in.
const DefaultCurrency = "brl"

// ErrNotConfigured is returned when a provider has no secret key.
var ErrNotConfigured = errors.New("payment configuration incomplete on server")

// Item is one requested line.
type Item struct {
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity" validate:"required,min=1"`
}

// Request is the checkout request body.
type Request struct {
	OrderID   string `json:"orderId" validate:"required"`
	Items     []Item `json:"items" validate:"required,min=1,dive"`
	ReturnURL string `json:"returnUrl" validate:"required,url"`
}

// LineItem is an Item priced in minor units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// Session is everything a provider needs to open a checkout page.
type Session struct {
	OrderID    string
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
}

// Provider opens hosted checkout pages.
type Provider interface {
	Name() string
	CreateSession(ctx context.Context, s Session) (url string, err error)
}

// MinorUnits converts a decimal price to integer cents, rounding half away
// from zero.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// LineItems prices every item in minor units.
func LineItems(items []Item) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, LineItem{
			Name:       it.Name,
			UnitAmount: MinorUnits(it.Price),
			Quantity:   it.Quantity,
		})
	}
	return out
}

func SuccessURL(returnURL, orderID string) string {
	return fmt.Sprintf("%s?success=true&order_id=%s", returnURL, orderID)
}

func CancelURL(returnURL string) string {
	return returnURL + "?canceled=true"
}

// NewSession builds the provider-neutral session for a request.
func NewSession(req Request, currency string) (Session, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	for _, it := range req.Items {
		if it.Price.IsNegative() {
			return Session{}, fmt.Errorf("item %q: price must not be negative", it.Name)
		}
	}
	return Session{
		OrderID:    req.OrderID,
		Currency:   currency,
		LineItems:  LineItems(req.Items),
		SuccessURL: SuccessURL(req.ReturnURL, req.OrderID),
		CancelURL:  CancelURL(req.ReturnURL),
	}, nil
}
