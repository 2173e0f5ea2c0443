package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider opens Stripe Checkout sessions paid by card.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider returns a provider for secretKey. An empty key yields a
// provider whose sessions fail with ErrNotConfigured.
func NewStripeProvider(secretKey string) *StripeProvider {
	if secretKey == "" {
		return &StripeProvider{}
	}
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreateSession(ctx context.Context, s Session) (string, error) {
	if p.api == nil {
		return "", ErrNotConfigured
	}

	params := stripeParams(s)
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Msg != "" {
			return "", errors.New(se.Msg)
		}
		return "", err
	}
	return sess.URL, nil
}

func stripeParams(s Session) *stripe.CheckoutSessionParams {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(s.LineItems))
	for _, li := range s.LineItems {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	return &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lines,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.SuccessURL),
		CancelURL:          stripe.String(s.CancelURL),
		ClientReferenceID:  stripe.String(s.OrderID),
	}
}
