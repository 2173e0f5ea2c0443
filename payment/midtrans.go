package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransCurrency is the only currency Snap accounts charge in.
const MidtransCurrency = "idr"

// ErrMidtransCurrency is returned for a session priced in another currency.
var ErrMidtransCurrency = errors.New("midtrans charges in idr only")

// MidtransProvider opens Midtrans Snap pages. Snap prices are whole rupiah,
// so minor units are divided by 100 and a fractional amount is rejected.
type MidtransProvider struct {
	serverKey string
	env       midtrans.EnvironmentType
}

// NewMidtransProvider returns a provider for serverKey; production selects
// the live environment instead of the sandbox.
func NewMidtransProvider(serverKey string, production bool) *MidtransProvider {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	return &MidtransProvider{serverKey: serverKey, env: env}
}

func (p *MidtransProvider) Name() string { return "midtrans" }

func (p *MidtransProvider) CreateSession(_ context.Context, s Session) (string, error) {
	if p.serverKey == "" {
		return "", ErrNotConfigured
	}

	req, err := snapRequest(s)
	if err != nil {
		return "", err
	}

	var c snap.Client
	c.New(p.serverKey, p.env)

	resp, mErr := c.CreateTransaction(req)
	if mErr != nil {
		return "", fmt.Errorf("midtrans: %s", mErr.GetMessage())
	}
	return resp.RedirectURL, nil
}

func snapRequest(s Session) (*snap.Request, error) {
	if !strings.EqualFold(s.Currency, MidtransCurrency) {
		return nil, fmt.Errorf("%w: session currency is %q", ErrMidtransCurrency, s.Currency)
	}

	items := make([]midtrans.ItemDetails, 0, len(s.LineItems))
	var gross int64
	for i, li := range s.LineItems {
		if li.UnitAmount%100 != 0 {
			return nil, fmt.Errorf("midtrans: %s is not a whole rupiah amount", li.Name)
		}
		price := li.UnitAmount / 100
		items = append(items, midtrans.ItemDetails{
			ID:    fmt.Sprintf("%s-%d", s.OrderID, i+1),
			Name:  li.Name,
			Price: price,
			Qty:   int32(li.Quantity),
		})
		gross += price * li.Quantity
	}

	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  s.OrderID,
			GrossAmt: gross,
		},
		Items:     &items,
		Callbacks: &snap.Callbacks{Finish: s.SuccessURL},
	}, nil
}
