package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway files invoice items against the customer's next Stripe
// invoice.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway with its own API client.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func (g *StripeGateway) AddInvoiceItem(ctx context.Context, customerID string, amountCents int64, currency, description string) error {
	params := &stripe.InvoiceItemParams{
		Customer:    stripe.String(customerID),
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
	}
	params.Context = ctx

	if _, err := g.api.InvoiceItems.New(params); err != nil {
		return fmt.Errorf("billing/stripe: invoice item for %s: %w", customerID, err)
	}
	return nil
}
