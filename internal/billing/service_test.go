package billing_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapkeep/printworks/internal/billing"
	"github.com/snapkeep/printworks/internal/model"
)

type fakeGateway struct {
	items   []fakeItem
	failOn  string // description substring that triggers a failure
	failErr error
}

type fakeItem struct {
	customer    string
	amountCents int64
	currency    string
	description string
}

func (g *fakeGateway) AddInvoiceItem(_ context.Context, customer string, amount int64, currency, desc string) error {
	if g.failOn != "" && desc == g.failOn {
		return g.failErr
	}
	g.items = append(g.items, fakeItem{customer, amount, currency, desc})
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(gw billing.Gateway) *billing.Service {
	cfg := testBillingConfig()
	cfg.ShippingDescription = "Shipping"
	cfg.ChargeDescription = "Photos [%d]"
	return billing.NewService(cfg, billing.NewCalculator(cfg), gw, discard())
}

func paygUser() *model.User {
	return &model.User{Username: "ana", Plan: "PAYG", BillingCustomerID: "cus_123"}
}

func TestInvoiceSubmitsBothLineItems(t *testing.T) {
	gw := &fakeGateway{}
	info := newService(gw).Invoice(context.Background(), paygUser(), 8)

	assert.Equal(t, billing.StatusSuccess, info.Status)
	require.Len(t, gw.items, 2)

	assert.Equal(t, "Shipping", gw.items[0].description)
	assert.Equal(t, int64(300), gw.items[0].amountCents)
	assert.Equal(t, "cus_123", gw.items[0].customer)
	assert.Equal(t, "usd", gw.items[0].currency)

	assert.Equal(t, "Photos [8]", gw.items[1].description)
	assert.Equal(t, int64(640), gw.items[1].amountCents)
}

func TestInvoiceSkipsZeroCharge(t *testing.T) {
	gw := &fakeGateway{}
	user := &model.User{Username: "ben", Plan: "VALUE100", BillingCustomerID: "cus_456"}

	info := newService(gw).Invoice(context.Background(), user, 30)

	assert.Equal(t, billing.StatusSkipped, info.Status)
	assert.Empty(t, gw.items)
}

func TestInvoicePartialFailure(t *testing.T) {
	gw := &fakeGateway{failOn: "Shipping", failErr: errors.New("card declined")}

	info := newService(gw).Invoice(context.Background(), paygUser(), 8)

	assert.Equal(t, billing.StatusPartial, info.Status)
	assert.Error(t, info.ShippingErr)
	assert.NoError(t, info.PhotosErr)
	assert.True(t, info.Failed())

	// The photo line item still went through.
	require.Len(t, gw.items, 1)
	assert.Equal(t, "Photos [8]", gw.items[0].description)
}

func TestInvoiceTotalFailure(t *testing.T) {
	gw := &failAllGateway{}

	info := newService(gw).Invoice(context.Background(), paygUser(), 8)

	assert.Equal(t, billing.StatusFailed, info.Status)
	assert.True(t, info.Failed())
}

type failAllGateway struct{}

func (failAllGateway) AddInvoiceItem(context.Context, string, int64, string, string) error {
	return fmt.Errorf("gateway unavailable")
}
