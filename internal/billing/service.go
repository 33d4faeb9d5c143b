package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/model"
)

// Gateway files one invoice line item against a customer. Satisfied by the
// Stripe implementation in stripe.go and by fakes in tests.
type Gateway interface {
	AddInvoiceItem(ctx context.Context, customerID string, amountCents int64, currency, description string) error
}

// Outcome statuses for a billing run.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// PaymentInfo is the composite outcome of one billing run. The two line
// items are submitted independently, so one can succeed while the other
// fails; callers must record the composite, never assume atomicity.
type PaymentInfo struct {
	Status     string
	PhotoCount int

	ShippingCents    int64
	PhotoChargeCents int64

	ShippingErr error
	PhotosErr   error
}

// Failed reports whether any line item submission failed.
func (p PaymentInfo) Failed() bool {
	return p.ShippingErr != nil || p.PhotosErr != nil
}

// Service computes an order's charge and submits it to the gateway.
type Service struct {
	cfg     config.Billing
	calc    *Calculator
	gateway Gateway
	log     *slog.Logger
}

// NewService wires the billing service.
func NewService(cfg config.Billing, calc *Calculator, gateway Gateway, log *slog.Logger) *Service {
	return &Service{cfg: cfg, calc: calc, gateway: gateway, log: log}
}

// Invoice computes the charge for the user's plan and files the shipping
// and photo line items as two separate, independently reported invoice
// items. A gateway failure never rolls back the completed physical
// fulfillment; it is surfaced through PaymentInfo for analytics.
func (s *Service) Invoice(ctx context.Context, user *model.User, photoCount int) PaymentInfo {
	charge := s.calc.Calculate(user.Plan, photoCount)

	info := PaymentInfo{
		PhotoCount:       photoCount,
		ShippingCents:    charge.ShippingCents(),
		PhotoChargeCents: charge.PhotoChargeCents(),
	}

	if charge.Zero() {
		info.Status = StatusSkipped
		s.log.Info("nothing to invoice", "user", user.Username, "plan", user.Plan, "photos", photoCount)
		return info
	}

	if info.ShippingCents > 0 {
		info.ShippingErr = s.gateway.AddInvoiceItem(ctx,
			user.BillingCustomerID, info.ShippingCents, s.cfg.Currency, s.cfg.ShippingDescription)
	}
	if info.PhotoChargeCents > 0 {
		desc := fmt.Sprintf(s.cfg.ChargeDescription, photoCount)
		info.PhotosErr = s.gateway.AddInvoiceItem(ctx,
			user.BillingCustomerID, info.PhotoChargeCents, s.cfg.Currency, desc)
	}

	switch {
	case info.ShippingErr == nil && info.PhotosErr == nil:
		info.Status = StatusSuccess
	case info.ShippingErr != nil && info.PhotosErr != nil:
		info.Status = StatusFailed
	default:
		info.Status = StatusPartial
	}

	if info.Failed() {
		s.log.Error("invoice submission incomplete",
			"user", user.Username, "status", info.Status,
			"shippingErr", info.ShippingErr, "photosErr", info.PhotosErr)
	} else {
		s.log.Info("invoiced order",
			"user", user.Username, "shippingCents", info.ShippingCents,
			"photoCents", info.PhotoChargeCents)
	}
	return info
}
