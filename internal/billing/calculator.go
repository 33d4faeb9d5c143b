// Package billing computes the tiered photo and shipping charges for a
// fulfilled order and files them as invoice line items with the payment
// gateway.
//
// All money is handled as decimal dollars; conversion to integer cents
// happens only at the gateway boundary, so tier arithmetic never suffers
// floating-point drift.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/pkg/collection"
)

// Charge is the computed billing outcome for one order.
type Charge struct {
	// BillablePhotos is how many photos carry a per-photo rate.
	BillablePhotos int

	// PhotoCharge and Shipping are decimal dollar amounts.
	PhotoCharge decimal.Decimal
	Shipping    decimal.Decimal
}

// PhotoChargeCents converts the photo charge to minor currency units.
func (c Charge) PhotoChargeCents() int64 { return toCents(c.PhotoCharge) }

// ShippingCents converts the shipping charge to minor currency units.
func (c Charge) ShippingCents() int64 { return toCents(c.Shipping) }

// Zero reports whether nothing is chargeable.
func (c Charge) Zero() bool {
	return c.PhotoCharge.IsZero() && c.Shipping.IsZero()
}

func toCents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Calculator is the pure tier rule engine.
type Calculator struct {
	cfg   config.Billing
	rates config.Rates
}

// NewCalculator builds a Calculator from billing configuration.
func NewCalculator(cfg config.Billing) *Calculator {
	return &Calculator{cfg: cfg, rates: cfg.Rates}
}

// Calculate maps (plan, photo count) to the order's charge.
//
// Pay-as-you-go orders pay a single per-photo rate picked by the order's
// size bucket, applied to every photo. Fixed-allowance plans are free up to
// the included count, then pay a shipping surcharge, and beyond the overage
// threshold also a per-photo rate on the excess. Unknown plans charge
// nothing: fail-safe, not fail-closed.
func (c *Calculator) Calculate(plan string, photoCount int) Charge {
	switch {
	case plan == c.cfg.PayAsYouGoPlan:
		return c.payAsYouGo(photoCount)
	case c.isAllowancePlan(plan):
		return c.fixedAllowance(photoCount)
	default:
		return Charge{}
	}
}

func (c *Calculator) payAsYouGo(count int) Charge {
	r := c.rates

	var rate decimal.Decimal
	switch {
	case count <= r.PAYGFreeLimit:
		rate = decimal.Zero
	case count <= r.PAYGTier1Limit:
		rate = decimal.RequireFromString(r.PAYGTier1Rate)
	case count <= r.PAYGTier2Limit:
		rate = decimal.RequireFromString(r.PAYGTier2Rate)
	default:
		rate = decimal.RequireFromString(r.PAYGTier3Rate)
	}

	shipping := decimal.RequireFromString(r.PAYGShipping)
	if count > r.PAYGBulkThreshold {
		shipping = decimal.RequireFromString(r.PAYGBulkShipping)
	}

	charge := Charge{Shipping: shipping, PhotoCharge: decimal.Zero}
	if !rate.IsZero() {
		charge.BillablePhotos = count
		charge.PhotoCharge = rate.Mul(decimal.NewFromInt(int64(count)))
	}
	return charge
}

func (c *Calculator) fixedAllowance(count int) Charge {
	r := c.rates

	switch {
	case count <= r.PlanIncluded:
		return Charge{PhotoCharge: decimal.Zero, Shipping: decimal.Zero}

	case count < r.PlanOverageFrom:
		return Charge{
			PhotoCharge: decimal.Zero,
			Shipping:    decimal.RequireFromString(r.PlanMidShipping),
		}

	default:
		overage := count - r.PlanOverageFrom
		rate := decimal.RequireFromString(r.PlanOverageRate)
		return Charge{
			BillablePhotos: overage,
			PhotoCharge:    rate.Mul(decimal.NewFromInt(int64(overage))),
			Shipping:       decimal.RequireFromString(r.PlanBulkShipping),
		}
	}
}

func (c *Calculator) isAllowancePlan(plan string) bool {
	return collection.Contains(c.cfg.Plans, func(p string) bool { return p == plan })
}
