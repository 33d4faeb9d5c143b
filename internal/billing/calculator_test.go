package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/billing"
)

func testBillingConfig() config.Billing {
	return config.Billing{
		Enabled:        true,
		Plans:          []string{"VALUE100", "PHOTOADDICT100", "UNLTD100SHIP"},
		PayAsYouGoPlan: "PAYG",
		Currency:       "usd",
		Rates: config.Rates{
			PAYGFreeLimit:  5,
			PAYGTier1Limit: 10,
			PAYGTier2Limit: 50,
			PAYGTier1Rate:  "0.80",
			PAYGTier2Rate:  "0.50",
			PAYGTier3Rate:  "0.30",

			PAYGShipping:      "3.00",
			PAYGBulkShipping:  "6.00",
			PAYGBulkThreshold: 50,

			PlanIncluded:     50,
			PlanOverageFrom:  100,
			PlanOverageRate:  "0.50",
			PlanMidShipping:  "2.00",
			PlanBulkShipping: "4.00",
		},
	}
}

func TestPayAsYouGoTiers(t *testing.T) {
	calc := billing.NewCalculator(testBillingConfig())

	tests := []struct {
		name          string
		count         int
		photoCents    int64
		shippingCents int64
		billable      int
	}{
		{"free bucket", 3, 0, 300, 0},
		{"free boundary", 5, 0, 300, 0},
		{"tier one applies to all photos", 8, 640, 300, 8},
		{"tier one boundary", 10, 800, 300, 10},
		{"tier two", 25, 1250, 300, 25},
		{"tier two boundary", 50, 2500, 300, 50},
		{"tier three with bulk shipping", 60, 1800, 600, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := calc.Calculate("PAYG", tt.count)
			assert.Equal(t, tt.photoCents, c.PhotoChargeCents())
			assert.Equal(t, tt.shippingCents, c.ShippingCents())
			assert.Equal(t, tt.billable, c.BillablePhotos)
		})
	}
}

func TestFixedAllowancePlans(t *testing.T) {
	calc := billing.NewCalculator(testBillingConfig())

	tests := []struct {
		name          string
		count         int
		photoCents    int64
		shippingCents int64
		billable      int
	}{
		{"within allowance", 30, 0, 0, 0},
		{"allowance boundary", 50, 0, 0, 0},
		{"mid band pays shipping only", 51, 0, 200, 0},
		{"mid band upper", 99, 0, 200, 0},
		{"overage threshold", 100, 0, 400, 0},
		{"overage per photo", 120, 1000, 400, 20},
	}
	for _, plan := range []string{"VALUE100", "PHOTOADDICT100", "UNLTD100SHIP"} {
		for _, tt := range tests {
			t.Run(plan+"/"+tt.name, func(t *testing.T) {
				c := calc.Calculate(plan, tt.count)
				assert.Equal(t, tt.photoCents, c.PhotoChargeCents())
				assert.Equal(t, tt.shippingCents, c.ShippingCents())
				assert.Equal(t, tt.billable, c.BillablePhotos)
			})
		}
	}
}

func TestUnknownPlanChargesNothing(t *testing.T) {
	calc := billing.NewCalculator(testBillingConfig())

	c := calc.Calculate("LEGACY_GOLD", 200)
	assert.True(t, c.Zero())
	assert.Zero(t, c.BillablePhotos)
}

func TestZeroPhotosIsFreeShippingForAllowance(t *testing.T) {
	calc := billing.NewCalculator(testBillingConfig())

	c := calc.Calculate("VALUE100", 0)
	assert.True(t, c.Zero())
}
