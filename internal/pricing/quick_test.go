package pricing

import (
	"testing"

	"hexagono/internal/apierror"
	"hexagono/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPrice_SocialMediaUsesFullPlan(t *testing.T) {
	assertAmount(t, 180000, PlanPrice(model.ServiceSocialMedia))
	assertAmount(t, 170000, PlanPrice(model.ServiceLandingPage))
	assertAmount(t, 250000, PlanPrice(model.ServiceCorporateWeb))
	assertAmount(t, 370000, PlanPrice(model.ServiceEcommerce))
}

func TestApplyUrgencyAndDiscount(t *testing.T) {
	subtotal := decimal.NewFromInt(100000)
	cases := []struct {
		urgency  Urgency
		discount Discount
		want     int64
	}{
		{UrgencyNormal, DiscountNone, 100000},
		{UrgencyUrgent, DiscountNone, 125000},
		{UrgencyVeryUrgent, DiscountNone, 150000},
		{UrgencyNormal, DiscountFirstClient, 90000},
		{UrgencyNormal, DiscountReferral, 95000},
		{UrgencyNormal, DiscountNonprofit, 85000},
		{UrgencyNormal, DiscountAnnualPlan, 80000},
		{UrgencyUrgent, DiscountFirstClient, 112500},
		{UrgencyVeryUrgent, DiscountAnnualPlan, 120000},
		{"", "", 100000},
	}
	for _, tc := range cases {
		got, err := ApplyUrgencyAndDiscount(subtotal, tc.urgency, tc.discount)
		require.NoError(t, err)
		assertAmount(t, tc.want, got, "urgency=%s discount=%s", tc.urgency, tc.discount)
	}
}

func TestApplyUrgencyAndDiscount_Rounds(t *testing.T) {
	got, err := ApplyUrgencyAndDiscount(decimal.NewFromInt(85001), UrgencyUrgent, DiscountReferral)
	require.NoError(t, err)
	// 85001 * 1.25 * 0.95 = 100938.6875
	assertAmount(t, 100939, got)
}

func TestQuick(t *testing.T) {
	q, err := Quick(QuickQuoteInput{
		ServiceType: model.ServiceSocialMedia,
		Extras:      decimal.NewFromInt(20000),
		Urgency:     UrgencyUrgent,
		Discount:    DiscountFirstClient,
	})
	require.NoError(t, err)

	assertAmount(t, 180000, q.PlanPrice)
	assertAmount(t, 200000, q.Subtotal)
	assertAmount(t, 225000, q.Total)
	assert.True(t, q.UrgencyMultiplier.Equal(decimal.RequireFromString("1.25")))
	assert.True(t, q.DiscountRate.Equal(decimal.RequireFromString("0.10")))
}

func TestQuick_RejectsUnknownInputs(t *testing.T) {
	_, err := Quick(QuickQuoteInput{ServiceType: "APP_MOBILE"})
	assert.ErrorIs(t, err, apierror.ErrPricing)

	_, err = Quick(QuickQuoteInput{ServiceType: model.ServiceLandingPage, Urgency: "yesterday"})
	assert.ErrorIs(t, err, apierror.ErrPricing)

	_, err = Quick(QuickQuoteInput{ServiceType: model.ServiceLandingPage, Discount: "friends"})
	assert.ErrorIs(t, err, apierror.ErrPricing)

	_, err = Quick(QuickQuoteInput{ServiceType: model.ServiceLandingPage, Extras: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, apierror.ErrPricing)
}
