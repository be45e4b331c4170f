package pricing

import (
	"strings"
	"testing"

	"hexagono/internal/apierror"
	"hexagono/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, decimal.NewFromInt(want).String(), got.Round(0).String(), msgAndArgs...)
}

func TestBasePrice_AllServiceTypes(t *testing.T) {
	e := NewEngine()
	assertAmount(t, 170000, e.BasePrice(model.ServiceLandingPage))
	assertAmount(t, 250000, e.BasePrice(model.ServiceCorporateWeb))
	assertAmount(t, 370000, e.BasePrice(model.ServiceEcommerce))
	assertAmount(t, 85000, e.BasePrice(model.ServiceSocialMedia))
}

func TestBasePrice_UnknownServiceIsZero(t *testing.T) {
	assert.True(t, NewEngine().BasePrice("APP_MOBILE").IsZero())
}

func TestFeatureCost(t *testing.T) {
	e := NewEngine()
	assertAmount(t, 50000, e.FeatureCost("seo-optimization"))
	assert.True(t, e.FeatureCost("unknown-x").IsZero())
}

func TestEstimate_EmptyFeaturesTotalIsBasePrice(t *testing.T) {
	e := NewEngine()
	for _, s := range model.ServiceTypes() {
		est := e.Estimate(EstimateInput{ServiceType: s})
		assert.True(t, est.Total.Equal(e.BasePrice(s)), s)
		assert.Empty(t, est.Features)
		assert.True(t, est.ComplexityBonus.IsZero())
		assert.Equal(t, "ARS", est.Currency)
	}
}

func TestEstimate_LandingPageSEO(t *testing.T) {
	est := NewEngine().Estimate(EstimateInput{
		ServiceType: model.ServiceLandingPage,
		Features:    []FeatureID{"seo-optimization"},
	})

	require.Len(t, est.Features, 1)
	assertAmount(t, 40000, est.Features[0].Cost)
	assertAmount(t, 40000, est.FeaturesTotal)
	assertAmount(t, 210000, est.Total)
}

func TestEstimate_UnknownFeatureOmitted(t *testing.T) {
	est := NewEngine().Estimate(EstimateInput{
		ServiceType: model.ServiceLandingPage,
		Features:    []FeatureID{"unknown-x", "seo-optimization"},
	})

	require.Len(t, est.Features, 1)
	assert.Equal(t, FeatureID("seo-optimization"), est.Features[0].ID)
	assertAmount(t, 210000, est.Total)
}

func TestEstimate_FeatureFromOtherGroupOmitted(t *testing.T) {
	est := NewEngine().Estimate(EstimateInput{
		ServiceType: model.ServiceSocialMedia,
		Features:    []FeatureID{"online-payments", "paid-ads"},
	})

	require.Len(t, est.Features, 1)
	assert.Equal(t, FeatureID("paid-ads"), est.Features[0].ID)
	assertAmount(t, 85000+75000, est.Total)
}

func TestEstimate_TotalInvariant(t *testing.T) {
	e := NewEngine()
	inputs := []EstimateInput{
		{ServiceType: model.ServiceCorporateWeb, Features: []FeatureID{"blog", "cms", "analytics"}},
		{ServiceType: model.ServiceEcommerce, Features: []FeatureID{"online-payments", "shipping-integration"}, CustomRequirements: strings.Repeat("x", 150)},
		{ServiceType: model.ServiceLandingPage, Features: []FeatureID{"contact-form", "live-chat"}},
	}
	for _, in := range inputs {
		est := e.Estimate(in)
		multiplier := e.ServiceMultiplier(in.ServiceType)
		sum := decimal.Zero
		for _, id := range in.Features {
			sum = sum.Add(e.FeatureCost(id).Mul(multiplier).Round(0))
		}
		want := e.BasePrice(in.ServiceType).Add(sum).Add(est.ComplexityBonus)
		assert.True(t, want.Equal(est.Total), "service %s: want %s got %s", in.ServiceType, want, est.Total)
		assert.True(t, est.FeaturesTotal.Equal(sum))
	}
}

func TestEstimate_MultiplierOverride(t *testing.T) {
	one := decimal.NewFromInt(1)
	est := NewEngine().Estimate(EstimateInput{
		ServiceType: model.ServiceLandingPage,
		Features:    []FeatureID{"seo-optimization"},
		Multiplier:  &one,
	})
	assertAmount(t, 220000, est.Total)
}

func TestEstimate_DuplicateFeaturesCountedOnce(t *testing.T) {
	est := NewEngine().Estimate(EstimateInput{
		ServiceType: model.ServiceCorporateWeb,
		Features:    []FeatureID{"blog", "blog"},
	})
	require.Len(t, est.Features, 1)
	assertAmount(t, 310000, est.Total)
}

func TestEstimate_DisclaimerIgnoresDroppedFeatures(t *testing.T) {
	bogus := []FeatureID{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	est := NewEngine().Estimate(EstimateInput{ServiceType: model.ServiceCorporateWeb, Features: bogus})
	assert.Empty(t, est.Features)
	assert.Equal(t, disclaimerBase, est.Disclaimer)

	repeated := make([]FeatureID, 10)
	for i := range repeated {
		repeated[i] = "blog"
	}
	est = NewEngine().Estimate(EstimateInput{ServiceType: model.ServiceCorporateWeb, Features: repeated})
	require.Len(t, est.Features, 1)
	assert.Equal(t, disclaimerBase, est.Disclaimer)
}

func TestComplexityBonus(t *testing.T) {
	base := decimal.NewFromInt(170000)

	assert.True(t, ComplexityBonus(base, strings.Repeat("a", 100)).IsZero(), "exactly 100 chars does not exceed the threshold")
	assertAmount(t, 25500, ComplexityBonus(base, strings.Repeat("a", 101)))
	assert.True(t, ComplexityBonus(base, "").IsZero())
}

func TestEstimate_ComplexityBonusAppliedToTotal(t *testing.T) {
	est := NewEngine().Estimate(EstimateInput{
		ServiceType:        model.ServiceCorporateWeb,
		CustomRequirements: strings.Repeat("requerimiento ", 10),
	})
	assertAmount(t, 37500, est.ComplexityBonus)
	assertAmount(t, 287500, est.Total)
}

func TestDisclaimer_Variants(t *testing.T) {
	base := Disclaimer(model.ServiceLandingPage, 2, false)
	extendedByCount := Disclaimer(model.ServiceCorporateWeb, 9, false)
	extendedByCustom := Disclaimer(model.ServiceLandingPage, 0, true)
	ecommerce := Disclaimer(model.ServiceEcommerce, 6, false)

	assert.Equal(t, disclaimerBase, base)
	assert.Equal(t, disclaimerExtended, extendedByCount)
	assert.Equal(t, disclaimerExtended, extendedByCustom)
	assert.Equal(t, disclaimerEcommerce, ecommerce)
	assert.Equal(t, disclaimerBase, Disclaimer(model.ServiceCorporateWeb, 8, false), "8 features is not above the threshold")
	assert.Equal(t, disclaimerBase, Disclaimer(model.ServiceEcommerce, 5, false))
}

func TestPriorityFor_Boundaries(t *testing.T) {
	cases := map[int64]model.Priority{
		0:      model.PriorityLow,
		149999: model.PriorityLow,
		150000: model.PriorityMedium,
		299999: model.PriorityMedium,
		300000: model.PriorityHigh,
		900000: model.PriorityHigh,
	}
	for price, want := range cases {
		assert.Equal(t, want, PriorityFor(decimal.NewFromInt(price)), "price %d", price)
	}
}

func TestValidateFeatures(t *testing.T) {
	e := NewEngine()

	assert.NoError(t, e.ValidateFeatures(model.ServiceLandingPage, []FeatureID{"seo-optimization", "blog"}))
	assert.NoError(t, e.ValidateFeatures(model.ServiceSocialMedia, nil))

	err := e.ValidateFeatures(model.ServiceLandingPage, []FeatureID{"seo-optimization", "unknown-x"})
	require.ErrorIs(t, err, apierror.ErrPricing)
	assert.Contains(t, err.Error(), "unknown-x")

	err = e.ValidateFeatures(model.ServiceSocialMedia, []FeatureID{"online-payments"})
	require.ErrorIs(t, err, apierror.ErrPricing)
	assert.Contains(t, err.Error(), "online-payments")

	err = e.ValidateFeatures("APP_MOBILE", nil)
	assert.ErrorIs(t, err, apierror.ErrPricing)
}

func TestCatalog_IsACopy(t *testing.T) {
	e := NewEngine()
	c := e.Catalog()
	delete(c, "seo-optimization")

	assertAmount(t, 50000, e.FeatureCost("seo-optimization"))
	assert.NotEmpty(t, e.Catalog().Features(GroupSocial))
}
