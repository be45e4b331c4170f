package pricing

import (
	"hexagono/internal/apierror"
	"hexagono/internal/model"

	"github.com/shopspring/decimal"
)

// Urgency is the delivery-time tier of the quick calculator.
type Urgency string

const (
	UrgencyNormal     Urgency = "normal"
	UrgencyUrgent     Urgency = "urgent"
	UrgencyVeryUrgent Urgency = "very-urgent"
)

// Discount is a named flat fractional reduction.
type Discount string

const (
	DiscountNone        Discount = "none"
	DiscountFirstClient Discount = "first-client"
	DiscountReferral    Discount = "referral"
	DiscountNonprofit   Discount = "nonprofit"
	DiscountAnnualPlan  Discount = "annual-plan"
)

var urgencyMultipliers = map[Urgency]string{
	UrgencyNormal:     "1.0",
	UrgencyUrgent:     "1.25",
	UrgencyVeryUrgent: "1.5",
}

var discountRates = map[Discount]string{
	DiscountNone:        "0",
	DiscountFirstClient: "0.10",
	DiscountReferral:    "0.05",
	DiscountNonprofit:   "0.15",
	DiscountAnnualPlan:  "0.20",
}

// UrgencyMultiplier returns the multiplier for u.
func UrgencyMultiplier(u Urgency) (decimal.Decimal, error) {
	if u == "" {
		u = UrgencyNormal
	}
	m, ok := urgencyMultipliers[u]
	if !ok {
		return decimal.Zero, apierror.Pricing("urgency", "urgencia desconocida: "+string(u))
	}
	return decimal.RequireFromString(m), nil
}

// DiscountRate returns the fractional rate for d.
func DiscountRate(d Discount) (decimal.Decimal, error) {
	if d == "" {
		d = DiscountNone
	}
	r, ok := discountRates[d]
	if !ok {
		return decimal.Zero, apierror.Pricing("discount", "descuento desconocido: "+string(d))
	}
	return decimal.RequireFromString(r), nil
}

// ApplyUrgencyAndDiscount computes round(subtotal * urgency * (1 - discount)).
func ApplyUrgencyAndDiscount(subtotal decimal.Decimal, u Urgency, d Discount) (decimal.Decimal, error) {
	mult, err := UrgencyMultiplier(u)
	if err != nil {
		return decimal.Zero, err
	}
	rate, err := DiscountRate(d)
	if err != nil {
		return decimal.Zero, err
	}
	return subtotal.Mul(mult).Mul(decimal.NewFromInt(1).Sub(rate)).Round(0), nil
}

// QuickQuoteInput is the input of the plan calculator used by the quick quote
// form. Extras is an already-priced add-on subtotal.
type QuickQuoteInput struct {
	ServiceType model.ServiceType `json:"service_type"`
	Extras      decimal.Decimal   `json:"extras"`
	Urgency     Urgency           `json:"urgency"`
	Discount    Discount          `json:"discount"`
}

// QuickQuote is the plan calculator result.
type QuickQuote struct {
	ServiceType       model.ServiceType `json:"service_type"`
	PlanPrice         decimal.Decimal   `json:"plan_price"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	UrgencyMultiplier decimal.Decimal   `json:"urgency_multiplier"`
	DiscountRate      decimal.Decimal   `json:"discount_rate"`
	Total             decimal.Decimal   `json:"total"`
	Currency          string            `json:"currency"`
}

// PlanPrice returns the quick-calculator plan price for s, zero when unknown.
func PlanPrice(s model.ServiceType) decimal.Decimal {
	return decimal.NewFromInt(planPrices[s])
}

// Quick runs the urgency/discount calculator. Unlike Estimate it is strict:
// unknown services, urgencies and discounts are pricing errors.
func Quick(in QuickQuoteInput) (QuickQuote, error) {
	if !in.ServiceType.Valid() {
		return QuickQuote{}, apierror.Pricing("service_type", "tipo de servicio desconocido: "+string(in.ServiceType))
	}
	if in.Extras.IsNegative() {
		return QuickQuote{}, apierror.Pricing("extras", "el monto de extras no puede ser negativo")
	}
	mult, err := UrgencyMultiplier(in.Urgency)
	if err != nil {
		return QuickQuote{}, err
	}
	rate, err := DiscountRate(in.Discount)
	if err != nil {
		return QuickQuote{}, err
	}
	plan := PlanPrice(in.ServiceType)
	subtotal := plan.Add(in.Extras)
	total, err := ApplyUrgencyAndDiscount(subtotal, in.Urgency, in.Discount)
	if err != nil {
		return QuickQuote{}, err
	}
	return QuickQuote{
		ServiceType:       in.ServiceType,
		PlanPrice:         plan,
		Subtotal:          subtotal,
		UrgencyMultiplier: mult,
		DiscountRate:      rate,
		Total:             total,
		Currency:          Currency,
	}, nil
}
