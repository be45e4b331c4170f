package pricing

import (
	"strings"
	"unicode/utf8"

	"hexagono/internal/apierror"
	"hexagono/internal/model"

	"github.com/shopspring/decimal"
)

const (
	Currency = "ARS"

	// ComplexityThreshold is the custom-requirements length (in characters) above
	// which the complexity bonus applies.
	ComplexityThreshold = 100

	extendedDisclaimerFeatures  = 8
	ecommerceDisclaimerFeatures = 5
)

var (
	complexityRate = decimal.RequireFromString("0.15")

	highPriorityFloor   = decimal.NewFromInt(300000)
	mediumPriorityFloor = decimal.NewFromInt(150000)
)

const (
	disclaimerBase = "Precio estimado sujeto a revisión. La cotización final se confirma " +
		"luego de analizar los requerimientos del proyecto."
	disclaimerExtended = disclaimerBase + " Por la cantidad de funcionalidades o los " +
		"requerimientos personalizados, el valor final puede variar tras una reunión de relevamiento."
	disclaimerEcommerce = disclaimerBase + " Las integraciones de pagos, envíos y catálogo " +
		"pueden implicar costos de terceros (pasarelas, logística, licencias) no incluidos en esta estimación."
)

// EstimateInput is the feature-breakdown calculator input.
// Multiplier overrides the per-service feature multiplier when non-nil.
type EstimateInput struct {
	ServiceType        model.ServiceType
	Features           []FeatureID
	CustomRequirements string
	Multiplier         *decimal.Decimal
}

// LineItem is a priced feature in an estimate; Cost includes the multiplier.
type LineItem struct {
	ID   FeatureID       `json:"id"`
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

// Estimate is the result of the feature-breakdown calculator.
type Estimate struct {
	ServiceType     model.ServiceType `json:"service_type"`
	BasePrice       decimal.Decimal   `json:"base_price"`
	Features        []LineItem        `json:"features"`
	FeaturesTotal   decimal.Decimal   `json:"features_total"`
	ComplexityBonus decimal.Decimal   `json:"complexity_bonus"`
	Total           decimal.Decimal   `json:"total"`
	Currency        string            `json:"currency"`
	Disclaimer      string            `json:"disclaimer"`
}

// Engine holds the lookup tables. It is immutable after construction and safe
// for concurrent use.
type Engine struct {
	catalog Catalog
}

func NewEngine() *Engine {
	return &Engine{catalog: newDefaultCatalog()}
}

// Catalog returns a copy of the feature catalog.
func (e *Engine) Catalog() Catalog {
	out := make(Catalog, len(e.catalog))
	for k, v := range e.catalog {
		out[k] = v
	}
	return out
}

// BasePrice returns the base price of s, or zero for an unknown service.
// Callers validate the service type beforehand.
func (e *Engine) BasePrice(s model.ServiceType) decimal.Decimal {
	return decimal.NewFromInt(basePrices[s])
}

// FeatureCost returns the catalog cost of id before multipliers, or zero when unknown.
func (e *Engine) FeatureCost(id FeatureID) decimal.Decimal {
	f, ok := e.catalog.Lookup(id)
	if !ok {
		return decimal.Zero
	}
	return f.Cost
}

// ServiceMultiplier returns the feature multiplier configured for s (1 when unknown).
func (e *Engine) ServiceMultiplier(s model.ServiceType) decimal.Decimal {
	m, ok := serviceMultipliers[s]
	if !ok {
		return decimal.NewFromInt(1)
	}
	return decimal.RequireFromString(m)
}

// Estimate prices a request. Unknown features, and features outside the
// service's group, cost nothing and are left out of the breakdown. Repeated
// feature ids are counted once.
func (e *Engine) Estimate(in EstimateInput) Estimate {
	base := e.BasePrice(in.ServiceType)
	multiplier := e.ServiceMultiplier(in.ServiceType)
	if in.Multiplier != nil {
		multiplier = *in.Multiplier
	}
	group := GroupFor(in.ServiceType)

	items := make([]LineItem, 0, len(in.Features))
	seen := make(map[FeatureID]bool, len(in.Features))
	featuresTotal := decimal.Zero
	recognized := 0
	for _, id := range in.Features {
		if seen[id] {
			continue
		}
		seen[id] = true
		f, ok := e.catalog.Lookup(id)
		if !ok || f.Group != group {
			continue
		}
		recognized++
		cost := f.Cost.Mul(multiplier).Round(0)
		if cost.IsZero() {
			continue
		}
		items = append(items, LineItem{ID: f.ID, Name: f.Name, Cost: cost})
		featuresTotal = featuresTotal.Add(cost)
	}

	bonus := ComplexityBonus(base, in.CustomRequirements)

	return Estimate{
		ServiceType:     in.ServiceType,
		BasePrice:       base,
		Features:        items,
		FeaturesTotal:   featuresTotal,
		ComplexityBonus: bonus,
		Total:           base.Add(featuresTotal).Add(bonus),
		Currency:        Currency,
		Disclaimer:      Disclaimer(in.ServiceType, recognized, strings.TrimSpace(in.CustomRequirements) != ""),
	}
}

// ValidateFeatures is the strict counterpart of Estimate's lenient lookup: it
// rejects unknown ids and ids from another service's catalog with a pricing error.
func (e *Engine) ValidateFeatures(s model.ServiceType, ids []FeatureID) error {
	if !s.Valid() {
		return apierror.Pricing("service_type", "tipo de servicio desconocido: "+string(s))
	}
	group := GroupFor(s)
	var unknown, foreign []string
	for _, id := range ids {
		f, ok := e.catalog.Lookup(id)
		switch {
		case !ok:
			unknown = append(unknown, string(id))
		case f.Group != group:
			foreign = append(foreign, string(id))
		}
	}
	if len(unknown) > 0 {
		return apierror.Pricing("features", "funcionalidades desconocidas: "+strings.Join(unknown, ", "))
	}
	if len(foreign) > 0 {
		return apierror.Pricing("features", "funcionalidades no disponibles para "+string(s)+": "+strings.Join(foreign, ", "))
	}
	return nil
}

// ComplexityBonus is round(base * 0.15) when the custom requirements exceed
// ComplexityThreshold characters, zero otherwise.
func ComplexityBonus(base decimal.Decimal, customRequirements string) decimal.Decimal {
	if utf8.RuneCountInString(strings.TrimSpace(customRequirements)) <= ComplexityThreshold {
		return decimal.Zero
	}
	return base.Mul(complexityRate).Round(0)
}

// Disclaimer selects the estimate disclaimer. The e-commerce variant wins over
// the extended one.
func Disclaimer(s model.ServiceType, featureCount int, hasCustomRequirements bool) string {
	switch {
	case s == model.ServiceEcommerce && featureCount > ecommerceDisclaimerFeatures:
		return disclaimerEcommerce
	case featureCount > extendedDisclaimerFeatures || hasCustomRequirements:
		return disclaimerExtended
	default:
		return disclaimerBase
	}
}

// PriorityFor classifies a price. Each band includes its lower bound.
func PriorityFor(price decimal.Decimal) model.Priority {
	switch {
	case price.GreaterThanOrEqual(highPriorityFloor):
		return model.PriorityHigh
	case price.GreaterThanOrEqual(mediumPriorityFloor):
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
