// Package pricing computes quote estimates. Everything here is a pure function
// over immutable lookup tables: no I/O, no clock, no shared mutable state.
package pricing

import (
	"sort"

	"hexagono/internal/model"

	"github.com/shopspring/decimal"
)

// FeatureID is the catalog key of an optional add-on.
type FeatureID string

// Group scopes features to the services that can use them.
type Group string

const (
	GroupWeb    Group = "web"
	GroupSocial Group = "social"
)

// Feature is a catalog entry. Cost is the base cost before the service multiplier.
type Feature struct {
	ID    FeatureID       `json:"id"`
	Name  string          `json:"name"`
	Cost  decimal.Decimal `json:"cost"`
	Group Group           `json:"group"`
}

// Catalog is a keyed, read-only feature table.
type Catalog map[FeatureID]Feature

func (c Catalog) Lookup(id FeatureID) (Feature, bool) {
	f, ok := c[id]
	return f, ok
}

// Features returns the entries of group g sorted by id.
func (c Catalog) Features(g Group) []Feature {
	out := make([]Feature, 0, len(c))
	for _, f := range c {
		if f.Group == g {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func feature(id FeatureID, name string, cost int64, g Group) Feature {
	return Feature{ID: id, Name: name, Cost: decimal.NewFromInt(cost), Group: g}
}

func newDefaultCatalog() Catalog {
	entries := []Feature{
		feature("seo-optimization", "Optimización SEO", 50000, GroupWeb),
		feature("contact-form", "Formulario de contacto", 25000, GroupWeb),
		feature("blog", "Blog autoadministrable", 60000, GroupWeb),
		feature("analytics", "Integración con analíticas", 30000, GroupWeb),
		feature("multilanguage", "Sitio multi-idioma", 80000, GroupWeb),
		feature("cms", "Panel de administración de contenidos", 90000, GroupWeb),
		feature("live-chat", "Chat en vivo / WhatsApp", 35000, GroupWeb),
		feature("newsletter", "Suscripción a newsletter", 30000, GroupWeb),
		feature("booking-system", "Sistema de turnos y reservas", 100000, GroupWeb),
		feature("online-payments", "Pagos online", 120000, GroupWeb),
		feature("inventory-management", "Gestión de inventario", 110000, GroupWeb),
		feature("shipping-integration", "Integración con envíos", 70000, GroupWeb),
		feature("custom-domain", "Dominio personalizado", 20000, GroupWeb),
		feature("hosting-1-year", "Hosting por un año", 45000, GroupWeb),
		feature("content-calendar", "Calendario de contenidos", 40000, GroupSocial),
		feature("community-management", "Community management", 60000, GroupSocial),
		feature("paid-ads", "Gestión de campañas pagas", 75000, GroupSocial),
		feature("monthly-report", "Reporte mensual de métricas", 25000, GroupSocial),
		feature("photo-production", "Producción fotográfica", 55000, GroupSocial),
		feature("reels-production", "Producción de reels", 70000, GroupSocial),
	}
	c := make(Catalog, len(entries))
	for _, f := range entries {
		c[f.ID] = f
	}
	return c
}

// GroupFor returns the feature group a service draws add-ons from.
func GroupFor(s model.ServiceType) Group {
	if s == model.ServiceSocialMedia {
		return GroupSocial
	}
	return GroupWeb
}

var basePrices = map[model.ServiceType]int64{
	model.ServiceLandingPage:  170000,
	model.ServiceCorporateWeb: 250000,
	model.ServiceEcommerce:    370000,
	model.ServiceSocialMedia:  85000,
}

// planPrices is the monthly-plan table used by the quick calculator. It differs
// from basePrices only for SOCIAL_MEDIA (full management plan vs. base plan).
var planPrices = map[model.ServiceType]int64{
	model.ServiceLandingPage:  170000,
	model.ServiceCorporateWeb: 250000,
	model.ServiceEcommerce:    370000,
	model.ServiceSocialMedia:  180000,
}

var serviceMultipliers = map[model.ServiceType]string{
	model.ServiceLandingPage:  "0.8",
	model.ServiceCorporateWeb: "1.0",
	model.ServiceEcommerce:    "1.2",
	model.ServiceSocialMedia:  "1.0",
}
