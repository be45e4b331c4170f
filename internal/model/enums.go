package model

// ServiceType is the closed set of services the company quotes.
type ServiceType string

const (
	ServiceLandingPage  ServiceType = "LANDING_PAGE"
	ServiceCorporateWeb ServiceType = "CORPORATE_WEB"
	ServiceEcommerce    ServiceType = "ECOMMERCE"
	ServiceSocialMedia  ServiceType = "SOCIAL_MEDIA"
)

// ServiceTypes lists every service type in catalog order.
func ServiceTypes() []ServiceType {
	return []ServiceType{ServiceLandingPage, ServiceCorporateWeb, ServiceEcommerce, ServiceSocialMedia}
}

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceLandingPage, ServiceCorporateWeb, ServiceEcommerce, ServiceSocialMedia:
		return true
	}
	return false
}

// Label returns the client-facing (Spanish) name used in emails and PDFs.
func (s ServiceType) Label() string {
	switch s {
	case ServiceLandingPage:
		return "Landing page"
	case ServiceCorporateWeb:
		return "Sitio web corporativo"
	case ServiceEcommerce:
		return "Tienda online"
	case ServiceSocialMedia:
		return "Gestión de redes sociales"
	default:
		return string(s)
	}
}

// QuoteStatus is the lifecycle state of a Quote.
// PENDING → IN_REVIEW → QUOTED → COMPLETED, with CANCELLED reachable from any open state.
type QuoteStatus string

const (
	StatusPending   QuoteStatus = "PENDING"
	StatusInReview  QuoteStatus = "IN_REVIEW"
	StatusQuoted    QuoteStatus = "QUOTED"
	StatusCompleted QuoteStatus = "COMPLETED"
	StatusCancelled QuoteStatus = "CANCELLED"
)

// Statuses lists every status in lifecycle order.
func Statuses() []QuoteStatus {
	return []QuoteStatus{StatusPending, StatusInReview, StatusQuoted, StatusCompleted, StatusCancelled}
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusQuoted, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s QuoteStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusInReview:
		return "En revisión"
	case StatusQuoted:
		return "Cotizada"
	case StatusCompleted:
		return "Completada"
	case StatusCancelled:
		return "Cancelada"
	default:
		return string(s)
	}
}

// Priority is a coarse value classification derived from the estimated price.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
