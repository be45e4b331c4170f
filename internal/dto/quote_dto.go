package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// QuoteFilter is bound from the query string of GET /v1/admin/cotizaciones.
// Desde/Hasta are inclusive dates (YYYY-MM-DD); the service turns them into From/To.
type QuoteFilter struct {
	Status      string `form:"estado"    validate:"omitempty,oneof=PENDING IN_REVIEW QUOTED COMPLETED CANCELLED"`
	Priority    string `form:"prioridad" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	ServiceType string `form:"servicio"  validate:"omitempty,oneof=LANDING_PAGE CORPORATE_WEB ECOMMERCE SOCIAL_MEDIA"`
	Search      string `form:"q"         validate:"max=120"`
	Desde       string `form:"desde"     validate:"omitempty,datetime=2006-01-02"`
	Hasta       string `form:"hasta"     validate:"omitempty,datetime=2006-01-02"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=100"`

	From *time.Time `form:"-" json:"-"`
	To   *time.Time `form:"-" json:"-"`
}

type QuoteListResponse struct {
	Data  []QuoteSummary `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// EstimateRequest prices a configuration without persisting it.
type EstimateRequest struct {
	ServiceType        string   `json:"service_type"        validate:"required,oneof=LANDING_PAGE CORPORATE_WEB ECOMMERCE SOCIAL_MEDIA"`
	Features           []string `json:"features"            validate:"max=30,dive,required,max=60"`
	CustomRequirements string   `json:"custom_requirements" validate:"max=5000"`
}

type QuickQuoteRequest struct {
	ServiceType string          `json:"service_type" validate:"required,oneof=LANDING_PAGE CORPORATE_WEB ECOMMERCE SOCIAL_MEDIA"`
	Extras      decimal.Decimal `json:"extras"       validate:"min=0"`
	Urgency     string          `json:"urgency"      validate:"omitempty,oneof=normal urgent very-urgent"`
	Discount    string          `json:"discount"     validate:"omitempty,oneof=none first-client referral nonprofit annual-plan"`
}

type SubmitQuoteRequest struct {
	ClientName    string  `json:"client_name"    validate:"required,min=2,max=120"`
	ClientEmail   string  `json:"client_email"   validate:"required,email,max=254"`
	ClientPhone   *string `json:"client_phone"   validate:"omitempty,max=40"`
	ClientCompany *string `json:"client_company" validate:"omitempty,max=120"`

	ServiceType        string   `json:"service_type"        validate:"required,oneof=LANDING_PAGE CORPORATE_WEB ECOMMERCE SOCIAL_MEDIA"`
	Features           []string `json:"features"            validate:"max=30,dive,required,max=60"`
	CustomRequirements string   `json:"custom_requirements" validate:"max=5000"`
}

// UpdateStatusRequest drives the status workflow. Notes go to the history
// entry; Message is included in the client email.
type UpdateStatusRequest struct {
	Status  string `json:"status"  validate:"required"`
	Notes   string `json:"notes"   validate:"max=2000"`
	Message string `json:"message" validate:"max=2000"`
}

type UpdateQuoteRequest struct {
	Priority   *string `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssignedTo *string `json:"assigned_to" validate:"omitempty,max=120"`
}

type AddNoteRequest struct {
	Body     string `json:"body"     validate:"required,max=5000"`
	Internal bool   `json:"internal"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineItemResponse struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

type EstimateResponse struct {
	ServiceType     string             `json:"service_type"`
	BasePrice       decimal.Decimal    `json:"base_price"`
	Features        []LineItemResponse `json:"features"`
	FeaturesTotal   decimal.Decimal    `json:"features_total"`
	ComplexityBonus decimal.Decimal    `json:"complexity_bonus"`
	Total           decimal.Decimal    `json:"total"`
	Currency        string             `json:"currency"`
	Disclaimer      string             `json:"disclaimer"`
	Priority        string             `json:"priority"`
}

type QuickQuoteResponse struct {
	ServiceType       string          `json:"service_type"`
	PlanPrice         decimal.Decimal `json:"plan_price"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	UrgencyMultiplier decimal.Decimal `json:"urgency_multiplier"`
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
}

type SubmitQuoteResponse struct {
	ID          string           `json:"id"`
	QuoteNumber string           `json:"quote_number"`
	AccessToken string           `json:"access_token"`
	TrackingURL string           `json:"tracking_url"`
	Status      string           `json:"status"`
	Priority    string           `json:"priority"`
	Estimate    EstimateResponse `json:"estimate"`
}

type QuoteSummary struct {
	ID             string          `json:"id"`
	QuoteNumber    string          `json:"quote_number"`
	ClientName     string          `json:"client_name"`
	ClientEmail    string          `json:"client_email"`
	ServiceType    string          `json:"service_type"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
	Status         string          `json:"status"`
	Priority       string          `json:"priority"`
	AssignedTo     *string         `json:"assigned_to"`
	CreatedAt      string          `json:"created_at"`
}

type HistoryEntryResponse struct {
	PreviousStatus *string `json:"previous_status"`
	NewStatus      string  `json:"new_status"`
	ChangedBy      string  `json:"changed_by,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type NoteResponse struct {
	ID        string `json:"id"`
	Author    string `json:"author,omitempty"`
	Body      string `json:"body"`
	Internal  bool   `json:"internal"`
	CreatedAt string `json:"created_at"`
}

// QuoteResponse is the full admin view of a quote.
type QuoteResponse struct {
	QuoteSummary
	ClientPhone        *string                `json:"client_phone"`
	ClientCompany      *string                `json:"client_company"`
	CustomRequirements *string                `json:"custom_requirements"`
	BasePrice          decimal.Decimal        `json:"base_price"`
	Features           []LineItemResponse     `json:"features"`
	FeaturesTotal      decimal.Decimal        `json:"features_total"`
	ComplexityBonus    decimal.Decimal        `json:"complexity_bonus"`
	Currency           string                 `json:"currency"`
	Disclaimer         string                 `json:"disclaimer"`
	LastReminderAt     *string                `json:"last_reminder_at"`
	UpdatedAt          string                 `json:"updated_at"`
	History            []HistoryEntryResponse `json:"history"`
	Notes              []NoteResponse         `json:"notes"`
}

type StatusChangeResponse struct {
	Quote          QuoteResponse `json:"quote"`
	PreviousStatus string        `json:"previous_status"`
	Changed        bool          `json:"changed"`
}

// TrackingResponse is the client-facing view. It omits operator names and internal notes.
type TrackingResponse struct {
	QuoteNumber    string                 `json:"quote_number"`
	ServiceType    string                 `json:"service_type"`
	ServiceLabel   string                 `json:"service_label"`
	Status         string                 `json:"status"`
	StatusLabel    string                 `json:"status_label"`
	EstimatedPrice decimal.Decimal        `json:"estimated_price"`
	Currency       string                 `json:"currency"`
	Features       []LineItemResponse     `json:"features"`
	History        []HistoryEntryResponse `json:"history"`
	Notes          []NoteResponse         `json:"notes"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

type ServiceTypeInfo struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	BasePrice decimal.Decimal `json:"base_price"`
	PlanPrice decimal.Decimal `json:"plan_price"`
	Group     string          `json:"feature_group"`
}

type FeatureInfo struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

type CatalogResponse struct {
	ServiceTypes []ServiceTypeInfo        `json:"service_types"`
	Features     map[string][]FeatureInfo `json:"features"`
	Urgencies    []string                 `json:"urgencies"`
	Discounts    []string                 `json:"discounts"`
}

type SweepResponse struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}
