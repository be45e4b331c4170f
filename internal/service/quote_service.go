package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hexagono/internal/apierror"
	"hexagono/internal/cache"
	"hexagono/internal/dto"
	"hexagono/internal/identifier"
	"hexagono/internal/infra"
	"hexagono/internal/model"
	"hexagono/internal/notify"
	"hexagono/internal/pricing"
	"hexagono/internal/repository"
	"hexagono/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const maxCreateAttempts = 3

type QuoteService interface {
	Catalog() dto.CatalogResponse
	Preview(ctx context.Context, req dto.EstimateRequest) (*dto.EstimateResponse, error)
	Quick(ctx context.Context, req dto.QuickQuoteRequest) (*dto.QuickQuoteResponse, error)
	Submit(ctx context.Context, req dto.SubmitQuoteRequest) (*dto.SubmitQuoteResponse, error)
	Track(ctx context.Context, token string) (*dto.TrackingResponse, error)
	TrackByNumber(ctx context.Context, number, token string) (*dto.TrackingResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error)
	GetByNumber(ctx context.Context, number string) (*dto.QuoteResponse, error)
	List(ctx context.Context, filter dto.QuoteFilter) (*dto.QuoteListResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, changedBy string, req dto.UpdateStatusRequest) (*dto.StatusChangeResponse, error)
	UpdateAttributes(ctx context.Context, id uuid.UUID, req dto.UpdateQuoteRequest) (*dto.QuoteResponse, error)
	AddNote(ctx context.Context, id uuid.UUID, author string, req dto.AddNoteRequest) (*dto.NoteResponse, error)
	SummaryPDF(ctx context.Context, id uuid.UUID) (string, []byte, error)
	RunReminderSweep(ctx context.Context) dto.SweepResponse
}

// NotificationQueue hands lifecycle notifications to the worker pool.
type NotificationQueue interface {
	EnqueueCreated(ctx context.Context, id uuid.UUID) error
	EnqueueStatusChanged(ctx context.Context, id uuid.UUID, newStatus, previous model.QuoteStatus, message string) error
	EnqueueHighPriority(ctx context.Context, id uuid.UUID) error
}

// ReminderSweeper runs the stale-quote reminder sweep on demand.
type ReminderSweeper interface {
	BulkReminderSweep(ctx context.Context) notify.SweepResult
}

// QuoteServiceDeps holds all dependencies of the quote service. Queue, Events,
// Cache, Sweeper and PDF are optional.
type QuoteServiceDeps struct {
	Repo     repository.QuoteRepository
	Engine   *pricing.Engine
	Issuer   *identifier.Issuer
	Workflow *workflow.Workflow
	Queue    NotificationQueue
	Events   infra.EventPublisher
	Cache    *cache.TrackingCache
	Sweeper  ReminderSweeper
	PDF      notify.Summarizer

	// TrackingURL builds the client link for a token.
	TrackingURL           func(token string) string
	HighPriorityThreshold decimal.Decimal
	Location              *time.Location
}

type quoteService struct {
	QuoteServiceDeps
}

func NewQuoteService(deps QuoteServiceDeps) QuoteService {
	if deps.Engine == nil {
		deps.Engine = pricing.NewEngine()
	}
	if deps.Events == nil {
		deps.Events = infra.NoopPublisher{}
	}
	if deps.TrackingURL == nil {
		deps.TrackingURL = func(token string) string { return "/seguimiento/" + token }
	}
	if deps.HighPriorityThreshold.IsZero() {
		deps.HighPriorityThreshold = notify.DefaultConfig().HighPriorityThreshold
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &quoteService{QuoteServiceDeps: deps}
}

// ── Calculators ───────────────────────────────────────────────────────────────

func (s *quoteService) Catalog() dto.CatalogResponse {
	catalog := s.Engine.Catalog()
	resp := dto.CatalogResponse{
		Features: map[string][]dto.FeatureInfo{},
		Urgencies: []string{
			string(pricing.UrgencyNormal), string(pricing.UrgencyUrgent), string(pricing.UrgencyVeryUrgent),
		},
		Discounts: []string{
			string(pricing.DiscountNone), string(pricing.DiscountFirstClient), string(pricing.DiscountReferral),
			string(pricing.DiscountNonprofit), string(pricing.DiscountAnnualPlan),
		},
	}
	for _, st := range model.ServiceTypes() {
		resp.ServiceTypes = append(resp.ServiceTypes, dto.ServiceTypeInfo{
			ID:        string(st),
			Label:     st.Label(),
			BasePrice: s.Engine.BasePrice(st),
			PlanPrice: pricing.PlanPrice(st),
			Group:     string(pricing.GroupFor(st)),
		})
	}
	// Feature costs are listed before the per-service multiplier.
	for _, g := range []pricing.Group{pricing.GroupWeb, pricing.GroupSocial} {
		for _, f := range catalog.Features(g) {
			resp.Features[string(g)] = append(resp.Features[string(g)], dto.FeatureInfo{
				ID:   string(f.ID),
				Name: f.Name,
				Cost: f.Cost,
			})
		}
	}
	return resp
}

func toFeatureIDs(in []string) []pricing.FeatureID {
	out := make([]pricing.FeatureID, 0, len(in))
	for _, id := range in {
		out = append(out, pricing.FeatureID(strings.TrimSpace(id)))
	}
	return out
}

// Preview prices a configuration without persisting anything. Unknown
// features are left out of the breakdown.
func (s *quoteService) Preview(_ context.Context, req dto.EstimateRequest) (*dto.EstimateResponse, error) {
	st := model.ServiceType(req.ServiceType)
	if !st.Valid() {
		return nil, apierror.Pricing("service_type", "tipo de servicio desconocido: "+req.ServiceType)
	}
	est := s.Engine.Estimate(pricing.EstimateInput{
		ServiceType:        st,
		Features:           toFeatureIDs(req.Features),
		CustomRequirements: req.CustomRequirements,
	})
	resp := estimateToResponse(est)
	return &resp, nil
}

func (s *quoteService) Quick(_ context.Context, req dto.QuickQuoteRequest) (*dto.QuickQuoteResponse, error) {
	q, err := pricing.Quick(pricing.QuickQuoteInput{
		ServiceType: model.ServiceType(req.ServiceType),
		Extras:      req.Extras,
		Urgency:     pricing.Urgency(req.Urgency),
		Discount:    pricing.Discount(req.Discount),
	})
	if err != nil {
		return nil, err
	}
	return &dto.QuickQuoteResponse{
		ServiceType:       string(q.ServiceType),
		PlanPrice:         q.PlanPrice,
		Subtotal:          q.Subtotal,
		UrgencyMultiplier: q.UrgencyMultiplier,
		DiscountRate:      q.DiscountRate,
		Total:             q.Total,
		Currency:          q.Currency,
	}, nil
}

// ── Submit ────────────────────────────────────────────────────────────────────
//   1. Strict feature validation (unknown or foreign ids are rejected)
//   2. Estimate + priority
//   3. Create: quote number drawn inside the insert transaction, fresh token
//      per attempt, bounded retry on unique violations
//   4. (async) created + high-priority notification jobs, quote.created event

func (s *quoteService) Submit(ctx context.Context, req dto.SubmitQuoteRequest) (*dto.SubmitQuoteResponse, error) {
	st := model.ServiceType(req.ServiceType)
	ids := toFeatureIDs(req.Features)
	if err := s.Engine.ValidateFeatures(st, ids); err != nil {
		return nil, err
	}

	est := s.Engine.Estimate(pricing.EstimateInput{
		ServiceType:        st,
		Features:           ids,
		CustomRequirements: req.CustomRequirements,
	})

	q := &model.Quote{
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.ToLower(strings.TrimSpace(req.ClientEmail)),
		ClientPhone:     trimmedOrNil(req.ClientPhone),
		ClientCompany:   trimmedOrNil(req.ClientCompany),
		ServiceType:     st,
		BasePrice:       est.BasePrice,
		FeaturesTotal:   est.FeaturesTotal,
		ComplexityBonus: est.ComplexityBonus,
		EstimatedPrice:  est.Total,
		Currency:        est.Currency,
		Disclaimer:      est.Disclaimer,
		Status:          model.StatusPending,
		Priority:        pricing.PriorityFor(est.Total),
	}
	if cr := strings.TrimSpace(req.CustomRequirements); cr != "" {
		q.CustomRequirements = &cr
	}
	for _, li := range est.Features {
		q.Features = append(q.Features, model.QuoteFeature{FeatureID: string(li.ID), Name: li.Name, Cost: li.Cost})
	}

	if err := s.create(ctx, q); err != nil {
		return nil, err
	}

	log.Info().
		Str("quote_id", q.ID.String()).
		Str("quote_number", q.QuoteNumber).
		Str("priority", string(q.Priority)).
		Str("estimated_price", q.EstimatedPrice.String()).
		Msg("quote: created")

	s.enqueue("created", q.ID, func(nq NotificationQueue) error { return nq.EnqueueCreated(ctx, q.ID) })
	if q.EstimatedPrice.GreaterThan(s.HighPriorityThreshold) {
		s.enqueue("high_priority", q.ID, func(nq NotificationQueue) error { return nq.EnqueueHighPriority(ctx, q.ID) })
	}
	s.publish(ctx, infra.NewQuoteEvent(infra.EventQuoteCreated, q, ""))

	return &dto.SubmitQuoteResponse{
		ID:          q.ID.String(),
		QuoteNumber: q.QuoteNumber,
		AccessToken: q.AccessToken,
		TrackingURL: s.TrackingURL(q.AccessToken),
		Status:      string(q.Status),
		Priority:    string(q.Priority),
		Estimate:    estimateToResponse(est),
	}, nil
}

func (s *quoteService) create(ctx context.Context, q *model.Quote) error {
	var err error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		q.ID = uuid.Nil
		for i := range q.Features {
			q.Features[i].ID = uuid.Nil
		}
		token, terr := identifier.AccessToken()
		if terr != nil {
			return fmt.Errorf("quote: access token: %w", terr)
		}
		q.AccessToken = token

		err = s.Repo.Create(ctx, q, s.Issuer.NextQuoteNumber)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apierror.ErrDuplicate) {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("quote: identifier collision, retrying create")
	}
	return err
}

// ── Tracking ──────────────────────────────────────────────────────────────────

func (s *quoteService) Track(ctx context.Context, token string) (*dto.TrackingResponse, error) {
	if !identifier.ValidAccessToken(token) {
		return nil, apierror.NotFound("token", "token de seguimiento desconocido")
	}
	if resp, ok := s.Cache.Get(ctx, token); ok {
		return &resp, nil
	}
	q, err := s.Repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	resp := quoteToTracking(q)
	s.Cache.Set(ctx, token, resp)
	return &resp, nil
}

// TrackByNumber requires the token issued with the quote; a mismatch is
// access denied rather than not found.
func (s *quoteService) TrackByNumber(ctx context.Context, number, token string) (*dto.TrackingResponse, error) {
	if token == "" {
		return nil, apierror.AccessDenied("token requerido")
	}
	q, err := s.Repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if q.AccessToken != token {
		return nil, apierror.AccessDenied("el token no corresponde a la cotizacion")
	}
	resp := quoteToTracking(q)
	return &resp, nil
}

// ── Admin ─────────────────────────────────────────────────────────────────────

func (s *quoteService) GetByID(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error) {
	q, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := quoteToResponse(q)
	return &resp, nil
}

func (s *quoteService) GetByNumber(ctx context.Context, number string) (*dto.QuoteResponse, error) {
	q, err := s.Repo.FindByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	resp := quoteToResponse(q)
	return &resp, nil
}

// List applies the filter. Desde/Hasta are calendar days in the configured
// location; Hasta is inclusive.
func (s *quoteService) List(ctx context.Context, filter dto.QuoteFilter) (*dto.QuoteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Desde != "" {
		from, err := time.ParseInLocation("2006-01-02", filter.Desde, s.Location)
		if err != nil {
			return nil, apierror.Validation("desde", "fecha invalida, formato YYYY-MM-DD")
		}
		filter.From = &from
	}
	if filter.Hasta != "" {
		to, err := time.ParseInLocation("2006-01-02", filter.Hasta, s.Location)
		if err != nil {
			return nil, apierror.Validation("hasta", "fecha invalida, formato YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, apierror.Validation("hasta", "el rango de fechas es invalido")
	}

	quotes, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.QuoteSummary, 0, len(quotes))
	for i := range quotes {
		items = append(items, quoteToSummary(&quotes[i]))
	}
	return &dto.QuoteListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateStatus runs the workflow, then (async) the status notification and
// the quote.status_changed event. Same-status updates are recorded in the
// history but notify nobody.
func (s *quoteService) UpdateStatus(ctx context.Context, id uuid.UUID, changedBy string, req dto.UpdateStatusRequest) (*dto.StatusChangeResponse, error) {
	res, err := s.Workflow.Transition(ctx, id, model.QuoteStatus(strings.ToUpper(strings.TrimSpace(req.Status))), changedBy, req.Notes)
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, res.Quote.AccessToken)

	log.Info().
		Str("quote_id", id.String()).
		Str("from", string(res.Previous)).
		Str("to", string(res.Quote.Status)).
		Str("changed_by", res.Entry.ChangedBy).
		Msg("quote: status updated")

	if res.Changed() {
		newStatus := res.Quote.Status
		s.enqueue("status_changed", id, func(nq NotificationQueue) error {
			return nq.EnqueueStatusChanged(ctx, id, newStatus, res.Previous, strings.TrimSpace(req.Message))
		})
		s.publish(ctx, infra.NewQuoteEvent(infra.EventQuoteStatusChanged, res.Quote, res.Previous))
	}

	full, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.StatusChangeResponse{
		Quote:          quoteToResponse(full),
		PreviousStatus: string(res.Previous),
		Changed:        res.Changed(),
	}, nil
}

func (s *quoteService) UpdateAttributes(ctx context.Context, id uuid.UUID, req dto.UpdateQuoteRequest) (*dto.QuoteResponse, error) {
	var attrs repository.QuoteAttributes
	if req.Priority != nil {
		p := model.Priority(strings.ToUpper(*req.Priority))
		if !p.Valid() {
			return nil, apierror.Validation("priority", "prioridad invalida: "+*req.Priority)
		}
		attrs.Priority = &p
	}
	attrs.AssignedTo = req.AssignedTo

	q, err := s.Repo.UpdateAttributes(ctx, id, attrs)
	if err != nil {
		return nil, err
	}
	resp := quoteToResponse(q)
	return &resp, nil
}

func (s *quoteService) AddNote(ctx context.Context, id uuid.UUID, author string, req dto.AddNoteRequest) (*dto.NoteResponse, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apierror.Validation("body", "la nota no puede estar vacia")
	}
	if author == "" {
		author = model.SystemActor
	}
	note := &model.QuoteNote{QuoteID: id, Author: author, Body: body, Internal: req.Internal}
	if err := s.Repo.AddNote(ctx, note); err != nil {
		return nil, err
	}
	if !note.Internal {
		if q, err := s.Repo.FindByID(ctx, id); err == nil {
			s.Cache.Invalidate(ctx, q.AccessToken)
		}
	}
	resp := noteToResponse(note)
	return &resp, nil
}

// SummaryPDF renders the same document attached to the QUOTED email.
func (s *quoteService) SummaryPDF(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	if s.PDF == nil {
		return "", nil, errors.New("quote: pdf generation not configured")
	}
	q, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	data, err := s.PDF.QuoteSummaryPDF(q)
	if err != nil {
		return "", nil, err
	}
	return "cotizacion_" + q.QuoteNumber + ".pdf", data, nil
}

func (s *quoteService) RunReminderSweep(ctx context.Context) dto.SweepResponse {
	if s.Sweeper == nil {
		return dto.SweepResponse{}
	}
	res := s.Sweeper.BulkReminderSweep(ctx)
	return dto.SweepResponse{Processed: res.Processed, Successful: res.Successful, Failed: res.Failed}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// enqueue is best effort: the quote is already committed, so a queue failure
// is logged and the request still succeeds.
func (s *quoteService) enqueue(kind string, id uuid.UUID, fn func(NotificationQueue) error) {
	if s.Queue == nil {
		return
	}
	if err := fn(s.Queue); err != nil {
		log.Error().Err(err).Str("job", kind).Str("quote_id", id.String()).Msg("quote: failed to enqueue notification")
	}
}

func (s *quoteService) publish(ctx context.Context, ev infra.QuoteEvent) {
	if err := s.Events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Str("quote_number", ev.QuoteNumber).Msg("quote: event not published")
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
