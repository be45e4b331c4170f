// Package notify delivers lifecycle emails for quotes. Delivery is best
// effort: a failed send is logged and reported through the boolean results,
// never returned as an error. Errors only describe failure to load the quote.
package notify

import (
	"context"
	"sync"
	"time"

	"hexagono/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a rendered email. The renderer fills Subject, HTML and Text;
// the dispatcher sets the recipients.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// QuoteReader is the slice of the quote store the dispatcher needs.
type QuoteReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	// ListStalePending returns PENDING quotes created before cutoff that were
	// not reminded after cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Quote, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}

// MailTransport hands a message to the mail provider.
type MailTransport interface {
	Send(ctx context.Context, msg Message) error
}

// Summarizer renders the PDF attached to QUOTED notifications.
type Summarizer interface {
	QuoteSummaryPDF(q *model.Quote) ([]byte, error)
}

type Config struct {
	AdminEmail            string
	MaxAttempts           int
	BaseDelay             time.Duration
	ReminderAfter         time.Duration
	HighPriorityThreshold decimal.Decimal
	BatchSize             int
	BatchPause            time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:           3,
		BaseDelay:             time.Second,
		ReminderAfter:         48 * time.Hour,
		HighPriorityThreshold: decimal.NewFromInt(300000),
		BatchSize:             5,
		BatchPause:            time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.ReminderAfter <= 0 {
		c.ReminderAfter = d.ReminderAfter
	}
	if c.HighPriorityThreshold.IsZero() {
		c.HighPriorityThreshold = d.HighPriorityThreshold
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	return c
}

// CreatedResult reports the two independent sends of NotifyCreated.
type CreatedResult struct {
	ClientNotified bool `json:"client_notified"`
	AdminNotified  bool `json:"admin_notified"`
}

// SweepResult counts a reminder sweep. Processed = Successful + Failed.
type SweepResult struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type Dispatcher struct {
	store      QuoteReader
	transport  MailTransport
	renderer   Renderer
	summarizer Summarizer
	cfg        Config
	now        func() time.Time
}

func NewDispatcher(store QuoteReader, transport MailTransport, renderer Renderer, cfg Config) *Dispatcher {
	return &Dispatcher{
		store:     store,
		transport: transport,
		renderer:  renderer,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// WithClock replaces the time source used for age checks.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// WithSummarizer enables the PDF attachment on QUOTED notifications.
func (d *Dispatcher) WithSummarizer(s Summarizer) *Dispatcher {
	d.summarizer = s
	return d
}

func (d *Dispatcher) Config() Config { return d.cfg }

// AdminConfigured reports whether admin notices have a recipient. Without one
// the admin sends are skipped, not failed.
func (d *Dispatcher) AdminConfigured() bool { return d.cfg.AdminEmail != "" }

// NotifyCreated sends the client confirmation and the admin notice. Each send
// is independent; one failing does not prevent the other.
func (d *Dispatcher) NotifyCreated(ctx context.Context, id uuid.UUID) (CreatedResult, error) {
	q, err := d.store.FindByID(ctx, id)
	if err != nil {
		return CreatedResult{}, err
	}
	res := CreatedResult{
		ClientNotified: d.sendClientCreated(ctx, q),
		AdminNotified:  d.sendAdminCreated(ctx, q),
	}
	log.Info().
		Str("quote_number", q.QuoteNumber).
		Bool("client_notified", res.ClientNotified).
		Bool("admin_notified", res.AdminNotified).
		Msg("notify: creation notifications processed")
	return res, nil
}

// NotifyClientCreated sends only the client confirmation.
func (d *Dispatcher) NotifyClientCreated(ctx context.Context, id uuid.UUID) (bool, error) {
	q, err := d.store.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return d.sendClientCreated(ctx, q), nil
}

// NotifyAdminCreated sends only the admin notice. It returns false without
// sending when no admin address is configured.
func (d *Dispatcher) NotifyAdminCreated(ctx context.Context, id uuid.UUID) (bool, error) {
	q, err := d.store.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return d.sendAdminCreated(ctx, q), nil
}

func (d *Dispatcher) sendClientCreated(ctx context.Context, q *model.Quote) bool {
	msg, ok := d.render(KindClientCreated, Event{Quote: q}, q.ClientEmail)
	if !ok {
		return false
	}
	return d.SendWithRetry(ctx, msg, d.cfg.MaxAttempts)
}

func (d *Dispatcher) sendAdminCreated(ctx context.Context, q *model.Quote) bool {
	if !d.AdminConfigured() {
		log.Warn().Str("quote_number", q.QuoteNumber).Msg("notify: admin email not configured, skipping admin notice")
		return false
	}
	msg, ok := d.render(KindAdminCreated, Event{Quote: q}, d.cfg.AdminEmail)
	if !ok {
		return false
	}
	return d.SendWithRetry(ctx, msg, d.cfg.MaxAttempts)
}

// NotifyStatusChanged tells the client about a transition. previous must be the
// status held before the transition; when it equals newStatus nothing is sent.
func (d *Dispatcher) NotifyStatusChanged(ctx context.Context, id uuid.UUID, newStatus, previous model.QuoteStatus, message string) (bool, error) {
	if newStatus == previous {
		log.Debug().Str("quote_id", id.String()).Str("status", string(newStatus)).
			Msg("notify: status unchanged, no notification")
		return false, nil
	}
	q, err := d.store.FindByID(ctx, id)
	if err != nil {
		return false, err
	}

	msg, ok := d.render(KindStatusChanged, Event{
		Quote:          q,
		NewStatus:      newStatus,
		PreviousStatus: previous,
		Message:        message,
	}, q.ClientEmail)
	if !ok {
		return false, nil
	}

	if newStatus == model.StatusQuoted && d.summarizer != nil {
		data, err := d.summarizer.QuoteSummaryPDF(q)
		if err != nil {
			log.Error().Err(err).Str("quote_number", q.QuoteNumber).Msg("notify: quote summary pdf failed, sending without attachment")
		} else {
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    "cotizacion_" + q.QuoteNumber + ".pdf",
				ContentType: "application/pdf",
				Data:        data,
			})
		}
	}

	return d.SendWithRetry(ctx, msg, d.cfg.MaxAttempts), nil
}

// NotifyReminder reminds the client of a quote that is still PENDING after
// ReminderAfter. Anything else is a no-op returning false.
func (d *Dispatcher) NotifyReminder(ctx context.Context, id uuid.UUID) (bool, error) {
	q, err := d.store.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	now := d.now()
	if q.Status != model.StatusPending || q.Age(now) <= d.cfg.ReminderAfter {
		return false, nil
	}

	msg, ok := d.render(KindReminder, Event{Quote: q}, q.ClientEmail)
	if !ok {
		return false, nil
	}
	if !d.SendWithRetry(ctx, msg, d.cfg.MaxAttempts) {
		return false, nil
	}
	if err := d.store.MarkReminded(ctx, q.ID, now); err != nil {
		log.Error().Err(err).Str("quote_number", q.QuoteNumber).Msg("notify: failed to record reminder")
	}
	return true, nil
}

// NotifyHighPriority escalates to the admin when the estimated price is above
// HighPriorityThreshold.
func (d *Dispatcher) NotifyHighPriority(ctx context.Context, id uuid.UUID) (bool, error) {
	q, err := d.store.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !q.EstimatedPrice.GreaterThan(d.cfg.HighPriorityThreshold) {
		return false, nil
	}
	if !d.AdminConfigured() {
		log.Warn().Str("quote_number", q.QuoteNumber).Msg("notify: admin email not configured, skipping escalation")
		return false, nil
	}
	msg, ok := d.render(KindHighPriority, Event{Quote: q}, d.cfg.AdminEmail)
	if !ok {
		return false, nil
	}
	return d.SendWithRetry(ctx, msg, d.cfg.MaxAttempts), nil
}

// BulkReminderSweep reminds every stale PENDING quote, BatchSize at a time.
// Reminders within a batch run concurrently; batches are separated by
// BatchPause. A failing reminder is counted and the sweep moves on.
func (d *Dispatcher) BulkReminderSweep(ctx context.Context) SweepResult {
	cutoff := d.now().Add(-d.cfg.ReminderAfter)
	candidates, err := d.store.ListStalePending(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("notify: sweep query failed")
		return SweepResult{}
	}
	if len(candidates) == 0 {
		return SweepResult{}
	}

	log.Info().Int("candidates", len(candidates)).Int("batch_size", d.cfg.BatchSize).Msg("notify: reminder sweep started")

	var res SweepResult
	for start := 0; start < len(candidates); start += d.cfg.BatchSize {
		if start > 0 && d.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				res.Failed = res.Processed - res.Successful
				log.Warn().Int("processed", res.Processed).Int("failed", res.Failed).Msg("notify: sweep interrupted")
				return res
			case <-time.After(d.cfg.BatchPause):
			}
		}
		end := min(start+d.cfg.BatchSize, len(candidates))
		ok := d.remindBatch(ctx, candidates[start:end])
		res.Processed += end - start
		res.Successful += ok
	}
	res.Failed = res.Processed - res.Successful

	log.Info().
		Int("processed", res.Processed).
		Int("successful", res.Successful).
		Int("failed", res.Failed).
		Msg("notify: reminder sweep finished")
	return res
}

func (d *Dispatcher) remindBatch(ctx context.Context, batch []model.Quote) int {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := range batch {
		id := batch[i].ID
		wg.Add(1)
		go func() {
			defer wg.Done()
			sent, err := d.NotifyReminder(ctx, id)
			if err != nil {
				log.Error().Err(err).Str("quote_id", id.String()).Msg("notify: reminder failed")
				return
			}
			if sent {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return ok
}

func (d *Dispatcher) render(kind Kind, ev Event, to string) (Message, bool) {
	msg, err := d.renderer.Render(kind, ev)
	if err != nil {
		log.Error().Err(err).Str("template", string(kind)).Str("quote_number", ev.Quote.QuoteNumber).
			Msg("notify: render failed")
		return Message{}, false
	}
	msg.To = []string{to}
	return msg, true
}
