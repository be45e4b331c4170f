package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hexagono/internal/apierror"
	"hexagono/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotifications = "jobs:notificaciones"

	JobQuoteCreated  = "quote_created"
	JobAdminNotice   = "quote_created_admin"
	JobStatusChanged = "status_changed"
	JobHighPriority  = "high_priority"

	jobMaxAttempts = 3
)

// retryBaseDelay is the first backoff step between handler attempts.
var retryBaseDelay = time.Second

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// QuoteJobPayload is the payload of every notification job. Status fields
// are only set for status_changed.
type QuoteJobPayload struct {
	QuoteID        uuid.UUID         `json:"quote_id"`
	NewStatus      model.QuoteStatus `json:"new_status,omitempty"`
	PreviousStatus model.QuoteStatus `json:"previous_status,omitempty"`
	Message        string            `json:"message,omitempty"`
}

// Handler processes one dequeued job.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// Dispatcher enqueues notification jobs into a Redis list.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb      *redis.Client
	fallback Handler
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// WithFallback runs jobs in-process when Redis rejects the push, so a queue
// outage does not drop the notification.
func (d *Dispatcher) WithFallback(h Handler) *Dispatcher {
	d.fallback = h
	return d
}

// EnqueueCreated queues the client confirmation and the admin notice as
// separate jobs, so a replay from the DLQ resends only the one that failed.
func (d *Dispatcher) EnqueueCreated(ctx context.Context, id uuid.UUID) error {
	p := QuoteJobPayload{QuoteID: id}
	return d.enqueue(ctx, jobSpec{JobQuoteCreated, p}, jobSpec{JobAdminNotice, p})
}

func (d *Dispatcher) EnqueueStatusChanged(ctx context.Context, id uuid.UUID, newStatus, previous model.QuoteStatus, message string) error {
	return d.enqueue(ctx, jobSpec{JobStatusChanged, QuoteJobPayload{
		QuoteID:        id,
		NewStatus:      newStatus,
		PreviousStatus: previous,
		Message:        message,
	}})
}

func (d *Dispatcher) EnqueueHighPriority(ctx context.Context, id uuid.UUID) error {
	return d.enqueue(ctx, jobSpec{JobHighPriority, QuoteJobPayload{QuoteID: id}})
}

type jobSpec struct {
	jobType string
	payload QuoteJobPayload
}

// enqueue pushes all jobs in one LPUSH.
func (d *Dispatcher) enqueue(ctx context.Context, specs ...jobSpec) error {
	jobs := make([]Job, 0, len(specs))
	encoded := make([]any, 0, len(specs))
	for _, s := range specs {
		data, err := json.Marshal(s.payload)
		if err != nil {
			return err
		}
		job := Job{Type: s.jobType, Payload: data}
		raw, err := json.Marshal(job)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		encoded = append(encoded, raw)
	}
	if err := d.rdb.LPush(ctx, QueueNotifications, encoded...).Err(); err != nil {
		if d.fallback == nil {
			return err
		}
		for _, job := range jobs {
			log.Warn().Err(err).Str("type", job.Type).Msg("worker: enqueue failed, running job in-process")
			go func() {
				if herr := d.fallback.Handle(context.Background(), job); herr != nil {
					log.Error().Err(herr).Str("type", job.Type).Msg("worker: in-process job failed")
				}
			}()
		}
	}
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming the notification queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, h Handler) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, h)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, h Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueNotifications).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, result[0], result[1], h)
		}
	}
}

// processJob runs h with retries for transient store failures. Jobs that still
// fail are dead-lettered; jobs for deleted quotes are dropped.
func processJob(ctx context.Context, rdb *redis.Client, queue, raw string, h Handler) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("worker: failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(`null`), "invalid job envelope: "+err.Error(), 0)
		return
	}

	attempts := 0
	err := withRetry(ctx, jobMaxAttempts, func(attempt int) error {
		attempts = attempt + 1
		err := h.Handle(ctx, job)
		if err != nil && !apierror.IsRetryable(err) {
			return permanent{err}
		}
		if err != nil {
			log.Warn().Err(err).Str("type", job.Type).Int("attempt", attempts).Msg("worker: job attempt failed, retrying")
		}
		return err
	})
	switch {
	case err == nil:
		log.Debug().Str("type", job.Type).Msg("worker: job done")
	case errors.Is(err, apierror.ErrNotFound):
		log.Warn().Err(err).Str("type", job.Type).Msg("worker: quote no longer exists, dropping job")
	default:
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), attempts)
	}
}

// permanent marks an error that withRetry must not retry.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = base, 3 = 2*base.
// Returns nil if any attempt succeeds; the last error otherwise. A permanent
// error stops the loop and is returned unwrapped.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * retryBaseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		var p permanent
		if errors.As(err, &p) {
			return p.err
		}
		lastErr = err
	}
	return lastErr
}
