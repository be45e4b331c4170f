package worker

// notification_worker.go
// Processes jobs from QueueNotifications through the notify dispatcher.
// Mail retries happen inside the dispatcher; a job whose mail was still not
// delivered is reported as ErrUndelivered and ends up in the DLQ. Admin jobs
// succeed without sending when no admin address is configured.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hexagono/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrUndelivered = errors.New("notification not delivered")

// Notifier is the part of notify.Dispatcher the worker drives.
type Notifier interface {
	NotifyClientCreated(ctx context.Context, id uuid.UUID) (bool, error)
	NotifyAdminCreated(ctx context.Context, id uuid.UUID) (bool, error)
	NotifyStatusChanged(ctx context.Context, id uuid.UUID, newStatus, previous model.QuoteStatus, message string) (bool, error)
	NotifyHighPriority(ctx context.Context, id uuid.UUID) (bool, error)
	AdminConfigured() bool
}

type NotificationWorker struct {
	notifier Notifier
}

func NewNotificationWorker(n Notifier) *NotificationWorker {
	return &NotificationWorker{notifier: n}
}

func (w *NotificationWorker) Handle(ctx context.Context, job Job) error {
	var p QuoteJobPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("notification_worker: invalid payload: %w", err)
	}
	if p.QuoteID == uuid.Nil {
		return fmt.Errorf("notification_worker: payload without quote_id")
	}
	logger := log.With().Str("type", job.Type).Str("quote_id", p.QuoteID.String()).Logger()

	switch job.Type {
	case JobQuoteCreated:
		sent, err := w.notifier.NotifyClientCreated(ctx, p.QuoteID)
		if err != nil {
			return err
		}
		if !sent {
			return fmt.Errorf("%w: client confirmation", ErrUndelivered)
		}

	case JobAdminNotice:
		if !w.notifier.AdminConfigured() {
			logger.Debug().Msg("notification_worker: no admin address, admin notice skipped")
			return nil
		}
		sent, err := w.notifier.NotifyAdminCreated(ctx, p.QuoteID)
		if err != nil {
			return err
		}
		if !sent {
			return fmt.Errorf("%w: admin notice", ErrUndelivered)
		}

	case JobStatusChanged:
		if p.NewStatus == p.PreviousStatus {
			logger.Debug().Msg("notification_worker: status unchanged, nothing to send")
			return nil
		}
		sent, err := w.notifier.NotifyStatusChanged(ctx, p.QuoteID, p.NewStatus, p.PreviousStatus, p.Message)
		if err != nil {
			return err
		}
		if !sent {
			return fmt.Errorf("%w: status %s", ErrUndelivered, p.NewStatus)
		}

	case JobHighPriority:
		if !w.notifier.AdminConfigured() {
			logger.Debug().Msg("notification_worker: no admin address, escalation skipped")
			return nil
		}
		sent, err := w.notifier.NotifyHighPriority(ctx, p.QuoteID)
		if err != nil {
			return err
		}
		// Only enqueued above the threshold, so false means the send failed.
		if !sent {
			return fmt.Errorf("%w: high-priority escalation", ErrUndelivered)
		}

	default:
		return fmt.Errorf("notification_worker: unknown job type %q", job.Type)
	}

	logger.Info().Msg("notification_worker: job processed")
	return nil
}
