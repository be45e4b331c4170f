package worker

// reminder_cron.go
// Background goroutine that periodically runs the stale-quote reminder sweep.
// Skips the tick while the SMTP circuit breaker is open, and takes a Redis
// lock so only one replica sweeps per tick.

import (
	"context"
	"time"

	"hexagono/internal/infra"
	"hexagono/internal/notify"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	reminderLockKey         = "lock:reminder_sweep"
	defaultReminderInterval = time.Hour
)

// Sweeper runs one reminder sweep; implemented by notify.Dispatcher.
type Sweeper interface {
	BulkReminderSweep(ctx context.Context) notify.SweepResult
}

// ReminderCronConfig holds all dependencies for the reminder goroutine.
type ReminderCronConfig struct {
	Sweeper  Sweeper
	CB       *infra.CircuitBreaker
	RDB      *redis.Client
	Interval time.Duration
}

// StartReminderCron launches a background goroutine that ticks every
// Interval and runs the sweep. It respects the context for graceful shutdown.
func StartReminderCron(ctx context.Context, cfg ReminderCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultReminderInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reminder_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reminder_cron: shutting down")
				return
			case <-ticker.C:
				runReminderTick(ctx, cfg)
			}
		}
	}()
}

// runReminderTick reports whether a sweep actually ran.
func runReminderTick(ctx context.Context, cfg ReminderCronConfig) bool {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("reminder_cron: circuit breaker is open, skipping tick")
		return false
	}

	if cfg.RDB != nil {
		// Held until it expires with the tick, not released after the sweep.
		ok, err := cfg.RDB.SetNX(ctx, reminderLockKey, time.Now().UTC().Format(time.RFC3339), cfg.Interval).Result()
		if err != nil {
			log.Error().Err(err).Msg("reminder_cron: failed to take sweep lock")
			return false
		}
		if !ok {
			log.Debug().Msg("reminder_cron: another replica holds the sweep lock")
			return false
		}
	}

	res := cfg.Sweeper.BulkReminderSweep(ctx)
	if res.Processed > 0 {
		log.Info().
			Int("processed", res.Processed).
			Int("successful", res.Successful).
			Int("failed", res.Failed).
			Msg("reminder_cron: sweep finished")
	}
	return true
}
