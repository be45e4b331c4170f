package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// SendWithRetry sends msg up to maxAttempts times, waiting BaseDelay before the
// second attempt and doubling the wait after each failure. It reports whether
// the transport accepted the message and never returns an error.
func (d *Dispatcher) SendWithRetry(ctx context.Context, msg Message, maxAttempts int) bool {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			wait := d.cfg.BaseDelay << uint(attempt-2)
			select {
			case <-ctx.Done():
				log.Warn().Err(ctx.Err()).Strs("to", msg.To).Str("subject", msg.Subject).
					Int("attempt", attempt).Msg("notify: send abandoned")
				return false
			case <-time.After(wait):
			}
		}
		err := d.sendOnce(ctx, msg)
		if err == nil {
			if attempt > 1 {
				log.Info().Strs("to", msg.To).Int("attempt", attempt).Msg("notify: delivered after retry")
			}
			return true
		}
		lastErr = err
		log.Warn().Err(err).Strs("to", msg.To).Str("subject", msg.Subject).
			Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("notify: send failed")
	}
	log.Error().Err(lastErr).Strs("to", msg.To).Str("subject", msg.Subject).
		Int("attempts", maxAttempts).Msg("notify: giving up")
	return false
}

// sendOnce turns a transport panic into an error.
func (d *Dispatcher) sendOnce(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notify: transport panic: %v", r)
		}
	}()
	return d.transport.Send(ctx, msg)
}
