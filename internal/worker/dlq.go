package worker

// Undelivered notification jobs land in dlq:{queue}, newest first, capped at
// dlqMaxEntries. Operators list them and replay them from the admin API.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix     = "dlq:"
	dlqMaxEntries = 1000
)

type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	QuoteID       string          `json:"quote_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// SendToDLQ records a job that exhausted its attempts. Failures here are only
// logged; the job is lost if Redis is down too.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		QuoteID:       quoteIDOf(payload),
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	key := DLQPrefix + queue
	_, err = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, data)
		p.LTrim(ctx, key, 0, dlqMaxEntries-1)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("dlq_key", key).Str("quote_id", entry.QuoteID).Msg("dlq: push failed, job lost")
		return
	}
	log.Warn().
		Str("job_type", jobType).
		Str("quote_id", entry.QuoteID).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: notification job dead-lettered")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ListDLQ returns up to limit entries, newest first. Undecodable entries are skipped.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// RequeueDLQ moves up to limit of the oldest entries back onto their queue as
// fresh jobs. Entries without a job type cannot be replayed and are dropped.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int) (int, error) {
	key := DLQPrefix + queue
	moved := 0
	for moved < limit {
		raw, err := rdb.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, err
		}

		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil || e.JobType == "" || e.JobType == "unknown" {
			log.Warn().Str("dlq_key", key).Msg("dlq: dropping entry that cannot be replayed")
			continue
		}
		job, err := json.Marshal(Job{Type: e.JobType, Payload: e.Payload})
		if err != nil {
			return moved, err
		}
		target := e.OriginalQueue
		if target == "" {
			target = queue
		}
		if err := rdb.LPush(ctx, target, job).Err(); err != nil {
			// put it back where it was
			_ = rdb.RPush(ctx, key, raw).Err()
			return moved, err
		}
		moved++
	}
	if moved > 0 {
		log.Info().Int("jobs", moved).Str("queue", queue).Msg("dlq: jobs requeued")
	}
	return moved, nil
}

func quoteIDOf(payload json.RawMessage) string {
	var p struct {
		QuoteID string `json:"quote_id"`
	}
	if len(payload) == 0 || json.Unmarshal(payload, &p) != nil {
		return ""
	}
	return p.QuoteID
}
