package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "day", cfg.QuoteNumberScope)
	assert.Equal(t, 48*time.Hour, cfg.ReminderAfter)
	assert.Equal(t, time.Second, cfg.MailRetryBaseDelay)
	assert.Equal(t, 3, cfg.MailMaxAttempts)
	assert.Equal(t, 5, cfg.SweepBatchSize)
	assert.Equal(t, int64(300000), cfg.HighPriorityThreshold)
	assert.False(t, cfg.StrictTransitions)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUOTE_NUMBER_SCOPE", "month")
	t.Setenv("REMINDER_AFTER", "72h")
	t.Setenv("STRICT_TRANSITIONS", "true")
	t.Setenv("SWEEP_BATCH_SIZE", "10")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "month", cfg.QuoteNumberScope)
	assert.Equal(t, 72*time.Hour, cfg.ReminderAfter)
	assert.True(t, cfg.StrictTransitions)
	assert.Equal(t, 10, cfg.SweepBatchSize)
}

func TestLoad_RejectsUnknownScope(t *testing.T) {
	t.Setenv("QUOTE_NUMBER_SCOPE", "week")
	_, err := load(viper.New())
	assert.ErrorContains(t, err, "QUOTE_NUMBER_SCOPE")
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := load(viper.New())
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Timezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
