package identifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCounter is an in-memory SequenceCounter.
type memCounter struct {
	mu     sync.Mutex
	values map[string]int
	err    error
}

func newMemCounter() *memCounter { return &memCounter{values: map[string]int{}} }

func (c *memCounter) Next(_ context.Context, scope string) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[scope]++
	return c.values[scope], nil
}

var _ SequenceCounter = (*memCounter)(nil)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestNextQuoteNumber_DayScope(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	iss := NewIssuer(ScopeDay, "", time.UTC).WithClock(fixedClock(at))
	counter := newMemCounter()

	first, err := iss.NextQuoteNumber(context.Background(), counter)
	require.NoError(t, err)
	second, err := iss.NextQuoteNumber(context.Background(), counter)
	require.NoError(t, err)

	assert.Equal(t, "COT-20260314-0001", first)
	assert.Equal(t, "COT-20260314-0002", second)
	assert.True(t, iss.ValidQuoteNumber(first))
}

func TestNextQuoteNumber_MonthScope(t *testing.T) {
	at := time.Date(2026, 11, 2, 23, 0, 0, 0, time.UTC)
	iss := NewIssuer(ScopeMonth, "", time.UTC).WithClock(fixedClock(at))

	n, err := iss.NextQuoteNumber(context.Background(), newMemCounter())
	require.NoError(t, err)

	assert.Equal(t, "HEX-202611-0001", n)
	assert.True(t, iss.ValidQuoteNumber(n))
	assert.False(t, iss.ValidQuoteNumber("COT-20261102-0001"))
}

func TestNextQuoteNumber_RestartsPerPeriod(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer(ScopeDay, "", time.UTC).WithClock(func() time.Time { return now })
	counter := newMemCounter()

	_, _ = iss.NextQuoteNumber(context.Background(), counter)
	_, _ = iss.NextQuoteNumber(context.Background(), counter)

	now = now.Add(24 * time.Hour)
	n, err := iss.NextQuoteNumber(context.Background(), counter)
	require.NoError(t, err)
	assert.Equal(t, "COT-20260315-0001", n)
}

func TestNextQuoteNumber_UsesLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	// 01:00 UTC on the 15th is still the 14th in Buenos Aires
	at := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)
	iss := NewIssuer(ScopeDay, "", loc).WithClock(fixedClock(at))

	n, err := iss.NextQuoteNumber(context.Background(), newMemCounter())
	require.NoError(t, err)
	assert.Equal(t, "COT-20260314-0001", n)
}

func TestNextQuoteNumber_CounterError(t *testing.T) {
	counter := newMemCounter()
	counter.err = errors.New("connection reset")
	iss := NewIssuer(ScopeDay, "", time.UTC)

	_, err := iss.NextQuoteNumber(context.Background(), counter)
	require.Error(t, err)
	assert.ErrorIs(t, err, counter.err)
}

func TestNextQuoteNumber_ConcurrentCallsAreUnique(t *testing.T) {
	iss := NewIssuer(ScopeDay, "", time.UTC)
	counter := newMemCounter()

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := iss.NextQuoteNumber(context.Background(), counter)
			if err == nil {
				results <- num
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for r := range results {
		assert.False(t, seen[r], "duplicate %s", r)
		seen[r] = true
	}
	assert.Len(t, seen, n)
}

func TestValidQuoteNumber(t *testing.T) {
	iss := NewIssuer(ScopeDay, "", time.UTC)
	assert.True(t, iss.ValidQuoteNumber("COT-20260314-0042"))
	assert.True(t, iss.ValidQuoteNumber("COT-20260314-10000"))
	assert.False(t, iss.ValidQuoteNumber("COT-2026031-0042"))
	assert.False(t, iss.ValidQuoteNumber("COT-20260314-42"))
	assert.False(t, iss.ValidQuoteNumber("XYZ-20260314-0042"))
	assert.False(t, iss.ValidQuoteNumber(""))
}

func TestValidQuoteNumber_PatternBuiltOnce(t *testing.T) {
	iss := NewIssuer(ScopeMonth, "H.X", time.UTC)
	require.NotNil(t, iss.pattern)
	assert.True(t, iss.ValidQuoteNumber("H.X-202603-0001"))
	assert.False(t, iss.ValidQuoteNumber("HAX-202603-0001"))

	allocs := testing.AllocsPerRun(100, func() { iss.ValidQuoteNumber("H.X-202603-0001") })
	assert.Zero(t, allocs)
}

func TestNewIssuer_CustomPrefixAndUnknownScope(t *testing.T) {
	iss := NewIssuer("weekly", "QT", time.UTC)
	assert.Equal(t, ScopeDay, iss.Scope())
	assert.Equal(t, "QT", iss.Prefix())
	assert.Equal(t, "QT-20260101", iss.CounterKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAccessToken_Format(t *testing.T) {
	tok, err := AccessToken()
	require.NoError(t, err)
	assert.Len(t, tok, TokenLength)
	assert.True(t, ValidAccessToken(tok))
}

func TestAccessToken_Unique(t *testing.T) {
	seen := make(map[string]bool, 100)
	for i := 0; i < 100; i++ {
		tok, err := AccessToken()
		require.NoError(t, err)
		require.True(t, ValidAccessToken(tok), tok)
		require.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}

func TestValidAccessToken(t *testing.T) {
	assert.True(t, ValidAccessToken("abcdefghijABCDEFGHIJ0123456789xy"))
	assert.False(t, ValidAccessToken("abcdefghijABCDEFGHIJ0123456789x"))
	assert.False(t, ValidAccessToken("abcdefghijABCDEFGHIJ0123456789x-"))
	assert.False(t, ValidAccessToken("abcdefghijABCDEFGHIJ0123456789xñ"))
	assert.False(t, ValidAccessToken(""))
}
