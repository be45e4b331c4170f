// Package identifier issues the two public identifiers of a quote: the
// human-readable sequential quote number and the random access token that
// grants the client read access to the tracking view.
package identifier

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Scope is the period a quote-number sequence restarts on.
type Scope string

const (
	ScopeDay   Scope = "day"
	ScopeMonth Scope = "month"
)

const (
	DefaultDayPrefix   = "COT"
	DefaultMonthPrefix = "HEX"
)

// SequenceCounter hands out the next value of a named counter. The store
// implements it as an atomic upsert so concurrent creations never share a value.
type SequenceCounter interface {
	Next(ctx context.Context, scope string) (int, error)
}

// Issuer formats quote numbers as PREFIX-<date segment>-NNNN.
type Issuer struct {
	prefix  string
	scope   Scope
	loc     *time.Location
	now     func() time.Time
	pattern *regexp.Regexp
}

// NewIssuer returns an issuer for scope. An empty prefix picks the scope default.
// Unknown scopes fall back to ScopeDay.
func NewIssuer(scope Scope, prefix string, loc *time.Location) *Issuer {
	if scope != ScopeMonth {
		scope = ScopeDay
	}
	if prefix == "" {
		prefix = DefaultDayPrefix
		if scope == ScopeMonth {
			prefix = DefaultMonthPrefix
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	digits := 8
	if scope == ScopeMonth {
		digits = 6
	}
	return &Issuer{
		prefix:  prefix,
		scope:   scope,
		loc:     loc,
		now:     time.Now,
		pattern: regexp.MustCompile(fmt.Sprintf(`^%s-\d{%d}-\d{4,}$`, regexp.QuoteMeta(prefix), digits)),
	}
}

// WithClock replaces the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Scope() Scope   { return i.scope }
func (i *Issuer) Prefix() string { return i.prefix }

func (i *Issuer) dateSegment(at time.Time) string {
	at = at.In(i.loc)
	if i.scope == ScopeMonth {
		return at.Format("200601")
	}
	return at.Format("20060102")
}

// CounterKey is the sequence name for the period containing at,
// e.g. "COT-20260314".
func (i *Issuer) CounterKey(at time.Time) string {
	return i.prefix + "-" + i.dateSegment(at)
}

// NextQuoteNumber draws the next value of the current period's counter and
// formats it. The counter is passed in so the store can bind it to the same
// transaction that inserts the quote.
func (i *Issuer) NextQuoteNumber(ctx context.Context, counter SequenceCounter) (string, error) {
	at := i.now()
	key := i.CounterKey(at)
	n, err := counter.Next(ctx, key)
	if err != nil {
		return "", fmt.Errorf("identifier: next sequence for %s: %w", key, err)
	}
	return fmt.Sprintf("%s-%04d", key, n), nil
}

// ValidQuoteNumber reports whether s has the shape this issuer produces.
// Sequences past 9999 keep growing in width.
func (i *Issuer) ValidQuoteNumber(s string) bool {
	return i.pattern.MatchString(s)
}
