package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CircuitBreaker guards the SMTP relay. While open, sends fail immediately,
// the reminder cron skips its tick and /health reports the relay state.
// Errors matched by Ignore (a rejected recipient, a cancelled context) say
// nothing about the relay and leave the counters alone.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig
	now  func() time.Time

	mu        sync.Mutex
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
}

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned by Execute without calling fn.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive relay failures before opening
	SuccessThreshold int           // successful probes needed to close again
	OpenTimeout      time.Duration // time spent open before the first probe
	Ignore           func(error) bool
}

// DefaultCBConfig is tuned for a hosted SMTP relay.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "smtp",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
		Ignore:           IsRecipientRejection,
	}
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{name: cfg.Name, cfg: cfg, now: time.Now}
}

// State reports the current state. An open breaker whose timeout elapsed
// reads as half-open.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	return cb.state
}

func (cb *CircuitBreaker) IsOpen() bool { return cb.State() == CBOpen }

// Execute runs fn unless the breaker is open. In half-open only one probe is
// in flight; concurrent callers get ErrCircuitOpen until it returns.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	cb.refreshLocked()
	switch {
	case cb.state == CBOpen:
		cb.mu.Unlock()
		return ErrCircuitOpen
	case cb.state == CBHalfOpen && cb.probing:
		cb.mu.Unlock()
		return ErrCircuitOpen
	case cb.state == CBHalfOpen:
		cb.probing = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
	switch {
	case err == nil:
		cb.recordSuccessLocked()
	case cb.cfg.Ignore != nil && cb.cfg.Ignore(err):
	default:
		cb.recordFailureLocked()
	}
	return err
}

func (cb *CircuitBreaker) refreshLocked() {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.setStateLocked(CBHalfOpen)
	}
}

func (cb *CircuitBreaker) recordFailureLocked() {
	switch cb.state {
	case CBClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.setStateLocked(CBOpen)
		}
	case CBHalfOpen:
		cb.setStateLocked(CBOpen)
	}
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.setStateLocked(CBClosed)
		}
	}
}

func (cb *CircuitBreaker) setStateLocked(next CBState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0
	if next == CBOpen {
		cb.openedAt = cb.now()
	}
	ev := log.Info()
	if next == CBOpen {
		ev = log.Warn()
	}
	ev.Str("breaker", cb.name).Str("from", prev.String()).Str("to", next.String()).
		Msg("circuit_breaker: state change")
}
