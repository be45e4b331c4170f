// Package workflow applies quote status transitions. Every accepted transition
// updates the quote and appends a history entry in one store transaction.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"hexagono/internal/apierror"
	"hexagono/internal/model"

	"github.com/google/uuid"
)

// StatusChange is what the store applies under the quote's row lock.
// Guard runs against the locked current status; a non-nil error aborts the
// transaction and is returned unchanged.
type StatusChange struct {
	To        model.QuoteStatus
	ChangedBy string
	Notes     *string
	Guard     func(from model.QuoteStatus) error
}

// Store persists transitions atomically.
type Store interface {
	TransitionStatus(ctx context.Context, id uuid.UUID, change StatusChange) (*model.Quote, *model.StatusHistory, error)
}

// Result is the outcome of an applied transition.
type Result struct {
	Quote    *model.Quote
	Entry    *model.StatusHistory
	Previous model.QuoteStatus
}

// Changed reports whether the status actually moved.
func (r Result) Changed() bool { return r.Previous != r.Quote.Status }

var strictGraph = map[model.QuoteStatus][]model.QuoteStatus{
	model.StatusPending:   {model.StatusInReview, model.StatusQuoted, model.StatusCancelled},
	model.StatusInReview:  {model.StatusPending, model.StatusQuoted, model.StatusCancelled},
	model.StatusQuoted:    {model.StatusInReview, model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted: {},
	model.StatusCancelled: {model.StatusPending},
}

// Allowed reports whether from → to is an edge of the strict graph.
// Self-transitions are always allowed.
func Allowed(from, to model.QuoteStatus) bool {
	if from == to {
		return true
	}
	for _, s := range strictGraph[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Option func(*Workflow)

// WithStrictTransitions restricts transitions to the edges accepted by Allowed.
// Without it any status in the enum can follow any other.
func WithStrictTransitions(strict bool) Option {
	return func(w *Workflow) { w.strict = strict }
}

type Workflow struct {
	store  Store
	strict bool
}

func New(store Store, opts ...Option) *Workflow {
	w := &Workflow{store: store}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Workflow) Strict() bool { return w.strict }

// Transition moves quote id to status to. An empty changedBy is recorded as
// model.SystemActor; blank notes are stored as nil.
func (w *Workflow) Transition(ctx context.Context, id uuid.UUID, to model.QuoteStatus, changedBy string, notes string) (Result, error) {
	if !to.Valid() {
		return Result{}, apierror.Validation("status", fmt.Sprintf("estado invalido: %q", string(to)))
	}
	changedBy = strings.TrimSpace(changedBy)
	if changedBy == "" {
		changedBy = model.SystemActor
	}
	var notesPtr *string
	if n := strings.TrimSpace(notes); n != "" {
		notesPtr = &n
	}

	change := StatusChange{To: to, ChangedBy: changedBy, Notes: notesPtr}
	if w.strict {
		change.Guard = func(from model.QuoteStatus) error {
			if !Allowed(from, to) {
				return apierror.Validation("status",
					fmt.Sprintf("transicion no permitida: %s -> %s", from, to))
			}
			return nil
		}
	}

	q, entry, err := w.store.TransitionStatus(ctx, id, change)
	if err != nil {
		return Result{}, err
	}

	res := Result{Quote: q, Entry: entry, Previous: to}
	if entry != nil && entry.PreviousStatus != nil {
		res.Previous = *entry.PreviousStatus
	}
	return res, nil
}
