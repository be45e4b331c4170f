package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is a priced service request moving through the review lifecycle.
// EstimatedPrice is frozen at creation: BasePrice + FeaturesTotal + ComplexityBonus.
// Status is only ever changed through the workflow, which appends to StatusHistory.
type Quote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteNumber string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	// AccessToken is the client's capability for the tracking view.
	AccessToken string `gorm:"type:varchar(32);uniqueIndex;not null"`

	ClientName    string  `gorm:"type:varchar(120);not null"`
	ClientEmail   string  `gorm:"type:varchar(254);not null;index"`
	ClientPhone   *string `gorm:"type:varchar(40)"`
	ClientCompany *string `gorm:"type:varchar(120)"`

	ServiceType        ServiceType `gorm:"type:varchar(30);not null;index"`
	CustomRequirements *string

	BasePrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FeaturesTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ComplexityBonus decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstimatedPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'ARS'"`
	Disclaimer      string          `gorm:"type:text;not null"`

	Status   QuoteStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Priority Priority    `gorm:"type:varchar(10);not null;default:'LOW'"`
	// AssignedTo is the operator handling the quote, free text.
	AssignedTo *string `gorm:"type:varchar(120)"`

	// LastReminderAt is set once a stale-quote reminder was accepted by the mail provider.
	LastReminderAt *time.Time

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Features      []QuoteFeature  `gorm:"foreignKey:QuoteID"`
	StatusHistory []StatusHistory `gorm:"foreignKey:QuoteID"`
	Notes         []QuoteNote     `gorm:"foreignKey:QuoteID"`
}

// QuoteFeature is one priced add-on; Cost already includes the service multiplier.
type QuoteFeature struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	FeatureID string          `gorm:"type:varchar(60);not null"`
	Name      string          `gorm:"type:varchar(120);not null"`
	Cost      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Position  int             `gorm:"not null"`
}

// StatusHistory is an immutable lifecycle audit row.
// PreviousStatus is nil only for the creation entry.
type StatusHistory struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID        uuid.UUID    `gorm:"type:uuid;not null;index"`
	PreviousStatus *QuoteStatus `gorm:"type:varchar(20)"`
	NewStatus      QuoteStatus  `gorm:"type:varchar(20);not null"`
	ChangedBy      string       `gorm:"type:varchar(120);not null"`
	Notes          *string
	CreatedAt      time.Time
}

func (StatusHistory) TableName() string { return "quote_status_history" }

// QuoteNote is a timestamped annotation. Internal notes are hidden from the client.
type QuoteNote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Author    string    `gorm:"type:varchar(120);not null"`
	Body      string    `gorm:"type:text;not null"`
	Internal  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// QuoteSequence backs quote number issuance: one row per numbering scope.
type QuoteSequence struct {
	Scope string `gorm:"type:varchar(32);primaryKey"`
	Value int    `gorm:"not null"`
}

// SystemActor is the ChangedBy value for transitions not made by an operator.
const SystemActor = "system"

// ClientNotes returns only the notes visible to the client.
func (q *Quote) ClientNotes() []QuoteNote {
	out := make([]QuoteNote, 0, len(q.Notes))
	for _, n := range q.Notes {
		if !n.Internal {
			out = append(out, n)
		}
	}
	return out
}

// Age returns how long ago the quote was created relative to now.
func (q *Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.CreatedAt)
}
