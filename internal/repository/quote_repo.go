package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"hexagono/internal/apierror"
	"hexagono/internal/dto"
	"hexagono/internal/identifier"
	"hexagono/internal/model"
	"hexagono/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NumberFunc issues the quote number using a counter bound to the create transaction.
type NumberFunc func(ctx context.Context, counter identifier.SequenceCounter) (string, error)

// QuoteAttributes are the operator-editable fields outside the status workflow.
// Nil fields are left untouched.
type QuoteAttributes struct {
	Priority   *model.Priority
	AssignedTo *string
}

type QuoteRepository interface {
	workflow.Store

	Create(ctx context.Context, q *model.Quote, number NumberFunc) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	FindByToken(ctx context.Context, token string) (*model.Quote, error)
	FindByNumber(ctx context.Context, number string) (*model.Quote, error)
	List(ctx context.Context, filter dto.QuoteFilter) ([]model.Quote, int64, error)
	ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Quote, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
	AddNote(ctx context.Context, note *model.QuoteNote) error
	UpdateAttributes(ctx context.Context, id uuid.UUID, attrs QuoteAttributes) (*model.Quote, error)
	DB() *gorm.DB
}

type quoteRepo struct{ db *gorm.DB }

func NewQuoteRepository(db *gorm.DB) QuoteRepository { return &quoteRepo{db: db} }

func (r *quoteRepo) DB() *gorm.DB { return r.db }

// txCounter draws sequence values inside the caller's transaction. The upsert
// takes a row lock on the scope, so concurrent creations queue behind it.
type txCounter struct{ tx *gorm.DB }

func (c txCounter) Next(ctx context.Context, scope string) (int, error) {
	var value int
	err := c.tx.WithContext(ctx).Raw(`
INSERT INTO quote_sequences (scope, value) VALUES (?, 1)
ON CONFLICT (scope) DO UPDATE SET value = quote_sequences.value + 1
RETURNING value`, scope).Scan(&value).Error
	return value, err
}

// Create inserts q with its features and the initial history entry. The quote
// number is drawn from the sequence in the same transaction, so a rollback
// also returns the number.
func (r *quoteRepo) Create(ctx context.Context, q *model.Quote, number NumberFunc) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		num, err := number(ctx, txCounter{tx: tx})
		if err != nil {
			return err
		}
		q.QuoteNumber = num
		if q.Status == "" {
			q.Status = model.StatusPending
		}
		for i := range q.Features {
			q.Features[i].Position = i
		}
		if err := tx.Omit("StatusHistory", "Notes").Create(q).Error; err != nil {
			return err
		}
		entry := model.StatusHistory{
			QuoteID:   q.ID,
			NewStatus: q.Status,
			ChangedBy: model.SystemActor,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		q.StatusHistory = []model.StatusHistory{entry}
		return nil
	})
	return classify(err, "quote_number")
}

func (r *quoteRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Features", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *quoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var q model.Quote
	if err := r.preloaded(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "id", "cotizacion %s no encontrada", id)
	}
	return &q, nil
}

func (r *quoteRepo) FindByToken(ctx context.Context, token string) (*model.Quote, error) {
	var q model.Quote
	if err := r.preloaded(ctx).First(&q, "access_token = ?", token).Error; err != nil {
		return nil, notFoundOr(err, "token", "token de seguimiento desconocido")
	}
	return &q, nil
}

func (r *quoteRepo) FindByNumber(ctx context.Context, number string) (*model.Quote, error) {
	var q model.Quote
	if err := r.preloaded(ctx).First(&q, "quote_number = ?", number).Error; err != nil {
		return nil, notFoundOr(err, "quote_number", "cotizacion %s no encontrada", number)
	}
	return &q, nil
}

// TransitionStatus locks the quote row, runs the guard against the current
// status, updates it and appends the history entry in one transaction.
func (r *quoteRepo) TransitionStatus(ctx context.Context, id uuid.UUID, change workflow.StatusChange) (*model.Quote, *model.StatusHistory, error) {
	var (
		out   model.Quote
		entry model.StatusHistory
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&out, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "id", "cotizacion %s no encontrada", id)
		}
		if change.Guard != nil {
			if err := change.Guard(out.Status); err != nil {
				return err
			}
		}
		prev := out.Status
		now := time.Now()
		if err := tx.Model(&model.Quote{}).Where("id = ?", id).
			Updates(map[string]any{"status": change.To, "updated_at": now}).Error; err != nil {
			return err
		}
		entry = model.StatusHistory{
			QuoteID:        id,
			PreviousStatus: &prev,
			NewStatus:      change.To,
			ChangedBy:      change.ChangedBy,
			Notes:          change.Notes,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		out.Status = change.To
		out.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, nil, classify(err, "id")
	}
	return &out, &entry, nil
}

func (r *quoteRepo) List(ctx context.Context, filter dto.QuoteFilter) ([]model.Quote, int64, error) {
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := r.db.WithContext(ctx).Model(&model.Quote{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.ServiceType != "" {
		q = q.Where("service_type = ?", filter.ServiceType)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("client_name ILIKE ? OR client_email ILIKE ? OR quote_number ILIKE ?", like, like, like)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "")
	}

	var quotes []model.Quote
	err := q.Preload("Features", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&quotes).Error
	if err != nil {
		return nil, 0, classify(err, "")
	}
	return quotes, total, nil
}

func (r *quoteRepo) ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Quote, error) {
	var quotes []model.Quote
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.StatusPending, cutoff).
		Where("last_reminder_at IS NULL OR last_reminder_at < ?", cutoff).
		Order("created_at ASC").
		Find(&quotes).Error
	if err != nil {
		return nil, classify(err, "")
	}
	return quotes, nil
}

func (r *quoteRepo) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Quote{}).Where("id = ?", id).
		UpdateColumn("last_reminder_at", at)
	if res.Error != nil {
		return classify(res.Error, "id")
	}
	if res.RowsAffected == 0 {
		return apierror.NotFound("id", "cotizacion %s no encontrada", id)
	}
	return nil
}

func (r *quoteRepo) AddNote(ctx context.Context, note *model.QuoteNote) error {
	err := r.db.WithContext(ctx).Create(note).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apierror.NotFound("id", "cotizacion %s no encontrada", note.QuoteID)
	}
	return classify(err, "")
}

func (r *quoteRepo) UpdateAttributes(ctx context.Context, id uuid.UUID, attrs QuoteAttributes) (*model.Quote, error) {
	fields := map[string]any{}
	if attrs.Priority != nil {
		fields["priority"] = *attrs.Priority
	}
	if attrs.AssignedTo != nil {
		if a := strings.TrimSpace(*attrs.AssignedTo); a != "" {
			fields["assigned_to"] = a
		} else {
			fields["assigned_to"] = nil
		}
	}
	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		res := r.db.WithContext(ctx).Model(&model.Quote{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, classify(res.Error, "id")
		}
		if res.RowsAffected == 0 {
			return nil, apierror.NotFound("id", "cotizacion %s no encontrada", id)
		}
	}
	return r.FindByID(ctx, id)
}

func notFoundOr(err error, field, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(field, format, args...)
	}
	return classify(err, field)
}

// classify maps driver errors onto the apierror kinds. Errors that already
// carry a kind pass through unchanged.
func classify(err error, field string) error {
	if err == nil {
		return nil
	}
	var typed *apierror.Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierror.Duplicate(field, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(field, "registro no encontrado")
	}
	if isTransient(err) {
		return apierror.Transient(err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
