// Package apierror provides the error taxonomy of the quote service and the
// JSON envelopes used for every 4xx/5xx response. Handlers never write raw
// error strings from the store; they go through Body so internal details
// (SQL errors, stack traces) are not leaked.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Kind classifies an expected failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAccessDenied
	KindDuplicate
	KindTransient
	KindPricing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindDuplicate:
		return "duplicate"
	case KindTransient:
		return "transient_store"
	case KindPricing:
		return "pricing"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrAccessDenied = &Error{Kind: KindAccessDenied}
	ErrDuplicate    = &Error{Kind: KindDuplicate}
	ErrTransient    = &Error{Kind: KindTransient}
	ErrPricing      = &Error{Kind: KindPricing}
)

// Error is a typed domain error. Field names the offending input (validation)
// or identifier (not found / duplicate); Err keeps the underlying cause.
type Error struct {
	Kind   Kind
	Field  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " [" + e.Field + "]"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of field and detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(field, detail string) error {
	return &Error{Kind: KindValidation, Field: field, Detail: detail}
}

func NotFound(field, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Field: field, Detail: fmt.Sprintf(format, args...)}
}

func AccessDenied(detail string) error {
	return &Error{Kind: KindAccessDenied, Detail: detail}
}

func Duplicate(field string, err error) error {
	return &Error{Kind: KindDuplicate, Field: field, Detail: "valor duplicado", Err: err}
}

func Transient(err error) error {
	return &Error{Kind: KindTransient, Detail: "almacenamiento no disponible", Err: err}
}

func Pricing(field, detail string) error {
	return &Error{Kind: KindPricing, Field: field, Detail: detail}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the operation as-is.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindPricing:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindDuplicate:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Body builds the response envelope for err. Internal and transient causes are
// replaced by a generic message.
func Body(err error) any {
	var e *Error
	if !errors.As(err, &e) {
		return New("Error interno del servidor")
	}
	switch e.Kind {
	case KindValidation, KindPricing:
		field := e.Field
		if field == "" {
			field = "request"
		}
		return NewValidation(map[string]string{field: e.Detail})
	case KindNotFound:
		return New("Cotizacion no encontrada")
	case KindAccessDenied:
		return New("Acceso denegado")
	case KindDuplicate:
		return New("La cotizacion ya existe")
	case KindTransient:
		return New("Servicio temporalmente no disponible, intente nuevamente")
	default:
		return New("Error interno del servidor")
	}
}
