package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NotFound("id", "quote %s", "abc")
	wrapped := fmt.Errorf("loading quote: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrDuplicate))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestKindOf_UntypedIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Validation("email", "formato invalido"): http.StatusUnprocessableEntity,
		Pricing("features", "desconocido"):     http.StatusUnprocessableEntity,
		NotFound("token", "no existe"):          http.StatusNotFound,
		AccessDenied("token mismatch"):          http.StatusForbidden,
		Duplicate("quote_number", nil):          http.StatusConflict,
		Transient(errors.New("conn refused")):   http.StatusServiceUnavailable,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient(errors.New("timeout"))))
	assert.False(t, IsRetryable(Validation("x", "y")))
}

func TestBody_ValidationCarriesField(t *testing.T) {
	body := Body(Validation("status", "estado desconocido"))
	v, ok := body.(*ValidationError)
	if assert.True(t, ok) {
		assert.Equal(t, "estado desconocido", v.Fields["status"])
	}
}

func TestBody_TransientHidesCause(t *testing.T) {
	body := Body(Transient(errors.New("dial tcp 10.0.0.1:5432: connection refused")))
	e, ok := body.(*APIError)
	if assert.True(t, ok) {
		assert.NotContains(t, e.Detail, "10.0.0.1")
	}
}
