package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hexagono/internal/config"
	"hexagono/internal/middleware"
	"hexagono/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// The routes exercised here never reach the repository.
func testEngine(env string) *gin.Engine {
	cfg := &config.Config{Env: env, JWTSecret: testSecret, SubmitRateLimit: 2}
	svc := service.NewQuoteService(service.QuoteServiceDeps{})
	return Routes(cfg, nil, nil, nil, svc)
}

func request(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, rol string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1", "username": "lucia", "rol": rol,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestPublicRoutes(t *testing.T) {
	r := testEngine("development")

	w := request(r, http.MethodGet, "/v1/catalogo", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = request(r, http.MethodPost, "/v1/cotizaciones/preview", `{"service_type":"LANDING_PAGE","features":["seo-optimization"]}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":"210000"`)

	w = request(r, http.MethodPost, "/v1/cotizaciones/rapida", `{"service_type":"SOCIAL_MEDIA"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":"180000"`)

	w = request(r, http.MethodGet, "/v1/seguimiento/too-short", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitIsRateLimited(t *testing.T) {
	r := testEngine("development")
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusBadRequest, request(r, http.MethodPost, "/v1/cotizaciones", "{", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, request(r, http.MethodPost, "/v1/cotizaciones", "{", "").Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := testEngine("development")

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/v1/admin/cotizaciones", "", "").Code)
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/v1/admin/cotizaciones", "", token(t, "cliente")).Code)

	// operador may not run operational endpoints
	w := request(r, http.MethodGet, "/v1/admin/notificaciones/dlq", "", token(t, middleware.RoleOperador))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(r, http.MethodPatch, "/v1/admin/cotizaciones/not-a-uuid/estado", `{"status":"QUOTED"}`, token(t, middleware.RoleOperador))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSwaggerOnlyOutsideProduction(t *testing.T) {
	w := request(testEngine("production"), http.MethodGet, "/swagger/index.html", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
