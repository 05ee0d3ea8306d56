package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/metrics"
	"github.com/Harshitk-cp/opsconsole/internal/service"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	var seenID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})
	h := RequestID(logger)(Logger(inner))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP request", entry["msg"])
	assert.Equal(t, seenID, entry["request_id"])
	assert.Equal(t, float64(http.StatusAccepted), entry["status"])

	// an incoming id is kept
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"internal_server_error","message":"An internal server error occurred"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := CORS("*")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuth(t *testing.T) {
	auth := service.NewAuthService(config.AuthConfig{Enabled: true, JWTSecret: "secret", JWTExpiration: time.Hour})
	var operator string
	h := Auth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := OperatorFromContext(r.Context())
		require.True(t, ok)
		operator = claims.OperatorID
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer, err := auth.GenerateToken("viewer-1", service.RoleViewer)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+viewer)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err := auth.GenerateToken("op-1", service.RoleOperator)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "op-1", operator)
}

func TestAuthDisabled(t *testing.T) {
	auth := service.NewAuthService(config.AuthConfig{Enabled: false})
	rec := httptest.NewRecorder()
	Auth(auth)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	rl := service.NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstSize: 1, ExpirationTime: time.Minute})
	defer rl.Stop()
	h := RateLimit(rl)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", nil)
	req.RemoteAddr = "10.1.1.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	rl := service.NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstSize: 1, ExpirationTime: time.Minute})
	defer rl.Stop()
	h := RateLimit(rl)(okHandler)

	codes := make([]int, 0, 3)
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req.RemoteAddr = "10.1.1.2:5555"
		req.Header.Set("X-Forwarded-For", xff)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRecoveryLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	h := RequestID(logger)(Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Recovered from panic", entry["msg"])
	assert.Equal(t, "req-7", entry["request_id"])
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	collector := metrics.NewPrometheusCollectorWithRegistry(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(Metrics(collector))
	r.Handle("/api/v1/orders", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	metricsRec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), `console_http_requests_total{method="GET",route="/api/v1/orders",status="200"} 1`)
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.4:1234"
	assert.Equal(t, "192.168.1.4", extractClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", extractClientIP(req))
}
