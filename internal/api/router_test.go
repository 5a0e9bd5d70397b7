package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mtm-engine/internal/api/handlers"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/valuation"
	"github.com/wonny/mtm-engine/pkg/config"
	"github.com/wonny/mtm-engine/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            "development",
		MetricsEnabled: true,
		API: config.APIConfig{
			RateLimit:   100,
			RateBurst:   100,
			CORSOrigins: []string{"http://localhost:3000"},
			MaxBodySize: 1 << 20,
		},
	}
}

func testRouter(cfg *config.Config) http.Handler {
	log := logger.Nop()
	h := handlers.NewValuationHandler(valuation.NewEngine(log), mtmconfig.Defaults(), cfg.API.MaxBodySize, log)
	return NewRouter(h, cfg, log)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(testConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"mtm-engine"`)
}

func TestRoutes(t *testing.T) {
	router := testRouter(testConfig())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"settings", http.MethodGet, "/api/settings", "", http.StatusOK},
		{"valuation", http.MethodPost, "/api/valuations", `{"valuation_date":"2025-06-20","contracts":[],"prices":[]}`, http.StatusOK},
		{"wrong method", http.MethodGet, "/api/valuations", "", http.StatusMethodNotAllowed},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"not found", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false

	rec := httptest.NewRecorder()
	testRouter(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.API.RateLimit = 0.001
	cfg.API.RateBurst = 2
	router := testRouter(cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// health는 rate limit 대상 아님
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	router := testRouter(testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/valuations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
