package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/budget"
)

var testSecret = []byte("test-secret")

func protected(t *testing.T, token string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := func(c echo.Context) error {
		sub, _ := SubjectFromContext(c.Request().Context())
		return c.String(http.StatusOK, sub)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return rec, h(c)
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestAuthMiddleware(t *testing.T) {
	token, err := SignJWT("alice", testSecret, time.Hour, ScopeRunsWrite)
	require.NoError(t, err)

	rec, err := protected(t, token, EchoAuthMiddleware(testSecret), RequireScopes(ScopeRunsWrite))
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Body.String())

	_, err = protected(t, "", EchoAuthMiddleware(testSecret))
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))

	_, err = protected(t, token, EchoAuthMiddleware([]byte("other")))
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))

	expired, err := SignJWT("alice", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = protected(t, expired, EchoAuthMiddleware(testSecret))
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))
}

func TestAuthMiddlewareRejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	require.NoError(t, err)

	_, err = protected(t, signed, EchoAuthMiddleware(testSecret))
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))
}

func TestRequireScopes(t *testing.T) {
	token, err := SignJWT("bob", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = protected(t, token, EchoAuthMiddleware(testSecret), RequireScopes(ScopeRunsWrite))
	assert.Equal(t, http.StatusForbidden, httpCode(t, err))
}

func TestNormaliseScopes(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normaliseScopes("a  b"))
	assert.Equal(t, []string{"a"}, normaliseScopes([]interface{}{"a", 3, " "}))
	assert.Nil(t, normaliseScopes(42))
}

func TestSignJWTWithoutSecret(t *testing.T) {
	_, err := SignJWT("alice", nil, time.Hour)
	assert.ErrorIs(t, err, ErrNoJWTSecret)
	assert.Nil(t, LoadJWTSecret(&config.Config{}))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger("", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("chatty", false)
	assert.Error(t, err)
}

func TestSetupTelemetryDisabled(t *testing.T) {
	tel, err := SetupTelemetry(context.Background(), config.TelemetryConfig{}, "test", nil)
	require.NoError(t, err)
	assert.NotNil(t, tel.Registry)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func testConfig() *config.Config {
	return &config.Config{
		OpenRouter: config.OpenRouterConfig{
			BaseURL:     "http://127.0.0.1:0",
			Timeout:     time.Second,
			MaxAttempts: 1,
		},
		Models: config.ModelsConfig{
			Research: config.DefaultResearchModel,
			Analysis: config.DefaultAnalysisModel,
		},
		Pipeline: config.PipelineConfig{}.Normalize(),
		Budget:   config.BudgetConfig{MaxCost: 2},
	}
}

func TestFactoryNewRun(t *testing.T) {
	f, err := NewFactory(testConfig(), nil, prometheus.NewRegistry())
	require.NoError(t, err)

	run, err := f.NewRun(RunOptions{AnalysisModel: "openai/gpt-4.1", Budget: budget.Config{MaxTokens: 100}})
	require.NoError(t, err)
	assert.NotNil(t, run.Orchestrator)
	assert.Same(t, run.Ledger, run.Client.Ledger())
	assert.Zero(t, run.Ledger.Len())

	other, err := f.NewRun(RunOptions{})
	require.NoError(t, err)
	assert.NotSame(t, run.Ledger, other.Ledger)
}

func TestFactoryRejectsBadOverrides(t *testing.T) {
	f, err := NewFactory(testConfig(), nil, nil)
	require.NoError(t, err)

	_, err = f.NewRun(RunOptions{AnalysisModel: "nope/model"})
	assert.ErrorIs(t, err, config.ErrUnknownModel)

	_, err = f.NewRun(RunOptions{Budget: budget.Config{MaxCost: -1}})
	assert.Error(t, err)
}

func TestInitProgressDisabled(t *testing.T) {
	pub, rdb, err := InitProgress(context.Background(), config.RedisConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, pub)
	assert.Nil(t, rdb)
}
