package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/usage"
)

const testModel = "anthropic/claude-sonnet-4.5"

func testConfig(baseURL string) config.OpenRouterConfig {
	return config.OpenRouterConfig{
		APIKey:      "sk-test",
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
		MinWait:     time.Millisecond,
		MaxWait:     2 * time.Millisecond,
		Referer:     "https://example.test",
		Title:       "Resonance Test",
	}
}

func okBody(content string, in, out int) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		"usage":   map[string]any{"prompt_tokens": in, "completion_tokens": out, "total_tokens": in + out},
	})
	return string(b)
}

func TestCompleteRetriesTransientStatusAndRecordsOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, "busy")
			return
		}
		_, _ = io.WriteString(w, okBody("hello", 1000, 500))
	}))
	defer srv.Close()

	ledger := usage.NewLedger()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := New(testConfig(srv.URL), config.DefaultCatalog(), ledger, WithMetrics(metrics))

	resp, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	require.Equal(t, 1, ledger.Len(), "exactly one record per successful call")
	rec := ledger.Records()[0]
	assert.Equal(t, testModel, rec.Model)
	assert.Equal(t, 1500, rec.TotalTokens)
	// 1000/1e6*3 + 500/1e6*15
	assert.InDelta(t, 0.0105, rec.EstimatedCost, 1e-12)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.retries.WithLabelValues(testModel)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(testModel, "success")))
}

func TestCompleteGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ledger := usage.NewLedger()
	c := New(testConfig(srv.URL), nil, ledger)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se), "expected StatusError, got %T", err)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Zero(t, ledger.Len())
}

func TestCompleteDoesNotRetryFatalStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"bad key"}`)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil, usage.NewLedger())
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Contains(t, se.Body, "bad key")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCompleteRetriesTimeout(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-r.Context().Done():
			}
			return
		}
		_, _ = io.WriteString(w, okBody("late", 10, 10))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	ledger := usage.NewLedger()
	c := New(cfg, nil, ledger)
	resp, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "late", resp.Content)
	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, 1, ledger.Len())
}

func TestCompleteUnknownModelMakesNoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil, usage.NewLedger())
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, "nobody/nothing", 0.7)
	require.ErrorIs(t, err, ErrUnknownModel)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCompleteMissingTotalTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"x"}}],"usage":{"prompt_tokens":7,"completion_tokens":5}}`)
	}))
	defer srv.Close()

	ledger := usage.NewLedger()
	c := New(testConfig(srv.URL), nil, ledger)
	resp, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
	assert.Equal(t, 12, ledger.Records()[0].TotalTokens)
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	ledger := usage.NewLedger()
	c := New(testConfig(srv.URL), nil, ledger)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	require.ErrorIs(t, err, ErrEmptyResponse)
	assert.Zero(t, ledger.Len())
}

func TestCompleteInBandError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"context too long"}}`)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil, usage.NewLedger())
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCompleteStopsOnCancelledContext(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(testConfig(srv.URL), nil, usage.NewLedger())
	_, err := c.Complete(ctx, []Message{{Role: "user", Content: "hi"}}, testModel, 0.7)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRequestShapeAndHeaders(t *testing.T) {
	type captured struct {
		header http.Header
		body   completionRequest
		path   string
	}
	got := make(chan captured, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body completionRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		got <- captured{header: r.Header.Clone(), body: body, path: r.URL.Path}
		_, _ = io.WriteString(w, okBody("{}", 1, 1))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL+"/"), nil, usage.NewLedger(),
		WithDefaultModels("perplexity/sonar-deep-research", testModel))

	_, err := c.Research(context.Background(), ResearchRequest{Query: "who is acme", Context: "B2B"})
	require.NoError(t, err)
	research := <-got
	assert.Equal(t, "/chat/completions", research.path)
	assert.Equal(t, "Bearer sk-test", research.header.Get("Authorization"))
	assert.Equal(t, "application/json", research.header.Get("Content-Type"))
	assert.Equal(t, "https://example.test", research.header.Get("HTTP-Referer"))
	assert.Equal(t, "Resonance Test", research.header.Get("X-Title"))
	assert.Equal(t, "perplexity/sonar-deep-research", research.body.Model)
	assert.Equal(t, 0.3, research.body.Temperature)
	assert.Equal(t, 8192, research.body.MaxTokens)
	require.Len(t, research.body.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: "Context: B2B"}, research.body.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "who is acme"}, research.body.Messages[1])

	_, err = c.Analyze(context.Background(), AnalysisRequest{Prompt: "summarize", Data: "rows", SystemPrompt: "be brief"})
	require.NoError(t, err)
	analysis := <-got
	assert.Equal(t, testModel, analysis.body.Model)
	assert.Equal(t, 0.7, analysis.body.Temperature)
	require.Len(t, analysis.body.Messages, 2)
	assert.Equal(t, "system", analysis.body.Messages[0].Role)
	assert.Equal(t, "be brief", analysis.body.Messages[0].Content)
	assert.Equal(t, "summarize\n\nDATA:\nrows", analysis.body.Messages[1].Content)
}

func TestWithMaxTokensOverride(t *testing.T) {
	got := make(chan int, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body completionRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		got <- body.MaxTokens
		_, _ = io.WriteString(w, okBody("ok", 1, 1))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil, usage.NewLedger())
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, testModel, 0.5, WithMaxTokens(256))
	require.NoError(t, err)
	assert.Equal(t, 256, <-got)
}
