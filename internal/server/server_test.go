package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/frontend"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/security"
)

type analyzerFunc func(ctx context.Context, username string) (analysis.AnalysisResult, error)

func (f analyzerFunc) Analyze(ctx context.Context, username string) (analysis.AnalysisResult, error) {
	return f(ctx, username)
}

type githubStub map[string]interface{}

func (g githubStub) Stats() map[string]interface{} { return g }

func sampleResult(username string) analysis.AnalysisResult {
	return analysis.AnalysisResult{
		Username: username,
		Overall:  7.25,
		Metrics: []analysis.MetricScore{
			{Dimension: analysis.Activity, Value: 8, Available: true},
		},
		Strengths:       []analysis.Dimension{analysis.Activity},
		Weaknesses:      []analysis.Dimension{},
		Recommendations: []string{},
		Headline:        analysis.Headline(7.25),
	}
}

func setupRouter(t *testing.T, a analyzerFunc, github GitHubStatus) (*Server, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dashboard, err := frontend.NewDashboard(analysis.DefaultPolicy())
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	s := New(Options{
		Analyzer:  a,
		Metrics:   metrics,
		Logger:    monitoring.NewJSONLogger(&bytes.Buffer{}, slog.LevelError),
		Security:  security.DefaultSecurityConfig(),
		Dashboard: dashboard,
		GitHub:    github,
	})
	return s, metrics
}

func okAnalyzer(_ context.Context, username string) (analysis.AnalysisResult, error) {
	return sampleResult(username), nil
}

func postJSON(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, githubStub{"circuit_breaker_state": "closed", "authenticated": true})

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{name: "GET /health returns OK status", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "POST /health is not routed", method: http.MethodPost, expectedStatus: http.StatusNotFound},
		{name: "DELETE /health is not routed", method: http.MethodDelete, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, "/health", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.Contains(t, body, "metrics")
	assert.Equal(t, true, body["github"].(map[string]interface{})["authenticated"])
}

func TestHealthDegradedWhenBreakerOpen(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, githubStub{"circuit_breaker_state": "open"})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestAnalyzeEndpoint(t *testing.T) {
	var got string
	s, _ := setupRouter(t, func(ctx context.Context, username string) (analysis.AnalysisResult, error) {
		got = username
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return sampleResult(username), nil
	}, nil)

	w := postJSON(s, `{"username":"octocat"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "octocat", got)

	var result analysis.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "octocat", result.Username)
	assert.Equal(t, 7.25, result.Overall)
	assert.Equal(t, []analysis.Dimension{analysis.Activity}, result.Strengths)
}

func TestAnalyzeEndpoint_InvalidRequests(t *testing.T) {
	called := false
	s, _ := setupRouter(t, func(ctx context.Context, username string) (analysis.AnalysisResult, error) {
		called = true
		return sampleResult(username), nil
	}, nil)

	tests := []struct {
		name           string
		body           string
		contentType    string
		expectedStatus int
	}{
		{name: "malformed JSON", body: `{"username":`, contentType: "application/json", expectedStatus: http.StatusBadRequest},
		{name: "missing username", body: `{}`, contentType: "application/json", expectedStatus: http.StatusBadRequest},
		{name: "form body", body: `username=octocat`, contentType: "application/x-www-form-urlencoded", expectedStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"category":"validation"`)
		})
	}
	assert.False(t, called)
}

func TestAnalyzeEndpoint_ErrorMapping(t *testing.T) {
	reset := time.Now().Add(15 * time.Minute)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		category       string
		retryAfter     bool
	}{
		{name: "invalid username", err: apperrors.NewValidationError("invalid GitHub username"), expectedStatus: http.StatusBadRequest, category: "validation"},
		{name: "unknown user", err: apperrors.NewNotFoundError("ghost"), expectedStatus: http.StatusNotFound, category: "not_found"},
		{name: "rate limited", err: apperrors.NewRateLimitError(reset), expectedStatus: http.StatusTooManyRequests, category: "rate_limit", retryAfter: true},
		{name: "network", err: apperrors.NewNetworkError("GitHub unreachable", errors.New("dial tcp")), expectedStatus: http.StatusBadGateway, category: "network"},
		{name: "plain error", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, category: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupRouter(t, func(context.Context, string) (analysis.AnalysisResult, error) {
				return analysis.AnalysisResult{}, tt.err
			}, nil)

			w := postJSON(s, `{"username":"octocat"}`)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, apperrors.ErrorCategory(tt.category), body.Category)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, w.Header().Get(RequestIDHeader), body.RequestID)

			if tt.retryAfter {
				assert.NotEmpty(t, w.Header().Get("Retry-After"))
				require.NotNil(t, body.ResetAt)
			} else {
				assert.Empty(t, w.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	const incoming = "6f1c1d9e-0c55-4c7e-9a43-5b3b9f0d2a11"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, nil)

	postJSON(s, `{"username":"octocat"}`)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ghpa_http_requests_total{method="POST",path="/analyze",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestDashboardAndSecurityHeaders(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "GitHub Profile Analyzer")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "script-src 'self' 'nonce-")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"not_found"`)
}

func TestSwaggerDoc(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/analyze"`)
	assert.Contains(t, w.Body.String(), "GitHub Profile Analyzer API")
}

func TestCORSPreflight(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, nil)

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, _ := setupRouter(t, okAnalyzer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
