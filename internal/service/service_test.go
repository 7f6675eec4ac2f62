package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func metricOf(t *testing.T, r analysis.AnalysisResult, d analysis.Dimension) analysis.MetricScore {
	t.Helper()
	m, ok := r.Metric(d)
	require.True(t, ok, "no %s metric", d)
	return m
}

type fakeClient struct {
	profile    types.Profile
	profileErr error
	repos      []types.Repository
	reposErr   error
	events     []types.Event
	eventsErr  error
	readme     map[string]bool
	readmeErr  error

	mu           sync.Mutex
	readmeCalls  []string
	inFlight     int32
	peakInFlight int32
}

func (f *fakeClient) FetchProfile(_ context.Context, username string) (types.Profile, error) {
	if f.profileErr != nil {
		return types.Profile{}, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeClient) FetchRepositories(context.Context, string) ([]types.Repository, error) {
	if f.reposErr != nil {
		return nil, f.reposErr
	}
	out := make([]types.Repository, len(f.repos))
	copy(out, f.repos)
	return out, nil
}

func (f *fakeClient) FetchRecentEvents(context.Context, string) ([]types.Event, error) {
	return f.events, f.eventsErr
}

func (f *fakeClient) HasReadme(_ context.Context, _, repo string) (bool, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peakInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peakInFlight, peak, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.readmeCalls = append(f.readmeCalls, repo)
	f.mu.Unlock()

	if f.readmeErr != nil {
		return false, f.readmeErr
	}
	return f.readme[repo], nil
}

func newTestService(t *testing.T, client GitHubClient, opts Options, extra ...Option) *AnalysisService {
	t.Helper()
	scorer, err := analysis.NewAnalyzer(analysis.DefaultPolicy())
	require.NoError(t, err)

	logger := monitoring.NewJSONLogger(&bytes.Buffer{}, slog.LevelDebug)
	options := append([]Option{WithClock(func() time.Time { return fixedNow }), WithLogger(logger)}, extra...)
	return NewAnalysisService(client, scorer, opts, options...)
}

func scrape(t *testing.T, m *monitoring.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}

func sampleClient() *fakeClient {
	repos := []types.Repository{
		{Name: "cli", Description: "a cli", Language: "Go", StargazersCount: 10, Size: 500, UpdatedAt: fixedNow.Add(-48 * time.Hour)},
		{Name: "web", Description: "a site", Language: "TypeScript", ForksCount: 2, Size: 2000, UpdatedAt: fixedNow.Add(-72 * time.Hour)},
		{Name: "forked", Language: "Rust", Fork: true, Size: 100},
	}
	events := []types.Event{
		{Type: "PushEvent", CreatedAt: fixedNow.Add(-24 * time.Hour), Repo: "octocat/cli"},
		{Type: "PullRequestEvent", CreatedAt: fixedNow.Add(-50 * time.Hour), Repo: "octocat/web"},
	}
	return &fakeClient{
		profile: types.Profile{Login: "octocat", Followers: 12, Following: 3, AvatarURL: "https://avatars.githubusercontent.com/u/1"},
		repos:   repos,
		events:  events,
		readme:  map[string]bool{"cli": true},
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	client := sampleClient()
	metrics := monitoring.NewMetrics()
	svc := newTestService(t, client, Options{}, WithMetrics(metrics))

	result, err := svc.Analyze(context.Background(), "  @octocat ")
	require.NoError(t, err)

	assert.Equal(t, "octocat", result.Username)
	assert.Equal(t, fixedNow, result.AsOf)
	assert.False(t, result.Partial)
	assert.Empty(t, result.Warnings)
	assert.Len(t, result.Metrics, 5)
	assert.GreaterOrEqual(t, result.Overall, 0.0)
	assert.LessOrEqual(t, result.Overall, 10.0)
	assert.NotEmpty(t, result.Headline)

	// forks are filtered before scoring, so Rust does not count
	diversity := metricOf(t, result, analysis.Diversity)
	assert.Equal(t, 2.0, diversity.Factors[0].Value)

	assert.Empty(t, client.readmeCalls)
	assert.Contains(t, scrape(t, metrics), `ghpa_analyses_total{outcome="success"} 1`)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	svc := newTestService(t, sampleClient(), Options{})

	a, err := svc.Analyze(context.Background(), "octocat")
	require.NoError(t, err)
	b, err := svc.Analyze(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzeIncludeForks(t *testing.T) {
	svc := newTestService(t, sampleClient(), Options{IncludeForks: true})

	result, err := svc.Analyze(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, 3.0, metricOf(t, result, analysis.Diversity).Factors[0].Value)
}

func TestAnalyzeInvalidUsername(t *testing.T) {
	client := sampleClient()
	svc := newTestService(t, client, Options{})

	_, err := svc.Analyze(context.Background(), "bad--name")
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryValidation, apperrors.CategoryOf(err))

	_, err = svc.Analyze(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryValidation, apperrors.CategoryOf(err))
}

func TestAnalyzeFailures(t *testing.T) {
	reset := fixedNow.Add(10 * time.Minute)

	tests := []struct {
		name     string
		mutate   func(*fakeClient)
		category apperrors.ErrorCategory
		outcome  string
	}{
		{
			name:     "profile not found",
			mutate:   func(f *fakeClient) { f.profileErr = apperrors.NewNotFoundError("ghost") },
			category: apperrors.CategoryNotFound,
			outcome:  "not_found",
		},
		{
			name:     "rate limited",
			mutate:   func(f *fakeClient) { f.profileErr = apperrors.NewRateLimitError(reset) },
			category: apperrors.CategoryRateLimit,
			outcome:  "rate_limited",
		},
		{
			name:     "repositories unavailable",
			mutate:   func(f *fakeClient) { f.reposErr = apperrors.NewNetworkError("connection refused", errors.New("dial")) },
			category: apperrors.CategoryNetwork,
			outcome:  "network",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := sampleClient()
			tt.mutate(client)
			metrics := monitoring.NewMetrics()
			svc := newTestService(t, client, Options{}, WithMetrics(metrics))

			result, err := svc.Analyze(context.Background(), "octocat")
			require.Error(t, err)
			assert.Equal(t, tt.category, apperrors.CategoryOf(err))
			assert.Empty(t, result.Metrics)
			assert.Contains(t, scrape(t, metrics), `ghpa_analyses_total{outcome="`+tt.outcome+`"} 1`)
		})
	}
}

func TestAnalyzeEventsUnavailableIsPartial(t *testing.T) {
	client := sampleClient()
	client.eventsErr = apperrors.NewTimeoutError("events timed out", context.DeadlineExceeded)
	metrics := monitoring.NewMetrics()
	svc := newTestService(t, client, Options{}, WithMetrics(metrics))

	result, err := svc.Analyze(context.Background(), "octocat")
	require.NoError(t, err)

	assert.True(t, result.Partial)
	assert.Len(t, result.Warnings, 1)
	activity := metricOf(t, result, analysis.Activity)
	assert.False(t, activity.Available)
	assert.NotContains(t, result.Weaknesses, analysis.Activity)
	assert.Contains(t, scrape(t, metrics), `ghpa_analyses_total{outcome="partial"} 1`)
}

func TestAnalyzeChecksReadmes(t *testing.T) {
	client := sampleClient()
	for i := 0; i < 12; i++ {
		client.repos = append(client.repos, types.Repository{Name: fmt.Sprintf("extra-%d", i), Size: 10})
	}
	svc := newTestService(t, client, Options{CheckReadme: true, ReadmeConcurrency: 3})

	result, err := svc.Analyze(context.Background(), "octocat")
	require.NoError(t, err)

	// forks are not checked
	assert.Len(t, client.readmeCalls, 14)
	assert.NotContains(t, client.readmeCalls, "forked")
	assert.LessOrEqual(t, atomic.LoadInt32(&client.peakInFlight), int32(3))

	doc := metricOf(t, result, analysis.Documentation)
	require.Len(t, doc.Factors, 3)
	assert.Equal(t, "with README", doc.Factors[2].Label)
	assert.Empty(t, result.Warnings)
}

func TestAnalyzeReadmeFailuresLeaveUnknown(t *testing.T) {
	client := sampleClient()
	client.readmeErr = apperrors.NewNetworkError("boom", errors.New("reset"))
	svc := newTestService(t, client, Options{CheckReadme: true})

	result, err := svc.Analyze(context.Background(), "octocat")
	require.NoError(t, err)

	assert.False(t, result.Partial)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "README presence unknown for 2 repositories")
	assert.Len(t, metricOf(t, result, analysis.Documentation).Factors, 2)
}

func TestAnalyzeCanceled(t *testing.T) {
	client := sampleClient()
	client.eventsErr = context.Canceled
	svc := newTestService(t, client, Options{})

	_, err := svc.Analyze(context.Background(), "octocat")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, monitoring.OutcomeSuccess, outcomeOf(nil, false))
	assert.Equal(t, monitoring.OutcomePartial, outcomeOf(nil, true))
	assert.Equal(t, monitoring.OutcomeInvalid, outcomeOf(apperrors.NewValidationError("x"), false))
	assert.Equal(t, monitoring.OutcomeNetwork, outcomeOf(apperrors.NewExternalAPIError("GitHub", 500, nil), false))
	assert.Equal(t, monitoring.OutcomeError, outcomeOf(context.Canceled, false))
}
