package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/resilience"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "ghprofile/1.0"

	perPage        = 100
	maxEventPages  = 3
	unauthPerHour  = 60
	authedPerHour  = 5000
	errBodySnippet = 512
)

// Endpoint labels used for logging and metrics
const (
	EndpointProfile = "profile"
	EndpointRepos   = "repos"
	EndpointEvents  = "events"
	EndpointReadme  = "readme"
)

// RequestObserver receives one observation per GitHub call
type RequestObserver interface {
	ObserveGitHubRequest(endpoint, outcome string, duration time.Duration)
}

// Config configures a GitHubAdapter. The zero value talks to api.github.com
// without a token.
type Config struct {
	Token        string
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	MaxRepoPages int
}

// GitHubAdapter fetches public profile data from the GitHub REST API
type GitHubAdapter struct {
	token        string
	baseURL      string
	userAgent    string
	maxRepoPages int

	pool     *resilience.ConnectionPool
	limiter  *rate.Limiter
	observer RequestObserver
	now      func() time.Time

	// set when GitHub reports an exhausted budget
	mu           sync.Mutex
	blockedUntil time.Time
}

// NewGitHubAdapter creates a new GitHub adapter with connection pooling
func NewGitHubAdapter(cfg Config) *GitHubAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxRepoPages <= 0 {
		cfg.MaxRepoPages = 5
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
	})

	poolCfg := resilience.DefaultPoolConfig()
	if cfg.Timeout > 0 {
		poolCfg.Timeout = cfg.Timeout
	}

	return &GitHubAdapter{
		token:        cfg.Token,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:    cfg.UserAgent,
		maxRepoPages: cfg.MaxRepoPages,
		pool:         resilience.NewConnectionPool(poolCfg, cb),
		limiter:      budgetLimiter(cfg.Token != ""),
		now:          time.Now,
	}
}

// budgetLimiter mirrors GitHub's documented hourly ceiling
func budgetLimiter(authenticated bool) *rate.Limiter {
	perHour := unauthPerHour
	if authenticated {
		perHour = authedPerHour
	}
	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour)
}

// WithObserver attaches a RequestObserver and returns the adapter
func (g *GitHubAdapter) WithObserver(o RequestObserver) *GitHubAdapter {
	g.observer = o
	return g
}

// Authenticated reports whether calls carry a token
func (g *GitHubAdapter) Authenticated() bool {
	return g.token != ""
}

// Stats reports pool, breaker and budget state for the health endpoint
func (g *GitHubAdapter) Stats() map[string]interface{} {
	stats := g.pool.GetStats()
	stats["authenticated"] = g.Authenticated()
	stats["budget_tokens"] = int(g.limiter.TokensAt(g.now()))

	g.mu.Lock()
	if g.blockedUntil.After(g.now()) {
		stats["blocked_until"] = g.blockedUntil.UTC().Format(time.RFC3339)
	}
	g.mu.Unlock()

	return stats
}

// Close releases pooled connections
func (g *GitHubAdapter) Close() error {
	return g.pool.Close()
}

type eventPayload struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
}

// FetchProfile fetches the public profile of username
func (g *GitHubAdapter) FetchProfile(ctx context.Context, username string) (types.Profile, error) {
	var profile types.Profile

	resp, err := g.get(ctx, EndpointProfile, "/users/"+url.PathEscape(username))
	if err != nil {
		return profile, err
	}
	defer resilience.Drain(resp)

	if err := g.checkStatus(resp, EndpointProfile, username); err != nil {
		return profile, err
	}

	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return profile, apperrors.NewExternalAPIError("GitHub", resp.StatusCode, fmt.Errorf("failed to decode profile: %w", err))
	}

	return profile, nil
}

// FetchRepositories fetches the repositories owned by username, following
// pages until a short page or the page cap
func (g *GitHubAdapter) FetchRepositories(ctx context.Context, username string) ([]types.Repository, error) {
	repos := make([]types.Repository, 0)

	for page := 1; page <= g.maxRepoPages; page++ {
		path := fmt.Sprintf("/users/%s/repos?per_page=%d&type=owner&sort=updated&page=%d",
			url.PathEscape(username), perPage, page)

		var batch []types.Repository
		if err := g.getJSON(ctx, EndpointRepos, path, username, &batch); err != nil {
			return nil, err
		}

		repos = append(repos, batch...)
		if len(batch) < perPage {
			break
		}
	}

	return repos, nil
}

// FetchRecentEvents fetches the user's recent public events. GitHub keeps at
// most 300 events from the last 90 days.
func (g *GitHubAdapter) FetchRecentEvents(ctx context.Context, username string) ([]types.Event, error) {
	events := make([]types.Event, 0)

	for page := 1; page <= maxEventPages; page++ {
		path := fmt.Sprintf("/users/%s/events/public?per_page=%d&page=%d",
			url.PathEscape(username), perPage, page)

		var batch []eventPayload
		if err := g.getJSON(ctx, EndpointEvents, path, username, &batch); err != nil {
			return nil, err
		}

		for _, e := range batch {
			events = append(events, types.Event{
				Type:      e.Type,
				CreatedAt: e.CreatedAt,
				Repo:      e.Repo.Name,
			})
		}
		if len(batch) < perPage {
			break
		}
	}

	return events, nil
}

// HasReadme reports whether owner/repo has a README
func (g *GitHubAdapter) HasReadme(ctx context.Context, owner, repo string) (bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/readme", url.PathEscape(owner), url.PathEscape(repo))

	resp, err := g.get(ctx, EndpointReadme, path)
	if err != nil {
		return false, err
	}
	defer resilience.Drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := g.checkStatus(resp, EndpointReadme, owner); err != nil {
		return false, err
	}
	return true, nil
}

func (g *GitHubAdapter) getJSON(ctx context.Context, endpoint, path, username string, out interface{}) error {
	resp, err := g.get(ctx, endpoint, path)
	if err != nil {
		return err
	}
	defer resilience.Drain(resp)

	if err := g.checkStatus(resp, endpoint, username); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalAPIError("GitHub", resp.StatusCode, fmt.Errorf("failed to decode %s: %w", endpoint, err))
	}
	return nil
}

// get spends one unit of the local budget and performs a single request
func (g *GitHubAdapter) get(ctx context.Context, endpoint, path string) (*http.Response, error) {
	if err := g.reserve(); err != nil {
		g.observe(endpoint, "rate_limited", 0)
		return nil, err
	}

	start := g.now()
	resp, err := g.makeRequest(ctx, http.MethodGet, g.baseURL+path)
	duration := g.now().Sub(start)

	if err != nil {
		g.observe(endpoint, "network", duration)
		slog.Warn("GitHub request failed", "endpoint", endpoint, "error", err, "duration_ms", duration.Milliseconds())
		return nil, transportError(err)
	}

	g.observe(endpoint, outcomeOf(resp.StatusCode, endpoint), duration)
	slog.Debug("GitHub request",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"remaining", resp.Header.Get("X-RateLimit-Remaining"),
		"duration_ms", duration.Milliseconds())

	return resp, nil
}

func (g *GitHubAdapter) makeRequest(ctx context.Context, method, rawURL string) (*http.Response, error) {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"User-Agent":           g.userAgent,
		"X-GitHub-Api-Version": "2022-11-28",
	}

	if g.token != "" {
		headers["Authorization"] = "Bearer " + g.token
	}

	return g.pool.DoRequest(ctx, method, rawURL, headers)
}

// reserve fails with RateLimited when the local budget or a budget GitHub
// reported as exhausted has no room, without touching the network
func (g *GitHubAdapter) reserve() error {
	now := g.now()

	g.mu.Lock()
	blocked := g.blockedUntil
	g.mu.Unlock()
	if now.Before(blocked) {
		return apperrors.NewRateLimitError(blocked)
	}

	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return apperrors.NewRateLimitError(time.Time{})
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return apperrors.NewRateLimitError(now.Add(delay))
	}
	return nil
}

func (g *GitHubAdapter) checkStatus(resp *http.Response, endpoint, username string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			g.block(g.resetTime(resp))
		}
		return nil

	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFoundError(username)

	case isRateLimited(resp):
		reset := g.resetTime(resp)
		g.block(reset)
		slog.Warn("GitHub rate limit exceeded", "endpoint", endpoint, "reset_at", reset)
		return apperrors.NewRateLimitError(reset)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodySnippet))
		return apperrors.NewExternalAPIError("GitHub", resp.StatusCode,
			fmt.Errorf("%s: %s", endpoint, strings.TrimSpace(string(body))))
	}
}

func (g *GitHubAdapter) block(until time.Time) {
	if until.IsZero() {
		return
	}
	g.mu.Lock()
	if until.After(g.blockedUntil) {
		g.blockedUntil = until
	}
	g.mu.Unlock()
}

func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
}

// resetTime reads X-RateLimit-Reset (unix seconds) or Retry-After (seconds).
// The zero time means GitHub did not say.
func (g *GitHubAdapter) resetTime(resp *http.Response) time.Time {
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return g.now().Add(time.Duration(secs) * time.Second).UTC()
		}
	}
	return time.Time{}
}

func transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var cbErr *resilience.CircuitBreakerError
	if errors.As(err, &cbErr) {
		return apperrors.NewNetworkError("GitHub is unreachable, giving it a moment", err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeoutError("GitHub did not answer in time", err)
	}

	return apperrors.NewNetworkError("Failed to reach GitHub", err)
}

func outcomeOf(status int, endpoint string) string {
	switch {
	case status == http.StatusOK:
		return "ok"
	case status == http.StatusNotFound && endpoint == EndpointReadme:
		return "ok"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}

func (g *GitHubAdapter) observe(endpoint, outcome string, d time.Duration) {
	if g.observer != nil {
		g.observer.ObserveGitHubRequest(endpoint, outcome, d)
	}
}
