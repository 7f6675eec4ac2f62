// Package service runs one profile analysis end to end: fetch from GitHub,
// build a snapshot and score it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/security"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

// GitHubClient is the part of the GitHub adapter the service needs
type GitHubClient interface {
	FetchProfile(ctx context.Context, username string) (types.Profile, error)
	FetchRepositories(ctx context.Context, username string) ([]types.Repository, error)
	FetchRecentEvents(ctx context.Context, username string) ([]types.Event, error)
	HasReadme(ctx context.Context, owner, repo string) (bool, error)
}

// Analyzer runs a full analysis for one username
type Analyzer interface {
	Analyze(ctx context.Context, username string) (analysis.AnalysisResult, error)
}

// Options tune what gets fetched
type Options struct {
	IncludeForks      bool
	CheckReadme       bool
	ReadmeConcurrency int
}

// Option configures an AnalysisService
type Option func(*AnalysisService)

// WithMetrics records analysis outcomes
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *AnalysisService) { s.metrics = m }
}

// WithLogger replaces the default logger
func WithLogger(l *monitoring.Logger) Option {
	return func(s *AnalysisService) { s.logger = l }
}

// WithClock pins the snapshot time, for tests
func WithClock(now func() time.Time) Option {
	return func(s *AnalysisService) { s.now = now }
}

// AnalysisService fetches and scores GitHub profiles. Safe for concurrent use.
type AnalysisService struct {
	client  GitHubClient
	scorer  *analysis.Analyzer
	opts    Options
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
	now     func() time.Time
}

// NewAnalysisService wires a client and a scorer
func NewAnalysisService(client GitHubClient, scorer *analysis.Analyzer, opts Options, options ...Option) *AnalysisService {
	if opts.ReadmeConcurrency <= 0 {
		opts.ReadmeConcurrency = 4
	}

	s := &AnalysisService{
		client: client,
		scorer: scorer,
		opts:   opts,
		logger: monitoring.FromSlog(slog.Default()),
		now:    time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Analyze validates username, fetches the profile, then repositories and
// events concurrently, and scores the result. A failed event fetch degrades
// to a partial result; any other failure aborts the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, username string) (analysis.AnalysisResult, error) {
	start := time.Now()
	username = security.NormalizeUsername(username)

	result, err := s.analyze(ctx, username)

	outcome := outcomeOf(err, result.Partial)
	if s.metrics != nil {
		s.metrics.RecordAnalysis(outcome, result.Overall)
	}
	s.logger.AnalysisLogger(username, outcome, result.Overall, result.Partial, time.Since(start))

	return result, err
}

func (s *AnalysisService) analyze(ctx context.Context, username string) (analysis.AnalysisResult, error) {
	if err := security.ValidateUsername(username); err != nil {
		return analysis.AnalysisResult{}, err
	}

	s.logger.Debug("Analysis started", "username", username)

	profile, err := s.client.FetchProfile(ctx, username)
	if err != nil {
		return analysis.AnalysisResult{}, err
	}
	if profile.Login == "" {
		profile.Login = username
	}

	var (
		repos     []types.Repository
		events    []types.Event
		eventsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		repos, err = s.client.FetchRepositories(gctx, profile.Login)
		return err
	})
	g.Go(func() error {
		events, eventsErr = s.client.FetchRecentEvents(gctx, profile.Login)
		return nil
	})
	if err := g.Wait(); err != nil {
		return analysis.AnalysisResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return analysis.AnalysisResult{}, err
	}

	var warnings []string
	if eventsErr != nil {
		if errors.Is(eventsErr, context.Canceled) {
			return analysis.AnalysisResult{}, eventsErr
		}
		partial := apperrors.NewPartialDataError("recent events", eventsErr)
		s.logger.Warn("Continuing with partial data",
			"username", profile.Login, "error", partial.Error())
		events = nil
	}

	repos = s.filterRepositories(repos)

	if s.opts.CheckReadme && len(repos) > 0 {
		if unknown := s.checkReadmes(ctx, profile.Login, repos); unknown > 0 {
			warnings = append(warnings, fmt.Sprintf("README presence unknown for %d repositories", unknown))
		}
	}

	snapshot := types.Snapshot{
		Profile:         profile,
		Repositories:    repos,
		Events:          events,
		EventsAvailable: eventsErr == nil,
		AsOf:            s.now().UTC(),
	}

	result := s.scorer.Score(snapshot)
	result.Warnings = append(result.Warnings, warnings...)
	return result, nil
}

func (s *AnalysisService) filterRepositories(repos []types.Repository) []types.Repository {
	if s.opts.IncludeForks {
		return repos
	}
	kept := make([]types.Repository, 0, len(repos))
	for _, r := range repos {
		if !r.Fork {
			kept = append(kept, r)
		}
	}
	return kept
}

// checkReadmes fills HasReadme with bounded concurrency. Failed checks leave
// the field unknown; the count of those is returned.
func (s *AnalysisService) checkReadmes(ctx context.Context, owner string, repos []types.Repository) int {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ReadmeConcurrency)

	for i := range repos {
		i := i
		g.Go(func() error {
			ok, err := s.client.HasReadme(gctx, owner, repos[i].Name)
			if err != nil {
				// once GitHub says stop, the remaining checks would fail the same way
				if apperrors.Is(err, apperrors.CategoryRateLimit) {
					return err
				}
				return nil
			}
			repos[i].HasReadme = &ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("README checks stopped", "owner", owner, "error", err)
	}

	unknown := 0
	for i := range repos {
		if repos[i].HasReadme == nil {
			unknown++
		}
	}
	return unknown
}

func outcomeOf(err error, partial bool) string {
	if err == nil {
		if partial {
			return monitoring.OutcomePartial
		}
		return monitoring.OutcomeSuccess
	}
	if errors.Is(err, context.Canceled) {
		return monitoring.OutcomeError
	}

	switch apperrors.CategoryOf(err) {
	case apperrors.CategoryValidation:
		return monitoring.OutcomeInvalid
	case apperrors.CategoryNotFound:
		return monitoring.OutcomeNotFound
	case apperrors.CategoryRateLimit:
		return monitoring.OutcomeRateLimited
	case apperrors.CategoryNetwork, apperrors.CategoryExternalAPI, apperrors.CategoryTimeout:
		return monitoring.OutcomeNetwork
	default:
		return monitoring.OutcomeError
	}
}
