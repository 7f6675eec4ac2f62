package cli

import (
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/adapters"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/config"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/service"
)

// app is the wired analysis stack shared by every command
type app struct {
	github  *adapters.GitHubAdapter
	scorer  *analysis.Analyzer
	service *service.AnalysisService
}

func newApp(cfg *config.Config, metrics *monitoring.Metrics, logger *monitoring.Logger) (*app, error) {
	scorer, err := analysis.NewAnalyzer(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	github := adapters.NewGitHubAdapter(adapters.Config{
		Token:        cfg.GitHubToken,
		BaseURL:      cfg.GitHubAPIURL,
		Timeout:      cfg.HTTPTimeout,
		MaxRepoPages: cfg.MaxRepoPages,
	}).WithObserver(monitoring.GitHubObserver{Metrics: metrics, Logger: logger})

	opts := []service.Option{service.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, service.WithMetrics(metrics))
	}

	svc := service.NewAnalysisService(github, scorer, service.Options{
		IncludeForks:      cfg.IncludeForks,
		CheckReadme:       cfg.CheckReadme,
		ReadmeConcurrency: cfg.ReadmeConcurrency,
	}, opts...)

	return &app{github: github, scorer: scorer, service: svc}, nil
}

func (a *app) Close() error {
	return a.github.Close()
}
