package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/frontend"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/security"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/server"
)

type serveOptions struct {
	addr string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web dashboard",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg := configFromContext(cmd.Context())
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}

	level := monitoring.ParseLevel(cfg.LogLevel)
	logger := monitoring.NewJSONLogger(cmd.OutOrStdout(), level)
	slog.SetDefault(logger.Logger)

	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := monitoring.NewMetrics()
	a, err := newApp(cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer apperrors.SafeClose(a, "github client")

	dashboard, err := frontend.NewDashboard(cfg.Scoring)
	if err != nil {
		return err
	}

	if !a.github.Authenticated() {
		logger.Warn("No GitHub token configured, GitHub allows 60 requests per hour")
	}

	srv := server.New(server.Options{
		Analyzer: a.service,
		Metrics:  metrics,
		Logger:   logger,
		Security: security.SecurityConfig{
			MaxRequestsPerMin: cfg.RateLimitPerMin,
			AllowedOrigins:    cfg.AllowedOrigins,
			RequestTimeout:    cfg.RequestTimeout,
		},
		Dashboard: dashboard,
		GitHub:    a.github,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, cfg.Addr)
}
