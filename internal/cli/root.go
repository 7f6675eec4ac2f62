// Package cli is the ghprofile command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/config"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/server"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records build information, usually injected with ldflags
func SetVersion(v, c, d string) {
	if v != "" {
		version = v
	}
	commit = c
	date = d
	server.Version = version
}

type rootOptions struct {
	verbose    bool
	configPath string
}

// Execute runs the CLI. Errors have already been printed when it returns.
func Execute(ctx context.Context) error {
	return execute(ctx, newRootCmd())
}

func execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), styleErr.Render("error: ")+errorMessage(err))
	}
	return err
}

// errorMessage prefers the user-facing text of an AppError and falls back to
// the raw message, so cobra's own errors reach the user intact
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.UserMessage(err)
	}
	return err.Error()
}

// usageError turns a flag or argument error into a validation error
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.NewValidationError(err.Error())
}

// checkArgs wraps a cobra argument validator so its failures are validation errors
func checkArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(validate(cmd, args))
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ghprofile",
		Short:         "Score public GitHub profiles",
		Long:          `ghprofile fetches a user's public GitHub profile, repositories and recent activity and scores them on activity, diversity, community, documentation and code quality.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			installLogger(logger)

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			} else {
				logger.SetLevel(charmlog.Level(monitoring.ParseLevel(cfg.LogLevel)))
			}
			logger.Debug("configuration loaded", "config", cfg.Redacted())

			ctx := withLogger(cmd.Context(), logger)
			ctx = context.WithValue(ctx, configKey, cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	root.SetVersionTemplate(fmt.Sprintf("ghprofile %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (default $GHPA_CONFIG)")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newTUICmd())

	root.SetOut(os.Stdout)
	return root
}

func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}
