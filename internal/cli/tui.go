package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/tui"
)

type tuiOptions struct {
	logFile string
}

func newTUICmd() *cobra.Command {
	opts := &tuiOptions{}

	cmd := &cobra.Command{
		Use:   "tui [username]",
		Short: "Analyze profiles interactively in the terminal",
		Args:  checkArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := ""
			if len(args) == 1 {
				username = args[0]
			}
			return runTUI(cmd, username, opts)
		},
	}

	cmd.Flags().StringVar(&opts.logFile, "log-file", filepath.Join(os.TempDir(), "ghprofile.log"), "where logs go while the TUI owns the screen")
	return cmd
}

func runTUI(cmd *cobra.Command, username string, opts *tuiOptions) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)

	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer apperrors.SafeClose(f, "log file")

	installLogger(newLogger(f, loggerFromContext(ctx).GetLevel()))

	a, err := newApp(cfg, nil, monitoring.FromSlog(slog.Default()))
	if err != nil {
		return err
	}
	defer apperrors.SafeClose(a, "github client")

	model := tui.New(a.service, cfg.RequestTimeout).WithUsername(username)
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout())).Run()
	return err
}
