package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/monitoring"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/tui"
)

type analyzeOptions struct {
	json    bool
	factors bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <username>",
		Short: "Analyze one GitHub profile and print the result",
		Example: `  ghprofile analyze octocat
  ghprofile analyze octocat --json
  GITHUB_TOKEN=ghp_... ghprofile analyze torvalds --factors`,
		Args: checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.factors, "factors", false, "show the raw factors behind each sub-score")
	return cmd
}

func runAnalyze(cmd *cobra.Command, username string, opts *analyzeOptions) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	a, err := newApp(cfg, nil, monitoring.FromSlog(slog.Default()))
	if err != nil {
		return err
	}
	defer apperrors.SafeClose(a, "github client")

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	prog := newProgress(logger)
	result, err := a.service.Analyze(ctx, username)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %s", result.Username))

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprint(out, tui.RenderResult(result, opts.factors))
	return nil
}
