package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"accentscope/internal/api"
	"accentscope/internal/services"
	"accentscope/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var existing bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Analyze media files as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			analyzer, logger, err := ctx.analyzer()
			if err != nil {
				return err
			}

			watcher := watch.New(watch.Options{
				Dir:        args[0],
				Settle:     time.Duration(cfg.Watch.SettleSeconds) * time.Second,
				Extensions: cfg.Media.AllowedExtensions,
				Existing:   existing,
			}, analyzer, logger)

			out := cmd.OutOrStdout()
			return watcher.Run(cmd.Context(), func(outcome watch.Outcome) {
				if jsonOutput {
					_ = writeJSON(cmd, watchRecord(outcome))
					return
				}
				fmt.Fprintln(out, watchLine(outcome))
			})
		},
	}

	cmd.Flags().BoolVar(&existing, "existing", false, "Also analyze files already in the directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON document per file")
	return cmd
}

type watchOutput struct {
	Path   string                `json:"path"`
	Result *api.AnalysisResponse `json:"result,omitempty"`
	Error  *api.ErrorResponse    `json:"error,omitempty"`
}

func watchRecord(outcome watch.Outcome) watchOutput {
	record := watchOutput{Path: outcome.Path}
	if outcome.Err != nil {
		failure := api.FromError(outcome.Err, outcome.Report.Diagnostics.RequestID)
		record.Error = &failure
		return record
	}
	result := api.FromReport(outcome.Report)
	record.Result = &result
	return record
}

func watchLine(outcome watch.Outcome) string {
	if outcome.Err != nil {
		return fmt.Sprintf("%s: FAILED [%s] %s", outcome.Path, services.CategoryOf(outcome.Err), services.Message(outcome.Err))
	}
	return fmt.Sprintf("%s: %s", outcome.Path, outcome.Report)
}
