package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"accentscope/internal/api"
	"accentscope/internal/config"
	"accentscope/internal/deps"
	"accentscope/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check credentials, directories, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.Collect(cfg)
			if jsonOutput {
				return writeJSON(cmd, api.FromPreflight(report, cfg))
			}

			out := cmd.OutOrStdout()
			view := newStatusView(shouldColorize(out))
			view.section("Configuration")
			addConfigItems(view, ctx, cfg)
			view.section("Checks")
			addCheckItems(view, report.Checks)
			view.section("Dependencies")
			addDependencyItems(cmd.Context(), view, report.Dependencies)
			view.verdict()
			fmt.Fprintln(out, view.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the status as JSON")
	return cmd
}

func addConfigItems(view *statusView, ctx *commandContext, cfg *config.Config) {
	source := ctx.configPath
	if !ctx.configExists {
		source = "defaults (no config file)"
	}
	view.note("Config", source)
	view.note("Work directory", cfg.Paths.WorkDir)
	view.note("Upload limit", fmt.Sprintf("%d MB", cfg.Media.MaxUploadMB))
	view.note("Candidate locales", strings.Join(cfg.Speech.CandidateLocales, ", "))
	view.note("Tier thresholds", fmt.Sprintf("Medium from %.0f%%, High above %.0f%%",
		cfg.Classifier.MediumFrom, cfg.Classifier.HighAbove))
}

func addCheckItems(view *statusView, checks []preflight.Result) {
	for _, check := range checks {
		state := readinessReady
		if !check.Passed {
			state = readinessBlocked
		}
		view.item(check.Name, state, check.Detail)
	}
}

// addDependencyItems lists each external tool. A missing optional tool
// degrades the install; a missing required one blocks analysis.
func addDependencyItems(ctx context.Context, view *statusView, statuses []deps.Status) {
	for _, dep := range statuses {
		if dep.Available {
			detail := dep.Path
			if version := deps.Version(ctx, dep); version != "" {
				detail = fmt.Sprintf("%s (%s)", version, dep.Path)
			}
			view.item(dep.Name, readinessReady, detail)
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		state := readinessBlocked
		if dep.Optional {
			state = readinessDegraded
		}
		view.item(dep.Name, state, detail)
	}
}
