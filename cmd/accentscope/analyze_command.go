package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"accentscope/internal/acquire"
	"accentscope/internal/analysis"
	"accentscope/internal/api"
	"accentscope/internal/services"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var filePath string
	var jsonOutput bool
	var quiet bool
	var showDiagnostics bool

	cmd := &cobra.Command{
		Use:   "analyze [URL]",
		Short: "Classify the accent in a video URL or a local media file",
		Example: `  accentscope analyze https://www.youtube.com/watch?v=abc123
  accentscope analyze --file interview.mp4 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rawURL string
			if len(args) == 1 {
				rawURL = args[0]
			}
			req, closeFn, err := buildRequest(rawURL, filePath)
			if err != nil {
				return err
			}
			defer closeFn()

			analyzer, _, err := ctx.analyzer()
			if err != nil {
				return err
			}

			progressOut := cmd.ErrOrStderr()
			progress := func(p analysis.Progress) {
				if quiet {
					return
				}
				fmt.Fprintf(progressOut, "[%3d%%] %s\n", p.Percent, p.Message)
			}

			report, err := analyzer.Analyze(cmd.Context(), req, progress)
			if err != nil {
				return withHint(err)
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromReport(report))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderReport(report))
			if showDiagnostics {
				fmt.Fprintln(out, renderDiagnostics(report.Diagnostics))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Analyze a local media file instead of a URL")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	cmd.Flags().BoolVar(&showDiagnostics, "diagnostics", false, "Include processing diagnostics")
	return cmd
}

// buildRequest turns the CLI inputs into an acquisition request. Conflicting
// or missing inputs are left for the analyzer to reject so the CLI reports
// the same validation errors as the HTTP API.
func buildRequest(rawURL, filePath string) (acquire.Request, func(), error) {
	req := acquire.Request{URL: strings.TrimSpace(rawURL)}
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return req, func() {}, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return acquire.Request{}, nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return acquire.Request{}, nil, fmt.Errorf("stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		file.Close()
		return acquire.Request{}, nil, fmt.Errorf("%s is a directory", filePath)
	}
	req.Upload = &acquire.Upload{
		Filename:    filepath.Base(filePath),
		ContentType: acquire.ContentTypeFor(filePath),
		Size:        info.Size(),
		Body:        file,
	}
	return req, func() { _ = file.Close() }, nil
}

// withHint appends the remediation hint for categorized failures.
func withHint(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	category := services.CategoryOf(err)
	if category == services.CategoryInternal {
		return err
	}
	return fmt.Errorf("%w\nhint: %s", err, category.Hint())
}

func renderReport(report analysis.Report) string {
	result := report.Result
	accentValue := result.Label
	if result.Region != "" {
		accentValue = fmt.Sprintf("%s (%s)", result.Label, result.Region)
	}
	pairs := [][2]string{
		{"Accent", accentValue},
		{"Confidence", formatPercent(result.Confidence)},
		{"Tier", string(result.Tier)},
		{"Locale", result.Locale},
		{"Quality", result.Assessment},
		{"Words", strconv.Itoa(result.WordCount)},
		{"Summary", result.Summary},
	}
	var b strings.Builder
	b.WriteString(renderFields(pairs))
	if transcript := strings.TrimSpace(result.Transcript); transcript != "" {
		b.WriteString("\n\nTranscript:\n")
		b.WriteString(transcript)
	}
	return b.String()
}

func renderDiagnostics(d analysis.Diagnostics) string {
	mapping := api.MappingTable
	if !d.Mapped {
		mapping = api.MappingFallback
	}
	pairs := [][2]string{
		{"Request", d.RequestID},
		{"Source", fmt.Sprintf("%s: %s", d.Source, api.SourceLabel(d.SourceName))},
		{"Bytes", strconv.FormatInt(d.SourceBytes, 10)},
		{"Digest", d.Digest},
		{"Media", formatSeconds(d.MediaSeconds)},
		{"Audio", formatSeconds(d.AudioSeconds)},
		{"Video", yesNo(d.HasVideo)},
		{"Stream", d.Stream},
		{"Raw locale", d.RawLocale},
		{"Mapping", mapping},
		{"Phrases", strconv.Itoa(d.Phrases)},
		{"Locale share", formatPercent(d.LocaleShare * 100)},
		{"Elapsed", d.Elapsed.Round(time.Millisecond).String()},
	}
	return renderFields(pairs)
}
