package api

import (
	"strings"
	"unicode/utf8"

	"accentscope/internal/accent"
	"accentscope/internal/analysis"
	"accentscope/internal/config"
	"accentscope/internal/preflight"
	"accentscope/internal/services"
)

const sourceLabelLimit = 60

// FromReport converts an analysis report to its API representation.
func FromReport(report analysis.Report) AnalysisResponse {
	res := report.Result
	diag := report.Diagnostics

	dto := AnalysisResponse{
		Accent:        res.Label,
		Confidence:    res.Confidence,
		Tier:          string(res.Tier),
		Locale:        res.Locale,
		Unmapped:      res.Unmapped,
		Region:        res.Region,
		Description:   res.Description,
		Variant:       string(res.Variant),
		Summary:       res.Summary,
		Assessment:    res.Assessment,
		QualityRating: QualityRating(res.Assessment),
		Transcript:    res.Transcript,
		WordCount:     res.WordCount,
		Diagnostics: Diagnostics{
			RequestID:        diag.RequestID,
			ProcessingMillis: diag.Elapsed.Milliseconds(),
			RawLocale:        diag.RawLocale,
			Mapping:          MappingFallback,
			Source:           string(diag.Source),
			SourceName:       diag.SourceName,
			SourceLabel:      SourceLabel(diag.SourceName),
			SourceBytes:      diag.SourceBytes,
			Digest:           diag.Digest,
			MediaSeconds:     diag.MediaSeconds,
			AudioSeconds:     diag.AudioSeconds,
			HasVideo:         diag.HasVideo,
			Stream:           diag.Stream,
			StreamReason:     diag.StreamReason,
			Phrases:          diag.Phrases,
			LocaleShare:      diag.LocaleShare,
		},
	}
	if diag.Mapped {
		dto.Diagnostics.Mapping = MappingTable
	}
	if !diag.StartedAt.IsZero() {
		dto.Diagnostics.StartedAt = diag.StartedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromError converts a pipeline error to its API representation.
func FromError(err error, requestID string) ErrorResponse {
	category := services.CategoryOf(err)
	return ErrorResponse{
		Error:     services.Message(err),
		Category:  string(category),
		Hint:      category.Hint(),
		RequestID: requestID,
	}
}

// FromProgress converts a progress notification to a stream event.
func FromProgress(p analysis.Progress) StreamEvent {
	return StreamEvent{
		Type:      EventProgress,
		RequestID: p.RequestID,
		Stage:     string(p.Stage),
		Percent:   p.Percent,
		Message:   p.Message,
	}
}

// ResultEvent wraps a report as the final stream event.
func ResultEvent(report analysis.Report) StreamEvent {
	dto := FromReport(report)
	return StreamEvent{Type: EventResult, RequestID: dto.Diagnostics.RequestID, Percent: 100, Result: &dto}
}

// ErrorEvent wraps a failure as the final stream event.
func ErrorEvent(err error, requestID string) StreamEvent {
	dto := FromError(err, requestID)
	return StreamEvent{Type: EventError, RequestID: requestID, Error: &dto}
}

// AccentTable returns the accent table along with the tier thresholds.
func AccentTable(policy accent.Policy) AccentListResponse {
	supported := accent.Supported()
	entries := make([]AccentEntry, 0, len(supported))
	for _, a := range supported {
		entries = append(entries, AccentEntry{
			Locale:      a.Locale,
			Accent:      a.Label,
			Region:      a.Region,
			Description: a.Description,
		})
	}
	return AccentListResponse{
		Accents:    entries,
		Fallback:   accent.UnclassifiedLabel,
		MediumFrom: policy.MediumFrom,
		HighAbove:  policy.HighAbove,
	}
}

// FromPreflight converts a preflight report into a status payload.
func FromPreflight(report preflight.Report, cfg *config.Config) StatusResponse {
	out := StatusResponse{
		Ready:        report.Ready(),
		Checks:       make([]CheckStatus, 0, len(report.Checks)),
		Dependencies: make([]DependencyStatus, 0, len(report.Dependencies)),
	}
	for _, c := range report.Checks {
		out.Checks = append(out.Checks, CheckStatus{Name: c.Name, Passed: c.Passed, Detail: c.Detail})
	}
	for _, d := range report.Dependencies {
		out.Dependencies = append(out.Dependencies, DependencyStatus{
			Name:        d.Name,
			Command:     d.Command,
			Path:        d.Path,
			Description: d.Description,
			Optional:    d.Optional,
			Available:   d.Available,
			Detail:      d.Detail,
		})
	}
	if cfg != nil {
		out.MaxUploadMB = cfg.Media.MaxUploadMB
		out.AllowedExtensions = append([]string(nil), cfg.Media.AllowedExtensions...)
		out.CandidateLocales = append([]string(nil), cfg.Speech.CandidateLocales...)
	}
	return out
}

// QualityRating returns the rating part of an assessment such as
// "Good - Moderate confidence".
func QualityRating(assessment string) string {
	rating, _, _ := strings.Cut(assessment, " - ")
	return strings.TrimSpace(rating)
}

// SourceLabel shortens long source names (typically URLs) for display.
func SourceLabel(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= sourceLabelLimit {
		return name
	}
	runes := []rune(name)
	return string(runes[:sourceLabelLimit]) + "..."
}
