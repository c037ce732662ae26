package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// AnalysisResponse is the result of a successful analysis.
type AnalysisResponse struct {
	Accent        string      `json:"accent"`
	Confidence    float64     `json:"confidence"`
	Tier          string      `json:"tier"`
	Locale        string      `json:"locale"`
	Unmapped      bool        `json:"unmapped"`
	Region        string      `json:"region,omitempty"`
	Description   string      `json:"description"`
	Variant       string      `json:"variant"`
	Summary       string      `json:"summary"`
	Assessment    string      `json:"assessment"`
	QualityRating string      `json:"qualityRating"`
	Transcript    string      `json:"transcript"`
	WordCount     int         `json:"wordCount"`
	Diagnostics   Diagnostics `json:"diagnostics"`
}

// Diagnostics describes how a result was produced.
type Diagnostics struct {
	RequestID        string  `json:"requestId"`
	StartedAt        string  `json:"startedAt,omitempty"`
	ProcessingMillis int64   `json:"processingMillis"`
	RawLocale        string  `json:"rawLocale"`
	Mapping          string  `json:"mapping"`
	Source           string  `json:"source"`
	SourceName       string  `json:"sourceName"`
	SourceLabel      string  `json:"sourceLabel"`
	SourceBytes      int64   `json:"sourceBytes"`
	Digest           string  `json:"digest,omitempty"`
	MediaSeconds     float64 `json:"mediaSeconds"`
	AudioSeconds     float64 `json:"audioSeconds"`
	HasVideo         bool    `json:"hasVideo"`
	Stream           string  `json:"stream,omitempty"`
	StreamReason     string  `json:"streamReason,omitempty"`
	Phrases          int     `json:"phrases"`
	LocaleShare      float64 `json:"localeShare"`
}

// Mapping values reported in Diagnostics.
const (
	MappingTable    = "table"
	MappingFallback = "fallback"
)

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Category  string `json:"category"`
	Hint      string `json:"hint,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// AccentEntry is one row of the accent table.
type AccentEntry struct {
	Locale      string `json:"locale"`
	Accent      string `json:"accent"`
	Region      string `json:"region"`
	Description string `json:"description"`
}

// AccentListResponse wraps the accent table.
type AccentListResponse struct {
	Accents    []AccentEntry `json:"accents"`
	Fallback   string        `json:"fallback"`
	MediumFrom float64       `json:"mediumFrom"`
	HighAbove  float64       `json:"highAbove"`
}

// CheckStatus mirrors a preflight check.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// StatusResponse aggregates readiness information.
type StatusResponse struct {
	Ready             bool               `json:"ready"`
	Checks            []CheckStatus      `json:"checks"`
	Dependencies      []DependencyStatus `json:"dependencies"`
	MaxUploadMB       int                `json:"maxUploadMb"`
	AllowedExtensions []string           `json:"allowedExtensions"`
	CandidateLocales  []string           `json:"candidateLocales"`
}

// StreamRequest is the first frame a WebSocket client sends.
type StreamRequest struct {
	URL string `json:"url"`
}

// Stream event types.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// StreamEvent is a single frame sent to WebSocket clients.
type StreamEvent struct {
	Type      string            `json:"type"`
	RequestID string            `json:"requestId,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	Percent   int               `json:"percent,omitempty"`
	Message   string            `json:"message,omitempty"`
	Result    *AnalysisResponse `json:"result,omitempty"`
	Error     *ErrorResponse    `json:"error,omitempty"`
}
