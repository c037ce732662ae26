package analysis

// Stage names a pipeline step.
type Stage string

const (
	StageAcquire    Stage = "acquire"
	StageNormalize  Stage = "normalize"
	StageTranscribe Stage = "transcribe"
	StageClassify   Stage = "classify"
	StageDone       Stage = "done"
)

// Percent is the progress reached once the stage has started.
func (s Stage) Percent() int {
	switch s {
	case StageAcquire:
		return 20
	case StageNormalize:
		return 40
	case StageTranscribe:
		return 60
	case StageClassify:
		return 80
	case StageDone:
		return 100
	default:
		return 0
	}
}

// Message is the status line shown while the stage runs.
func (s Stage) Message() string {
	switch s {
	case StageAcquire:
		return "Fetching media"
	case StageNormalize:
		return "Extracting audio"
	case StageTranscribe:
		return "Analyzing speech"
	case StageClassify:
		return "Classifying accent"
	case StageDone:
		return "Analysis complete"
	default:
		return string(s)
	}
}

// Progress is a single progress notification.
type Progress struct {
	RequestID string
	Stage     Stage
	Percent   int
	Message   string
}

// ProgressFunc receives progress notifications. It is called synchronously
// from the analyzing goroutine.
type ProgressFunc func(Progress)
