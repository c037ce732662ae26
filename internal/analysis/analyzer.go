package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"accentscope/internal/accent"
	"accentscope/internal/acquire"
	"accentscope/internal/logging"
	"accentscope/internal/media/normalize"
	"accentscope/internal/services"
	"accentscope/internal/speech"
)

// Acquirer validates requests and materializes their media on disk.
type Acquirer interface {
	Validate(req acquire.Request) error
	Acquire(ctx context.Context, req acquire.Request, dir string) (acquire.Media, error)
}

// Normalizer converts media into canonical speech audio.
type Normalizer interface {
	Normalize(ctx context.Context, source, dir string) (normalize.Audio, error)
}

// Transcriber sends canonical audio to the speech service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (speech.Transcription, error)
}

// Config holds the analyzer settings that are not collaborators.
type Config struct {
	WorkDir     string
	Credentials speech.Credentials
	// Classifier defaults to accent.DefaultPolicy when nil.
	Classifier  *accent.Classifier
}

// Components are the pipeline collaborators.
type Components struct {
	Acquirer    Acquirer
	Normalizer  Normalizer
	Transcriber Transcriber
}

// Diagnostics describes how a result was produced.
type Diagnostics struct {
	RequestID     string
	StartedAt     time.Time
	Elapsed       time.Duration
	RawLocale     string
	Mapped        bool
	Source        acquire.Kind
	SourceName    string
	SourceBytes   int64
	Digest        string
	MediaSeconds  float64
	AudioSeconds  float64
	HasVideo      bool
	Stream        string
	StreamReason  string
	Phrases       int
	LocaleShare   float64
	EngineSeconds float64
}

// Report is the outcome of a successful analysis.
type Report struct {
	Result      accent.Result
	Diagnostics Diagnostics
}

// Analyzer runs the pipeline. It holds no per-request state and is safe for
// concurrent use.
type Analyzer struct {
	cfg        Config
	classifier accent.Classifier
	components Components
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// New constructs an Analyzer.
func New(cfg Config, components Components, logger *slog.Logger) *Analyzer {
	if strings.TrimSpace(cfg.WorkDir) == "" {
		cfg.WorkDir = os.TempDir()
	}
	classifier := accent.NewClassifier(accent.DefaultPolicy)
	if cfg.Classifier != nil {
		classifier = *cfg.Classifier
	}
	return &Analyzer{
		cfg:        cfg,
		classifier: classifier,
		components: components,
		logger:     logging.NewComponentLogger(logger, "analyzer"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Classifier returns the classifier in use.
func (a *Analyzer) Classifier() accent.Classifier {
	return a.classifier
}

// Validate applies request validation and the credential check without
// touching any collaborator that performs I/O.
func (a *Analyzer) Validate(req acquire.Request) error {
	if err := a.components.Acquirer.Validate(req); err != nil {
		return err
	}
	if err := a.cfg.Credentials.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "validate", "speech credentials", "", err)
	}
	return nil
}

// Analyze runs the full pipeline for req. progress may be nil.
func (a *Analyzer) Analyze(ctx context.Context, req acquire.Request, progress ProgressFunc) (Report, error) {
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = a.newID()
		ctx = services.WithRequestID(ctx, requestID)
	}
	ctx = services.WithSource(ctx, string(req.Kind()))
	logger := logging.WithContext(ctx, a.logger)

	started := a.now()
	diag := Diagnostics{
		RequestID:  requestID,
		StartedAt:  started,
		Source:     req.Kind(),
		SourceName: req.Name(),
	}

	if err := a.Validate(req); err != nil {
		logger.Warn("analysis rejected",
			logging.String(logging.FieldEventType, "analysis_rejected"),
			logging.String(logging.FieldErrorHint, services.CategoryOf(err).Hint()),
			logging.Error(err),
		)
		return Report{}, err
	}

	workDir, err := a.scratchDir()
	if err != nil {
		return Report{}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logger.Warn("scratch cleanup failed",
				logging.String("dir", workDir),
				logging.String(logging.FieldEventType, "cleanup_failed"),
				logging.String(logging.FieldImpact, "temporary files left on disk"),
				logging.Error(rmErr),
			)
		}
	}()

	report := func(stage Stage) {
		if progress == nil {
			return
		}
		progress(Progress{RequestID: requestID, Stage: stage, Percent: stage.Percent(), Message: stage.Message()})
	}

	logger.Info("analysis started", logging.String("source_name", diag.SourceName))

	report(StageAcquire)
	media, err := a.components.Acquirer.Acquire(ctx, req, workDir)
	if err != nil {
		return Report{}, a.fail(logger, StageAcquire, err)
	}
	diag.SourceName = media.Name
	diag.SourceBytes = media.Bytes
	diag.Digest = media.Digest

	report(StageNormalize)
	audio, err := a.components.Normalizer.Normalize(ctx, media.Path, workDir)
	if err != nil {
		return Report{}, a.fail(logger, StageNormalize, err)
	}
	diag.MediaSeconds = audio.SourceSeconds
	diag.AudioSeconds = audio.Seconds()
	diag.HasVideo = audio.HasVideo
	diag.Stream = audio.Stream.Label()
	diag.StreamReason = audio.Stream.Reason

	report(StageTranscribe)
	transcription, err := a.components.Transcriber.Transcribe(services.WithStage(ctx, string(StageTranscribe)), audio.Path)
	if err != nil {
		return Report{}, a.fail(logger, StageTranscribe, transcribeError(err))
	}
	if !transcription.Succeeded() {
		err := services.Wrap(services.ErrService, string(StageTranscribe), "speech recognition", "no speech detected in the audio", nil)
		return Report{}, a.fail(logger, StageTranscribe, err)
	}
	diag.Phrases = transcription.Phrases
	diag.LocaleShare = transcription.LocaleShare
	diag.EngineSeconds = transcription.AudioDuration.Seconds()

	report(StageClassify)
	result := a.classifier.Classify(transcription.Locale, transcription.Confidence, transcription.Transcript)
	diag.RawLocale = result.Locale
	diag.Mapped = !result.Unmapped
	diag.Elapsed = a.now().Sub(started)

	report(StageDone)
	logger.Info("analysis complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.String("accent", result.Label),
		logging.String("locale", result.Locale),
		logging.Float64("confidence", result.Confidence),
		logging.String("tier", string(result.Tier)),
		logging.Bool("mapped", diag.Mapped),
		logging.Duration("elapsed", diag.Elapsed),
	)
	return Report{Result: result, Diagnostics: diag}, nil
}

func (a *Analyzer) scratchDir() (string, error) {
	if err := os.MkdirAll(a.cfg.WorkDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "prepare", "work dir", "create "+a.cfg.WorkDir, err)
	}
	dir, err := os.MkdirTemp(a.cfg.WorkDir, "request-")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "prepare", "work dir", "create scratch directory", err)
	}
	return dir, nil
}

func (a *Analyzer) fail(logger *slog.Logger, stage Stage, err error) error {
	if errors.Is(err, context.Canceled) {
		logger.Info("analysis canceled", logging.String(logging.FieldStage, string(stage)))
		return err
	}
	category := services.CategoryOf(err)
	hint := category.Hint()
	if speech.IsCredentialError(err) {
		hint = "the speech service rejected the key or region"
	}
	logging.ErrorWithContext(logger, "analysis failed", "analysis_failed",
		logging.String(logging.FieldStage, string(stage)),
		logging.String("category", string(category)),
		logging.String(logging.FieldErrorHint, hint),
		logging.Error(err),
	)
	return err
}

func transcribeError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, speech.ErrMissingCredentials):
		return services.Wrap(services.ErrConfiguration, string(StageTranscribe), "speech credentials", "", err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrService, string(StageTranscribe), "speech request", "timed out", err)
	default:
		return services.Wrap(services.ErrService, string(StageTranscribe), "speech request", "", err)
	}
}

// String renders a one-line summary of the report.
func (r Report) String() string {
	return fmt.Sprintf("%s (%.2f%%, %s)", r.Result.Label, r.Result.Confidence, r.Result.Tier)
}
