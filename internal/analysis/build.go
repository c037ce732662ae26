package analysis

import (
	"log/slog"
	"time"

	"accentscope/internal/accent"
	"accentscope/internal/acquire"
	"accentscope/internal/config"
	"accentscope/internal/media/normalize"
	"accentscope/internal/speech"
)

// NewFromConfig wires the production collaborators from cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Analyzer {
	credentials := speech.Credentials{APIKey: cfg.Speech.APIKey, Region: cfg.Speech.Region}
	acquirer := acquire.New(
		PolicyFromConfig(cfg),
		cfg.Media.YTDLPBinary,
		seconds(cfg.Media.DownloadTimeoutSeconds),
		logger,
	)
	normalizer := normalize.New(
		cfg.Media.FFmpegBinary,
		cfg.Media.FFprobeBinary,
		seconds(cfg.Media.NormalizeTimeoutSeconds),
		logger,
	)
	transcriber := speech.NewClient(speech.Config{
		Credentials:    credentials,
		Endpoint:       cfg.Speech.Endpoint,
		APIVersion:     cfg.Speech.APIVersion,
		Locales:        cfg.Speech.CandidateLocales,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
	}, speech.WithLogger(logger))

	classifier := ClassifierFromConfig(cfg)
	return New(Config{
		WorkDir:     cfg.Paths.WorkDir,
		Credentials: credentials,
		Classifier:  &classifier,
	}, Components{
		Acquirer:    acquirer,
		Normalizer:  normalizer,
		Transcriber: transcriber,
	}, logger)
}

// PolicyFromConfig returns the acquisition policy configured in cfg.
func PolicyFromConfig(cfg *config.Config) acquire.Policy {
	return acquire.Policy{
		MaxBytes:   cfg.MaxUploadBytes(),
		Extensions: cfg.Media.AllowedExtensions,
	}
}

// ClassifierFromConfig returns the classifier configured in cfg.
func ClassifierFromConfig(cfg *config.Config) accent.Classifier {
	return accent.NewClassifier(accent.Policy{
		MediumFrom: cfg.Classifier.MediumFrom,
		HighAbove:  cfg.Classifier.HighAbove,
	})
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
