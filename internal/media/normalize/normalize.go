package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"accentscope/internal/logging"
	"accentscope/internal/media/audio"
	"accentscope/internal/media/ffprobe"
	"accentscope/internal/services"
)

// Canonical output parameters.
const (
	SampleRate = 16000
	Channels   = 1
	Codec      = "pcm_s16le"
	OutputName = "speech.wav"

	wavHeaderBytes = 44
	stage          = "normalize"
)

// Audio describes a normalized WAV file.
type Audio struct {
	Path          string
	SampleRate    int
	Channels      int
	Codec         string
	Bytes         int64
	SourceSeconds float64
	HasVideo      bool
	Stream        audio.Selection
}

// Seconds returns the duration of the PCM payload.
func (a Audio) Seconds() float64 {
	payload := a.Bytes - wavHeaderBytes
	if payload <= 0 || a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	return float64(payload) / float64(a.SampleRate*a.Channels*2)
}

// Normalizer runs ffprobe and ffmpeg.
type Normalizer struct {
	ffmpegBinary  string
	ffprobeBinary string
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	probe         func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// New creates a Normalizer. A zero timeout disables the per-call deadline.
func New(ffmpegBinary, ffprobeBinary string, timeout time.Duration, logger *slog.Logger) *Normalizer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Normalizer{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		timeout:       timeout,
		logger:        logging.NewComponentLogger(logger, "normalizer"),
		probe:         ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (n *Normalizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	n.commandRunner = runner
}

// WithProbe sets a custom ffprobe implementation (for testing).
func (n *Normalizer) WithProbe(probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	n.probe = probe
}

// Normalize writes OutputName into dir and returns its description.
func (n *Normalizer) Normalize(ctx context.Context, source, dir string) (Audio, error) {
	ctx = services.WithStage(ctx, stage)
	logger := logging.WithContext(ctx, n.logger)

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	probe, err := n.probe(ctx, n.ffprobeBinary, source)
	if err != nil {
		return Audio{}, n.classify(ctx, "ffprobe", "media could not be read", err)
	}
	if probe.AudioStreamCount() == 0 {
		return Audio{}, services.Wrap(services.ErrFormat, stage, "ffprobe", "media contains no audio stream", nil)
	}

	selection := audio.Select(probe.Streams)
	seconds := probe.DurationSeconds()
	if math.IsNaN(seconds) {
		seconds = 0
	}
	logger.Debug("audio stream selected",
		logging.Int("stream_index", selection.Index),
		logging.Int("audio_streams", selection.Candidates),
		logging.String("reason", selection.Reason),
		logging.Float64("media_seconds", seconds),
	)

	dest := filepath.Join(dir, OutputName)
	if err := n.run(ctx, n.ffmpegBinary, buildArgs(source, selection.Index, dest)...); err != nil {
		return Audio{}, n.classify(ctx, "ffmpeg", "audio extraction failed", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return Audio{}, services.Wrap(services.ErrFormat, stage, "ffmpeg", "no output produced", err)
	}
	if info.Size() <= wavHeaderBytes {
		return Audio{}, services.Wrap(services.ErrFormat, stage, "ffmpeg", "no audio samples decoded", nil)
	}

	out := Audio{
		Path:          dest,
		SampleRate:    SampleRate,
		Channels:      Channels,
		Codec:         Codec,
		Bytes:         info.Size(),
		SourceSeconds: seconds,
		HasVideo:      probe.VideoStreamCount() > 0,
		Stream:        selection,
	}
	logger.Info("audio normalized",
		logging.String("stream", selection.Label()),
		logging.Float64("audio_seconds", out.Seconds()),
		logging.Int64("bytes", out.Bytes),
	)
	return out, nil
}

func (n *Normalizer) classify(ctx context.Context, tool, message string, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrConfiguration, stage, tool, tool+" is not installed or not on PATH", err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrFormat, stage, tool, fmt.Sprintf("timed out after %s", n.timeout), err)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %s: %w", stage, tool, ctx.Err())
	default:
		return services.Wrap(services.ErrFormat, stage, tool, message, err)
	}
}

func (n *Normalizer) run(ctx context.Context, name string, args ...string) error {
	if n.commandRunner != nil {
		return n.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func buildArgs(source string, streamIndex int, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:" + strconv.Itoa(streamIndex),
		"-vn",
		"-sn",
		"-dn",
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", Codec,
		dest,
	}
}
