package acquire

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lukechampine.com/blake3"

	"accentscope/internal/logging"
	"accentscope/internal/services"
)

const stage = "acquire"

// Media is a source file on local disk.
type Media struct {
	Path   string
	Kind   Kind
	Name   string
	Bytes  int64
	Digest string
}

// Acquirer fetches URLs with yt-dlp and stores uploads.
type Acquirer struct {
	policy        Policy
	ytdlpBinary   string
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates an Acquirer. A zero timeout disables the download deadline.
func New(policy Policy, ytdlpBinary string, timeout time.Duration, logger *slog.Logger) *Acquirer {
	if strings.TrimSpace(ytdlpBinary) == "" {
		ytdlpBinary = "yt-dlp"
	}
	return &Acquirer{
		policy:      policy,
		ytdlpBinary: ytdlpBinary,
		timeout:     timeout,
		logger:      logging.NewComponentLogger(logger, "acquirer"),
	}
}

// WithCommandRunner sets a custom command runner (for testing). The runner
// returns the combined output of the command.
func (a *Acquirer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	a.commandRunner = runner
}

// Validate applies the acquisition policy without reading any media.
func (a *Acquirer) Validate(req Request) error {
	return a.policy.Validate(req)
}

// Acquire validates req and writes its media into dir.
func (a *Acquirer) Acquire(ctx context.Context, req Request, dir string) (Media, error) {
	if err := a.policy.Validate(req); err != nil {
		return Media{}, err
	}
	ctx = services.WithStage(ctx, stage)
	if req.Upload != nil {
		return a.saveUpload(ctx, req.Upload, dir)
	}
	return a.download(ctx, strings.TrimSpace(req.URL), dir)
}

func (a *Acquirer) saveUpload(ctx context.Context, upload *Upload, dir string) (Media, error) {
	path := filepath.Join(dir, "upload."+Extension(upload.Filename))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return Media{}, fmt.Errorf("%s: create upload file: %w", stage, err)
	}
	defer file.Close()

	hasher := newHasher()
	limit := a.policy.MaxBytes
	var reader io.Reader = upload.Body
	if limit > 0 {
		reader = io.LimitReader(upload.Body, limit+1)
	}
	written, err := io.Copy(io.MultiWriter(file, hasher), reader)
	if err != nil {
		return Media{}, services.Wrap(services.ErrAcquisition, stage, "upload", "could not read uploaded file", err)
	}
	if limit > 0 && written > limit {
		return Media{}, services.Wrap(services.ErrSizeLimit, stage, "upload",
			fmt.Sprintf("file exceeds the %s limit", formatMB(limit)), nil)
	}
	if written == 0 {
		return Media{}, services.Wrap(services.ErrFormat, stage, "upload", "uploaded file is empty", nil)
	}
	if err := file.Close(); err != nil {
		return Media{}, fmt.Errorf("%s: close upload file: %w", stage, err)
	}

	media := Media{
		Path:   path,
		Kind:   KindUpload,
		Name:   filepath.Base(upload.Filename),
		Bytes:  written,
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}
	logging.WithContext(ctx, a.logger).Info("upload stored",
		logging.String("file", media.Name),
		logging.Int64("bytes", media.Bytes),
	)
	return media, nil
}

func (a *Acquirer) download(ctx context.Context, rawURL, dir string) (Media, error) {
	logger := logging.WithContext(ctx, a.logger)
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	args := []string{
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--format", "bestaudio/best",
		"--output", filepath.Join(dir, "download.%(ext)s"),
	}
	if a.policy.MaxBytes > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(a.policy.MaxBytes, 10))
	}
	args = append(args, "--", rawURL)

	started := time.Now()
	output, err := a.run(ctx, a.ytdlpBinary, args...)
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return Media{}, services.Wrap(services.ErrConfiguration, stage, "yt-dlp", "yt-dlp is not installed or not on PATH", err)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return Media{}, services.Wrap(services.ErrAcquisition, stage, "yt-dlp", fmt.Sprintf("download timed out after %s", a.timeout), err)
		case ctx.Err() != nil:
			return Media{}, fmt.Errorf("%s: yt-dlp: %w", stage, ctx.Err())
		}
		return Media{}, services.Wrap(services.ErrAcquisition, stage, "yt-dlp", "could not download media: "+lastLine(output), err)
	}
	if strings.Contains(string(output), "larger than max-filesize") {
		return Media{}, services.Wrap(services.ErrSizeLimit, stage, "yt-dlp",
			fmt.Sprintf("remote media exceeds the %s limit", formatMB(a.policy.MaxBytes)), nil)
	}

	path, err := findDownload(dir)
	if err != nil {
		return Media{}, services.Wrap(services.ErrAcquisition, stage, "yt-dlp", "no media was downloaded", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Media{}, services.Wrap(services.ErrAcquisition, stage, "yt-dlp", "downloaded file is unreadable", err)
	}
	if a.policy.MaxBytes > 0 && info.Size() > a.policy.MaxBytes {
		return Media{}, services.Wrap(services.ErrSizeLimit, stage, "yt-dlp",
			fmt.Sprintf("downloaded media is %s, limit is %s", formatMB(info.Size()), formatMB(a.policy.MaxBytes)), nil)
	}
	digest, err := digestFile(path)
	if err != nil {
		return Media{}, fmt.Errorf("%s: %w", stage, err)
	}

	logger.Info("media downloaded",
		logging.String("url", rawURL),
		logging.Int64("bytes", info.Size()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Media{
		Path:   path,
		Kind:   KindURL,
		Name:   rawURL,
		Bytes:  info.Size(),
		Digest: digest,
	}, nil
}

func (a *Acquirer) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if a.commandRunner != nil {
		return a.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

func findDownload(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "download.*"))
	if err != nil {
		return "", err
	}
	for _, match := range matches {
		if strings.HasSuffix(match, ".part") || strings.HasSuffix(match, ".ytdl") {
			continue
		}
		return match, nil
	}
	return "", errors.New("download output not found")
}

func newHasher() hash.Hash {
	return blake3.New(32, nil)
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for digest: %w", err)
	}
	defer f.Close()
	h := newHasher()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("calculating blake3 hash from file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}
