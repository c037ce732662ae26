package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"accentscope/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are left empty; use WithSpeechCredentials to populate them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Speech.SecretsFile = filepath.Join(base, "secrets.toml")
	cfgVal.Speech.EnvFile = filepath.Join(base, ".env")
	for _, dir := range []string{cfgVal.Paths.WorkDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSpeechCredentials sets resolved speech credentials on the test config.
func WithSpeechCredentials(key, region string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Speech.APIKey = key
		b.cfg.Speech.Region = region
		b.cfg.Speech.CredentialSource = "env"
	}
}

// WithSpeechEndpoint points the speech client at a test server.
func WithSpeechEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Speech.Endpoint = endpoint
	}
}

// WithMaxUploadMB overrides the upload ceiling.
func WithMaxUploadMB(mb int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.MaxUploadMB = mb
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe, and yt-dlp are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "yt-dlp"}
		}
		for _, name := range names {
			StubBinary(b.t, b.baseDir, name, "exit 0")
		}
	}
}

// StubBinary writes a shell script named name under baseDir/bin and prepends
// that directory to PATH for the rest of the test.
func StubBinary(t testing.TB, baseDir, name, body string) string {
	t.Helper()
	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	oldPath := os.Getenv("PATH")
	if parts := filepath.SplitList(oldPath); len(parts) == 0 || parts[0] != binDir {
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
