package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Speech contains the cloud speech service settings. APIKey is never read
// from the config file. Region may be set here but the environment and the
// secrets file win.
type Speech struct {
	APIKey           string   `toml:"-"`
	Region           string   `toml:"region"`
	CredentialSource string   `toml:"-"`
	SecretsFile      string   `toml:"secrets_file"`
	EnvFile          string   `toml:"env_file"`
	Endpoint         string   `toml:"endpoint"`
	APIVersion       string   `toml:"api_version"`
	CandidateLocales []string `toml:"candidate_locales"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`
}

// Media contains acquisition and normalization settings.
type Media struct {
	MaxUploadMB             int      `toml:"max_upload_mb"`
	AllowedExtensions       []string `toml:"allowed_extensions"`
	FFmpegBinary            string   `toml:"ffmpeg_binary"`
	FFprobeBinary           string   `toml:"ffprobe_binary"`
	YTDLPBinary             string   `toml:"ytdlp_binary"`
	DownloadTimeoutSeconds  int      `toml:"download_timeout_seconds"`
	NormalizeTimeoutSeconds int      `toml:"normalize_timeout_seconds"`
}

// Classifier contains the quality tier thresholds, expressed as percentages.
type Classifier struct {
	MediumFrom float64 `toml:"medium_from"`
	HighAbove  float64 `toml:"high_above"`
}

// Watch contains drop-folder settings.
type Watch struct {
	SettleSeconds int `toml:"settle_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for accentscope.
//
// Configuration sections by subsystem:
//   - Paths: scratch and log directories, HTTP bind address and token
//   - Speech: speech service endpoint, candidate locales, credentials
//   - Media: upload ceiling, allowed extensions, external binaries, timeouts
//   - Classifier: quality tier thresholds
//   - Watch: drop-folder settle delay
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Speech     Speech     `toml:"speech"`
	Media      Media      `toml:"media"`
	Classifier Classifier `toml:"classifier"`
	Watch      Watch      `toml:"watch"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and speech credentials resolved.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.resolveCredentials(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("accentscope.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MaxUploadBytes returns the upload and download ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Media.MaxUploadMB) * 1024 * 1024
}

// HasSpeechCredentials reports whether both the key and the region resolved.
func (c *Config) HasSpeechCredentials() bool {
	return c.Speech.APIKey != "" && c.Speech.Region != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), "accentscope")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
