package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Speech credentials are not
// required here; see HasSpeechCredentials.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must not be negative")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if !strings.Contains(c.Paths.APIBind, ":") {
		return fmt.Errorf("paths.api_bind must be host:port, got %q", c.Paths.APIBind)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if len(c.Speech.CandidateLocales) == 0 {
		return errors.New("speech.candidate_locales must include at least one locale")
	}
	if c.Speech.Endpoint != "" && !strings.HasPrefix(c.Speech.Endpoint, "http://") && !strings.HasPrefix(c.Speech.Endpoint, "https://") {
		return fmt.Errorf("speech.endpoint must be an http(s) URL, got %q", c.Speech.Endpoint)
	}
	return ensurePositiveMap(map[string]int{
		"speech.timeout_seconds": c.Speech.TimeoutSeconds,
	})
}

func (c *Config) validateMedia() error {
	if err := ensurePositiveMap(map[string]int{
		"media.max_upload_mb":             c.Media.MaxUploadMB,
		"media.download_timeout_seconds":  c.Media.DownloadTimeoutSeconds,
		"media.normalize_timeout_seconds": c.Media.NormalizeTimeoutSeconds,
	}); err != nil {
		return err
	}
	if len(c.Media.AllowedExtensions) == 0 {
		return errors.New("media.allowed_extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	medium, high := c.Classifier.MediumFrom, c.Classifier.HighAbove
	if medium < 0 || medium > 100 {
		return errors.New("classifier.medium_from must be between 0 and 100")
	}
	if high < 0 || high > 100 {
		return errors.New("classifier.high_above must be between 0 and 100")
	}
	if medium > high {
		return errors.New("classifier.medium_from must not exceed classifier.high_above")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
