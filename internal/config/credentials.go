package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type secretsFile struct {
	APIKey string `toml:"SPEECH_API_KEY"`
	Region string `toml:"SPEECH_API_REGION"`
}

// resolveCredentials fills Speech.APIKey and Speech.Region. The environment
// (including values loaded from the .env file, which never override variables
// already set) takes precedence over the secrets file. A region from the
// config file is used last.
func (c *Config) resolveCredentials() error {
	configuredRegion := strings.TrimSpace(c.Speech.Region)

	if c.Speech.EnvFile != "" {
		if err := godotenv.Load(c.Speech.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("speech.env_file: %w", err)
		}
	}

	key := lookupEnv(EnvSpeechAPIKey)
	region := lookupEnv(EnvSpeechRegion)
	keySource, regionSource := "", ""
	if key != "" {
		keySource = CredentialSourceEnv
	}
	if region != "" {
		regionSource = CredentialSourceEnv
	}

	if key == "" || region == "" {
		secrets, err := readSecretsFile(c.Speech.SecretsFile)
		if err != nil {
			return err
		}
		if key == "" && secrets.APIKey != "" {
			key, keySource = secrets.APIKey, CredentialSourceSecrets
		}
		if region == "" && secrets.Region != "" {
			region, regionSource = secrets.Region, CredentialSourceSecrets
		}
	}

	if region == "" && configuredRegion != "" {
		region, regionSource = configuredRegion, CredentialSourceConfig
	}

	c.Speech.APIKey = key
	c.Speech.Region = region
	c.Speech.CredentialSource = combineSources(keySource, regionSource)
	return nil
}

func readSecretsFile(path string) (secretsFile, error) {
	var secrets secretsFile
	if path == "" {
		return secrets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return secrets, nil
		}
		return secrets, fmt.Errorf("speech.secrets_file: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &secrets); err != nil {
		return secrets, fmt.Errorf("speech.secrets_file: parse %s: %w", path, err)
	}
	secrets.APIKey = strings.TrimSpace(secrets.APIKey)
	secrets.Region = strings.TrimSpace(secrets.Region)
	return secrets, nil
}

func lookupEnv(name string) string {
	value, ok := os.LookupEnv(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func combineSources(key, region string) string {
	switch {
	case key == "" && region == "":
		return ""
	case key == region, region == "":
		return key
	case key == "":
		return region
	default:
		return key + "+" + region
	}
}
