package config

const (
	defaultConfigPath              = "~/.config/accentscope/config.toml"
	defaultLogDir                  = "~/.local/share/accentscope/logs"
	defaultSecretsFile             = "~/.config/accentscope/secrets.toml"
	defaultEnvFile                 = ".env"
	defaultAPIBind                 = "127.0.0.1:8501"
	defaultSpeechAPIVersion        = "2024-11-15"
	defaultSpeechTimeoutSeconds    = 120
	defaultMaxUploadMB             = 100
	defaultFFmpegBinary            = "ffmpeg"
	defaultFFprobeBinary           = "ffprobe"
	defaultYTDLPBinary             = "yt-dlp"
	defaultDownloadTimeoutSeconds  = 600
	defaultNormalizeTimeoutSeconds = 300
	defaultMediumFrom              = 50
	defaultHighAbove               = 80
	defaultWatchSettleSeconds      = 2
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Environment variables consulted for speech credentials.
const (
	EnvSpeechAPIKey = "SPEECH_API_KEY"
	EnvSpeechRegion = "SPEECH_API_REGION"
)

// Credential sources recorded in Speech.CredentialSource.
const (
	CredentialSourceEnv     = "env"
	CredentialSourceSecrets = "secrets"
	CredentialSourceConfig  = "config"
	CredentialSourceMixed   = "env+secrets"
)

func defaultCandidateLocales() []string {
	return []string{"en-US", "en-GB", "en-AU", "en-CA", "en-IN", "en-NZ", "en-ZA", "en-IE", "en-SG"}
}

func defaultAllowedExtensions() []string {
	return []string{"mp4", "mov", "avi", "mkv", "webm", "wav", "mp3", "m4a", "ogg"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir(),
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Speech: Speech{
			SecretsFile:      defaultSecretsFile,
			EnvFile:          defaultEnvFile,
			APIVersion:       defaultSpeechAPIVersion,
			CandidateLocales: defaultCandidateLocales(),
			TimeoutSeconds:   defaultSpeechTimeoutSeconds,
		},
		Media: Media{
			MaxUploadMB:             defaultMaxUploadMB,
			AllowedExtensions:       defaultAllowedExtensions(),
			FFmpegBinary:            defaultFFmpegBinary,
			FFprobeBinary:           defaultFFprobeBinary,
			YTDLPBinary:             defaultYTDLPBinary,
			DownloadTimeoutSeconds:  defaultDownloadTimeoutSeconds,
			NormalizeTimeoutSeconds: defaultNormalizeTimeoutSeconds,
		},
		Classifier: Classifier{
			MediumFrom: defaultMediumFrom,
			HighAbove:  defaultHighAbove,
		},
		Watch: Watch{
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
