package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"accentscope/internal/config"
	"accentscope/internal/deps"
	"accentscope/internal/speech"
)

// CheckSpeechCredentials reports whether SPEECH_API_KEY and SPEECH_API_REGION
// were resolved, and from where.
func CheckSpeechCredentials(cfg *config.Config) Result {
	const name = "Speech credentials"

	creds := speech.Credentials{APIKey: cfg.Speech.APIKey, Region: cfg.Speech.Region}
	if err := creds.Validate(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	source := strings.TrimSpace(cfg.Speech.CredentialSource)
	if source == "" {
		source = "unknown"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("region %s (from %s)", cfg.Speech.Region, source)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config. The
// CLI status command and the HTTP status endpoint share this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(
		cfg.Media.FFmpegBinary,
		cfg.Media.FFprobeBinary,
		cfg.Media.YTDLPBinary,
	))
}
