package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// Version runs the binary with its version flag and returns the first line of
// output. ffmpeg and ffprobe take -version; yt-dlp takes --version.
func Version(ctx context.Context, status Status) string {
	if !status.Available {
		return ""
	}
	flag := "-version"
	if strings.Contains(strings.ToLower(status.Name), "yt-dlp") {
		flag = "--version"
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, status.Path, flag).Output() //nolint:gosec
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
