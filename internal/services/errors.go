package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks missing credentials or an unusable environment.
	ErrConfiguration = errors.New("configuration error")
	// ErrAcquisition marks failures fetching or receiving source media.
	ErrAcquisition = errors.New("acquisition error")
	// ErrFormat marks media that cannot be decoded or carries no audio.
	ErrFormat = errors.New("format error")
	// ErrSizeLimit marks uploads or downloads above the configured ceiling.
	ErrSizeLimit = errors.New("size limit exceeded")
	// ErrService marks speech service failures, including "no speech".
	ErrService = errors.New("speech service error")
	// ErrValidation marks malformed requests rejected before processing.
	ErrValidation = errors.New("validation error")
)

// Category is the user-facing classification of a failure.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryAcquisition   Category = "acquisition"
	CategoryFormat        Category = "format"
	CategorySizeLimit     Category = "size_limit"
	CategoryService       Category = "service"
	CategoryValidation    Category = "validation"
	CategoryInternal      Category = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// CategoryOf maps an error to the category presented to users. Errors without
// a marker are internal.
func CategoryOf(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSizeLimit):
		return CategorySizeLimit
	case errors.Is(err, ErrConfiguration):
		return CategoryConfiguration
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	case errors.Is(err, ErrAcquisition):
		return CategoryAcquisition
	case errors.Is(err, ErrFormat):
		return CategoryFormat
	case errors.Is(err, ErrService):
		return CategoryService
	default:
		return CategoryInternal
	}
}

// Message returns the text shown to users for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

// Hint returns a short remediation suggestion for the category.
func (c Category) Hint() string {
	switch c {
	case CategoryConfiguration:
		return "set SPEECH_API_KEY and SPEECH_API_REGION, then check that ffmpeg, ffprobe and yt-dlp are installed"
	case CategoryAcquisition:
		return "check that the URL is public and points at a single video"
	case CategoryFormat:
		return "try a different file; it must contain an audio track"
	case CategorySizeLimit:
		return "trim the media or upload a smaller file"
	case CategoryService:
		return "confirm the audio has clear English speech and that the speech key and region are valid"
	case CategoryValidation:
		return "provide exactly one of a video URL or an uploaded file"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
