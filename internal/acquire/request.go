package acquire

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"accentscope/internal/services"
)

// Kind identifies where media came from.
type Kind string

const (
	KindURL    Kind = "url"
	KindUpload Kind = "upload"
)

// Upload is a client-supplied file. Size is the declared length in bytes, or
// -1 when unknown.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Request names exactly one media source.
type Request struct {
	URL    string
	Upload *Upload
}

// Kind returns the source kind, or "" when the request names none.
func (r Request) Kind() Kind {
	switch {
	case r.Upload != nil:
		return KindUpload
	case strings.TrimSpace(r.URL) != "":
		return KindURL
	default:
		return ""
	}
}

// Name returns a display name for the source.
func (r Request) Name() string {
	if r.Upload != nil {
		return filepath.Base(r.Upload.Filename)
	}
	return strings.TrimSpace(r.URL)
}

// Policy holds the acceptance rules for requests.
type Policy struct {
	MaxBytes   int64
	Extensions []string
}

var contentTypes = map[string][]string{
	"mp4":  {"video/mp4", "audio/mp4"},
	"mov":  {"video/quicktime"},
	"avi":  {"video/x-msvideo", "video/avi", "video/msvideo"},
	"mkv":  {"video/x-matroska", "video/matroska"},
	"webm": {"video/webm", "audio/webm"},
	"wav":  {"audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave"},
	"mp3":  {"audio/mpeg", "audio/mp3"},
	"m4a":  {"audio/mp4", "audio/x-m4a", "audio/m4a"},
	"ogg":  {"audio/ogg", "video/ogg", "application/ogg"},
}

// Validate rejects malformed requests before any media is read.
func (p Policy) Validate(r Request) error {
	hasURL := strings.TrimSpace(r.URL) != ""
	switch {
	case hasURL && r.Upload != nil:
		return services.Wrap(services.ErrValidation, "validate", "input", "provide either a URL or a file, not both", nil)
	case !hasURL && r.Upload == nil:
		return services.Wrap(services.ErrValidation, "validate", "input", "a video URL or an uploaded file is required", nil)
	case hasURL:
		return validateURL(r.URL)
	default:
		return p.validateUpload(r.Upload)
	}
}

func validateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return services.Wrap(services.ErrValidation, "validate", "url", "malformed URL", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return services.Wrap(services.ErrValidation, "validate", "url", fmt.Sprintf("unsupported URL scheme %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return services.Wrap(services.ErrValidation, "validate", "url", "URL has no host", nil)
	}
	return nil
}

func (p Policy) validateUpload(u *Upload) error {
	if u.Body == nil {
		return services.Wrap(services.ErrValidation, "validate", "upload", "upload has no content", nil)
	}
	ext := Extension(u.Filename)
	if !p.allowsExtension(ext) {
		return services.Wrap(services.ErrValidation, "validate", "upload",
			fmt.Sprintf("unsupported file type %q (allowed: %s)", ext, strings.Join(p.Extensions, ", ")), nil)
	}
	if !p.allowsContentType(u.ContentType) {
		return services.Wrap(services.ErrValidation, "validate", "upload", fmt.Sprintf("unsupported content type %q", u.ContentType), nil)
	}
	if u.Size == 0 {
		return services.Wrap(services.ErrValidation, "validate", "upload", "uploaded file is empty", nil)
	}
	if p.MaxBytes > 0 && u.Size > p.MaxBytes {
		return sizeError(u.Size, p.MaxBytes)
	}
	return nil
}

func (p Policy) allowsExtension(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range p.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// allowsContentType accepts an empty or generic binary type, deferring to the
// extension, and otherwise requires a type belonging to an allowed extension.
func (p Policy) allowsContentType(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	if mediaType == "application/octet-stream" {
		return true
	}
	for _, ext := range p.Extensions {
		for _, allowed := range contentTypes[ext] {
			if mediaType == allowed {
				return true
			}
		}
	}
	return false
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(name))), ".")
}

// ContentTypeFor guesses a content type from a file name, for callers that
// read local files.
func ContentTypeFor(name string) string {
	if types, ok := contentTypes[Extension(name)]; ok {
		return types[0]
	}
	return ""
}

func sizeError(size, limit int64) error {
	return services.Wrap(services.ErrSizeLimit, "validate", "upload",
		fmt.Sprintf("file is %s, limit is %s", formatMB(size), formatMB(limit)), nil)
}

func formatMB(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}
