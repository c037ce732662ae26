package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"accentscope/internal/logging"
)

const (
	defaultAPIVersion  = "2024-11-15"
	defaultHTTPTimeout = 120 * time.Second
	transcribePath     = "/speechtotext/transcriptions:transcribe"
	maxErrorBody       = 4 << 10
)

// Config captures the runtime settings required to talk to the service.
type Config struct {
	Credentials
	// Endpoint overrides https://{region}.api.cognitive.microsoft.com.
	Endpoint       string
	APIVersion     string
	Locales        []string
	TimeoutSeconds int
}

// Client wraps the fast transcription API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "speech")
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	locales := make([]string, 0, len(cfg.Locales))
	for _, locale := range cfg.Locales {
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			locales = append(locales, trimmed)
		}
	}
	client := &Client{
		cfg: Config{
			Credentials: Credentials{
				APIKey: strings.TrimSpace(cfg.APIKey),
				Region: strings.TrimSpace(cfg.Region),
			},
			Endpoint:       strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
			APIVersion:     strings.TrimSpace(cfg.APIVersion),
			Locales:        locales,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(nil, "speech"),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.APIVersion == "" {
		client.cfg.APIVersion = defaultAPIVersion
	}
	return client
}

// Endpoint returns the full transcription URL.
func (c *Client) Endpoint() string {
	base := c.cfg.Endpoint
	if base == "" {
		base = fmt.Sprintf("https://%s.api.cognitive.microsoft.com", url.PathEscape(c.cfg.Region))
	}
	return base + transcribePath + "?api-version=" + url.QueryEscape(c.cfg.APIVersion)
}

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	detail := strings.TrimSpace(e.Message)
	if e.Code != "" {
		detail = strings.TrimSpace(e.Code + ": " + detail)
	}
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("speech request: http %d: %s%s", e.StatusCode, detail, e.hint())
}

func (e *StatusError) hint() string {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return " (check SPEECH_API_KEY and SPEECH_API_REGION)"
	case e.StatusCode == http.StatusTooManyRequests:
		return " (quota or rate limit exceeded)"
	case e.StatusCode >= http.StatusInternalServerError:
		return " (service unavailable, try again later)"
	default:
		return ""
	}
}

type definition struct {
	Locales []string `json:"locales,omitempty"`
}

// Transcribe sends the WAV file at audioPath and folds the response.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (Transcription, error) {
	if err := c.cfg.Credentials.Validate(); err != nil {
		return Transcription{}, fmt.Errorf("speech transcribe: %w", err)
	}
	file, err := os.Open(audioPath)
	if err != nil {
		return Transcription{}, fmt.Errorf("speech transcribe: open audio: %w", err)
	}
	defer file.Close()

	encoded, err := json.Marshal(definition{Locales: c.cfg.Locales})
	if err != nil {
		return Transcription{}, fmt.Errorf("speech transcribe: encode definition: %w", err)
	}

	body, writer := io.Pipe()
	form := multipart.NewWriter(writer)
	go func() {
		writer.CloseWithError(writeForm(form, filepath.Base(audioPath), file, encoded))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		body.Close()
		return Transcription{}, fmt.Errorf("speech transcribe: new request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("speech transcribe: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return Transcription{}, decodeStatusError(resp)
	}

	var decoded transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Transcription{}, fmt.Errorf("speech transcribe: decode response: %w", err)
	}

	fallback := ""
	if len(c.cfg.Locales) == 1 {
		fallback = c.cfg.Locales[0]
	}
	result := fold(decoded, fallback)
	logger.Info("transcription received",
		logging.String("status", string(result.Status)),
		logging.String("locale", result.Locale),
		logging.Float64("confidence", result.Confidence),
		logging.Int("phrases", result.Phrases),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func writeForm(form *multipart.Writer, name string, audio io.Reader, def []byte) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, name))
	header.Set("Content-Type", "audio/wav")
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return err
	}
	if err := form.WriteField("definition", string(def)); err != nil {
		return err
	}
	return form.Close()
}

func decodeStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		statusErr.Code, statusErr.Message = payload.Code, payload.Message
		if payload.Error != nil {
			statusErr.Code, statusErr.Message = payload.Error.Code, payload.Error.Message
		}
	} else {
		statusErr.Message = strings.TrimSpace(string(raw))
	}
	return statusErr
}

// IsCredentialError reports whether err is a 401/403 response or missing
// credentials.
func IsCredentialError(err error) bool {
	if errors.Is(err, ErrMissingCredentials) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
	}
	return false
}
