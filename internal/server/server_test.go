package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"accentscope/internal/acquire"
	"accentscope/internal/analysis"
	"accentscope/internal/api"
	"accentscope/internal/config"
	"accentscope/internal/logging"
	"accentscope/internal/media/normalize"
	"accentscope/internal/services"
	"accentscope/internal/speech"
	"accentscope/internal/testsupport"
)

type stubAcquirer struct {
	policy acquire.Policy
	calls  atomic.Int32
}

func (s *stubAcquirer) Validate(req acquire.Request) error { return s.policy.Validate(req) }

func (s *stubAcquirer) Acquire(_ context.Context, req acquire.Request, dir string) (acquire.Media, error) {
	s.calls.Add(1)
	path := filepath.Join(dir, "source")
	var data []byte
	if req.Upload != nil {
		var err error
		if data, err = io.ReadAll(req.Upload.Body); err != nil {
			return acquire.Media{}, err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return acquire.Media{}, err
	}
	return acquire.Media{Path: path, Kind: req.Kind(), Name: req.Name(), Bytes: int64(len(data))}, nil
}

type stubNormalizer struct{}

func (stubNormalizer) Normalize(_ context.Context, _, dir string) (normalize.Audio, error) {
	return normalize.Audio{Path: filepath.Join(dir, normalize.OutputName), SampleRate: normalize.SampleRate, Channels: 1}, nil
}

type stubTranscriber struct {
	result speech.Transcription
}

func (s stubTranscriber) Transcribe(context.Context, string) (speech.Transcription, error) {
	return s.result, nil
}

type fixture struct {
	cfg      *config.Config
	acquirer *stubAcquirer
	server   *Server
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	acq := &stubAcquirer{policy: analysis.PolicyFromConfig(cfg)}
	classifier := analysis.ClassifierFromConfig(cfg)
	analyzer := analysis.New(analysis.Config{
		WorkDir:     cfg.Paths.WorkDir,
		Credentials: speech.Credentials{APIKey: cfg.Speech.APIKey, Region: cfg.Speech.Region},
		Classifier:  &classifier,
	}, analysis.Components{
		Acquirer:   acq,
		Normalizer: stubNormalizer{},
		Transcriber: stubTranscriber{result: speech.Transcription{
			Status: speech.StatusSuccess, Locale: "en-AU", Confidence: 0.88, Transcript: "g'day mate",
		}},
	}, logging.NewNop())
	srv, err := New(cfg, analyzer, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{cfg: cfg, acquirer: acq, server: srv}
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileSize int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		part, err := form.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(bytes.Repeat([]byte{0x42}, fileSize)); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return &buf, form.FormDataContentType()
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestAnalyzeURLReturnsResult(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	body, contentType := multipartBody(t, map[string]string{"url": "https://example.com/watch?v=1"}, "", 0)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.AnalysisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Accent != "Australian English" || resp.Confidence != 88 || resp.Tier != "High" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Diagnostics.Source != "url" || resp.Diagnostics.RequestID == "" {
		t.Fatalf("unexpected diagnostics %+v", resp.Diagnostics)
	}
}

func TestAnalyzeJSONBody(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"url":"https://example.com/v"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := f.do(req); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeUploadReturnsResult(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	body, contentType := multipartBody(t, nil, "talk.wav", 4096)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.AnalysisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Diagnostics.SourceBytes != 4096 || resp.Diagnostics.SourceName != "talk.wav" {
		t.Fatalf("unexpected diagnostics %+v", resp.Diagnostics)
	}
}

func TestAnalyzeMissingCredentialsIs503(t *testing.T) {
	f := newFixture(t)
	body, contentType := multipartBody(t, map[string]string{"url": "https://example.com/v"}, "", 0)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeError(t, w)
	if resp.Category != string(services.CategoryConfiguration) || !strings.Contains(resp.Error, "SPEECH_API_KEY") {
		t.Fatalf("unexpected error response %+v", resp)
	}
	if f.acquirer.calls.Load() != 0 {
		t.Fatal("acquirer must not run without credentials")
	}
}

func TestAnalyzeOversizedUploadIs413(t *testing.T) {
	for name, size := range map[string]int{
		"declared size over limit": 3 << 19, // 1.5 MB: parsed, then rejected by policy
		"body over hard limit":     3 << 20, // rejected before parsing
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"), testsupport.WithMaxUploadMB(1))
			body, contentType := multipartBody(t, nil, "clip.mp4", size)
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
			req.Header.Set("Content-Type", contentType)

			w := f.do(req)
			if w.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Category != string(services.CategorySizeLimit) {
				t.Fatalf("unexpected category %q", resp.Category)
			}
			if f.acquirer.calls.Load() != 0 {
				t.Fatal("acquirer must not run for oversized uploads")
			}
		})
	}
}

func TestAnalyzeRequiresInput(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	body, contentType := multipartBody(t, map[string]string{"url": "  "}, "", 0)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Category != string(services.CategoryValidation) {
		t.Fatalf("unexpected category %q", resp.Category)
	}
}

func TestAnalyzeRejectsUnsupportedUpload(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	body, contentType := multipartBody(t, nil, "notes.txt", 10)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	if w := f.do(req); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAccentsAndToken(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.APIToken = "s3cret"
	handler := f.server.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/accents", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/accents", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	var resp api.AccentListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Accents) != 9 || resp.MediumFrom != 50 || resp.HighAbove != 80 {
		t.Fatalf("unexpected accents response %+v", resp)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("index page should not require a token, got %d", w.Code)
	}
}

func TestUnauthorizedIsJSON(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.APIToken = "s3cret"
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := f.do(req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if resp := decodeError(t, w); resp.Category != "unauthorized" || resp.Error == "" {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestFormRequiresToken(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	f.cfg.Paths.APIToken = "s3cret"

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `name="token"`) {
		t.Fatalf("index page should ask for the token: %d %s", w.Code, w.Body.String())
	}

	cases := []struct {
		name   string
		fields map[string]string
		header string
		status int
		calls  int32
	}{
		{name: "missing", fields: map[string]string{"url": "https://example.com/v"}, status: http.StatusUnauthorized},
		{name: "wrong", fields: map[string]string{"url": "https://example.com/v", "token": "nope"}, status: http.StatusUnauthorized},
		{name: "form field", fields: map[string]string{"url": "https://example.com/v", "token": "s3cret"}, status: http.StatusOK, calls: 1},
		{name: "bearer header", fields: map[string]string{"url": "https://example.com/v"}, header: "Bearer s3cret", status: http.StatusOK, calls: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.acquirer.calls.Load()
			body, contentType := multipartBody(t, tc.fields, "", 0)
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := f.do(req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if got := f.acquirer.calls.Load() - before; got != tc.calls {
				t.Fatalf("expected %d acquirer calls, got %d", tc.calls, got)
			}
			if tc.status == http.StatusUnauthorized && !strings.Contains(w.Body.String(), "access token") {
				t.Fatalf("error page should mention the token: %s", w.Body.String())
			}
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"), testsupport.WithStubbedBinaries())
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ready || len(resp.Dependencies) != 3 {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestIndexAndFormResult(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `action="/analyze"`) {
		t.Fatalf("unexpected index page %d: %s", w.Code, w.Body.String())
	}

	body, contentType := multipartBody(t, map[string]string{"url": "https://example.com/v"}, "", 0)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w = f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, want := range []string{"Australian English", "88.00%", "High"} {
		if !strings.Contains(w.Body.String(), want) {
			t.Fatalf("result page missing %q", want)
		}
	}
}

func TestFormResultShowsError(t *testing.T) {
	f := newFixture(t)
	body, contentType := multipartBody(t, map[string]string{"url": "https://example.com/v"}, "", 0)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := f.do(req)
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "Analysis failed") {
		t.Fatalf("unexpected error page %d: %s", w.Code, w.Body.String())
	}
}

func TestStreamSendsProgressThenResult(t *testing.T) {
	f := newFixture(t, testsupport.WithSpeechCredentials("key", "eastus"))
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/analyze/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(api.StreamRequest{URL: "https://example.com/v"}); err != nil {
		t.Fatalf("write request: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var events []api.StreamEvent
	for {
		var event api.StreamEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read event: %v", err)
		}
		events = append(events, event)
		if event.Type != api.EventProgress {
			break
		}
	}
	last := events[len(events)-1]
	if last.Type != api.EventResult || last.Result == nil || last.Result.Accent != "Australian English" {
		t.Fatalf("unexpected final event %+v", last)
	}
	if len(events) != 6 {
		t.Fatalf("expected 5 progress events and a result, got %d", len(events))
	}
	if events[0].Stage != "acquire" || events[0].Percent != 20 {
		t.Fatalf("unexpected first event %+v", events[0])
	}
}

func TestStreamReportsErrors(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/analyze/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(api.StreamRequest{URL: "https://example.com/v"}); err != nil {
		t.Fatalf("write request: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event api.StreamEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != api.EventError || event.Error == nil || event.Error.Category != "configuration" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestStartHoldsInstanceLock(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := f.server.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.server.Stop()
	if f.server.Addr() == "" {
		t.Fatal("expected bound address")
	}

	second, err := New(f.cfg, f.server.analyzer, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(ctx); err == nil || !strings.Contains(err.Error(), "already running") {
		second.Stop()
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestStatusForCategory(t *testing.T) {
	tests := map[services.Category]int{
		services.CategoryValidation:    http.StatusBadRequest,
		services.CategoryFormat:        http.StatusBadRequest,
		services.CategorySizeLimit:     http.StatusRequestEntityTooLarge,
		services.CategoryAcquisition:   http.StatusUnprocessableEntity,
		services.CategoryService:       http.StatusBadGateway,
		services.CategoryConfiguration: http.StatusServiceUnavailable,
		services.CategoryInternal:      http.StatusInternalServerError,
	}
	for category, want := range tests {
		if got := statusForCategory(category); got != want {
			t.Fatalf("statusForCategory(%s) = %d, want %d", category, got, want)
		}
	}
}
