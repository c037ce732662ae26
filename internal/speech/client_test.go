package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVEfmt fake-pcm-data"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestClientTranscribeSendsMultipartRequest(t *testing.T) {
	audioPath := writeAudio(t)
	var gotDefinition definition
	var gotAudio string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != transcribePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != "2024-11-15" {
			t.Errorf("api-version = %q", got)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "secret" {
			t.Errorf("subscription key = %q", got)
		}
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("multipart reader: %v", err)
			return
		}
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Errorf("next part: %v", err)
				return
			}
			data, _ := io.ReadAll(part)
			switch part.FormName() {
			case "audio":
				gotAudio = string(data)
				if part.FileName() != "speech.wav" {
					t.Errorf("audio filename = %q", part.FileName())
				}
			case "definition":
				if err := json.Unmarshal(data, &gotDefinition); err != nil {
					t.Errorf("decode definition: %v", err)
				}
			}
		}
		_, _ = io.WriteString(w, `{
			"durationMilliseconds": 4000,
			"combinedPhrases": [{"text": "Hello there, how are you?"}],
			"phrases": [
				{"offsetMilliseconds": 0, "durationMilliseconds": 3000, "text": "Hello there,", "locale": "en-GB", "confidence": 0.9},
				{"offsetMilliseconds": 3000, "durationMilliseconds": 1000, "text": "how are you?", "locale": "en-GB", "confidence": 0.5}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient(Config{
		Credentials: Credentials{APIKey: "secret", Region: "eastus"},
		Endpoint:    server.URL + "/",
		Locales:     []string{"en-US", "en-GB"},
	})
	result, err := client.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if gotAudio != "RIFF....WAVEfmt fake-pcm-data" {
		t.Fatalf("audio part = %q", gotAudio)
	}
	if strings.Join(gotDefinition.Locales, ",") != "en-US,en-GB" {
		t.Fatalf("definition locales = %v", gotDefinition.Locales)
	}
	if !result.Succeeded() || result.Locale != "en-GB" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Transcript != "Hello there, how are you?" {
		t.Fatalf("transcript = %q", result.Transcript)
	}
	if result.Confidence < 0.7999 || result.Confidence > 0.8001 {
		t.Fatalf("confidence = %v, want 0.8", result.Confidence)
	}
}

func TestClientTranscribeStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"code":"401","message":"Access denied due to invalid subscription key"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{
		Credentials: Credentials{APIKey: "bad", Region: "eastus"},
		Endpoint:    server.URL,
	})
	_, err := client.Transcribe(context.Background(), writeAudio(t))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized || !strings.Contains(statusErr.Message, "invalid subscription key") {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if !IsCredentialError(err) {
		t.Fatal("expected credential error")
	}
	if !strings.Contains(err.Error(), "SPEECH_API_KEY") {
		t.Fatalf("expected credential hint, got %q", err.Error())
	}
}

func TestClientTranscribeFlatErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"code":"TooManyRequests","message":"slow down"}`)
	}))
	defer server.Close()

	client := NewClient(Config{Credentials: Credentials{APIKey: "k", Region: "r"}, Endpoint: server.URL})
	_, err := client.Transcribe(context.Background(), writeAudio(t))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != "TooManyRequests" {
		t.Fatalf("unexpected error %v", err)
	}
	if IsCredentialError(err) {
		t.Fatal("rate limit is not a credential error")
	}
	if !strings.Contains(err.Error(), "quota") {
		t.Fatalf("expected quota hint, got %q", err.Error())
	}
}

func TestClientTranscribeNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"durationMilliseconds": 2000, "combinedPhrases": [], "phrases": []}`)
	}))
	defer server.Close()

	client := NewClient(Config{Credentials: Credentials{APIKey: "k", Region: "r"}, Endpoint: server.URL})
	result, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if result.Status != StatusNoMatch || result.Succeeded() {
		t.Fatalf("expected NoMatch, got %+v", result)
	}
}

func TestClientTranscribeRequiresCredentials(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(Config{Credentials: Credentials{APIKey: "k"}, Endpoint: server.URL})
	_, err := client.Transcribe(context.Background(), writeAudio(t))
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if !strings.Contains(err.Error(), "SPEECH_API_REGION") {
		t.Fatalf("expected missing region in message, got %q", err.Error())
	}
	if called {
		t.Fatal("no request should be sent without credentials")
	}
}

func TestClientSingleLocaleFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"phrases":[{"durationMilliseconds":500,"text":"g'day","confidence":0.7}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{
		Credentials: Credentials{APIKey: "k", Region: "r"},
		Endpoint:    server.URL,
		Locales:     []string{"en-AU"},
	})
	result, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if result.Locale != "en-AU" {
		t.Fatalf("locale = %q, want en-AU", result.Locale)
	}
}

func TestClientEndpointFromRegion(t *testing.T) {
	client := NewClient(Config{Credentials: Credentials{APIKey: "k", Region: "westeurope"}})
	want := "https://westeurope.api.cognitive.microsoft.com/speechtotext/transcriptions:transcribe?api-version=2024-11-15"
	if got := client.Endpoint(); got != want {
		t.Fatalf("Endpoint() = %q, want %q", got, want)
	}
}
