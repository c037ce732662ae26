package acquire

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"lukechampine.com/blake3"

	"accentscope/internal/services"
)

var testPolicy = Policy{
	MaxBytes:   1024,
	Extensions: []string{"mp4", "mov", "avi", "mkv", "webm", "wav", "mp3", "m4a", "ogg"},
}

func upload(name, contentType string, body []byte) *Upload {
	return &Upload{Filename: name, ContentType: contentType, Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		marker error
	}{
		{"neither", Request{}, services.ErrValidation},
		{"both", Request{URL: "https://example.com/v", Upload: upload("a.mp4", "video/mp4", []byte("x"))}, services.ErrValidation},
		{"bad scheme", Request{URL: "ftp://example.com/v"}, services.ErrValidation},
		{"no host", Request{URL: "https:///path"}, services.ErrValidation},
		{"extension", Request{Upload: upload("notes.txt", "text/plain", []byte("x"))}, services.ErrValidation},
		{"content type", Request{Upload: upload("clip.mp4", "text/html", []byte("x"))}, services.ErrValidation},
		{"empty", Request{Upload: upload("clip.mp4", "video/mp4", nil)}, services.ErrValidation},
		{"declared too large", Request{Upload: &Upload{Filename: "clip.mp4", Size: 4096, Body: bytes.NewReader(nil)}}, services.ErrSizeLimit},
		{"valid url", Request{URL: " https://www.youtube.com/watch?v=abc "}, nil},
		{"valid upload", Request{Upload: upload("Clip.MKV", "video/x-matroska", []byte("x"))}, nil},
		{"octet stream", Request{Upload: upload("voice.m4a", "application/octet-stream", []byte("x"))}, nil},
		{"type params", Request{Upload: upload("voice.ogg", "audio/ogg; codecs=opus", []byte("x"))}, nil},
		{"unknown size", Request{Upload: &Upload{Filename: "clip.wav", Size: -1, Body: bytes.NewReader([]byte("x"))}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testPolicy.Validate(tt.req)
			if tt.marker == nil {
				if err != nil {
					t.Fatalf("expected valid request, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestRequestKindAndName(t *testing.T) {
	if k := (Request{URL: "https://x.test/v"}).Kind(); k != KindURL {
		t.Fatalf("kind = %q", k)
	}
	req := Request{Upload: upload("/tmp/dir/clip.mp4", "", []byte("x"))}
	if req.Kind() != KindUpload || req.Name() != "clip.mp4" {
		t.Fatalf("unexpected kind/name %q %q", req.Kind(), req.Name())
	}
	if (Request{}).Kind() != "" {
		t.Fatal("expected empty kind")
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := ContentTypeFor("talk.MP3"); got != "audio/mpeg" {
		t.Fatalf("ContentTypeFor = %q", got)
	}
	if got := ContentTypeFor("talk.txt"); got != "" {
		t.Fatalf("expected empty type, got %q", got)
	}
}

func TestAcquireUploadStoresAndHashes(t *testing.T) {
	body := []byte("RIFF....WAVEfmt fake audio payload")
	dir := t.TempDir()
	a := New(testPolicy, "", 0, nil)

	media, err := a.Acquire(context.Background(), Request{Upload: upload("speech.wav", "audio/wav", body)}, dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if media.Kind != KindUpload || media.Name != "speech.wav" || media.Bytes != int64(len(body)) {
		t.Fatalf("unexpected media %+v", media)
	}
	if filepath.Dir(media.Path) != dir {
		t.Fatalf("expected file inside %s, got %s", dir, media.Path)
	}
	sum := blake3.Sum256(body)
	if media.Digest != hex.EncodeToString(sum[:]) {
		t.Fatalf("digest mismatch: %s", media.Digest)
	}
	stored, err := os.ReadFile(media.Path)
	if err != nil || !bytes.Equal(stored, body) {
		t.Fatalf("stored content mismatch: %v", err)
	}
}

func TestAcquireUploadEnforcesLimitWhileStreaming(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 2048)
	req := Request{Upload: &Upload{Filename: "clip.mp4", Size: -1, Body: bytes.NewReader(body)}}
	_, err := New(testPolicy, "", 0, nil).Acquire(context.Background(), req, t.TempDir())
	if !errors.Is(err, services.ErrSizeLimit) {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestAcquireUploadRejectsEmptyStream(t *testing.T) {
	req := Request{Upload: &Upload{Filename: "clip.mp4", Size: -1, Body: bytes.NewReader(nil)}}
	_, err := New(testPolicy, "", 0, nil).Acquire(context.Background(), req, t.TempDir())
	if !errors.Is(err, services.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestAcquireDownload(t *testing.T) {
	dir := t.TempDir()
	a := New(testPolicy, "yt-dlp-test", 0, nil)
	var gotArgs []string
	a.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		if err := os.WriteFile(filepath.Join(dir, "download.webm"), []byte("audio"), 0o644); err != nil {
			return nil, err
		}
		return []byte("[download] 100%"), nil
	})

	media, err := a.Acquire(context.Background(), Request{URL: "https://example.com/watch?v=1"}, dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if media.Kind != KindURL || media.Path != filepath.Join(dir, "download.webm") || media.Bytes != 5 {
		t.Fatalf("unexpected media %+v", media)
	}
	if media.Digest == "" {
		t.Fatal("expected digest")
	}
	joined := strings.Join(gotArgs, " ")
	for _, fragment := range []string{"yt-dlp-test", "--no-playlist", "bestaudio/best", "--max-filesize 1024", "-- https://example.com/watch?v=1"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
}

func TestAcquireDownloadFailures(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
		file   bool
		marker error
	}{
		{"tool error", "ERROR: Video unavailable", errors.New("exit status 1"), false, services.ErrAcquisition},
		{"missing binary", "", fmt.Errorf("exec: %w", exec.ErrNotFound), false, services.ErrConfiguration},
		{"too large", "File is larger than max-filesize (2048 bytes > 1024 bytes). Aborting.", nil, false, services.ErrSizeLimit},
		{"nothing downloaded", "", nil, false, services.ErrAcquisition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(testPolicy, "", 0, nil)
			a.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tt.output), tt.err
			})
			_, err := a.Acquire(context.Background(), Request{URL: "https://example.com/v"}, t.TempDir())
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestAcquireDownloadOversizedFile(t *testing.T) {
	dir := t.TempDir()
	a := New(testPolicy, "", 0, nil)
	a.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, os.WriteFile(filepath.Join(dir, "download.mp4"), bytes.Repeat([]byte("x"), 2048), 0o644)
	})
	_, err := a.Acquire(context.Background(), Request{URL: "https://example.com/v"}, dir)
	if !errors.Is(err, services.ErrSizeLimit) {
		t.Fatalf("expected size limit error, got %v", err)
	}
}
