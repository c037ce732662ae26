package speech

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func ph(locale string, ms int64, conf float64, text string) phrase {
	return phrase{Locale: locale, DurationMilliseconds: ms, Confidence: decimal.NewFromFloat(conf), Text: text}
}

func TestFoldPicksLocaleWithMostSpeech(t *testing.T) {
	resp := transcribeResponse{
		DurationMilliseconds: 10000,
		Phrases: []phrase{
			ph("en-US", 1000, 0.95, "one"),
			ph("en-IN", 3000, 0.6, "two"),
			ph("en-IN", 1000, 0.8, "three"),
		},
	}
	got := fold(resp, "")
	if got.Locale != "en-IN" {
		t.Fatalf("locale = %q, want en-IN", got.Locale)
	}
	if math.Abs(got.Confidence-0.65) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.65", got.Confidence)
	}
	if got.LocaleShare != 0.8 {
		t.Fatalf("share = %v, want 0.8", got.LocaleShare)
	}
	if got.Transcript != "one two three" {
		t.Fatalf("transcript = %q", got.Transcript)
	}
	if got.AudioDuration != 10*time.Second || got.Phrases != 3 {
		t.Fatalf("unexpected metadata %+v", got)
	}
}

func TestFoldTiesGoToFirstLocale(t *testing.T) {
	got := fold(transcribeResponse{Phrases: []phrase{
		ph("en-AU", 0, 0.4, "a"),
		ph("en-NZ", 0, 0.9, "b"),
	}}, "")
	if got.Locale != "en-AU" {
		t.Fatalf("locale = %q, want en-AU", got.Locale)
	}
}

func TestFoldGroupsLocalesCaseInsensitively(t *testing.T) {
	got := fold(transcribeResponse{Phrases: []phrase{
		ph("en-GB", 100, 1, "a"),
		ph("EN-gb", 100, 0, "b"),
		ph("en-US", 150, 1, "c"),
	}}, "")
	if got.Locale != "en-GB" || got.Confidence != 0.5 {
		t.Fatalf("unexpected fold %+v", got)
	}
}

func TestFoldClampsConfidence(t *testing.T) {
	got := fold(transcribeResponse{Phrases: []phrase{ph("en-US", 10, 1.7, "hi")}}, "")
	if got.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", got.Confidence)
	}
	got = fold(transcribeResponse{Phrases: []phrase{ph("en-US", 10, -0.2, "hi")}}, "")
	if got.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", got.Confidence)
	}
}

func TestFoldNoSpeech(t *testing.T) {
	got := fold(transcribeResponse{Phrases: []phrase{ph("en-US", 10, 0.9, "  ")}}, "")
	if got.Status != StatusNoMatch || got.Locale != "" {
		t.Fatalf("expected NoMatch, got %+v", got)
	}
}

func TestFoldWithoutLocaleStillSucceeds(t *testing.T) {
	got := fold(transcribeResponse{Phrases: []phrase{ph("", 10, 0.9, "hello")}}, "")
	if !got.Succeeded() || got.Locale != "" || got.Confidence != 0 {
		t.Fatalf("unexpected fold %+v", got)
	}
}
