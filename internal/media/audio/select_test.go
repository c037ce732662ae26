package audio

import (
	"strings"
	"testing"

	"accentscope/internal/media/ffprobe"
)

func TestSelectPrefersEnglishDialogue(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio", CodecName: "aac", Tags: map[string]string{"language": "fre"}, Disposition: map[string]int{"default": 1}},
		{Index: 2, CodecType: "audio", CodecName: "ac3", Channels: 6, Tags: map[string]string{"language": "eng"}},
		{Index: 3, CodecType: "audio", CodecName: "aac", Tags: map[string]string{"language": "eng", "title": "Director Commentary"}},
	}

	sel := Select(streams)
	if sel.Index != 2 {
		t.Fatalf("expected english dialogue (index 2), got %d", sel.Index)
	}
	if sel.Candidates != 3 {
		t.Fatalf("expected 3 candidates, got %d", sel.Candidates)
	}
	if !strings.HasPrefix(sel.Reason, "english") {
		t.Fatalf("unexpected reason %q", sel.Reason)
	}
	if label := sel.Label(); !strings.Contains(label, "#2") || !strings.Contains(label, "6ch") {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestSelectUsesDefaultFlagOnTie(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 1, CodecType: "audio"},
		{Index: 2, CodecType: "audio", Disposition: map[string]int{"default": 1}},
	}
	if sel := Select(streams); sel.Index != 2 {
		t.Fatalf("expected default-flagged stream, got %d", sel.Index)
	}
}

func TestSelectPrefersEarliestWhenEqual(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 4, CodecType: "audio", Tags: map[string]string{"LANGUAGE": "en"}},
		{Index: 5, CodecType: "audio", Tags: map[string]string{"language": "eng"}},
	}
	if sel := Select(streams); sel.Index != 4 {
		t.Fatalf("expected first english stream, got %d", sel.Index)
	}
}

func TestSelectFallsBackToAuxiliary(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "audio", Disposition: map[string]int{"comment": 1}},
	}
	sel := Select(streams)
	if sel.Index != 0 {
		t.Fatalf("expected only stream, got %d", sel.Index)
	}
	if sel.Reason != "single audio stream" {
		t.Fatalf("unexpected reason %q", sel.Reason)
	}
}

func TestSelectWithoutAudio(t *testing.T) {
	sel := Select([]ffprobe.Stream{{Index: 0, CodecType: "video"}})
	if sel.Found() {
		t.Fatalf("expected no selection, got %+v", sel)
	}
	if sel.Label() != "" {
		t.Fatalf("expected empty label, got %q", sel.Label())
	}
}

func TestLanguageRank(t *testing.T) {
	tests := map[string]int{
		"":    rankUntagged,
		"und": rankUntagged,
		"eng": rankEnglish,
		"en":  rankEnglish,
		"fra": rankOther,
		"???": rankOther,
	}
	for code, want := range tests {
		if got := languageRank(code); got != want {
			t.Fatalf("languageRank(%q) = %d, want %d", code, got, want)
		}
	}
}
