package main

import (
	"context"
	"io"
	"strings"
	"testing"

	"accentscope/internal/deps"
	"accentscope/internal/preflight"
)

func TestStatusViewItemLayout(t *testing.T) {
	view := newStatusView(false)
	view.section("Checks")
	view.item("Speech credentials", readinessBlocked, "SPEECH_API_KEY is not set")
	view.note("Config", "/etc/accentscope.toml")

	lines := strings.Split(view.String(), "\n")
	if len(lines) != 3 || lines[0] != "Checks" {
		t.Fatalf("unexpected lines %q", lines)
	}
	want := "  Speech credentials   blocked   SPEECH_API_KEY is not set"
	if lines[1] != want {
		t.Fatalf("item mismatch\n got: %q\nwant: %q", lines[1], want)
	}
	if !strings.HasPrefix(lines[2], "  Config") || !strings.HasSuffix(lines[2], " /etc/accentscope.toml") {
		t.Fatalf("unexpected note line %q", lines[2])
	}
}

func TestStatusViewVerdict(t *testing.T) {
	ready := newStatusView(false)
	ready.item("FFmpeg", readinessReady, "/usr/bin/ffmpeg")
	ready.item("Extra", readinessDegraded, "not configured")
	ready.verdict()
	if !strings.HasSuffix(ready.String(), "\n\nReady to analyze") {
		t.Fatalf("expected ready verdict, got %q", ready.String())
	}

	blocked := newStatusView(false)
	blocked.item("FFmpeg", readinessBlocked, "missing")
	blocked.item("yt-dlp", readinessBlocked, "missing")
	blocked.verdict()
	if !strings.HasSuffix(blocked.String(), "Not ready: 2 blocking problems") {
		t.Fatalf("expected blocked verdict, got %q", blocked.String())
	}
}

func TestStatusViewWithoutColorHasNoEscapes(t *testing.T) {
	view := newStatusView(false)
	view.section("Dependencies")
	view.item("FFmpeg", readinessReady, "ok")
	if strings.Contains(view.String(), "\x1b[") {
		t.Fatalf("unexpected escape sequence in %q", view.String())
	}

	colored := newStatusView(true)
	colored.item("FFmpeg", readinessReady, "ok")
	if !strings.Contains(colored.String(), "ready") || !strings.Contains(colored.String(), "FFmpeg") {
		t.Fatalf("colored output lost its text: %q", colored.String())
	}
}

func TestDependencyItems(t *testing.T) {
	view := newStatusView(false)
	addDependencyItems(context.Background(), view, []deps.Status{
		{Name: "FFmpeg", Command: "ffmpeg", Detail: `binary "ffmpeg" not found`},
		{Name: "yt-dlp", Command: "yt-dlp"},
		{Name: "Extra", Optional: true, Detail: "not configured"},
	})
	lines := strings.Split(view.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], `blocked   binary "ffmpeg" not found`) {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "blocked   not available") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[2], "degraded  not configured") {
		t.Fatalf("unexpected third line %q", lines[2])
	}
	if view.blockers != 2 {
		t.Fatalf("expected 2 blockers, got %d", view.blockers)
	}
}

func TestCheckItems(t *testing.T) {
	view := newStatusView(false)
	addCheckItems(view, []preflight.Result{
		{Name: "Work directory", Passed: true, Detail: "/tmp/work (read/write ok)"},
		{Name: "Speech credentials", Passed: false, Detail: "missing"},
	})
	lines := strings.Split(view.String(), "\n")
	if !strings.Contains(lines[0], "ready     /tmp/work") || !strings.Contains(lines[1], "blocked   missing") {
		t.Fatalf("unexpected check lines %q", lines)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestRenderFieldsSkipsEmptyValues(t *testing.T) {
	out := renderFields([][2]string{{"Accent", "Irish English"}, {"Region", ""}})
	if !strings.Contains(out, "Irish English") || strings.Contains(out, "Region") {
		t.Fatalf("unexpected table %q", out)
	}
}
