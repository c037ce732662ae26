package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// readiness is how a status item affects the ability to run an analysis.
type readiness int

const (
	readinessNote readiness = iota
	readinessReady
	readinessDegraded
	readinessBlocked
)

func (r readiness) marker() string {
	switch r {
	case readinessReady:
		return "ready"
	case readinessDegraded:
		return "degraded"
	case readinessBlocked:
		return "blocked"
	default:
		return ""
	}
}

func (r readiness) colors() text.Colors {
	switch r {
	case readinessReady:
		return text.Colors{text.FgGreen}
	case readinessDegraded:
		return text.Colors{text.FgYellow}
	case readinessBlocked:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return nil
	}
}

const (
	statusLabelWidth  = 20
	statusMarkerWidth = 9
)

// statusView collects the sections printed by `accentscope status`.
type statusView struct {
	colorize bool
	lines    []string
	blockers int
}

func newStatusView(colorize bool) *statusView {
	return &statusView{colorize: colorize}
}

func (v *statusView) section(title string) {
	if len(v.lines) > 0 {
		v.lines = append(v.lines, "")
	}
	if v.colorize {
		title = text.Bold.Sprint(title)
	}
	v.lines = append(v.lines, title)
}

func (v *statusView) note(label, detail string) {
	v.item(label, readinessNote, detail)
}

func (v *statusView) item(label string, state readiness, detail string) {
	if state == readinessBlocked {
		v.blockers++
	}
	marker := fmt.Sprintf("%-*s", statusMarkerWidth, state.marker())
	if v.colorize && state != readinessNote {
		marker = state.colors().Sprint(marker)
	}
	line := fmt.Sprintf("  %-*s %s %s", statusLabelWidth, label, marker, strings.TrimSpace(detail))
	v.lines = append(v.lines, strings.TrimRight(line, " "))
}

// verdict appends the overall line. Analyses can run only when nothing is
// blocked.
func (v *statusView) verdict() {
	if v.blockers == 0 {
		v.section("Ready to analyze")
		return
	}
	noun := "problems"
	if v.blockers == 1 {
		noun = "problem"
	}
	v.section(fmt.Sprintf("Not ready: %d blocking %s", v.blockers, noun))
}

func (v *statusView) String() string {
	return strings.Join(v.lines, "\n")
}

// shouldColorize reports whether writer is a terminal and NO_COLOR is unset.
func shouldColorize(writer io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
