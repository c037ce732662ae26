package preflight

import (
	"accentscope/internal/config"
	"accentscope/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Report bundles every check for status rendering.
type Report struct {
	Checks       []Result
	Dependencies []deps.Status
}

// Ready reports whether analyses can run.
func (r Report) Ready() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return len(deps.Missing(r.Dependencies)) == 0
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckSpeechCredentials(cfg),
	}
}

// Collect runs RunAll and CheckSystemDeps together.
func Collect(cfg *config.Config) Report {
	if cfg == nil {
		return Report{}
	}
	return Report{
		Checks:       RunAll(cfg),
		Dependencies: CheckSystemDeps(cfg),
	}
}
