package collector

import (
	"context"
	"os/exec"
	"time"

	"github.com/fakeyudi/statusline/internal/status"
)

// Collector gathers one category of session telemetry.
type Collector interface {
	// Collect runs the collection logic and returns its contribution to the
	// status line. Failures never escape: they leave the contribution empty
	// and are described in Result.Warnings.
	Collect(ctx context.Context, sess status.Session) Result
}

// Result holds the output of a single collector. A nil pointer field means
// the source was unavailable.
type Result struct {
	Branch   string                  // populated by BranchCollector
	Git      *status.GitState        // populated by StatsCollector (counts only)
	Usage    *status.UsageBlock      // populated by UsageCollector
	Context  *status.ContextSnapshot // populated by TranscriptReader
	Warnings []string                // non-fatal issues encountered
}

// Runner executes an external command and returns its standard output.
// This abstraction allows mocking in tests.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// waitDelay is how long a killed command's output pipe may stay open before
// it is closed, e.g. while an npx grandchild still holds it.
const waitDelay = 250 * time.Millisecond

// defaultRunner runs the command as a real subprocess. The context deadline
// kills the process and its descendants when it overruns.
func defaultRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)
	return cmd.Output()
}

// runBounded runs one command under its own timeout.
func runBounded(ctx context.Context, r Runner, timeout time.Duration, dir, name string, args ...string) ([]byte, error) {
	if r == nil {
		r = defaultRunner
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out, err := r(ctx, dir, name, args...)
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return out, err
}

// CollectAll runs collectors in order and merges their results. Later
// collectors never see earlier collectors' failures.
func CollectAll(ctx context.Context, sess status.Session, collectors []Collector) Result {
	var merged Result
	for _, c := range collectors {
		r := c.Collect(ctx, sess)
		if r.Branch != "" {
			merged.Branch = r.Branch
		}
		if r.Git != nil {
			merged.Git = r.Git
		}
		if r.Usage != nil {
			merged.Usage = r.Usage
		}
		if r.Context != nil {
			merged.Context = r.Context
		}
		merged.Warnings = append(merged.Warnings, r.Warnings...)
	}
	return merged
}

// GitState folds the branch and counts into the value shown on line one.
// Counts default to zero when stats were unavailable.
func (r Result) GitState() status.GitState {
	var g status.GitState
	if r.Git != nil {
		g = *r.Git
	}
	g.Branch = r.Branch
	return g
}
