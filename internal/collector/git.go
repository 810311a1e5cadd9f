package collector

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/fakeyudi/statusline/internal/status"
)

// DefaultGitTimeout bounds every individual git invocation.
const DefaultGitTimeout = time.Second

// noWorkDirWarning is reported instead of running git in this process's own
// directory.
const noWorkDirWarning = "git: session has no working directory"

// BranchCollector reports the checked-out branch name.
type BranchCollector struct {
	WorkDir string        // if empty, the session's working directory
	Runner  Runner        // if nil, uses the real git subprocess
	Timeout time.Duration // per call; DefaultGitTimeout when zero
}

// Collect implements Collector. The branch is only reported when git exits
// zero; anything else leaves Result.Branch empty.
func (b *BranchCollector) Collect(ctx context.Context, sess status.Session) Result {
	dir := firstNonEmpty(b.WorkDir, sess.WorkDir)
	if dir == "" {
		return Result{Warnings: []string{noWorkDirWarning}}
	}
	out, err := runBounded(ctx, b.Runner, orDefault(b.Timeout, DefaultGitTimeout), dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Result{Warnings: []string{gitWarning("branch", err)}}
	}
	branch := strings.TrimSpace(string(out))
	if branch == "" {
		return Result{Warnings: []string{"git branch: empty output"}}
	}
	return Result{Branch: branch}
}

// StatsCollector counts changed files and added/removed lines since the
// last commit, including lines of untracked files.
type StatsCollector struct {
	WorkDir        string
	IgnorePatterns []string // globs excluded from untracked line counting
	Runner         Runner
	Timeout        time.Duration
}

// Collect implements Collector. Any failing git stage degrades the whole
// result to zero counts; per-file read failures only drop that file.
func (s *StatsCollector) Collect(ctx context.Context, sess status.Session) Result {
	dir := firstNonEmpty(s.WorkDir, sess.WorkDir)
	if dir == "" {
		return Result{Git: &status.GitState{}, Warnings: []string{noWorkDirWarning}}
	}
	timeout := orDefault(s.Timeout, DefaultGitTimeout)
	git := func(args ...string) (string, error) {
		out, err := runBounded(ctx, s.Runner, timeout, dir, "git", args...)
		return string(out), err
	}
	degraded := func(stage string, err error) Result {
		return Result{Git: &status.GitState{}, Warnings: []string{gitWarning(stage, err)}}
	}

	if _, err := git("rev-parse", "--git-dir"); err != nil {
		return degraded("probe", err)
	}

	statusOut, err := git("status", "--porcelain")
	if err != nil {
		return degraded("status", err)
	}
	stats := &status.GitState{ModifiedFiles: len(nonEmptyLines(statusOut))}

	diffOut, err := git("diff", "HEAD", "--numstat")
	if err != nil {
		return degraded("diff", err)
	}
	stats.LinesAdded, stats.LinesRemoved = parseNumstat(diffOut)

	untrackedOut, err := git("ls-files", "--others", "--exclude-standard")
	if err != nil {
		return degraded("untracked", err)
	}

	var warnings []string
	counter := &lineCounter{Root: dir, IgnorePatterns: s.IgnorePatterns}
	added, err := counter.Count(nonEmptyLines(untrackedOut))
	if err != nil {
		warnings = append(warnings, "ignore patterns: "+err.Error())
	}
	stats.LinesAdded += added

	return Result{Git: stats, Warnings: warnings}
}

// parseNumstat sums the added and removed columns of `git diff --numstat`.
// Binary entries ("-\t-") and unparsable rows are skipped.
func parseNumstat(output string) (added, removed int) {
	for _, line := range nonEmptyLines(output) {
		parts := strings.Split(line, "\t")
		if len(parts) < 2 || parts[0] == "-" || parts[1] == "-" {
			continue
		}
		a, errA := strconv.Atoi(parts[0])
		r, errR := strconv.Atoi(parts[1])
		if errA != nil || errR != nil {
			continue
		}
		added += a
		removed += r
	}
	return added, removed
}

// gitWarning describes a failed git stage. Exit code 128 is git's
// "not a git repository".
func gitWarning(stage string, err error) string {
	if isExitCode128(err) {
		return "git " + stage + ": not a git repository"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "git " + stage + ": timed out"
	}
	return fmt.Sprintf("git %s: %v", stage, err)
}

// isExitCode128 reports whether err is an *exec.ExitError with exit code 128.
func isExitCode128(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}

// nonEmptyLines splits output into lines, discarding empty ones.
func nonEmptyLines(output string) []string {
	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			result = append(result, l)
		}
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
