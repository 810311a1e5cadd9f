package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/fakeyudi/statusline/internal/status"
)

// DefaultUsageTimeout bounds each usage-tool invocation; npx may need to
// resolve the package before the tool even starts.
const DefaultUsageTimeout = 15 * time.Second

// ErrNoUsableBlock is reported when the tool ran but no block qualified.
var ErrNoUsableBlock = errors.New("no active or non-gap usage block")

// UsageCollector reads the current usage window from the ccusage tool.
type UsageCollector struct {
	// Commands are tried in order until one yields a usable block. If empty,
	// DefaultUsageCommands(runtime.GOOS) is used.
	Commands [][]string
	Runner   Runner
	Timeout  time.Duration // per candidate; DefaultUsageTimeout when zero
}

// DefaultUsageCommands returns the preferred npx invocation followed by the
// bare command name. Windows goes through cmd.exe so npx.cmd resolves.
func DefaultUsageCommands(goos string) [][]string {
	if goos == "windows" {
		return [][]string{
			{"cmd", "/C", "npx.cmd", "-y", "ccusage@latest", "blocks", "--json"},
			{"cmd", "/C", "ccusage", "blocks", "--json"},
		}
	}
	return [][]string{
		{"npx", "-y", "ccusage@latest", "blocks", "--json"},
		{"ccusage", "blocks", "--json"},
	}
}

// Collect implements Collector. Result.Usage stays nil unless some
// candidate command produced a parseable report with a usable block.
func (u *UsageCollector) Collect(ctx context.Context, sess status.Session) Result {
	commands := u.Commands
	if len(commands) == 0 {
		commands = DefaultUsageCommands(runtime.GOOS)
	}
	timeout := orDefault(u.Timeout, DefaultUsageTimeout)

	var warnings []string
	for _, argv := range commands {
		if len(argv) == 0 {
			continue
		}
		label := strings.Join(argv, " ")
		out, err := runBounded(ctx, u.Runner, timeout, "", argv[0], argv[1:]...)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = errors.New("timed out")
			}
			warnings = append(warnings, fmt.Sprintf("usage (%s): %v", label, err))
			continue
		}
		block, err := ParseUsageReport(out)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("usage (%s): %v", label, err))
			continue
		}
		return Result{Usage: block, Warnings: warnings}
	}
	return Result{Warnings: warnings}
}

// ccusageBlock is one entry of `ccusage blocks --json`.
type ccusageBlock struct {
	ID                  string `json:"id"`
	StartTime           string `json:"startTime"`
	EndTime             string `json:"endTime"`
	UsageLimitResetTime string `json:"usageLimitResetTime"`
	IsActive            bool   `json:"isActive"`
	IsGap               bool   `json:"isGap"`
	TotalTokens         int64  `json:"totalTokens"`
}

type ccusageReport struct {
	Blocks []ccusageBlock `json:"blocks"`
}

// ParseUsageReport extracts the selected block from the tool's stdout.
// Anything before the first line that opens a JSON object (npm warnings,
// update notices) is discarded.
func ParseUsageReport(out []byte) (*status.UsageBlock, error) {
	payload, ok := jsonPayload(string(out))
	if !ok {
		return nil, errors.New("no JSON payload in output")
	}

	var report ccusageReport
	if err := json.NewDecoder(strings.NewReader(payload)).Decode(&report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	b, ok := selectBlock(report.Blocks)
	if !ok {
		return nil, ErrNoUsableBlock
	}
	return toUsageBlock(b), nil
}

// jsonPayload returns output from the first line whose trimmed text begins
// with '{'.
func jsonPayload(output string) (string, bool) {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "{") {
			return strings.Join(lines[i:], "\n"), true
		}
	}
	return "", false
}

// selectBlock picks the active block wherever it sits; failing that, the
// newest non-gap block scanning from the end. Blocks are assumed to be in
// chronological order.
func selectBlock(blocks []ccusageBlock) (ccusageBlock, bool) {
	for _, b := range blocks {
		if b.IsActive {
			return b, true
		}
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		if !blocks[i].IsGap {
			return blocks[i], true
		}
	}
	return ccusageBlock{}, false
}

// toUsageBlock converts wire timestamps; unparsable ones stay zero. A block
// without a start has no window; a missing end is derived by the calculator.
func toUsageBlock(b ccusageBlock) *status.UsageBlock {
	ub := &status.UsageBlock{
		TotalTokens: b.TotalTokens,
		IsActive:    b.IsActive,
		IsGap:       b.IsGap,
	}
	if sec, ok := status.ParseTimestamp(b.StartTime); ok {
		ub.StartTime = time.Unix(sec, 0).UTC()
	}
	if sec, ok := status.ParseTimestamp(b.EndTime); ok {
		ub.EndTime = time.Unix(sec, 0).UTC()
	}
	if sec, ok := status.ParseTimestamp(b.UsageLimitResetTime); ok {
		ub.ResetTime = time.Unix(sec, 0).UTC()
	}
	return ub
}
