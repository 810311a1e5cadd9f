// Package metrics turns raw token totals and window boundaries into the
// bounded integer percentages shown on the status line. Everything here is
// pure: no I/O and no failure modes beyond zero-denominator guards.
package metrics

import (
	"math/bits"
	"strings"
	"time"

	"github.com/fakeyudi/statusline/internal/status"
)

const (
	// DefaultPlanLimit is the per-window token allowance of the Max plan.
	DefaultPlanLimit int64 = 38_000_000

	// DefaultContextLimit is the context ceiling shared by every known model family.
	DefaultContextLimit int64 = 200_000

	// WindowLength is the span of one usage window.
	WindowLength = 5 * time.Hour
)

// Band classifies a percentage for colouring.
type Band int

const (
	BandOK Band = iota
	BandWarn
	BandCritical
)

// BandFor returns the colour band of pct: >=90 critical, >=75 warn, else ok.
func BandFor(pct int) Band {
	switch {
	case pct >= 90:
		return BandCritical
	case pct >= 75:
		return BandWarn
	default:
		return BandOK
	}
}

// Remaining is the time left in a usage window.
type Remaining struct {
	Hours   int64
	Minutes int64
}

// Metrics is the derived view of one run's collected data.
type Metrics struct {
	UsagePercent   int       `json:"usage_percent"`
	ElapsedPercent int       `json:"elapsed_percent"`
	Remaining      Remaining `json:"remaining"`
	HasRemaining   bool      `json:"has_remaining"`
	ContextPercent int       `json:"context_percent"`
	HasContext     bool      `json:"has_context"`
}

func clamp(v int64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

// percentOf returns floor(part*100/whole) clamped to [0, 100].
func percentOf(part, whole int64) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	if part >= whole {
		return 100
	}
	// part < whole keeps the quotient below 100, so Div64 cannot overflow.
	hi, lo := bits.Mul64(uint64(part), 100)
	q, _ := bits.Div64(hi, lo, uint64(whole))
	return clamp(int64(q))
}

// UsagePercent is the share of the plan limit consumed in the current window.
func UsagePercent(totalTokens, planLimit int64) int {
	if totalTokens <= 0 {
		return 0
	}
	return percentOf(totalTokens, planLimit)
}

// ElapsedPercent is how far now is through [start, end], in epoch seconds.
// A non-positive window duration yields 0.
func ElapsedPercent(start, end, now int64) int {
	return percentOf(now-start, end-start)
}

// TimeRemaining decomposes end-now into whole hours and minutes.
// ok is false once the window has expired.
func TimeRemaining(end, now int64) (r Remaining, ok bool) {
	left := end - now
	if left <= 0 {
		return Remaining{}, false
	}
	return Remaining{Hours: left / 3600, Minutes: (left % 3600) / 60}, true
}

// ContextPercent is the share of the model's context window in use.
func ContextPercent(tokens, maxContext int64) int {
	return percentOf(tokens, maxContext)
}

// ContextLimit returns the context ceiling for model. Overrides map a
// case-insensitive substring of the model name to a ceiling; the longest
// matching key wins so "opus 1m" can override "opus".
func ContextLimit(model string, overrides map[string]int64) int64 {
	lower := strings.ToLower(model)
	best, bestLen := DefaultContextLimit, -1
	for key, limit := range overrides {
		k := strings.ToLower(key)
		if limit <= 0 || !strings.Contains(lower, k) {
			continue
		}
		if len(k) > bestLen || (len(k) == bestLen && limit > best) {
			best, bestLen = limit, len(k)
		}
	}
	return best
}

// Calculator derives Metrics with a fixed plan limit and context table.
type Calculator struct {
	PlanLimit     int64
	ContextLimits map[string]int64
	Now           func() time.Time // if nil, time.Now
}

// Compute derives metrics from whatever was collected. A nil block leaves
// the usage fields zero; a nil snapshot leaves HasContext false.
func (c Calculator) Compute(model string, block *status.UsageBlock, snap *status.ContextSnapshot) Metrics {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	limit := c.PlanLimit
	if limit <= 0 {
		limit = DefaultPlanLimit
	}

	var m Metrics
	if block != nil && !block.StartTime.IsZero() {
		windowEnd := block.WindowEnd()
		if windowEnd.IsZero() {
			windowEnd = block.StartTime.Add(WindowLength)
		}
		start, end, t := block.StartTime.Unix(), windowEnd.Unix(), now().Unix()
		m.UsagePercent = UsagePercent(block.TotalTokens, limit)
		m.ElapsedPercent = ElapsedPercent(start, end, t)
		m.Remaining, m.HasRemaining = TimeRemaining(end, t)
	}
	if snap != nil && snap.Tokens > 0 {
		m.ContextPercent = ContextPercent(snap.Tokens, ContextLimit(model, c.ContextLimits))
		m.HasContext = true
	}
	return m
}
