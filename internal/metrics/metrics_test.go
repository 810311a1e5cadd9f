package metrics

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/statusline/internal/status"
)

func TestUsagePercent(t *testing.T) {
	tests := []struct {
		name   string
		tokens int64
		limit  int64
		want   int
	}{
		{name: "zero tokens", tokens: 0, limit: DefaultPlanLimit, want: 0},
		{name: "negative tokens", tokens: -5, limit: DefaultPlanLimit, want: 0},
		{name: "half", tokens: 19_000_000, limit: 38_000_000, want: 50},
		{name: "floors", tokens: 379_999, limit: 38_000_000, want: 0},
		{name: "just under one percent", tokens: 380_000 - 1, limit: 38_000_000, want: 0},
		{name: "one percent", tokens: 380_000, limit: 38_000_000, want: 1},
		{name: "over limit clamps", tokens: 90_000_000, limit: 38_000_000, want: 100},
		{name: "huge total clamps", tokens: 1 << 62, limit: 38_000_000, want: 100},
		{name: "zero limit", tokens: 100, limit: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UsagePercent(tt.tokens, tt.limit)
			if got != tt.want {
				t.Errorf("UsagePercent(%d, %d) = %d, want %d", tt.tokens, tt.limit, got, tt.want)
			}
		})
	}
}

func TestElapsedPercent(t *testing.T) {
	tests := []struct {
		name            string
		start, end, now int64
		want            int
	}{
		{name: "midpoint", start: 0, end: 7200, now: 3600, want: 50},
		{name: "before start", start: 100, end: 200, now: 50, want: 0},
		{name: "after end", start: 100, end: 200, now: 500, want: 100},
		{name: "empty window", start: 100, end: 100, now: 150, want: 0},
		{name: "inverted window", start: 200, end: 100, now: 150, want: 0},
		{name: "floors", start: 0, end: 3, now: 1, want: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ElapsedPercent(tt.start, tt.end, tt.now)
			if got != tt.want {
				t.Errorf("ElapsedPercent(%d, %d, %d) = %d, want %d", tt.start, tt.end, tt.now, got, tt.want)
			}
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	tests := []struct {
		name   string
		end    int64
		now    int64
		want   Remaining
		wantOK bool
	}{
		{name: "one hour", end: 3600, now: 0, want: Remaining{Hours: 1}, wantOK: true},
		{name: "hours and minutes", end: 2*3600 + 17*60 + 59, now: 0, want: Remaining{Hours: 2, Minutes: 17}, wantOK: true},
		{name: "under a minute", end: 30, now: 0, want: Remaining{}, wantOK: true},
		{name: "expired", end: 0, now: 0, wantOK: false},
		{name: "long expired", end: 0, now: 999, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TimeRemaining(tt.end, tt.now)
			if ok != tt.wantOK {
				t.Fatalf("TimeRemaining ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("TimeRemaining = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		pct  int
		want Band
	}{
		{0, BandOK},
		{74, BandOK},
		{75, BandWarn},
		{89, BandWarn},
		{90, BandCritical},
		{100, BandCritical},
	}
	for _, tt := range tests {
		if got := BandFor(tt.pct); got != tt.want {
			t.Errorf("BandFor(%d) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestContextLimit(t *testing.T) {
	overrides := map[string]int64{
		"sonnet":    500_000,
		"sonnet 1m": 1_000_000,
	}

	tests := []struct {
		name      string
		model     string
		overrides map[string]int64
		want      int64
	}{
		{name: "opus default", model: "Opus 4", want: DefaultContextLimit},
		{name: "sonnet default", model: "Sonnet 4", want: DefaultContextLimit},
		{name: "haiku default", model: "Haiku", want: DefaultContextLimit},
		{name: "unknown default", model: "Mystery", want: DefaultContextLimit},
		{name: "override", model: "Claude Sonnet 4", overrides: overrides, want: 500_000},
		{name: "longest key wins", model: "Sonnet 1M", overrides: overrides, want: 1_000_000},
		{name: "non-positive ignored", model: "Opus", overrides: map[string]int64{"opus": 0}, want: DefaultContextLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContextLimit(tt.model, tt.overrides); got != tt.want {
				t.Errorf("ContextLimit(%q) = %d, want %d", tt.model, got, tt.want)
			}
		})
	}
}

func TestComputeEndToEndWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	block := &status.UsageBlock{
		TotalTokens: 19_000_000,
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
		IsActive:    true,
	}
	calc := Calculator{PlanLimit: 38_000_000, Now: func() time.Time { return now }}

	m := calc.Compute("Sonnet", block, nil)
	if m.UsagePercent != 50 {
		t.Errorf("UsagePercent = %d, want 50", m.UsagePercent)
	}
	if m.ElapsedPercent != 50 {
		t.Errorf("ElapsedPercent = %d, want 50", m.ElapsedPercent)
	}
	if !m.HasRemaining || m.Remaining != (Remaining{Hours: 1, Minutes: 0}) {
		t.Errorf("Remaining = %+v (ok=%v), want 1h 0m", m.Remaining, m.HasRemaining)
	}
	if m.HasContext {
		t.Error("HasContext = true without a snapshot")
	}
}

func TestComputePrefersResetTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	block := &status.UsageBlock{
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(4 * time.Hour),
		ResetTime: now.Add(30 * time.Minute),
	}
	m := Calculator{Now: func() time.Time { return now }}.Compute("Opus", block, nil)
	if m.Remaining != (Remaining{Minutes: 30}) {
		t.Errorf("Remaining = %+v, want 30m", m.Remaining)
	}
}

func TestComputeMissingEndUsesWindowLength(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	block := &status.UsageBlock{TotalTokens: 1, StartTime: now.Add(-4 * time.Hour)}

	m := Calculator{Now: func() time.Time { return now }}.Compute("Opus", block, nil)
	if !m.HasRemaining || m.Remaining != (Remaining{Hours: 1}) {
		t.Errorf("Remaining = %+v (ok=%v), want 1h 0m from a 5h window", m.Remaining, m.HasRemaining)
	}
	if m.ElapsedPercent != 80 {
		t.Errorf("ElapsedPercent = %d, want 80", m.ElapsedPercent)
	}
}

func TestComputeContext(t *testing.T) {
	calc := Calculator{}
	m := calc.Compute("Opus", nil, &status.ContextSnapshot{Tokens: 150_000})
	if !m.HasContext || m.ContextPercent != 75 {
		t.Errorf("context = %d (has=%v), want 75", m.ContextPercent, m.HasContext)
	}
	m = calc.Compute("Opus", nil, &status.ContextSnapshot{Tokens: 0})
	if m.HasContext {
		t.Error("zero-token snapshot should not produce a context segment")
	}
	if m.UsagePercent != 0 || m.HasRemaining {
		t.Errorf("nil block produced usage metrics: %+v", m)
	}
}

// Feature: statusline, Property 1: every percentage stays within [0, 100]
func TestPercentagesBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tokens := rapid.Int64().Draw(t, "tokens")
		limit := rapid.Int64().Draw(t, "limit")
		start := rapid.Int64Range(-1<<40, 1<<40).Draw(t, "start")
		end := rapid.Int64Range(-1<<40, 1<<40).Draw(t, "end")
		now := rapid.Int64Range(-1<<40, 1<<40).Draw(t, "now")

		for name, pct := range map[string]int{
			"usage":   UsagePercent(tokens, limit),
			"elapsed": ElapsedPercent(start, end, now),
			"context": ContextPercent(tokens, limit),
		} {
			if pct < 0 || pct > 100 {
				t.Fatalf("%s percentage %d out of range", name, pct)
			}
		}
		if end <= start && ElapsedPercent(start, end, now) != 0 {
			t.Fatalf("non-positive window [%d, %d] gave non-zero elapsed", start, end)
		}
	})
}

// Feature: statusline, Property 2: remaining time recomposes to within a minute
func TestTimeRemainingRecomposes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		left := rapid.Int64Range(1, 10*24*3600).Draw(t, "left")
		r, ok := TimeRemaining(left, 0)
		if !ok {
			t.Fatalf("expected remaining time for %ds", left)
		}
		if r.Minutes < 0 || r.Minutes > 59 {
			t.Fatalf("minutes %d out of range", r.Minutes)
		}
		total := r.Hours*3600 + r.Minutes*60
		if total > left || left-total >= 60 {
			t.Fatalf("%+v does not floor %ds", r, left)
		}
	})
}
