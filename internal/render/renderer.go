// Package render turns collected session telemetry into output: the
// two-line ANSI status line, or a JSON document for scripting.
package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fakeyudi/statusline/internal/metrics"
	"github.com/fakeyudi/statusline/internal/status"
)

// UnavailableText replaces line two when the usage tool could not be used.
const UnavailableText = "Usage data unavailable (ccusage not found)"

// BarWidth is the number of cells in a progress bar.
const BarWidth = 20

const (
	line1Sep   = "   "
	barFilled  = "█"
	barEmpty   = "░"
	line2Glyph = "│"
)

// View is everything collected and derived for one invocation.
type View struct {
	Session status.Session          `json:"session"`
	Git     status.GitState         `json:"git"`
	Usage   *status.UsageBlock      `json:"usage"`   // nil when the usage tool was unavailable
	Context *status.ContextSnapshot `json:"context"` // nil when no snapshot was read
	Metrics metrics.Metrics         `json:"metrics"`
}

// Renderer serializes a View to bytes.
type Renderer interface {
	Render(v View) ([]byte, error)
}

// JSONRenderer renders a View as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(v View) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal view: %w", err)
	}
	return append(data, '\n'), nil
}

// ANSIRenderer renders the status line proper.
type ANSIRenderer struct {
	Palette    Palette
	HomeDir    string // collapsed to "~" in the directory segment
	MaxPathLen int    // DefaultMaxPathLen when zero
}

// Render writes one or two newline-terminated lines.
func (r *ANSIRenderer) Render(v View) ([]byte, error) {
	var sb strings.Builder
	for _, line := range r.Lines(v) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

// Lines returns line one and, when it has any segment, line two.
func (r *ANSIRenderer) Lines(v View) []string {
	lines := []string{r.line1(v)}
	if l2 := r.line2(v); l2 != "" {
		lines = append(lines, l2)
	}
	return lines
}

func (r *ANSIRenderer) line1(v View) string {
	p := r.Palette
	parts := []string{
		paint(p.Model, "["+v.Session.Model+"]"),
		paint(p.Dir, "📁 "+CompactPath(v.Session.WorkDir, r.HomeDir, r.MaxPathLen)),
	}

	if v.Git.Branch != "" {
		seg := paint(p.Branch, "⎇ "+v.Git.Branch)
		if v.Git.ModifiedFiles > 0 {
			seg += " " + paint(p.Secondary, fmt.Sprintf("(%d files, ", v.Git.ModifiedFiles)) +
				paint(p.Added, "+"+strconv.Itoa(v.Git.LinesAdded)) + "/" +
				paint(p.Removed, "-"+strconv.Itoa(v.Git.LinesRemoved)) +
				paint(p.Secondary, ")")
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, line1Sep)
}

func (r *ANSIRenderer) line2(v View) string {
	p := r.Palette
	var parts []string

	if v.Usage == nil {
		parts = append(parts, paint(p.Dim, UnavailableText))
	} else {
		m := v.Metrics
		if m.HasRemaining {
			pct := paint(p.Band(metrics.BandFor(m.UsagePercent)), strconv.Itoa(m.UsagePercent)+"%")
			parts = append(parts, "5 hour limit: "+pct+" (resets in "+paint(p.Secondary, FormatRemaining(m.Remaining))+")")
		}
		if m.HasContext {
			parts = append(parts, "Context: "+ProgressBar(p, m.ContextPercent, BarWidth)+" "+paint(p.Secondary, strconv.Itoa(m.ContextPercent)+"%"))
		}
	}
	return strings.Join(parts, " "+paint(p.Dim, line2Glyph)+" ")
}

// FormatRemaining renders "Xh Ym", or "Ym" under an hour.
func FormatRemaining(r metrics.Remaining) string {
	if r.Hours > 0 {
		return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes)
	}
	return fmt.Sprintf("%dm", r.Minutes)
}

// ProgressBar maps pct (clamped to [0, 100]) onto width cells coloured by
// the same bands as the usage percentage.
func ProgressBar(p Palette, pct, width int) string {
	pct = max(0, min(100, pct))
	filled := width * pct / 100
	bar := paint(p.Band(metrics.BandFor(pct)), strings.Repeat(barFilled, filled)) +
		paint(p.Dim, strings.Repeat(barEmpty, width-filled))
	return "[" + bar + "]"
}
