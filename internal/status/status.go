// Package status holds the per-invocation values that flow from the
// collectors through the metric calculator into the renderer.
// Nothing here outlives a single run.
package status

import (
	"encoding/json"
	"io"
	"strings"
	"time"
)

// Session describes the coding session the status line is drawn for.
type Session struct {
	WorkDir   string `json:"work_dir"`
	Model     string `json:"model"`
	SessionID string `json:"session_id"`
}

// GitState is the working-tree summary shown on line one.
// The zero value means "not a repository" or "collection failed".
type GitState struct {
	Branch        string `json:"branch,omitempty"` // empty when absent
	ModifiedFiles int    `json:"modified_files"`
	LinesAdded    int    `json:"lines_added"`
	LinesRemoved  int    `json:"lines_removed"`
}

// UsageBlock is one rolling usage window reported by the metering tool.
type UsageBlock struct {
	TotalTokens int64     `json:"total_tokens"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ResetTime   time.Time `json:"reset_time,omitempty"` // zero unless the tool reported a limit reset
	IsActive    bool      `json:"is_active"`
	IsGap       bool      `json:"is_gap"`
}

// WindowEnd returns the limit reset time when known, else the block end.
func (b UsageBlock) WindowEnd() time.Time {
	if !b.ResetTime.IsZero() {
		return b.ResetTime
	}
	return b.EndTime
}

// ContextSnapshot is the number of tokens occupying the context window.
type ContextSnapshot struct {
	Tokens int64 `json:"tokens"`
}

// descriptor mirrors the JSON record the host writes on stdin.
type descriptor struct {
	Cwd       string `json:"cwd"`
	SessionID string `json:"session_id"`
	Model     struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"model"`
	Workspace struct {
		CurrentDir string `json:"current_dir"`
		ProjectDir string `json:"project_dir"`
	} `json:"workspace"`
}

// UnknownModel is shown when the descriptor names no model.
const UnknownModel = "Unknown"

// ParseSession decodes a session descriptor. It never fails: unreadable or
// malformed input yields a Session with default fields.
func ParseSession(r io.Reader) Session {
	s := Session{Model: UnknownModel}

	data, err := io.ReadAll(r)
	if err != nil {
		return s
	}
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return s
	}

	s.WorkDir = d.Cwd
	if s.WorkDir == "" {
		s.WorkDir = d.Workspace.CurrentDir
	}
	if name := strings.TrimSpace(d.Model.DisplayName); name != "" {
		s.Model = name
	}
	s.SessionID = d.SessionID
	return s
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp converts an ISO-8601 timestamp to epoch seconds.
// "Z", "z", "+00:00" and zone-less forms are all accepted; zone-less values
// are read as UTC.
func ParseTimestamp(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "Z"
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}
