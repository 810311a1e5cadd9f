package status

import (
	"strings"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	const want = int64(1735732800) // 2025-01-01T12:00:00Z

	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "zulu suffix", input: "2025-01-01T12:00:00Z", ok: true},
		{name: "lowercase zulu", input: "2025-01-01T12:00:00z", ok: true},
		{name: "explicit offset", input: "2025-01-01T12:00:00+00:00", ok: true},
		{name: "fractional seconds", input: "2025-01-01T12:00:00.000Z", ok: true},
		{name: "no zone", input: "2025-01-01T12:00:00", ok: true},
		{name: "space separator", input: "2025-01-01 12:00:00Z", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "yesterday", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != want {
				t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.input, got, want)
			}
		})
	}
}

func TestParseTimestampOffset(t *testing.T) {
	got, ok := ParseTimestamp("2025-01-01T14:00:00+02:00")
	if !ok {
		t.Fatal("expected offset timestamp to parse")
	}
	if got != 1735732800 {
		t.Errorf("got %d, want 1735732800", got)
	}
}

func TestParseSession(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Session
	}{
		{
			name:  "full descriptor",
			input: `{"cwd":"/home/user/project","session_id":"abc","model":{"display_name":"Sonnet"}}`,
			want:  Session{WorkDir: "/home/user/project", Model: "Sonnet", SessionID: "abc"},
		},
		{
			name:  "workspace fallback",
			input: `{"workspace":{"current_dir":"/srv/app"},"model":{"display_name":"Opus"}}`,
			want:  Session{WorkDir: "/srv/app", Model: "Opus"},
		},
		{
			name:  "cwd wins over workspace",
			input: `{"cwd":"/a","workspace":{"current_dir":"/b"}}`,
			want:  Session{WorkDir: "/a", Model: UnknownModel},
		},
		{
			name:  "missing model",
			input: `{"cwd":"/a"}`,
			want:  Session{WorkDir: "/a", Model: UnknownModel},
		},
		{
			name:  "malformed json",
			input: `{"cwd":`,
			want:  Session{Model: UnknownModel},
		},
		{
			name:  "empty input",
			input: ``,
			want:  Session{Model: UnknownModel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSession(strings.NewReader(tt.input))
			if got != tt.want {
				t.Errorf("ParseSession() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUsageBlockWindowEnd(t *testing.T) {
	var b UsageBlock
	b.EndTime = b.EndTime.AddDate(2025, 0, 0)
	if !b.WindowEnd().Equal(b.EndTime) {
		t.Errorf("WindowEnd without reset = %v, want EndTime %v", b.WindowEnd(), b.EndTime)
	}
	b.ResetTime = b.EndTime.Add(-1)
	if !b.WindowEnd().Equal(b.ResetTime) {
		t.Errorf("WindowEnd with reset = %v, want ResetTime %v", b.WindowEnd(), b.ResetTime)
	}
}
