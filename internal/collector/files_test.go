package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestCountFileLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "empty", content: "", want: 0},
		{name: "single unterminated", content: "hello", want: 1},
		{name: "single terminated", content: "hello\n", want: 1},
		{name: "several", content: "a\nb\nc\n", want: 3},
		{name: "trailing partial", content: "a\nb\nc", want: 3},
		{name: "blank lines", content: "\n\n\n", want: 3},
		{name: "binary", content: "PNG\x00\x01\x02\nmore\n", want: 0},
	}

	dir := t.TempDir()
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, fmt.Sprintf("f%d", i))
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := countFileLines(path)
			if err != nil {
				t.Fatalf("countFileLines: %v", err)
			}
			if got != tt.want {
				t.Errorf("countFileLines() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLineCounterSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("1\n2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "adir"), 0o755); err != nil {
		t.Fatal(err)
	}

	lc := &lineCounter{Root: dir}
	got, err := lc.Count([]string{"missing.txt", "adir", "ok.txt"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestLineCounterInvalidPattern(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lc := &lineCounter{Root: dir, IgnorePatterns: []string{"[unclosed"}}
	got, err := lc.Count([]string{"ok.txt"})
	if err == nil {
		t.Error("expected an error for an invalid pattern")
	}
	if got != 1 {
		t.Errorf("Count() = %d, want 1 even with a bad pattern", got)
	}
}

func TestIsIgnored(t *testing.T) {
	globs, err := compileIgnorePatterns([]string{"*.lock", "vendor/**", "# comment", ""})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"package.lock", true},
		{"sub/dir/yarn.lock", true},
		{"vendor/pkg/a.go", true},
		{"src/vendor.go", false},
		{"main.go", false},
	}
	for _, tt := range tests {
		if got := isIgnored(tt.path, globs); got != tt.want {
			t.Errorf("isIgnored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// Feature: statusline, Property 3: ignored untracked files never contribute lines
func TestIgnorePatternFiltering(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dir := t.TempDir()

		ext := rapid.StringMatching(`[a-z]{2,4}`).Draw(rt, "ext")
		otherExt := ext + "x"

		n := rapid.IntRange(1, 5).Draw(rt, "n")
		var paths []string
		keptLines := 0
		for i := 0; i < n; i++ {
			lines := rapid.IntRange(0, 20).Draw(rt, fmt.Sprintf("lines%d", i))
			ignored := rapid.Bool().Draw(rt, fmt.Sprintf("ignored%d", i))

			name := fmt.Sprintf("f%d.%s", i, otherExt)
			if ignored {
				name = fmt.Sprintf("f%d.%s", i, ext)
			} else {
				keptLines += lines
			}
			content := strings.Repeat("line\n", lines)
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				rt.Fatal(err)
			}
			paths = append(paths, name)
		}

		lc := &lineCounter{Root: dir, IgnorePatterns: []string{"*." + ext}}
		got, err := lc.Count(paths)
		if err != nil {
			rt.Fatalf("Count: %v", err)
		}
		if got != keptLines {
			rt.Fatalf("Count() = %d, want %d", got, keptLines)
		}
	})
}
