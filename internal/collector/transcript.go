package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fakeyudi/statusline/internal/status"
)

// DefaultTailLines is how many trailing transcript lines are searched.
const DefaultTailLines = 20

// tailChunk is the read size used when walking a transcript backwards.
const tailChunk = 16 * 1024

// TranscriptReader recovers the latest context-window size of a session
// from its append-only JSONL transcript.
type TranscriptReader struct {
	// ProjectsDir overrides the transcript root (used in tests). If empty,
	// ProjectsDir() is used.
	ProjectsDir string
	TailLines   int // DefaultTailLines when zero
}

// ProjectsDir returns the directory holding per-project transcripts:
// $CLAUDE_CONFIG_DIR/projects, else ~/.claude/projects.
func ProjectsDir() (string, error) {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "projects"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// EncodeProjectDir makes a working directory safe to use as a single path
// element: '/', '\' and ':' each become '-'.
func EncodeProjectDir(workDir string) string {
	return strings.NewReplacer("/", "-", `\`, "-", ":", "-").Replace(workDir)
}

// errUnsafeSessionID is returned for ids that are not a single path element.
var errUnsafeSessionID = errors.New("session id is empty or not a plain file name")

// transcriptName returns the transcript file name for a session. UUIDs are
// written in canonical lowercase form; any other id must be a single path
// element.
func transcriptName(sessionID string) (string, error) {
	if id, err := uuid.Parse(sessionID); err == nil {
		return id.String() + ".jsonl", nil
	}
	if sessionID == "" || sessionID == "." || sessionID == ".." ||
		strings.ContainsAny(sessionID, "/\\:\x00") || filepath.Base(sessionID) != sessionID {
		return "", errUnsafeSessionID
	}
	return sessionID + ".jsonl", nil
}

// transcriptCandidates lists the paths a session transcript may live at.
// Some releases prefixed the encoded directory with an extra '-'.
func transcriptCandidates(projectsDir, workDir, sessionID string) ([]string, error) {
	name, err := transcriptName(sessionID)
	if err != nil {
		return nil, err
	}
	encoded := EncodeProjectDir(workDir)
	return []string{
		filepath.Join(projectsDir, encoded, name),
		filepath.Join(projectsDir, "-"+encoded, name),
	}, nil
}

// Collect implements Collector.
func (t *TranscriptReader) Collect(ctx context.Context, sess status.Session) Result {
	snap, err := t.Read(sess.WorkDir, sess.SessionID)
	if err != nil {
		return Result{Warnings: []string{"transcript: " + err.Error()}}
	}
	return Result{Context: snap}
}

// Read returns the newest usage snapshot within the transcript's tail, or
// nil when the transcript is missing or no tailed line carries usage.
func (t *TranscriptReader) Read(workDir, sessionID string) (*status.ContextSnapshot, error) {
	candidates, err := t.candidates(workDir, sessionID)
	if err != nil {
		return nil, err
	}
	for _, path := range candidates {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		snap, err := readSnapshot(f, t.tailLines())
		f.Close()
		return snap, err
	}
	return nil, nil
}

// candidates resolves the projects directory and lists transcript paths.
func (t *TranscriptReader) candidates(workDir, sessionID string) ([]string, error) {
	root := t.ProjectsDir
	if root == "" {
		var err error
		if root, err = ProjectsDir(); err != nil {
			return nil, err
		}
	}
	return transcriptCandidates(root, workDir, sessionID)
}

func (t *TranscriptReader) tailLines() int {
	if t.TailLines > 0 {
		return t.TailLines
	}
	return DefaultTailLines
}

func readSnapshot(f *os.File, n int) (*status.ContextSnapshot, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	lines, err := tailLines(f, info.Size(), n)
	if err != nil {
		return nil, err
	}
	for tokens := range usageRecords(lines) {
		return &status.ContextSnapshot{Tokens: tokens}, nil
	}
	return nil, nil
}

// tailLines returns at most the last n lines of r, reading backwards from
// size in fixed chunks so the cost is independent of the file length.
func tailLines(r io.ReaderAt, size int64, n int) ([]string, error) {
	if n <= 0 || size <= 0 {
		return nil, nil
	}
	var buf []byte
	pos := size
	for pos > 0 && bytes.Count(buf, []byte{'\n'}) <= n {
		step := int64(tailChunk)
		if pos < step {
			step = pos
		}
		pos -= step
		chunk := make([]byte, step)
		if _, err := r.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		buf = append(chunk, buf...)
	}

	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	if pos > 0 {
		// The first element may start mid-line.
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// transcriptEntry is the subset of a transcript record that matters here.
type transcriptEntry struct {
	Message *struct {
		Usage *struct {
			InputTokens     int64 `json:"input_tokens"`
			CacheReadTokens int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// usageRecords yields context sizes from lines, newest first. Lines that
// fail to parse or carry no usage are skipped.
func usageRecords(lines []string) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for i := len(lines) - 1; i >= 0; i-- {
			var entry transcriptEntry
			if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
				continue
			}
			if entry.Message == nil || entry.Message.Usage == nil {
				continue
			}
			u := entry.Message.Usage
			if !yield(u.InputTokens + u.CacheReadTokens) {
				return
			}
		}
	}
}
