package collector

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// TranscriptPath returns the transcript path for a session if one exists
// on disk, else the preferred location. Unsafe session ids are an error.
func (t *TranscriptReader) TranscriptPath(workDir, sessionID string) (string, error) {
	candidates, err := t.candidates(workDir, sessionID)
	if err != nil {
		return "", err
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return candidates[0], nil
}

// Watch sends on changed whenever the file at path is written or created,
// until ctx is cancelled. The parent directory is watched so a transcript
// that does not exist yet is picked up once it appears; the directory
// itself must exist.
func Watch(ctx context.Context, path string, changed chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				// Coalesce: one pending notification is enough.
				select {
				case changed <- struct{}{}:
				default:
				}
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}
