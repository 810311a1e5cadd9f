// Package hook registers statusline as the status line command in the
// host's settings file.
package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultCommand is the command written when none is given.
const DefaultCommand = "statusline"

// entry is the value stored under the "statusLine" settings key.
type entry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Padding int    `json:"padding"`
}

// ClaudeDir returns the host's config directory: override when set, else
// $CLAUDE_CONFIG_DIR, else ~/.claude.
func ClaudeDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude"), nil
}

// SettingsPath returns the settings file inside claudeDir.
func SettingsPath(claudeDir string) string {
	return filepath.Join(claudeDir, "settings.json")
}

// Install points the "statusLine" key of the settings file at command,
// keeping every other key as it was, and reports what it did to w.
func Install(path, command string, w io.Writer) error {
	if command == "" {
		command = DefaultCommand
	}
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(entry{Type: "command", Command: command})
	if err != nil {
		return err
	}
	if prev, ok := settings["statusLine"]; ok && !bytes.Equal(compact(prev), raw) {
		fmt.Fprintf(w, "\n  Replacing existing statusLine entry: %s\n", compact(prev))
	}
	settings["statusLine"] = raw

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}

	fmt.Fprintf(w, "\n  ✓ statusLine set to %q in %s\n", command, path)
	fmt.Fprintf(w, "\n  Restart any running sessions to pick it up.\n\n")
	return nil
}

// IsInstalled reports whether the settings file has a statusLine command,
// and returns that command.
func IsInstalled(path string) (string, bool) {
	settings, err := readSettings(path)
	if err != nil {
		return "", false
	}
	raw, ok := settings["statusLine"]
	if !ok {
		return "", false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Command == "" {
		return "", false
	}
	return e.Command, true
}

// readSettings loads the settings object. A missing or empty file is an
// empty object.
func readSettings(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	settings := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("settings file %s is not a JSON object: %w", path, err)
	}
	if settings == nil {
		settings = map[string]json.RawMessage{}
	}
	return settings, nil
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// writeAtomic replaces path via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
