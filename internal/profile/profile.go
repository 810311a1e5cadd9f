// Package profile manages the user's persistent statusline profile.
// The profile is stored next to the global config and is created via the
// interactive setup flow. It fills settings the config files leave unset.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fakeyudi/statusline/internal/config"
)

// Profile holds user-level preferences set during setup.
type Profile struct {
	PlanLimit     int64  `json:"plan_limit"`     // tokens per 5-hour window
	DefaultFormat string `json:"default_format"` // "ansi" | "json"
	UsageCommand  string `json:"usage_command"`  // empty means auto-detect
	NoColor       bool   `json:"no_color"`
}

// Path returns the path to the profile file.
func Path() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. The error wraps os.ErrNotExist when
// setup has not been run.
func Load() (*Profile, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'statusline setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Apply copies profile values into cfg wherever the config files left the
// default in place.
func (p *Profile) Apply(cfg *config.Config) {
	if p == nil {
		return
	}
	d := config.Defaults()
	if p.PlanLimit > 0 && cfg.PlanLimit == d.PlanLimit {
		cfg.PlanLimit = p.PlanLimit
	}
	if p.DefaultFormat != "" && cfg.DefaultFormat == d.DefaultFormat {
		cfg.DefaultFormat = p.DefaultFormat
	}
	if fields := strings.Fields(p.UsageCommand); len(fields) > 0 && len(cfg.UsageCommands) == 0 {
		cfg.UsageCommands = [][]string{fields}
	}
	if p.NoColor {
		cfg.NoColor = true
	}
}

// RunSetup runs the interactive setup wizard, reading answers from in and
// writing prompts to out. If existing is non-nil, its values are the
// defaults for each prompt (edit mode).
func RunSetup(in io.Reader, out io.Writer, existing *Profile) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.ToLower(ans) == "y" || strings.ToLower(ans) == "yes", nil
	}

	prof := &Profile{
		PlanLimit:     config.Defaults().PlanLimit,
		DefaultFormat: "ansi",
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │      statusline profile         │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	for {
		limit, err := ask("  Tokens per 5-hour window", strconv.FormatInt(prof.PlanLimit, 10))
		if err != nil {
			return nil, err
		}
		n, perr := strconv.ParseInt(strings.ReplaceAll(limit, "_", ""), 10, 64)
		if perr == nil && n > 0 {
			prof.PlanLimit = n
			break
		}
		fmt.Fprintf(out, "  %q is not a positive token count\n", limit)
	}

	format, err := ask("  Default output format (ansi/json)", prof.DefaultFormat)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		prof.DefaultFormat = "json"
	} else {
		prof.DefaultFormat = "ansi"
	}

	auto := prof.UsageCommand == ""
	auto, err = askBool("  Auto-detect the ccusage command", auto)
	if err != nil {
		return nil, err
	}
	if auto {
		prof.UsageCommand = ""
	} else {
		prof.UsageCommand, err = ask("  Usage command", prof.UsageCommand)
		if err != nil {
			return nil, err
		}
	}

	color, err := askBool("  Colored output", !prof.NoColor)
	if err != nil {
		return nil, err
	}
	prof.NoColor = !color

	fmt.Fprintln(out)
	return prof, nil
}
