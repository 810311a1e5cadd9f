package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/config"
	"github.com/fakeyudi/statusline/internal/hook"
	"github.com/fakeyudi/statusline/internal/render"
	"github.com/fakeyudi/statusline/internal/status"
)

var (
	checkDir     string
	checkSession string
	checkModel   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every collector and report what each one found",
	Long: `check runs the same collectors as the status line and prints their raw
results and warnings. The session is read from stdin when it is piped,
otherwise from --dir, --session and --model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := checkSessionFrom(cmd.InOrStdin())
		if checkDir != "" {
			sess.WorkDir = checkDir
		}
		if checkSession != "" {
			sess.SessionID = checkSession
		}
		if checkModel != "" {
			sess.Model = checkModel
		}

		c := cfg
		project, err := config.LoadProject(sess.WorkDir)
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		if project != nil {
			c = effectiveConfig(globalCfg, project)
		}

		p := newPipeline(c)
		res := p.collect(cmd.Context(), sess)
		v := p.view(sess, res)
		printCheck(cmd.OutOrStdout(), p, v, res.Warnings, project != nil)
		return nil
	},
}

// checkSessionFrom reads a piped descriptor, or starts from the current
// directory when stdin is a terminal.
func checkSessionFrom(in io.Reader) status.Session {
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		wd, _ := os.Getwd()
		return status.Session{WorkDir: wd, Model: status.UnknownModel}
	}
	return status.ParseSession(in)
}

func printCheck(w io.Writer, p *pipeline, v render.View, warnings []string, hasProject bool) {
	row := func(label, format string, a ...any) {
		fmt.Fprintf(w, "  %-12s %s\n", label, fmt.Sprintf(format, a...))
	}

	fmt.Fprintln(w, "Session")
	row("model", "%s", v.Session.Model)
	row("directory", "%s", v.Session.WorkDir)
	row("session id", "%s", orNone(v.Session.SessionID))

	fmt.Fprintln(w, "Git")
	if v.Git.Branch == "" {
		row("branch", "unavailable")
	} else {
		row("branch", "%s", v.Git.Branch)
	}
	row("changes", "%d files, +%d/-%d", v.Git.ModifiedFiles, v.Git.LinesAdded, v.Git.LinesRemoved)

	fmt.Fprintln(w, "Usage window")
	if v.Usage == nil {
		row("status", "unavailable")
	} else {
		u := v.Usage
		row("tokens", "%s of %s (%d%%)", humanize.Comma(u.TotalTokens), humanize.Comma(p.cfg.PlanLimit), v.Metrics.UsagePercent)
		row("started", "%s (%s)", u.StartTime.Local().Format(time.Kitchen), humanize.Time(u.StartTime))
		row("window end", "%s (%d%% elapsed)", u.WindowEnd().Local().Format(time.Kitchen), v.Metrics.ElapsedPercent)
		if v.Metrics.HasRemaining {
			row("resets in", "%s", render.FormatRemaining(v.Metrics.Remaining))
		} else {
			row("resets in", "window expired")
		}
	}

	fmt.Fprintln(w, "Context")
	if path, err := p.transcript.TranscriptPath(v.Session.WorkDir, v.Session.SessionID); err == nil {
		if info, err := os.Stat(path); err == nil {
			row("transcript", "%s (%s)", path, humanize.Bytes(uint64(info.Size())))
		} else {
			row("transcript", "%s (missing)", path)
		}
	}
	if v.Context == nil {
		row("tokens", "unavailable")
	} else {
		row("tokens", "%s (%d%%)", humanize.Comma(v.Context.Tokens), v.Metrics.ContextPercent)
	}

	fmt.Fprintln(w, "Settings")
	if dir, err := config.Dir(); err == nil {
		row("config dir", "%s", dir)
	}
	if hasProject {
		row("project", "%s", config.ProjectFile)
	}
	row("plan limit", "%s tokens", humanize.Comma(p.cfg.PlanLimit))
	if dir, err := hook.ClaudeDir(p.cfg.ClaudeDir); err == nil {
		if command, ok := hook.IsInstalled(hook.SettingsPath(dir)); ok {
			row("installed", "%q", command)
		} else {
			row("installed", "no (run 'statusline install')")
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d)\n", len(warnings))
		for _, warning := range warnings {
			fmt.Fprintf(w, "  • %s\n", warning)
		}
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	checkCmd.Flags().StringVar(&checkDir, "dir", "", "working directory to inspect")
	checkCmd.Flags().StringVar(&checkSession, "session", "", "session id whose transcript to read")
	checkCmd.Flags().StringVar(&checkModel, "model", "", "model display name")
	rootCmd.AddCommand(checkCmd)
}
