package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/config"
	"github.com/fakeyudi/statusline/internal/profile"
	"github.com/fakeyudi/statusline/internal/status"
)

// cfg holds the merged global configuration, populated in PersistentPreRunE.
// Project settings are layered on once the session directory is known.
var cfg config.Config

// globalCfg is the global layer kept for re-merging with a project file.
var globalCfg *config.Config

// activeProfile holds the loaded user profile, if any.
var activeProfile *profile.Profile

// logger writes debug output to stderr; it discards everything unless
// --verbose or STATUSLINE_DEBUG=1.
var logger = slog.New(slog.DiscardHandler)

var (
	formatFlag    string
	noColorFlag   bool
	verboseFlag   bool
	planLimitFlag int64
)

var rootCmd = &cobra.Command{
	Use:   "statusline",
	Short: "Render a two-line session status line from a JSON descriptor on stdin",
	Long: `statusline reads the session descriptor the host pipes to its status line
command and prints the model, working directory and git state on line one,
and the 5-hour usage window and context-window fill on line two.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr())

		// The default action reports load errors and renders with defaults.
		tolerant := cmd == rootCmd

		if profile.Exists() {
			p, err := profile.Load()
			if err != nil && !tolerant {
				return fmt.Errorf("loading profile: %w", err)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "statusline: %v (ignoring profile)\n", err)
			}
			activeProfile = p
		}

		global, err := config.LoadGlobal()
		if err != nil {
			if !tolerant {
				return fmt.Errorf("loading global config: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "statusline: %v (using defaults)\n", err)
			global = nil
		}
		globalCfg = global
		cfg = effectiveConfig(global, nil)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(f.Fd()) {
			return cmd.Help()
		}

		sess := status.ParseSession(cmd.InOrStdin())
		logger.Debug("session", "model", sess.Model, "dir", sess.WorkDir, "session_id", sess.SessionID)

		c := cfg
		if sess.WorkDir != "" {
			project, err := config.LoadProject(sess.WorkDir)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "statusline: %v (ignoring project config)\n", err)
			} else if project != nil {
				c = effectiveConfig(globalCfg, project)
			}
		}

		p := newPipeline(c)
		view := p.run(cmd.Context(), sess)

		r, err := p.renderer(formatFlag, noColorFlag)
		if err != nil {
			logger.Warn("falling back to ansi output", "err", err)
			r, _ = p.renderer("ansi", noColorFlag)
		}
		out, err := r.Render(view)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// effectiveConfig merges the config layers, fills gaps from the profile and
// applies command-line overrides.
func effectiveConfig(global, project *config.Config) config.Config {
	c := config.Merge(global, project)
	activeProfile.Apply(&c)
	if planLimitFlag > 0 {
		c.PlanLimit = planLimitFlag
	}
	return c
}

func newLogger(w io.Writer) *slog.Logger {
	if !verboseFlag && os.Getenv("STATUSLINE_DEBUG") != "1" {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var pe *config.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintf(os.Stderr, "fix or remove %s and retry\n", pe.Path)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log collector diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable ANSI colours")
	rootCmd.PersistentFlags().Int64Var(&planLimitFlag, "plan-limit", 0, "tokens allowed per 5-hour window (overrides config)")
	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "output format: ansi or json (default from config)")
}
