package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/collector"
	"github.com/fakeyudi/statusline/internal/config"
	"github.com/fakeyudi/statusline/internal/status"
	"github.com/fakeyudi/statusline/internal/tui"
)

var (
	watchDir      string
	watchSession  string
	watchModel    string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Preview the status line live, refreshing as the session progresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := status.Session{WorkDir: watchDir, SessionID: watchSession, Model: watchModel}
		if sess.WorkDir == "" {
			sess.WorkDir, _ = os.Getwd()
		}
		if sess.Model == "" {
			sess.Model = status.UnknownModel
		}

		c := cfg
		if project, err := config.LoadProject(sess.WorkDir); err != nil {
			return err
		} else if project != nil {
			c = effectiveConfig(globalCfg, project)
		}
		p := newPipeline(c)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		opts := tui.Options{
			Title:    "statusline watch  " + sess.WorkDir,
			Interval: watchInterval,
			Refresh:  refreshFunc(p, sess),
		}
		if sess.SessionID != "" {
			if path, err := p.transcript.TranscriptPath(sess.WorkDir, sess.SessionID); err == nil {
				changes := make(chan struct{}, 1)
				go func() {
					if err := collector.Watch(ctx, path, changes); err != nil {
						logger.Debug("transcript watch stopped", "path", path, "err", err)
					}
				}()
				opts.Changes = changes
			}
		}

		return tui.Run(ctx, opts)
	},
}

// refreshFunc runs the pipeline once per call and renders it as the host
// would show it.
func refreshFunc(p *pipeline, sess status.Session) tui.RefreshFunc {
	r := p.ansi(noColorFlag)
	return func(ctx context.Context) tui.Frame {
		res := p.collect(ctx, sess)
		return tui.Frame{
			Lines:    r.Lines(p.view(sess, res)),
			Warnings: res.Warnings,
			At:       clock(),
		}
	}
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "working directory (default: current directory)")
	watchCmd.Flags().StringVar(&watchSession, "session", "", "session id; enables refresh on transcript writes")
	watchCmd.Flags().StringVar(&watchModel, "model", "", "model display name")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "periodic refresh interval (0 disables)")
	rootCmd.AddCommand(watchCmd)
}
