package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/hook"
)

var (
	installCommand   string
	installClaudeDir string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register statusline as the status line command in the host settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		override := installClaudeDir
		if override == "" {
			override = cfg.ClaudeDir
		}
		dir, err := hook.ClaudeDir(override)
		if err != nil {
			return err
		}
		return hook.Install(hook.SettingsPath(dir), installCommand, cmd.OutOrStdout())
	},
}

func init() {
	installCmd.Flags().StringVar(&installCommand, "command", hook.DefaultCommand, "command the host should run")
	installCmd.Flags().StringVar(&installClaudeDir, "claude-dir", "", "host config directory (default ~/.claude)")
	rootCmd.AddCommand(installCmd)
}
