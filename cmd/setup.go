package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/profile"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure your plan limit and defaults (re-run anytime to edit)",
	// Bypass the normal PersistentPreRunE so a broken profile can be rewritten.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// runSetup runs the interactive wizard and saves the profile.
func runSetup(in io.Reader, out io.Writer) error {
	// Load existing profile as defaults if present.
	var existing *profile.Profile
	if profile.Exists() {
		p, err := profile.Load()
		if err == nil {
			existing = p
		}
	}

	prof, err := profile.RunSetup(in, out, existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	path, _ := profile.Path()
	fmt.Fprintf(out, "  ✓ Profile saved to %s\n", path)
	fmt.Fprintln(out, "  Run 'statusline install' to register the status line command.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
