// Package cli wires the command-line interface around the email
// classification pipeline.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/jobtracker/internal/model"
)

var (
	configPath string
	verbose    bool
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobtracker",
		Short: "Classify recent job application emails",
		Long: `jobtracker fetches recent messages from an IMAP mailbox, classifies
each one as Positive, Negative, Neutral, or Follow-up using a hosted
language model (with deterministic keyword rules as fallback), and
prints per-category counts alongside the classified messages.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	cmd.PersistentFlags().StringVar(
		&configPath, "config", model.DefaultConfigPath(),
		"path to the configuration file",
	)
	cmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false,
		"enable debug logging",
	)

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newCredentialsCommand())

	return cmd
}

// Execute runs the CLI, exiting non-zero on error.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
