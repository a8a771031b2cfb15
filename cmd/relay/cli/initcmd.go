package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/relaykit/relay/cmd/relay/cli/settings"
)

func newInitCmd() *cobra.Command {
	var (
		yes  bool
		dirs []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the .relay directory and default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			if len(dirs) > 0 {
				cfg.TranscriptDirs = dirs
			}

			// Ask for telemetry consent once; a recorded answer is kept.
			if cfg.Telemetry == nil && !yes {
				optIn, err := promptTelemetryConsent()
				if err != nil {
					return err
				}
				cfg.Telemetry = &optIn
			}

			if err := settings.Save(cfg); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", settings.RelaySettingsFile)
			if len(cfg.TranscriptDirs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Add transcript_dirs to settings (or use 'relay watch --dir') before watching.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept defaults without prompting (telemetry stays off)")
	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "transcript directory to record in settings (repeatable)")

	return cmd
}

// promptTelemetryConsent asks whether anonymous usage analytics may be sent.
// Aborting the prompt counts as a no.
func promptTelemetryConsent() (bool, error) {
	var optIn bool

	form := newAccessibleForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Share anonymous usage analytics?").
				Description("Only command names and flag names are recorded, never transcript content.").
				Value(&optIn),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get confirmation: %w", err)
	}
	return optIn, nil
}
