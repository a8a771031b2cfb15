package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaykit/relay/cmd/relay/cli/settings"
	"github.com/relaykit/relay/cmd/relay/cli/store"
	"github.com/relaykit/relay/cmd/relay/cli/transcript"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <transcript-file>",
		Short: "Resolve a transcript file to its registered session key",
		Long: `Reads the session record from the start of a transcript file and looks up
the session key it is registered under in the session store. Useful for
checking why a transcript does or does not produce chat events.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]

			sessionID, ok := transcript.SessionID(file)
			if !ok {
				return fmt.Errorf("no session record found in %s", file)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session ID:  %s\n", sessionID)

			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			sessions, err := openStore(cfg)
			if err != nil {
				return err
			}

			snapshot, err := sessions.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading session store: %w", err)
			}

			sessionKey, ok := store.KeyForSessionID(snapshot, sessionID)
			if !ok {
				return fmt.Errorf("session %s is not registered in %s", sessionID, sessions.Dir())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session key: %s\n", sessionKey)
			return nil
		},
	}
}
