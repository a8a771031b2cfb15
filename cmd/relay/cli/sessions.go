package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaykit/relay/cmd/relay/cli/sessionkey"
	"github.com/relaykit/relay/cmd/relay/cli/settings"
	"github.com/relaykit/relay/cmd/relay/cli/store"
	"github.com/relaykit/relay/cmd/relay/cli/transcript"
	"github.com/relaykit/relay/cmd/relay/cli/validation"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage the session store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsRegisterCmd())
	cmd.AddCommand(newSessionsRemoveCmd())

	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			if len(snapshot) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions registered.")
				return nil
			}

			keys := make([]string, 0, len(snapshot))
			for k := range snapshot {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, key := range keys {
				rec := snapshot[key]
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tsession=%s\tagent=%s\tregistered=%s\n",
					key, rec.SessionID, orDash(rec.AgentType),
					rec.RegisteredAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newSessionsRegisterCmd() *cobra.Command {
	var (
		key            string
		agentType      string
		transcriptPath string
	)

	cmd := &cobra.Command{
		Use:   "register <session-id>",
		Short: "Register a session identifier under a session key",
		Long: `Registers a session in the store so transcript updates carrying the given
session identifier resolve to a key. With --transcript, the session
identifier argument may be omitted and is read from the transcript header
instead. Without --key, a dated key is minted from the identifier.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sessionID string
			if len(args) == 1 {
				sessionID = args[0]
			}

			if sessionID == "" {
				if transcriptPath == "" {
					return fmt.Errorf("a session identifier or --transcript is required")
				}
				id, ok := transcript.SessionID(transcriptPath)
				if !ok {
					return fmt.Errorf("no session record found in %s", transcriptPath)
				}
				sessionID = id
			}

			// The identifier comes from the command line or an agent-written
			// transcript; reject anything that could traverse directories
			// before it lands in a key or a log path.
			if err := validation.ValidateSessionID(sessionID); err != nil {
				return fmt.Errorf("invalid session identifier: %w", err)
			}

			sessionKey := key
			if sessionKey == "" {
				sessionKey = sessionkey.Mint(sessionID)
			}

			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			sessions, err := openStore(cfg)
			if err != nil {
				return err
			}

			rec := &store.Record{
				SessionID:      sessionID,
				AgentType:      agentType,
				TranscriptPath: transcriptPath,
				RegisteredAt:   time.Now(),
			}
			if err := sessions.Save(cmd.Context(), sessionKey, rec); err != nil {
				return fmt.Errorf("registering session: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s under key %s\n", sessionID, sessionKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "session key to register under (default: minted from the identifier)")
	cmd.Flags().StringVar(&agentType, "agent", "", "agent type that owns the session (e.g. claude-code)")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "transcript file to read the session identifier from")

	return cmd
}

func newSessionsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <session-key>",
		Short: "Remove a registered session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			sessions, err := openStore(cfg)
			if err != nil {
				return err
			}

			if err := sessions.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("removing session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
