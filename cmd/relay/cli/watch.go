package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/relaykit/relay/cmd/relay/cli/bridge"
	"github.com/relaykit/relay/cmd/relay/cli/broadcast"
	"github.com/relaykit/relay/cmd/relay/cli/logging"
	"github.com/relaykit/relay/cmd/relay/cli/paths"
	"github.com/relaykit/relay/cmd/relay/cli/settings"
	"github.com/relaykit/relay/cmd/relay/cli/store"
	"github.com/relaykit/relay/cmd/relay/cli/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		dirs    []string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Relay transcript updates as chat events until interrupted",
		Long: `Watches the configured transcript directories, resolves each updated
transcript to its registered session key, and prints one chat event per
update. Events are also delivered to any other subscribed consumer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			if !cfg.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Relay is disabled in .relay/settings.json")
				return nil
			}

			watchDirs := dirs
			if len(watchDirs) == 0 {
				watchDirs = cfg.TranscriptDirs
			}
			if len(watchDirs) == 0 {
				return fmt.Errorf("no transcript directories configured; set transcript_dirs in %s or pass --dir", settings.RelaySettingsFile)
			}
			for i, d := range watchDirs {
				abs, err := paths.AbsPath(d)
				if err != nil {
					return fmt.Errorf("resolving transcript directory %q: %w", d, err)
				}
				watchDirs[i] = abs
			}

			sessions, err := openStore(cfg)
			if err != nil {
				return err
			}

			sink := broadcast.New()
			defer sink.Close()

			br, err := bridge.New(bridge.Config{
				Store: sessions,
				Sink:  sink,
				TTL:   cfg.CacheTTL(),
			})
			if err != nil {
				return err
			}

			w, err := watcher.New(watchDirs)
			if err != nil {
				return err
			}
			defer w.Close()

			br.Attach(w)
			defer br.Close()

			events, cancel := sink.Subscribe()
			defer cancel()

			ctx := cmd.Context()
			logging.Info(ctx, "relay watching", "dirs", watchDirs, "store", sessions.Dir())
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d directories, store %s. Ctrl-C to stop.\n",
				len(watchDirs), sessions.Dir())

			pretty := !jsonOut && isStdoutTerminal()
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-events:
					if !ok {
						return nil
					}
					printEvent(cmd, event, pretty)
				}
			}
		},
	}

	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "transcript directory to watch (repeatable; overrides settings)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "always print events as JSON lines")

	return cmd
}

// openStore opens the session store, honoring the store_dir settings override.
func openStore(cfg *settings.RelaySettings) (*store.Store, error) {
	if cfg.StoreDir != "" {
		abs, err := paths.AbsPath(cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("resolving store directory: %w", err)
		}
		return store.OpenDir(abs), nil
	}
	s, err := store.Open()
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return s, nil
}

// printEvent writes one event to stdout: a human line on a terminal, a JSON
// line otherwise.
func printEvent(cmd *cobra.Command, event broadcast.Event, pretty bool) {
	if pretty {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  session=%s  run=%s\n",
			event.Name, event.Payload.SessionKey, event.Payload.RunID)
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}

// isStdoutTerminal reports whether stdout is attached to a terminal.
func isStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
