// Package cli implements the relay command line interface.
package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/relaykit/relay/cmd/relay/cli/logging"
	"github.com/relaykit/relay/cmd/relay/cli/settings"
	"github.com/relaykit/relay/cmd/relay/cli/telemetry"
	"github.com/relaykit/relay/cmd/relay/cli/versioncheck"
)

const gettingStarted = `

Getting Started:
  Run 'relay init' to create the .relay directory, then 'relay watch'
  to start relaying transcript updates as chat events.

`

const accessibilityHelp = `
Environment Variables:
  ACCESSIBLE    Set to any value (e.g., ACCESSIBLE=1) to enable accessibility
                mode. This uses simpler text prompts instead of interactive
                TUI elements, which works better with screen readers.
`

// Version information (can be set at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay transcript updates as chat events",
		Long:  "Watches agent session transcripts and re-publishes their updates as chat events" + gettingStarted + accessibilityHelp,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		// Hide completion command from help but keep it functional
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetLogLevelGetter(func() string {
				s, err := settings.Load()
				if err != nil {
					return ""
				}
				return s.LogLevel
			})
			_ = logging.Init(cmd.Name())
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			defer logging.Close()

			// Load telemetry preference from settings (nil defaults to disabled)
			var telemetryEnabled *bool
			enabled := true
			if s, err := settings.Load(); err == nil {
				telemetryEnabled = s.Telemetry
				enabled = s.Enabled
			}

			telemetryClient := telemetry.NewClient(Version, telemetryEnabled)
			defer telemetryClient.Close()
			telemetryClient.TrackCommand(cmd, enabled)

			versioncheck.CheckAndNotify(cmd, Version)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("Relay %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// newAccessibleForm wraps huh.NewForm, switching to plain text prompts when
// the ACCESSIBLE environment variable is set.
func newAccessibleForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...)
	if os.Getenv("ACCESSIBLE") != "" {
		form = form.WithAccessible(true)
	}
	return form
}
