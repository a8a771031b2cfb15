// Package settings provides configuration loading for Relay.
// This package is separate from cli so subsystem packages can import it
// without creating an import cycle.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relaykit/relay/cmd/relay/cli/jsonutil"
	"github.com/relaykit/relay/cmd/relay/cli/paths"
)

const (
	// RelaySettingsFile is the path to the Relay settings file
	RelaySettingsFile = ".relay/settings.json"
	// RelaySettingsLocalFile is the path to the local settings override file (not committed)
	RelaySettingsLocalFile = ".relay/settings.local.json"
)

// DefaultCacheTTLMinutes is the resolution cache TTL when none is configured.
const DefaultCacheTTLMinutes = 10

// RelaySettings represents the .relay/settings.json configuration
type RelaySettings struct {
	// Enabled indicates whether Relay is active. When false, the watch
	// command exits immediately with a disabled message. Defaults to true.
	Enabled bool `json:"enabled"`

	// TranscriptDirs are the directories watched for transcript updates.
	// Relative paths resolve against the repository root.
	TranscriptDirs []string `json:"transcript_dirs,omitempty"`

	// StoreDir overrides the session store directory.
	// Defaults to .relay/sessions under the repository root.
	StoreDir string `json:"store_dir,omitempty"`

	// CacheTTLMinutes bounds how long transcript resolutions are cached.
	// Defaults to 10.
	CacheTTLMinutes int `json:"cache_ttl_minutes,omitempty"`

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	// Can be overridden by RELAY_LOG_LEVEL environment variable.
	// Defaults to "info".
	LogLevel string `json:"log_level,omitempty"`

	// Telemetry controls anonymous usage analytics.
	// nil = not asked yet (show prompt), true = opted in, false = opted out
	Telemetry *bool `json:"telemetry,omitempty"`
}

// Load loads the Relay settings from .relay/settings.json,
// then applies any overrides from .relay/settings.local.json if it exists.
// Returns default settings if neither file exists.
// Works correctly from any subdirectory within the repository.
func Load() (*RelaySettings, error) {
	settingsFileAbs, err := paths.AbsPath(RelaySettingsFile)
	if err != nil {
		settingsFileAbs = RelaySettingsFile // Fallback to relative
	}
	localSettingsFileAbs, err := paths.AbsPath(RelaySettingsLocalFile)
	if err != nil {
		localSettingsFileAbs = RelaySettingsLocalFile // Fallback to relative
	}

	// Load base settings
	settings, err := loadFromFile(settingsFileAbs)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	// Apply local overrides if they exist
	localData, err := os.ReadFile(localSettingsFileAbs) //nolint:gosec // path is from AbsPath or constant
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading local settings file: %w", err)
		}
		// Local file doesn't exist, continue without overrides
	} else {
		if err := mergeJSON(settings, localData); err != nil {
			return nil, fmt.Errorf("merging local settings: %w", err)
		}
	}

	applyDefaults(settings)

	return settings, nil
}

// Save writes settings to .relay/settings.json, creating the directory if
// needed.
func Save(settings *RelaySettings) error {
	settingsFileAbs, err := paths.AbsPath(RelaySettingsFile)
	if err != nil {
		settingsFileAbs = RelaySettingsFile
	}

	if err := os.MkdirAll(filepath.Dir(settingsFileAbs), 0o750); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	if err := os.WriteFile(settingsFileAbs, data, 0o600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

// CacheTTL returns the configured cache TTL as a duration.
func (s *RelaySettings) CacheTTL() time.Duration {
	minutes := s.CacheTTLMinutes
	if minutes <= 0 {
		minutes = DefaultCacheTTLMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// loadFromFile loads settings from a specific file path.
// Returns default settings if the file doesn't exist.
func loadFromFile(filePath string) (*RelaySettings, error) {
	settings := &RelaySettings{
		Enabled: true, // Default to enabled
	}

	data, err := os.ReadFile(filePath) //nolint:gosec // path is from caller
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(settings)
			return settings, nil
		}
		return nil, fmt.Errorf("%w", err)
	}

	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	applyDefaults(settings)

	return settings, nil
}

// mergeJSON merges JSON data into existing settings.
// Only fields present in the JSON override existing settings.
func mergeJSON(settings *RelaySettings, data []byte) error {
	// Parse into a map to check which fields are present
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	if enabledRaw, ok := raw["enabled"]; ok {
		var e bool
		if err := json.Unmarshal(enabledRaw, &e); err != nil {
			return fmt.Errorf("parsing enabled field: %w", err)
		}
		settings.Enabled = e
	}

	if dirsRaw, ok := raw["transcript_dirs"]; ok {
		var dirs []string
		if err := json.Unmarshal(dirsRaw, &dirs); err != nil {
			return fmt.Errorf("parsing transcript_dirs field: %w", err)
		}
		if len(dirs) > 0 {
			settings.TranscriptDirs = dirs
		}
	}

	if storeDirRaw, ok := raw["store_dir"]; ok {
		var d string
		if err := json.Unmarshal(storeDirRaw, &d); err != nil {
			return fmt.Errorf("parsing store_dir field: %w", err)
		}
		if d != "" {
			settings.StoreDir = d
		}
	}

	if ttlRaw, ok := raw["cache_ttl_minutes"]; ok {
		var ttl int
		if err := json.Unmarshal(ttlRaw, &ttl); err != nil {
			return fmt.Errorf("parsing cache_ttl_minutes field: %w", err)
		}
		if ttl > 0 {
			settings.CacheTTLMinutes = ttl
		}
	}

	if logLevelRaw, ok := raw["log_level"]; ok {
		var ll string
		if err := json.Unmarshal(logLevelRaw, &ll); err != nil {
			return fmt.Errorf("parsing log_level field: %w", err)
		}
		if ll != "" {
			settings.LogLevel = ll
		}
	}

	if telemetryRaw, ok := raw["telemetry"]; ok {
		var t bool
		if err := json.Unmarshal(telemetryRaw, &t); err != nil {
			return fmt.Errorf("parsing telemetry field: %w", err)
		}
		settings.Telemetry = &t
	}

	return nil
}

func applyDefaults(settings *RelaySettings) {
	if settings.CacheTTLMinutes <= 0 {
		settings.CacheTTLMinutes = DefaultCacheTTLMinutes
	}
}
