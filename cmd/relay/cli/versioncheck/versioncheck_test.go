package versioncheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOutdated(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		latest   string
		outdated bool
	}{
		{"older patch", "v1.2.3", "v1.2.4", true},
		{"older minor", "v1.2.3", "v1.3.0", true},
		{"older major", "v1.2.3", "v2.0.0", true},
		{"equal", "v1.2.3", "v1.2.3", false},
		{"newer than latest", "v1.3.0", "v1.2.9", false},
		{"missing v prefix on current", "1.2.3", "v1.2.4", true},
		{"missing v prefix on latest", "v1.2.3", "1.2.4", true},
		{"missing v prefix on both", "1.2.3", "1.2.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outdated, isOutdated(tt.current, tt.latest))
		})
	}
}

func TestParseGitHubRelease(t *testing.T) {
	t.Run("stable release", func(t *testing.T) {
		version, err := parseGitHubRelease([]byte(`{"tag_name": "v1.4.0", "prerelease": false}`))
		require.NoError(t, err)
		assert.Equal(t, "v1.4.0", version)
	})

	t.Run("prerelease is rejected", func(t *testing.T) {
		_, err := parseGitHubRelease([]byte(`{"tag_name": "v2.0.0-rc.1", "prerelease": true}`))
		assert.Error(t, err)
	})

	t.Run("empty tag name", func(t *testing.T) {
		_, err := parseGitHubRelease([]byte(`{"prerelease": false}`))
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := parseGitHubRelease([]byte(`not json`))
		assert.Error(t, err)
	})
}
