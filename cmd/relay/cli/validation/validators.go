// Package validation provides input validation functions for the Relay CLI.
// This package has no dependencies to avoid import cycles.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// pathSafeRegex matches alphanumeric characters, underscores, and hyphens only.
// Used to validate identifiers that will be used in file paths.
var pathSafeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionKey validates that a session key contains only safe characters
// for paths. Session keys name files in the session store, so anything that
// could traverse directories is rejected.
func ValidateSessionKey(key string) error {
	if key == "" {
		return errors.New("session key cannot be empty")
	}
	if !pathSafeRegex.MatchString(key) {
		return fmt.Errorf("invalid session key %q: must be alphanumeric with underscores/hyphens only", key)
	}
	return nil
}

// ValidateSessionID validates that a session identifier doesn't contain path
// separators. Session identifiers come from transcript files written by
// external agents and are used in log file paths and run identifiers.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("invalid session ID %q: contains path separators", id)
	}
	return nil
}

// ValidateLogScope validates a name used for a log file. Empty is allowed
// (the logger falls back to a default scope).
func ValidateLogScope(scope string) error {
	if scope == "" {
		return nil
	}
	if !pathSafeRegex.MatchString(scope) {
		return fmt.Errorf("invalid log scope %q: must be alphanumeric with underscores/hyphens only", scope)
	}
	return nil
}
