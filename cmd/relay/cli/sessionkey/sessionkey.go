// Package sessionkey provides session key formatting and transformation
// functions. This package has minimal dependencies to avoid import cycles.
package sessionkey

import (
	"time"
)

// Mint generates the session key for an agent session identifier.
// The format is: YYYY-MM-DD-<agent-session-id>
func Mint(agentSessionID string) string {
	return time.Now().Format("2006-01-02") + "-" + agentSessionID
}

// AgentSessionID extracts the agent session identifier from a session key.
// The session key format is: YYYY-MM-DD-<agent-session-id>
// Returns the original string if it doesn't match the expected format.
func AgentSessionID(sessionKey string) string {
	// Expected format: YYYY-MM-DD-<agent-id> (11 chars prefix: "2026-08-31-")
	if len(sessionKey) > 11 && sessionKey[4] == '-' && sessionKey[7] == '-' && sessionKey[10] == '-' {
		return sessionKey[11:]
	}
	// Return as-is if not in expected format
	return sessionKey
}
