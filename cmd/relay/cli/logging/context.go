package logging

import (
	"context"
)

// Context keys for logging values.
// Using private types to avoid key collisions.
type contextKey int

const (
	sessionKeyKey contextKey = iota
	componentKey
)

// WithSessionKey adds a resolved session key to the context.
func WithSessionKey(ctx context.Context, sessionKey string) context.Context {
	return context.WithValue(ctx, sessionKeyKey, sessionKey)
}

// WithComponent adds a component name to the context.
// Component names identify the subsystem generating logs (e.g., "bridge", "watcher", "store").
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// SessionKeyFromContext extracts the session key from the context.
// Returns empty string if not set.
func SessionKeyFromContext(ctx context.Context) string {
	if v := ctx.Value(sessionKeyKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ComponentFromContext extracts the component name from the context.
// Returns empty string if not set.
func ComponentFromContext(ctx context.Context) string {
	if v := ctx.Value(componentKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
