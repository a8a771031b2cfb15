package validation

import (
	"testing"
)

func TestValidateSessionKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"dated key with uuid", "2026-01-25-f736da47-b2ca-4f86-bb32-a1bbe582e464", false},
		{"simple key", "key-alpha", false},
		{"underscores", "key_alpha_2", false},
		{"empty", "", true},
		{"path traversal", "../../etc/passwd", true},
		{"forward slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"spaces", "key alpha", true},
		{"dot dot", "..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "f736da47-b2ca-4f86-bb32-a1bbe582e464", false},
		{"prefixed id", "sess-42", false},
		{"empty", "", true},
		{"forward slash", "sess/42", true},
		{"backslash", "sess\\42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLogScope(t *testing.T) {
	tests := []struct {
		name    string
		scope   string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"command name", "watch", false},
		{"path traversal", "../logs", true},
		{"spaces", "my scope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogScope(tt.scope)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLogScope(%q) error = %v, wantErr %v", tt.scope, err, tt.wantErr)
			}
		})
	}
}
