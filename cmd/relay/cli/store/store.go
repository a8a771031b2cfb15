// Package store persists the session registry Relay resolves against.
//
// Each registered session is one JSON file named <session-key>.json under the
// store directory. The session key is the externally addressable handle; the
// record inside carries the agent's session identifier plus bookkeeping
// fields. The bridge only ever reads snapshots; writes happen through the
// sessions CLI commands.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/relaykit/relay/cmd/relay/cli/jsonutil"
	"github.com/relaykit/relay/cmd/relay/cli/paths"
	"github.com/relaykit/relay/cmd/relay/cli/validation"
)

// sessionsDirName is the directory name for session records within the Relay data dir.
const sessionsDirName = "sessions"

// Record is the stored registration for one session.
type Record struct {
	// SessionID is the identifier the agent wrote into its transcript.
	// Expected to be unique across the store; duplicate identifiers resolve
	// to whichever key is scanned first.
	SessionID string `json:"session_id"`

	// AgentType identifies the agent that produced the transcript
	// (e.g. "claude-code", "gemini-cli").
	AgentType string `json:"agent_type,omitempty"`

	// TranscriptPath is the transcript file the session was registered from,
	// when known.
	TranscriptPath string `json:"transcript_path,omitempty"`

	// RegisteredAt is when the session was registered.
	RegisteredAt time.Time `json:"registered_at"`
}

// Store provides operations on the session registry directory.
type Store struct {
	dir string
}

// Open returns a store rooted at the default directory:
// <repo-root>/.relay/sessions, or ~/.relay/sessions outside a repository.
func Open() (*Store, error) {
	dataDir, err := paths.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	return &Store{dir: filepath.Join(dataDir, sessionsDirName)}, nil
}

// OpenDir returns a store rooted at a custom directory. Used by tests and by
// the store_dir settings override.
func OpenDir(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads the record registered under the given session key.
// Returns (nil, nil) when no record exists (not an error condition).
func (s *Store) Load(ctx context.Context, sessionKey string) (*Record, error) {
	_ = ctx // Reserved for future use

	if err := validation.ValidateSessionKey(sessionKey); err != nil {
		return nil, fmt.Errorf("invalid session key: %w", err)
	}

	data, err := os.ReadFile(s.recordPath(sessionKey)) //nolint:gosec // key validated above
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // nil,nil indicates not registered (expected case)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing session record: %w", err)
	}
	return &rec, nil
}

// Save writes the record for a session key atomically.
func (s *Store) Save(ctx context.Context, sessionKey string, rec *Record) error {
	_ = ctx // Reserved for future use

	if err := validation.ValidateSessionKey(sessionKey); err != nil {
		return fmt.Errorf("invalid session key: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating session store directory: %w", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}

	recordFile := s.recordPath(sessionKey)

	// Atomic write: write to temp file, then rename
	tmpFile := recordFile + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}
	if err := os.Rename(tmpFile, recordFile); err != nil {
		return fmt.Errorf("renaming session record: %w", err)
	}
	return nil
}

// Remove deletes the record for a session key. Removing a key that is not
// registered is not an error.
func (s *Store) Remove(ctx context.Context, sessionKey string) error {
	_ = ctx // Reserved for future use

	if err := validation.ValidateSessionKey(sessionKey); err != nil {
		return fmt.Errorf("invalid session key: %w", err)
	}

	if err := os.Remove(s.recordPath(sessionKey)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("removing session record: %w", err)
	}
	return nil
}

// Snapshot returns the current contents of the store as a session-key to
// record mapping. Corrupted record files are skipped rather than failing the
// whole snapshot. An absent store directory yields an empty snapshot.
func (s *Store) Snapshot(ctx context.Context) (map[string]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session store directory: %w", err)
	}

	snapshot := make(map[string]Record, len(entries))
	for _, entry := range entries {
		// Temp files from in-flight saves end in .json.tmp and fail the
		// suffix check along with everything else that is not a record.
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		sessionKey := strings.TrimSuffix(entry.Name(), ".json")
		rec, err := s.Load(ctx, sessionKey)
		if err != nil {
			continue // Skip corrupted record files
		}
		if rec == nil {
			continue
		}
		snapshot[sessionKey] = *rec
	}
	return snapshot, nil
}

// recordPath returns the path to a session record file.
func (s *Store) recordPath(sessionKey string) string {
	return filepath.Join(s.dir, sessionKey+".json")
}

// KeyForSessionID scans a snapshot for the key registered with the given
// session identifier. Identifiers are compared whitespace-trimmed. The store
// is assumed to hold each identifier under at most one key; if that
// assumption is violated, whichever key the iteration reaches first wins.
func KeyForSessionID(snapshot map[string]Record, sessionID string) (string, bool) {
	want := strings.TrimSpace(sessionID)
	for sessionKey, rec := range snapshot {
		if strings.TrimSpace(rec.SessionID) == want {
			return sessionKey, true
		}
	}
	return "", false
}
