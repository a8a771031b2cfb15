// Package transcript reads the session header from agent transcript files.
//
// Transcripts are append-only JSONL streams written by external agents. The
// only record this package consumes is the session record, which the agent
// writes as the first meaningful line of the file. Transcripts may grow
// arbitrarily large, so only a bounded prefix is ever read.
package transcript

import (
	"encoding/json"
	"io"
	"os"
	"strings"
)

// HeaderPrefixSize is how much of a transcript file is inspected for the
// session record. The record is always written first, so anything past this
// prefix is never needed.
const HeaderPrefixSize = 8192

// RecordTypeSession is the record kind that carries the session identifier.
const RecordTypeSession = "session"

// headerLine is the subset of a transcript line consulted while scanning
// for the session record.
type headerLine struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// SessionID extracts the session identifier recorded at the start of the
// transcript file at path.
//
// Returns ("", false) when no session record is present in the inspected
// prefix, including every failure mode: the file cannot be opened or read, a
// line fails to parse, or the file is empty. These are expected races with
// the transcript's writer and are control flow, not errors; a later update
// notification retries the read from scratch.
func SessionID(path string) (string, bool) {
	f, err := os.Open(path) //nolint:gosec // path comes from the transcript watcher
	if err != nil {
		return "", false
	}
	defer f.Close()

	buf := make([]byte, HeaderPrefixSize)
	n, _ := io.ReadFull(f, buf)
	if n == 0 {
		return "", false
	}

	return sessionIDFromPrefix(buf[:n])
}

// sessionIDFromPrefix scans a transcript prefix for the first session record
// with a non-blank identifier. A malformed line aborts the scan: a torn write
// near the top of the file means the prefix cannot be trusted yet.
func sessionIDFromPrefix(prefix []byte) (string, bool) {
	for _, raw := range strings.Split(string(prefix), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var rec headerLine
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return "", false
		}
		if rec.Type == RecordTypeSession && strings.TrimSpace(rec.ID) != "" {
			return rec.ID, true
		}
	}
	return "", false
}
