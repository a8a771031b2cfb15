package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSessionID(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantID  string
		wantOK  bool
	}{
		{
			name:    "session record on first line",
			content: `{"type":"session","id":"sess-42"}` + "\n" + `{"type":"user","message":{}}` + "\n",
			wantID:  "sess-42",
			wantOK:  true,
		},
		{
			name:    "session record after other record kinds",
			content: `{"type":"meta","id":"ignored"}` + "\n" + `{"type":"session","id":"sess-7"}` + "\n",
			wantID:  "sess-7",
			wantOK:  true,
		},
		{
			name:    "blank lines are skipped",
			content: "\n\n" + `{"type":"session","id":"sess-1"}` + "\n",
			wantID:  "sess-1",
			wantOK:  true,
		},
		{
			name:    "first session record wins",
			content: `{"type":"session","id":"sess-a"}` + "\n" + `{"type":"session","id":"sess-b"}` + "\n",
			wantID:  "sess-a",
			wantOK:  true,
		},
		{
			name:    "empty file",
			content: "",
			wantOK:  false,
		},
		{
			name:    "no session record",
			content: `{"type":"user","message":{}}` + "\n" + `{"type":"assistant","message":{}}` + "\n",
			wantOK:  false,
		},
		{
			name:    "malformed first line aborts the scan",
			content: "not valid json\n" + `{"type":"session","id":"sess-42"}` + "\n",
			wantOK:  false,
		},
		{
			name:    "session record before malformed line still resolves",
			content: `{"type":"session","id":"sess-42"}` + "\n" + "garbage\n",
			wantID:  "sess-42",
			wantOK:  true,
		},
		{
			name:    "blank identifier does not qualify",
			content: `{"type":"session","id":"   "}` + "\n",
			wantOK:  false,
		},
		{
			name:    "missing identifier field does not qualify",
			content: `{"type":"session"}` + "\n",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTranscript(t, tt.content)
			id, ok := SessionID(path)
			if ok != tt.wantOK {
				t.Fatalf("SessionID() ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("SessionID() = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestSessionID_MissingFile(t *testing.T) {
	if _, ok := SessionID(filepath.Join(t.TempDir(), "nope.jsonl")); ok {
		t.Error("SessionID on a missing file reported a hit")
	}
}

func TestSessionID_OnlyPrefixIsInspected(t *testing.T) {
	// The session record sits past the inspected prefix; padding records fill
	// the first 8 KiB. The record must not be found.
	var b strings.Builder
	pad := `{"type":"progress","id":"","note":"` + strings.Repeat("x", 200) + `"}` + "\n"
	for b.Len() < HeaderPrefixSize {
		b.WriteString(pad)
	}
	b.WriteString(`{"type":"session","id":"sess-late"}` + "\n")

	path := writeTranscript(t, b.String())
	if id, ok := SessionID(path); ok {
		t.Errorf("found session %q past the inspected prefix", id)
	}
}

func TestSessionID_LargeTranscriptReadsOnlyPrefix(t *testing.T) {
	// Session record first, then megabytes of activity. Resolution must
	// succeed without reading the whole file.
	var b strings.Builder
	b.WriteString(`{"type":"session","id":"sess-big"}` + "\n")
	line := `{"type":"assistant","message":{"content":"` + strings.Repeat("y", 500) + `"}}` + "\n"
	for range 4000 {
		b.WriteString(line)
	}

	path := writeTranscript(t, b.String())
	id, ok := SessionID(path)
	if !ok || id != "sess-big" {
		t.Errorf("SessionID() = (%q, %v), want (sess-big, true)", id, ok)
	}
}
