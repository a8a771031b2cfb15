// Package bridge turns low-level transcript file updates into chat events.
//
// The bridge sits between the transcript watcher and the broadcast sink. For
// every reported file it resolves the stable session key the transcript is
// registered under, memoizing each resolution step in a TTL cache so repeated
// updates for the same file cost one cache lookup, and publishes a chat event
// carrying a fresh run identifier. Every failure mode for a single update is
// absorbed at the notification boundary: a bad file never reaches the
// watcher's dispatch loop.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/relay/cmd/relay/cli/broadcast"
	"github.com/relaykit/relay/cmd/relay/cli/logging"
	"github.com/relaykit/relay/cmd/relay/cli/store"
	"github.com/relaykit/relay/cmd/relay/cli/transcript"
	"github.com/relaykit/relay/cmd/relay/cli/ttlcache"
)

// DefaultTTL bounds how long any resolution is trusted without re-reading the
// transcript header or re-scanning the store.
const DefaultTTL = 10 * time.Minute

// HeaderReader extracts the session identifier from a transcript file.
// The bool result is false when no identifier could be read; that is control
// flow, not an error.
type HeaderReader func(path string) (string, bool)

// Snapshotter supplies the current contents of the session store.
// The bridge re-fetches a snapshot on every uncached resolution and never
// writes back.
type Snapshotter interface {
	Snapshot(ctx context.Context) (map[string]store.Record, error)
}

// Publisher accepts events for delivery to downstream consumers.
type Publisher interface {
	Publish(event broadcast.Event, opts broadcast.Options)
}

// Subscribable is the watcher-side interface the bridge attaches to.
type Subscribable interface {
	Subscribe(fn func(path string)) (cancel func())
}

// Config assembles a Bridge. Store and Sink are required.
type Config struct {
	Store Snapshotter
	Sink  Publisher

	// TTL overrides DefaultTTL for all three caches. Zero means default.
	TTL time.Duration

	// ReadHeader overrides the transcript header reader. Nil means
	// transcript.SessionID. For tests.
	ReadHeader HeaderReader

	// Clock overrides the cache time source. Nil means time.Now. For tests.
	Clock func() time.Time
}

// Bridge resolves transcript updates to session keys and emits chat events.
// One bridge owns its three caches exclusively; they live until the bridge is
// torn down and are never persisted.
type Bridge struct {
	readHeader HeaderReader
	store      Snapshotter
	sink       Publisher

	// fileKeys is the fast path: transcript path to resolved session key.
	fileKeys *ttlcache.Cache[string, string]
	// fileIDs memoizes transcript path to session identifier, saving the
	// bounded header read.
	fileIDs *ttlcache.Cache[string, string]
	// keysByID memoizes session identifier to session key, saving the
	// full-store scan.
	keysByID *ttlcache.Cache[string, string]

	unsubscribe func()
}

// New creates a bridge from cfg.
func New(cfg Config) (*Bridge, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("bridge config: Store is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("bridge config: Sink is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	readHeader := cfg.ReadHeader
	if readHeader == nil {
		readHeader = transcript.SessionID
	}

	var opts []ttlcache.Option[string, string]
	if cfg.Clock != nil {
		opts = append(opts, ttlcache.WithClock[string, string](cfg.Clock))
	}

	return &Bridge{
		readHeader: readHeader,
		store:      cfg.Store,
		sink:       cfg.Sink,
		fileKeys:   ttlcache.New[string, string](ttl, opts...),
		fileIDs:    ttlcache.New[string, string](ttl, opts...),
		keysByID:   ttlcache.New[string, string](ttl, opts...),
	}, nil
}

// Attach subscribes the bridge to a watcher. Updates are handled synchronously
// in the watcher's dispatch goroutine. Attach may be called at most once.
func (b *Bridge) Attach(w Subscribable) {
	ctx := logging.WithComponent(context.Background(), "bridge")
	b.unsubscribe = w.Subscribe(func(path string) {
		b.HandleUpdate(ctx, path)
	})
}

// Close unsubscribes from the watcher. In-flight update handling is not
// interrupted and the caches are simply abandoned with the bridge.
func (b *Bridge) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// HandleUpdate processes one transcript update notification to a terminal
// outcome: either a chat event is published or the update is ignored. Nothing
// escapes to the caller; unexpected panics are logged as warnings naming the
// offending file.
func (b *Bridge) HandleUpdate(ctx context.Context, file string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn(ctx, "transcript update handling failed",
				"file", file, "panic", fmt.Sprint(r))
		}
	}()

	// Fast path: the file resolved recently.
	if sessionKey, ok := b.fileKeys.Get(file); ok {
		b.emit(sessionKey, "")
		return
	}

	// Identifier resolution. A transcript with no readable session record is
	// ignored silently: the writer may simply not have flushed the header
	// yet, and a later update retries from scratch.
	sessionID, ok := b.fileIDs.Get(file)
	if !ok {
		sessionID, ok = b.readHeader(file)
		if !ok {
			return
		}
		b.fileIDs.Set(file, sessionID)
	}

	// Key resolution. An identifier missing from the store is a legitimate
	// condition (the session may have been pruned); warn and move on without
	// caching anything, so the next update re-resolves.
	sessionKey, ok := b.keysByID.Get(sessionID)
	if !ok {
		sessionKey, ok = b.resolveKey(ctx, file, sessionID)
		if !ok {
			return
		}
		b.keysByID.Set(sessionID, sessionKey)
	}

	b.fileKeys.Set(file, sessionKey)
	b.emit(sessionKey, sessionID)
}

// resolveKey looks up the key registered with the given session identifier in
// a fresh store snapshot. Matching semantics live in store.KeyForSessionID so
// the resolve command compares identifiers the same way.
func (b *Bridge) resolveKey(ctx context.Context, file, sessionID string) (string, bool) {
	snapshot, err := b.store.Snapshot(ctx)
	if err != nil {
		logging.Warn(ctx, "session store snapshot failed",
			"file", file, "session_id", sessionID, "error", err.Error())
		return "", false
	}

	sessionKey, ok := store.KeyForSessionID(snapshot, sessionID)
	if !ok {
		logging.Warn(ctx, "no session registered for transcript",
			"file", file, "session_id", sessionID)
		return "", false
	}
	return sessionKey, true
}

// emit publishes a chat event for the session key. sessionID may be empty on
// the fast path, where the identifier was not consulted.
func (b *Bridge) emit(sessionKey, sessionID string) {
	b.sink.Publish(broadcast.Event{
		Name: broadcast.EventChat,
		Payload: broadcast.ChatPayload{
			RunID:      NewRunID(sessionID),
			SessionKey: sessionKey,
			State:      broadcast.StateFinal,
		},
	}, broadcast.Options{DropIfSlow: true})
}

// NewRunID mints the disposable identifier attached to one emission. Repeated
// updates for the same session produce distinct run IDs: each update is a new
// occurrence, not a replacement of the previous one.
func NewRunID(sessionID string) string {
	if sessionID == "" {
		return "transcript-" + uuid.NewString()
	}
	return "transcript-" + sessionID + "-" + uuid.NewString()
}
