// Package broadcast fans events out to subscribed consumers.
//
// The bridge publishes with DropIfSlow set: delivery to a subscriber whose
// channel buffer is full is skipped rather than blocking the publisher. That
// trades completeness for non-blocking behavior. Publishing without the flag
// waits for slow subscribers, but only up to a bound; consumers that need
// every event must drain their channel promptly.
package broadcast

import (
	"sync"
	"time"
)

// EventChat is the event name the transcript bridge publishes.
const EventChat = "chat"

// State marks how complete an update is. The bridge always publishes full
// snapshots, so the enumeration currently has a single value.
type State string

// StateFinal marks the update as a complete snapshot, not an incremental delta.
const StateFinal State = "final"

// ChatPayload is the payload of a chat event.
type ChatPayload struct {
	// RunID is a disposable token minted per emission. Two emissions for the
	// same session always carry distinct run IDs.
	RunID string `json:"runId"`

	// SessionKey is the store key the transcript resolved to.
	SessionKey string `json:"sessionKey"`

	// State is always StateFinal.
	State State `json:"state"`
}

// Event is a named payload delivered to subscribers.
type Event struct {
	Name    string      `json:"event"`
	Payload ChatPayload `json:"payload"`
}

// Options control delivery of a single Publish call.
type Options struct {
	// DropIfSlow skips delivery to any subscriber whose buffer is full
	// instead of blocking. Without it, Publish waits up to
	// blockingPublishWait per slow subscriber before dropping.
	DropIfSlow bool
}

// blockingPublishWait bounds how long a blocking Publish waits on one slow
// subscriber before giving up and counting the delivery as dropped. It also
// bounds how long a concurrent Subscribe or cancel can stall behind a
// blocking Publish. Variable for tests.
var blockingPublishWait = time.Second

// subscriberBufferSize is the per-subscriber channel buffer. A consumer this
// far behind is considered slow for DropIfSlow purposes.
const subscriberBufferSize = 64

// Broadcaster delivers published events to every subscriber.
// The zero value is not usable; call New.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	dropped uint64
	closed  bool
}

// New creates an empty broadcaster.
func New() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a consumer. The returned cancel function removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to all current subscribers. With DropIfSlow the
// call never blocks; each subscriber that cannot accept the event immediately
// is skipped and the drop counter incremented. Without the flag, Publish
// waits up to blockingPublishWait per slow subscriber before dropping, so a
// subscriber that stops draining (or calls cancel instead) can only delay
// the publisher, never deadlock it. Publishing on a closed broadcaster is a
// no-op.
func (b *Broadcaster) Publish(event Event, opts Options) {
	// Delivery happens under the lock so a send can never race a channel
	// close from cancel or Close. The bridge always publishes with
	// DropIfSlow, which never blocks; blocking sends are time-bounded.
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for _, ch := range b.subs {
		if opts.DropIfSlow {
			select {
			case ch <- event:
			default:
				b.dropped++
			}
			continue
		}
		select {
		case ch <- event:
		case <-time.After(blockingPublishWait):
			b.dropped++
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was slow.
func (b *Broadcaster) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close removes and closes all subscriptions. Subsequent Publish calls are
// no-ops and subsequent Subscribe calls return a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
