package broadcast

import (
	"testing"
	"time"
)

func chatEvent(runID string) Event {
	return Event{
		Name: EventChat,
		Payload: ChatPayload{
			RunID:      runID,
			SessionKey: "key-alpha",
			State:      StateFinal,
		},
	}
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New()
	defer b.Close()

	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(chatEvent("run-1"), Options{DropIfSlow: true})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			if event.Payload.RunID != "run-1" {
				t.Errorf("subscriber %d got run ID %q, want run-1", i, event.Payload.RunID)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestDropIfSlowSkipsFullSubscriber(t *testing.T) {
	b := New()
	defer b.Close()

	ch, cancel := b.Subscribe()
	defer cancel()

	// Fill the subscriber's buffer without draining.
	for i := 0; i < subscriberBufferSize; i++ {
		b.Publish(chatEvent("fill"), Options{DropIfSlow: true})
	}
	if b.Dropped() != 0 {
		t.Fatalf("drops before buffer full: %d", b.Dropped())
	}

	// One more must be dropped, not block.
	b.Publish(chatEvent("overflow"), Options{DropIfSlow: true})
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}

	// The buffered events are intact.
	if len(ch) != subscriberBufferSize {
		t.Errorf("buffered events = %d, want %d", len(ch), subscriberBufferSize)
	}
}

func TestCancelRemovesSubscription(t *testing.T) {
	b := New()
	defer b.Close()

	ch, cancel := b.Subscribe()
	cancel()
	cancel() // safe to call twice

	b.Publish(chatEvent("after-cancel"), Options{DropIfSlow: true})

	// Channel is closed and empty.
	if event, ok := <-ch; ok {
		t.Errorf("cancelled subscriber received %+v", event)
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	b := New()

	ch, cancel := b.Subscribe()
	defer cancel()

	b.Close()
	b.Publish(chatEvent("after-close"), Options{DropIfSlow: true})

	if _, ok := <-ch; ok {
		t.Error("received event after Close")
	}

	// Subscribing after Close yields a closed channel.
	late, lateCancel := b.Subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Error("late subscriber channel not closed")
	}
}

func TestBlockingPublishWaitsForConsumer(t *testing.T) {
	b := New()
	defer b.Close()

	ch, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// More events than the buffer holds; requires the consumer below.
		for i := 0; i < subscriberBufferSize+8; i++ {
			b.Publish(chatEvent("blocking"), Options{})
		}
	}()

	for i := 0; i < subscriberBufferSize+8; i++ {
		<-ch
	}
	<-done

	if b.Dropped() != 0 {
		t.Errorf("blocking publish dropped %d events", b.Dropped())
	}
}

func TestBlockingPublishDropsAfterWaitInsteadOfDeadlocking(t *testing.T) {
	oldWait := blockingPublishWait
	blockingPublishWait = 20 * time.Millisecond
	defer func() { blockingPublishWait = oldWait }()

	b := New()
	defer b.Close()

	_, cancel := b.Subscribe()

	// Fill the buffer with nobody draining.
	for i := 0; i < subscriberBufferSize; i++ {
		b.Publish(chatEvent("fill"), Options{})
	}

	published := make(chan struct{})
	go func() {
		defer close(published)
		b.Publish(chatEvent("overflow"), Options{})
	}()

	// The subscriber gives up and cancels instead of draining. This must
	// complete once the publisher's bounded wait expires. The short sleep
	// lets the publish enter its wait first.
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("blocking publish deadlocked against a cancelling subscriber")
	}
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}
}
