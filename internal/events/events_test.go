package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	ch := bus.Subscribe(EventBatchCompleted)

	bus.Publish(OutcomeEvent{BaseEvent: NewBase(EventBatchCompleted), Uploaded: 3})
	bus.Publish(TaskEvent{BaseEvent: NewBase(EventTaskUpdated), Filename: "a.stl"})

	select {
	case ev := <-ch:
		outcome, ok := ev.(OutcomeEvent)
		if !ok {
			t.Fatalf("expected OutcomeEvent, got %T", ev)
		}
		if outcome.Uploaded != 3 {
			t.Errorf("Uploaded = %d, want 3", outcome.Uploaded)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	select {
	case ev := <-ch:
		t.Fatalf("received unexpected second event %v", ev)
	default:
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	ch := bus.SubscribeAll()
	bus.Publish(BatchEvent{BaseEvent: NewBase(EventBatchSelected), FileCount: 2})
	bus.Publish(TaskEvent{BaseEvent: NewBase(EventTaskUpdated), Filename: "a.stl"})

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("event %d not received", i)
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	bus.Subscribe(EventBatchProgress)
	bus.Publish(ProgressEvent{BaseEvent: NewBase(EventBatchProgress), BytesSent: 1})
	bus.Publish(ProgressEvent{BaseEvent: NewBase(EventBatchProgress), BytesSent: 2})

	if got := bus.Dropped(); got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus(1)
	ch := bus.Subscribe(EventBatchFailed)
	bus.Close()

	bus.Publish(BatchEvent{BaseEvent: NewBase(EventBatchFailed)})

	if _, open := <-ch; open {
		t.Error("channel should be closed after bus Close")
	}
}
