// Package events provides the event bus connecting the upload workflow
// to display code. The orchestrator publishes batch and task events;
// subscribers (progress UI, CLI summaries) consume them without the
// workflow knowing who is listening.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType defines the types of events that can be emitted.
type EventType string

const (
	// Batch lifecycle
	EventBatchSelected   EventType = "batch_selected"   // Files chosen, tasks created
	EventConflictsFound  EventType = "conflicts_found"  // Pre-check returned collisions
	EventBatchSubmitting EventType = "batch_submitting" // Upload request issued
	EventBatchProgress   EventType = "batch_progress"   // Bytes sent update
	EventBatchCompleted  EventType = "batch_completed"  // Terminal outcome (mixed allowed)
	EventBatchFailed     EventType = "batch_failed"     // Transport-level failure

	// Per-task outcome
	EventTaskUpdated EventType = "task_updated" // A task reached a new status
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NewBase stamps a BaseEvent with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// BatchEvent carries batch-level workflow changes.
type BatchEvent struct {
	BaseEvent
	ProjectID string
	FileCount int
	Conflicts int
	Err       error
}

// ProgressEvent carries upload byte progress for the whole batch.
type ProgressEvent struct {
	BaseEvent
	BytesSent  int64
	BytesTotal int64
}

// TaskEvent carries one task's status change.
type TaskEvent struct {
	BaseEvent
	TaskID   string
	Filename string
	Status   string
	Reason   string // failure reason or conflict reason, empty otherwise
}

// OutcomeEvent summarizes a terminal batch response.
type OutcomeEvent struct {
	BaseEvent
	Uploaded int
	Skipped  int
	Failed   int
}

// Bus manages event subscriptions and publishing. Publishing is
// non-blocking: a subscriber with a full buffer drops events rather
// than stalling the upload workflow.
type Bus struct {
	subscribers map[EventType][]chan Event
	all         []chan Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

const defaultBufferSize = 256

// NewBus creates an event bus. bufferSize <= 0 selects the default.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type.
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to every event.
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.all = append(b.all, ch)
	return ch
}

// Publish sends an event to all matching subscribers without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	for _, ch := range b.all {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of events discarded due to full buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
	b.subscribers = make(map[EventType][]chan Event)
	b.all = nil
}
