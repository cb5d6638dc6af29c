package engine

import (
	"sync"
)

// EventType distinguishes between host event kinds.
type EventType int

const (
	// EventItemUse is a local attempt to use the item in hand.
	EventItemUse EventType = iota + 1
	// EventChat is a chat message received from the server.
	EventChat
	// EventJoin is the player joining a server.
	EventJoin
	// EventDisconnect is the connection closing.
	EventDisconnect
)

// String returns the event type name used in logs.
func (t EventType) String() string {
	switch t {
	case EventItemUse:
		return "item_use"
	case EventChat:
		return "chat"
	case EventJoin:
		return "join"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is a host callback posted to the Engine from any goroutine.
type Event struct {
	Type EventType

	// Use is set for EventItemUse.
	Use ItemUse

	// Message is set for EventChat.
	Message string
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so host callbacks (render thread, network thread)
// never block on the engine.
//
// Thread-safety is provided for host enqueuing while the Engine's Run loop
// dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64), // Pre-allocate for typical workloads
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Zero the slot so the backing array does not retain item tags.
	q.events[0] = Event{}

	// Fix memory retention: reset slice when empty
	if len(q.events) == 1 {
		// Last element - reset to empty slice with original capacity
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return // Already closed
	}

	q.closed = true
	close(q.signal) // Wakes all waiters
}
