package shared

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batchcopy/internal/batch"
)

const bridgeBuffer = 256

// BatchEventMsg wraps a batch.Event for use as a tea.Msg.
type BatchEventMsg struct {
	Event batch.Event
}

// EventBridge adapts orchestrator events to bubble tea messages. It
// implements batch.EventEmitter. Emit never blocks: progress reports are
// dropped when the screen falls behind, every other event is queued.
type EventBridge struct {
	mu        sync.Mutex
	eventChan chan tea.Msg
	overflow  []tea.Msg
	closed    bool
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		eventChan: make(chan tea.Msg, bridgeBuffer),
	}
}

// Emit implements batch.EventEmitter.
func (b *EventBridge) Emit(event batch.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.flushLocked()

	msg := BatchEventMsg{Event: event}

	if len(b.overflow) == 0 {
		select {
		case b.eventChan <- msg:
			return
		default:
		}
	}

	if _, ok := event.(batch.CopyProgressChanged); ok {
		return
	}

	b.overflow = append(b.overflow, msg)
}

// flushLocked moves queued messages into the channel while it has room.
func (b *EventBridge) flushLocked() {
	for len(b.overflow) > 0 {
		select {
		case b.eventChan <- b.overflow[0]:
			b.overflow = b.overflow[1:]
		default:
			return
		}
	}
}

// Subscribe returns the event channel for receiving events.
func (b *EventBridge) Subscribe() <-chan tea.Msg {
	return b.eventChan
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
// Issue it again after handling each event.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		b.mu.Lock()
		b.flushLocked()
		b.mu.Unlock()

		msg, ok := <-b.eventChan
		if !ok {
			return nil
		}

		return msg
	}
}

// Close closes the event channel. Events emitted afterwards are discarded.
func (b *EventBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.eventChan)
	}
}
