package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how many undelivered events a listener may lag
// behind before non-terminal events are dropped. Delivery stays ordered and
// the terminal event is never dropped.
const subscriberBuffer = 128

// Bus routes events from running jobs to their subscribers. Each job has an
// append-only stream that terminates after exactly one Done or Error event.
type Bus struct {
	mu      sync.Mutex
	streams map[uuid.UUID]*stream
}

type stream struct {
	mu       sync.Mutex
	subs     []*subscriber
	closed   bool
	terminal *Event
}

type subscriber struct {
	ch   chan Event
	gone chan struct{}
	once sync.Once
}

func (s *subscriber) leave() {
	s.once.Do(func() { close(s.gone) })
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{streams: make(map[uuid.UUID]*stream)}
}

// Register creates the event stream for a new job. It must be called before
// the first Publish or Subscribe for that job.
func (b *Bus) Register(jobID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.streams[jobID]; !ok {
		b.streams[jobID] = &stream{}
	}
}

// Publish delivers an event, in order, to every current subscriber of the
// job. Events published after the terminal event are discarded, which keeps
// the one-terminal-event guarantee even if a cancelled stage reports late.
func (b *Bus) Publish(jobID uuid.UUID, ev Event) {
	b.mu.Lock()
	st, ok := b.streams[jobID]
	b.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}

	for _, sub := range st.subs {
		sub.deliver(ev)
	}

	if ev.Terminal() {
		st.closed = true
		st.terminal = &ev
		for _, sub := range st.subs {
			close(sub.ch)
		}
		st.subs = nil
	}
}

// deliver sends one event to a subscriber. Non-terminal events are dropped
// if the subscriber's buffer is full; the terminal event waits until it is
// accepted or the subscriber cancels.
func (s *subscriber) deliver(ev Event) {
	if ev.Terminal() {
		select {
		case s.ch <- ev:
		case <-s.gone:
		}
		return
	}
	select {
	case s.ch <- ev:
	case <-s.gone:
	default:
	}
}

// Subscribe attaches a listener to a job's stream. The returned channel
// yields events in emission order and is closed after the terminal event.
// Delivery of non-terminal events is bounded-lag: a listener that falls more
// than subscriberBuffer events behind misses the overflow, while the
// terminal event is always delivered. Subscribing after the job finished
// yields just the terminal event, so a reconnecting listener still learns
// the outcome. The cancel function detaches the listener; it is safe to
// call more than once.
func (b *Bus) Subscribe(jobID uuid.UUID) (<-chan Event, func(), error) {
	b.mu.Lock()
	st, ok := b.streams[jobID]
	b.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("no event stream for job %s", jobID)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		ch := make(chan Event, 1)
		if st.terminal != nil {
			ch <- *st.terminal
		}
		close(ch)
		return ch, func() {}, nil
	}

	sub := &subscriber{
		ch:   make(chan Event, subscriberBuffer),
		gone: make(chan struct{}),
	}
	st.subs = append(st.subs, sub)

	cancel := func() {
		sub.leave()
		st.mu.Lock()
		for i, s := range st.subs {
			if s == sub {
				st.subs = append(st.subs[:i], st.subs[i+1:]...)
				break
			}
		}
		st.mu.Unlock()
	}
	return sub.ch, cancel, nil
}

// Drop removes a job's stream entirely. Used by the retention sweep once a
// terminal job ages out.
func (b *Bus) Drop(jobID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.streams, jobID)
}
