// Package notify carries user-facing notifications and progress updates
// from the wizard to whoever is watching a session.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess  Kind = "success"
	KindInfo     Kind = "info"
	KindWarning  Kind = "warning"
	KindError    Kind = "error"
	KindProgress Kind = "progress"
	KindItem     Kind = "item" // per-subtopic state change
	KindOutline  Kind = "outline"
	KindStep     Kind = "step"
)

// Event is one toast, progress tick or state change.
type Event struct {
	Seq        uint64    `json:"seq"`
	Kind       Kind      `json:"kind"`
	Message    string    `json:"message,omitempty"`
	Progress   int       `json:"progress,omitempty"`
	SectionID  string    `json:"sectionId,omitempty"`
	SubtopicID string    `json:"subtopicId,omitempty"`
	State      string    `json:"state,omitempty"`
	Step       int       `json:"step,omitempty"`
	At         time.Time `json:"at"`
}

// Sink receives events.
type Sink interface {
	Publish(Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(Event) {}

const defaultHistory = 100

// Feed fans events out to subscribers and keeps a short history for
// clients that poll instead of streaming.
type Feed struct {
	mu      sync.Mutex
	seq     uint64
	history []Event
	limit   int
	subs    map[uint64]chan Event
	nextSub uint64
	closed  bool
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Feed{limit: limit, subs: make(map[uint64]chan Event)}
}

// Publish stamps the event and delivers it. Slow subscribers miss events
// rather than block the publisher.
func (f *Feed) Publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.seq++
	ev.Seq = f.seq
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	f.history = append(f.history, ev)
	if len(f.history) > f.limit {
		f.history = append([]Event(nil), f.history[len(f.history)-f.limit:]...)
	}
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of future events and a cancel func. The
// channel is closed on cancel or when the feed closes.
func (f *Feed) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan Event, buffer)
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := f.nextSub
	f.nextSub++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
}

// Since returns the retained events with Seq > seq.
func (f *Feed) Since(seq uint64) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, 0, len(f.history))
	for _, ev := range f.history {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out
}

// Close stops delivery and closes all subscriber channels.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

func Success(msg string) Event { return Event{Kind: KindSuccess, Message: msg} }
func Info(msg string) Event    { return Event{Kind: KindInfo, Message: msg} }
func Warning(msg string) Event { return Event{Kind: KindWarning, Message: msg} }
func Error(msg string) Event   { return Event{Kind: KindError, Message: msg} }
func Progress(pct int) Event   { return Event{Kind: KindProgress, Progress: pct} }

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (fn SinkFunc) Publish(ev Event) { fn(ev) }

// Multi publishes to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ev Event) {
		for _, s := range sinks {
			if s != nil {
				s.Publish(ev)
			}
		}
	})
}
