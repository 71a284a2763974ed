// Package eventfeed broadcasts per-turn events to connected developer
// consoles. Publishing never blocks the request path: slow or stalled
// subscribers drop events.
package eventfeed

import "sync"

// TurnEvent describes one handled turn.
type TurnEvent struct {
	SessionID string `json:"session_id"`
	Intent    string `json:"intent"`
	Query     string `json:"query,omitempty"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	TSMs      int64  `json:"ts_ms"`
}

const subscriberBuffer = 64

type Feed struct {
	mu   sync.Mutex
	subs map[chan TurnEvent]struct{}
}

func New() *Feed {
	return &Feed{subs: make(map[chan TurnEvent]struct{})}
}

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (f *Feed) Publish(ev TurnEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new consumer. The returned cancel func must be
// called exactly once; afterwards the channel is closed.
func (f *Feed) Subscribe() (<-chan TurnEvent, func()) {
	ch := make(chan TurnEvent, subscriberBuffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
