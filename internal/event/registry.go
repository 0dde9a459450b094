package event

import (
	"sync"
)

// subscriberBuffer is the channel capacity per subscriber. A subscriber that
// falls this far behind starts losing events; delivery is best-effort.
const subscriberBuffer = 16

// Registry tracks the live delivery channels attached to each board topic.
// It is safe for concurrent attach, detach and publish from multiple
// request goroutines.
type Registry struct {
	mu     sync.Mutex
	topics map[string]map[chan DomainEvent]struct{}
}

func NewRegistry() *Registry {
	return &Registry{topics: make(map[string]map[chan DomainEvent]struct{})}
}

// Subscribe attaches a new channel to the topic. Events published before
// the call are never delivered; there is no replay buffer.
func (r *Registry) Subscribe(topic string) chan DomainEvent {
	ch := make(chan DomainEvent, subscriberBuffer)
	r.mu.Lock()
	subs, ok := r.topics[topic]
	if !ok {
		subs = make(map[chan DomainEvent]struct{})
		r.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	r.mu.Unlock()
	return ch
}

// Unsubscribe detaches the channel and closes it. Safe to call once per
// subscription, including after the topic has been emptied.
func (r *Registry) Unsubscribe(topic string, ch chan DomainEvent) {
	r.mu.Lock()
	if subs, ok := r.topics[topic]; ok {
		if _, attached := subs[ch]; attached {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(r.topics, topic)
		}
	}
	r.mu.Unlock()
}

// Publish delivers the event to every channel attached to its topic at call
// time. Sends are non-blocking: a full subscriber buffer drops the event
// for that subscriber rather than stalling the publisher. Events published
// in sequence arrive at each subscriber in publish order.
func (r *Registry) Publish(ev DomainEvent) {
	r.mu.Lock()
	for ch := range r.topics[ev.Topic] {
		select {
		case ch <- ev:
		default:
		}
	}
	r.mu.Unlock()
}

// Subscribers reports the number of channels attached to a topic.
func (r *Registry) Subscribers(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[topic])
}
