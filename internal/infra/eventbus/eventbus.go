// Package eventbus is an in-memory publish/subscribe bus. The run service
// announces finished solves on it and the API middleware announces
// mutations; the audit recorder consumes both off the request path.
// Topic names and payload types belong to the consuming package.
//
// Delivery is best-effort: each subscriber gets a buffered channel, and a
// publish never blocks — a subscriber that stops draining misses events.
// Nothing is persisted.
package eventbus

import "sync"

// Event carries one published payload, tagged with its topic.
type Event struct {
	Topic   string
	Payload any
}

// EventBus is what publishers and consumers depend on; Bus is the only
// implementation.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string) <-chan Event
}

// subscriberBuffer is each subscriber channel's capacity. Sized for the
// audit recorder: bursts beyond it mean the recorder has stalled, and
// dropping is preferable to backing up into request handlers.
const subscriberBuffer = 100

// Bus implements EventBus with a per-topic subscriber list.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

// New returns an empty Bus ready for Subscribe and Publish.
func New() *Bus {
	return &Bus{subs: make(map[string][]chan Event)}
}

// Subscribe registers a new subscriber for topic and returns a read-only
// channel. The caller must consume it to keep receiving future events.
func (b *Bus) Subscribe(topic string) <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends an Event to every subscriber of topic. A subscriber with a
// full buffer misses the event rather than blocking the publisher.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	subs := b.subs[topic]
	b.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
			// buffer full, drop
		}
	}
}
