// Package eventbus implements the pub/sub fan-out component (H) that
// decouples ocpp/core.Service from the things that react to domain
// events: operator notifications, NATS relays, the websocket API's own
// live feed. Grounded on the teacher's internal.EventHandler (a single
// synchronous interface with one method per event type) but reshaped
// into a topic-based broadcast bus per the pack's broadcast-channel
// pattern, since a synchronous fan-out interface would let one slow
// subscriber (a Telegram API call, a NATS publish) stall the OCPP
// message loop that produced the event.
package eventbus

import (
	"strings"
	"sync"

	"csms/ocpp/core"
)

// DefaultCapacity is the per-subscriber buffer depth. A subscriber that
// falls behind loses its oldest buffered event rather than blocking the
// publisher, mirroring the broadcast channel's lag-and-continue
// semantics in the original implementation.
const DefaultCapacity = 256

// Wildcard subscribes to every topic regardless of event type.
const Wildcard = "*"

// LagObserver is notified whenever a subscriber drops events because
// it could not keep up. internal/metrics wires this to a counter.
type LagObserver interface {
	ObserveLag(subscriberID string, dropped int)
}

type noopLagObserver struct{}

func (noopLagObserver) ObserveLag(string, int) {}

// Bus is a topic-partitioned, non-blocking event broadcaster. It
// implements ocpp/core.EventPublisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
	capacity    int
	nextID      int
	lag         LagObserver
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]map[*Subscription]struct{}),
		capacity:    DefaultCapacity,
		lag:         noopLagObserver{},
	}
}

// WithCapacity overrides the per-subscriber buffer depth. Must be
// called before any Subscribe.
func (b *Bus) WithCapacity(n int) *Bus {
	b.capacity = n
	return b
}

func (b *Bus) SetLagObserver(o LagObserver) {
	if o == nil {
		o = noopLagObserver{}
	}
	b.mu.Lock()
	b.lag = o
	b.mu.Unlock()
}

// Subscription is a single subscriber's inbound queue. Events arrive
// in publish order per producer, but a lagging subscriber may miss
// events dropped in its favor of newer ones (drop-oldest).
type Subscription struct {
	id     string
	topic  string
	events chan core.Event
	bus    *Bus

	closeOnce sync.Once
}

func (s *Subscription) Events() <-chan core.Event { return s.events }

// Close unsubscribes and releases the queue. Safe to call more than
// once and safe to call concurrently with Publish.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		if set, ok := s.bus.subscribers[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.bus.subscribers, s.topic)
			}
		}
		s.bus.mu.Unlock()
		close(s.events)
	})
}

// Subscribe registers a new subscription for topic (or Wildcard for
// every topic). Publish never blocks on this subscriber: once its
// buffer is full, the oldest queued event is discarded to make room.
func (b *Bus) Subscribe(topic string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     subscriberID(topic, b.nextID),
		topic:  topic,
		events: make(chan core.Event, b.capacity),
		bus:    b,
	}
	set, ok := b.subscribers[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subscribers[topic] = set
	}
	set[sub] = struct{}{}
	return sub
}

func subscriberID(topic string, n int) string {
	var sb strings.Builder
	sb.WriteString(topic)
	sb.WriteByte('#')
	if n == 0 {
		sb.WriteByte('0')
	} else {
		digits := [20]byte{}
		i := len(digits)
		for n > 0 {
			i--
			digits[i] = byte('0' + n%10)
			n /= 10
		}
		sb.Write(digits[i:])
	}
	return sb.String()
}

// Publish delivers event to every subscriber of topic plus every
// wildcard subscriber. It never blocks: a full subscriber queue has
// its oldest entry evicted first.
func (b *Bus) Publish(topic string, event core.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.deliver(b.subscribers[topic], event)
	if topic != Wildcard {
		b.deliver(b.subscribers[Wildcard], event)
	}
}

func (b *Bus) deliver(set map[*Subscription]struct{}, event core.Event) {
	for sub := range set {
		select {
		case sub.events <- event:
		default:
			// Buffer full: drop the oldest queued event and retry once.
			select {
			case <-sub.events:
				b.lag.ObserveLag(sub.id, 1)
			default:
			}
			select {
			case sub.events <- event:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscriptions are active, optionally
// filtered to a single topic (pass "" for the total across all topics).
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if topic != "" {
		return len(b.subscribers[topic])
	}
	total := 0
	for _, set := range b.subscribers {
		total += len(set)
	}
	return total
}
