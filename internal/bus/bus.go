// Package bus implements the in-process realtime message bus: one logical
// publish/subscribe channel per team, delivering message events to every
// subscribed session in commit order.
package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/teamhub/collab-service/internal/domain"
)

// EventType is the kind of change carried by a bus event.
type EventType string

// Event types mirror the persistence operations on messages.
const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event is a single change notification on a team channel. Seq is a
// per-team monotone sequence assigned at publish time; consumers use it
// together with the message id to de-duplicate.
type Event struct {
	Entity  string          `json:"entity"`
	Type    EventType       `json:"op"`
	Seq     uint64          `json:"seq"`
	Message *domain.Message `json:"record"`
}

// Bus fans message events out to per-team subscriber sets. The bus is a
// best-effort notification layer: the relational store stays authoritative,
// slow subscribers lose events and reconcile by re-fetching history.
type Bus struct {
	mu     sync.Mutex
	topics map[string]*topic
	buffer int
}

type topic struct {
	mu   sync.Mutex
	seq  uint64
	dead bool
	subs map[*Subscription]struct{}
}

// Subscription is one standing event stream for a team channel.
type Subscription struct {
	bus    *Bus
	teamID string
	topic  *topic
	events chan Event
	lagged atomic.Bool
	once   sync.Once
}

// New creates a Bus. buffer is the per-subscriber channel capacity.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		topics: make(map[string]*topic),
		buffer: buffer,
	}
}

// Subscribe opens a standing channel for one team. The subscription is
// closed when ctx is canceled or Close is called; after that no further
// events are delivered.
func (b *Bus) Subscribe(ctx context.Context, teamID string) *Subscription {
	sub := &Subscription{
		bus:    b,
		teamID: teamID,
		events: make(chan Event, b.buffer),
	}

	for {
		b.mu.Lock()
		t, ok := b.topics[teamID]
		if !ok {
			t = &topic{subs: make(map[*Subscription]struct{})}
			b.topics[teamID] = t
		}
		b.mu.Unlock()

		t.mu.Lock()
		if t.dead {
			// Последний подписчик успел снять топик с шины между
			// поиском в карте и присоединением; ищем заново.
			t.mu.Unlock()
			continue
		}
		t.subs[sub] = struct{}{}
		t.mu.Unlock()

		sub.topic = t
		break
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}

	return sub
}

// Publish delivers an event to every current subscriber of the team
// channel. The caller must invoke Publish in commit order; the per-topic
// lock then guarantees each subscriber observes that same order. Delivery
// never blocks: a subscriber with a full buffer is marked lagged and the
// event is dropped for it.
func (b *Bus) Publish(teamID string, evtType EventType, msg *domain.Message) {
	b.mu.Lock()
	t, ok := b.topics[teamID]
	b.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	evt := Event{
		Entity:  "message",
		Type:    evtType,
		Seq:     t.seq,
		Message: msg,
	}

	for sub := range t.subs {
		select {
		case sub.events <- evt:
		default:
			sub.lagged.Store(true)
		}
	}
}

// Events returns the subscription's event stream. The channel is closed
// after Close, so consumers can range over it.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// TeamID returns the team the subscription is attached to.
func (s *Subscription) TeamID() string {
	return s.teamID
}

// Lagged reports whether any event was dropped because the subscriber
// fell behind. Consumers seeing a lag must reconcile against the store.
func (s *Subscription) Lagged() bool {
	return s.lagged.Load()
}

// TakeLagged reports and clears the lag flag, so a consumer that just
// reconciled starts watching for the next lag episode.
func (s *Subscription) TakeLagged() bool {
	return s.lagged.CompareAndSwap(true, false)
}

// Close detaches the subscription. Idempotent; no events are delivered
// after it returns.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.topic.mu.Lock()
		delete(s.topic.subs, s)
		empty := len(s.topic.subs) == 0
		close(s.events)
		s.topic.mu.Unlock()

		if empty {
			s.bus.mu.Lock()
			// Re-check under the bus lock: a new subscriber may have
			// attached to the same topic in the meantime.
			s.topic.mu.Lock()
			if len(s.topic.subs) == 0 && s.bus.topics[s.teamID] == s.topic {
				s.topic.dead = true
				delete(s.bus.topics, s.teamID)
			}
			s.topic.mu.Unlock()
			s.bus.mu.Unlock()
		}
	})
}
