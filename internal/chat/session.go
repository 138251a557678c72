// Package chat implements the client-facing chat session: a locally
// materialized, time-ordered message log for one team, kept in sync by
// merging realtime bus events over a history baseline.
package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/teamhub/collab-service/internal/bus"
	"github.com/teamhub/collab-service/internal/domain"
)

// Commander is the slice of the chat service a session issues commands
// through. Every mutating command is synchronous; its result is
// authoritative, the bus echo only converges other observers.
type Commander interface {
	Send(ctx context.Context, teamID, senderID, body string) (*domain.Message, error)
	Edit(ctx context.Context, messageID, actorID, newBody string) (*domain.Message, error)
	Delete(ctx context.Context, messageID, actorID string) (*domain.Message, error)
	History(ctx context.Context, teamID, actorID string, before *time.Time, limit int) ([]*domain.Message, error)
	Subscribe(ctx context.Context, teamID, userID string) (*bus.Subscription, error)
}

// Session is one user's open chat for one team. All exported methods are
// safe for concurrent use; the embedded log is ordered by (created_at, id)
// and merges are idempotent by message id, so the echo of the session's
// own commands never diverges the local state from broadcast state.
type Session struct {
	gateway Commander
	teamID  string
	userID  string

	sub  *bus.Subscription
	done chan struct{}

	mu   sync.Mutex
	byID map[string]*domain.Message
	log  []*domain.Message

	historyLimit int
}

// Open starts a session: it subscribes to the team channel before loading
// history, so no committed event can fall between the baseline and the
// stream. The caller must be an active member of the team.
func Open(ctx context.Context, gateway Commander, teamID, userID string, historyLimit int) (*Session, error) {
	sub, err := gateway.Subscribe(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		gateway:      gateway,
		teamID:       teamID,
		userID:       userID,
		sub:          sub,
		done:         make(chan struct{}),
		byID:         make(map[string]*domain.Message),
		historyLimit: historyLimit,
	}

	history, err := gateway.History(ctx, teamID, userID, nil, historyLimit)
	if err != nil {
		sub.Close()
		return nil, err
	}
	s.mu.Lock()
	for _, msg := range history {
		s.mergeLocked(msg)
	}
	s.mu.Unlock()

	go s.run()
	return s, nil
}

// run consumes the event stream until the subscription closes. Consuming
// never blocks command issuance: commands only take the log mutex briefly.
func (s *Session) run() {
	defer close(s.done)
	for evt := range s.sub.Events() {
		if evt.Message != nil && evt.Message.TeamID == s.teamID {
			s.mu.Lock()
			s.mergeLocked(evt.Message)
			s.mu.Unlock()
		}
		if s.sub.TakeLagged() {
			// Events were dropped; the store is authoritative, so rebuild
			// the baseline instead of trusting the partial stream.
			_ = s.Reconcile(context.Background())
		}
	}
}

// mergeLocked applies one message snapshot to the local log. A snapshot
// carries full state, so applying the same event twice, or a late create
// after an update already arrived, is harmless: stale snapshots for a
// known id are dropped, newer ones replace the stored record in place.
func (s *Session) mergeLocked(msg *domain.Message) {
	snapshot := *msg
	if existing, ok := s.byID[snapshot.ID]; ok {
		if staleSnapshot(existing, &snapshot) {
			return
		}
		*existing = snapshot
		return
	}

	stored := &snapshot
	s.byID[stored.ID] = stored
	i := sort.Search(len(s.log), func(i int) bool { return !s.log[i].Before(stored) })
	s.log = append(s.log, nil)
	copy(s.log[i+1:], s.log[i:])
	s.log[i] = stored
}

// staleSnapshot reports whether incoming carries older state than the
// stored copy: a resurrection of a deleted message, a pre-edit echo of
// an already edited one, or an edit preceding the edit already applied.
func staleSnapshot(existing, incoming *domain.Message) bool {
	if incoming.Deleted {
		return false
	}
	if existing.Deleted {
		// Никогда не воскрешаем локально удаленное сообщение
		return true
	}
	if existing.IsEdited && !incoming.IsEdited {
		return true
	}
	if existing.EditedAt != nil && incoming.EditedAt != nil && incoming.EditedAt.Before(*existing.EditedAt) {
		return true
	}
	return false
}

// Send issues a text message and applies the result immediately, without
// waiting for the bus echo.
func (s *Session) Send(ctx context.Context, body string) (*domain.Message, error) {
	msg, err := s.gateway.Send(ctx, s.teamID, s.userID, body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.mergeLocked(msg)
	s.mu.Unlock()
	return msg, nil
}

// Edit replaces the body of one of the session user's own messages.
func (s *Session) Edit(ctx context.Context, messageID, newBody string) (*domain.Message, error) {
	msg, err := s.gateway.Edit(ctx, messageID, s.userID, newBody)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.mergeLocked(msg)
	s.mu.Unlock()
	return msg, nil
}

// Delete soft-deletes one of the session user's own messages. The row
// stays in the log as a tombstone.
func (s *Session) Delete(ctx context.Context, messageID string) (*domain.Message, error) {
	msg, err := s.gateway.Delete(ctx, messageID, s.userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.mergeLocked(msg)
	s.mu.Unlock()
	return msg, nil
}

// Reconcile re-fetches the authoritative history and rebuilds the local
// log from it. Used after a lag episode or an explicit reconnect.
func (s *Session) Reconcile(ctx context.Context) error {
	history, err := s.gateway.History(ctx, s.teamID, s.userID, nil, s.historyLimit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*domain.Message, len(history))
	s.log = s.log[:0]
	for _, msg := range history {
		s.mergeLocked(msg)
	}
	return nil
}

// Snapshot returns a copy of the local log in (created_at, id) order.
func (s *Session) Snapshot() []*domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Message, len(s.log))
	for i, msg := range s.log {
		c := *msg
		out[i] = &c
	}
	return out
}

// Get returns the local copy of one message, if the session has seen it.
func (s *Session) Get(messageID string) (*domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[messageID]
	if !ok {
		return nil, false
	}
	c := *msg
	return &c, true
}

// TeamID returns the team the session is attached to.
func (s *Session) TeamID() string {
	return s.teamID
}

// Close unsubscribes from the team channel and waits for the merge loop
// to drain. Idempotent via the underlying subscription.
func (s *Session) Close() {
	s.sub.Close()
	<-s.done
}
