package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/teamhub/collab-service/internal/bus"
	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/repository"
)

// ChatService is the persistence gateway for chat messages. Every committed
// write is followed by a bus event; a per-team lock spans the write and the
// publish so that bus order always equals commit order within a channel.
// Publishing is fire-and-forget relative to the committed write: bus
// delivery failures never fail the command.
type ChatService struct {
	msgRepo    repository.MessageRepository
	memberRepo repository.MembershipRepository
	bus        *bus.Bus

	mu        sync.Mutex
	teamLocks map[string]*sync.Mutex

	historyLimit int
}

// NewChatService creates a new ChatService
func NewChatService(msgRepo repository.MessageRepository, memberRepo repository.MembershipRepository, eventBus *bus.Bus, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatService{
		msgRepo:      msgRepo,
		memberRepo:   memberRepo,
		bus:          eventBus,
		teamLocks:    make(map[string]*sync.Mutex),
		historyLimit: historyLimit,
	}
}

func (s *ChatService) teamLock(teamID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.teamLocks[teamID]
	if !ok {
		lock = &sync.Mutex{}
		s.teamLocks[teamID] = lock
	}
	return lock
}

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: message body must not be empty", domain.ErrValidation)
	}
	if len(body) > domain.MaxMessageBodyLen {
		return fmt.Errorf("%w: message body exceeds %d characters", domain.ErrValidation, domain.MaxMessageBodyLen)
	}
	return nil
}

func (s *ChatService) requireActiveMember(ctx context.Context, teamID, userID string) error {
	m, err := s.memberRepo.Get(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !m.IsActive() {
		return domain.ErrNotMember
	}
	return nil
}

// Send persists a text message from an active member and broadcasts the
// created event to the team channel.
func (s *ChatService) Send(ctx context.Context, teamID, senderID, body string) (*domain.Message, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, teamID, senderID); err != nil {
		return nil, err
	}

	lock := s.teamLock(teamID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := s.msgRepo.Insert(ctx, teamID, senderID, body, domain.KindText)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(teamID, bus.EventCreated, msg)
	return msg, nil
}

// SendSystem persists a system message produced by the membership and
// invitation workflows. System messages bypass the membership check: they
// may describe a user who just left the team.
func (s *ChatService) SendSystem(ctx context.Context, teamID, actorID, body string) (*domain.Message, error) {
	lock := s.teamLock(teamID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := s.msgRepo.Insert(ctx, teamID, actorID, body, domain.KindSystem)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(teamID, bus.EventCreated, msg)
	return msg, nil
}

// Edit replaces the body of a text message. Only the sender may edit, and
// system messages are immutable.
func (s *ChatService) Edit(ctx context.Context, messageID, actorID, newBody string) (*domain.Message, error) {
	if err := validateBody(newBody); err != nil {
		return nil, err
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, domain.ErrNotSender
	}
	if msg.Kind != domain.KindText {
		return nil, domain.ErrSystemMessage
	}
	if msg.Deleted {
		return nil, domain.ErrMessageDeleted
	}

	lock := s.teamLock(msg.TeamID)
	lock.Lock()
	defer lock.Unlock()

	updated, err := s.msgRepo.UpdateBody(ctx, messageID, newBody, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.bus.Publish(updated.TeamID, bus.EventUpdated, updated)
	return updated, nil
}

// Delete soft-deletes a message: the body is replaced by a tombstone and
// the row stays for audit. Deleting an already-deleted message is a no-op
// success.
func (s *ChatService) Delete(ctx context.Context, messageID, actorID string) (*domain.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, domain.ErrNotSender
	}
	if msg.Kind != domain.KindText {
		return nil, domain.ErrSystemMessage
	}
	if msg.Deleted {
		return msg, nil
	}

	lock := s.teamLock(msg.TeamID)
	lock.Lock()
	defer lock.Unlock()

	deleted, err := s.msgRepo.SoftDelete(ctx, messageID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(deleted.TeamID, bus.EventDeleted, deleted)
	return deleted, nil
}

// History returns a page of the team's message log in (created_at, id)
// order. Only active members may read it.
func (s *ChatService) History(ctx context.Context, teamID, actorID string, before *time.Time, limit int) ([]*domain.Message, error) {
	if err := s.requireActiveMember(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.msgRepo.ListByTeam(ctx, teamID, before, limit)
}

// Subscribe opens a bus subscription for an active member of the team.
func (s *ChatService) Subscribe(ctx context.Context, teamID, userID string) (*bus.Subscription, error) {
	if err := s.requireActiveMember(ctx, teamID, userID); err != nil {
		return nil, err
	}
	return s.bus.Subscribe(ctx, teamID), nil
}
