package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/repository"
)

// InvitationService drives the invitation state machine: pending is the
// initial state, accepted/declined/expired are terminal, and expiry is a
// read-time classification by age rather than a background sweep.
type InvitationService struct {
	invRepo     repository.InvitationRepository
	memberRepo  repository.MembershipRepository
	profileRepo repository.ProfileRepository
	chat        *ChatService
	cache       MembersCache
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewInvitationService creates a new InvitationService. cache may be nil.
func NewInvitationService(
	invRepo repository.InvitationRepository,
	memberRepo repository.MembershipRepository,
	profileRepo repository.ProfileRepository,
	chat *ChatService,
	cache MembersCache,
	ttl time.Duration,
	logger *slog.Logger,
) *InvitationService {
	return &InvitationService{
		invRepo:     invRepo,
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
		chat:        chat,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
	}
}

// Issue creates a pending invitation. The inviter must be an active
// organizer; the invitee must exist, must not hold an active membership and
// must not already have a pending invitation for this team. A prior
// declined or expired invitation does not block re-inviting.
func (s *InvitationService) Issue(ctx context.Context, teamID, inviterID, inviteeID, message string) (*domain.Invitation, error) {
	if inviterID == inviteeID {
		return nil, fmt.Errorf("%w: cannot invite yourself", domain.ErrValidation)
	}

	inviter, err := s.memberRepo.Get(ctx, teamID, inviterID)
	if err != nil {
		return nil, err
	}
	if !inviter.IsOrganizer() {
		return nil, domain.ErrNotOrganizer
	}

	if _, err := s.profileRepo.GetByID(ctx, inviteeID); err != nil {
		return nil, err
	}

	// Pre-check for an active membership; the membership uniqueness check
	// at acceptance time remains the authoritative guard.
	existing, err := s.memberRepo.Get(ctx, teamID, inviteeID)
	if err != nil && !errors.Is(err, domain.ErrNotMember) {
		return nil, err
	}
	if existing != nil && existing.IsActive() {
		return nil, domain.ErrAlreadyMember
	}

	return s.invRepo.Create(ctx, &domain.Invitation{
		TeamID:    teamID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Message:   message,
	})
}

// Accept transitions a pending invitation to accepted and creates the
// membership in the same transaction. Accepting an invitation that the
// same invitee already accepted is a no-op success, so retries after a
// transient failure are idempotent.
func (s *InvitationService) Accept(ctx context.Context, invitationID, actorID string) (*domain.Invitation, error) {
	inv, err := s.invRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != actorID {
		return nil, domain.ErrNotInvitee
	}

	switch inv.Status {
	case domain.InvitationAccepted:
		return inv, nil
	case domain.InvitationDeclined, domain.InvitationExpired:
		return nil, domain.ErrInvitationClosed
	}

	if inv.IsExpired(s.ttl, s.now()) {
		return nil, domain.ErrInvitationExpired
	}

	accepted, err := s.invRepo.Accept(ctx, invitationID, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvitationClosed) {
			// Lost a race with another transition; re-read to resolve
			current, getErr := s.invRepo.GetByID(ctx, invitationID)
			if getErr == nil && current.Status == domain.InvitationAccepted && current.InviteeID == actorID {
				return current, nil
			}
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, accepted.TeamID)
	}

	if profile, perr := s.profileRepo.GetByID(ctx, actorID); perr == nil {
		s.systemMessage(ctx, accepted.TeamID, actorID, fmt.Sprintf("%s joined the team", profile.DisplayName))
	}

	return accepted, nil
}

// Decline transitions a pending invitation to declined without membership
// side effects. Declining an already-declined invitation is a no-op
// success.
func (s *InvitationService) Decline(ctx context.Context, invitationID, actorID string) (*domain.Invitation, error) {
	inv, err := s.invRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != actorID {
		return nil, domain.ErrNotInvitee
	}

	switch inv.Status {
	case domain.InvitationDeclined:
		return inv, nil
	case domain.InvitationAccepted, domain.InvitationExpired:
		return nil, domain.ErrInvitationClosed
	}

	if inv.IsExpired(s.ttl, s.now()) {
		return nil, domain.ErrInvitationExpired
	}

	declined, err := s.invRepo.Decline(ctx, invitationID, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvitationClosed) {
			current, getErr := s.invRepo.GetByID(ctx, invitationID)
			if getErr == nil && current.Status == domain.InvitationDeclined {
				return current, nil
			}
		}
		return nil, err
	}

	return declined, nil
}

// ListForTeam returns the team's invitations for an organizer. Pending
// invitations past the TTL are reported as expired without rewriting the
// stored rows.
func (s *InvitationService) ListForTeam(ctx context.Context, teamID, actorID string) ([]*domain.Invitation, error) {
	actor, err := s.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsOrganizer() {
		return nil, domain.ErrNotOrganizer
	}

	invitations, err := s.invRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, inv := range invitations {
		inv.Status = inv.EffectiveStatus(s.ttl, now)
	}
	return invitations, nil
}

// ListForInvitee returns the caller's live pending invitations
func (s *InvitationService) ListForInvitee(ctx context.Context, inviteeID string) ([]*domain.Invitation, error) {
	return s.invRepo.ListPendingForInvitee(ctx, inviteeID, s.ttl)
}

func (s *InvitationService) systemMessage(ctx context.Context, teamID, actorID, body string) {
	if s.chat == nil {
		return
	}
	if _, err := s.chat.SendSystem(ctx, teamID, actorID, body); err != nil && s.logger != nil {
		s.logger.Warn("failed to emit system message", "team_id", teamID, "error", err)
	}
}
