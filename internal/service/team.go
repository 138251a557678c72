package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/repository"
)

// MembersCache is the derived membership view invalidated on every
// mutation. A nil cache disables caching entirely.
type MembersCache interface {
	Get(ctx context.Context, teamID string) ([]*domain.Member, bool)
	Set(ctx context.Context, teamID string, members []*domain.Member)
	Invalidate(ctx context.Context, teamID string)
}

// MembershipService handles business logic for teams and memberships and
// enforces the membership invariants before every mutation.
type MembershipService struct {
	teamRepo    repository.TeamRepository
	memberRepo  repository.MembershipRepository
	profileRepo repository.ProfileRepository
	chat        *ChatService
	cache       MembersCache
	logger      *slog.Logger
}

// NewMembershipService creates a new MembershipService. cache may be nil.
func NewMembershipService(
	teamRepo repository.TeamRepository,
	memberRepo repository.MembershipRepository,
	profileRepo repository.ProfileRepository,
	chat *ChatService,
	cache MembersCache,
	logger *slog.Logger,
) *MembershipService {
	return &MembershipService{
		teamRepo:    teamRepo,
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
		chat:        chat,
		cache:       cache,
		logger:      logger,
	}
}

// CreateTeam validates the spec and creates the team together with the
// creator's organizer membership in one transaction.
func (s *MembershipService) CreateTeam(ctx context.Context, creatorID string, spec domain.TeamSpec) (*domain.Team, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	// Creator must have a known profile
	creator, err := s.profileRepo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.CreateWithOrganizer(ctx, spec, creatorID)
	if err != nil {
		return nil, err
	}

	s.systemMessage(ctx, team.ID, creatorID, fmt.Sprintf("%s created the team", creator.DisplayName))
	return team, nil
}

// GetTeam retrieves a team by id
func (s *MembershipService) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	return s.teamRepo.GetByID(ctx, teamID)
}

// UpdateTeam updates team attributes; only an organizer may do it
func (s *MembershipService) UpdateTeam(ctx context.Context, teamID, actorID string, spec domain.TeamSpec) (*domain.Team, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireOrganizer(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	return s.teamRepo.Update(ctx, teamID, spec)
}

// DeleteTeam deletes the team with all memberships, invitations and
// messages; only an organizer may do it.
func (s *MembershipService) DeleteTeam(ctx context.Context, teamID, actorID string) error {
	if err := s.requireOrganizer(ctx, teamID, actorID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return err
	}
	s.invalidate(ctx, teamID)
	return nil
}

// AddMember creates an active membership. Invoked only as a side effect of
// invitation acceptance; the repository uniqueness check is the
// authoritative guard against concurrent joins.
func (s *MembershipService) AddMember(ctx context.Context, teamID, userID string, role domain.Role) (*domain.Membership, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	m, err := s.memberRepo.Add(ctx, teamID, userID, role)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, teamID)
	return m, nil
}

// RemoveMember marks a membership removed. The actor must be an organizer
// or be removing themself; removing the last active organizer is rejected.
func (s *MembershipService) RemoveMember(ctx context.Context, teamID, userID, actorID string) error {
	if actorID != userID {
		if err := s.requireOrganizer(ctx, teamID, actorID); err != nil {
			return err
		}
	}

	if err := s.memberRepo.Remove(ctx, teamID, userID); err != nil {
		return err
	}

	s.invalidate(ctx, teamID)

	if profile, err := s.profileRepo.GetByID(ctx, userID); err == nil {
		verb := "left the team"
		if actorID != userID {
			verb = "was removed from the team"
		}
		s.systemMessage(ctx, teamID, userID, fmt.Sprintf("%s %s", profile.DisplayName, verb))
	}

	return nil
}

// ListMembers returns active memberships with profile display fields,
// organizers first. Served from the cache when warm.
func (s *MembershipService) ListMembers(ctx context.Context, teamID string) ([]*domain.Member, error) {
	if s.cache != nil {
		if members, ok := s.cache.Get(ctx, teamID); ok {
			return members, nil
		}
	}

	members, err := s.memberRepo.ListActive(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, teamID, members)
	}
	return members, nil
}

// ListTeamsForUser returns the teams where the user is an active member
func (s *MembershipService) ListTeamsForUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	return s.memberRepo.ListTeamsForUser(ctx, userID)
}

func (s *MembershipService) requireOrganizer(ctx context.Context, teamID, actorID string) error {
	m, err := s.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	if !m.IsOrganizer() {
		return domain.ErrNotOrganizer
	}
	return nil
}

func (s *MembershipService) invalidate(ctx context.Context, teamID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, teamID)
	}
}

// systemMessage emits a system chat message; failures are logged, never
// surfaced, because the membership change itself is already committed.
func (s *MembershipService) systemMessage(ctx context.Context, teamID, actorID, body string) {
	if s.chat == nil {
		return
	}
	if _, err := s.chat.SendSystem(ctx, teamID, actorID, body); err != nil && s.logger != nil {
		s.logger.Warn("failed to emit system message", "team_id", teamID, "error", err)
	}
}
