package service

import (
	"context"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/repository"
)

// DirectoryService searches the professional directory for invitable
// profiles: publicly discoverable, collaboration-enabled, and not already
// part of the target team.
type DirectoryService struct {
	profileRepo repository.ProfileRepository
	memberRepo  repository.MembershipRepository
	pageSize    int
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(profileRepo repository.ProfileRepository, memberRepo repository.MembershipRepository, pageSize int) *DirectoryService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &DirectoryService{
		profileRepo: profileRepo,
		memberRepo:  memberRepo,
		pageSize:    pageSize,
	}
}

// FindInvitable returns candidate profiles matching the filters, excluding
// active members of the team and the caller. Ordering is deterministic
// (relevance, then user id) so pagination is reproducible.
func (s *DirectoryService) FindInvitable(ctx context.Context, teamID, actorID string, filters domain.DirectoryFilters) ([]*domain.Profile, error) {
	actor, err := s.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsActive() {
		return nil, domain.ErrNotMember
	}

	memberIDs, err := s.memberRepo.ActiveUserIDs(ctx, teamID)
	if err != nil {
		return nil, err
	}

	exclude := make([]string, 0, len(memberIDs)+1)
	seen := make(map[string]struct{}, len(memberIDs)+1)
	for _, id := range append(memberIDs, actorID) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		exclude = append(exclude, id)
	}

	return s.profileRepo.FindDiscoverable(ctx, filters, exclude, s.pageSize)
}
