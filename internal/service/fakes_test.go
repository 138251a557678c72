package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teamhub/collab-service/internal/domain"
)

// fakeStore is a shared in-memory backing store. Per-interface adapter
// types below expose it with the same guarded semantics as the postgres
// repositories.
type fakeStore struct {
	mu          sync.Mutex
	teams       map[string]*domain.Team
	memberships map[string]map[string]*domain.Membership
	invitations map[string]*domain.Invitation
	messages    []*domain.Message
	profiles    map[string]*domain.Profile
	nextID      int
	clock       time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		teams:       make(map[string]*domain.Team),
		memberships: make(map[string]map[string]*domain.Membership),
		invitations: make(map[string]*domain.Invitation),
		profiles:    make(map[string]*domain.Profile),
		clock:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%04d", prefix, f.nextID)
}

// tick advances the fake clock so created_at values stay strictly ordered
func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) addProfile(p *domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.UserID] = p
}

func (f *fakeStore) addLocked(teamID, userID string, role domain.Role) (*domain.Membership, error) {
	rows, ok := f.memberships[teamID]
	if !ok {
		rows = make(map[string]*domain.Membership)
		f.memberships[teamID] = rows
	}
	if existing, ok := rows[userID]; ok && existing.Status == domain.MembershipActive {
		return nil, domain.ErrAlreadyMember
	}
	m := &domain.Membership{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		Status:   domain.MembershipActive,
		JoinedAt: f.tick(),
	}
	rows[userID] = m
	return m, nil
}

// fakeTeams implements repository.TeamRepository
type fakeTeams struct{ s *fakeStore }

func (r *fakeTeams) CreateWithOrganizer(_ context.Context, spec domain.TeamSpec, creatorID string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	team := &domain.Team{
		ID:          r.s.id("team"),
		Name:        spec.Name,
		Description: spec.Description,
		Skills:      spec.Skills,
		Location:    spec.Location,
		Links:       spec.Links,
		AvatarKey:   spec.AvatarKey,
		CreatedAt:   r.s.tick(),
	}
	r.s.teams[team.ID] = team
	r.s.memberships[team.ID] = map[string]*domain.Membership{
		creatorID: {
			TeamID:   team.ID,
			UserID:   creatorID,
			Role:     domain.RoleOrganizer,
			Status:   domain.MembershipActive,
			JoinedAt: team.CreatedAt,
		},
	}
	return team, nil
}

func (r *fakeTeams) GetByID(_ context.Context, teamID string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	return team, nil
}

func (r *fakeTeams) Update(_ context.Context, teamID string, spec domain.TeamSpec) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	team.Name = spec.Name
	team.Description = spec.Description
	team.Skills = spec.Skills
	team.Location = spec.Location
	team.Links = spec.Links
	team.AvatarKey = spec.AvatarKey
	return team, nil
}

func (r *fakeTeams) Delete(_ context.Context, teamID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[teamID]; !ok {
		return domain.ErrTeamNotFound
	}
	delete(r.s.teams, teamID)
	delete(r.s.memberships, teamID)
	for id, inv := range r.s.invitations {
		if inv.TeamID == teamID {
			delete(r.s.invitations, id)
		}
	}
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.TeamID != teamID {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

// fakeMemberships implements repository.MembershipRepository
type fakeMemberships struct{ s *fakeStore }

func (r *fakeMemberships) Add(_ context.Context, teamID, userID string, role domain.Role) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.addLocked(teamID, userID, role)
}

func (r *fakeMemberships) Get(_ context.Context, teamID, userID string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.memberships[teamID][userID]; ok {
		return m, nil
	}
	return nil, domain.ErrNotMember
}

func (r *fakeMemberships) Remove(_ context.Context, teamID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memberships[teamID][userID]
	if !ok || m.Status != domain.MembershipActive {
		return domain.ErrNotMember
	}
	if m.Role == domain.RoleOrganizer {
		organizers := 0
		for _, row := range r.s.memberships[teamID] {
			if row.UserID != userID && row.Role == domain.RoleOrganizer && row.Status == domain.MembershipActive {
				organizers++
			}
		}
		if organizers == 0 {
			return domain.ErrLastOrganizer
		}
	}
	m.Status = domain.MembershipRemoved
	return nil
}

func (r *fakeMemberships) ListActive(_ context.Context, teamID string) ([]*domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var members []*domain.Member
	for _, m := range r.s.memberships[teamID] {
		if m.Status != domain.MembershipActive {
			continue
		}
		member := &domain.Member{Membership: *m}
		if p, ok := r.s.profiles[m.UserID]; ok {
			member.DisplayName = p.DisplayName
			member.AvatarKey = p.AvatarKey
		}
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		if (members[i].Role == domain.RoleOrganizer) != (members[j].Role == domain.RoleOrganizer) {
			return members[i].Role == domain.RoleOrganizer
		}
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
	return members, nil
}

func (r *fakeMemberships) ActiveUserIDs(_ context.Context, teamID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, m := range r.s.memberships[teamID] {
		if m.Status == domain.MembershipActive {
			ids = append(ids, m.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeMemberships) CountActiveOrganizers(_ context.Context, teamID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, m := range r.s.memberships[teamID] {
		if m.Role == domain.RoleOrganizer && m.Status == domain.MembershipActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeMemberships) ListTeamsForUser(_ context.Context, userID string) ([]*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var teams []*domain.Team
	for teamID, rows := range r.s.memberships {
		if m, ok := rows[userID]; ok && m.Status == domain.MembershipActive {
			if team, ok := r.s.teams[teamID]; ok {
				teams = append(teams, team)
			}
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// fakeInvitations implements repository.InvitationRepository. Like the
// postgres repository it returns row snapshots, not shared pointers.
type fakeInvitations struct{ s *fakeStore }

func copyInvitation(inv *domain.Invitation) *domain.Invitation {
	c := *inv
	return &c
}

func (r *fakeInvitations) Create(_ context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.invitations {
		if existing.TeamID == inv.TeamID && existing.InviteeID == inv.InviteeID && existing.Status == domain.InvitationPending {
			return nil, domain.ErrDuplicateInvitation
		}
	}
	created := &domain.Invitation{
		ID:        r.s.id("inv"),
		TeamID:    inv.TeamID,
		InviterID: inv.InviterID,
		InviteeID: inv.InviteeID,
		Message:   inv.Message,
		Status:    domain.InvitationPending,
		CreatedAt: r.s.tick(),
	}
	r.s.invitations[created.ID] = created
	return created, nil
}

func (r *fakeInvitations) GetByID(_ context.Context, invitationID string) (*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invitations[invitationID]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	return copyInvitation(inv), nil
}

func (r *fakeInvitations) Accept(_ context.Context, invitationID string, respondedAt time.Time) (*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invitations[invitationID]
	if !ok || inv.Status != domain.InvitationPending {
		return nil, domain.ErrInvitationClosed
	}
	// Membership conflict rolls the whole transition back
	if _, err := r.s.addLocked(inv.TeamID, inv.InviteeID, domain.RoleMember); err != nil {
		return nil, err
	}
	inv.Status = domain.InvitationAccepted
	inv.RespondedAt = &respondedAt
	return copyInvitation(inv), nil
}

func (r *fakeInvitations) Decline(_ context.Context, invitationID string, respondedAt time.Time) (*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invitations[invitationID]
	if !ok || inv.Status != domain.InvitationPending {
		return nil, domain.ErrInvitationClosed
	}
	inv.Status = domain.InvitationDeclined
	inv.RespondedAt = &respondedAt
	return copyInvitation(inv), nil
}

func (r *fakeInvitations) ListByTeam(_ context.Context, teamID string) ([]*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Invitation
	for _, inv := range r.s.invitations {
		if inv.TeamID == teamID {
			out = append(out, copyInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeInvitations) ListPendingForInvitee(_ context.Context, inviteeID string, ttl time.Duration) ([]*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Invitation
	for _, inv := range r.s.invitations {
		if inv.InviteeID == inviteeID && inv.Status == domain.InvitationPending && r.s.clock.Sub(inv.CreatedAt) <= ttl {
			out = append(out, copyInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// fakeMessages implements repository.MessageRepository
type fakeMessages struct{ s *fakeStore }

func (r *fakeMessages) Insert(_ context.Context, teamID, senderID, body string, kind domain.MessageKind) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg := &domain.Message{
		ID:        r.s.id("msg"),
		TeamID:    teamID,
		SenderID:  senderID,
		Body:      body,
		Kind:      kind,
		CreatedAt: r.s.tick(),
	}
	r.s.messages = append(r.s.messages, msg)
	return msg, nil
}

func (r *fakeMessages) GetByID(_ context.Context, messageID string) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (r *fakeMessages) UpdateBody(_ context.Context, messageID, body string, editedAt time.Time) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == messageID {
			if m.Deleted {
				return nil, domain.ErrMessageDeleted
			}
			m.Body = body
			m.EditedAt = &editedAt
			m.IsEdited = true
			return m, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (r *fakeMessages) SoftDelete(_ context.Context, messageID string) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == messageID {
			m.Deleted = true
			m.Body = ""
			return m, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (r *fakeMessages) ListByTeam(_ context.Context, teamID string, before *time.Time, limit int) ([]*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.s.messages {
		if m.TeamID != teamID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// fakeProfiles implements repository.ProfileRepository
type fakeProfiles struct{ s *fakeStore }

func (r *fakeProfiles) GetByID(_ context.Context, userID string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfiles) FindDiscoverable(_ context.Context, filters domain.DirectoryFilters, excludeIDs []string, limit int) ([]*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	type scored struct {
		profile *domain.Profile
		score   int
	}
	var results []scored
	for _, p := range r.s.profiles {
		if !p.Discoverable || !p.CollabEnabled {
			continue
		}
		if _, ok := excluded[p.UserID]; ok {
			continue
		}
		score := 0
		if filters.Text != "" {
			nameHit := strings.Contains(strings.ToLower(p.DisplayName), strings.ToLower(filters.Text))
			bioHit := strings.Contains(strings.ToLower(p.Bio), strings.ToLower(filters.Text))
			if !nameHit && !bioHit {
				continue
			}
			if nameHit {
				score += 2
			}
			if bioHit {
				score++
			}
		}
		if filters.Skill != "" {
			hit := false
			for _, skill := range p.Skills {
				if skill == filters.Skill {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		if filters.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(filters.Location)) {
			continue
		}
		results = append(results, scored{profile: p, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].profile.UserID < results[j].profile.UserID
	})

	var out []*domain.Profile
	for _, res := range results {
		if len(out) == limit {
			break
		}
		out = append(out, res.profile)
	}
	return out, nil
}

// fakeCache records invalidations for assertions
type fakeCache struct {
	mu          sync.Mutex
	store       map[string][]*domain.Member
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]*domain.Member)}
}

func (c *fakeCache) Get(_ context.Context, teamID string) ([]*domain.Member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	members, ok := c.store[teamID]
	return members, ok
}

func (c *fakeCache) Set(_ context.Context, teamID string, members []*domain.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[teamID] = members
}

func (c *fakeCache) Invalidate(_ context.Context, teamID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, teamID)
	c.invalidated = append(c.invalidated, teamID)
}
