package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamhub/collab-service/internal/bus"
	"github.com/teamhub/collab-service/internal/domain"
)

const testInviteTTL = 7 * 24 * time.Hour

// testEnv wires all services over one shared fake store
type testEnv struct {
	store     *fakeStore
	cache     *fakeCache
	bus       *bus.Bus
	chat      *ChatService
	members   *MembershipService
	invites   *InvitationService
	directory *DirectoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	cache := newFakeCache()
	eventBus := bus.New(64)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	teams := &fakeTeams{s: store}
	memberships := &fakeMemberships{s: store}
	invitations := &fakeInvitations{s: store}
	messages := &fakeMessages{s: store}
	profiles := &fakeProfiles{s: store}

	chat := NewChatService(messages, memberships, eventBus, 50)

	invites := NewInvitationService(invitations, memberships, profiles, chat, cache, testInviteTTL, logger)
	// Часы сервиса следуют за часами фейкового хранилища
	invites.now = func() time.Time { return store.clock }

	return &testEnv{
		store:     store,
		cache:     cache,
		bus:       eventBus,
		chat:      chat,
		members:   NewMembershipService(teams, memberships, profiles, chat, cache, logger),
		invites:   invites,
		directory: NewDirectoryService(profiles, memberships, 20),
	}
}

func (e *testEnv) profile(userID, name string) {
	e.store.addProfile(&domain.Profile{
		UserID:        userID,
		DisplayName:   name,
		Discoverable:  true,
		CollabEnabled: true,
	})
}

func (e *testEnv) team(t *testing.T, creatorID string) *domain.Team {
	t.Helper()
	team, err := e.members.CreateTeam(context.Background(), creatorID, domain.TeamSpec{
		Name:        "Roofing Crew",
		Description: "We fix roofs across the city",
		Skills:      []string{"Roofing"},
	})
	require.NoError(t, err)
	return team
}

// organizerCount asserts the invariant that every team keeps at least one
// active organizer
func (e *testEnv) organizerCount(t *testing.T, teamID string) int {
	t.Helper()
	count, err := (&fakeMemberships{s: e.store}).CountActiveOrganizers(context.Background(), teamID)
	require.NoError(t, err)
	return count
}
