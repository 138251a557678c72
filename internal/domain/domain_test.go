package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamSpecValidate(t *testing.T) {
	valid := TeamSpec{
		Name:        "Roofing Crew",
		Description: "We fix roofs across the city",
		Skills:      []string{"Roofing"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		spec TeamSpec
	}{
		{"short name", TeamSpec{Name: "R", Description: valid.Description, Skills: valid.Skills}},
		{"short description", TeamSpec{Name: valid.Name, Description: "too short", Skills: valid.Skills}},
		{"no skills", TeamSpec{Name: valid.Name, Description: valid.Description}},
		{"blank skills only", TeamSpec{Name: valid.Name, Description: valid.Description, Skills: []string{"  ", ""}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestInvitationEffectiveStatus(t *testing.T) {
	now := time.Now()
	ttl := 7 * 24 * time.Hour

	fresh := &Invitation{Status: InvitationPending, CreatedAt: now.Add(-time.Hour)}
	assert.Equal(t, InvitationPending, fresh.EffectiveStatus(ttl, now))
	assert.False(t, fresh.IsExpired(ttl, now))

	stale := &Invitation{Status: InvitationPending, CreatedAt: now.Add(-8 * 24 * time.Hour)}
	assert.Equal(t, InvitationExpired, stale.EffectiveStatus(ttl, now))
	assert.True(t, stale.IsExpired(ttl, now))

	// Терминальные статусы не переклассифицируются по возрасту
	accepted := &Invitation{Status: InvitationAccepted, CreatedAt: now.Add(-30 * 24 * time.Hour)}
	assert.Equal(t, InvitationAccepted, accepted.EffectiveStatus(ttl, now))
	assert.False(t, accepted.IsExpired(ttl, now))
}

func TestInvitationStatusIsTerminal(t *testing.T) {
	assert.False(t, InvitationPending.IsTerminal())
	assert.True(t, InvitationAccepted.IsTerminal())
	assert.True(t, InvitationDeclined.IsTerminal())
	assert.True(t, InvitationExpired.IsTerminal())
}

func TestMessageOrderingKey(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	earlier := &Message{ID: "b", CreatedAt: ts}
	later := &Message{ID: "a", CreatedAt: ts.Add(time.Second)}
	assert.True(t, earlier.Before(later))
	assert.False(t, later.Before(earlier))

	// При равных created_at порядок определяет id
	tieA := &Message{ID: "a", CreatedAt: ts}
	tieB := &Message{ID: "b", CreatedAt: ts}
	assert.True(t, tieA.Before(tieB))
	assert.False(t, tieB.Before(tieA))
}

func TestMessageDisplayBody(t *testing.T) {
	msg := &Message{Body: "hello"}
	assert.Equal(t, "hello", msg.DisplayBody())

	msg.Deleted = true
	assert.Equal(t, TombstoneBody, msg.DisplayBody())
}

func TestMapErrorToCode(t *testing.T) {
	assert.Equal(t, CodeAlreadyMember, MapErrorToCode(ErrAlreadyMember))
	assert.Equal(t, CodeLastOrganizer, MapErrorToCode(ErrLastOrganizer))
	assert.Equal(t, CodeInvitePending, MapErrorToCode(ErrDuplicateInvitation))
	assert.Equal(t, CodeNotFound, MapErrorToCode(ErrTeamNotFound))
	assert.Equal(t, CodeInternal, MapErrorToCode(errors.New("boom")))

	// Конкретные ошибки остаются проверяемыми и по категории
	assert.True(t, errors.Is(ErrAlreadyMember, ErrConflict))
	assert.True(t, errors.Is(ErrLastOrganizer, ErrInvariant))
	assert.True(t, errors.Is(ErrNotOrganizer, ErrForbidden))
}
