package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamhub/collab-service/internal/bus"
	"github.com/teamhub/collab-service/internal/domain"
)

// drain собирает уже доставленные события без блокировки
func drain(sub *bus.Subscription) []bus.Event {
	var out []bus.Event
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestSendPersistsAndPublishesInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	team := env.team(t, "alice")

	sub, err := env.chat.Subscribe(ctx, team.ID, "alice")
	require.NoError(t, err)
	defer sub.Close()

	first, err := env.chat.Send(ctx, team.ID, "alice", "first")
	require.NoError(t, err)
	second, err := env.chat.Send(ctx, team.ID, "alice", "second")
	require.NoError(t, err)

	require.True(t, first.Before(second), "commit order must match creation order")

	events := drain(sub)
	require.Len(t, events, 2)
	assert.Equal(t, bus.EventCreated, events[0].Type)
	assert.Equal(t, first.ID, events[0].Message.ID)
	assert.Equal(t, second.ID, events[1].Message.ID)
	assert.Less(t, events[0].Seq, events[1].Seq)
}

func TestSendRejectsNonMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	env.profile("mallory", "Mallory")
	team := env.team(t, "alice")

	_, err := env.chat.Send(ctx, team.ID, "mallory", "hi")
	require.ErrorIs(t, err, domain.ErrNotMember)

	_, err = env.chat.Subscribe(ctx, team.ID, "mallory")
	require.ErrorIs(t, err, domain.ErrNotMember)
}

func TestSendRejectsRemovedMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	env.profile("bob", "Bob")
	team := env.team(t, "alice")

	_, err := env.members.AddMember(ctx, team.ID, "bob", domain.RoleMember)
	require.NoError(t, err)
	require.NoError(t, env.members.RemoveMember(ctx, team.ID, "bob", "alice"))

	_, err = env.chat.Send(ctx, team.ID, "bob", "still here?")
	require.ErrorIs(t, err, domain.ErrNotMember)
}

func TestSendValidatesBody(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	team := env.team(t, "alice")

	_, err := env.chat.Send(ctx, team.ID, "alice", "   ")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.chat.Send(ctx, team.ID, "alice", strings.Repeat("x", domain.MaxMessageBodyLen+1))
	require.ErrorIs(t, err, domain.ErrValidation)

	// Ровно на границе — допустимо
	_, err = env.chat.Send(ctx, team.ID, "alice", strings.Repeat("x", domain.MaxMessageBodyLen))
	require.NoError(t, err)
}

func TestEditMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	env.profile("bob", "Bob")
	team := env.team(t, "alice")
	_, err := env.members.AddMember(ctx, team.ID, "bob", domain.RoleMember)
	require.NoError(t, err)

	msg, err := env.chat.Send(ctx, team.ID, "alice", "typo")
	require.NoError(t, err)

	sub, err := env.chat.Subscribe(ctx, team.ID, "bob")
	require.NoError(t, err)
	defer sub.Close()

	// Редактировать может только отправитель
	_, err = env.chat.Edit(ctx, msg.ID, "bob", "fixed")
	require.ErrorIs(t, err, domain.ErrNotSender)

	updated, err := env.chat.Edit(ctx, msg.ID, "alice", "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", updated.Body)
	assert.True(t, updated.IsEdited)
	require.NotNil(t, updated.EditedAt)

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventUpdated, events[0].Type)
	assert.Equal(t, "fixed", events[0].Message.Body)
	assert.True(t, events[0].Message.IsEdited)
}

func TestSystemMessagesAreImmutable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	team := env.team(t, "alice")

	// Создание команды публикует системное сообщение
	history, err := env.chat.History(ctx, team.ID, "alice", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	system := history[0]
	require.Equal(t, domain.KindSystem, system.Kind)

	_, err = env.chat.Edit(ctx, system.ID, "alice", "rewritten history")
	require.ErrorIs(t, err, domain.ErrSystemMessage)

	_, err = env.chat.Delete(ctx, system.ID, "alice")
	require.ErrorIs(t, err, domain.ErrSystemMessage)
}

func TestDeleteIsSoftAndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	env.profile("bob", "Bob")
	team := env.team(t, "alice")
	_, err := env.members.AddMember(ctx, team.ID, "bob", domain.RoleMember)
	require.NoError(t, err)

	msg, err := env.chat.Send(ctx, team.ID, "alice", "regret")
	require.NoError(t, err)

	sub, err := env.chat.Subscribe(ctx, team.ID, "bob")
	require.NoError(t, err)
	defer sub.Close()

	// Удалить может только отправитель
	_, err = env.chat.Delete(ctx, msg.ID, "bob")
	require.ErrorIs(t, err, domain.ErrNotSender)

	deleted, err := env.chat.Delete(ctx, msg.ID, "alice")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.Empty(t, deleted.Body)
	assert.Equal(t, domain.TombstoneBody, deleted.DisplayBody())

	// Повторное удаление — no-op, без нового события
	_, err = env.chat.Delete(ctx, msg.ID, "alice")
	require.NoError(t, err)

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventDeleted, events[0].Type)
	assert.True(t, events[0].Message.Deleted)

	// Редактировать удалённое нельзя
	_, err = env.chat.Edit(ctx, msg.ID, "alice", "undo")
	require.ErrorIs(t, err, domain.ErrMessageDeleted)

	// Строка остаётся в истории как tombstone
	history, err := env.chat.History(ctx, team.ID, "alice", nil, 50)
	require.NoError(t, err)
	found := false
	for _, m := range history {
		if m.ID == msg.ID {
			found = true
			assert.True(t, m.Deleted)
		}
	}
	assert.True(t, found, "deleted message must stay in the log")
}

func TestDeleteUnknownMessage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.chat.Delete(context.Background(), "msg-none", "alice")
	require.ErrorIs(t, err, domain.ErrMessageNotFound)
	require.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestHistoryOrderingAndPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	team := env.team(t, "alice")

	var sent []*domain.Message
	for _, body := range []string{"one", "two", "three", "four"} {
		msg, err := env.chat.Send(ctx, team.ID, "alice", body)
		require.NoError(t, err)
		sent = append(sent, msg)
	}

	history, err := env.chat.History(ctx, team.ID, "alice", nil, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// Последняя страница, в хронологическом порядке
	assert.Equal(t, sent[1].ID, history[0].ID)
	assert.Equal(t, sent[3].ID, history[2].ID)

	// Страница до второго сообщения
	older, err := env.chat.History(ctx, team.ID, "alice", &sent[1].CreatedAt, 50)
	require.NoError(t, err)
	var ids []string
	for _, m := range older {
		if m.Kind == domain.KindText {
			ids = append(ids, m.ID)
		}
	}
	assert.Equal(t, []string{sent[0].ID}, ids)

	_, err = env.chat.History(ctx, team.ID, "stranger", nil, 10)
	require.ErrorIs(t, err, domain.ErrNotMember)
}

func TestHistoryClampsLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	team := env.team(t, "alice")

	for i := 0; i < 60; i++ {
		_, err := env.chat.Send(ctx, team.ID, "alice", "ping")
		require.NoError(t, err)
	}

	history, err := env.chat.History(ctx, team.ID, "alice", nil, 500)
	require.NoError(t, err)
	assert.Len(t, history, 50)

	history, err = env.chat.History(ctx, team.ID, "alice", nil, 0)
	require.NoError(t, err)
	assert.Len(t, history, 50)
}

func TestEventsIsolatedPerTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.profile("alice", "Alice")
	teamA := env.team(t, "alice")
	teamB := env.team(t, "alice")

	subA, err := env.chat.Subscribe(ctx, teamA.ID, "alice")
	require.NoError(t, err)
	defer subA.Close()
	subB, err := env.chat.Subscribe(ctx, teamB.ID, "alice")
	require.NoError(t, err)
	defer subB.Close()

	_, err = env.chat.Send(ctx, teamA.ID, "alice", "only for A")
	require.NoError(t, err)

	assert.Len(t, drain(subA), 1)
	assert.Empty(t, drain(subB))
}

func TestSubscriptionClosesOnContextCancel(t *testing.T) {
	env := newTestEnv(t)

	env.profile("alice", "Alice")
	team := env.team(t, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := env.chat.Subscribe(ctx, team.ID, "alice")
	require.NoError(t, err)

	cancel()

	// Канал закрывается после отмены контекста
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription was not closed after context cancel")
		}
	}
}
