package repository

import (
	"context"
	"time"

	"github.com/teamhub/collab-service/internal/domain"
)

// TeamRepository определяет методы для работы с данными команд
type TeamRepository interface {
	// CreateWithOrganizer создает команду и членство организатора-создателя
	// в одной транзакции, возвращает снимок созданной команды
	CreateWithOrganizer(ctx context.Context, spec domain.TeamSpec, creatorID string) (*domain.Team, error)

	// GetByID получает команду по ID
	GetByID(ctx context.Context, teamID string) (*domain.Team, error)

	// Update обновляет атрибуты команды
	Update(ctx context.Context, teamID string, spec domain.TeamSpec) (*domain.Team, error)

	// Delete удаляет команду; членства, приглашения и сообщения удаляются каскадно
	Delete(ctx context.Context, teamID string) error
}

// MembershipRepository определяет методы для работы с членствами
type MembershipRepository interface {
	// Add создает активное членство или реактивирует removed-строку.
	// Возвращает domain.ErrAlreadyMember при существующем активном членстве.
	Add(ctx context.Context, teamID, userID string, role domain.Role) (*domain.Membership, error)

	// Get получает строку членства (активную или removed)
	Get(ctx context.Context, teamID, userID string) (*domain.Membership, error)

	// Remove помечает членство removed. Возвращает domain.ErrLastOrganizer
	// если удаление оставило бы команду без активных организаторов,
	// domain.ErrNotMember если активного членства нет.
	Remove(ctx context.Context, teamID, userID string) error

	// ListActive возвращает активные членства с полями профиля,
	// организаторы первыми, далее по joined_at
	ListActive(ctx context.Context, teamID string) ([]*domain.Member, error)

	// ActiveUserIDs возвращает ID пользователей с активным членством
	ActiveUserIDs(ctx context.Context, teamID string) ([]string, error)

	// CountActiveOrganizers возвращает число активных организаторов команды
	CountActiveOrganizers(ctx context.Context, teamID string) (int, error)

	// ListTeamsForUser возвращает команды, где у пользователя активное членство
	ListTeamsForUser(ctx context.Context, userID string) ([]*domain.Team, error)
}

// InvitationRepository определяет методы для работы с приглашениями
type InvitationRepository interface {
	// Create создает pending-приглашение. Возвращает
	// domain.ErrDuplicateInvitation при существующем pending для той же пары.
	Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error)

	// GetByID получает приглашение по ID
	GetByID(ctx context.Context, invitationID string) (*domain.Invitation, error)

	// Accept транзакционно переводит pending-приглашение в accepted и создает
	// членство с ролью member. При конфликте членства вся транзакция
	// откатывается и приглашение остается pending.
	Accept(ctx context.Context, invitationID string, respondedAt time.Time) (*domain.Invitation, error)

	// Decline переводит pending-приглашение в declined без побочных эффектов
	Decline(ctx context.Context, invitationID string, respondedAt time.Time) (*domain.Invitation, error)

	// ListByTeam возвращает приглашения команды, новые первыми
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Invitation, error)

	// ListPendingForInvitee возвращает pending-приглашения пользователя
	// не старше ttl (протухшие отфильтровываются на чтении)
	ListPendingForInvitee(ctx context.Context, inviteeID string, ttl time.Duration) ([]*domain.Invitation, error)
}

// MessageRepository определяет методы для работы с сообщениями чата
type MessageRepository interface {
	// Insert создает сообщение и возвращает снимок с id и created_at из БД
	Insert(ctx context.Context, teamID, senderID, body string, kind domain.MessageKind) (*domain.Message, error)

	// GetByID получает сообщение по ID
	GetByID(ctx context.Context, messageID string) (*domain.Message, error)

	// UpdateBody заменяет текст сообщения и проставляет отметку редактирования
	UpdateBody(ctx context.Context, messageID, body string, editedAt time.Time) (*domain.Message, error)

	// SoftDelete помечает сообщение удаленным и затирает текст, строка
	// сохраняется для аудита
	SoftDelete(ctx context.Context, messageID string) (*domain.Message, error)

	// ListByTeam возвращает сообщения команды в порядке (created_at, id),
	// не более limit штук, при заданном before — строго более старые
	ListByTeam(ctx context.Context, teamID string, before *time.Time, limit int) ([]*domain.Message, error)
}

// ProfileRepository определяет методы чтения профилей (внешняя сущность)
type ProfileRepository interface {
	// GetByID получает профиль по ID пользователя
	GetByID(ctx context.Context, userID string) (*domain.Profile, error)

	// FindDiscoverable ищет публично видимые профили с включенной
	// коллаборацией по фильтрам, исключая перечисленных пользователей.
	// Порядок детерминирован: релевантность по убыванию, затем user_id.
	FindDiscoverable(ctx context.Context, filters domain.DirectoryFilters, excludeIDs []string, limit int) ([]*domain.Profile, error)
}
