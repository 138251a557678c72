package domain

import "time"

// Role представляет роль участника внутри команды
type Role string

// Возможные роли участника
const (
	RoleOrganizer Role = "organizer" // Административные права: приглашения, удаление участников, удаление команды
	RoleMember    Role = "member"    // Обычный участник
)

// IsValid проверяет что роль принадлежит закрытому множеству
func (r Role) IsValid() bool {
	return r == RoleOrganizer || r == RoleMember
}

// MembershipStatus представляет статус членства
type MembershipStatus string

// Возможные статусы членства. Строки членства никогда не удаляются физически,
// статус removed сохраняет историю для аудита.
const (
	MembershipActive  MembershipStatus = "active"
	MembershipRemoved MembershipStatus = "removed"
)

// Membership представляет связь пользователя с командой
type Membership struct {
	TeamID   string           `json:"team_id"`
	UserID   string           `json:"user_id"`
	Role     Role             `json:"role"`
	Status   MembershipStatus `json:"status"`
	JoinedAt time.Time        `json:"joined_at"`
}

// IsActive возвращает true если членство активно
func (m *Membership) IsActive() bool {
	return m.Status == MembershipActive
}

// IsOrganizer возвращает true для активного организатора
func (m *Membership) IsOrganizer() bool {
	return m.IsActive() && m.Role == RoleOrganizer
}

// Member представляет членство, дополненное полями профиля для отображения
type Member struct {
	Membership
	DisplayName string `json:"display_name"`
	AvatarKey   string `json:"avatar_key,omitempty"`
}
