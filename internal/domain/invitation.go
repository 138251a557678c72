package domain

import "time"

// InvitationStatus представляет статус приглашения
type InvitationStatus string

// Возможные статусы приглашения. pending — начальный, остальные терминальные
// и неизменяемы после установки.
const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// IsTerminal возвращает true для терминальных статусов
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined || s == InvitationExpired
}

// Invitation представляет предложение пользователю вступить в команду
type Invitation struct {
	ID          string           `json:"id"`
	TeamID      string           `json:"team_id"`
	InviterID   string           `json:"inviter_id"`
	InviteeID   string           `json:"invitee_id"`
	Message     string           `json:"message,omitempty"`
	Status      InvitationStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// EffectiveStatus возвращает статус с учетом TTL. Протухание — это
// классификация на чтении: pending-приглашение старше ttl считается expired,
// строка в хранилище при этом не переписывается.
func (i *Invitation) EffectiveStatus(ttl time.Duration, now time.Time) InvitationStatus {
	if i.Status == InvitationPending && now.Sub(i.CreatedAt) > ttl {
		return InvitationExpired
	}
	return i.Status
}

// IsExpired возвращает true если pending-приглашение протухло по возрасту
func (i *Invitation) IsExpired(ttl time.Duration, now time.Time) bool {
	return i.EffectiveStatus(ttl, now) == InvitationExpired && i.Status == InvitationPending
}
