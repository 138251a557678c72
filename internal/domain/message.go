package domain

import "time"

// MessageKind представляет тип сообщения
type MessageKind string

// Возможные типы сообщений. Системные сообщения создаются процессами
// членства и приглашений и неизменяемы.
const (
	KindText   MessageKind = "text"
	KindSystem MessageKind = "system"
)

// TombstoneBody подставляется вместо текста мягко удаленного сообщения
const TombstoneBody = "[message deleted]"

// MaxMessageBodyLen ограничивает длину текста сообщения
const MaxMessageBodyLen = 4000

// Message представляет сообщение в чате команды
type Message struct {
	ID        string      `json:"id"`
	TeamID    string      `json:"team_id"`
	SenderID  string      `json:"sender_id"`
	Body      string      `json:"body"`
	Kind      MessageKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
	EditedAt  *time.Time  `json:"edited_at,omitempty"`
	IsEdited  bool        `json:"is_edited"`
	Deleted   bool        `json:"deleted"`
}

// DisplayBody возвращает текст для отображения: для удаленных сообщений
// это маркер-надгробие, оригинальный текст не раскрывается.
func (m *Message) DisplayBody() string {
	if m.Deleted {
		return TombstoneBody
	}
	return m.Body
}

// Before сравнивает сообщения по ключу упорядочивания (created_at, id).
// ID разрывает связи детерминированно при равных временных метках.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
