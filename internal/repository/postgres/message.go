package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamhub/collab-service/internal/domain"
)

// MessageRepository реализует repository.MessageRepository для PostgreSQL
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository создает новый экземпляр MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, team_id, sender_id, body, kind, created_at, edited_at, is_edited, deleted`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.ID,
		&m.TeamID,
		&m.SenderID,
		&m.Body,
		&m.Kind,
		&m.CreatedAt,
		&m.EditedAt,
		&m.IsEdited,
		&m.Deleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Insert создает сообщение, id и created_at назначает БД
func (r *MessageRepository) Insert(ctx context.Context, teamID, senderID, body string, kind domain.MessageKind) (*domain.Message, error) {
	query := `
		INSERT INTO messages (team_id, sender_id, body, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	return scanMessage(r.db.QueryRow(ctx, query, teamID, senderID, body, kind))
}

// GetByID получает сообщение по ID
func (r *MessageRepository) GetByID(ctx context.Context, messageID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	return scanMessage(r.db.QueryRow(ctx, query, messageID))
}

// UpdateBody заменяет текст сообщения. Guarded UPDATE по deleted=false,
// чтобы редактирование не воскресило удаленное сообщение при гонке.
func (r *MessageRepository) UpdateBody(ctx context.Context, messageID, body string, editedAt time.Time) (*domain.Message, error) {
	query := `
		UPDATE messages
		SET body = $2, edited_at = $3, is_edited = TRUE
		WHERE id = $1 AND deleted = FALSE
		RETURNING ` + messageColumns

	msg, err := scanMessage(r.db.QueryRow(ctx, query, messageID, body, editedAt))
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return nil, domain.ErrMessageDeleted
		}
		return nil, err
	}
	return msg, nil
}

// SoftDelete помечает сообщение удаленным и затирает текст. Повторное
// удаление идемпотентно возвращает текущую строку.
func (r *MessageRepository) SoftDelete(ctx context.Context, messageID string) (*domain.Message, error) {
	query := `
		UPDATE messages
		SET deleted = TRUE, body = ''
		WHERE id = $1
		RETURNING ` + messageColumns

	return scanMessage(r.db.QueryRow(ctx, query, messageID))
}

// ListByTeam возвращает страницу истории в порядке (created_at, id)
func (r *MessageRepository) ListByTeam(ctx context.Context, teamID string, before *time.Time, limit int) ([]*domain.Message, error) {
	// Страница выбирается с хвоста истории по убыванию и разворачивается,
	// чтобы вызывающий всегда получал хронологический порядок.
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE team_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, teamID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
