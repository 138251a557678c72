package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamhub/collab-service/internal/domain"
)

// InvitationRepository реализует repository.InvitationRepository для PostgreSQL
type InvitationRepository struct {
	db *pgxpool.Pool
}

// NewInvitationRepository создает новый экземпляр InvitationRepository
func NewInvitationRepository(db *pgxpool.Pool) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = `id, team_id, inviter_id, invitee_id, COALESCE(message, ''), status, created_at, responded_at`

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := row.Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.InviterID,
		&inv.InviteeID,
		&inv.Message,
		&inv.Status,
		&inv.CreatedAt,
		&inv.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Create создает pending-приглашение. Частичный уникальный индекс на
// (team_id, invitee_id) WHERE status='pending' — авторитетный страж гонки
// двух организаторов, приглашающих одного профессионала одновременно.
func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	query := `
		INSERT INTO invitations (team_id, inviter_id, invitee_id, message, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), 'pending')
		RETURNING ` + invitationColumns

	created, err := scanInvitation(r.db.QueryRow(ctx, query,
		inv.TeamID, inv.InviterID, inv.InviteeID, inv.Message))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, domain.ErrDuplicateInvitation
		}
		return nil, err
	}

	return created, nil
}

// GetByID получает приглашение по ID
func (r *InvitationRepository) GetByID(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	return scanInvitation(r.db.QueryRow(ctx, query, invitationID))
}

// Accept транзакционно принимает приглашение и создает членство. Guarded
// UPDATE по status='pending' защищает от двойного принятия; конфликт
// членства откатывает транзакцию целиком, статус остается pending.
func (r *InvitationRepository) Accept(ctx context.Context, invitationID string, respondedAt time.Time) (*domain.Invitation, error) {
	var accepted *domain.Invitation

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE invitations
			SET status = 'accepted', responded_at = $2
			WHERE id = $1 AND status = 'pending'
			RETURNING ` + invitationColumns

		inv, err := scanInvitation(tx.QueryRow(ctx, query, invitationID, respondedAt))
		if err != nil {
			if errors.Is(err, domain.ErrInvitationNotFound) {
				return domain.ErrInvitationClosed
			}
			return err
		}

		if _, err := addMembership(ctx, tx, inv.TeamID, inv.InviteeID, domain.RoleMember); err != nil {
			return err
		}

		accepted = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accepted, nil
}

// Decline переводит pending-приглашение в declined
func (r *InvitationRepository) Decline(ctx context.Context, invitationID string, respondedAt time.Time) (*domain.Invitation, error) {
	query := `
		UPDATE invitations
		SET status = 'declined', responded_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + invitationColumns

	inv, err := scanInvitation(r.db.QueryRow(ctx, query, invitationID, respondedAt))
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return nil, domain.ErrInvitationClosed
		}
		return nil, err
	}

	return inv, nil
}

// ListByTeam возвращает приглашения команды, новые первыми
func (r *InvitationRepository) ListByTeam(ctx context.Context, teamID string) ([]*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE team_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, teamID)
}

// ListPendingForInvitee возвращает живые pending-приглашения пользователя.
// Фильтр по возрасту реализует read-time классификацию протухания.
func (r *InvitationRepository) ListPendingForInvitee(ctx context.Context, inviteeID string, ttl time.Duration) ([]*domain.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE invitee_id = $1 AND status = 'pending' AND created_at > NOW() - $2::interval
		ORDER BY created_at DESC, id
	`
	return r.list(ctx, query, inviteeID, ttl)
}

func (r *InvitationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Invitation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}
