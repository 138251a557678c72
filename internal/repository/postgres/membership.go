package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamhub/collab-service/internal/domain"
)

// MembershipRepository реализует repository.MembershipRepository для PostgreSQL
type MembershipRepository struct {
	db *pgxpool.Pool
}

// NewMembershipRepository создает новый экземпляр MembershipRepository
func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add создает активное членство. Строки членства не удаляются физически,
// поэтому повторное вступление реактивирует removed-строку на месте.
// Существующая активная строка дает domain.ErrAlreadyMember.
func (r *MembershipRepository) Add(ctx context.Context, teamID, userID string, role domain.Role) (*domain.Membership, error) {
	return addMembership(ctx, r.db, teamID, userID, role)
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// addMembership выполняет сам upsert; вынесено отдельно, чтобы принятие
// приглашения могло выполнить его внутри своей транзакции.
func addMembership(ctx context.Context, q execQuerier, teamID, userID string, role domain.Role) (*domain.Membership, error) {
	// Условие WHERE на DO UPDATE пропускает только removed-строки: при
	// активной строке конфликтный INSERT не затрагивает ничего и RETURNING
	// не дает строк.
	query := `
		INSERT INTO memberships (team_id, user_id, role, status)
		VALUES ($1, $2, $3, 'active')
		ON CONFLICT (team_id, user_id) DO UPDATE
		SET role = EXCLUDED.role,
		    status = 'active',
		    joined_at = NOW(),
		    updated_at = NOW()
		WHERE memberships.status = 'removed'
		RETURNING team_id, user_id, role, status, joined_at
	`

	var m domain.Membership
	err := q.QueryRow(ctx, query, teamID, userID, role).Scan(
		&m.TeamID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, err
	}

	return &m, nil
}

// Get получает строку членства
func (r *MembershipRepository) Get(ctx context.Context, teamID, userID string) (*domain.Membership, error) {
	query := `
		SELECT team_id, user_id, role, status, joined_at
		FROM memberships
		WHERE team_id = $1 AND user_id = $2
	`

	var m domain.Membership
	err := r.db.QueryRow(ctx, query, teamID, userID).Scan(
		&m.TeamID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotMember
		}
		return nil, err
	}

	return &m, nil
}

// Remove помечает членство removed с проверкой инварианта организаторов.
// Строка команды блокируется FOR UPDATE, чтобы конкурентные удаления
// организаторов сериализовались и не могли вдвоем пройти проверку счетчика.
func (r *MembershipRepository) Remove(ctx context.Context, teamID, userID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTeamNotFound
			}
			return err
		}

		var role domain.Role
		err = tx.QueryRow(ctx, `
			UPDATE memberships
			SET status = 'removed', updated_at = NOW()
			WHERE team_id = $1 AND user_id = $2 AND status = 'active'
			RETURNING role
		`, teamID, userID).Scan(&role)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotMember
			}
			return err
		}

		if role == domain.RoleOrganizer {
			var organizers int
			err = tx.QueryRow(ctx, `
				SELECT COUNT(*) FROM memberships
				WHERE team_id = $1 AND role = 'organizer' AND status = 'active'
			`, teamID).Scan(&organizers)
			if err != nil {
				return err
			}
			if organizers == 0 {
				// Откат транзакции оставляет членство активным
				return domain.ErrLastOrganizer
			}
		}

		return nil
	})
}

// ListActive возвращает активные членства с полями профиля
func (r *MembershipRepository) ListActive(ctx context.Context, teamID string) ([]*domain.Member, error) {
	query := `
		SELECT m.team_id, m.user_id, m.role, m.status, m.joined_at,
		       p.display_name, COALESCE(p.avatar_key, '')
		FROM memberships m
		JOIN profiles p ON p.user_id = m.user_id
		WHERE m.team_id = $1 AND m.status = 'active'
		ORDER BY (m.role = 'organizer') DESC, m.joined_at, m.user_id
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		var member domain.Member
		if err := rows.Scan(
			&member.TeamID, &member.UserID, &member.Role, &member.Status, &member.JoinedAt,
			&member.DisplayName, &member.AvatarKey,
		); err != nil {
			return nil, err
		}
		members = append(members, &member)
	}

	return members, rows.Err()
}

// ActiveUserIDs возвращает ID пользователей с активным членством
func (r *MembershipRepository) ActiveUserIDs(ctx context.Context, teamID string) ([]string, error) {
	query := `SELECT user_id FROM memberships WHERE team_id = $1 AND status = 'active' ORDER BY user_id`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CountActiveOrganizers возвращает число активных организаторов команды
func (r *MembershipRepository) CountActiveOrganizers(ctx context.Context, teamID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM memberships
		WHERE team_id = $1 AND role = 'organizer' AND status = 'active'
	`

	var count int
	if err := r.db.QueryRow(ctx, query, teamID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListTeamsForUser возвращает команды с активным членством пользователя
func (r *MembershipRepository) ListTeamsForUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	query := `
		SELECT t.id, t.name, t.description, t.skills, COALESCE(t.location, ''), t.links, COALESCE(t.avatar_key, ''), t.created_at
		FROM teams t
		JOIN memberships m ON m.team_id = t.id
		WHERE m.user_id = $1 AND m.status = 'active'
		ORDER BY m.joined_at, t.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(
			&team.ID, &team.Name, &team.Description, &team.Skills,
			&team.Location, &team.Links, &team.AvatarKey, &team.CreatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, &team)
	}

	return teams, rows.Err()
}
