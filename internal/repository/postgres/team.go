package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamhub/collab-service/internal/domain"
)

// TeamRepository реализует repository.TeamRepository для PostgreSQL
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository создает новый экземпляр TeamRepository
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `id, name, description, skills, COALESCE(location, ''), links, COALESCE(avatar_key, ''), created_at`

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.Skills,
		&team.Location,
		&team.Links,
		&team.AvatarKey,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

// CreateWithOrganizer создает команду и организатора в одной транзакции
func (r *TeamRepository) CreateWithOrganizer(ctx context.Context, spec domain.TeamSpec, creatorID string) (*domain.Team, error) {
	var team *domain.Team

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO teams (name, description, skills, location, links, avatar_key)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''))
			RETURNING ` + teamColumns

		created, err := scanTeam(tx.QueryRow(ctx, query,
			spec.Name, spec.Description, spec.Skills, spec.Location, spec.Links, spec.AvatarKey))
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO memberships (team_id, user_id, role, status)
			VALUES ($1, $2, $3, $4)
		`, created.ID, creatorID, domain.RoleOrganizer, domain.MembershipActive)
		if err != nil {
			return err
		}

		team = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

// GetByID получает команду по ID
func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(r.db.QueryRow(ctx, query, teamID))
}

// Update обновляет атрибуты команды
func (r *TeamRepository) Update(ctx context.Context, teamID string, spec domain.TeamSpec) (*domain.Team, error) {
	query := `
		UPDATE teams
		SET name = $2,
		    description = $3,
		    skills = $4,
		    location = NULLIF($5, ''),
		    links = $6,
		    avatar_key = NULLIF($7, ''),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + teamColumns

	return scanTeam(r.db.QueryRow(ctx, query,
		teamID, spec.Name, spec.Description, spec.Skills, spec.Location, spec.Links, spec.AvatarKey))
}

// Delete удаляет команду, каскад убирает членства, приглашения и сообщения
func (r *TeamRepository) Delete(ctx context.Context, teamID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}
