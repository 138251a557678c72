package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamhub/collab-service/internal/domain"
)

// ProfileRepository реализует repository.ProfileRepository для PostgreSQL.
// Профили принадлежат внешней подсистеме, здесь только чтение.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository создает новый экземпляр ProfileRepository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, display_name, COALESCE(bio, ''), skills, COALESCE(location, ''), COALESCE(avatar_key, ''), discoverable, collab_enabled`

// GetByID получает профиль по ID пользователя
func (r *ProfileRepository) GetByID(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Bio, &p.Skills,
		&p.Location, &p.AvatarKey, &p.Discoverable, &p.CollabEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	return &p, nil
}

// FindDiscoverable ищет приглашаемые профили по фильтрам. Релевантность:
// совпадение по имени весит больше совпадения по биографии; порядок
// (score DESC, user_id) детерминирован для воспроизводимой пагинации.
func (r *ProfileRepository) FindDiscoverable(ctx context.Context, filters domain.DirectoryFilters, excludeIDs []string, limit int) ([]*domain.Profile, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}

	query := `
		SELECT ` + profileColumns + `,
		       (CASE WHEN $1 <> '' AND display_name ILIKE '%' || $1 || '%' THEN 2 ELSE 0 END
		      + CASE WHEN $1 <> '' AND bio ILIKE '%' || $1 || '%' THEN 1 ELSE 0 END) AS score
		FROM profiles
		WHERE discoverable = TRUE
		  AND collab_enabled = TRUE
		  AND ($1 = '' OR display_name ILIKE '%' || $1 || '%' OR bio ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR $2 = ANY(skills))
		  AND ($3 = '' OR location ILIKE '%' || $3 || '%')
		  AND NOT (user_id = ANY($4))
		ORDER BY score DESC, user_id
		LIMIT $5
	`

	rows, err := r.db.Query(ctx, query,
		filters.Text, filters.Skill, filters.Location, excludeIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		var score int
		if err := rows.Scan(
			&p.UserID, &p.DisplayName, &p.Bio, &p.Skills,
			&p.Location, &p.AvatarKey, &p.Discoverable, &p.CollabEnabled,
			&score,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}
