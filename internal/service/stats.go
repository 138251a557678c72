package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamhub/collab-service/internal/domain"
)

// TeamStats represents aggregated activity of one team
type TeamStats struct {
	TeamID             string `json:"team_id"`
	ActiveMembers      int    `json:"active_members"`
	ActiveOrganizers   int    `json:"active_organizers"`
	PendingInvitations int    `json:"pending_invitations"`
	TotalMessages      int    `json:"total_messages"`
	DeletedMessages    int    `json:"deleted_messages"`
}

// StatsService handles statistics queries
type StatsService struct {
	db *pgxpool.Pool
}

// NewStatsService creates a new StatsService
func NewStatsService(db *pgxpool.Pool) *StatsService {
	return &StatsService{db: db}
}

// GetTeamStats returns aggregated counters for one team
func (s *StatsService) GetTeamStats(ctx context.Context, teamID string) (*TeamStats, error) {
	query := `
		SELECT
			t.id,
			COUNT(DISTINCT m.user_id) FILTER (WHERE m.status = 'active') AS active_members,
			COUNT(DISTINCT m.user_id) FILTER (WHERE m.status = 'active' AND m.role = 'organizer') AS active_organizers,
			(SELECT COUNT(*) FROM invitations i WHERE i.team_id = t.id AND i.status = 'pending') AS pending_invitations,
			(SELECT COUNT(*) FROM messages msg WHERE msg.team_id = t.id) AS total_messages,
			(SELECT COUNT(*) FROM messages msg WHERE msg.team_id = t.id AND msg.deleted) AS deleted_messages
		FROM teams t
		LEFT JOIN memberships m ON m.team_id = t.id
		WHERE t.id = $1
		GROUP BY t.id
	`

	var stats TeamStats
	err := s.db.QueryRow(ctx, query, teamID).Scan(
		&stats.TeamID,
		&stats.ActiveMembers,
		&stats.ActiveOrganizers,
		&stats.PendingInvitations,
		&stats.TotalMessages,
		&stats.DeletedMessages,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	return &stats, nil
}
