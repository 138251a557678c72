package domain

import (
	"fmt"
	"strings"
	"time"
)

// Ограничения на атрибуты команды
const (
	MinTeamNameLen        = 2
	MinTeamDescriptionLen = 10
)

// Team представляет команду профессионалов
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	Location    string    `json:"location,omitempty"`
	Links       []string  `json:"links,omitempty"`
	AvatarKey   string    `json:"avatar_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeamSpec представляет атрибуты команды при создании или редактировании
type TeamSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Location    string   `json:"location,omitempty"`
	Links       []string `json:"links,omitempty"`
	AvatarKey   string   `json:"avatar_key,omitempty"`
}

// Validate проверяет атрибуты команды перед записью
func (s TeamSpec) Validate() error {
	if len(strings.TrimSpace(s.Name)) < MinTeamNameLen {
		return fmt.Errorf("%w: team name must be at least %d characters", ErrValidation, MinTeamNameLen)
	}
	if len(strings.TrimSpace(s.Description)) < MinTeamDescriptionLen {
		return fmt.Errorf("%w: team description must be at least %d characters", ErrValidation, MinTeamDescriptionLen)
	}
	skills := 0
	for _, skill := range s.Skills {
		if strings.TrimSpace(skill) != "" {
			skills++
		}
	}
	if skills == 0 {
		return fmt.Errorf("%w: team needs at least one skill tag", ErrValidation)
	}
	return nil
}
