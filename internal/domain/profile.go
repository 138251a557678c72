package domain

// Profile представляет профиль пользователя. Профили принадлежат внешней
// подсистеме и здесь доступны только на чтение (отображаемые поля и поиск).
type Profile struct {
	UserID        string   `json:"user_id"`
	DisplayName   string   `json:"display_name"`
	Bio           string   `json:"bio,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	Location      string   `json:"location,omitempty"`
	AvatarKey     string   `json:"avatar_key,omitempty"`
	Discoverable  bool     `json:"discoverable"`
	CollabEnabled bool     `json:"collab_enabled"`
}

// DirectoryFilters представляет фильтры поиска по каталогу профессионалов
type DirectoryFilters struct {
	Text     string `json:"text,omitempty"`     // Подстрока по имени или биографии
	Skill    string `json:"skill,omitempty"`    // Точное совпадение тега навыка
	Location string `json:"location,omitempty"` // Подстрока по локации
}
