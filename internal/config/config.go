package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит всю конфигурацию сервиса
type Config struct {
	Server    ServerConfig    // Настройки HTTP сервера
	Database  DatabaseConfig  // Настройки подключения к БД
	JWT       JWTConfig       // Настройки JWT авторизации
	Invite    InviteConfig    // Политика приглашений
	Chat      ChatConfig      // Настройки чата и шины событий
	Directory DirectoryConfig // Настройки поиска по каталогу
	Redis     RedisConfig     // Настройки кэша представлений членства
	CORS      CORSConfig      // Настройки CORS для UI слоя
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" default:"8080"`
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           string `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"collab"`
	Password       string `envconfig:"DB_PASSWORD" default:"collab_pass"`
	Name           string `envconfig:"DB_NAME" default:"collab"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns       int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns       int32  `envconfig:"DB_MIN_CONNS" default:"5"`
	Migrate        bool   `envconfig:"DB_MIGRATE" default:"false"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// JWTConfig содержит настройки JWT авторизации
type JWTConfig struct {
	Secret          string `envconfig:"JWT_SECRET" required:"true"`
	ExpirationHours int    `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`
}

// InviteConfig содержит политику жизненного цикла приглашений
type InviteConfig struct {
	// TTLHours задает возраст, после которого pending-приглашение
	// классифицируется как expired при чтении
	TTLHours int `envconfig:"INVITE_TTL_HOURS" default:"168"`
}

// ChatConfig содержит настройки чата и реального времени
type ChatConfig struct {
	HistoryPageSize  int `envconfig:"CHAT_HISTORY_PAGE_SIZE" default:"50"`
	SubscriberBuffer int `envconfig:"CHAT_SUBSCRIBER_BUFFER" default:"64"`
}

// DirectoryConfig содержит настройки поиска по каталогу профессионалов
type DirectoryConfig struct {
	PageSize int `envconfig:"DIRECTORY_PAGE_SIZE" default:"20"`
}

// RedisConfig содержит настройки кэша. Пустой Addr отключает кэширование.
type RedisConfig struct {
	Addr       string `envconfig:"REDIS_ADDR" default:""`
	Password   string `envconfig:"REDIS_PASSWORD" default:""`
	DB         int    `envconfig:"REDIS_DB" default:"0"`
	TTLSeconds int    `envconfig:"REDIS_TTL_SECONDS" default:"300"`
}

// CORSConfig содержит список разрешенных origin'ов UI
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// GetExpiration возвращает срок действия токена как time.Duration
func (j JWTConfig) GetExpiration() time.Duration {
	return time.Duration(j.ExpirationHours) * time.Hour
}

// TTL возвращает срок жизни приглашения как time.Duration
func (i InviteConfig) TTL() time.Duration {
	return time.Duration(i.TTLHours) * time.Hour
}

// TTL возвращает срок жизни записи кэша как time.Duration
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// Enabled возвращает true если кэш сконфигурирован
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Load читает конфигурацию из переменных окружения
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
