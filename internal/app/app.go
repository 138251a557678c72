package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/teamhub/collab-service/internal/bus"
	"github.com/teamhub/collab-service/internal/cache"
	"github.com/teamhub/collab-service/internal/config"
	"github.com/teamhub/collab-service/internal/handler"
	"github.com/teamhub/collab-service/internal/middleware"
	"github.com/teamhub/collab-service/internal/repository/postgres"
	"github.com/teamhub/collab-service/internal/service"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config *config.Config
	db     *pgxpool.Pool
	rdb    *redis.Client
	server *http.Server
	logger *slog.Logger
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	// Инициализируем структурированный логгер (JSON формат)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app := &App{
		config: cfg,
		logger: logger,
	}

	return app, nil
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Применяем миграции схемы, если запрошено конфигурацией
	if a.config.Database.Migrate {
		if err := a.runMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Подключаемся к Redis, если кэш сконфигурирован
	if a.config.Redis.Enabled() {
		if err := a.connectRedis(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	// Настраиваем HTTP сервер и роутинг
	a.setupServer()

	a.logger.Info("Application initialized successfully")
	return nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// runMigrations применяет файловые миграции к базе данных
func (a *App) runMigrations() error {
	m, err := migrate.New("file://"+a.config.Database.MigrationsPath, a.config.Database.DSN())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	a.logger.Info("Migrations applied")
	return nil
}

// connectRedis устанавливает подключение к Redis для кэша членства
func (a *App) connectRedis(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	a.rdb = rdb
	a.logger.Info("Connected to redis")
	return nil
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer() {
	// Инициализируем слой репозиториев (работа с БД)
	teamRepo := postgres.NewTeamRepository(a.db)
	memberRepo := postgres.NewMembershipRepository(a.db)
	inviteRepo := postgres.NewInvitationRepository(a.db)
	messageRepo := postgres.NewMessageRepository(a.db)
	profileRepo := postgres.NewProfileRepository(a.db)

	// Шина событий реального времени
	eventBus := bus.New(a.config.Chat.SubscriberBuffer)

	// Кэш представлений членства (опционален)
	var membersCache service.MembersCache
	if a.rdb != nil {
		membersCache = cache.NewMembersCache(a.rdb, a.config.Redis.TTL())
	}

	// Инициализируем слой сервисов (бизнес-логика)
	chatService := service.NewChatService(messageRepo, memberRepo, eventBus, a.config.Chat.HistoryPageSize)
	memberService := service.NewMembershipService(teamRepo, memberRepo, profileRepo, chatService, membersCache, a.logger)
	inviteService := service.NewInvitationService(inviteRepo, memberRepo, profileRepo, chatService, membersCache, a.config.Invite.TTL(), a.logger)
	directoryService := service.NewDirectoryService(profileRepo, memberRepo, a.config.Directory.PageSize)
	authService := service.NewAuthService(
		profileRepo,
		a.config.JWT.Secret,
		a.config.JWT.GetExpiration(),
	)
	statsService := service.NewStatsService(a.db)

	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(authService)
	teamHandler := handler.NewTeamHandler(memberService)
	inviteHandler := handler.NewInvitationHandler(inviteService)
	directoryHandler := handler.NewDirectoryHandler(directoryService)
	chatHandler := handler.NewChatHandler(chatService)
	wsHandler := handler.NewWSHandler(chatService, a.logger)
	statsHandler := handler.NewStatsHandler(statsService)

	// Инициализируем middleware для JWT авторизации
	authMiddleware := middleware.AuthMiddleware(authService)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   a.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// Публичные эндпоинты (без авторизации)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
	})

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			a.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Защищенные эндпоинты (требуют JWT токен в заголовке Authorization)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		// Эндпоинты команд и членства
		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)
			r.Get("/", teamHandler.MyTeams)

			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", teamHandler.GetTeam)
				r.Put("/", teamHandler.UpdateTeam)
				r.Delete("/", teamHandler.DeleteTeam)

				r.Get("/members", teamHandler.ListMembers)
				r.Delete("/members/{userID}", teamHandler.RemoveMember)

				r.Get("/directory", directoryHandler.Search)

				r.Post("/invitations", inviteHandler.Issue)
				r.Get("/invitations", inviteHandler.ListForTeam)

				r.Get("/messages", chatHandler.History)
				r.Post("/messages", chatHandler.Send)
				r.Get("/ws", wsHandler.Serve)

				r.Get("/stats", statsHandler.GetTeamStats)
			})
		})

		// Эндпоинты приглашений текущего пользователя
		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", inviteHandler.ListMine)
			r.Post("/{invitationID}/accept", inviteHandler.Accept)
			r.Post("/{invitationID}/decline", inviteHandler.Decline)
		})

		// Эндпоинты сообщений
		r.Route("/messages", func(r chi.Router) {
			r.Patch("/{messageID}", chatHandler.Edit)
			r.Delete("/{messageID}", chatHandler.Delete)
		})
	})

	// Создаем HTTP сервер с настройками таймаутов
	addr := fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("HTTP server configured", "addr", addr)
}

// Run запускает HTTP сервер
func (a *App) Run() error {
	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	// Закрываем подключения к базе данных и кэшу
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("Failed to close redis client", "error", err)
		}
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}
