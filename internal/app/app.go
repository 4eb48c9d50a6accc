package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/config"
	"github.com/RubachokBoss/assignment-portal/internal/delivery/httpd"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/service"
)

type App struct {
	server *http.Server
	logger zerolog.Logger
	config *config.Config
	db     *sql.DB
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	// Создаем репозиторий MinIO
	minioRepo, err := repository.NewMinIORepository(
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.Storage.Region,
		cfg.MinIO.UseSSL,
		log,
	)
	if err != nil {
		return nil, err
	}

	// Создаем оберточный репозиторий хранилища
	storageRepo := repository.NewStorageRepository(minioRepo, log)

	// Создаем репозитории метаданных
	userRepo := repository.NewUserRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	submissionRepo := repository.NewSubmissionRepository(db, log)

	// Создаем сервисы
	transferService := service.NewTransferService(storageRepo, cfg.Storage.PresignExpiry, log)

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)

	assignmentService := service.NewAssignmentService(
		assignmentRepo,
		userRepo,
		transferService,
		cfg.Storage.AssignmentsBucket,
		log,
	)

	submissionService := service.NewSubmissionService(
		submissionRepo,
		assignmentRepo,
		userRepo,
		transferService,
		service.SubmissionConfig{
			Bucket:       cfg.Storage.SubmissionsBucket,
			MaxSize:      cfg.Upload.MaxSize,
			AllowedTypes: cfg.Upload.AllowedTypes,
		},
		log,
	)

	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, log)

	// Создаем обработчики
	handler := httpd.NewHandler(
		authService,
		assignmentService,
		submissionService,
		gradingService,
		repository.NewPostgresRepository(db, log),
		log,
	)

	// Создаем роутер
	router := chi.NewRouter()

	// Настраиваем middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Настраиваем CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// Регистрируем маршруты
	handler.RegisterRoutes(router)

	// Создаем HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server: server,
		logger: log,
		config: cfg,
		db:     db,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting assignment portal on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down assignment portal...")

	// Закрываем соединение с БД
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	// Останавливаем сервер
	return a.server.Shutdown(ctx)
}
