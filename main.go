package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RubachokBoss/assignment-portal/internal/app"
	"github.com/RubachokBoss/assignment-portal/internal/config"
	"github.com/RubachokBoss/assignment-portal/internal/database"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/pkg/logger"
)

func main() {
	// .env опционален, в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	migrateDirection := migrateCmd.String("direction", "up", "direction of migration (up/down)")

	sweepCmd := flag.NewFlagSet("sweep-orphans", flag.ExitOnError)
	sweepGrace := sweepCmd.Duration("older-than", time.Hour, "only remove blobs older than this")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			migrateCmd.Parse(os.Args[2:])
			runMigrations(*migrateDirection)
			return
		case "setup-storage":
			runSetupStorage()
			return
		case "setup-policies":
			runSetupPolicies()
			return
		case "sweep-orphans":
			sweepCmd.Parse(os.Args[2:])
			runSweepOrphans(*sweepGrace)
			return
		}
	}

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	log.Info().Msg("Database connection established")

	application, err := app.New(cfg, log, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	go func() {
		if err := application.Run(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run application")
		}
	}()

	log.Info().Msgf("Assignment portal started on %s", cfg.Server.Address)

	<-ctx.Done()
	log.Info().Msg("Shutting down assignment portal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
	}

	log.Info().Msg("Assignment portal stopped")
}

func runMigrations(direction string) {
	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	migrator := database.NewMigrator(cfg.Database)

	switch direction {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatal().Err(err).Msg("Failed to rollback migrations")
		}
		log.Info().Msg("Migrations rolled back successfully")
	default:
		log.Fatal().Msg("Invalid migration direction. Use 'up' or 'down'")
	}
}

// runSetupStorage создает бакеты хранилища. Повторный запуск безопасен:
// существующий бакет не трогаем.
func runSetupStorage() {
	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	minioRepo, err := repository.NewMinIORepository(
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.Storage.Region,
		cfg.MinIO.UseSSL,
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to object storage")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, bucket := range []string{cfg.Storage.SubmissionsBucket, cfg.Storage.AssignmentsBucket} {
		created, err := minioRepo.EnsureBucket(ctx, bucket)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", bucket).Msg("Failed to ensure bucket")
		}
		if created {
			log.Info().Str("bucket", bucket).Msg("Bucket created")
		} else {
			log.Info().Str("bucket", bucket).Msg("Bucket already exists")
		}
	}

	log.Info().Msg("Storage setup completed")
}

// Политики на уровне строк для таблицы сдач — вторая линия обороны для
// подключений под не-владельцем (отчёты, ручной доступ). Сервис подключается
// владельцем таблиц и проверяет те же предикаты в коде; политики матчатся по
// параметру сессии app.user_id, который такое подключение обязано выставить
// через set_config.
var policyStatements = []string{
	`ALTER TABLE submissions ENABLE ROW LEVEL SECURITY;`,

	// Сначала убираем старые версии, чтобы повторный запуск не падал
	`DROP POLICY IF EXISTS "Users can view their own submissions" ON submissions;`,
	`DROP POLICY IF EXISTS "Users can create their own submissions" ON submissions;`,
	`DROP POLICY IF EXISTS "Users can update their own submissions" ON submissions;`,
	`DROP POLICY IF EXISTS "Users can delete their own submissions" ON submissions;`,
	`DROP POLICY IF EXISTS "Teachers can view all submissions" ON submissions;`,

	`CREATE POLICY "Users can view their own submissions"
		ON submissions
		FOR SELECT
		USING (current_setting('app.user_id', true)::uuid = student_id);`,

	`CREATE POLICY "Users can create their own submissions"
		ON submissions
		FOR INSERT
		WITH CHECK (current_setting('app.user_id', true)::uuid = student_id);`,

	`CREATE POLICY "Users can update their own submissions"
		ON submissions
		FOR UPDATE
		USING (current_setting('app.user_id', true)::uuid = student_id);`,

	`CREATE POLICY "Users can delete their own submissions"
		ON submissions
		FOR DELETE
		USING (current_setting('app.user_id', true)::uuid = student_id);`,

	`CREATE POLICY "Teachers can view all submissions"
		ON submissions
		FOR SELECT
		USING (EXISTS (
			SELECT 1 FROM users
			WHERE id = current_setting('app.user_id', true)::uuid AND role = 'teacher'
		));`,
}

func runSetupPolicies() {
	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range policyStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatal().Err(err).Str("statement", stmt).Msg("Failed to apply policy statement")
		}
	}

	log.Info().Msg("Database policies set up successfully")
}

func runSweepOrphans(olderThan time.Duration) {
	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	minioRepo, err := repository.NewMinIORepository(
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.Storage.Region,
		cfg.MinIO.UseSSL,
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to object storage")
	}

	storageRepo := repository.NewStorageRepository(minioRepo, log)
	submissionRepo := repository.NewSubmissionRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)

	maintenance := service.NewMaintenanceService(
		submissionRepo,
		assignmentRepo,
		storageRepo,
		cfg.Storage.SubmissionsBucket,
		cfg.Storage.AssignmentsBucket,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := maintenance.SweepOrphans(ctx, olderThan)
	if err != nil {
		log.Fatal().Err(err).Int("removed", removed).Msg("Orphan sweep failed")
	}

	log.Info().Int("removed", removed).Msg("Orphan sweep completed")
}
