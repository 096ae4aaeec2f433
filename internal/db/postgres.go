package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
  "github.com/yungbote/cogniscan-backend/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "cogniscan", log)

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.QuestionItem{},
    &types.RubricMapping{},
    &types.GenerationLog{},
    &types.ValidationLog{},
    &types.ErrorLog{},
    &types.UserQuestionLedger{},
    &types.TestSession{},
    &types.TestResponse{},
    &types.CognitiveProfile{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }

  // Monotonic batch ids for the batch allocator.
  if err := s.db.Exec(`CREATE SEQUENCE IF NOT EXISTS generation_batch_seq;`).Error; err != nil {
    return fmt.Errorf("Failed to create generation_batch_seq: %w", err)
  }

  // No two active items may share a semantic fingerprint; deactivated items
  // keep theirs so ledger and rubric rows stay intact.
  if err := s.db.Exec(`
    CREATE UNIQUE INDEX IF NOT EXISTS idx_question_item_active_fingerprint
    ON "question_item" ("fingerprint")
    WHERE "active" = true
  `).Error; err != nil {
    return fmt.Errorf("Failed to create idx_question_item_active_fingerprint: %w", err)
  }

  s.log.Info("Configuring foreign key relationships for postgres tables...")
  if err := s.db.Exec(`
    ALTER TABLE "rubric_mapping"
    DROP CONSTRAINT IF EXISTS "fk_rubric_mapping_question_id",
    ADD CONSTRAINT "fk_rubric_mapping_question_id"
    FOREIGN KEY ("question_id")
    REFERENCES "question_item"("id")
    ON DELETE RESTRICT
  `).Error; err != nil {
    return fmt.Errorf("Failed to add fk_rubric_mapping_question_id: %w", err)
  }
  if err := s.db.Exec(`
    ALTER TABLE "user_question_ledger"
    DROP CONSTRAINT IF EXISTS "fk_user_question_ledger_question_id",
    ADD CONSTRAINT "fk_user_question_ledger_question_id"
    FOREIGN KEY ("question_id")
    REFERENCES "question_item"("id")
    ON DELETE RESTRICT
  `).Error; err != nil {
    return fmt.Errorf("Failed to add fk_user_question_ledger_question_id: %w", err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
