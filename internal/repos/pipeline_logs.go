package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

// The three pipeline logs are append-only. No read paths beyond ad hoc
// operator queries, so the repos expose Create only.

type GenerationLogRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.GenerationLog) ([]*types.GenerationLog, error)
}

type ValidationLogRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.ValidationLog) ([]*types.ValidationLog, error)
}

type ErrorLogRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.ErrorLog) ([]*types.ErrorLog, error)
}

type generationLogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewGenerationLogRepo(db *gorm.DB, baseLog *logger.Logger) GenerationLogRepo {
  return &generationLogRepo{db: db, log: baseLog.With("repo", "GenerationLogRepo")}
}

func (r *generationLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GenerationLog) ([]*types.GenerationLog, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.GenerationLog{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

type validationLogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewValidationLogRepo(db *gorm.DB, baseLog *logger.Logger) ValidationLogRepo {
  return &validationLogRepo{db: db, log: baseLog.With("repo", "ValidationLogRepo")}
}

func (r *validationLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ValidationLog) ([]*types.ValidationLog, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.ValidationLog{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

type errorLogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewErrorLogRepo(db *gorm.DB, baseLog *logger.Logger) ErrorLogRepo {
  return &errorLogRepo{db: db, log: baseLog.With("repo", "ErrorLogRepo")}
}

func (r *errorLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ErrorLog) ([]*types.ErrorLog, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.ErrorLog{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}
