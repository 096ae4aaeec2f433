package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type RubricMappingRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.RubricMapping) ([]*types.RubricMapping, error)
  GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.RubricMapping, error)
}

type rubricMappingRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRubricMappingRepo(db *gorm.DB, baseLog *logger.Logger) RubricMappingRepo {
  return &rubricMappingRepo{db: db, log: baseLog.With("repo", "RubricMappingRepo")}
}

func (r *rubricMappingRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.RubricMapping) ([]*types.RubricMapping, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.RubricMapping{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *rubricMappingRepo) GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.RubricMapping, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.RubricMapping
  if len(questionIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("question_id IN ?", questionIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
