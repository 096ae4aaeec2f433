package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type UserQuestionLedgerRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.UserQuestionLedger) ([]*types.UserQuestionLedger, error)
  CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
  QuestionIDsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
  GetByUserAndQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, questionIDs []uuid.UUID) ([]*types.UserQuestionLedger, error)
  // RecordOutcome fills the outcome fields on an existing (user, question)
  // row. Missing rows are an error: an outcome without a serve is a bug.
  RecordOutcome(ctx context.Context, tx *gorm.DB, userID, questionID, sessionID uuid.UUID, correct bool, confidence float64, responseMS int) error
}

type userQuestionLedgerRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserQuestionLedgerRepo(db *gorm.DB, baseLog *logger.Logger) UserQuestionLedgerRepo {
  return &userQuestionLedgerRepo{db: db, log: baseLog.With("repo", "UserQuestionLedgerRepo")}
}

func (r *userQuestionLedgerRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.UserQuestionLedger) ([]*types.UserQuestionLedger, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.UserQuestionLedger{}, nil
  }
  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{DoNothing: true}).
    Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *userQuestionLedgerRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.UserQuestionLedger{}).
    Where("user_id = ?", userID).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *userQuestionLedgerRepo) QuestionIDsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var ids []uuid.UUID
  if err := transaction.WithContext(ctx).
    Model(&types.UserQuestionLedger{}).
    Where("user_id = ?", userID).
    Pluck("question_id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}

func (r *userQuestionLedgerRepo) GetByUserAndQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, questionIDs []uuid.UUID) ([]*types.UserQuestionLedger, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.UserQuestionLedger
  if len(questionIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND question_id IN ?", userID, questionIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *userQuestionLedgerRepo) RecordOutcome(ctx context.Context, tx *gorm.DB, userID, questionID, sessionID uuid.UUID, correct bool, confidence float64, responseMS int) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  res := transaction.WithContext(ctx).
    Model(&types.UserQuestionLedger{}).
    Where("user_id = ? AND question_id = ?", userID, questionID).
    Updates(map[string]any{
      "session_id":  sessionID,
      "correct":     correct,
      "confidence":  confidence,
      "response_ms": responseMS,
      "updated_at":  time.Now(),
    })
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    return gorm.ErrRecordNotFound
  }
  return nil
}
