package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type QuestionItemRepo interface {
  Create(ctx context.Context, tx *gorm.DB, items []*types.QuestionItem) ([]*types.QuestionItem, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) ([]*types.QuestionItem, error)
  // GetActiveForFallback returns active items for a dimension, excluding ids
  // already in the caller's ledger, least-recently served first.
  GetActiveForFallback(ctx context.Context, tx *gorm.DB, dimension string, excludeIDs []uuid.UUID, limit int) ([]*types.QuestionItem, error)
  // RecentActive returns up to `window` of the most recently created active
  // items for a dimension; the validator seeds its dedup index from them.
  RecentActive(ctx context.Context, tx *gorm.DB, dimension string, window int) ([]*types.QuestionItem, error)
  MarkServed(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID, at time.Time) error
  DeactivateByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) error
}

type questionItemRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuestionItemRepo(db *gorm.DB, baseLog *logger.Logger) QuestionItemRepo {
  return &questionItemRepo{db: db, log: baseLog.With("repo", "QuestionItemRepo")}
}

func (r *questionItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.QuestionItem) ([]*types.QuestionItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(items) == 0 {
    return []*types.QuestionItem{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
    return nil, err
  }
  return items, nil
}

func (r *questionItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) ([]*types.QuestionItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.QuestionItem
  if len(itemIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", itemIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *questionItemRepo) GetActiveForFallback(ctx context.Context, tx *gorm.DB, dimension string, excludeIDs []uuid.UUID, limit int) ([]*types.QuestionItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.QuestionItem
  if limit <= 0 {
    return results, nil
  }
  q := transaction.WithContext(ctx).
    Where("dimension = ? AND active = ?", dimension, true)
  if len(excludeIDs) > 0 {
    q = q.Where("id NOT IN ?", excludeIDs)
  }
  if err := q.
    Order("last_served_at ASC NULLS FIRST, times_served ASC").
    Limit(limit).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *questionItemRepo) RecentActive(ctx context.Context, tx *gorm.DB, dimension string, window int) ([]*types.QuestionItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.QuestionItem
  if window <= 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("dimension = ? AND active = ?", dimension, true).
    Order("created_at DESC").
    Limit(window).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *questionItemRepo) MarkServed(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID, at time.Time) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(itemIDs) == 0 {
    return nil
  }
  if err := transaction.WithContext(ctx).
    Model(&types.QuestionItem{}).
    Where("id IN ?", itemIDs).
    Updates(map[string]any{
      "times_served":   gorm.Expr("times_served + 1"),
      "last_served_at": at,
      "updated_at":     at,
    }).Error; err != nil {
    return err
  }
  return nil
}

func (r *questionItemRepo) DeactivateByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(itemIDs) == 0 {
    return nil
  }
  if err := transaction.WithContext(ctx).
    Model(&types.QuestionItem{}).
    Where("id IN ?", itemIDs).
    Updates(map[string]any{"active": false, "updated_at": time.Now()}).Error; err != nil {
    return err
  }
  return nil
}
