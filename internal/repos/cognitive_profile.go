package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type CognitiveProfileRepo interface {
  // EnsureRow inserts a zero-state profile row for the user if none exists.
  // The insert is conflict-tolerant, so two transactions racing on the same
  // user's first submission both end up with a row to lock instead of one of
  // them tripping the unique index on user_id.
  EnsureRow(ctx context.Context, tx *gorm.DB, userID uuid.UUID, schemaVersion int) error
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CognitiveProfile, error)
  // GetByUserIDForUpdate takes a row-level lock on the user's profile row.
  // Must run inside a transaction; concurrent submissions for the same user
  // serialize here.
  GetByUserIDForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CognitiveProfile, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, fields map[string]any) error
}

type cognitiveProfileRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCognitiveProfileRepo(db *gorm.DB, baseLog *logger.Logger) CognitiveProfileRepo {
  return &cognitiveProfileRepo{db: db, log: baseLog.With("repo", "CognitiveProfileRepo")}
}

func (r *cognitiveProfileRepo) EnsureRow(ctx context.Context, tx *gorm.DB, userID uuid.UUID, schemaVersion int) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  row := &types.CognitiveProfile{
    UserID:        userID,
    SchemaVersion: schemaVersion,
    Parameters:    datatypes.JSON([]byte(`{}`)),
    TestsSeen:     0,
  }
  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "user_id"}},
      DoNothing: true,
    }).
    Create(row).Error
}

func (r *cognitiveProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CognitiveProfile, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var row types.CognitiveProfile
  err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    First(&row).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &row, nil
}

func (r *cognitiveProfileRepo) GetByUserIDForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CognitiveProfile, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var row types.CognitiveProfile
  err := transaction.WithContext(ctx).
    Clauses(clause.Locking{Strength: "UPDATE"}).
    Where("user_id = ?", userID).
    First(&row).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &row, nil
}

func (r *cognitiveProfileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, fields map[string]any) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(fields) == 0 {
    return nil
  }
  if err := transaction.WithContext(ctx).
    Model(&types.CognitiveProfile{}).
    Where("id = ?", profileID).
    Updates(fields).Error; err != nil {
    return err
  }
  return nil
}
