package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type UserRepo interface {
  Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
  EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(users) == 0 {
    return []*types.User{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
    return nil, err
  }
  return users, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.User
  if len(userIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", userIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("email = ?", email).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}
