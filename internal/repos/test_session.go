package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type TestSessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, sessions []*types.TestSession) ([]*types.TestSession, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*types.TestSession, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, fields map[string]any) error
  CreateResponses(ctx context.Context, tx *gorm.DB, rows []*types.TestResponse) ([]*types.TestResponse, error)
  GetResponsesBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.TestResponse, error)
}

type testSessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTestSessionRepo(db *gorm.DB, baseLog *logger.Logger) TestSessionRepo {
  return &testSessionRepo{db: db, log: baseLog.With("repo", "TestSessionRepo")}
}

func (r *testSessionRepo) Create(ctx context.Context, tx *gorm.DB, sessions []*types.TestSession) ([]*types.TestSession, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(sessions) == 0 {
    return []*types.TestSession{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&sessions).Error; err != nil {
    return nil, err
  }
  return sessions, nil
}

func (r *testSessionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) ([]*types.TestSession, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.TestSession
  if len(sessionIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", sessionIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *testSessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, fields map[string]any) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(fields) == 0 {
    return nil
  }
  if err := transaction.WithContext(ctx).
    Model(&types.TestSession{}).
    Where("id = ?", sessionID).
    Updates(fields).Error; err != nil {
    return err
  }
  return nil
}

func (r *testSessionRepo) CreateResponses(ctx context.Context, tx *gorm.DB, rows []*types.TestResponse) ([]*types.TestResponse, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.TestResponse{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *testSessionRepo) GetResponsesBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.TestResponse, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.TestResponse
  if err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    Order("position ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
