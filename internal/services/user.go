package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/repos"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type UserService interface {
  Register(ctx context.Context, user *types.User) (*types.User, error)
  GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
  return &userService{db: db, log: baseLog.With("service", "UserService"), userRepo: userRepo}
}

func (s *userService) Register(ctx context.Context, user *types.User) (*types.User, error) {
  if user.Email == "" {
    return nil, fmt.Errorf("email is required")
  }
  exists, err := s.userRepo.EmailExists(ctx, nil, user.Email)
  if err != nil {
    return nil, fmt.Errorf("check email: %w", err)
  }
  if exists {
    return nil, fmt.Errorf("email already registered")
  }
  created, err := s.userRepo.Create(ctx, nil, []*types.User{user})
  if err != nil {
    return nil, fmt.Errorf("create user: %w", err)
  }
  return created[0], nil
}

func (s *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
  users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
  if err != nil {
    return nil, err
  }
  if len(users) == 0 {
    return nil, ErrUserNotFound
  }
  return users[0], nil
}
