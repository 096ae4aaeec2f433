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

// FallbackPolicy controls when the persisted bank may top up an
// under-filled dimension.
type FallbackPolicy string

const (
  FallbackAlways        FallbackPolicy = "always"
  FallbackFirstTimeOnly FallbackPolicy = "first_time_only"
  FallbackNever         FallbackPolicy = "never"
)

// FallbackSourcer draws previously validated, unserved items from the bank
// when generation underperforms. Items were validated at insertion time and
// are not re-validated here.
type FallbackSourcer interface {
  Fetch(ctx context.Context, tx *gorm.DB, dimension string, userID uuid.UUID, needed int, excludeIDs []uuid.UUID) ([]*types.QuestionItem, error)
  Allowed(ctx context.Context, policy FallbackPolicy, userID uuid.UUID) (bool, error)
}

type fallbackSourcer struct {
  log        *logger.Logger
  itemRepo   repos.QuestionItemRepo
  ledgerRepo repos.UserQuestionLedgerRepo
}

func NewFallbackSourcer(baseLog *logger.Logger, itemRepo repos.QuestionItemRepo, ledgerRepo repos.UserQuestionLedgerRepo) FallbackSourcer {
  return &fallbackSourcer{
    log:        baseLog.With("service", "FallbackSourcer"),
    itemRepo:   itemRepo,
    ledgerRepo: ledgerRepo,
  }
}

func (s *fallbackSourcer) Allowed(ctx context.Context, policy FallbackPolicy, userID uuid.UUID) (bool, error) {
  switch policy {
  case FallbackAlways:
    return true, nil
  case FallbackNever:
    return false, nil
  case FallbackFirstTimeOnly, "":
    served, err := s.ledgerRepo.CountByUserID(ctx, nil, userID)
    if err != nil {
      return false, fmt.Errorf("count ledger: %w", err)
    }
    return served == 0, nil
  default:
    return false, fmt.Errorf("unknown fallback policy %q", policy)
  }
}

func (s *fallbackSourcer) Fetch(ctx context.Context, tx *gorm.DB, dimension string, userID uuid.UUID, needed int, excludeIDs []uuid.UUID) ([]*types.QuestionItem, error) {
  if needed <= 0 {
    return nil, nil
  }
  exclude, err := s.ledgerRepo.QuestionIDsForUser(ctx, tx, userID)
  if err != nil {
    return nil, fmt.Errorf("load ledger for user: %w", err)
  }
  exclude = append(exclude, excludeIDs...)
  items, err := s.itemRepo.GetActiveForFallback(ctx, tx, dimension, exclude, needed)
  if err != nil {
    return nil, fmt.Errorf("load bank items: %w", err)
  }
  s.log.Debug("fallback sourced items", "dimension", dimension, "needed", needed, "found", len(items))
  return items, nil
}
