package services

import (
  "context"
  "fmt"
  "time"

  "gorm.io/gorm"

  "github.com/yungbote/cogniscan-backend/internal/logger"
)

// BatchRef identifies one generation run. ID is monotonic; Key is the
// human-readable trace handle and is never used in correctness decisions.
type BatchRef struct {
  ID  int64  `json:"batch_id"`
  Key string `json:"batch_key"`
}

type BatchAllocator interface {
  Acquire(ctx context.Context) BatchRef
}

type batchAllocator struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewBatchAllocator(db *gorm.DB, baseLog *logger.Logger) BatchAllocator {
  return &batchAllocator{db: db, log: baseLog.With("service", "BatchAllocator")}
}

// Acquire pulls the next value from the shared postgres sequence. If the
// sequence is unavailable it degrades to a timestamp-derived id: downstream
// logic needs monotonic-enough uniqueness for tracing, not id density.
func (a *batchAllocator) Acquire(ctx context.Context) BatchRef {
  now := time.Now().UTC()

  var id int64
  err := a.db.WithContext(ctx).Raw(`SELECT nextval('generation_batch_seq')`).Scan(&id).Error
  if err != nil || id <= 0 {
    id = now.UnixMilli()
    a.log.Warn("batch sequence unavailable, using timestamp-derived id", "fallback_id", id, "error", err)
  }

  return BatchRef{
    ID:  id,
    Key: FormatBatchKey(now, id),
  }
}

// FormatBatchKey renders `{compact UTC timestamp}-{id zero-padded to 6}`.
func FormatBatchKey(t time.Time, id int64) string {
  return fmt.Sprintf("%s-%06d", t.UTC().Format("20060102T150405"), id)
}
