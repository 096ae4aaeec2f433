package types

import (
  "time"
  "github.com/google/uuid"
)

// ValidationLog records one rejected candidate with its reason code.
// Append-only, observability only; a failed insert never fails the pipeline.
type ValidationLog struct {
  ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  BatchID     int64     `gorm:"column:batch_id;not null;index" json:"batch_id"`
  Dimension   string    `gorm:"not null;index" json:"dimension"`
  Reason      string    `gorm:"not null" json:"reason"`
  Fingerprint string    `gorm:"column:fingerprint" json:"fingerprint"`
  Detail      string    `gorm:"column:detail" json:"detail"`
  CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ValidationLog) TableName() string { return "validation_log" }
