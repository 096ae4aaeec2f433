package types

import (
  "time"
  "github.com/google/uuid"
)

// ErrorLog captures one exception during generation or persistence.
// Append-only; one dimension's error row never blocks another dimension.
type ErrorLog struct {
  ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  BatchID   int64     `gorm:"column:batch_id;not null;index" json:"batch_id"`
  Dimension string    `gorm:"index" json:"dimension"`
  Pipeline  string    `gorm:"column:pipeline" json:"pipeline"`
  Message   string    `gorm:"not null" json:"message"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ErrorLog) TableName() string { return "error_log" }
