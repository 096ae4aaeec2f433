package types

import (
  "time"
  "github.com/google/uuid"
)

// GenerationLog is append-only: one row per generation attempt outcome,
// correlated by batch id + dimension. Never updated or deleted.
type GenerationLog struct {
  ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  BatchID    int64      `gorm:"column:batch_id;not null;index" json:"batch_id"`
  BatchKey   string     `gorm:"column:batch_key;not null" json:"batch_key"`
  Dimension  string     `gorm:"not null;index" json:"dimension"`
  Pipeline   string     `gorm:"not null" json:"pipeline"`
  Attempt    int        `gorm:"not null" json:"attempt"`
  Status     string     `gorm:"not null" json:"status"`
  QuestionID *uuid.UUID `gorm:"type:uuid;column:question_id" json:"question_id,omitempty"`
  Note       string     `gorm:"column:note" json:"note"`
  CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (GenerationLog) TableName() string { return "generation_log" }
