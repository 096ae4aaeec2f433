package types

import (
  "time"
  "github.com/google/uuid"
)

// RubricMapping declares one question's weighted contribution to one of the
// 47 profile parameters. Rows are immutable once created.
type RubricMapping struct {
  ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  QuestionID uuid.UUID `gorm:"type:uuid;column:question_id;not null;index" json:"question_id"`
  Parameter  string    `gorm:"not null;index" json:"parameter"`
  Weight     float64   `gorm:"not null" json:"weight"`
  CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (RubricMapping) TableName() string { return "rubric_mapping" }
