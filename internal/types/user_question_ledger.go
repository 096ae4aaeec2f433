package types

import (
  "time"
  "github.com/google/uuid"
)

// UserQuestionLedger records that a question was served to a user. The
// (user_id, question_id) pair is unique: it both prevents re-serving and
// feeds aggregation.
type UserQuestionLedger struct {
  ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID     uuid.UUID  `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_ledger_user_question" json:"user_id"`
  QuestionID uuid.UUID  `gorm:"type:uuid;column:question_id;not null;uniqueIndex:idx_ledger_user_question" json:"question_id"`
  SessionID  *uuid.UUID `gorm:"type:uuid;column:session_id" json:"session_id,omitempty"`
  Correct    *bool      `gorm:"column:correct" json:"correct,omitempty"`
  Confidence *float64   `gorm:"column:confidence" json:"confidence,omitempty"`
  ResponseMS *int       `gorm:"column:response_ms" json:"response_ms,omitempty"`
  ServedAt   time.Time  `gorm:"column:served_at;not null;default:now()" json:"served_at"`
  CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt  time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserQuestionLedger) TableName() string { return "user_question_ledger" }
