package types

import (
  "time"
  "github.com/google/uuid"
)

// TestSession is one completed attempt by one user.
type TestSession struct {
  ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID       uuid.UUID  `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
  BatchID      *int64     `gorm:"column:batch_id" json:"batch_id,omitempty"`
  BatchKey     string     `gorm:"column:batch_key" json:"batch_key"`
  OverallScore *float64   `gorm:"column:overall_score" json:"overall_score,omitempty"`
  CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
  CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (TestSession) TableName() string { return "test_session" }

// TestResponse is one answered question within a session, ordered by Position.
type TestResponse struct {
  ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  SessionID   uuid.UUID `gorm:"type:uuid;column:session_id;not null;index" json:"session_id"`
  QuestionID  uuid.UUID `gorm:"type:uuid;column:question_id;not null;index" json:"question_id"`
  Position    int       `gorm:"not null" json:"position"`
  ChosenIndex int       `gorm:"column:chosen_index;not null" json:"chosen_index"`
  Correct     bool      `gorm:"not null" json:"correct"`
  Confidence  float64   `gorm:"column:confidence" json:"confidence"`
  ResponseMS  int       `gorm:"column:response_ms" json:"response_ms"`
  CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TestResponse) TableName() string { return "test_response" }
