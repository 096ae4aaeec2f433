package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// QuestionItem is one validated multiple-choice item in the persisted bank.
// Options always holds exactly four distinct strings; CorrectIndex points
// into it. Items are deactivated, never hard-deleted, so ledger and rubric
// rows stay resolvable.
type QuestionItem struct {
  ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Dimension    string         `gorm:"not null;index" json:"dimension"`
  QuestionText string         `gorm:"column:question_text;not null" json:"question_text"`
  Options      datatypes.JSON `gorm:"type:jsonb;not null" json:"options"`
  CorrectIndex int            `gorm:"column:correct_index;not null" json:"correct_index"`
  RubricTags   datatypes.JSON `gorm:"type:jsonb;column:rubric_tags" json:"rubric_tags"`
  Difficulty   string         `gorm:"column:difficulty" json:"difficulty"`
  Fingerprint  string         `gorm:"not null;index" json:"fingerprint"`
  Checksum     string         `gorm:"not null" json:"checksum"`
  BatchID      int64          `gorm:"column:batch_id;not null;index" json:"batch_id"`
  BatchKey     string         `gorm:"column:batch_key;not null" json:"batch_key"`
  Pipeline     string         `gorm:"not null" json:"pipeline"`
  Active       bool           `gorm:"not null;default:true;index" json:"active"`
  TimesServed  int            `gorm:"column:times_served;not null;default:0" json:"times_served"`
  LastServedAt *time.Time     `gorm:"column:last_served_at" json:"last_served_at,omitempty"`
  CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuestionItem) TableName() string { return "question_item" }
