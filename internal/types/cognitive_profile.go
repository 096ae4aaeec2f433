package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// CognitiveProfile is the one longitudinal row per user. Parameters is a
// jsonb document keyed by the 47 registry names (params.SchemaVersion pins
// the key set). Created lazily on first submission; the EMA updater is the
// only write path.
type CognitiveProfile struct {
  ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID        uuid.UUID      `gorm:"type:uuid;column:user_id;not null;uniqueIndex" json:"user_id"`
  SchemaVersion int            `gorm:"column:schema_version;not null" json:"schema_version"`
  Parameters    datatypes.JSON `gorm:"type:jsonb;not null" json:"parameters"`
  TestsSeen     int            `gorm:"column:tests_seen;not null;default:0" json:"tests_seen"`
  LastSessionID *uuid.UUID     `gorm:"type:uuid;column:last_session_id" json:"last_session_id,omitempty"`
  CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (CognitiveProfile) TableName() string { return "cognitive_profile" }
