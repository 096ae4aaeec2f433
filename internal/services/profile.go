package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/cogniscan-backend/internal/config"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/params"
  "github.com/yungbote/cogniscan-backend/internal/repos"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

// ProfileService maintains the one longitudinal profile row per user. The
// first submission seeds the profile with the attempt snapshot verbatim;
// later submissions fold it in with an exponential moving average.
type ProfileService interface {
  ApplySnapshot(ctx context.Context, tx *gorm.DB, userID, sessionID uuid.UUID, scores AttemptScores) (*types.CognitiveProfile, error)
  GetByUserID(ctx context.Context, userID uuid.UUID) (*types.CognitiveProfile, error)
}

type profileService struct {
  db          *gorm.DB
  log         *logger.Logger
  cfg         config.Pipeline
  profileRepo repos.CognitiveProfileRepo
}

func NewProfileService(db *gorm.DB, baseLog *logger.Logger, cfg config.Pipeline, profileRepo repos.CognitiveProfileRepo) ProfileService {
  return &profileService{
    db:          db,
    log:         baseLog.With("service", "ProfileService"),
    cfg:         cfg,
    profileRepo: profileRepo,
  }
}

func (s *profileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*types.CognitiveProfile, error) {
  return s.profileRepo.GetByUserID(ctx, nil, userID)
}

// ApplySnapshot must run inside the caller's transaction so the row lock it
// takes serializes concurrent submissions for the same user. The row is
// ensured before it is locked; a bare SELECT FOR UPDATE has nothing to hold
// when the user has no profile yet, and two first-ever submissions would both
// read nil and race each other into the unique index.
func (s *profileService) ApplySnapshot(ctx context.Context, tx *gorm.DB, userID, sessionID uuid.UUID, scores AttemptScores) (*types.CognitiveProfile, error) {
  latest := params.VectorFromMap(scores.Parameters)

  if err := s.profileRepo.EnsureRow(ctx, tx, userID, params.SchemaVersion); err != nil {
    return nil, fmt.Errorf("ensure profile row: %w", err)
  }
  profile, err := s.profileRepo.GetByUserIDForUpdate(ctx, tx, userID)
  if err != nil {
    return nil, fmt.Errorf("lock profile: %w", err)
  }
  if profile == nil {
    return nil, fmt.Errorf("profile row missing after ensure for user %s", userID)
  }

  if profile.TestsSeen == 0 {
    doc := mustJSON(latest.ToMap())
    if err := s.profileRepo.UpdateFields(ctx, tx, profile.ID, map[string]any{
      "parameters":      doc,
      "tests_seen":      1,
      "last_session_id": sessionID,
      "schema_version":  params.SchemaVersion,
    }); err != nil {
      return nil, fmt.Errorf("seed profile: %w", err)
    }
    profile.Parameters = doc
    profile.TestsSeen = 1
    profile.LastSessionID = &sessionID
    profile.SchemaVersion = params.SchemaVersion
    return profile, nil
  }

  var prevMap map[string]float64
  if err := json.Unmarshal(profile.Parameters, &prevMap); err != nil {
    return nil, fmt.Errorf("decode stored profile: %w", err)
  }
  prev := params.VectorFromMap(prevMap)

  blended := params.Blend(prev, latest, s.cfg.EMAAlpha)
  doc := mustJSON(blended.ToMap())
  if err := s.profileRepo.UpdateFields(ctx, tx, profile.ID, map[string]any{
    "parameters":      doc,
    "tests_seen":      profile.TestsSeen + 1,
    "last_session_id": sessionID,
    "schema_version":  params.SchemaVersion,
  }); err != nil {
    return nil, fmt.Errorf("update profile: %w", err)
  }
  profile.Parameters = doc
  profile.TestsSeen++
  profile.LastSessionID = &sessionID
  profile.SchemaVersion = params.SchemaVersion
  return profile, nil
}
