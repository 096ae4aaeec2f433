package services

import (
  "context"
  "encoding/json"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/repos"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

// SubmitAnswer is one answered question in a submission, in presentation
// order.
type SubmitAnswer struct {
  QuestionID  uuid.UUID `json:"question_id"`
  ChosenIndex int       `json:"chosen_index"`
  Confidence  float64   `json:"confidence"`
  ResponseMS  int       `json:"response_ms"`
}

type SubmitInput struct {
  UserID    uuid.UUID      `json:"user_id"`
  SessionID uuid.UUID      `json:"session_id"`
  BatchKey  string         `json:"batch_key"`
  Answers   []SubmitAnswer `json:"answers"`
}

// SubmitResult carries both views of a submission: the attempt snapshot as
// scored, and the longitudinal profile after the snapshot was folded in.
type SubmitResult struct {
  Session *types.TestSession      `json:"session"`
  Attempt AttemptScores           `json:"attempt"`
  Profile *types.CognitiveProfile `json:"profile"`
}

type AssessmentService interface {
  Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
}

type assessmentService struct {
  db          *gorm.DB
  log         *logger.Logger
  aggregator  *RubricAggregator
  profiles    ProfileService
  userRepo    repos.UserRepo
  itemRepo    repos.QuestionItemRepo
  rubricRepo  repos.RubricMappingRepo
  sessionRepo repos.TestSessionRepo
  ledgerRepo  repos.UserQuestionLedgerRepo
  runTx       func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewAssessmentService(
  db *gorm.DB,
  baseLog *logger.Logger,
  aggregator *RubricAggregator,
  profiles ProfileService,
  userRepo repos.UserRepo,
  itemRepo repos.QuestionItemRepo,
  rubricRepo repos.RubricMappingRepo,
  sessionRepo repos.TestSessionRepo,
  ledgerRepo repos.UserQuestionLedgerRepo,
) AssessmentService {
  svc := &assessmentService{
    db:          db,
    log:         baseLog.With("service", "AssessmentService"),
    aggregator:  aggregator,
    profiles:    profiles,
    userRepo:    userRepo,
    itemRepo:    itemRepo,
    rubricRepo:  rubricRepo,
    sessionRepo: sessionRepo,
    ledgerRepo:  ledgerRepo,
  }
  svc.runTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
    return db.WithContext(ctx).Transaction(fn)
  }
  return svc
}

// Submit scores one finished attempt and folds it into the user's profile.
// Everything runs in one transaction: either the session, its responses, the
// ledger outcomes and the profile update all land, or none of them do.
func (s *assessmentService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
  if len(in.Answers) == 0 {
    return nil, fmt.Errorf("submission has no answers")
  }
  if in.SessionID == uuid.Nil {
    return nil, fmt.Errorf("session id is required")
  }

  var result *SubmitResult
  err := s.runTx(ctx, func(tx *gorm.DB) error {
    users, err := s.userRepo.GetByIDs(ctx, tx, []uuid.UUID{in.UserID})
    if err != nil {
      return fmt.Errorf("resolve user: %w", err)
    }
    if len(users) == 0 {
      return ErrUserNotFound
    }

    existing, err := s.sessionRepo.GetByIDs(ctx, tx, []uuid.UUID{in.SessionID})
    if err != nil {
      return fmt.Errorf("check session: %w", err)
    }
    if len(existing) > 0 {
      return ErrSessionExists
    }

    questionIDs := make([]uuid.UUID, 0, len(in.Answers))
    for _, ans := range in.Answers {
      questionIDs = append(questionIDs, ans.QuestionID)
    }
    items, err := s.itemRepo.GetByIDs(ctx, tx, questionIDs)
    if err != nil {
      return fmt.Errorf("load questions: %w", err)
    }
    itemByID := make(map[uuid.UUID]*types.QuestionItem, len(items))
    for _, item := range items {
      itemByID[item.ID] = item
    }

    // the numeric batch id is carried by the items, not the request
    var batchID *int64
    if in.BatchKey != "" {
      for _, item := range items {
        if item.BatchKey == in.BatchKey {
          id := item.BatchID
          batchID = &id
          break
        }
      }
    }

    now := time.Now().UTC()
    session := &types.TestSession{
      ID:          in.SessionID,
      UserID:      in.UserID,
      BatchID:     batchID,
      BatchKey:    in.BatchKey,
      CompletedAt: &now,
    }
    if _, err := s.sessionRepo.Create(ctx, tx, []*types.TestSession{session}); err != nil {
      return fmt.Errorf("create session: %w", err)
    }

    responses := make([]*types.TestResponse, 0, len(in.Answers))
    for pos, ans := range in.Answers {
      item, ok := itemByID[ans.QuestionID]
      if !ok {
        return fmt.Errorf("answer %d references unknown question %s", pos, ans.QuestionID)
      }
      responses = append(responses, &types.TestResponse{
        SessionID:   session.ID,
        QuestionID:  ans.QuestionID,
        Position:    pos,
        ChosenIndex: ans.ChosenIndex,
        Correct:     isCorrect(item, ans.ChosenIndex),
        Confidence:  ans.Confidence,
        ResponseMS:  ans.ResponseMS,
      })
    }
    if _, err := s.sessionRepo.CreateResponses(ctx, tx, responses); err != nil {
      return fmt.Errorf("create responses: %w", err)
    }

    for _, resp := range responses {
      err := s.ledgerRepo.RecordOutcome(ctx, tx, in.UserID, resp.QuestionID, session.ID, resp.Correct, resp.Confidence, resp.ResponseMS)
      if err == gorm.ErrRecordNotFound {
        s.log.Warn("Answered question was never served to user", "user_id", in.UserID, "question_id", resp.QuestionID)
        continue
      }
      if err != nil {
        return fmt.Errorf("record outcome: %w", err)
      }
    }

    mappingRows, err := s.rubricRepo.GetByQuestionIDs(ctx, tx, questionIDs)
    if err != nil {
      return fmt.Errorf("load rubric mappings: %w", err)
    }
    mappings := make(map[uuid.UUID][]*types.RubricMapping, len(questionIDs))
    for _, row := range mappingRows {
      mappings[row.QuestionID] = append(mappings[row.QuestionID], row)
    }

    scores := s.aggregator.Aggregate(responses, mappings)
    if err := s.sessionRepo.UpdateFields(ctx, tx, session.ID, map[string]any{
      "overall_score": scores.Overall,
    }); err != nil {
      return fmt.Errorf("update session score: %w", err)
    }
    session.OverallScore = &scores.Overall

    profile, err := s.profiles.ApplySnapshot(ctx, tx, in.UserID, session.ID, scores)
    if err != nil {
      return err
    }

    result = &SubmitResult{Session: session, Attempt: scores, Profile: profile}
    return nil
  })
  if err != nil {
    return nil, err
  }
  s.log.Info("Submission scored", "user_id", in.UserID, "session_id", in.SessionID, "answers", len(in.Answers), "overall", result.Attempt.Overall)
  return result, nil
}

// isCorrect guards against a chosen index outside the stored option list.
func isCorrect(item *types.QuestionItem, chosen int) bool {
  var options []string
  if err := json.Unmarshal(item.Options, &options); err == nil {
    if chosen < 0 || chosen >= len(options) {
      return false
    }
  }
  return chosen == item.CorrectIndex
}
