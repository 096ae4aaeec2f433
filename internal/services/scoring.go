package services

import (
  "github.com/google/uuid"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/params"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

// AttemptScores is the per-attempt snapshot produced from one submission.
// Parameters always carries every known parameter; ones no answered question
// mapped onto stay at zero and are excluded from Overall.
type AttemptScores struct {
  Parameters map[string]float64 `json:"parameters"`
  Overall    float64            `json:"overall"`
}

// RubricAggregator folds a session's responses into parameter scores using
// the rubric mappings recorded when each item was persisted.
type RubricAggregator struct {
  log *logger.Logger
}

func NewRubricAggregator(baseLog *logger.Logger) *RubricAggregator {
  return &RubricAggregator{log: baseLog.With("service", "RubricAggregator")}
}

// Aggregate computes, per parameter, the weighted share of correct answers
// scaled to 0..100. mappings is keyed by question id. Responses for questions
// with no mappings contribute nothing.
func (a *RubricAggregator) Aggregate(responses []*types.TestResponse, mappings map[uuid.UUID][]*types.RubricMapping) AttemptScores {
  var weighted, total params.Vector
  for _, resp := range responses {
    correct := 0.0
    if resp.Correct {
      correct = 1.0
    }
    for _, m := range mappings[resp.QuestionID] {
      slot := params.Slot(m.Parameter)
      if slot < 0 {
        a.log.Warn("Rubric mapping references unknown parameter", "parameter", m.Parameter, "question_id", m.QuestionID)
        continue
      }
      weighted[slot] += m.Weight * correct
      total[slot] += m.Weight
    }
  }

  var scores params.Vector
  sum := 0.0
  touched := 0
  for i := 0; i < params.Count; i++ {
    if total[i] <= 0 {
      continue
    }
    scores[i] = params.Clamp(100 * weighted[i] / total[i])
    sum += scores[i]
    touched++
  }
  overall := 0.0
  if touched > 0 {
    overall = sum / float64(touched)
  }
  return AttemptScores{Parameters: scores.ToMap(), Overall: overall}
}
