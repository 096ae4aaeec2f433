package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/yungbote/cogniscan-backend/internal/logger"
)

// CandidateItem is one unvalidated item as proposed by the provider.
type CandidateItem struct {
  QuestionText string   `json:"question_text"`
  Options      []string `json:"options"`
  CorrectIndex int      `json:"correct_index"`
  RubricTags   []string `json:"rubric_tags"`
  Difficulty   string   `json:"difficulty"`
}

// ItemGenerationClient turns one prompt into candidate items. Any provider
// or parse failure surfaces as (nil, ErrMalformedGenerationOutput-wrapped):
// the caller sees zero items, never a panic or a raw transport error.
type ItemGenerationClient interface {
  GenerateItems(ctx context.Context, in PromptInput) ([]CandidateItem, error)
}

type itemGenerationClient struct {
  log     *logger.Logger
  ai      OpenAIClient
  prompts *PromptBuilder
}

func NewItemGenerationClient(baseLog *logger.Logger, ai OpenAIClient, prompts *PromptBuilder) ItemGenerationClient {
  return &itemGenerationClient{
    log:     baseLog.With("service", "ItemGenerationClient"),
    ai:      ai,
    prompts: prompts,
  }
}

func (c *itemGenerationClient) GenerateItems(ctx context.Context, in PromptInput) ([]CandidateItem, error) {
  system, user, schemaName, schema := c.prompts.Build(in)

  obj, err := c.ai.GenerateJSON(ctx, system, user, schemaName, schema)
  if err != nil {
    c.log.Warn("generation call failed", "dimension", in.Dimension, "pass", in.Pass, "error", err)
    return nil, fmt.Errorf("%w: %v", ErrMalformedGenerationOutput, err)
  }

  raw, err := json.Marshal(obj["items"])
  if err != nil {
    return nil, fmt.Errorf("%w: re-encode items: %v", ErrMalformedGenerationOutput, err)
  }
  var items []CandidateItem
  if err := json.Unmarshal(raw, &items); err != nil {
    c.log.Warn("generation output did not match item contract", "dimension", in.Dimension, "pass", in.Pass, "error", err)
    return nil, fmt.Errorf("%w: decode items: %v", ErrMalformedGenerationOutput, err)
  }
  return items, nil
}
