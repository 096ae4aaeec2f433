package services

import (
  "fmt"
  "strings"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/params"
)

const (
  PassCore   = "core"
  PassFiller = "filler"

  // maxAvoidList bounds the anti-duplication context fed back into the
  // prompt so it cannot grow without limit across attempts.
  maxAvoidList = 30

  itemSchemaName = "cognitive_item_batch"
)

// PromptInput is everything one generation call needs: the dimension, how
// many items to ask for (kept small to bound the blast radius of one bad
// response), and recent question texts the model must not repeat.
type PromptInput struct {
  Dimension      string
  Count          int
  Pass           string
  AvoidQuestions []string
}

type PromptBuilder struct {
  log *logger.Logger
}

func NewPromptBuilder(baseLog *logger.Logger) *PromptBuilder {
  return &PromptBuilder{log: baseLog.With("service", "PromptBuilder")}
}

// Build returns the system prompt, user prompt and strict JSON schema for
// one generation call. The core and filler passes share one output contract
// but frame the task differently to decorrelate failure modes.
func (b *PromptBuilder) Build(in PromptInput) (system string, user string, schemaName string, schema map[string]any) {
  parameters := params.ForDimension(in.Dimension)

  switch in.Pass {
  case PassFiller:
    system = "You are a puzzle author who writes short, self-contained brain teasers. " +
      "Each teaser is a multiple-choice question probing one specific cognitive ability. " +
      "Keep the wording playful but unambiguous, and never reveal the answer in the question."
  default:
    system = "You are a psychometrician designing items for a standardized cognitive assessment. " +
      "Each item is a multiple-choice question measuring a specific cognitive ability. " +
      "Items must be culture-fair, self-contained, and answerable without specialized knowledge."
  }

  var u strings.Builder
  fmt.Fprintf(&u, "Write exactly %d multiple-choice questions for the cognitive dimension %q.\n\n", in.Count, in.Dimension)
  u.WriteString("Rules:\n")
  u.WriteString("- Each question has exactly 4 answer options, all distinct.\n")
  u.WriteString("- Exactly one option is correct; correct_index points at it (0-3).\n")
  u.WriteString("- No option may restate or quote the question text.\n")
  fmt.Fprintf(&u, "- Tag each question with 1 to 3 rubric_tags drawn from: %s.\n", strings.Join(parameters, ", "))
  u.WriteString("- difficulty is one of: easy, medium, hard.\n")
  u.WriteString("\nDo not produce a question similar to any of these recent questions:\n")
  u.WriteString(formatAvoidList(in.AvoidQuestions, maxAvoidList))

  return system, u.String(), itemSchemaName, itemBatchSchema(parameters)
}

// formatAvoidList renders the most recent `max` prior questions as a
// numbered list, or "None" when there are no priors.
func formatAvoidList(prior []string, max int) string {
  if len(prior) == 0 {
    return "None"
  }
  if max > 0 && len(prior) > max {
    prior = prior[len(prior)-max:]
  }
  var b strings.Builder
  for i, q := range prior {
    fmt.Fprintf(&b, "%d. %s\n", i+1, q)
  }
  return strings.TrimRight(b.String(), "\n")
}

func itemBatchSchema(parameters []string) map[string]any {
  tagEnum := make([]any, 0, len(parameters))
  for _, p := range parameters {
    tagEnum = append(tagEnum, p)
  }
  return map[string]any{
    "type":                 "object",
    "additionalProperties": false,
    "required":             []any{"items"},
    "properties": map[string]any{
      "items": map[string]any{
        "type": "array",
        "items": map[string]any{
          "type":                 "object",
          "additionalProperties": false,
          "required":             []any{"question_text", "options", "correct_index", "rubric_tags", "difficulty"},
          "properties": map[string]any{
            "question_text": map[string]any{"type": "string"},
            "options": map[string]any{
              "type":     "array",
              "items":    map[string]any{"type": "string"},
              "minItems": 4,
              "maxItems": 4,
            },
            "correct_index": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
            "rubric_tags": map[string]any{
              "type":     "array",
              "items":    map[string]any{"type": "string", "enum": tagEnum},
              "minItems": 1,
              "maxItems": 3,
            },
            "difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
          },
        },
      },
    },
  }
}
