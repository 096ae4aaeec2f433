package services

import (
  "crypto/sha256"
  "encoding/hex"
  "fmt"
  "hash/fnv"
  "regexp"
  "sort"
  "strings"

  "github.com/yungbote/cogniscan-backend/internal/config"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

// Rejection reason codes. These are contract values recorded in
// validation_log rows; never rename them.
const (
  ReasonFourOptionsRequired    = "FOUR_OPTIONS_REQUIRED"
  ReasonDuplicateOptions       = "DUPLICATE_OPTIONS"
  ReasonCorrectIndexOutOfRange = "CORRECT_INDEX_OUT_OF_RANGE"
  ReasonTautologyOption        = "TAUTOLOGY_OPTION"
  ReasonDuplicateSemantic      = "DUPLICATE_SEMANTIC"
)

// Rejection describes one failed validation. Rejections are expected
// outcomes, not errors: they are logged and generation continues.
type Rejection struct {
  Reason string
  Detail string
}

var tokenRE = regexp.MustCompile(`[a-z0-9]+`)

// FingerprintText normalizes question text into its semantic token set and
// a stable hash over it: lowercase, punctuation stripped, unique tokens
// sorted, FNV-1a hashed.
func FingerprintText(question string) (hash string, tokens map[string]struct{}) {
  lowered := strings.ToLower(question)
  words := tokenRE.FindAllString(lowered, -1)

  tokens = make(map[string]struct{}, len(words))
  for _, w := range words {
    tokens[w] = struct{}{}
  }

  sorted := make([]string, 0, len(tokens))
  for w := range tokens {
    sorted = append(sorted, w)
  }
  sort.Strings(sorted)

  h := fnv.New64a()
  _, _ = h.Write([]byte(strings.Join(sorted, " ")))
  return fmt.Sprintf("%016x", h.Sum64()), tokens
}

// Checksum covers the full rendered content of an item, options included,
// for tamper/change detection. Distinct from the semantic fingerprint.
func Checksum(question string, options []string, correctIndex int) string {
  h := sha256.New()
  _, _ = h.Write([]byte(question))
  for _, o := range options {
    _, _ = h.Write([]byte{0})
    _, _ = h.Write([]byte(o))
  }
  _, _ = h.Write([]byte{0, byte(correctIndex)})
  return hex.EncodeToString(h.Sum(nil))[:32]
}

// Jaccard computes token-set similarity in [0,1].
func Jaccard(a, b map[string]struct{}) float64 {
  if len(a) == 0 && len(b) == 0 {
    return 1
  }
  if len(a) == 0 || len(b) == 0 {
    return 0
  }
  inter := 0
  for t := range a {
    if _, ok := b[t]; ok {
      inter++
    }
  }
  union := len(a) + len(b) - inter
  return float64(inter) / float64(union)
}

type ItemValidator struct {
  log       *logger.Logger
  threshold float64
}

func NewItemValidator(cfg config.Pipeline, baseLog *logger.Logger) *ItemValidator {
  return &ItemValidator{
    log:       baseLog.With("service", "ItemValidator"),
    threshold: cfg.SimilarityThreshold,
  }
}

// ValidateStructural applies the four structural checks in contract order
// and returns the first failure, or nil when the candidate is sound.
func (v *ItemValidator) ValidateStructural(c CandidateItem) *Rejection {
  if len(c.Options) != 4 {
    return &Rejection{
      Reason: ReasonFourOptionsRequired,
      Detail: fmt.Sprintf("got %d options", len(c.Options)),
    }
  }

  seen := make(map[string]int, 4)
  for i, opt := range c.Options {
    key := strings.ToLower(strings.TrimSpace(opt))
    if prev, dup := seen[key]; dup {
      return &Rejection{
        Reason: ReasonDuplicateOptions,
        Detail: fmt.Sprintf("options %d and %d are identical", prev, i),
      }
    }
    seen[key] = i
  }

  if c.CorrectIndex < 0 || c.CorrectIndex > 3 {
    return &Rejection{
      Reason: ReasonCorrectIndexOutOfRange,
      Detail: fmt.Sprintf("correct_index=%d", c.CorrectIndex),
    }
  }

  question := strings.ToLower(c.QuestionText)
  for i, opt := range c.Options {
    trimmed := strings.ToLower(strings.TrimSpace(opt))
    // an empty option is trivially contained in any question text; call it
    // out with its own detail instead of the generic containment message
    if trimmed == "" {
      return &Rejection{
        Reason: ReasonTautologyOption,
        Detail: fmt.Sprintf("option %d is empty", i),
      }
    }
    if strings.Contains(question, trimmed) {
      return &Rejection{
        Reason: ReasonTautologyOption,
        Detail: fmt.Sprintf("option %d appears verbatim in the question", i),
      }
    }
  }

  return nil
}

// DedupIndex tracks fingerprints and token sets already accepted in this
// batch plus the recent persisted window, and rejects semantic duplicates.
type DedupIndex struct {
  threshold float64
  hashes    map[string]struct{}
  tokenSets []map[string]struct{}
}

// NewDedupIndex seeds the index with the recent persisted bank window so
// new candidates are checked across batches, not just within one.
func (v *ItemValidator) NewDedupIndex(recent []*types.QuestionItem) *DedupIndex {
  idx := &DedupIndex{
    threshold: v.threshold,
    hashes:    make(map[string]struct{}, len(recent)),
    tokenSets: make([]map[string]struct{}, 0, len(recent)),
  }
  for _, item := range recent {
    if item == nil {
      continue
    }
    if item.Fingerprint != "" {
      idx.hashes[item.Fingerprint] = struct{}{}
    }
    _, toks := FingerprintText(item.QuestionText)
    if len(toks) > 0 {
      idx.tokenSets = append(idx.tokenSets, toks)
    }
  }
  return idx
}

// Check rejects the candidate when its fingerprint matches, or its token
// set is Jaccard-similar to, anything already indexed.
func (idx *DedupIndex) Check(hash string, tokens map[string]struct{}) *Rejection {
  if _, dup := idx.hashes[hash]; dup {
    return &Rejection{
      Reason: ReasonDuplicateSemantic,
      Detail: "fingerprint already present",
    }
  }
  for _, prior := range idx.tokenSets {
    if sim := Jaccard(tokens, prior); sim >= idx.threshold {
      return &Rejection{
        Reason: ReasonDuplicateSemantic,
        Detail: fmt.Sprintf("token similarity %.2f", sim),
      }
    }
  }
  return nil
}

// Add registers an accepted candidate so later candidates in the same
// batch dedup against it.
func (idx *DedupIndex) Add(hash string, tokens map[string]struct{}) {
  idx.hashes[hash] = struct{}{}
  if len(tokens) > 0 {
    idx.tokenSets = append(idx.tokenSets, tokens)
  }
}
