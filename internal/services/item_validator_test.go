package services

import (
  "math"
  "testing"

  "github.com/yungbote/cogniscan-backend/internal/config"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  return log
}

func testValidator(t *testing.T) *ItemValidator {
  t.Helper()
  return NewItemValidator(config.DefaultPipeline(), testLogger(t))
}

func validCandidate() CandidateItem {
  return CandidateItem{
    QuestionText: "Which number continues the sequence 2, 4, 8, 16?",
    Options:      []string{"24", "32", "30", "64"},
    CorrectIndex: 1,
    RubricTags:   []string{"pattern_recognition"},
    Difficulty:   "medium",
  }
}

func TestValidateStructuralAccepts(t *testing.T) {
  if rej := testValidator(t).ValidateStructural(validCandidate()); rej != nil {
    t.Fatalf("valid candidate rejected: %s (%s)", rej.Reason, rej.Detail)
  }
}

func TestValidateStructuralOptionCount(t *testing.T) {
  v := testValidator(t)
  c := validCandidate()
  c.Options = c.Options[:3]
  rej := v.ValidateStructural(c)
  if rej == nil || rej.Reason != ReasonFourOptionsRequired {
    t.Fatalf("expected %s, got %+v", ReasonFourOptionsRequired, rej)
  }
}

func TestValidateStructuralDuplicateOptions(t *testing.T) {
  v := testValidator(t)
  c := validCandidate()
  c.Options = []string{"32", "24", " 32 ", "64"}
  rej := v.ValidateStructural(c)
  if rej == nil || rej.Reason != ReasonDuplicateOptions {
    t.Fatalf("expected %s, got %+v", ReasonDuplicateOptions, rej)
  }

  // case-insensitive comparison
  c.Options = []string{"True", "true", "maybe", "never"}
  rej = v.ValidateStructural(c)
  if rej == nil || rej.Reason != ReasonDuplicateOptions {
    t.Fatalf("expected %s for case variants, got %+v", ReasonDuplicateOptions, rej)
  }
}

func TestValidateStructuralCorrectIndexRange(t *testing.T) {
  v := testValidator(t)
  for _, idx := range []int{-1, 4, 12} {
    c := validCandidate()
    c.CorrectIndex = idx
    rej := v.ValidateStructural(c)
    if rej == nil || rej.Reason != ReasonCorrectIndexOutOfRange {
      t.Fatalf("correct_index=%d: expected %s, got %+v", idx, ReasonCorrectIndexOutOfRange, rej)
    }
  }
}

func TestValidateStructuralTautology(t *testing.T) {
  v := testValidator(t)
  c := validCandidate()
  c.QuestionText = "The answer is 32. Which number continues the sequence?"
  rej := v.ValidateStructural(c)
  if rej == nil || rej.Reason != ReasonTautologyOption {
    t.Fatalf("expected %s, got %+v", ReasonTautologyOption, rej)
  }
}

func TestValidateStructuralEmptyOption(t *testing.T) {
  v := testValidator(t)
  c := validCandidate()
  c.Options = []string{"24", "", "30", "64"}
  rej := v.ValidateStructural(c)
  if rej == nil || rej.Reason != ReasonTautologyOption {
    t.Fatalf("expected %s for empty option, got %+v", ReasonTautologyOption, rej)
  }
  if rej.Detail != "option 1 is empty" {
    t.Fatalf("detail should name the empty option, got %q", rej.Detail)
  }
}

func TestFingerprintNormalization(t *testing.T) {
  h1, _ := FingerprintText("What comes next: 2, 4, 8?")
  h2, _ := FingerprintText("what comes NEXT 2 4 8")
  if h1 != h2 {
    t.Fatalf("case and punctuation should not change the fingerprint: %s vs %s", h1, h2)
  }

  // token order does not matter either
  h3, _ := FingerprintText("8 4 2 next comes what")
  if h1 != h3 {
    t.Fatalf("token order should not change the fingerprint: %s vs %s", h1, h3)
  }

  h4, _ := FingerprintText("What comes next: 3, 6, 9?")
  if h1 == h4 {
    t.Fatalf("different questions should not collide")
  }

  if len(h1) != 16 {
    t.Fatalf("fingerprint should be 16 hex chars, got %q", h1)
  }
}

func TestJaccard(t *testing.T) {
  _, a := FingerprintText("the quick brown fox")
  _, b := FingerprintText("the quick brown fox")
  if got := Jaccard(a, b); got != 1 {
    t.Fatalf("identical sets: got %v, want 1", got)
  }

  _, c := FingerprintText("entirely different words here")
  if got := Jaccard(a, c); got != 0 {
    t.Fatalf("disjoint sets: got %v, want 0", got)
  }

  _, d := FingerprintText("the quick brown cat")
  want := 3.0 / 5.0
  if got := Jaccard(a, d); math.Abs(got-want) > 1e-9 {
    t.Fatalf("overlap: got %v, want %v", got, want)
  }
}

func TestDedupIndexExactMatch(t *testing.T) {
  v := testValidator(t)
  idx := v.NewDedupIndex(nil)

  hash, tokens := FingerprintText("Which shape completes the grid?")
  if rej := idx.Check(hash, tokens); rej != nil {
    t.Fatalf("fresh candidate rejected: %+v", rej)
  }
  idx.Add(hash, tokens)
  rej := idx.Check(hash, tokens)
  if rej == nil || rej.Reason != ReasonDuplicateSemantic {
    t.Fatalf("expected %s for repeated fingerprint, got %+v", ReasonDuplicateSemantic, rej)
  }
}

func TestDedupIndexNearDuplicate(t *testing.T) {
  v := testValidator(t)
  idx := v.NewDedupIndex(nil)

  base := "select the word that best completes the analogy hand is to glove as foot is to what"
  hash, tokens := FingerprintText(base)
  idx.Add(hash, tokens)

  // one token swapped out of a long question stays above the 0.85 threshold
  near := "select the word that best completes the analogy hand is to glove as head is to what"
  h2, t2 := FingerprintText(near)
  rej := idx.Check(h2, t2)
  if rej == nil || rej.Reason != ReasonDuplicateSemantic {
    t.Fatalf("expected near-duplicate rejection, got %+v", rej)
  }

  far := "how many cubes are hidden in this three dimensional stack"
  h3, t3 := FingerprintText(far)
  if rej := idx.Check(h3, t3); rej != nil {
    t.Fatalf("unrelated question rejected: %+v", rej)
  }
}

func TestDedupIndexSeedsFromRecentItems(t *testing.T) {
  v := testValidator(t)
  text := "Which number continues the sequence 5, 10, 20?"
  fp, _ := FingerprintText(text)
  idx := v.NewDedupIndex([]*types.QuestionItem{
    {QuestionText: text, Fingerprint: fp},
  })

  hash, tokens := FingerprintText(text)
  rej := idx.Check(hash, tokens)
  if rej == nil || rej.Reason != ReasonDuplicateSemantic {
    t.Fatalf("expected seeded duplicate rejection, got %+v", rej)
  }
}

func TestChecksumCoversOptionsAndAnswer(t *testing.T) {
  base := Checksum("q", []string{"a", "b", "c", "d"}, 0)
  if len(base) != 32 {
    t.Fatalf("checksum should be 32 hex chars, got %d", len(base))
  }
  if Checksum("q", []string{"a", "b", "c", "d"}, 1) == base {
    t.Fatalf("changing the correct index should change the checksum")
  }
  if Checksum("q", []string{"a", "b", "c", "e"}, 0) == base {
    t.Fatalf("changing an option should change the checksum")
  }
}
