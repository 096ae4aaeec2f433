package services

import (
  "context"
  "fmt"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/cogniscan-backend/internal/config"
  "github.com/yungbote/cogniscan-backend/internal/params"
  "github.com/yungbote/cogniscan-backend/internal/sse"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

type fakeItemRepo struct {
  mu          sync.Mutex
  created     []*types.QuestionItem
  recent      []*types.QuestionItem
  bank        []*types.QuestionItem
  served      []uuid.UUID
  deactivated []uuid.UUID
}

func (f *fakeItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.QuestionItem) ([]*types.QuestionItem, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, item := range items {
    if item.ID == uuid.Nil {
      item.ID = uuid.New()
    }
    f.created = append(f.created, item)
  }
  return items, nil
}

func (f *fakeItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) ([]*types.QuestionItem, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  wanted := make(map[uuid.UUID]bool, len(itemIDs))
  for _, id := range itemIDs {
    wanted[id] = true
  }
  var out []*types.QuestionItem
  for _, item := range append(append([]*types.QuestionItem{}, f.created...), f.bank...) {
    if wanted[item.ID] {
      out = append(out, item)
    }
  }
  return out, nil
}

func (f *fakeItemRepo) GetActiveForFallback(ctx context.Context, tx *gorm.DB, dimension string, excludeIDs []uuid.UUID, limit int) ([]*types.QuestionItem, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  excluded := make(map[uuid.UUID]bool, len(excludeIDs))
  for _, id := range excludeIDs {
    excluded[id] = true
  }
  out := make([]*types.QuestionItem, 0, limit)
  for _, item := range f.bank {
    if len(out) == limit {
      break
    }
    if item.Dimension == dimension && !excluded[item.ID] {
      out = append(out, item)
    }
  }
  return out, nil
}

func (f *fakeItemRepo) RecentActive(ctx context.Context, tx *gorm.DB, dimension string, window int) ([]*types.QuestionItem, error) {
  return f.recent, nil
}

func (f *fakeItemRepo) MarkServed(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID, at time.Time) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.served = append(f.served, itemIDs...)
  return nil
}

func (f *fakeItemRepo) DeactivateByIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.deactivated = append(f.deactivated, itemIDs...)
  return nil
}

type fakeRubricRepo struct {
  mu   sync.Mutex
  rows []*types.RubricMapping
}

func (f *fakeRubricRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.RubricMapping) ([]*types.RubricMapping, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.rows = append(f.rows, rows...)
  return rows, nil
}

func (f *fakeRubricRepo) GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.RubricMapping, error) {
  return f.rows, nil
}

type fakeGenLogRepo struct {
  mu   sync.Mutex
  rows []*types.GenerationLog
}

func (f *fakeGenLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GenerationLog) ([]*types.GenerationLog, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.rows = append(f.rows, rows...)
  return rows, nil
}

type fakeValLogRepo struct {
  mu   sync.Mutex
  rows []*types.ValidationLog
}

func (f *fakeValLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ValidationLog) ([]*types.ValidationLog, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.rows = append(f.rows, rows...)
  return rows, nil
}

type fakeErrLogRepo struct {
  mu   sync.Mutex
  rows []*types.ErrorLog
}

func (f *fakeErrLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ErrorLog) ([]*types.ErrorLog, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.rows = append(f.rows, rows...)
  return rows, nil
}

type fakeLedgerRepo struct {
  mu        sync.Mutex
  rows      []*types.UserQuestionLedger
  servedCnt int64
}

func (f *fakeLedgerRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.UserQuestionLedger) ([]*types.UserQuestionLedger, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.rows = append(f.rows, rows...)
  return rows, nil
}

func (f *fakeLedgerRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
  return f.servedCnt, nil
}

func (f *fakeLedgerRepo) QuestionIDsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
  return nil, nil
}

func (f *fakeLedgerRepo) GetByUserAndQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, questionIDs []uuid.UUID) ([]*types.UserQuestionLedger, error) {
  return nil, nil
}

func (f *fakeLedgerRepo) RecordOutcome(ctx context.Context, tx *gorm.DB, userID, questionID, sessionID uuid.UUID, correct bool, confidence float64, responseMS int) error {
  return nil
}

type fakeCache struct {
  mu   sync.Mutex
  sets map[string][]*types.QuestionItem
  hits map[string][]*types.QuestionItem
}

func newFakeCache() *fakeCache {
  return &fakeCache{
    sets: make(map[string][]*types.QuestionItem),
    hits: make(map[string][]*types.QuestionItem),
  }
}

func (f *fakeCache) Get(ctx context.Context, dimension, batchKey string) ([]*types.QuestionItem, bool) {
  f.mu.Lock()
  defer f.mu.Unlock()
  items, ok := f.hits[dimension]
  return items, ok
}

func (f *fakeCache) Set(ctx context.Context, dimension, batchKey string, items []*types.QuestionItem, ttl time.Duration) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.sets[dimension] = items
}

func (f *fakeCache) Close() error { return nil }

type fakeNotifier struct {
  mu     sync.Mutex
  events []string
}

func (f *fakeNotifier) record(ev string) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.events = append(f.events, ev)
}

func (f *fakeNotifier) has(ev string) bool {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, e := range f.events {
    if e == ev {
      return true
    }
  }
  return false
}

func (f *fakeNotifier) GenerationStarted(userID uuid.UUID, batch BatchRef, note string) {
  f.record(string(sse.SSEEventGenerationStarted))
}

func (f *fakeNotifier) DimensionProgress(userID uuid.UUID, batch BatchRef, dimension string, accepted, target int, note string) {
  f.record(string(sse.SSEEventDimensionProgress))
}

func (f *fakeNotifier) ValidationEvent(userID uuid.UUID, batch BatchRef, dimension string, reason string, note string) {
  f.record(string(sse.SSEEventValidationEvent) + ":" + reason)
}

func (f *fakeNotifier) BackupInvoked(userID uuid.UUID, batch BatchRef, dimension string, note string) {
  f.record(string(sse.SSEEventBackupInvoked))
}

func (f *fakeNotifier) GenerationCompleted(userID uuid.UUID, batch BatchRef, note string) {
  f.record(string(sse.SSEEventGenerationCompleted))
}

type fakeAllocator struct{ ref BatchRef }

func (f *fakeAllocator) Acquire(ctx context.Context) BatchRef { return f.ref }

// scriptedClient returns one canned batch of candidates per call, then
// empty batches.
type scriptedClient struct {
  mu      sync.Mutex
  batches map[string][][]CandidateItem
  err     error
}

func (c *scriptedClient) GenerateItems(ctx context.Context, in PromptInput) ([]CandidateItem, error) {
  if c.err != nil {
    return nil, c.err
  }
  c.mu.Lock()
  defer c.mu.Unlock()
  queue := c.batches[in.Dimension]
  if len(queue) == 0 {
    return nil, nil
  }
  next := queue[0]
  c.batches[in.Dimension] = queue[1:]
  return next, nil
}

type genHarness struct {
  svc      *generationService
  items    *fakeItemRepo
  rubric   *fakeRubricRepo
  genLog   *fakeGenLogRepo
  valLog   *fakeValLogRepo
  errLog   *fakeErrLogRepo
  ledger   *fakeLedgerRepo
  cache    *fakeCache
  notifier *fakeNotifier
}

func newGenHarness(t *testing.T, client ItemGenerationClient, cfg config.Pipeline) *genHarness {
  t.Helper()
  log := testLogger(t)
  h := &genHarness{
    items:    &fakeItemRepo{},
    rubric:   &fakeRubricRepo{},
    genLog:   &fakeGenLogRepo{},
    valLog:   &fakeValLogRepo{},
    errLog:   &fakeErrLogRepo{},
    ledger:   &fakeLedgerRepo{},
    cache:    newFakeCache(),
    notifier: &fakeNotifier{},
  }
  svc := NewGenerationService(
    nil,
    log,
    cfg,
    &fakeAllocator{ref: BatchRef{ID: 7, Key: "20260301T093015-000007"}},
    client,
    NewItemValidator(cfg, log),
    NewFallbackSourcer(log, h.items, h.ledger),
    h.cache,
    h.notifier,
    h.items,
    h.rubric,
    h.genLog,
    h.valLog,
    h.errLog,
    h.ledger,
  ).(*generationService)
  svc.runTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
    return fn(nil)
  }
  h.svc = svc
  return h
}

func candidate(n int) CandidateItem {
  return CandidateItem{
    QuestionText: fmt.Sprintf("Scripted question number %d with unique filler tokens alpha%d beta%d", n, n, n),
    Options:      []string{fmt.Sprintf("w%d", n), fmt.Sprintf("x%d", n), fmt.Sprintf("y%d", n), fmt.Sprintf("z%d", n)},
    CorrectIndex: n % 4,
    RubricTags:   []string{"pattern_recognition"},
    Difficulty:   "medium",
  }
}

func TestGenerateSatisfiedFromClient(t *testing.T) {
  dim := params.DimReasoningStrategy
  client := &scriptedClient{batches: map[string][][]CandidateItem{
    dim: {{candidate(1), candidate(2)}},
  }}
  cfg := config.DefaultPipeline()
  h := newGenHarness(t, client, cfg)

  userID := uuid.New()
  result, err := h.svc.Generate(context.Background(), userID, map[string]int{dim: 2}, FallbackNever)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  res := result.Dimensions[dim]
  if res == nil || res.Status != DimensionSatisfied {
    t.Fatalf("expected satisfied dimension, got %+v", res)
  }
  if len(res.Items) != 2 {
    t.Fatalf("expected 2 items, got %d", len(res.Items))
  }
  if res.FromBank != 0 {
    t.Fatalf("expected no bank items, got %d", res.FromBank)
  }
  if len(h.items.created) != 2 {
    t.Fatalf("expected 2 persisted items, got %d", len(h.items.created))
  }
  for _, item := range h.items.created {
    if item.BatchID != 7 || item.BatchKey != "20260301T093015-000007" {
      t.Fatalf("item missing batch stamp: %+v", item)
    }
    if !item.Active || item.Fingerprint == "" || item.Checksum == "" {
      t.Fatalf("item missing derived fields: %+v", item)
    }
  }
  if len(h.genLog.rows) != 2 {
    t.Fatalf("expected 2 accepted generation logs, got %d", len(h.genLog.rows))
  }
  if len(h.ledger.rows) != 2 {
    t.Fatalf("expected 2 ledger rows, got %d", len(h.ledger.rows))
  }
  if len(h.items.served) != 2 {
    t.Fatalf("expected 2 serve marks, got %d", len(h.items.served))
  }
  if got := len(h.cache.sets[dim]); got != 2 {
    t.Fatalf("expected item set cached, got %d entries", got)
  }
  if !h.notifier.has(string(sse.SSEEventGenerationStarted)) ||
    !h.notifier.has(string(sse.SSEEventGenerationCompleted)) ||
    !h.notifier.has(string(sse.SSEEventDimensionProgress)) {
    t.Fatalf("missing lifecycle events: %v", h.notifier.events)
  }
}

func TestGenerateRubricMappingsEqualSplit(t *testing.T) {
  dim := params.DimReasoningStrategy
  c := candidate(1)
  c.RubricTags = []string{"pattern_recognition", "logical_deduction"}
  client := &scriptedClient{batches: map[string][][]CandidateItem{dim: {{c}}}}
  h := newGenHarness(t, client, config.DefaultPipeline())

  if _, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{dim: 1}, FallbackNever); err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if len(h.rubric.rows) != 2 {
    t.Fatalf("expected 2 rubric mappings, got %d", len(h.rubric.rows))
  }
  for _, row := range h.rubric.rows {
    if row.Weight != 0.5 {
      t.Fatalf("expected equal split 0.5, got %v", row.Weight)
    }
  }
}

func TestGenerateRejectsDuplicatesAndLogs(t *testing.T) {
  dim := params.DimMemoryRetrieval
  good := candidate(1)
  good.RubricTags = []string{"working_memory"}
  dup := good // same question text, semantic duplicate
  other := candidate(2)
  other.RubricTags = []string{"working_memory"}
  client := &scriptedClient{batches: map[string][][]CandidateItem{
    dim: {{good, dup, other}},
  }}
  h := newGenHarness(t, client, config.DefaultPipeline())

  result, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{dim: 2}, FallbackNever)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if result.Dimensions[dim].Status != DimensionSatisfied {
    t.Fatalf("expected satisfied despite one rejection")
  }
  if len(h.valLog.rows) != 1 {
    t.Fatalf("expected 1 validation log row, got %d", len(h.valLog.rows))
  }
  if h.valLog.rows[0].Reason != ReasonDuplicateSemantic {
    t.Fatalf("expected %s, got %s", ReasonDuplicateSemantic, h.valLog.rows[0].Reason)
  }
  if !h.notifier.has(string(sse.SSEEventValidationEvent) + ":" + ReasonDuplicateSemantic) {
    t.Fatalf("expected a validation event, got %v", h.notifier.events)
  }
}

func TestGenerateFallbackTopUp(t *testing.T) {
  dim := params.DimAttentionFocus
  // client yields only 2 of the 4 requested items across all attempts
  client := &scriptedClient{batches: map[string][][]CandidateItem{
    dim: {{func() CandidateItem {
      c := candidate(1)
      c.RubricTags = []string{"vigilance"}
      return c
    }(), func() CandidateItem {
      c := candidate(2)
      c.RubricTags = []string{"vigilance"}
      return c
    }()}},
  }}
  h := newGenHarness(t, client, config.DefaultPipeline())
  h.items.bank = []*types.QuestionItem{
    {ID: uuid.New(), Dimension: dim, QuestionText: "Bank question one about counting tones", Active: true},
    {ID: uuid.New(), Dimension: dim, QuestionText: "Bank question two about spotting letters", Active: true},
    {ID: uuid.New(), Dimension: dim, QuestionText: "Bank question three never needed", Active: true},
  }

  result, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{dim: 4}, FallbackAlways)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  res := result.Dimensions[dim]
  if res.Status != DimensionSatisfied {
    t.Fatalf("expected satisfied after top-up, got %s", res.Status)
  }
  if len(res.Items) != 4 {
    t.Fatalf("expected 4 items, got %d", len(res.Items))
  }
  if res.FromBank != 2 {
    t.Fatalf("expected 2 bank items, got %d", res.FromBank)
  }
  if !h.notifier.has(string(sse.SSEEventBackupInvoked)) {
    t.Fatalf("expected backup_invoked event, got %v", h.notifier.events)
  }
}

func TestGenerateExhaustedWithoutFallback(t *testing.T) {
  dim := params.DimProcessingSpeed
  client := &scriptedClient{batches: map[string][][]CandidateItem{}}
  h := newGenHarness(t, client, config.DefaultPipeline())

  result, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{dim: 3}, FallbackNever)
  if err != nil {
    t.Fatalf("exhaustion must not be an error: %v", err)
  }
  res := result.Dimensions[dim]
  if res.Status != DimensionExhausted {
    t.Fatalf("expected exhausted, got %s", res.Status)
  }
  if len(res.Items) != 0 {
    t.Fatalf("expected no items, got %d", len(res.Items))
  }
}

func TestGenerateClientErrorIsolatedPerDimension(t *testing.T) {
  okDim := params.DimVerbalLinguistic
  c := candidate(1)
  c.RubricTags = []string{"verbal_fluency"}
  client := &scriptedClient{batches: map[string][][]CandidateItem{
    okDim: {{c}},
    // the other dimension never yields anything, standing in for a
    // provider that keeps failing
  }}
  h := newGenHarness(t, client, config.DefaultPipeline())

  result, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{
    okDim:                     1,
    params.DimNumericalSpatial: 1,
  }, FallbackNever)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if result.Dimensions[okDim].Status != DimensionSatisfied {
    t.Fatalf("healthy dimension should be satisfied")
  }
  if result.Dimensions[params.DimNumericalSpatial].Status != DimensionExhausted {
    t.Fatalf("starved dimension should be exhausted")
  }
}

func TestGenerateMalformedOutputLogsError(t *testing.T) {
  dim := params.DimNumericalSpatial
  client := &scriptedClient{err: ErrMalformedGenerationOutput}
  h := newGenHarness(t, client, config.DefaultPipeline())

  result, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{dim: 1}, FallbackNever)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if result.Dimensions[dim].Status != DimensionExhausted {
    t.Fatalf("expected exhausted on persistent provider failure")
  }
  if len(h.errLog.rows) == 0 {
    t.Fatalf("expected error log rows for failed passes")
  }
}

func TestGenerateCacheShortCircuits(t *testing.T) {
  dim := params.DimReasoningStrategy
  client := &scriptedClient{batches: map[string][][]CandidateItem{
    dim: {{candidate(9)}},
  }}
  h := newGenHarness(t, client, config.DefaultPipeline())
  cachedItems := []*types.QuestionItem{
    {ID: uuid.New(), Dimension: dim, QuestionText: "cached question"},
  }
  h.cache.hits[dim] = cachedItems

  result, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{dim: 1}, FallbackNever)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  res := result.Dimensions[dim]
  if res.Status != DimensionSatisfied {
    t.Fatalf("expected satisfied from cache, got %s", res.Status)
  }
  if res.Items[0].ID != cachedItems[0].ID {
    t.Fatalf("expected cached item to be served")
  }
  if len(h.items.created) != 0 {
    t.Fatalf("cache hit should skip generation entirely")
  }
}

func TestRetireItemsSoftDeactivates(t *testing.T) {
  h := newGenHarness(t, &scriptedClient{}, config.DefaultPipeline())
  ids := []uuid.UUID{uuid.New(), uuid.New()}
  if err := h.svc.RetireItems(context.Background(), ids); err != nil {
    t.Fatalf("RetireItems: %v", err)
  }
  if len(h.items.deactivated) != 2 {
    t.Fatalf("expected 2 deactivations, got %d", len(h.items.deactivated))
  }
  if err := h.svc.RetireItems(context.Background(), nil); err != nil {
    t.Fatalf("empty retire should no-op: %v", err)
  }
}

func TestGenerateRejectsUnknownDimension(t *testing.T) {
  h := newGenHarness(t, &scriptedClient{}, config.DefaultPipeline())
  if _, err := h.svc.Generate(context.Background(), uuid.New(), map[string]int{"telekinesis": 2}, FallbackNever); err == nil {
    t.Fatalf("unknown dimension should be rejected up front")
  }
  if _, err := h.svc.Generate(context.Background(), uuid.New(), nil, FallbackNever); err == nil {
    t.Fatalf("empty target map should be rejected")
  }
}
