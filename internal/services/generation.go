package services

import (
  "context"
  "encoding/json"
  "fmt"
  "time"

  "github.com/google/uuid"
  "go.opentelemetry.io/otel"
  "go.opentelemetry.io/otel/attribute"
  "go.opentelemetry.io/otel/trace"
  "golang.org/x/sync/errgroup"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  redisclient "github.com/yungbote/cogniscan-backend/internal/clients/redis"
  "github.com/yungbote/cogniscan-backend/internal/config"
  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/params"
  "github.com/yungbote/cogniscan-backend/internal/repos"
  "github.com/yungbote/cogniscan-backend/internal/types"
)

const PipelinePrimary = "primary"

// DimensionStatus reports how a single dimension finished. Exhausted is a
// normal outcome, not an error: the caller gets whatever items were produced.
type DimensionStatus string

const (
  DimensionSatisfied DimensionStatus = "satisfied"
  DimensionExhausted DimensionStatus = "exhausted"
)

type DimensionResult struct {
  Dimension string                `json:"dimension"`
  Target    int                   `json:"target"`
  Status    DimensionStatus       `json:"status"`
  FromBank  int                   `json:"from_bank"`
  Items     []*types.QuestionItem `json:"items"`
}

type GenerationResult struct {
  Batch      BatchRef                    `json:"batch"`
  Dimensions map[string]*DimensionResult `json:"dimensions"`
}

type GenerationService interface {
  Generate(ctx context.Context, userID uuid.UUID, targets map[string]int, policy FallbackPolicy) (*GenerationResult, error)
  // RetireItems soft-deactivates bank items. Rows stay in place so ledger
  // and rubric references keep resolving; the items just stop being served.
  RetireItems(ctx context.Context, itemIDs []uuid.UUID) error
}

type generationService struct {
  db        *gorm.DB
  log       *logger.Logger
  cfg       config.Pipeline
  allocator BatchAllocator
  client    ItemGenerationClient
  validator *ItemValidator
  fallback  FallbackSourcer
  cache     redisclient.ItemSetCache
  notifier  GenerationNotifier

  itemRepo   repos.QuestionItemRepo
  rubricRepo repos.RubricMappingRepo
  genLogRepo repos.GenerationLogRepo
  valLogRepo repos.ValidationLogRepo
  errLogRepo repos.ErrorLogRepo
  ledgerRepo repos.UserQuestionLedgerRepo

  tracer trace.Tracer
  runTx  func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewGenerationService(
  db *gorm.DB,
  baseLog *logger.Logger,
  cfg config.Pipeline,
  allocator BatchAllocator,
  client ItemGenerationClient,
  validator *ItemValidator,
  fallback FallbackSourcer,
  cache redisclient.ItemSetCache,
  notifier GenerationNotifier,
  itemRepo repos.QuestionItemRepo,
  rubricRepo repos.RubricMappingRepo,
  genLogRepo repos.GenerationLogRepo,
  valLogRepo repos.ValidationLogRepo,
  errLogRepo repos.ErrorLogRepo,
  ledgerRepo repos.UserQuestionLedgerRepo,
) GenerationService {
  svc := &generationService{
    db:         db,
    log:        baseLog.With("service", "GenerationService"),
    cfg:        cfg,
    allocator:  allocator,
    client:     client,
    validator:  validator,
    fallback:   fallback,
    cache:      cache,
    notifier:   notifier,
    itemRepo:   itemRepo,
    rubricRepo: rubricRepo,
    genLogRepo: genLogRepo,
    valLogRepo: valLogRepo,
    errLogRepo: errLogRepo,
    ledgerRepo: ledgerRepo,
    tracer:     otel.Tracer("generation"),
  }
  svc.runTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
    return db.WithContext(ctx).Transaction(fn)
  }
  return svc
}

func (s *generationService) Generate(ctx context.Context, userID uuid.UUID, targets map[string]int, policy FallbackPolicy) (*GenerationResult, error) {
  if len(targets) == 0 {
    return nil, fmt.Errorf("no dimension targets supplied")
  }
  for dim, target := range targets {
    if !params.IsDimension(dim) {
      return nil, fmt.Errorf("unknown dimension %q", dim)
    }
    if target <= 0 {
      return nil, fmt.Errorf("dimension %q: target must be positive, got %d", dim, target)
    }
  }

  batch := s.allocator.Acquire(ctx)
  s.notifier.GenerationStarted(userID, batch, fmt.Sprintf("%d dimensions requested", len(targets)))

  allowFallback, err := s.fallback.Allowed(ctx, policy, userID)
  if err != nil {
    s.log.Warn("Fallback eligibility check failed, disabling fallback for batch", "batch_key", batch.Key, "error", err)
    allowFallback = false
  }

  results := make(map[string]*DimensionResult, len(targets))
  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(s.cfg.DimensionWorkers)
  for dim, target := range targets {
    dim, target := dim, target
    res := &DimensionResult{Dimension: dim, Target: target, Status: DimensionExhausted}
    results[dim] = res
    g.Go(func() error {
      s.runDimension(gctx, userID, batch, res, allowFallback)
      return nil
    })
  }
  if err := g.Wait(); err != nil {
    return nil, err
  }

  satisfied := 0
  for _, res := range results {
    if res.Status == DimensionSatisfied {
      satisfied++
    }
  }
  s.notifier.GenerationCompleted(userID, batch, fmt.Sprintf("%d/%d dimensions satisfied", satisfied, len(results)))
  return &GenerationResult{Batch: batch, Dimensions: results}, nil
}

func (s *generationService) RetireItems(ctx context.Context, itemIDs []uuid.UUID) error {
  if len(itemIDs) == 0 {
    return nil
  }
  if err := s.itemRepo.DeactivateByIDs(ctx, nil, itemIDs); err != nil {
    return fmt.Errorf("deactivate items: %w", err)
  }
  s.log.Info("Items retired", "count", len(itemIDs))
  return nil
}

// runDimension drives one dimension through needed, generating, validating,
// fallback. Every failure is recorded and the dimension carries on; a partial
// set ends as exhausted rather than an error.
func (s *generationService) runDimension(ctx context.Context, userID uuid.UUID, batch BatchRef, res *DimensionResult, allowFallback bool) {
  ctx, span := s.tracer.Start(ctx, "generation.dimension",
    trace.WithAttributes(
      attribute.String("dimension", res.Dimension),
      attribute.Int("target", res.Target),
      attribute.String("batch_key", batch.Key),
    ))
  defer span.End()

  if cached, ok := s.cache.Get(ctx, res.Dimension, batch.Key); ok && len(cached) >= res.Target {
    res.Items = cached[:res.Target]
    res.Status = DimensionSatisfied
    s.recordServed(ctx, userID, res.Items)
    s.notifier.DimensionProgress(userID, batch, res.Dimension, len(res.Items), res.Target, "served from cache")
    return
  }

  recent, err := s.itemRepo.RecentActive(ctx, nil, res.Dimension, s.cfg.RecentFingerprintWindow)
  if err != nil {
    s.log.Warn("Recent item lookup failed, deduplication window is empty", "dimension", res.Dimension, "error", err)
    recent = nil
  }
  dedup := s.validator.NewDedupIndex(recent)
  avoid := make([]string, 0, len(recent))
  for _, item := range recent {
    avoid = append(avoid, item.QuestionText)
  }

  accepted := make([]*types.QuestionItem, 0, res.Target)
  for attempt := 1; attempt <= s.cfg.MaxRetries && len(accepted) < res.Target; attempt++ {
    for _, pass := range []string{PassCore, PassFiller} {
      remaining := res.Target - len(accepted)
      if remaining <= 0 {
        break
      }
      count := s.cfg.PromptBatchSize
      if remaining < count {
        count = remaining
      }
      candidates, err := s.client.GenerateItems(ctx, PromptInput{
        Dimension:      res.Dimension,
        Count:          count,
        Pass:           pass,
        AvoidQuestions: avoid,
      })
      if err != nil {
        s.recordError(ctx, batch, res.Dimension, attempt, fmt.Sprintf("%s pass: %v", pass, err))
        continue
      }
      for _, cand := range candidates {
        if len(accepted) >= res.Target {
          break
        }
        item, ok := s.admitCandidate(ctx, userID, batch, res.Dimension, attempt, cand, dedup)
        if !ok {
          continue
        }
        accepted = append(accepted, item)
        avoid = append(avoid, item.QuestionText)
      }
    }
    s.notifier.DimensionProgress(userID, batch, res.Dimension, len(accepted), res.Target, fmt.Sprintf("attempt %d", attempt))
  }

  if len(accepted) < res.Target && allowFallback {
    needed := res.Target - len(accepted)
    s.notifier.BackupInvoked(userID, batch, res.Dimension, fmt.Sprintf("%d items short after generation", needed))
    exclude := make([]uuid.UUID, 0, len(accepted))
    for _, item := range accepted {
      exclude = append(exclude, item.ID)
    }
    bank, err := s.fallback.Fetch(ctx, nil, res.Dimension, userID, needed, exclude)
    if err != nil {
      s.recordError(ctx, batch, res.Dimension, s.cfg.MaxRetries, fmt.Sprintf("fallback fetch: %v", err))
    } else {
      res.FromBank = len(bank)
      accepted = append(accepted, bank...)
    }
  }

  res.Items = accepted
  if len(accepted) >= res.Target {
    res.Status = DimensionSatisfied
  }
  span.SetAttributes(
    attribute.Int("accepted", len(accepted)),
    attribute.Int("from_bank", res.FromBank),
    attribute.String("status", string(res.Status)),
  )

  s.recordServed(ctx, userID, accepted)
  if len(accepted) > 0 {
    s.cache.Set(ctx, res.Dimension, batch.Key, accepted, time.Duration(s.cfg.CacheTTLSeconds)*time.Second)
  }
  s.notifier.DimensionProgress(userID, batch, res.Dimension, len(accepted), res.Target, string(res.Status))
}

// admitCandidate validates one candidate and, if it survives, persists the
// item together with its rubric mappings and an accepted generation log in a
// single transaction.
func (s *generationService) admitCandidate(ctx context.Context, userID uuid.UUID, batch BatchRef, dimension string, attempt int, cand CandidateItem, dedup *DedupIndex) (*types.QuestionItem, bool) {
  rej := s.validator.ValidateStructural(cand)
  hash := ""
  var tokens map[string]struct{}
  if rej == nil {
    hash, tokens = FingerprintText(cand.QuestionText)
    rej = dedup.Check(hash, tokens)
  }
  if rej != nil {
    s.recordRejection(ctx, userID, batch, dimension, cand, rej)
    return nil, false
  }

  item := &types.QuestionItem{
    Dimension:    dimension,
    QuestionText: cand.QuestionText,
    Options:      mustJSON(cand.Options),
    CorrectIndex: cand.CorrectIndex,
    RubricTags:   mustJSON(cand.RubricTags),
    Difficulty:   cand.Difficulty,
    Fingerprint:  hash,
    Checksum:     Checksum(cand.QuestionText, cand.Options, cand.CorrectIndex),
    BatchID:      batch.ID,
    BatchKey:     batch.Key,
    Pipeline:     PipelinePrimary,
    Active:       true,
  }

  err := s.runTx(ctx, func(tx *gorm.DB) error {
    created, err := s.itemRepo.Create(ctx, tx, []*types.QuestionItem{item})
    if err != nil {
      return err
    }
    item = created[0]
    mappings := buildRubricRows(item.ID, dimension, cand.RubricTags, nil)
    if _, err := s.rubricRepo.Create(ctx, tx, mappings); err != nil {
      return err
    }
    _, err = s.genLogRepo.Create(ctx, tx, []*types.GenerationLog{{
      BatchID:    batch.ID,
      BatchKey:   batch.Key,
      Dimension:  dimension,
      Pipeline:   PipelinePrimary,
      Attempt:    attempt,
      Status:     "accepted",
      QuestionID: &item.ID,
    }})
    return err
  })
  if err != nil {
    s.recordError(ctx, batch, dimension, attempt, fmt.Sprintf("persist accepted item: %v", err))
    return nil, false
  }

  dedup.Add(hash, tokens)
  return item, true
}

func (s *generationService) recordRejection(ctx context.Context, userID uuid.UUID, batch BatchRef, dimension string, cand CandidateItem, rej *Rejection) {
  fp, _ := FingerprintText(cand.QuestionText)
  if _, err := s.valLogRepo.Create(ctx, nil, []*types.ValidationLog{{
    BatchID:     batch.ID,
    Dimension:   dimension,
    Reason:      rej.Reason,
    Fingerprint: fp,
    Detail:      rej.Detail,
  }}); err != nil {
    s.log.Warn("Validation log write failed", "dimension", dimension, "reason", rej.Reason, "error", err)
  }
  s.notifier.ValidationEvent(userID, batch, dimension, rej.Reason, rej.Detail)
}

func (s *generationService) recordError(ctx context.Context, batch BatchRef, dimension string, attempt int, message string) {
  s.log.Error("Generation pipeline error", "batch_key", batch.Key, "dimension", dimension, "attempt", attempt, "message", message)
  if _, err := s.errLogRepo.Create(ctx, nil, []*types.ErrorLog{{
    BatchID:   batch.ID,
    Dimension: dimension,
    Pipeline:  PipelinePrimary,
    Message:   message,
  }}); err != nil {
    s.log.Warn("Error log write failed", "dimension", dimension, "error", err)
  }
}

// recordServed writes ledger rows and bumps serve counters for the items the
// user is about to see. Duplicate ledger rows from a replayed batch are
// ignored by the unique constraint.
func (s *generationService) recordServed(ctx context.Context, userID uuid.UUID, items []*types.QuestionItem) {
  if len(items) == 0 {
    return
  }
  now := time.Now().UTC()
  rows := make([]*types.UserQuestionLedger, 0, len(items))
  ids := make([]uuid.UUID, 0, len(items))
  for _, item := range items {
    rows = append(rows, &types.UserQuestionLedger{
      UserID:     userID,
      QuestionID: item.ID,
      ServedAt:   now,
    })
    ids = append(ids, item.ID)
  }
  if _, err := s.ledgerRepo.Create(ctx, nil, rows); err != nil {
    s.log.Warn("Ledger write failed", "user_id", userID, "count", len(rows), "error", err)
  }
  if err := s.itemRepo.MarkServed(ctx, nil, ids, now); err != nil {
    s.log.Warn("Serve counter update failed", "count", len(ids), "error", err)
  }
}

// buildRubricRows splits weight across the candidate's rubric tags. Tags that
// are not parameters of the given dimension are dropped; when none survive
// the item maps onto every parameter of its dimension. Explicit weights, when
// supplied, override the equal split.
func buildRubricRows(questionID uuid.UUID, dimension string, tags []string, weights map[string]float64) []*types.RubricMapping {
  valid := make([]string, 0, len(tags))
  for _, tag := range tags {
    if params.DimensionOf(tag) == dimension {
      valid = append(valid, tag)
    }
  }
  if len(valid) == 0 {
    valid = params.ForDimension(dimension)
  }
  rows := make([]*types.RubricMapping, 0, len(valid))
  share := 1.0 / float64(len(valid))
  for _, tag := range valid {
    w := share
    if weights != nil {
      if explicit, ok := weights[tag]; ok {
        w = explicit
      }
    }
    rows = append(rows, &types.RubricMapping{
      QuestionID: questionID,
      Parameter:  tag,
      Weight:     w,
    })
  }
  return rows
}

func mustJSON(v any) datatypes.JSON {
  raw, err := json.Marshal(v)
  if err != nil {
    return datatypes.JSON([]byte("null"))
  }
  return datatypes.JSON(raw)
}
