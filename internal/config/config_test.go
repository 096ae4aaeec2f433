package config

import (
  "os"
  "path/filepath"
  "testing"

  "github.com/yungbote/cogniscan-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  return log
}

func TestDefaultPipelineValidates(t *testing.T) {
  cfg := DefaultPipeline()
  if err := cfg.Validate(); err != nil {
    t.Fatalf("defaults should validate: %v", err)
  }
  if cfg.MaxRetries != 3 || cfg.PromptBatchSize != 2 {
    t.Fatalf("unexpected defaults: %+v", cfg)
  }
  if cfg.SimilarityThreshold != 0.85 || cfg.EMAAlpha != 0.4 {
    t.Fatalf("unexpected defaults: %+v", cfg)
  }
}

func TestLoadPipelineEnvOverrides(t *testing.T) {
  t.Setenv("PIPELINE_MAX_RETRIES", "5")
  t.Setenv("PIPELINE_EMA_ALPHA", "0.25")
  cfg, err := LoadPipeline(testLogger(t))
  if err != nil {
    t.Fatalf("LoadPipeline: %v", err)
  }
  if cfg.MaxRetries != 5 {
    t.Fatalf("max_retries = %d, want 5", cfg.MaxRetries)
  }
  if cfg.EMAAlpha != 0.25 {
    t.Fatalf("ema_alpha = %v, want 0.25", cfg.EMAAlpha)
  }
  // untouched knobs keep their defaults
  if cfg.PromptBatchSize != 2 {
    t.Fatalf("prompt_batch_size = %d, want 2", cfg.PromptBatchSize)
  }
}

func TestLoadPipelineYAMLFile(t *testing.T) {
  path := filepath.Join(t.TempDir(), "pipeline.yaml")
  doc := "max_retries: 4\nsimilarity_threshold: 0.9\n"
  if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
    t.Fatalf("write config: %v", err)
  }
  t.Setenv("PIPELINE_CONFIG_PATH", path)

  cfg, err := LoadPipeline(testLogger(t))
  if err != nil {
    t.Fatalf("LoadPipeline: %v", err)
  }
  if cfg.MaxRetries != 4 {
    t.Fatalf("max_retries = %d, want 4", cfg.MaxRetries)
  }
  if cfg.SimilarityThreshold != 0.9 {
    t.Fatalf("similarity_threshold = %v, want 0.9", cfg.SimilarityThreshold)
  }
}

func TestLoadPipelineEnvBeatsFile(t *testing.T) {
  path := filepath.Join(t.TempDir(), "pipeline.yaml")
  if err := os.WriteFile(path, []byte("max_retries: 4\n"), 0o600); err != nil {
    t.Fatalf("write config: %v", err)
  }
  t.Setenv("PIPELINE_CONFIG_PATH", path)
  t.Setenv("PIPELINE_MAX_RETRIES", "9")

  cfg, err := LoadPipeline(testLogger(t))
  if err != nil {
    t.Fatalf("LoadPipeline: %v", err)
  }
  if cfg.MaxRetries != 9 {
    t.Fatalf("env override should beat the file, got %d", cfg.MaxRetries)
  }
}

func TestValidateRejectsBadValues(t *testing.T) {
  cases := []func(*Pipeline){
    func(p *Pipeline) { p.MaxRetries = 0 },
    func(p *Pipeline) { p.PromptBatchSize = 0 },
    func(p *Pipeline) { p.SimilarityThreshold = 0 },
    func(p *Pipeline) { p.SimilarityThreshold = 1.2 },
    func(p *Pipeline) { p.CacheTTLSeconds = -1 },
    func(p *Pipeline) { p.RecentFingerprintWindow = -1 },
    func(p *Pipeline) { p.DimensionWorkers = 0 },
    func(p *Pipeline) { p.EMAAlpha = 0 },
    func(p *Pipeline) { p.EMAAlpha = 1.5 },
  }
  for i, mutate := range cases {
    cfg := DefaultPipeline()
    mutate(&cfg)
    if err := cfg.Validate(); err == nil {
      t.Fatalf("case %d: expected validation error for %+v", i, cfg)
    }
  }
}
