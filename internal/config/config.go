package config

import (
  "fmt"
  "os"

  "gopkg.in/yaml.v3"

  "github.com/yungbote/cogniscan-backend/internal/logger"
  "github.com/yungbote/cogniscan-backend/internal/utils"
)

// Pipeline holds every tunable the generation and scoring pipelines consume.
// One struct, injected at wiring time; services never read env vars themselves.
type Pipeline struct {
  MaxRetries              int     `yaml:"max_retries"`
  PromptBatchSize         int     `yaml:"prompt_batch_size"`
  SimilarityThreshold     float64 `yaml:"similarity_threshold"`
  CacheTTLSeconds         int     `yaml:"cache_ttl_seconds"`
  RecentFingerprintWindow int     `yaml:"recent_fingerprint_window"`
  DimensionWorkers        int     `yaml:"dimension_workers"`
  EMAAlpha                float64 `yaml:"ema_alpha"`
}

func DefaultPipeline() Pipeline {
  return Pipeline{
    MaxRetries:              3,
    PromptBatchSize:         2,
    SimilarityThreshold:     0.85,
    CacheTTLSeconds:         300,
    RecentFingerprintWindow: 200,
    DimensionWorkers:        3,
    EMAAlpha:                0.4,
  }
}

// LoadPipeline reads an optional YAML file named by PIPELINE_CONFIG_PATH and
// then applies env overrides on top. A missing file is not an error.
func LoadPipeline(log *logger.Logger) (Pipeline, error) {
  cfg := DefaultPipeline()

  path := utils.GetEnv("PIPELINE_CONFIG_PATH", "", log)
  if path != "" {
    raw, err := os.ReadFile(path)
    if err != nil {
      return cfg, fmt.Errorf("read pipeline config %s: %w", path, err)
    }
    if err := yaml.Unmarshal(raw, &cfg); err != nil {
      return cfg, fmt.Errorf("parse pipeline config %s: %w", path, err)
    }
  }

  cfg.MaxRetries = utils.GetEnvAsInt("PIPELINE_MAX_RETRIES", cfg.MaxRetries, log)
  cfg.PromptBatchSize = utils.GetEnvAsInt("PIPELINE_PROMPT_BATCH_SIZE", cfg.PromptBatchSize, log)
  cfg.SimilarityThreshold = utils.GetEnvAsFloat("PIPELINE_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold, log)
  cfg.CacheTTLSeconds = utils.GetEnvAsInt("PIPELINE_CACHE_TTL_SECONDS", cfg.CacheTTLSeconds, log)
  cfg.RecentFingerprintWindow = utils.GetEnvAsInt("PIPELINE_RECENT_FINGERPRINT_WINDOW", cfg.RecentFingerprintWindow, log)
  cfg.DimensionWorkers = utils.GetEnvAsInt("PIPELINE_DIMENSION_WORKERS", cfg.DimensionWorkers, log)
  cfg.EMAAlpha = utils.GetEnvAsFloat("PIPELINE_EMA_ALPHA", cfg.EMAAlpha, log)

  return cfg, cfg.Validate()
}

func (p Pipeline) Validate() error {
  if p.MaxRetries < 1 {
    return fmt.Errorf("max_retries must be >= 1, got %d", p.MaxRetries)
  }
  if p.PromptBatchSize < 1 {
    return fmt.Errorf("prompt_batch_size must be >= 1, got %d", p.PromptBatchSize)
  }
  if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
    return fmt.Errorf("similarity_threshold must be in (0,1], got %v", p.SimilarityThreshold)
  }
  if p.CacheTTLSeconds < 0 {
    return fmt.Errorf("cache_ttl_seconds must be >= 0, got %d", p.CacheTTLSeconds)
  }
  if p.RecentFingerprintWindow < 0 {
    return fmt.Errorf("recent_fingerprint_window must be >= 0, got %d", p.RecentFingerprintWindow)
  }
  if p.DimensionWorkers < 1 {
    return fmt.Errorf("dimension_workers must be >= 1, got %d", p.DimensionWorkers)
  }
  if p.EMAAlpha <= 0 || p.EMAAlpha > 1 {
    return fmt.Errorf("ema_alpha must be in (0,1], got %v", p.EMAAlpha)
  }
  return nil
}
