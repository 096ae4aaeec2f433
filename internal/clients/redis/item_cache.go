package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/cogniscan-backend/internal/logger"
	"github.com/yungbote/cogniscan-backend/internal/types"
)

// ItemSetCache is a best-effort short-TTL store of a (dimension, batch) item
// set. Every failure is swallowed after a warning: a dead cache degrades to
// regeneration, never to an error.
type ItemSetCache interface {
	Get(ctx context.Context, dimension, batchKey string) ([]*types.QuestionItem, bool)
	Set(ctx context.Context, dimension, batchKey string, items []*types.QuestionItem, ttl time.Duration)
	Close() error
}

type itemSetCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewItemSetCache(log *logger.Logger) (ItemSetCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &itemSetCache{
		log: log.With("service", "ItemSetCache"),
		rdb: rdb,
	}, nil
}

func cacheKey(dimension, batchKey string) string {
	return "itemset:" + dimension + ":" + batchKey
}

func (c *itemSetCache) Get(ctx context.Context, dimension, batchKey string) ([]*types.QuestionItem, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(dimension, batchKey)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("item set cache get failed", "dimension", dimension, "batch_key", batchKey, "error", err)
		}
		return nil, false
	}
	var items []*types.QuestionItem
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Warn("item set cache payload corrupt", "dimension", dimension, "batch_key", batchKey, "error", err)
		return nil, false
	}
	return items, true
}

func (c *itemSetCache) Set(ctx context.Context, dimension, batchKey string, items []*types.QuestionItem, ttl time.Duration) {
	if c == nil || c.rdb == nil || len(items) == 0 || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		c.log.Warn("item set cache marshal failed", "dimension", dimension, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(dimension, batchKey), raw, ttl).Err(); err != nil {
		c.log.Warn("item set cache set failed", "dimension", dimension, "batch_key", batchKey, "error", err)
	}
}

func (c *itemSetCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// NoopItemSetCache stands in when no Redis address is configured. Gets
// always miss and sets are dropped.
type NoopItemSetCache struct{}

func (NoopItemSetCache) Get(ctx context.Context, dimension, batchKey string) ([]*types.QuestionItem, bool) {
	return nil, false
}

func (NoopItemSetCache) Set(ctx context.Context, dimension, batchKey string, items []*types.QuestionItem, ttl time.Duration) {
}

func (NoopItemSetCache) Close() error { return nil }
