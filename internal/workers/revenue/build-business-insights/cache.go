package buildbusinessinsights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rms-insight-workers/internal/common/metrics"
	"rms-insight-workers/internal/insights"
)

const cacheKeyPrefix = "insights:table:"

// cacheKey fingerprints the datasets and the effective options, so any
// change in either produces a different entry.
func cacheKey(in insights.Inputs, opts insights.Options) (string, error) {
	data, err := json.Marshal(struct {
		Inputs  insights.Inputs  `json:"inputs"`
		Options insights.Options `json:"options"`
	}{in, opts})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}

func (h *Handler) lookup(ctx context.Context, key string) (*cachedTable, bool) {
	if h.redis == nil {
		return nil, false
	}

	val, err := h.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.InsightCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.InsightCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("insight cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var table cachedTable
	if err := json.Unmarshal(val, &table); err != nil {
		metrics.InsightCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
		return nil, false
	}
	metrics.InsightCacheLookups.WithLabelValues("hit").Inc()
	return &table, true
}

func (h *Handler) store(ctx context.Context, key string, table *cachedTable, ttl time.Duration) {
	if h.redis == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(table)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		h.logger.Warn("insight cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
