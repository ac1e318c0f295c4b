package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/yourorg/motionsense/internal/analysis"
	"github.com/yourorg/motionsense/internal/metrics"
	"github.com/yourorg/motionsense/pkg/types"
)

// CachingClient remembers successful predictions by file content so that
// re-submitting the same recording skips the service. Entries live in memory
// only.
type CachingClient struct {
	next   Predictor
	cache  *lru.Cache[string, *types.PredictResponse]
	logger zerolog.Logger
}

// NewCachingClient wraps next with an LRU of size entries.
func NewCachingClient(next Predictor, size int, logger zerolog.Logger) (*CachingClient, error) {
	cache, err := lru.New[string, *types.PredictResponse](size)
	if err != nil {
		return nil, err
	}
	return &CachingClient{
		next:   next,
		cache:  cache,
		logger: logger.With().Str("component", "inference_cache").Logger(),
	}, nil
}

func (c *CachingClient) Predict(ctx context.Context, filename string, data []byte) (*types.PredictResponse, error) {
	key := contentKey(data)
	if resp, ok := c.cache.Get(key); ok {
		metrics.PredictionCacheHits.Inc()
		c.logger.Debug().Str("file", filename).Str("digest", key[:12]).Msg("prediction cache hit")
		return clone(resp), nil
	}
	metrics.PredictionCacheMisses.Inc()

	resp, err := c.next.Predict(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	// Only payloads that can be aggregated are kept; a bad one must not
	// shadow the service for later uploads of the same content.
	if err := analysis.CheckResponse(resp); err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(resp))
	return resp, nil
}

// Len reports the number of cached predictions.
func (c *CachingClient) Len() int {
	return c.cache.Len()
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func clone(r *types.PredictResponse) *types.PredictResponse {
	c := *r
	c.Predictions = slices.Clone(r.Predictions)
	c.ConfidenceScores = slices.Clone(r.ConfidenceScores)
	return &c
}

var _ Predictor = (*CachingClient)(nil)
