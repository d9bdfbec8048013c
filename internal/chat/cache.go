package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedQuery is one stored query/response pair.
type CachedQuery struct {
	ID              int64
	QueryNormalized string
	Response        string
	HitCount        int
	CreatedAt       time.Time
	LastUsedAt      time.Time
}

// CacheHit is a successful cache lookup.
type CacheHit struct {
	Response   string
	Similarity float64
}

// cacheStore is the durable side of the query cache. Delete returns the
// normalized query text of the removed row so the LRU can be purged too.
type cacheStore interface {
	Candidates(ctx context.Context, limit int) ([]CachedQuery, error)
	Touch(ctx context.Context, id int64) error
	Insert(ctx context.Context, normalized, response string) error
	Delete(ctx context.Context, id int64) (string, error)
}

type CacheConfig struct {
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	CandidateLimit      int           `mapstructure:"candidate_limit"`
	LRUSize             int           `mapstructure:"lru_size"`
	LRUTTL              time.Duration `mapstructure:"lru_ttl"`
}

// QueryCache answers repeated support questions from stored responses. An
// in-process expirable LRU fronts the database for exact normalized matches;
// misses fall through to a Jaccard scan over the most recently used rows.
type QueryCache struct {
	store     cacheStore
	lru       *expirable.LRU[string, string]
	threshold float64
	limit     int
}

func NewQueryCache(store cacheStore, config CacheConfig) *QueryCache {
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = 0.6
	}
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = 200
	}
	if config.LRUSize <= 0 {
		config.LRUSize = 512
	}
	if config.LRUTTL <= 0 {
		config.LRUTTL = 30 * time.Minute
	}
	return &QueryCache{
		store:     store,
		lru:       expirable.NewLRU[string, string](config.LRUSize, nil, config.LRUTTL),
		threshold: config.SimilarityThreshold,
		limit:     config.CandidateLimit,
	}
}

// Lookup returns the best cached response for a query, or ok=false on a
// miss. A database hit bumps the row's hit counter and refreshes the LRU.
func (c *QueryCache) Lookup(ctx context.Context, query string) (CacheHit, bool, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return CacheHit{}, false, nil
	}

	if response, ok := c.lru.Get(normalized); ok {
		return CacheHit{Response: response, Similarity: 1}, true, nil
	}

	candidates, err := c.store.Candidates(ctx, c.limit)
	if err != nil {
		return CacheHit{}, false, fmt.Errorf("load cache candidates: %w", err)
	}

	var best *CachedQuery
	bestScore := 0.0
	for i := range candidates {
		score := Jaccard(normalized, candidates[i].QueryNormalized)
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < c.threshold {
		return CacheHit{}, false, nil
	}

	if err := c.store.Touch(ctx, best.ID); err != nil {
		slog.Warn("Failed to bump cache hit counter", "id", best.ID, "error", err)
	}
	c.lru.Add(normalized, best.Response)

	return CacheHit{Response: best.Response, Similarity: bestScore}, true, nil
}

// Store saves a fresh query/response pair and primes the LRU with it.
func (c *QueryCache) Store(ctx context.Context, query, response string) error {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil
	}
	if err := c.store.Insert(ctx, normalized, response); err != nil {
		return fmt.Errorf("insert cached query: %w", err)
	}
	c.lru.Add(normalized, response)
	return nil
}

// Entries lists the stored cache rows, most recently used first.
func (c *QueryCache) Entries(ctx context.Context) ([]CachedQuery, error) {
	entries, err := c.store.Candidates(ctx, c.limit)
	if err != nil {
		return nil, fmt.Errorf("list cached queries: %w", err)
	}
	return entries, nil
}

// Delete removes a cache row and purges its LRU entry so a stale response
// cannot outlive the deletion.
func (c *QueryCache) Delete(ctx context.Context, id int64) error {
	normalized, err := c.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	c.lru.Remove(normalized)
	return nil
}
