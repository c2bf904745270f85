package repository

import (
	"context"
	"errors"
	"fmt"

	"DarkPull/internal/domain/models"
	domrepo "DarkPull/internal/domain/repository"
	"DarkPull/pkg/cache"
)

// CacheAggregateStore keeps one JSON document per date in a cache.Service
// (memory, redis or layered). Entries never expire.
type CacheAggregateStore struct {
	c      cache.Service
	prefix string
}

// NewCacheAggregateStore creates a store writing keys "<prefix>:<date>".
func NewCacheAggregateStore(c cache.Service, prefix string) domrepo.AggregateStore {
	if prefix == "" {
		prefix = "darkpool:daily"
	}
	return &CacheAggregateStore{c: c, prefix: prefix}
}

func (s *CacheAggregateStore) Get(ctx context.Context, date string) (models.DailyStats, bool, error) {
	var stats models.DailyStats
	if err := s.c.Get(ctx, cache.GenerateKey(s.prefix, date), &stats); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get aggregate %s: %w", date, err)
	}
	if stats == nil {
		stats = models.DailyStats{}
	}
	return stats, true, nil
}

func (s *CacheAggregateStore) Put(ctx context.Context, date string, stats models.DailyStats) error {
	if stats == nil {
		stats = models.DailyStats{}
	}
	if err := s.c.Set(ctx, cache.GenerateKey(s.prefix, date), stats, 0); err != nil {
		return fmt.Errorf("put aggregate %s: %w", date, err)
	}
	return nil
}
