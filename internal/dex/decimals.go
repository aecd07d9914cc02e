package dex

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// DecimalsCache memoizes token precision lookups. Token decimals are
// immutable on-chain, so entries live for the process lifetime and are never
// evicted. Concurrent cold misses for the same token collapse into a single
// upstream call.
type DecimalsCache struct {
	src    domain.DecimalsSource
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[common.Address]uint8
	flight  singleflight.Group
}

func NewDecimalsCache(src domain.DecimalsSource, logger *slog.Logger) *DecimalsCache {
	return &DecimalsCache{
		src:     src,
		logger:  logger.With(slog.String("component", "decimals_cache")),
		entries: make(map[common.Address]uint8),
	}
}

// DecimalsOf returns the cached precision for token, consulting the upstream
// source on a miss. A failed lookup leaves the cache untouched so the next
// pass retries instead of detecting against a stale or guessed value.
func (c *DecimalsCache) DecimalsOf(ctx context.Context, token common.Address) (uint8, error) {
	c.mu.RLock()
	dec, ok := c.entries[token]
	c.mu.RUnlock()
	if ok {
		return dec, nil
	}

	v, err, _ := c.flight.Do(token.Hex(), func() (interface{}, error) {
		// Another flight may have landed between the read above and here.
		c.mu.RLock()
		dec, ok := c.entries[token]
		c.mu.RUnlock()
		if ok {
			return dec, nil
		}

		dec, err := c.src.DecimalsOf(ctx, token)
		if err != nil {
			return uint8(0), err
		}

		c.mu.Lock()
		c.entries[token] = dec
		c.mu.Unlock()

		c.logger.Debug("token precision cached",
			slog.String("token", token.Hex()),
			slog.Int("decimals", int(dec)),
		)
		return dec, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint8), nil
}

// Len reports how many tokens have been resolved so far.
func (c *DecimalsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ domain.DecimalsSource = (*DecimalsCache)(nil)
