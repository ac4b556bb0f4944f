// Package idempotency de-duplicates creating requests keyed by
// (merchant, client-supplied key) so client retries never double-create
// payments or refunds.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// TTL is how long a cached response replays for. Fixed at 24 hours from
// write time.
const TTL = 24 * time.Hour

var ErrNoRecord = errors.New("no idempotency record")

// Record is a cached response for one (key, merchant) pair.
type Record struct {
	Key        string
	MerchantID string
	Response   []byte
	ExpiresAt  time.Time
}

func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Store is the persistence port. Put must be insert-if-absent: the first
// writer wins and concurrent duplicates are no-ops.
type Store interface {
	Get(ctx context.Context, merchantID, key string) (*Record, error)
	Put(ctx context.Context, merchantID, key string, response []byte, expiresAt time.Time) error
	Delete(ctx context.Context, merchantID, key string) error
}

// Cache wraps a Store with the lookup/store policy. Store failures fail
// open: the request proceeds uncached.
type Cache struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewCache(store Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Lookup returns the cached response for the key, or nil when the request
// should proceed as fresh. Expired records are purged lazily here.
func (c *Cache) Lookup(ctx context.Context, merchantID, key string) []byte {
	if key == "" {
		return nil
	}

	rec, err := c.store.Get(ctx, merchantID, key)
	if errors.Is(err, ErrNoRecord) {
		return nil
	}
	if err != nil {
		c.logger.Error("idempotency lookup failed, proceeding uncached",
			"merchant_id", merchantID, "error", err)
		return nil
	}

	if rec.Expired(c.now()) {
		if err := c.store.Delete(ctx, merchantID, key); err != nil {
			c.logger.Error("failed to purge expired idempotency key",
				"merchant_id", merchantID, "error", err)
		}
		return nil
	}

	return rec.Response
}

// Store caches a response verbatim for later replay. First writer wins.
func (c *Cache) Store(ctx context.Context, merchantID, key string, response []byte) {
	if key == "" {
		return
	}

	expiresAt := c.now().Add(TTL)
	if err := c.store.Put(ctx, merchantID, key, response, expiresAt); err != nil {
		c.logger.Error("failed to cache idempotent response",
			"merchant_id", merchantID, "error", err)
	}
}
