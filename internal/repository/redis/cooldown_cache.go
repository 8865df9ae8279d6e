package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"promoHunter/business/curation"
	"promoHunter/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// cacheHorizon bounds how long a last-post timestamp stays cached. It must
// cover the longest cooldown anyone configures.
const cacheHorizon = 30 * 24 * time.Hour

// neverPosted marks an item known to have no publish history.
const neverPosted = "0"

// CooldownCache fronts a CooldownTracker with a Redis read-through cache of
// last-post timestamps. The cache stores the timestamp itself, not a
// verdict, so the same entry serves both the nominal and the relaxed rescue
// window. Any Redis failure degrades to the inner tracker.
type CooldownCache struct {
	client *redis.Client
	inner  curation.CooldownTracker
	now    func() time.Time
}

func NewCooldownCache(client *redis.Client, inner curation.CooldownTracker) *CooldownCache {
	return &CooldownCache{
		client: client,
		inner:  inner,
		now:    time.Now,
	}
}

func cooldownKey(itemID int64) string {
	return fmt.Sprintf("cooldown:item:%d", itemID)
}

func (c *CooldownCache) CanRepost(ctx context.Context, itemID int64, cooldown time.Duration) (bool, error) {
	key := cooldownKey(itemID)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if val == neverPosted {
			return true, nil
		}
		unix, parseErr := strconv.ParseInt(val, 10, 64)
		if parseErr == nil {
			last := time.Unix(unix, 0)
			return c.now().Sub(last) >= cooldown, nil
		}
		// poisoned entry: fall through to the database
	} else if err != redis.Nil {
		logger.Warn("cooldown cache read failed, using database", "item_id", itemID, "error", err)
		return c.inner.CanRepost(ctx, itemID, cooldown)
	}

	last, err := c.inner.LastPostedAt(ctx, itemID)
	if err != nil {
		return false, err
	}

	c.backfill(ctx, key, last)

	if last == nil {
		return true, nil
	}
	return c.now().Sub(*last) >= cooldown, nil
}

func (c *CooldownCache) RecordPost(ctx context.Context, itemID int64, variant, messageID string) error {
	if err := c.inner.RecordPost(ctx, itemID, variant, messageID); err != nil {
		return err
	}

	// best effort; the database already holds the truth
	key := cooldownKey(itemID)
	if err := c.client.Set(ctx, key, strconv.FormatInt(c.now().Unix(), 10), cacheHorizon).Err(); err != nil {
		logger.Warn("cooldown cache write failed", "item_id", itemID, "error", err)
	}

	return nil
}

func (c *CooldownCache) LastPostedAt(ctx context.Context, itemID int64) (*time.Time, error) {
	return c.inner.LastPostedAt(ctx, itemID)
}

func (c *CooldownCache) backfill(ctx context.Context, key string, last *time.Time) {
	val := neverPosted
	if last != nil {
		val = strconv.FormatInt(last.Unix(), 10)
	}
	if err := c.client.Set(ctx, key, val, cacheHorizon).Err(); err != nil {
		logger.Warn("cooldown cache backfill failed", "key", key, "error", err)
	}
}
