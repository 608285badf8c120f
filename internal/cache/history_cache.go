// Package cache holds Redis-backed helpers: the vendor history cache, the
// Slack delivery guard and a single-runner lock for scheduled jobs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// HistoryLoader computes a vendor's ticket history from the database.
type HistoryLoader func(ctx context.Context, vendorHandle, categoryID string, since time.Time) (domain.VendorTicketHistory, error)

// VendorHistoryCache memoizes vendor history per vendor, category and day.
// A nil client disables caching.
type VendorHistoryCache struct {
	client *redis.Client
	ttl    time.Duration
	window time.Duration
	load   HistoryLoader
}

// NewVendorHistoryCache returns a cache in front of load.
func NewVendorHistoryCache(client *redis.Client, ttl time.Duration, windowDays int, load HistoryLoader) *VendorHistoryCache {
	if windowDays <= 0 {
		windowDays = 90
	}
	return &VendorHistoryCache{
		client: client,
		ttl:    ttl,
		window: time.Duration(windowDays) * 24 * time.Hour,
		load:   load,
	}
}

// Get returns the vendor's history over the window ending at now. Redis
// failures fall through to the loader.
func (c *VendorHistoryCache) Get(ctx context.Context, vendorHandle, categoryID string, now time.Time) (domain.VendorTicketHistory, error) {
	since := now.Add(-c.window).UTC().Truncate(24 * time.Hour)
	windowDays := int(c.window / (24 * time.Hour))
	key := fmt.Sprintf("vendor_history:%s:%s:%s", vendorHandle, categoryID, since.Format("2006-01-02"))

	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var h domain.VendorTicketHistory
			if json.Unmarshal(raw, &h) == nil {
				return h, nil
			}
		} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
			return domain.VendorTicketHistory{}, ctx.Err()
		}
	}

	h, err := c.load(ctx, vendorHandle, categoryID, since)
	if err != nil {
		return domain.VendorTicketHistory{}, err
	}
	h.WindowDays = windowDays

	if c.client != nil && c.ttl > 0 {
		if raw, err := json.Marshal(h); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
	}
	return h, nil
}

// Invalidate drops cached entries for a vendor after a new ticket lands.
func (c *VendorHistoryCache) Invalidate(ctx context.Context, vendorHandle string) error {
	if c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("vendor_history:%s:*", vendorHandle), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
