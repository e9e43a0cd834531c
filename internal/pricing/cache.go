package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SnapshotCache caches catalog snapshots per tenant and service type.
// Resolution is read-heavy; concurrent misses for the same key are collapsed
// into a single repository load.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSnapshotCache builds the cache. A nil client disables caching and every
// load falls through to fill.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

type snapshot struct {
	Items []PriceListItem `json:"items"`
	Rules []PricingRule   `json:"rules"`
}

func snapshotKey(tenantID int64, serviceType string) string {
	return fmt.Sprintf("pricing:snapshot:%d:%s", tenantID, serviceType)
}

// Load returns the cached snapshot or fills it from the repository.
func (c *SnapshotCache) Load(ctx context.Context, tenantID int64, serviceType string, fill func(context.Context) ([]PriceListItem, []PricingRule, error)) ([]PriceListItem, []PricingRule, error) {
	if c == nil || c.client == nil {
		return fill(ctx)
	}

	key := snapshotKey(tenantID, serviceType)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var snap snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap.Items, snap.Rules, nil
		}
	}

	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		items, rules, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		snap := snapshot{Items: items, Rules: rules}
		if raw, err := json.Marshal(snap); err == nil {
			c.client.Set(ctx, key, raw, c.ttl)
		}
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, nil, res.Err
		}
		snap := res.Val.(snapshot)
		return snap.Items, snap.Rules, nil
	}
}

// Invalidate drops the snapshot for a tenant and service type, called after
// catalog writes.
func (c *SnapshotCache) Invalidate(ctx context.Context, tenantID int64, serviceType string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, snapshotKey(tenantID, serviceType))
}

// InvalidateTenant drops every snapshot a tenant holds. Rules apply across
// service types, so rule writes cannot target a single key.
func (c *SnapshotCache) InvalidateTenant(ctx context.Context, tenantID int64) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("pricing:snapshot:%d:*", tenantID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
