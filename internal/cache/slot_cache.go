// Package cache holds the Redis read-through cache for daily slot lists.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// versionTTL outlives any read that could still hold an old version.
const versionTTL = 48 * time.Hour

// setIfVersion writes KEYS[2] only while the day version in KEYS[1]
// still equals ARGV[1].  A missing version counts as "0".
var setIfVersion = redis.NewScript(`
local v = redis.call('GET', KEYS[1]) or '0'
if v ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// SlotCache stores the slot list of one (venue, date) under
// "<prefix>:slots:<venue>:<date>" next to a version counter under
// "<prefix>:slotver:<venue>:<date>".  Invalidate bumps the counter, so a
// reader that loaded the day before a change cannot write it back.
type SlotCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewSlotCache returns a cache bound to rdb.
func NewSlotCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *SlotCache {
	if prefix == "" {
		prefix = "cache"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SlotCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key for a venue day.
func (c *SlotCache) Key(venueID, date string) string {
	return fmt.Sprintf("%s:slots:%s:%s", c.prefix, venueID, date)
}

// VersionKey returns the key of the day's version counter.
func (c *SlotCache) VersionKey(venueID, date string) string {
	return fmt.Sprintf("%s:slotver:%s:%s", c.prefix, venueID, date)
}

// Get returns the cached slots, whether there was a hit and the day
// version to hand back to Set on a miss.
func (c *SlotCache) Get(ctx context.Context, venueID, date string) ([]model.Slot, bool, int64, error) {
	vals, err := c.rdb.MGet(ctx, c.Key(venueID, date), c.VersionKey(venueID, date)).Result()
	if err != nil {
		return nil, false, 0, err
	}
	var version int64
	if s, ok := vals[1].(string); ok {
		if version, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, false, 0, fmt.Errorf("parse slot version: %w", err)
		}
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, false, version, nil
	}
	var slots []model.Slot
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, false, version, fmt.Errorf("decode cached slots: %w", err)
	}
	return slots, true, version, nil
}

// Set stores slots for the configured TTL unless the day was
// invalidated after version was read.  It reports whether it wrote.
func (c *SlotCache) Set(ctx context.Context, venueID, date string, version int64, slots []model.Slot) (bool, error) {
	raw, err := json.Marshal(slots)
	if err != nil {
		return false, err
	}
	n, err := setIfVersion.Run(ctx, c.rdb,
		[]string{c.VersionKey(venueID, date), c.Key(venueID, date)},
		strconv.FormatInt(version, 10), string(raw), c.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate bumps the version of the given dates and drops their entries.
func (c *SlotCache) Invalidate(ctx context.Context, venueID string, dates ...string) error {
	if len(dates) == 0 {
		return nil
	}
	keys := make([]string, len(dates))
	_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, d := range dates {
			vk := c.VersionKey(venueID, d)
			p.Incr(ctx, vk)
			p.Expire(ctx, vk, versionTTL)
			keys[i] = c.Key(venueID, d)
		}
		p.Del(ctx, keys...)
		return nil
	})
	return err
}
