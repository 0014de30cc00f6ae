/*
Package livecache keeps the volatile side of navigation in Redis.

Three kinds of state live here, all keyed per visitor: the live position as a
plain JSON value, the breadcrumb trail as a sorted set scored by event time,
and the distributed session lock that keeps one walk per visitor even when
the API runs on several nodes.
*/
package livecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/service/i"
)

const (
	liveKeyPattern  = "wayfinder:live:%s"
	trailKeyPattern = "wayfinder:trail:%s"
	lockKeyPattern  = "wayfinder:session:%s:lock"

	opTimeout = 2 * time.Second
	trailTTL  = 24 * time.Hour
	trailCap  = 512
)

var ErrNilClient = errors.New("livecache: redis client is nil")

// RedisLiveCache implements i.LiveCache on a single Redis instance.
type RedisLiveCache struct {
	client     *redis.Client
	locker     *redsync.Redsync
	sessionTTL time.Duration
}

// NewRedisLiveCache initializes a RedisLiveCache. Session locks and live
// positions expire after sessionTTL, so an abandoned session frees its slot
// on its own.
func NewRedisLiveCache(client *redis.Client, sessionTTL time.Duration) (*RedisLiveCache, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	c := &RedisLiveCache{
		client:     client,
		sessionTTL: sessionTTL,
	}
	pool := goredis.NewPool(client)
	c.locker = redsync.New(pool)
	return c, nil
}

// SetLive records the visitor's current cell.
func (c *RedisLiveCache) SetLive(userID uuid.UUID, cell grid.Cell) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	payload, err := json.Marshal(cell)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.liveKey(userID), payload, c.sessionTTL).Err()
}

// Live returns the visitor's current cell, or nil when unknown.
func (c *RedisLiveCache) Live(userID uuid.UUID) (*grid.Cell, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	payload, err := c.client.Get(ctx, c.liveKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cell grid.Cell
	if err := json.Unmarshal(payload, &cell); err != nil {
		return nil, err
	}
	return &cell, nil
}

// ClearLive forgets the visitor's current cell.
func (c *RedisLiveCache) ClearLive(userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return c.client.Del(ctx, c.liveKey(userID)).Err()
}

// AppendTrail adds one breadcrumb to the visitor's walk history. The member
// embeds the event time, so revisiting a cell keeps both breadcrumbs. The
// trail is capped to its most recent entries.
func (c *RedisLiveCache) AppendTrail(userID uuid.UUID, cell grid.Cell, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := c.trailKey(userID)
	member := fmt.Sprintf("%d|%d,%d", at.UnixNano(), cell.X, cell.Y)
	err := c.client.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: member}).Err()
	if err != nil {
		return err
	}

	if err := c.client.ZRemRangeByRank(ctx, key, 0, -(trailCap + 1)).Err(); err != nil {
		return err
	}

	// Set expiration only if it's not already set
	ttl, err := c.client.TTL(ctx, key).Result()
	if err == nil && ttl == -1 {
		_ = c.client.Expire(ctx, key, trailTTL).Err()
	}

	return nil
}

// RecentTrail returns up to limit breadcrumbs, newest first.
func (c *RedisLiveCache) RecentTrail(userID uuid.UUID, limit int64) ([]i.TrailPoint, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		return nil, nil
	}

	members, err := c.client.ZRevRange(ctx, c.trailKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	points := make([]i.TrailPoint, 0, len(members))
	for _, m := range members {
		p, err := parseTrailMember(m)
		if err != nil {
			// Skip foreign entries instead of failing the whole read.
			continue
		}
		points = append(points, p)
	}
	return points, nil
}

// AcquireSessionLock takes the per-visitor session lock. It fails fast when
// another node already holds it.
func (c *RedisLiveCache) AcquireSessionLock(userID uuid.UUID) (func() error, error) {
	mutex := c.locker.NewMutex(
		fmt.Sprintf(lockKeyPattern, userID),
		redsync.WithExpiry(c.sessionTTL),
		redsync.WithTries(1),
	)
	if err := mutex.Lock(); err != nil {
		return nil, err
	}

	return func() error {
		_, err := mutex.Unlock()
		return err
	}, nil
}

func (c *RedisLiveCache) liveKey(userID uuid.UUID) string {
	return fmt.Sprintf(liveKeyPattern, userID)
}

func (c *RedisLiveCache) trailKey(userID uuid.UUID) string {
	return fmt.Sprintf(trailKeyPattern, userID)
}

// parseTrailMember decodes the "nanos|x,y" member format.
func parseTrailMember(member string) (i.TrailPoint, error) {
	var nanos int64
	var x, y int
	if _, err := fmt.Sscanf(member, "%d|%d,%d", &nanos, &x, &y); err != nil {
		return i.TrailPoint{}, err
	}
	return i.TrailPoint{
		Cell: grid.Cell{X: x, Y: y},
		At:   time.Unix(0, nanos),
	}, nil
}
