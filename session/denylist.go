// Package session tracks revoked bearer tokens until they expire.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const keyPrefix = "revoked:"

// RedisDenylist stores revocations as expiring keys.
type RedisDenylist struct {
	rdb   *redis.Client
	clock clock.Clock
}

func NewRedisDenylist(rdb *redis.Client, clk clock.Clock) *RedisDenylist {
	return &RedisDenylist{rdb: rdb, clock: clk}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(d.clock.Now())
	if ttl <= 0 {
		return nil
	}
	return errors.Annotate(d.rdb.Set(ctx, keyPrefix+tokenID, 1, ttl).Err(), "revoke token")
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, errors.Annotate(err, "check revoked token")
	}
	return n > 0, nil
}

// MemoryDenylist keeps revocations in process memory. Expired entries are
// pruned on write.
type MemoryDenylist struct {
	mu      sync.Mutex
	clock   clock.Clock
	revoked map[string]time.Time
}

func NewMemoryDenylist(clk clock.Clock) *MemoryDenylist {
	return &MemoryDenylist{clock: clk, revoked: make(map[string]time.Time)}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.clock.Now()
	for id, exp := range d.revoked {
		if !exp.After(now) {
			delete(d.revoked, id)
		}
	}
	if until.After(now) {
		d.revoked[tokenID] = until
	}
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.revoked[tokenID]
	return ok && exp.After(d.clock.Now()), nil
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Annotatef(err, "connect to redis at %s", addr)
	}
	return rdb, nil
}
