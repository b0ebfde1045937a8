package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const decisionVersionKey = "authz:decision:version"

// DecisionCache stores resolution outcomes in Redis under a version-prefixed
// key. Writes to roles, grants, overrides, or assignments bump the version,
// which orphans every cached decision at once. Stale-by-one-write reads are
// acceptable; the TTL bounds how long orphaned entries linger.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDecisionCache instantiates the cache helper.
func NewDecisionCache(client *redis.Client, ttl time.Duration) *DecisionCache {
	return &DecisionCache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *DecisionCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, decisionVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, decisionVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates all cached decisions by advancing the version.
func (c *DecisionCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, decisionVersionKey).Err()
}

// Get looks up a cached decision. The second return reports a hit.
func (c *DecisionCache) Get(ctx context.Context, userID uuid.UUID, code string, scope *Scope) (bool, bool, error) {
	if c == nil || c.client == nil {
		return false, false, nil
	}
	key, err := c.key(ctx, userID, code, scope)
	if err != nil {
		return false, false, err
	}
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return value == "1", true, nil
}

// Set records a decision under the current version.
func (c *DecisionCache) Set(ctx context.Context, userID uuid.UUID, code string, scope *Scope, allowed bool) error {
	if c == nil || c.client == nil {
		return nil
	}
	key, err := c.key(ctx, userID, code, scope)
	if err != nil {
		return err
	}
	value := "0"
	if allowed {
		value = "1"
	}
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *DecisionCache) key(ctx context.Context, userID uuid.UUID, code string, scope *Scope) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	scopePart := "-"
	if scope != nil {
		scopePart = scope.Type + "/" + scope.ID.String()
	}
	return fmt.Sprintf("authz:decision:%d:%s:%s:%s", ver, userID, code, scopePart), nil
}
