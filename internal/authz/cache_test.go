package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*DecisionCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDecisionCache(client, time.Minute), srv
}

func TestDecisionCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	user := uuid.New()

	_, hit, err := cache.Get(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, user, "reports.view", nil, true))
	allowed, hit, err := cache.Get(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, allowed)

	require.NoError(t, cache.Set(ctx, user, "reports.export", nil, false))
	allowed, hit, err = cache.Get(ctx, user, "reports.export", nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.False(t, allowed)
}

func TestDecisionCacheScopedKeysAreDistinct(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	user := uuid.New()
	scope := &Scope{Type: "site", ID: uuid.New()}

	require.NoError(t, cache.Set(ctx, user, "reports.view", scope, false))

	_, hit, err := cache.Get(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.False(t, hit, "scoped entry must not answer unscoped lookups")

	allowed, hit, err := cache.Get(ctx, user, "reports.view", scope)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.False(t, allowed)
}

func TestDecisionCacheBumpInvalidates(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, cache.Set(ctx, user, "reports.view", nil, true))
	require.NoError(t, cache.Bump(ctx))

	_, hit, err := cache.Get(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.False(t, hit, "bump must orphan previously cached decisions")
}

func TestNilDecisionCacheIsNoop(t *testing.T) {
	var cache *DecisionCache
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, cache.Set(ctx, user, "reports.view", nil, true))
	_, hit, err := cache.Get(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, cache.Bump(ctx))
}

type countingSource struct {
	calls int
	allow bool
}

func (c *countingSource) HasPermission(ctx context.Context, userID uuid.UUID, code string, scope *Scope) (bool, error) {
	c.calls++
	return c.allow, nil
}

func TestServiceUsesCacheAcrossCalls(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &countingSource{allow: true}
	svc := NewService(source, cache, nil, nil)
	ctx := context.Background()
	user := uuid.New()

	allowed, err := svc.HasPermission(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.HasPermission(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, source.calls, "second lookup should be a cache hit")

	require.NoError(t, svc.Bump(ctx))
	_, err = svc.HasPermission(ctx, user, "reports.view", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "bump should force a fresh resolution")
}
