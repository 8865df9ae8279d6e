//go:build !integration

package redis

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackerStub struct {
	lastPost    *time.Time
	lastPostErr error
	canCalls    int
	lastCalls   int
	recorded    []int64
	now         time.Time
}

func (s *trackerStub) CanRepost(_ context.Context, _ int64, cooldown time.Duration) (bool, error) {
	s.canCalls++
	if s.lastPost == nil {
		return true, nil
	}
	return s.now.Sub(*s.lastPost) >= cooldown, nil
}

func (s *trackerStub) RecordPost(_ context.Context, itemID int64, _, _ string) error {
	s.recorded = append(s.recorded, itemID)
	return nil
}

func (s *trackerStub) LastPostedAt(_ context.Context, _ int64) (*time.Time, error) {
	s.lastCalls++
	return s.lastPost, s.lastPostErr
}

func newTestCache(t *testing.T, inner *trackerStub) (*CooldownCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCooldownCache(client, inner), mr
}

func TestCanRepost_CacheMissBackfills(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	posted := now.Add(-24 * time.Hour)
	inner := &trackerStub{lastPost: &posted, now: now}

	cache, mr := newTestCache(t, inner)
	cache.now = func() time.Time { return now }

	ok, err := cache.CanRepost(context.Background(), 42, 5*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, inner.lastCalls)

	// the timestamp is cached now
	val, err := mr.Get("cooldown:item:42")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(posted.Unix(), 10), val)

	// second check is served from the cache
	ok, err = cache.CanRepost(context.Background(), 42, 5*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, inner.lastCalls)
}

func TestCanRepost_NeverPostedSentinel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	inner := &trackerStub{now: now}

	cache, mr := newTestCache(t, inner)
	cache.now = func() time.Time { return now }

	ok, err := cache.CanRepost(context.Background(), 7, 5*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	val, err := mr.Get("cooldown:item:7")
	require.NoError(t, err)
	assert.Equal(t, neverPosted, val)

	ok, err = cache.CanRepost(context.Background(), 7, 5*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, inner.lastCalls)
}

func TestCanRepost_SameEntryServesRelaxedWindow(t *testing.T) {
	// posted 4 days ago: inside the 5-day nominal window, outside the
	// relaxed 3-day rescue window
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	posted := now.Add(-4 * 24 * time.Hour)
	inner := &trackerStub{lastPost: &posted, now: now}

	cache, _ := newTestCache(t, inner)
	cache.now = func() time.Time { return now }

	nominal, err := cache.CanRepost(context.Background(), 42, 5*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, nominal)

	relaxed, err := cache.CanRepost(context.Background(), 42, 3*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, relaxed)

	// one database hit only
	assert.Equal(t, 1, inner.lastCalls)
}

func TestCanRepost_RedisDownFallsBackToDatabase(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	inner := &trackerStub{now: now}

	cache, mr := newTestCache(t, inner)
	cache.now = func() time.Time { return now }
	mr.Close()

	ok, err := cache.CanRepost(context.Background(), 42, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, inner.canCalls)
}

func TestCanRepost_PoisonedEntryGoesToDatabase(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	inner := &trackerStub{now: now}

	cache, mr := newTestCache(t, inner)
	cache.now = func() time.Time { return now }
	require.NoError(t, mr.Set("cooldown:item:42", "not-a-timestamp"))

	ok, err := cache.CanRepost(context.Background(), 42, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, inner.lastCalls)
}

func TestCanRepost_InnerErrorPropagates(t *testing.T) {
	inner := &trackerStub{lastPostErr: errors.New("db down")}

	cache, _ := newTestCache(t, inner)

	_, err := cache.CanRepost(context.Background(), 42, time.Hour)
	assert.Error(t, err)
}

func TestRecordPost_WritesThrough(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	inner := &trackerStub{now: now}

	cache, mr := newTestCache(t, inner)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.RecordPost(context.Background(), 42, "A", "msg-1"))
	assert.Equal(t, []int64{42}, inner.recorded)

	val, err := mr.Get("cooldown:item:42")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(now.Unix(), 10), val)

	// a freshly recorded post blocks an immediate repost without a db read
	ok, err := cache.CanRepost(context.Background(), 42, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, inner.lastCalls)
}

func TestRecordPost_CacheEntryExpires(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	inner := &trackerStub{now: now}

	cache, mr := newTestCache(t, inner)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.RecordPost(context.Background(), 42, "A", "msg-1"))

	mr.FastForward(cacheHorizon + time.Minute)
	assert.False(t, mr.Exists("cooldown:item:42"))
}
