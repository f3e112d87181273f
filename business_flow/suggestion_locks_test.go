package businessflow

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSuggestionLocker(t *testing.T) {
	t.Run("SerializesSamePlan", func(t *testing.T) {
		l := newLocalSuggestionLocker()
		var inside, peak atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release := l.lock(context.Background(), "ABC123")
				defer release()

				n := inside.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), peak.Load())
		assert.Empty(t, l.locks)
	})

	t.Run("DifferentPlansDoNotBlock", func(t *testing.T) {
		l := newLocalSuggestionLocker()
		release := l.lock(context.Background(), "AAA111")
		defer release()

		done := make(chan struct{})
		go func() {
			l.lock(context.Background(), "BBB222")()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on another plan blocked")
		}
	})

	t.Run("ContextCancelStopsWaiting", func(t *testing.T) {
		l := newLocalSuggestionLocker()
		release := l.lock(context.Background(), "ABC123")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		start := time.Now()
		l.lock(ctx, "ABC123")()
		assert.Less(t, time.Since(start), time.Second)

		release()
		assert.Empty(t, l.locks)
	})
}

func TestNewSuggestionLockerWithoutRedis(t *testing.T) {
	_, ok := newSuggestionLocker(nil, nil).(*localSuggestionLocker)
	assert.True(t, ok)
}

func requireRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping Redis lock tests")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rc := redis.NewClient(opt)
	t.Cleanup(func() { _ = rc.Close() })
	require.NoError(t, rc.Ping(context.Background()).Err())
	return rc
}

func TestRedisSuggestionLocker(t *testing.T) {
	rc := requireRedis(t)
	ctx := context.Background()

	t.Run("ReleaseDeletesOwnLock", func(t *testing.T) {
		cfg := &config.CacheConfig{RedisPrefix: "planeit_test:" + t.Name() + ":"}
		l := &redisSuggestionLocker{rc: rc, cacheCfg: cfg, ttl: time.Second}
		key := redisKey(cfg, utils.SuggestionLockKeyPrefix+"ABC123")
		t.Cleanup(func() { _ = rc.Del(ctx, key).Err() })

		release := l.lock(ctx, "ABC123")
		assert.Equal(t, int64(1), rc.Exists(ctx, key).Val())
		release()
		assert.Equal(t, int64(0), rc.Exists(ctx, key).Val())
	})

	t.Run("ExpiredHolderKeepsNewLock", func(t *testing.T) {
		cfg := &config.CacheConfig{RedisPrefix: "planeit_test:" + t.Name() + ":"}
		key := redisKey(cfg, utils.SuggestionLockKeyPrefix+"ABC123")
		t.Cleanup(func() { _ = rc.Del(ctx, key).Err() })

		first := &redisSuggestionLocker{rc: rc, cacheCfg: cfg, ttl: 100 * time.Millisecond}
		staleRelease := first.lock(ctx, "ABC123")
		time.Sleep(200 * time.Millisecond)

		second := &redisSuggestionLocker{rc: rc, cacheCfg: cfg, ttl: time.Second}
		release := second.lock(ctx, "ABC123")
		held, err := rc.Get(ctx, key).Result()
		require.NoError(t, err)

		staleRelease()
		current, err := rc.Get(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, held, current)

		release()
		assert.Equal(t, int64(0), rc.Exists(ctx, key).Val())
	})
}
