package businessflow

import (
	"context"
	"sync"
	"time"

	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const suggestionLockPoll = 100 * time.Millisecond

// releaseLockScript deletes the lock only while it still holds the caller's token
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// suggestionLocker serializes first materialization of one plan's suggestions
type suggestionLocker interface {
	// lock blocks until the plan's lock is held or ctx is done and returns its release func.
	// Failing to lock is not an error: the conditional plan update stays authoritative.
	lock(ctx context.Context, planCode string) func()
}

// newSuggestionLocker uses Redis SETNX when rc is configured and a process-local keyed mutex otherwise
func newSuggestionLocker(rc *redis.Client, cacheCfg *config.CacheConfig) suggestionLocker {
	if rc == nil {
		return newLocalSuggestionLocker()
	}
	return &redisSuggestionLocker{rc: rc, cacheCfg: cacheCfg, ttl: utils.SuggestionLockTTL}
}

type redisSuggestionLocker struct {
	rc       *redis.Client
	cacheCfg *config.CacheConfig
	ttl      time.Duration
}

func (l *redisSuggestionLocker) lock(ctx context.Context, planCode string) func() {
	lockKey := redisKey(l.cacheCfg, utils.SuggestionLockKeyPrefix+planCode)
	token := uuid.NewString()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.rc.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("plan_code", planCode).Msg("Suggestion lock unavailable")
			return func() {}
		}
		if ok {
			return func() {
				if err := releaseLockScript.Run(context.Background(), l.rc, []string{lockKey}, token).Err(); err != nil {
					logging.Ctx(ctx).Warn().Err(err).Str("plan_code", planCode).Msg("Suggestion lock release failed")
				}
			}
		}
		if time.Now().After(deadline) {
			return func() {}
		}

		select {
		case <-ctx.Done():
			return func() {}
		case <-time.After(suggestionLockPoll):
		}
	}
}

type localSuggestionLocker struct {
	mu    sync.Mutex
	locks map[string]*planLock
}

type planLock struct {
	ch   chan struct{}
	refs int
}

func newLocalSuggestionLocker() *localSuggestionLocker {
	return &localSuggestionLocker{locks: make(map[string]*planLock)}
}

func (l *localSuggestionLocker) lock(ctx context.Context, planCode string) func() {
	l.mu.Lock()
	pl, ok := l.locks[planCode]
	if !ok {
		pl = &planLock{ch: make(chan struct{}, 1)}
		l.locks[planCode] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.ch <- struct{}{}:
		return func() {
			<-pl.ch
			l.release(planCode, pl)
		}
	case <-ctx.Done():
		l.release(planCode, pl)
		return func() {}
	}
}

func (l *localSuggestionLocker) release(planCode string, pl *planLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, planCode)
	}
}
