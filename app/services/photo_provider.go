package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/utils"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// PhotoProvider finds a representative photo for a destination
type PhotoProvider interface {
	PhotoFor(ctx context.Context, city, country string) (string, error)
}

// PexelsPhotoProvider implements PhotoProvider against the Pexels search API
type PexelsPhotoProvider struct {
	config  *config.PhotosConfig
	client  *http.Client
	breaker *Breaker
}

type pexelsSearchResponse struct {
	Photos []struct {
		Src struct {
			Original string `json:"original"`
		} `json:"src"`
	} `json:"photos"`
}

// NewPexelsPhotoProvider creates a new Pexels client
func NewPexelsPhotoProvider(cfg *config.PhotosConfig) *PexelsPhotoProvider {
	return &PexelsPhotoProvider{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: NewBreaker("pexels", DefaultBreakerConfig()),
	}
}

// PhotoFor returns the original-size URL of the first portrait photo matching "city, country"
func (p *PexelsPhotoProvider) PhotoFor(ctx context.Context, city, country string) (string, error) {
	if !p.config.Enabled || p.config.APIKey == "" {
		return "", ErrProviderNotConfigured
	}

	return execute(p.breaker, func() (string, error) {
		params := url.Values{}
		params.Set("query", fmt.Sprintf("%s, %s", city, country))
		params.Set("orientation", "portrait")
		params.Set("per_page", "1")

		endpoint := strings.TrimRight(p.config.BaseURL, "/") + "/search?" + params.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create HTTP request: %w", err)
		}
		req.Header.Set("Authorization", p.config.APIKey)

		resp, err := p.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to call pexels search: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("pexels search returned status %d", resp.StatusCode)
		}

		var out pexelsSearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("failed to decode pexels response: %w", err)
		}
		if len(out.Photos) == 0 || out.Photos[0].Src.Original == "" {
			return "", ErrPhotoNotFound
		}
		return out.Photos[0].Src.Original, nil
	})
}

// PhotoCache stores resolved photo URLs
type PhotoCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisPhotoCache implements PhotoCache on Redis
type RedisPhotoCache struct {
	rc     *redis.Client
	prefix string
}

// NewRedisPhotoCache creates a cache whose keys are namespaced with prefix
func NewRedisPhotoCache(rc *redis.Client, prefix string) *RedisPhotoCache {
	return &RedisPhotoCache{rc: rc, prefix: prefix}
}

func (c *RedisPhotoCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rc.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisPhotoCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rc.Set(ctx, c.prefix+key, value, ttl).Err()
}

// CachedPhotoProvider memoizes successful lookups of another PhotoProvider.
// Misses and errors are not cached. A nil cache disables caching.
type CachedPhotoProvider struct {
	next  PhotoProvider
	cache PhotoCache
	ttl   time.Duration
}

// NewCachedPhotoProvider wraps next with cache
func NewCachedPhotoProvider(next PhotoProvider, cache PhotoCache, ttl time.Duration) *CachedPhotoProvider {
	return &CachedPhotoProvider{next: next, cache: cache, ttl: ttl}
}

// PhotoCacheKey builds the cache key for a destination
func PhotoCacheKey(city, country string) string {
	return utils.PhotoCacheKeyPrefix + strings.ToLower(strings.TrimSpace(city)) + ":" + strings.ToLower(strings.TrimSpace(country))
}

func (c *CachedPhotoProvider) PhotoFor(ctx context.Context, city, country string) (string, error) {
	if c.cache == nil {
		return c.next.PhotoFor(ctx, city, country)
	}

	key := PhotoCacheKey(city, country)
	if val, ok, err := c.cache.Get(ctx, key); err != nil {
		photoCacheLookups.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Photo cache read failed")
	} else if ok {
		photoCacheLookups.WithLabelValues("hit").Inc()
		return val, nil
	} else {
		photoCacheLookups.WithLabelValues("miss").Inc()
	}

	photo, err := c.next.PhotoFor(ctx, city, country)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, photo, c.ttl); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Photo cache write failed")
	}
	return photo, nil
}

// MockPhotoProvider implements PhotoProvider for testing
type MockPhotoProvider struct {
	mu     sync.Mutex
	Photos map[string]string // keyed by city
	Err    error
	calls  int
}

// NewMockPhotoProvider creates a new mock photo provider
func NewMockPhotoProvider() *MockPhotoProvider {
	return &MockPhotoProvider{Photos: make(map[string]string)}
}

func (m *MockPhotoProvider) PhotoFor(ctx context.Context, city, country string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.Err != nil {
		return "", m.Err
	}
	if photo, ok := m.Photos[city]; ok {
		return photo, nil
	}
	return "", ErrPhotoNotFound
}

// CallCount returns how many lookups were made
func (m *MockPhotoProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
