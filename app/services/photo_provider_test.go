package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/planeit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPexelsPhotoFor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "pexels-key", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "Lisbon, Portugal", q.Get("query"))
		assert.Equal(t, "portrait", q.Get("orientation"))
		assert.Equal(t, "1", q.Get("per_page"))
		_, _ = w.Write([]byte(`{"photos":[{"src":{"original":"https://images.example/lisbon.jpg"}}]}`))
	}))
	defer srv.Close()

	p := NewPexelsPhotoProvider(&config.PhotosConfig{Enabled: true, BaseURL: srv.URL, APIKey: "pexels-key", Timeout: time.Second})

	url, err := p.PhotoFor(context.Background(), "Lisbon", "Portugal")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/lisbon.jpg", url)
}

func TestPexelsNoPhotos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos":[]}`))
	}))
	defer srv.Close()

	p := NewPexelsPhotoProvider(&config.PhotosConfig{Enabled: true, BaseURL: srv.URL, APIKey: "k", Timeout: time.Second})

	_, err := p.PhotoFor(context.Background(), "Nowhere", "Atlantis")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestPexelsNotConfigured(t *testing.T) {
	p := NewPexelsPhotoProvider(&config.PhotosConfig{Enabled: true})

	_, err := p.PhotoFor(context.Background(), "Lisbon", "Portugal")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

type memoryPhotoCache struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
}

func newMemoryPhotoCache() *memoryPhotoCache {
	return &memoryPhotoCache{entries: make(map[string]string)}
}

func (c *memoryPhotoCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryPhotoCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func TestCachedPhotoProvider(t *testing.T) {
	inner := NewMockPhotoProvider()
	inner.Photos["Lisbon"] = "https://images.example/lisbon.jpg"
	cache := newMemoryPhotoCache()
	p := NewCachedPhotoProvider(inner, cache, time.Hour)

	for i := 0; i < 3; i++ {
		url, err := p.PhotoFor(context.Background(), "Lisbon", "Portugal")
		require.NoError(t, err)
		assert.Equal(t, "https://images.example/lisbon.jpg", url)
	}
	assert.Equal(t, 1, inner.CallCount())
	assert.Equal(t, "https://images.example/lisbon.jpg", cache.entries[PhotoCacheKey("Lisbon", "Portugal")])
}

func TestCachedPhotoProviderDoesNotCacheMisses(t *testing.T) {
	inner := NewMockPhotoProvider()
	cache := newMemoryPhotoCache()
	p := NewCachedPhotoProvider(inner, cache, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := p.PhotoFor(context.Background(), "Nowhere", "Atlantis")
		assert.ErrorIs(t, err, ErrPhotoNotFound)
	}
	assert.Equal(t, 2, inner.CallCount())
	assert.Empty(t, cache.entries)
}

func TestCachedPhotoProviderSurvivesCacheErrors(t *testing.T) {
	inner := NewMockPhotoProvider()
	inner.Photos["Oslo"] = "https://images.example/oslo.jpg"
	cache := newMemoryPhotoCache()
	cache.getErr = errors.New("redis down")
	p := NewCachedPhotoProvider(inner, cache, time.Hour)

	url, err := p.PhotoFor(context.Background(), "Oslo", "Norway")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/oslo.jpg", url)
}

func TestPhotoCacheKey(t *testing.T) {
	assert.Equal(t, "photo:new york:usa", PhotoCacheKey(" New York ", "USA"))
}
