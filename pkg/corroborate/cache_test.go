package corroborate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Judge(ctx context.Context, text, target string) (*Judgment, error) {
	args := m.Called(ctx, text, target)
	j, _ := args.Get(0).(*Judgment)
	return j, args.Error(1)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Judgment
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]Judgment{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (*Judgment, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	j, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &j, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, j *Judgment, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = *j
	c.ttls[key] = ttl
	return nil
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("p", "workexe.co", "text")
	assert.Equal(t, a, CacheKey("p", "workexe.co", "text"))
	assert.NotEqual(t, a, CacheKey("p", "workexe.co", "text2"))
	assert.NotEqual(t, a, CacheKey("q", "workexe.co", "text"))
	// Field boundaries are part of the key.
	assert.NotEqual(t, CacheKey("ab", "c", "d"), CacheKey("a", "bc", "d"))
	assert.Contains(t, a, "brandlens:judgment:")
}

func TestCachedProvider_MissThenHit(t *testing.T) {
	ctx := context.Background()
	next := &mockProvider{}
	next.On("Judge", ctx, "text", "workexe.co").Return(&Judgment{Mentioned: true, Score: 70}, nil).Once()

	cache := newMemoryCache()
	p := NewCachedProvider(next, cache, time.Hour, nil)

	first, err := p.Judge(ctx, "text", "workexe.co")
	require.NoError(t, err)
	second, err := p.Judge(ctx, "text", "workexe.co")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "mock", p.Name())
	next.AssertNumberOfCalls(t, "Judge", 1)
	assert.Equal(t, time.Hour, cache.ttls[CacheKey("mock", "workexe.co", "text")])
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &mockProvider{}
	next.On("Judge", ctx, "text", "workexe.co").Return(nil, errors.New("boom")).Twice()

	p := NewCachedProvider(next, newMemoryCache(), time.Minute, nil)
	_, err := p.Judge(ctx, "text", "workexe.co")
	assert.Error(t, err)
	_, err = p.Judge(ctx, "text", "workexe.co")
	assert.Error(t, err)
	next.AssertExpectations(t)
}

func TestCachedProvider_CacheFailuresAreSoft(t *testing.T) {
	ctx := context.Background()
	next := &mockProvider{}
	next.On("Judge", ctx, "text", "workexe.co").Return(&Judgment{Mentioned: true}, nil)

	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")

	j, err := NewCachedProvider(next, cache, time.Minute, nil).Judge(ctx, "text", "workexe.co")
	require.NoError(t, err)
	assert.True(t, j.Mentioned)
}
