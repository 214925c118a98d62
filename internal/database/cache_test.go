package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prompthero/backend/internal/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewCache(client, logger), mr
}

func TestCache_Suggestions(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	_, err := cache.GetCachedSuggestions(ctx, "code")
	assert.True(t, IsMiss(err))

	want := []models.Suggestion{
		{Text: "AI Code Review Assistant", Type: models.SuggestionTitle},
		{Text: "code", Type: models.SuggestionTag},
	}
	require.NoError(t, cache.CacheSuggestions(ctx, "code", want, time.Minute))

	got, err := cache.GetCachedSuggestions(ctx, "  CODE ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	_, err = cache.GetCachedSuggestions(ctx, "code")
	assert.True(t, IsMiss(err))
}

func TestCache_EmptySuggestionsStayEmpty(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.CacheSuggestions(ctx, "nothing", []models.Suggestion{}, time.Minute))
	got, err := cache.GetCachedSuggestions(ctx, "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCache_InvalidateSuggestions(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, cache.CacheSuggestions(ctx, text, []models.Suggestion{{Text: text, Type: models.SuggestionTitle}}, time.Minute))
	}
	require.NoError(t, cache.CacheSystemHealth(ctx, []models.SystemHealth{{ServiceName: "postgres", Status: "healthy"}}, time.Minute))

	require.NoError(t, cache.InvalidateSuggestions(ctx))

	for _, text := range []string{"one", "two", "three"} {
		_, err := cache.GetCachedSuggestions(ctx, text)
		assert.True(t, IsMiss(err))
	}
	assert.True(t, mr.Exists(SystemHealthKey))
}

func TestCache_InvalidateSuggestionsRedisDown(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()
	require.NoError(t, cache.CacheSuggestions(ctx, "one", []models.Suggestion{{Text: "one", Type: models.SuggestionTitle}}, time.Minute))

	cache.logger.SetLevel(logrus.DebugLevel)
	hook := logtest.NewLocal(cache.logger)
	mr.Close()

	err := cache.InvalidateSuggestions(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan suggestion keys")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Suggestion key scan failed", entry.Message)
	assert.Equal(t, "search:suggestions:*", entry.Data["pattern"])
}

func TestCache_SystemHealthAndPopular(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	health := []models.SystemHealth{
		{ServiceName: "postgres", Status: "healthy", ResponseTimeMs: 3},
		{ServiceName: "redis", Status: "unhealthy", ErrorMessage: "refused"},
	}
	require.NoError(t, cache.CacheSystemHealth(ctx, health, time.Minute))
	gotHealth, err := cache.GetCachedSystemHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refused", gotHealth[1].ErrorMessage)

	popular := []models.PopularQuery{{QueryText: "code review", SearchCount: 4}}
	require.NoError(t, cache.CachePopularQueries(ctx, popular, time.Minute))
	gotPopular, err := cache.GetCachedPopularQueries(ctx)
	require.NoError(t, err)
	require.Len(t, gotPopular, 1)
	assert.Equal(t, 4, gotPopular[0].SearchCount)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewRedisClient("redis://" + mr.Addr() + "/0")
	assert.Error(t, err)

	_, err = NewRedisClient("::not a url")
	assert.Error(t, err)
}
