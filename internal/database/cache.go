package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Cache is the redis-backed facet and health cache.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	SuggestionsKey  = "search:suggestions:%s"
	PopularQueryKey = "popular:queries"
	SystemHealthKey = "system:health"
)

func suggestionsKey(text string) string {
	return fmt.Sprintf(SuggestionsKey, utils.MD5Hash(strings.ToLower(strings.TrimSpace(text))))
}

// CacheSuggestions caches the suggestions computed for text.
func (c *Cache) CacheSuggestions(ctx context.Context, text string, suggestions []models.Suggestion, expiration time.Duration) error {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}

	return c.client.Set(ctx, suggestionsKey(text), data, expiration).Err()
}

// GetCachedSuggestions returns redis.Nil on a miss.
func (c *Cache) GetCachedSuggestions(ctx context.Context, text string) ([]models.Suggestion, error) {
	data, err := c.client.Get(ctx, suggestionsKey(text)).Bytes()
	if err != nil {
		return nil, err
	}

	var suggestions []models.Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, err
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	return suggestions, nil
}

// CachePopularQueries caches popular queries list
func (c *Cache) CachePopularQueries(ctx context.Context, queries []models.PopularQuery, expiration time.Duration) error {
	data, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("failed to marshal popular queries: %w", err)
	}

	return c.client.Set(ctx, PopularQueryKey, data, expiration).Err()
}

// GetCachedPopularQueries retrieves cached popular queries
func (c *Cache) GetCachedPopularQueries(ctx context.Context) ([]models.PopularQuery, error) {
	data, err := c.client.Get(ctx, PopularQueryKey).Bytes()
	if err != nil {
		return nil, err
	}

	var queries []models.PopularQuery
	err = json.Unmarshal(data, &queries)
	return queries, err
}

// CacheSystemHealth caches system health status
func (c *Cache) CacheSystemHealth(ctx context.Context, health []models.SystemHealth, expiration time.Duration) error {
	data, err := json.Marshal(health)
	if err != nil {
		return fmt.Errorf("failed to marshal system health: %w", err)
	}

	return c.client.Set(ctx, SystemHealthKey, data, expiration).Err()
}

// GetCachedSystemHealth retrieves cached system health
func (c *Cache) GetCachedSystemHealth(ctx context.Context) ([]models.SystemHealth, error) {
	data, err := c.client.Get(ctx, SystemHealthKey).Bytes()
	if err != nil {
		return nil, err
	}

	var health []models.SystemHealth
	err = json.Unmarshal(data, &health)
	return health, err
}

// InvalidateSuggestions drops every cached suggestion list. Called after the
// catalog changes.
func (c *Cache) InvalidateSuggestions(ctx context.Context) error {
	pattern := fmt.Sprintf(SuggestionsKey, "*")
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).WithField("pattern", pattern).Debug("Suggestion key scan failed")
		return fmt.Errorf("scan suggestion keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).WithField("keys", len(keys)).Debug("Suggestion key delete failed")
		return fmt.Errorf("delete suggestion keys: %w", err)
	}
	c.logger.WithField("keys", len(keys)).Debug("Invalidated cached suggestions")
	return nil
}

// IsMiss reports whether err is a cache miss rather than a redis failure.
func IsMiss(err error) bool {
	return err == redis.Nil
}
