package services

import (
	"context"
	"strings"
	"time"

	"github.com/prompthero/backend/internal/models"
	"github.com/sirupsen/logrus"
)

type SearchLog interface {
	Create(ctx context.Context, searchQuery *models.SearchQuery) error
}

type PopularQueryCounter interface {
	IncrementCount(ctx context.Context, queryText string, now time.Time) error
	UpdateStats(ctx context.Context, queryText string, resultsCount float64, responseTime int) error
}

// SearchEvent is one completed catalog search, captured from the request
// before the request context goes away.
type SearchEvent struct {
	Search       string
	Category     string
	Tags         []string
	UserSession  string
	UserAgent    string
	IPAddress    string
	ResultsCount int64
	ResponseTime time.Duration
	At           time.Time
}

// QueryTracker records searches for analytics and popular suggestions.
// Tracking errors are logged and never reach the caller.
type QueryTracker struct {
	log     SearchLog
	popular PopularQueryCounter
	logger  *logrus.Logger
	timeout time.Duration
}

func NewQueryTracker(log SearchLog, popular PopularQueryCounter, logger *logrus.Logger) *QueryTracker {
	return &QueryTracker{
		log:     log,
		popular: popular,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Track stores ev. Events without search text are ignored.
func (t *QueryTracker) Track(ev SearchEvent) {
	text := strings.TrimSpace(ev.Search)
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	entry := &models.SearchQuery{
		QueryText:       text,
		Category:        ev.Category,
		Tags:            strings.Join(ev.Tags, ","),
		UserSession:     ev.UserSession,
		ResultsCount:    ev.ResultsCount,
		SearchTimestamp: ev.At,
		ResponseTimeMs:  int(ev.ResponseTime.Milliseconds()),
		UserAgent:       ev.UserAgent,
		IPAddress:       ev.IPAddress,
	}
	if err := t.log.Create(ctx, entry); err != nil {
		t.logger.WithError(err).Error("Failed to track search query")
	}

	if err := t.popular.IncrementCount(ctx, text, ev.At); err != nil {
		t.logger.WithError(err).Error("Failed to update popular queries")
		return
	}
	if err := t.popular.UpdateStats(ctx, text, float64(ev.ResultsCount), entry.ResponseTimeMs); err != nil {
		t.logger.WithError(err).Error("Failed to update query stats")
	}
}
