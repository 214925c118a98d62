package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/internal/query"
	"github.com/prompthero/backend/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Prompt{},
		&models.SearchQuery{},
		&models.PopularQuery{},
	))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func newTestSearch(db *gorm.DB) *SearchService {
	repos := repository.NewRepositoryManager(db)
	return NewSearchService(repos.Prompt, repos.PopularQuery, nil, SearchConfig{}, testLogger()).
		WithClock(func() time.Time { return fixedNow })
}

// seedPrompt stores p as a public prompt, with valid defaults for any field
// left empty.
func seedPrompt(t *testing.T, db *gorm.DB, p models.Prompt) models.Prompt {
	t.Helper()
	p.IsPublic = true
	if p.Content == "" {
		p.Content = "Body of " + p.Title
	}
	if p.Category == "" {
		p.Category = models.CategoryGeneral
	}
	if p.Difficulty == "" {
		p.Difficulty = models.DifficultyBeginner
	}
	if p.ModerationStatus == "" {
		p.ModerationStatus = models.ModerationApproved
	}
	if p.Tags == nil {
		p.Tags = models.StringArray{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = fixedNow.Add(-24 * time.Hour)
	}
	p.UpdatedAt = p.CreatedAt
	require.NoError(t, db.Create(&p).Error)
	return p
}

func ids(prompts []models.Prompt) []string {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = p.ID
	}
	return out
}

// stubPrompts lets a test replace any single store call.
type stubPrompts struct {
	countFn    func() (int64, error)
	findPageFn func() ([]models.Prompt, error)
	tagSetsFn  func() ([]models.StringArray, error)
	titlesFn   func() ([]string, error)
}

func (s *stubPrompts) Count(context.Context, query.Plan) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn()
}

func (s *stubPrompts) FindPage(context.Context, query.Plan) ([]models.Prompt, error) {
	if s.findPageFn == nil {
		return nil, nil
	}
	return s.findPageFn()
}

func (s *stubPrompts) TagSets(context.Context, query.Plan) ([]models.StringArray, error) {
	if s.tagSetsFn == nil {
		return nil, nil
	}
	return s.tagSetsFn()
}

func (s *stubPrompts) Titles(context.Context, query.Plan) ([]string, error) {
	if s.titlesFn == nil {
		return nil, nil
	}
	return s.titlesFn()
}
