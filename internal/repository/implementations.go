package repository

import (
	"context"
	"time"

	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PromptRepository reads compiled catalog plans and performs the few
// counter writes the catalog allows.
type PromptRepository interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	GetVisibleByID(ctx context.Context, id string) (*models.Prompt, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	Count(ctx context.Context, plan query.Plan) (int64, error)
	FindPage(ctx context.Context, plan query.Plan) ([]models.Prompt, error)
	TagSets(ctx context.Context, plan query.Plan) ([]models.StringArray, error)
	Titles(ctx context.Context, plan query.Plan) ([]string, error)
	Rate(ctx context.Context, id string, rating int, now time.Time) (*models.Prompt, error)
	RecordUse(ctx context.Context, id string, now time.Time) (*models.Prompt, error)
}

type SearchQueryRepository interface {
	Create(ctx context.Context, searchQuery *models.SearchQuery) error
}

type PopularQueryRepository interface {
	IncrementCount(ctx context.Context, queryText string, now time.Time) error
	UpdateStats(ctx context.Context, queryText string, resultsCount float64, responseTime int) error
	GetTop(ctx context.Context, limit int) ([]models.PopularQuery, error)
	Matching(ctx context.Context, text string, limit int) ([]models.PopularQuery, error)
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetAllServicesHealth() ([]models.SystemHealth, error)
}

// PromptRepositoryImpl implements PromptRepository
type PromptRepositoryImpl struct {
	db       *gorm.DB
	compiler query.Compiler
}

func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &PromptRepositoryImpl{
		db:       db,
		compiler: query.NewCompiler(query.DialectFor(db.Dialector.Name())),
	}
}

func (r *PromptRepositoryImpl) Create(ctx context.Context, prompt *models.Prompt) error {
	return r.db.WithContext(ctx).Create(prompt).Error
}

func (r *PromptRepositoryImpl) visible(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("is_public = ? AND moderation_status IN ?", true, models.VisibleModerationStates)
}

func (r *PromptRepositoryImpl) GetVisibleByID(ctx context.Context, id string) (*models.Prompt, error) {
	var prompt models.Prompt
	err := r.visible(ctx).Where("id = ?", id).First(&prompt).Error
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (r *PromptRepositoryImpl) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Prompt{}).
		Where("LOWER(title) = LOWER(?)", title).
		Count(&count).Error
	return count > 0, err
}

func (r *PromptRepositoryImpl) Count(ctx context.Context, plan query.Plan) (int64, error) {
	stmt := r.compiler.Count(plan)
	var total int64
	err := r.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&total).Error
	return total, err
}

func (r *PromptRepositoryImpl) FindPage(ctx context.Context, plan query.Plan) ([]models.Prompt, error) {
	stmt := r.compiler.Page(plan)
	prompts := make([]models.Prompt, 0, plan.Limit)
	err := r.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&prompts).Error
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

type tagRow struct {
	Tags models.StringArray
}

func (r *PromptRepositoryImpl) TagSets(ctx context.Context, plan query.Plan) ([]models.StringArray, error) {
	stmt := r.compiler.Column(plan, query.ColTags)
	var rows []tagRow
	if err := r.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	sets := make([]models.StringArray, len(rows))
	for i, row := range rows {
		sets[i] = row.Tags
	}
	return sets, nil
}

func (r *PromptRepositoryImpl) Titles(ctx context.Context, plan query.Plan) ([]string, error) {
	stmt := r.compiler.Column(plan, query.ColTitle)
	var titles []string
	err := r.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&titles).Error
	return titles, err
}

// Rate folds one rating into the running average in a single UPDATE so
// concurrent ratings cannot lose each other.
func (r *PromptRepositoryImpl) Rate(ctx context.Context, id string, rating int, now time.Time) (*models.Prompt, error) {
	return r.bump(ctx, id, map[string]interface{}{
		"average_rating": gorm.Expr("ROUND((average_rating * total_ratings + ?) / (total_ratings + 1.0), 2)", rating),
		"total_ratings":  gorm.Expr("total_ratings + 1"),
		"updated_at":     now,
	})
}

func (r *PromptRepositoryImpl) RecordUse(ctx context.Context, id string, now time.Time) (*models.Prompt, error) {
	return r.bump(ctx, id, map[string]interface{}{
		"usage_count": gorm.Expr("usage_count + 1"),
		"updated_at":  now,
	})
}

func (r *PromptRepositoryImpl) bump(ctx context.Context, id string, updates map[string]interface{}) (*models.Prompt, error) {
	result := r.visible(ctx).Model(&models.Prompt{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetVisibleByID(ctx, id)
}

// SearchQueryRepositoryImpl implements SearchQueryRepository
type SearchQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewSearchQueryRepository(db *gorm.DB) SearchQueryRepository {
	return &SearchQueryRepositoryImpl{db: db}
}

func (r *SearchQueryRepositoryImpl) Create(ctx context.Context, searchQuery *models.SearchQuery) error {
	return r.db.WithContext(ctx).Create(searchQuery).Error
}

// PopularQueryRepositoryImpl implements PopularQueryRepository
type PopularQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewPopularQueryRepository(db *gorm.DB) PopularQueryRepository {
	return &PopularQueryRepositoryImpl{db: db}
}

func (r *PopularQueryRepositoryImpl) IncrementCount(ctx context.Context, queryText string, now time.Time) error {
	row := models.PopularQuery{
		QueryText:    queryText,
		SearchCount:  1,
		LastSearched: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "query_text"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"search_count":  gorm.Expr("popular_queries.search_count + 1"),
			"last_searched": now,
			"updated_at":    now,
		}),
	}).Create(&row).Error
}

func (r *PopularQueryRepositoryImpl) UpdateStats(ctx context.Context, queryText string, resultsCount float64, responseTime int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE popular_queries
		SET
			avg_results_count = (avg_results_count * (search_count - 1) + ?) / search_count,
			avg_response_time_ms = (avg_response_time_ms * (search_count - 1) + ?) / search_count
		WHERE query_text = ?
	`, resultsCount, responseTime, queryText).Error
}

func (r *PopularQueryRepositoryImpl) GetTop(ctx context.Context, limit int) ([]models.PopularQuery, error) {
	var queries []models.PopularQuery
	err := r.db.WithContext(ctx).
		Order("search_count DESC").
		Order("query_text").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

func (r *PopularQueryRepositoryImpl) Matching(ctx context.Context, text string, limit int) ([]models.PopularQuery, error) {
	var queries []models.PopularQuery
	err := r.db.WithContext(ctx).
		Where("LOWER(query_text) LIKE ? ESCAPE '\\'", query.ContainsPattern(text)).
		Order("search_count DESC").
		Order("query_text").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Create(&models.SystemHealth{
		ServiceName:    serviceName,
		Status:         status,
		ResponseTimeMs: responseTime,
		ErrorMessage:   errorMsg,
		CheckedAt:      time.Now().UTC(),
	}).Error
}

// GetAllServicesHealth returns the latest record per service.
func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT *
		FROM system_health
		WHERE id IN (SELECT MAX(id) FROM system_health GROUP BY service_name)
		ORDER BY service_name
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	Prompt       PromptRepository
	SearchQuery  SearchQueryRepository
	PopularQuery PopularQueryRepository
	SystemHealth SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		Prompt:       NewPromptRepository(db),
		SearchQuery:  NewSearchQueryRepository(db),
		PopularQuery: NewPopularQueryRepository(db),
		SystemHealth: NewSystemHealthRepository(db),
	}
}
