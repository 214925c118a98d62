package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/internal/query"
	"github.com/prompthero/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedRatedTrio(t *testing.T, db *gorm.DB) (models.Prompt, models.Prompt, models.Prompt) {
	t.Helper()
	first := seedPrompt(t, db, models.Prompt{
		Title:         "Refactor a legacy module",
		Category:      models.CategoryDevelopment,
		Tags:          models.StringArray{"ai"},
		AverageRating: 4.5,
		CreatedAt:     fixedNow.Add(-72 * time.Hour),
	})
	second := seedPrompt(t, db, models.Prompt{
		Title:         "Generate a demo script",
		Category:      models.CategoryDevelopment,
		Tags:          models.StringArray{"ai", "demo"},
		AverageRating: 3.0,
		CreatedAt:     fixedNow.Add(-48 * time.Hour),
	})
	third := seedPrompt(t, db, models.Prompt{
		Title:         "Write a short poem",
		Category:      models.CategoryCreative,
		AverageRating: 5.0,
		CreatedAt:     fixedNow.Add(-24 * time.Hour),
	})
	return first, second, third
}

func TestSearch_CategoryAndRating(t *testing.T) {
	db := setupTestDB(t)
	first, second, _ := seedRatedTrio(t, db)
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{
		Category: "development",
		Sort:     "rating",
		Order:    "desc",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{first.ID, second.ID}, ids(resp.Results))
	assert.Equal(t, 4.5, resp.Results[0].AverageRating)
	assert.Equal(t, 3.0, resp.Results[1].AverageRating)
	assert.Equal(t, models.Pagination{
		Page: 1, Limit: 20, Total: 2, TotalPages: 1, HasNext: false, HasPrev: false,
	}, resp.Pagination)
}

func TestSearch_TagSetMembership(t *testing.T) {
	db := setupTestDB(t)
	_, second, _ := seedRatedTrio(t, db)
	seedPrompt(t, db, models.Prompt{Title: "Demonstrate a feature", Tags: models.StringArray{"demos"}})
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Tags: []string{"demo"}}))
	require.NoError(t, err)

	assert.Equal(t, []string{second.ID}, ids(resp.Results))
	assert.EqualValues(t, 1, resp.Pagination.Total)
}

func TestSearch_TagsAreConjunctive(t *testing.T) {
	db := setupTestDB(t)
	_, second, _ := seedRatedTrio(t, db)
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Tags: []string{"ai,demo"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids(resp.Results))

	resp, err = svc.Search(context.Background(), query.Normalize(query.Request{Tags: []string{"ai", "missing"}}))
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
}

func TestSearch_TitleMatchOutranksContentMatch(t *testing.T) {
	db := setupTestDB(t)
	titled := seedPrompt(t, db, models.Prompt{
		Title:     "AI Code Review Assistant",
		Content:   "Review the diff below.",
		CreatedAt: fixedNow.Add(-72 * time.Hour),
	})
	bodyOnly := seedPrompt(t, db, models.Prompt{
		Title:     "Letter drafting",
		Content:   "You are a patient assistant for letters.",
		CreatedAt: fixedNow.Add(-1 * time.Hour),
	})
	seedPrompt(t, db, models.Prompt{Title: "Unrelated", Content: "Nothing to see."})
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Search: "ai assistant"}))
	require.NoError(t, err)

	require.Equal(t, []string{titled.ID, bodyOnly.ID}, ids(resp.Results))
	assert.Greater(t, resp.Results[0].Relevance, resp.Results[1].Relevance)
}

func TestSearch_WildcardsInSearchAreLiteral(t *testing.T) {
	db := setupTestDB(t)
	percent := seedPrompt(t, db, models.Prompt{Title: "Plan a 10%x growth target"})
	seedPrompt(t, db, models.Prompt{Title: "Plan a 10ax growth target"})
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Search: "10%x"}))
	require.NoError(t, err)
	assert.Equal(t, []string{percent.ID}, ids(resp.Results))
}

func TestSearch_PagesConcatenateToFullSet(t *testing.T) {
	db := setupTestDB(t)
	created := fixedNow.Add(-5 * time.Hour)
	var all []string
	for i, usage := range []int{3, 3, 3, 1, 1, 0, 0} {
		p := seedPrompt(t, db, models.Prompt{
			Title:      "Same title",
			UsageCount: usage,
			CreatedAt:  created.Add(time.Duration(i%2) * time.Minute),
		})
		all = append(all, p.ID)
	}
	svc := newTestSearch(db)

	for _, sort := range []string{"popular", "title", "newest", "rating"} {
		t.Run(sort, func(t *testing.T) {
			var seen []string
			page := 1
			for {
				resp, err := svc.Search(context.Background(), query.Normalize(query.Request{
					Sort: sort, Page: page, Limit: 3,
				}))
				require.NoError(t, err)
				assert.EqualValues(t, len(all), resp.Pagination.Total)
				seen = append(seen, ids(resp.Results)...)
				if !resp.Pagination.HasNext {
					assert.Equal(t, 3, resp.Pagination.TotalPages)
					break
				}
				page++
			}
			assert.Len(t, seen, len(all))
			assert.ElementsMatch(t, all, seen)
		})
	}
}

func TestSearch_PagePastTheEndIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	seedPrompt(t, db, models.Prompt{Title: "Only prompt"})
	svc := newTestSearch(db)

	for _, page := range []int{2, 100000000000000000} {
		resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Page: page, Limit: 100}))
		require.NoError(t, err)

		assert.Empty(t, resp.Results)
		assert.EqualValues(t, 1, resp.Pagination.Total)
		assert.Equal(t, 1, resp.Pagination.TotalPages)
		assert.False(t, resp.Pagination.HasNext)
		assert.True(t, resp.Pagination.HasPrev)
	}
}

func TestSearch_TotalMatchesUnpaginatedSet(t *testing.T) {
	db := setupTestDB(t)
	seedRatedTrio(t, db)
	seedPrompt(t, db, models.Prompt{Title: "Featured ai helper", IsFeatured: true, Tags: models.StringArray{"ai"}})
	svc := newTestSearch(db)

	requests := []query.Request{
		{},
		{Category: "development"},
		{Tags: []string{"ai"}},
		{Featured: true},
		{Search: "a"},
		{Search: "ai", Category: "development"},
	}
	for _, req := range requests {
		req.Limit = 1
		paged, err := svc.Search(context.Background(), query.Normalize(req))
		require.NoError(t, err)

		req.Limit = query.MaxLimit
		full, err := svc.Search(context.Background(), query.Normalize(req))
		require.NoError(t, err)

		assert.EqualValues(t, len(full.Results), paged.Pagination.Total, "%+v", req)
		assert.LessOrEqual(t, len(paged.Results), 1)
	}
}

func TestSearch_TrendingWindow(t *testing.T) {
	db := setupTestDB(t)
	recent := seedPrompt(t, db, models.Prompt{Title: "Recent and used", UsageCount: 5, CreatedAt: fixedNow.Add(-48 * time.Hour)})
	busier := seedPrompt(t, db, models.Prompt{Title: "Recent and busier", UsageCount: 9, CreatedAt: fixedNow.Add(-72 * time.Hour)})
	seedPrompt(t, db, models.Prompt{Title: "Old but popular", UsageCount: 50, CreatedAt: fixedNow.Add(-30 * 24 * time.Hour)})
	seedPrompt(t, db, models.Prompt{Title: "Recent but unused", CreatedAt: fixedNow.Add(-1 * time.Hour)})
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Trending: true}))
	require.NoError(t, err)

	assert.Equal(t, []string{busier.ID, recent.ID}, ids(resp.Results))
}

func TestSearch_EquivalentRequests(t *testing.T) {
	db := setupTestDB(t)
	seedRatedTrio(t, db)
	svc := newTestSearch(db)
	ctx := context.Background()

	run := func(req query.Request) []string {
		resp, err := svc.Search(ctx, query.Normalize(req))
		require.NoError(t, err)
		return ids(resp.Results)
	}

	assert.Equal(t, run(query.Request{}), run(query.Request{Category: "all"}))
	assert.Equal(t, run(query.Request{Sort: "newest"}), run(query.Request{Sort: "garbage"}))
	assert.Equal(t, run(query.Request{Order: "desc"}), run(query.Request{Order: "sideways"}))
}

func TestSearch_HidesPrivateAndModerated(t *testing.T) {
	db := setupTestDB(t)
	visible := seedPrompt(t, db, models.Prompt{Title: "Visible"})
	pending := seedPrompt(t, db, models.Prompt{Title: "Pending", ModerationStatus: models.ModerationPending})
	seedPrompt(t, db, models.Prompt{Title: "Rejected", ModerationStatus: models.ModerationRejected})
	require.NoError(t, db.Create(&models.Prompt{
		Title:      "Private",
		Content:    "secret",
		Category:   models.CategoryGeneral,
		Difficulty: models.DifficultyBeginner,
		IsPublic:   false,
	}).Error)
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Sort: "title", Order: "desc"}))
	require.NoError(t, err)
	assert.Equal(t, []string{visible.ID, pending.ID}, ids(resp.Results))
}

func TestSearch_RelatedTags(t *testing.T) {
	db := setupTestDB(t)
	seedPrompt(t, db, models.Prompt{Title: "One", Tags: models.StringArray{"ai", "demo"}})
	seedPrompt(t, db, models.Prompt{Title: "Two", Tags: models.StringArray{"ai", "writing"}})
	seedPrompt(t, db, models.Prompt{Title: "Three", Tags: models.StringArray{"ai", "demo", "code"}})
	seedPrompt(t, db, models.Prompt{Title: "Four", Tags: models.StringArray{"poetry"}})
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Tags: []string{"ai"}}))
	require.NoError(t, err)

	assert.Equal(t, []models.TagFrequency{
		{Tag: "demo", Frequency: 2},
		{Tag: "code", Frequency: 1},
		{Tag: "writing", Frequency: 1},
	}, resp.Facets.RelatedTags)
	assert.Empty(t, resp.Facets.Suggestions)
}

func TestSearch_Suggestions(t *testing.T) {
	db := setupTestDB(t)
	seedPrompt(t, db, models.Prompt{Title: "AI Code Review Assistant", Tags: models.StringArray{"code-review", "ai"}})
	seedPrompt(t, db, models.Prompt{Title: "Explain this function", Tags: models.StringArray{"code"}})
	repos := repository.NewRepositoryManager(db)
	require.NoError(t, repos.PopularQuery.IncrementCount(context.Background(), "code review tips", fixedNow))
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Search: "Code"}))
	require.NoError(t, err)

	suggestions := resp.Facets.Suggestions
	assert.Contains(t, suggestions, models.Suggestion{Text: "AI Code Review Assistant", Type: models.SuggestionTitle})
	assert.Contains(t, suggestions, models.Suggestion{Text: "code", Type: models.SuggestionTag})
	assert.Contains(t, suggestions, models.Suggestion{Text: "code-review", Type: models.SuggestionTag})
	assert.Contains(t, suggestions, models.Suggestion{Text: "code review tips", Type: models.SuggestionPopular})
	assert.LessOrEqual(t, len(suggestions), MaxSuggestions)
}

func TestSuggest_CategoriesAndDedup(t *testing.T) {
	svc := NewSearchService(&stubPrompts{
		titlesFn: func() ([]string, error) {
			return []string{"Creative brief", "creative brief"}, nil
		},
	}, nil, nil, SearchConfig{}, testLogger())

	suggestions := svc.Suggest(context.Background(), "  CREATIVE ")
	assert.Equal(t, []models.Suggestion{
		{Text: "Creative brief", Type: models.SuggestionTitle},
		{Text: models.CategoryCreative, Type: models.SuggestionCategory},
	}, suggestions)

	assert.Empty(t, svc.Suggest(context.Background(), "   "))
}

func TestSearch_FacetFailuresDegrade(t *testing.T) {
	stub := &stubPrompts{
		countFn: func() (int64, error) { return 1, nil },
		findPageFn: func() ([]models.Prompt, error) {
			return []models.Prompt{{ID: "p1", Title: "Development checklist"}}, nil
		},
		tagSetsFn: func() ([]models.StringArray, error) { return nil, errors.New("tags exploded") },
		titlesFn:  func() ([]string, error) { return nil, errors.New("titles exploded") },
	}
	svc := NewSearchService(stub, nil, nil, SearchConfig{}, testLogger())

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{Search: "development"}))
	require.NoError(t, err)

	assert.Len(t, resp.Results, 1)
	assert.NotNil(t, resp.Facets.RelatedTags)
	assert.Empty(t, resp.Facets.RelatedTags)
	assert.Equal(t, []models.Suggestion{
		{Text: models.CategoryDevelopment, Type: models.SuggestionCategory},
	}, resp.Facets.Suggestions)
}

func TestSearch_CountFailurePropagates(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM prompts`).
		WillReturnError(errors.New("connection refused"))
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{}))
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_PageFailurePropagates(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM prompts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT prompts\.\* FROM prompts`).
		WillReturnError(errors.New("read timeout"))
	svc := newTestSearch(db)

	resp, err := svc.Search(context.Background(), query.Normalize(query.Request{}))
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		limit int
		total int64
		want  models.Pagination
	}{
		{"empty", 1, 20, 0, models.Pagination{Page: 1, Limit: 20}},
		{"single page", 1, 20, 20, models.Pagination{Page: 1, Limit: 20, Total: 20, TotalPages: 1}},
		{"first of many", 1, 20, 41, models.Pagination{Page: 1, Limit: 20, Total: 41, TotalPages: 3, HasNext: true}},
		{"middle", 2, 20, 41, models.Pagination{Page: 2, Limit: 20, Total: 41, TotalPages: 3, HasNext: true, HasPrev: true}},
		{"past the end", 9, 20, 41, models.Pagination{Page: 9, Limit: 20, Total: 41, TotalPages: 3, HasPrev: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.page, tt.limit, tt.total))
		})
	}
}

func TestRankTags(t *testing.T) {
	sets := []models.StringArray{
		{"b", "a"},
		{"a", "c"},
		{"c", "b", "a"},
		{"selected"},
	}
	got := RankTags(sets, []string{"selected"}, 2)
	assert.Equal(t, []models.TagFrequency{
		{Tag: "a", Frequency: 3},
		{Tag: "b", Frequency: 2},
	}, got)
}
