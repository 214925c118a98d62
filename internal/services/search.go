package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/internal/query"
	"github.com/sirupsen/logrus"
)

// Facet limits.
const (
	FacetWorkingSet       = 500
	MaxRelatedTags        = 10
	MaxSuggestions        = 10
	maxTitleSuggestions   = 5
	maxPopularSuggestions = 3
)

const (
	DefaultQueryTimeout  = 5 * time.Second
	DefaultSuggestionTTL = 10 * time.Minute
)

// PromptStore executes compiled catalog plans.
type PromptStore interface {
	Count(ctx context.Context, plan query.Plan) (int64, error)
	FindPage(ctx context.Context, plan query.Plan) ([]models.Prompt, error)
	TagSets(ctx context.Context, plan query.Plan) ([]models.StringArray, error)
	Titles(ctx context.Context, plan query.Plan) ([]string, error)
}

type PopularQueryMatcher interface {
	Matching(ctx context.Context, text string, limit int) ([]models.PopularQuery, error)
}

// SuggestionCache stores computed suggestions by search text.
type SuggestionCache interface {
	GetCachedSuggestions(ctx context.Context, text string) ([]models.Suggestion, error)
	CacheSuggestions(ctx context.Context, text string, suggestions []models.Suggestion, expiration time.Duration) error
}

type SearchConfig struct {
	QueryTimeout  time.Duration
	SuggestionTTL time.Duration
}

type SearchService struct {
	prompts PromptStore
	popular PopularQueryMatcher
	cache   SuggestionCache
	config  SearchConfig
	logger  *logrus.Logger
	now     func() time.Time
}

// NewSearchService wires the catalog search. popular and cache may be nil.
func NewSearchService(
	prompts PromptStore,
	popular PopularQueryMatcher,
	cache SuggestionCache,
	config SearchConfig,
	logger *logrus.Logger,
) *SearchService {
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = DefaultQueryTimeout
	}
	if config.SuggestionTTL <= 0 {
		config.SuggestionTTL = DefaultSuggestionTTL
	}
	return &SearchService{
		prompts: prompts,
		popular: popular,
		cache:   cache,
		config:  config,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used to anchor the trending window.
func (s *SearchService) WithClock(now func() time.Time) *SearchService {
	s.now = now
	return s
}

// Search runs the filter against the catalog and returns one ranked page
// plus facets. Record store failures are returned; facet failures are logged
// and yield empty lists.
func (s *SearchService) Search(ctx context.Context, f query.Filter) (*models.PromptListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	plan := query.Build(f, s.now())

	s.logger.WithFields(logrus.Fields{
		"search":   f.Search,
		"terms":    f.Terms,
		"category": f.Category,
		"tags":     f.Tags,
		"trending": f.Trending,
		"sort":     f.Sort,
		"page":     f.Page,
		"limit":    f.Limit,
	}).Debug("Executing catalog query")

	total, err := s.prompts.Count(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}

	results, err := s.prompts.FindPage(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("find prompts: %w", err)
	}
	if results == nil {
		results = []models.Prompt{}
	}

	facets := models.Facets{
		RelatedTags: s.relatedTags(ctx, plan, f.Tags),
		Suggestions: []models.Suggestion{},
	}
	if f.Searching() {
		facets.Suggestions = s.Suggest(ctx, f.Search)
	}

	return &models.PromptListResponse{
		Results:    results,
		Pagination: Paginate(f.Page, f.Limit, total),
		Facets:     facets,
	}, nil
}

// Paginate derives the pagination block for a page of a result set.
func Paginate(page, limit int, total int64) models.Pagination {
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func (s *SearchService) relatedTags(ctx context.Context, plan query.Plan, selected []string) []models.TagFrequency {
	sets, err := s.prompts.TagSets(ctx, plan.WorkingSet(FacetWorkingSet))
	if err != nil {
		s.logger.WithError(err).Warn("Related tags unavailable")
		return []models.TagFrequency{}
	}
	return RankTags(sets, selected, MaxRelatedTags)
}

// RankTags counts tag occurrences across sets and returns the limit most
// frequent, skipping excluded tags. Ties are broken by tag name.
func RankTags(sets []models.StringArray, exclude []string, limit int) []models.TagFrequency {
	skip := make(map[string]bool, len(exclude))
	for _, tag := range exclude {
		skip[tag] = true
	}

	counts := make(map[string]int)
	for _, set := range sets {
		for _, tag := range set {
			if tag == "" || skip[tag] {
				continue
			}
			counts[tag]++
		}
	}

	ranked := make([]models.TagFrequency, 0, len(counts))
	for tag, n := range counts {
		ranked = append(ranked, models.TagFrequency{Tag: tag, Frequency: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Tag < ranked[j].Tag
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Suggest returns up to MaxSuggestions completions for text drawn from
// prompt titles, categories, tags and earlier popular searches. It never
// fails: sources that error are skipped.
func (s *SearchService) Suggest(ctx context.Context, raw string) []models.Suggestion {
	text := query.NormalizeSearch(raw)
	if text == "" {
		return []models.Suggestion{}
	}

	if s.cache != nil {
		if cached, err := s.cache.GetCachedSuggestions(ctx, text); err == nil {
			return cached
		}
	}

	terms := query.SearchTerms(text)
	out := newSuggestionSet(MaxSuggestions)
	complete := true

	titles, err := s.prompts.Titles(ctx, query.TitlePlan(text, maxTitleSuggestions))
	if err != nil {
		s.logger.WithError(err).Warn("Title suggestions unavailable")
		complete = false
	}
	for _, title := range titles {
		out.add(title, models.SuggestionTitle)
	}

	for _, category := range models.Categories {
		if matchesAny(category, terms) {
			out.add(category, models.SuggestionCategory)
		}
	}

	matching := query.Plan{
		Predicates: append(query.Visible(), query.TextMatch{Fields: query.SearchFields, Terms: terms}),
	}
	sets, err := s.prompts.TagSets(ctx, matching.WorkingSet(FacetWorkingSet))
	if err != nil {
		s.logger.WithError(err).Warn("Tag suggestions unavailable")
		complete = false
	}
	for _, tf := range RankTags(sets, nil, FacetWorkingSet) {
		if matchesAny(tf.Tag, terms) {
			out.add(tf.Tag, models.SuggestionTag)
		}
	}

	if s.popular != nil {
		popular, err := s.popular.Matching(ctx, text, maxPopularSuggestions)
		if err != nil {
			s.logger.WithError(err).Warn("Popular suggestions unavailable")
			complete = false
		}
		for _, pq := range popular {
			out.add(pq.QueryText, models.SuggestionPopular)
		}
	}

	suggestions := out.items
	if s.cache != nil && complete {
		if err := s.cache.CacheSuggestions(ctx, text, suggestions, s.config.SuggestionTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache suggestions")
		}
	}
	return suggestions
}

func matchesAny(value string, terms []string) bool {
	value = strings.ToLower(value)
	for _, term := range terms {
		if strings.Contains(value, term) {
			return true
		}
	}
	return false
}

// suggestionSet keeps the first occurrence of each text, case-insensitively.
type suggestionSet struct {
	limit int
	seen  map[string]bool
	items []models.Suggestion
}

func newSuggestionSet(limit int) *suggestionSet {
	return &suggestionSet{
		limit: limit,
		seen:  make(map[string]bool),
		items: []models.Suggestion{},
	}
}

func (s *suggestionSet) add(text, kind string) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" || s.seen[key] || len(s.items) >= s.limit {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, models.Suggestion{Text: text, Type: kind})
}
