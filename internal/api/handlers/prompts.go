package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prompthero/backend/internal/models"
	"github.com/prompthero/backend/internal/query"
	"github.com/prompthero/backend/internal/services"
	"github.com/prompthero/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// PopularQueries serves the most searched queries.
type PopularQueries interface {
	GetTop(ctx context.Context, limit int) ([]models.PopularQuery, error)
}

// CatalogCache is the optional redis cache behind the catalog endpoints.
type CatalogCache interface {
	GetCachedPopularQueries(ctx context.Context) ([]models.PopularQuery, error)
	CachePopularQueries(ctx context.Context, queries []models.PopularQuery, expiration time.Duration) error
	InvalidateSuggestions(ctx context.Context) error
}

const (
	defaultPopularLimit = 5
	maxPopularLimit     = 10
	popularCacheTTL     = time.Minute
)

type PromptHandler struct {
	searchService *services.SearchService
	promptService *services.PromptService
	popular       PopularQueries
	cache         CatalogCache
	logger        *logrus.Logger
	track         func(services.SearchEvent)
}

// NewPromptHandler wires the catalog endpoints. tracker and cache may be nil.
func NewPromptHandler(
	searchService *services.SearchService,
	promptService *services.PromptService,
	tracker *services.QueryTracker,
	popular PopularQueries,
	cache CatalogCache,
	logger *logrus.Logger,
) *PromptHandler {
	h := &PromptHandler{
		searchService: searchService,
		promptService: promptService,
		popular:       popular,
		cache:         cache,
		logger:        logger,
		track:         func(services.SearchEvent) {},
	}
	if tracker != nil {
		h.track = func(ev services.SearchEvent) { go tracker.Track(ev) }
	}
	return h
}

// Register mounts the catalog routes on r.
func (h *PromptHandler) Register(r gin.IRouter) {
	prompts := r.Group("/prompts")
	prompts.GET("", h.ListPrompts)
	prompts.GET("/search", h.SearchPrompts)
	prompts.GET("/:id", h.GetPrompt)
	prompts.POST("", h.CreatePrompt)
	prompts.POST("/:id/rate", h.RatePrompt)
	prompts.POST("/:id/use", h.UsePrompt)

	search := r.Group("/search")
	search.GET("/suggestions", h.HandleSearchSuggestions)
	search.GET("/popular", h.HandlePopularQueries)
}

// ListPrompts returns one page of the filtered catalog.
func (h *PromptHandler) ListPrompts(c *gin.Context) {
	h.runQuery(c, "list")
}

// SearchPrompts serves the same pipeline under the search path.
func (h *PromptHandler) SearchPrompts(c *gin.Context) {
	h.runQuery(c, "search")
}

func (h *PromptHandler) runQuery(c *gin.Context, kind string) {
	startTime := time.Now()

	var req query.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		catalogQueriesTotal.WithLabelValues(kind, "invalid").Inc()
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	filter := query.Normalize(req)

	resp, err := h.searchService.Search(c.Request.Context(), filter)
	if err != nil {
		catalogQueriesTotal.WithLabelValues(kind, "error").Inc()
		h.logger.WithError(err).WithField("kind", kind).Error("Catalog query failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	responseTime := time.Since(startTime)
	catalogQueriesTotal.WithLabelValues(kind, "ok").Inc()
	catalogQueryDuration.WithLabelValues(kind).Observe(responseTime.Seconds())
	catalogResultsReturned.Observe(float64(resp.Pagination.Total))

	if filter.Search != "" {
		h.track(services.SearchEvent{
			Search:       filter.Search,
			Category:     filter.Category,
			Tags:         filter.Tags,
			UserSession:  h.getUserSession(c),
			UserAgent:    c.GetHeader("User-Agent"),
			IPAddress:    c.ClientIP(),
			ResultsCount: resp.Pagination.Total,
			ResponseTime: responseTime,
			At:           time.Now().UTC(),
		})
	}

	h.logger.WithFields(logrus.Fields{
		"kind":          kind,
		"results_count": len(resp.Results),
		"total":         resp.Pagination.Total,
		"response_time": responseTime.Milliseconds(),
	}).Debug("Catalog query completed")

	utils.SuccessResponse(c, http.StatusOK, "Prompts retrieved", resp)
}

func (h *PromptHandler) GetPrompt(c *gin.Context) {
	prompt, err := h.promptService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "get")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Prompt retrieved", prompt)
}

func (h *PromptHandler) CreatePrompt(c *gin.Context) {
	var req models.CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		promptOperationsTotal.WithLabelValues("create", "invalid").Inc()
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	prompt, err := h.promptService.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "create")
		return
	}
	promptOperationsTotal.WithLabelValues("create", "ok").Inc()

	if h.cache != nil {
		if err := h.cache.InvalidateSuggestions(c.Request.Context()); err != nil {
			h.logger.WithError(err).Warn("Failed to invalidate suggestion cache")
		}
	}

	utils.SuccessResponse(c, http.StatusCreated, "Prompt created", prompt)
}

func (h *PromptHandler) RatePrompt(c *gin.Context) {
	var req models.RatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		promptOperationsTotal.WithLabelValues("rate", "invalid").Inc()
		utils.ErrorResponse(c, http.StatusBadRequest, "Rating must be an integer from 1 to 5", err)
		return
	}

	prompt, err := h.promptService.Rate(c.Request.Context(), c.Param("id"), req.Rating)
	if err != nil {
		h.writeError(c, err, "rate")
		return
	}
	promptOperationsTotal.WithLabelValues("rate", "ok").Inc()
	utils.SuccessResponse(c, http.StatusOK, "Rating recorded", prompt)
}

func (h *PromptHandler) UsePrompt(c *gin.Context) {
	prompt, err := h.promptService.Use(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "use")
		return
	}
	promptOperationsTotal.WithLabelValues("use", "ok").Inc()
	utils.SuccessResponse(c, http.StatusOK, "Usage recorded", prompt)
}

// HandleSearchSuggestions returns search suggestions
func (h *PromptHandler) HandleSearchSuggestions(c *gin.Context) {
	text := c.Query("q")
	if query.NormalizeSearch(text) == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'q' is required", nil)
		return
	}

	suggestions := h.searchService.Suggest(c.Request.Context(), text)
	utils.SuccessResponse(c, http.StatusOK, "Suggestions retrieved", suggestions)
}

// HandlePopularQueries returns the most searched queries, served from cache
// when possible.
func (h *PromptHandler) HandlePopularQueries(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPopularLimit)))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Parameter 'limit' must be a number", nil)
		return
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPopularLimit {
		limit = maxPopularLimit
	}

	ctx := c.Request.Context()
	if h.cache != nil {
		if cached, err := h.cache.GetCachedPopularQueries(ctx); err == nil && len(cached) >= limit {
			utils.SuccessResponse(c, http.StatusOK, "Popular queries retrieved", cached[:limit])
			return
		}
	}

	top, err := h.popular.GetTop(ctx, maxPopularLimit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get popular queries")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	if top == nil {
		top = []models.PopularQuery{}
	}

	if h.cache != nil {
		if err := h.cache.CachePopularQueries(ctx, top, popularCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache popular queries")
		}
	}

	if len(top) > limit {
		top = top[:limit]
	}
	utils.SuccessResponse(c, http.StatusOK, "Popular queries retrieved", top)
}

func (h *PromptHandler) writeError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrPromptNotFound):
		promptOperationsTotal.WithLabelValues(operation, "not_found").Inc()
		utils.ErrorResponse(c, http.StatusNotFound, "Prompt not found", nil)
	case errors.Is(err, services.ErrInvalidPrompt), errors.Is(err, services.ErrInvalidRating):
		promptOperationsTotal.WithLabelValues(operation, "invalid").Inc()
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid prompt", err)
	default:
		promptOperationsTotal.WithLabelValues(operation, "error").Inc()
		h.logger.WithError(err).WithField("operation", operation).Error("Prompt operation failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func (h *PromptHandler) getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); utils.ValidateSessionID(session) {
		return session
	}
	return utils.GenerateSessionID(c.ClientIP() + c.GetHeader("User-Agent"))
}
