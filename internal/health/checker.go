package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prompthero/backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	ServicePostgres = "postgresql"
	ServiceRedis    = "redis"
)

// Pinger is one dependency probe. Optional probes degrade rather than fail
// the overall status.
type Pinger struct {
	Name     string
	Ping     func(ctx context.Context) error
	Optional bool
}

// HealthStore persists check results.
type HealthStore interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetAllServicesHealth() ([]models.SystemHealth, error)
}

// HealthCache holds the last periodic result.
type HealthCache interface {
	CacheSystemHealth(ctx context.Context, health []models.SystemHealth, expiration time.Duration) error
	GetCachedSystemHealth(ctx context.Context) ([]models.SystemHealth, error)
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	pingers    []Pinger
	healthRepo HealthStore
	cache      HealthCache
	logger     *logrus.Logger
	timeout    time.Duration
	startTime  time.Time
}

// NewHealthChecker probes pingers in order. cache may be nil.
func NewHealthChecker(pingers []Pinger, healthRepo HealthStore, cache HealthCache, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		pingers:    pingers,
		healthRepo: healthRepo,
		cache:      cache,
		logger:     logger,
		timeout:    5 * time.Second,
		startTime:  time.Now(),
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (h *HealthChecker) check(ctx context.Context, p Pinger) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = StatusUnhealthy
		if p.Optional {
			status = StatusDegraded
		}
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", p.Name).Error("Health check failed")
	}

	if h.healthRepo != nil {
		if err := h.healthRepo.UpdateServiceHealth(p.Name, status, responseTime, errorMsg); err != nil {
			h.logger.WithError(err).WithField("service", p.Name).Warn("Failed to record health status")
		}
	}

	return ServiceHealth{
		Name:         p.Name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().UTC().Format(time.RFC3339),
	}
}

// CheckAll performs health checks on all services
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := make([]ServiceHealth, 0, len(h.pingers))
	for _, p := range h.pingers {
		services = append(services, h.check(ctx, p))
	}

	return OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.getUptime(),
	}
}

func overallStatus(services []ServiceHealth) string {
	status := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if service.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}

// CheckCached returns cached health status if available
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	cachedHealth, err := h.cache.GetCachedSystemHealth(ctx)
	if err != nil {
		return nil, err
	}

	return &OverallHealth{
		Status:   overallStatus(fromModels(cachedHealth)),
		Services: fromModels(cachedHealth),
		Uptime:   h.getUptime(),
	}, nil
}

func fromModels(records []models.SystemHealth) []ServiceHealth {
	services := make([]ServiceHealth, len(records))
	for i, health := range records {
		services[i] = ServiceHealth{
			Name:         health.ServiceName,
			Status:       health.Status,
			ResponseTime: health.ResponseTimeMs,
			Error:        health.ErrorMessage,
			LastChecked:  health.CheckedAt.UTC().Format(time.RFC3339),
		}
	}
	return services
}

func toModels(services []ServiceHealth) []models.SystemHealth {
	records := make([]models.SystemHealth, len(services))
	for i, service := range services {
		checkedAt, _ := time.Parse(time.RFC3339, service.LastChecked)
		records[i] = models.SystemHealth{
			ServiceName:    service.Name,
			Status:         service.Status,
			ResponseTimeMs: service.ResponseTime,
			ErrorMessage:   service.Error,
			CheckedAt:      checkedAt,
		}
	}
	return records
}

func (h *HealthChecker) getUptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

// RunOnce checks every service and caches the result for ttl.
func (h *HealthChecker) RunOnce(ctx context.Context, ttl time.Duration) OverallHealth {
	health := h.CheckAll(ctx)

	if h.cache != nil {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.cache.CacheSystemHealth(cacheCtx, toModels(health.Services), ttl); err != nil {
			h.logger.WithError(err).Error("Failed to cache health status")
		}
	}

	h.logger.WithField("status", health.Status).Debug("Health check completed")
	return health
}

// PeriodicHealthCheck runs health checks periodically
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.RunOnce(ctx, 2*interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.RunOnce(ctx, 2*interval)
		}
	}
}

// Handle serves GET /health. It prefers the cached periodic result and falls
// back to a live check. An unhealthy system answers 503.
func (h *HealthChecker) Handle(c *gin.Context) {
	var health OverallHealth
	if cached, err := h.cachedOrNil(c.Request.Context()); cached != nil && err == nil {
		health = *cached
	} else {
		health = h.CheckAll(c.Request.Context())
	}

	code := http.StatusOK
	if health.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

// HandleServices serves GET /health/services: the latest stored result per
// service.
func (h *HealthChecker) HandleServices(c *gin.Context) {
	records, err := h.healthRepo.GetAllServicesHealth()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load service health")
		c.JSON(http.StatusInternalServerError, gin.H{"status": StatusUnhealthy})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   overallStatus(fromModels(records)),
		"services": fromModels(records),
	})
}

func (h *HealthChecker) cachedOrNil(ctx context.Context) (*OverallHealth, error) {
	if h.cache == nil {
		return nil, nil
	}
	return h.CheckCached(ctx)
}
