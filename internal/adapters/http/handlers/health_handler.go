// Package handlers - Health check handlers.
//
// Два типа проверок:
// - Liveness: процесс жив (если нет - restart)
// - Readiness: зависимости доступны (если нет - трафик не направляется)
package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/Haleralex/gincore/internal/adapters/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pinger - зависимость, которую можно проверить (pgxpool.Pool, guard.RedisRegistry).
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// HealthHandler обрабатывает health check запросы.
type HealthHandler struct {
	pool         *pgxpool.Pool
	dependencies map[string]Pinger
	version      string
	buildTime    string
	startTime    time.Time
}

// NewHealthHandler создаёт HealthHandler. pool может быть nil.
func NewHealthHandler(pool *pgxpool.Pool, version, buildTime string) *HealthHandler {
	h := &HealthHandler{
		pool:         pool,
		dependencies: make(map[string]Pinger),
		version:      version,
		buildTime:    buildTime,
		startTime:    time.Now(),
	}
	if pool != nil {
		h.dependencies["database"] = pool
	}
	return h
}

// WithDependency добавляет зависимость в readiness проверку.
func (h *HealthHandler) WithDependency(name string, p Pinger) *HealthHandler {
	if p != nil {
		h.dependencies[name] = p
	}
	return h
}

// HealthResponse - ответ health check.
type HealthResponse struct {
	Status    string            `json:"status"` // "healthy", "unhealthy"
	Version   string            `json:"version"`
	BuildTime string            `json:"build_time"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessResponse - ответ readiness check.
type ReadinessResponse struct {
	Ready     bool              `json:"ready"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// Health возвращает базовый health статус.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    h.uptime(),
		Timestamp: time.Now().UTC(),
	})
}

// Ready пингует все зависимости; 503 если хоть одна недоступна.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks, allReady := h.check(c.Request.Context(), true)

	statusCode := http.StatusOK
	if !allReady {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Ready:     allReady,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// Live возвращает статус "живости" приложения.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// DetailedHealth - проверки зависимостей плюс статистика пула БД.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	checks, allReady := h.check(c.Request.Context(), false)

	if h.pool != nil && checks["database"] == "healthy" {
		stats := h.pool.Stat()
		checks["db_total_conns"] = strconv.Itoa(int(stats.TotalConns()))
		checks["db_idle_conns"] = strconv.Itoa(int(stats.IdleConns()))
		checks["db_acquired_conns"] = strconv.Itoa(int(stats.AcquiredConns()))

		middleware.UpdateDBConnections(stats.IdleConns(), stats.AcquiredConns(), stats.MaxConns())
	}

	status := "healthy"
	if !allReady {
		status = "unhealthy"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    h.uptime(),
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

// check пингует зависимости по очереди (в порядке имён).
// verbose добавляет текст ошибки к "unhealthy".
func (h *HealthHandler) check(ctx context.Context, verbose bool) (map[string]string, bool) {
	checks := make(map[string]string, len(h.dependencies)+1)
	if h.pool == nil {
		checks["database"] = "not configured"
	}

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	allReady := true
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := h.dependencies[name].Ping(pingCtx)
		cancel()

		switch {
		case err == nil:
			checks[name] = "healthy"
		case verbose:
			checks[name] = "unhealthy: " + err.Error()
			allReady = false
		default:
			checks[name] = "unhealthy"
			allReady = false
		}
	}
	return checks, allReady
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

// RegisterRoutes регистрирует health check маршруты.
//
// Routes:
// - GET /health          - Basic health check
// - GET /health/detailed - Detailed health with metrics
// - GET /ready           - Readiness probe
// - GET /live            - Liveness probe
func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
	router.GET("/health/detailed", h.DetailedHealth)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
}
