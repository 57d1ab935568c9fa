package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

// setupCoreRoutes registers discovery, health, metrics and links
func setupCoreRoutes(r *gin.Engine, db *gorm.DB, registry *modulemanager.ModuleRegistry) {
	api := r.Group("/api")
	{
		api.GET("", handleDiscovery)
		apiroutes.Register("/api", "GET", "Lists all available API endpoints.")

		h := &healthHandler{db: db, registry: registry}
		api.GET("/health", h.health)
		apiroutes.Register("/api/health", "GET", "Service health with database pool, module and host memory status.")

		api.GET("/links", handleLinks)
		apiroutes.Register("/api/links", "GET", "External project links shown by the UI.")
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	apiroutes.Register("/metrics", "GET", "Prometheus metrics.")
}

func handleDiscovery(c *gin.Context) {
	routes := apiroutes.Get()
	c.JSON(http.StatusOK, gin.H{
		"routes": routes,
		"count":  len(routes),
	})
}

// handleLinks reads the live config so edits apply without a restart
func handleLinks(c *gin.Context) {
	c.JSON(http.StatusOK, config.Get().Links)
}

type healthHandler struct {
	db       *gorm.DB
	registry *modulemanager.ModuleRegistry
}

type databaseHealth struct {
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
	OpenConnections int     `json:"openConnections"`
	MaxConnections  int     `json:"maxConnections"`
	InUse           int     `json:"inUse"`
	Idle            int     `json:"idle"`
	WaitCount       int64   `json:"waitCount"`
	Utilization     float64 `json:"utilizationPercent"`
}

type systemHealth struct {
	MemoryTotal       uint64  `json:"memoryTotal"`
	MemoryAvailable   uint64  `json:"memoryAvailable"`
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
}

// health answers 503 when the database is unreachable or a module reports
// itself unhealthy. Degraded modules and a missing host reading keep 200.
func (h *healthHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK

	dbHealth := h.database(ctx)
	if dbHealth.Status != "connected" {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	modules := h.registry.HealthCheck(ctx)
	for _, m := range modules {
		switch m.Status {
		case modulemanager.HealthStateUnhealthy:
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		case modulemanager.HealthStateDegraded:
			if status == "ok" {
				status = "degraded"
			}
		}
	}

	response := gin.H{
		"status":   status,
		"service":  "mediacatalog",
		"uptime":   time.Since(startedAt).Round(time.Second).String(),
		"database": dbHealth,
		"modules":  modules,
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		response["system"] = systemHealth{
			MemoryTotal:       vm.Total,
			MemoryAvailable:   vm.Available,
			MemoryUsedPercent: vm.UsedPercent,
		}
	}

	c.JSON(code, response)
}

func (h *healthHandler) database(ctx context.Context) databaseHealth {
	if h.db == nil {
		return databaseHealth{Status: "error", Error: "database not initialized"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return databaseHealth{Status: "error", Error: "failed to get database instance"}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return databaseHealth{Status: "error", Error: "database ping failed"}
	}

	stats := sqlDB.Stats()
	result := databaseHealth{
		Status:          "connected",
		OpenConnections: stats.OpenConnections,
		MaxConnections:  stats.MaxOpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
	}
	if stats.MaxOpenConnections > 0 {
		result.Utilization = float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100
	}
	return result
}
