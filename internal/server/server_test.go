package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database/dbtest"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type healthModule struct {
	state modulemanager.HealthState
}

func (m *healthModule) ID() string                 { return "test.health" }
func (m *healthModule) Name() string               { return "Health Probe" }
func (m *healthModule) Core() bool                 { return false }
func (m *healthModule) Migrate(db *gorm.DB) error  { return nil }
func (m *healthModule) Init() error                { return nil }
func (m *healthModule) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	return modulemanager.HealthStatus{Status: m.state}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Security.RateLimitEnabled = false
	return cfg
}

func newRouter(t *testing.T, db *gorm.DB, modules ...modulemanager.Module) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apiroutes.ClearForTesting()
	t.Cleanup(apiroutes.ClearForTesting)

	registry := modulemanager.NewRegistry()
	for _, m := range modules {
		registry.Register(m)
	}
	return SetupRouter(testConfig(), db, registry)
}

type healthBody struct {
	Status   string `json:"status"`
	Database struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"database"`
	Modules map[string]modulemanager.HealthStatus `json:"modules"`
}

func TestHealthReportsDatabaseAndModules(t *testing.T) {
	r := newRouter(t, dbtest.New(t))

	w := testutil.Request(t, r, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := testutil.Decode[healthBody](t, w)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "connected", body.Database.Status)
	assert.Empty(t, body.Modules)
}

func TestHealthDegradedModuleKeepsOK(t *testing.T) {
	r := newRouter(t, dbtest.New(t), &healthModule{state: modulemanager.HealthStateDegraded})

	w := testutil.Request(t, r, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := testutil.Decode[healthBody](t, w)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, modulemanager.HealthStateDegraded, body.Modules["test.health"].Status)
}

func TestHealthUnhealthyModuleReturns503(t *testing.T) {
	r := newRouter(t, dbtest.New(t), &healthModule{state: modulemanager.HealthStateUnhealthy})

	w := testutil.Request(t, r, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", testutil.Decode[healthBody](t, w).Status)
}

func TestHealthClosedDatabaseReturns503(t *testing.T) {
	db := dbtest.New(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	r := newRouter(t, db)
	w := testutil.Request(t, r, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	body := testutil.Decode[healthBody](t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "database ping failed", body.Database.Error)
}

func TestDiscoveryListsCoreRoutes(t *testing.T) {
	r := newRouter(t, dbtest.New(t))

	w := testutil.Request(t, r, http.MethodGet, "/api", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := testutil.Decode[struct {
		Routes []apiroutes.APIRoute `json:"routes"`
		Count  int                  `json:"count"`
	}](t, w)
	paths := make([]string, 0, len(body.Routes))
	for _, route := range body.Routes {
		paths = append(paths, route.Path)
	}
	assert.Equal(t, len(body.Routes), body.Count)
	assert.Contains(t, paths, "/api/health")
	assert.Contains(t, paths, "/api/links")
	assert.Contains(t, paths, "/metrics")
}

func TestLinksReadLiveConfig(t *testing.T) {
	cm := config.GetConfigManager()
	original := cm.GetConfig().Links
	t.Cleanup(func() { cm.Update(func(c *config.Config) { c.Links = original }) })

	r := newRouter(t, dbtest.New(t))
	cm.Update(func(c *config.Config) { c.Links.Repository = "https://git.example.com/catalog" })

	w := testutil.Request(t, r, http.MethodGet, "/api/links", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://git.example.com/catalog", testutil.Decode[config.LinksConfig](t, w).Repository)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t, dbtest.New(t))

	testutil.Request(t, r, http.MethodGet, "/api/health", nil, "")
	w := testutil.Request(t, r, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mediacatalog_http_requests_total")
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	r := newRouter(t, dbtest.New(t))

	w := testutil.Request(t, r, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", testutil.ErrorCode(t, w))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
