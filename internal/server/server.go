// Package server assembles the HTTP router and runs the process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/middleware"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	// Import all modules to trigger their registration
	_ "github.com/mantonx/mediacatalog/internal/modules/accessmodule"
	_ "github.com/mantonx/mediacatalog/internal/modules/catalogmodule"
	_ "github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	_ "github.com/mantonx/mediacatalog/internal/modules/featuremodule"
	_ "github.com/mantonx/mediacatalog/internal/modules/lookupmodule"
	_ "github.com/mantonx/mediacatalog/internal/modules/sitemodule"
	_ "github.com/mantonx/mediacatalog/internal/modules/uploadmodule"
	_ "github.com/mantonx/mediacatalog/internal/modules/usermodule"
)

// quietPaths are served without request logging
var quietPaths = []string{"/api/health", "/metrics"}

// InitializeModules migrates and initializes every registered module
func InitializeModules(db *gorm.DB, registry *modulemanager.ModuleRegistry) error {
	if err := registry.LoadAll(db); err != nil {
		return err
	}
	logModuleStatus(registry)
	return nil
}

// SetupRouter configures and returns the main router. Modules must be
// loaded before the router is built so their middleware and routes are
// picked up.
func SetupRouter(cfg *config.Config, db *gorm.DB, registry *modulemanager.ModuleRegistry) *gin.Engine {
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		api.ErrorMiddleware(),
		middleware.RequestID(),
		metrics.Middleware(),
		middleware.RequestLogger(quietPaths...),
	)

	if cfg.Server.EnableCORS {
		r.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.RateLimitEnabled {
		r.Use(middleware.NewRateLimiter(cfg.Security.RateLimitRPM).Middleware())
	}

	registry.InstallMiddleware(r)

	setupCoreRoutes(r, db, registry)
	registry.RegisterRoutes(r)

	r.NoRoute(func(c *gin.Context) {
		api.RespondWithNotFound(c, "route", c.Request.URL.Path)
	})

	return r
}

// Run serves router until ctx is cancelled, then drains in-flight requests
// and shuts modules down. The config file is watched for the lifetime of
// the server.
func Run(ctx context.Context, cfg *config.Config, router http.Handler, registry *modulemanager.ModuleRegistry) error {
	srv := &http.Server{
		Addr:           net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       logger.Standard(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return config.Watch(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := registry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// logModuleStatus logs the loaded modules
func logModuleStatus(registry *modulemanager.ModuleRegistry) {
	log := logger.Named("modules")
	modules := registry.ListModules()

	log.Info("module system initialized", "count", len(modules))
	for i, module := range modules {
		log.Info("module",
			"position", i+1,
			"name", truncate(module.Name(), 24),
			"id", module.ID(),
			"core", module.Core())
	}
}

// truncate shortens a string to the given length, adding ... if needed
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// startedAt feeds the uptime reported by the health endpoint
var startedAt = time.Now()
