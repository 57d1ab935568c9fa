package modulemanager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/services"
	"gorm.io/gorm"
)

// Module defines the interface that all modules must implement
type Module interface {
	ID() string                // Unique identifier for the module
	Name() string              // Display name for the module
	Core() bool                // Whether this is a core module (cannot be disabled)
	Migrate(db *gorm.DB) error // Run database migrations
	Init() error               // Initialize the module
}

// RouteRegistrar is an optional interface for modules that need to register routes
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// MiddlewareProvider is an optional interface for modules that install
// global middleware. Middleware is installed in initialization order,
// before any routes are registered.
type MiddlewareProvider interface {
	Middleware() []gin.HandlerFunc
}

// ModuleRegistry manages module registration and initialization
type ModuleRegistry struct {
	modules         map[string]Module
	disabledModules map[string]bool
	order           []Module
	mu              sync.RWMutex
	initialized     bool
}

// NewRegistry returns an empty registry
func NewRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		modules:         make(map[string]Module),
		disabledModules: make(map[string]bool),
	}
}

// Registry is the global module registry
var Registry = NewRegistry()

// Register adds a module to the registry
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module registered after initialization", "module", m.ID())
	}

	r.modules[m.ID()] = m
	logger.Debug("module registered", "module", m.ID(), "name", m.Name())
}

// LoadAll initializes all registered modules
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes all enabled modules in dependency order
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module system already initialized")
		return nil
	}

	enabledModules := make(map[string]Module)
	for id, module := range r.modules {
		if r.disabledModules[id] {
			if module.Core() {
				return fmt.Errorf("attempted to disable core module: %s", id)
			}
			logger.Warn("skipping disabled module", "module", id)
			continue
		}
		enabledModules[id] = module
	}

	logger.Info("loading modules", "count", len(enabledModules))

	depGraph, err := BuildDependencyGraph(enabledModules)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	depGraph.PrintDependencyInfo()

	for _, err := range depGraph.ValidateServiceRequirements() {
		logger.Warn("service requirement warning", "error", err)
	}

	initOrder, err := depGraph.GetInitializationOrder()
	if err != nil {
		return fmt.Errorf("failed to determine initialization order: %w", err)
	}

	// Migrations run before any Init so that exported services never see
	// a missing table.
	for _, module := range initOrder {
		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}
	}

	for i, module := range initOrder {
		logger.Debug("initializing module", "module", module.ID(), "position", i+1, "total", len(initOrder))

		if injector, ok := module.(ServiceInjector); ok {
			if err := injector.InjectServices(gatherAvailableServices()); err != nil {
				return fmt.Errorf("failed to inject services for %s: %w", module.Name(), err)
			}
		}

		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}

		// Services become visible to modules initialized later
		if registrar, ok := module.(ServiceRegistrar); ok {
			if err := registrar.RegisterServices(); err != nil {
				return fmt.Errorf("failed to register services for %s: %w", module.Name(), err)
			}
		}

		logger.Info("module loaded", "module", module.ID())
	}

	r.order = initOrder
	r.initialized = true
	return nil
}

// DisableModule marks a module as disabled
func DisableModule(id string) {
	Registry.DisableModule(id)
}

// DisableModule marks a module as disabled
func (r *ModuleRegistry) DisableModule(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	module, exists := r.modules[id]
	if !exists {
		logger.Warn("attempted to disable non-existent module", "module", id)
		return
	}

	if module.Core() {
		logger.Error("cannot disable core module", "module", id)
		return
	}

	r.disabledModules[id] = true
	logger.Info("module disabled", "module", id)
}

// GetModule returns a module by ID
func GetModule(id string) (Module, bool) {
	return Registry.GetModule(id)
}

// GetModule returns a module by ID
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, exists := r.modules[id]
	return module, exists
}

// ListModules returns loaded modules in initialization order, or every
// registered module before LoadAll
func ListModules() []Module {
	return Registry.ListModules()
}

// ListModules returns loaded modules in initialization order
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.initialized {
		return append([]Module(nil), r.order...)
	}
	modules := make([]Module, 0, len(r.modules))
	for _, module := range r.modules {
		modules = append(modules, module)
	}
	return modules
}

// InstallMiddleware adds module middleware to the router
func InstallMiddleware(router *gin.Engine) {
	Registry.InstallMiddleware(router)
}

// InstallMiddleware adds the middleware of every MiddlewareProvider
func (r *ModuleRegistry) InstallMiddleware(router *gin.Engine) {
	for _, module := range r.ListModules() {
		if provider, ok := module.(MiddlewareProvider); ok {
			handlers := provider.Middleware()
			if len(handlers) == 0 {
				continue
			}
			logger.Debug("installing module middleware", "module", module.ID(), "count", len(handlers))
			router.Use(handlers...)
		}
	}
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	for _, module := range r.ListModules() {
		if routeRegistrar, ok := module.(RouteRegistrar); ok {
			logger.Debug("registering module routes", "module", module.ID())
			routeRegistrar.RegisterRoutes(router)
		}
	}
}

// HealthCheck collects the health of every HealthChecker module
func HealthCheck(ctx context.Context) map[string]HealthStatus {
	return Registry.HealthCheck(ctx)
}

// HealthCheck collects the health of every HealthChecker module
func (r *ModuleRegistry) HealthCheck(ctx context.Context) map[string]HealthStatus {
	report := make(map[string]HealthStatus)
	for _, module := range r.ListModules() {
		if checker, ok := module.(HealthChecker); ok {
			report[module.ID()] = checker.HealthCheck(ctx)
		}
	}
	return report
}

// Shutdown stops modules in reverse initialization order
func Shutdown(ctx context.Context) error {
	return Registry.Shutdown(ctx)
}

// Shutdown stops modules in reverse initialization order
func (r *ModuleRegistry) Shutdown(ctx context.Context) error {
	modules := r.ListModules()
	var errs []error
	for i := len(modules) - 1; i >= 0; i-- {
		if s, ok := modules[i].(Shutdowner); ok {
			if err := s.Shutdown(ctx); err != nil {
				logger.Error("module shutdown failed", "module", modules[i].ID(), "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", modules[i].ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// gatherAvailableServices collects all registered services
func gatherAvailableServices() map[string]interface{} {
	serviceMap := make(map[string]interface{})

	for _, name := range services.List() {
		if service, err := services.Get(name); err == nil {
			serviceMap[name] = service
		}
	}

	return serviceMap
}
