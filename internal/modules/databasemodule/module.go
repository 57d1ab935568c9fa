package databasemodule

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/services"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the database module
	ModuleID = "system.database"

	// ModuleName is the display name for the database module
	ModuleName = "Database Manager"
)

// Module owns the schema and hands out the transaction manager
type Module struct {
	db             *gorm.DB
	transactionMgr *TransactionManager
	mu             sync.RWMutex
	initialized    bool
}

// NewModule creates a new database module
func NewModule(db *gorm.DB) *Module {
	return &Module{db: db}
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate creates or updates every catalog table
func (m *Module) Migrate(db *gorm.DB) error {
	logger.Info("migrating database schema", "models", len(database.AllModels()))
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Init initializes the database module
func (m *Module) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if m.db == nil {
		m.db = database.GetDB()
		if m.db == nil {
			return fmt.Errorf("database connection is not available")
		}
	}

	m.transactionMgr = NewTransactionManager(m.db)
	m.initialized = true
	return nil
}

func (m *Module) ProvidedServices() []string { return []string{services.TransactionService} }

// RegisterServices exports the transaction manager
func (m *Module) RegisterServices() error {
	services.RegisterService(services.TransactionService, m.GetTransactionManager())
	return nil
}

// GetTransactionManager returns the transaction manager
func (m *Module) GetTransactionManager() *TransactionManager {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transactionMgr
}

// HealthCheck pings the database
func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	status := modulemanager.HealthStatus{
		Status:      modulemanager.HealthStateHealthy,
		LastChecked: time.Now(),
	}

	m.mu.RLock()
	db := m.db
	tm := m.transactionMgr
	m.mu.RUnlock()

	if db == nil {
		status.Status = modulemanager.HealthStateUnknown
		status.Message = "database module not initialized"
		return status
	}

	sqlDB, err := db.DB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		status.Status = modulemanager.HealthStateUnhealthy
		status.Message = err.Error()
		return status
	}

	if tm != nil {
		status.Details = tm.GetStats()
	}
	return status
}

// RegisterRoutes exposes pool statistics to administrators. The auth
// service is looked up here because the user module depends on this one.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	authService, err := services.GetService[*auth.Service](services.AuthService)
	if err != nil {
		logger.Warn("database stats route disabled", "error", err)
		return
	}

	router.GET("/api/admin/database", authService.Guard.Require(database.RoleAdmin), m.getStats)
	apiroutes.RegisterWithAccess("/api/admin/database", "GET", "Reports database health and pool statistics.", "ADMIN")
}

func (m *Module) getStats(c *gin.Context) {
	health := m.HealthCheck(c.Request.Context())
	if health.Status != modulemanager.HealthStateHealthy {
		api.RespondWithError(c, types.NewUnavailableError("database unavailable", health.Message))
		return
	}
	c.JSON(http.StatusOK, health)
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}
