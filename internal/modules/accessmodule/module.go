package accessmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/services"
	"gorm.io/gorm"
)

func init() {
	Register()
}

const (
	ModuleID   = "system.access"
	ModuleName = "Access Gate"
)

// Module installs the access gate and serves the block-list and log
// administration routes.
type Module struct {
	db       *gorm.DB
	auth     *auth.Service
	recorder *Recorder
	gate     *Gate
	service  *Service
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) RequiredServices() []string { return []string{services.AuthService} }

// InjectServices picks up the session service
func (m *Module) InjectServices(available map[string]interface{}) error {
	authService, err := modulemanager.ServiceFrom[*auth.Service](available, services.AuthService)
	if err != nil {
		return err
	}
	m.auth = authService
	return nil
}

// Init starts the access-log recorder
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.db == nil {
		return fmt.Errorf("database connection is not available")
	}
	if m.auth == nil {
		return fmt.Errorf("auth service is not available")
	}

	cfg := config.Get().Gate
	m.recorder = NewRecorder(m.db, cfg.RecorderWorkers, cfg.RecorderQueue)
	m.gate = NewGate(m.db, m.auth.Resolver, m.recorder, func() config.GateConfig { return config.Get().Gate })
	m.service = NewService(m.db)
	return nil
}

// Middleware returns the gate
func (m *Module) Middleware() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.gate.Handler()}
}

// Shutdown flushes pending access logs
func (m *Module) Shutdown(ctx context.Context) error {
	if m.recorder == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		m.recorder.Stop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("access log flush interrupted: %w", ctx.Err())
	}
}

// HealthCheck reports the recorder backlog. A full queue means entries are
// being dropped.
func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	status := modulemanager.HealthStatus{
		Status:      modulemanager.HealthStateHealthy,
		LastChecked: time.Now(),
	}
	if m.recorder == nil {
		status.Status = modulemanager.HealthStateUnknown
		status.Message = "access module not initialized"
		return status
	}

	pending, capacity := m.recorder.Pending(), m.recorder.Capacity()
	status.Details = map[string]interface{}{
		"pending":  pending,
		"capacity": capacity,
	}
	if capacity > 0 && pending >= capacity {
		status.Status = modulemanager.HealthStateDegraded
		status.Message = "access log queue is full"
	}
	return status
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}
