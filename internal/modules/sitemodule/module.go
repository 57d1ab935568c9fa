// Package sitemodule serves recommended sites, user site suggestions and
// embeddable videos, including the channel feed importer.
package sitemodule

import (
	"context"
	"fmt"
	"time"

	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/services"
	"github.com/sony/gobreaker/v2"
	"gorm.io/gorm"
)

func init() {
	Register()
}

const (
	ModuleID   = "catalog.sites"
	ModuleName = "Sites and Embeds"
)

type Module struct {
	db      *gorm.DB
	tx      *databasemodule.TransactionManager
	auth    *auth.Service
	feed    *FeedClient
	service *Service
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return false }

func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) RequiredServices() []string {
	return []string{services.AuthService, services.TransactionService}
}

func (m *Module) InjectServices(available map[string]interface{}) error {
	authService, err := modulemanager.ServiceFrom[*auth.Service](available, services.AuthService)
	if err != nil {
		return err
	}
	tx, err := modulemanager.ServiceFrom[*databasemodule.TransactionManager](available, services.TransactionService)
	if err != nil {
		return err
	}
	m.auth = authService
	m.tx = tx
	return nil
}

func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.db == nil {
		return fmt.Errorf("database connection is not available")
	}
	if m.auth == nil || m.tx == nil {
		return fmt.Errorf("site module requires the auth and transaction services")
	}
	m.feed = NewFeedClient(config.Get().Import)
	m.service = NewService(m.db, m.tx, m.feed)
	return nil
}

// HealthCheck reports the channel importer as degraded while its breaker
// is open
func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	status := modulemanager.HealthStatus{
		Status:      modulemanager.HealthStateHealthy,
		LastChecked: time.Now(),
	}
	if m.feed == nil {
		status.Status = modulemanager.HealthStateUnknown
		status.Message = "site module not initialized"
		return status
	}
	state := m.feed.breaker.State()
	status.Details = map[string]interface{}{"importer": state.String()}
	if state == gobreaker.StateOpen {
		status.Status = modulemanager.HealthStateDegraded
		status.Message = "channel feed circuit is open"
	}
	return status
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}
