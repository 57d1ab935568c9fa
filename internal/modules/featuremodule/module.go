// Package featuremodule collects feature requests and bug reports from
// users, lets them vote, and lets admins move requests through their
// lifecycle.
package featuremodule

import (
	"fmt"

	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/services"
	"gorm.io/gorm"
)

func init() {
	Register()
}

const (
	ModuleID   = "feedback.features"
	ModuleName = "Feature Requests"
)

type Module struct {
	db      *gorm.DB
	tx      *databasemodule.TransactionManager
	auth    *auth.Service
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
		return fmt.Errorf("feature module requires the auth and transaction services")
	}
	m.service = NewService(m.db, m.tx)
	return nil
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}
