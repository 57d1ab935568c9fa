package usermodule

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/services"
	"gorm.io/gorm"
)

func init() {
	Register()
}

const (
	ModuleID   = "system.users"
	ModuleName = "Users and Sessions"
)

// Module owns user accounts, sign-in and the session service
type Module struct {
	db      *gorm.DB
	tx      *databasemodule.TransactionManager
	auth    *auth.Service
	service *Service
}

// NewModule creates a user module over db. Tests call Init directly.
func NewModule(db *gorm.DB) *Module {
	return &Module{db: db}
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate is a no-op; the database module owns the schema
func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) ProvidedServices() []string { return []string{services.AuthService} }
func (m *Module) RequiredServices() []string { return []string{services.TransactionService} }

// InjectServices picks up the transaction manager
func (m *Module) InjectServices(available map[string]interface{}) error {
	tx, err := modulemanager.ServiceFrom[*databasemodule.TransactionManager](available, services.TransactionService)
	if err != nil {
		return err
	}
	m.tx = tx
	return nil
}

// Init builds the session service from the auth configuration
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.db == nil {
		return fmt.Errorf("database connection is not available")
	}
	if m.tx == nil {
		m.tx = databasemodule.NewTransactionManager(m.db)
	}

	cfg := config.Get().Auth
	secret := cfg.JWTSecret
	if secret == "" {
		var err error
		if secret, err = randomSecret(); err != nil {
			return err
		}
		logger.Warn("no jwt secret configured, sessions will not survive a restart")
	}

	jwtManager, err := auth.NewJWTManager(secret, cfg.SessionTimeout)
	if err != nil {
		return fmt.Errorf("failed to create jwt manager: %w", err)
	}

	m.auth = auth.NewService(m.db, jwtManager, cfg.CookieName, cfg.SecureCookie)
	m.service = NewService(m.db, m.tx)
	return nil
}

// RegisterServices exports the session service
func (m *Module) RegisterServices() error {
	services.RegisterService(services.AuthService, m.auth)
	return nil
}

// Auth returns the session service
func (m *Module) Auth() *auth.Service {
	return m.auth
}

// Service returns the account service
func (m *Module) Service() *Service {
	return m.service
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}
