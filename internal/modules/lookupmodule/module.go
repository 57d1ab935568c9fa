// Package lookupmodule manages the named entities series link to: actors,
// directors, tags, genres, countries, languages, production companies and
// universes. Actors, directors and tags can be merged.
package lookupmodule

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
	ModuleID   = "catalog.lookups"
	ModuleName = "Catalog Lookups"
)

// Stores groups one store per lookup kind
type Stores struct {
	Actors              *Store[database.Actor]
	Directors           *Store[database.Director]
	Tags                *Store[database.Tag]
	Genres              *Store[database.Genre]
	Countries           *Store[database.Country]
	Languages           *Store[database.Language]
	ProductionCompanies *Store[database.ProductionCompany]
	Universes           *Store[database.Universe]
}

// NewStores builds every lookup store over db
func NewStores(db *gorm.DB, tx *databasemodule.TransactionManager) *Stores {
	return &Stores{
		Actors:              NewStore(db, tx, ActorKind, applyActor),
		Directors:           NewStore(db, tx, DirectorKind, applyDirector),
		Tags:                NewStore(db, tx, TagKind, applyTag),
		Genres:              NewStore(db, tx, GenreKind, applyGenre),
		Countries:           NewStore(db, tx, CountryKind, applyCountry),
		Languages:           NewStore(db, tx, LanguageKind, applyLanguage),
		ProductionCompanies: NewStore(db, tx, ProductionCompanyKind, applyProductionCompany),
		Universes:           NewStore(db, tx, UniverseKind, applyUniverse),
	}
}

type Module struct {
	db     *gorm.DB
	tx     *databasemodule.TransactionManager
	auth   *auth.Service
	stores *Stores
	merger *Merger
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
		return fmt.Errorf("lookup module requires the auth and transaction services")
	}
	m.stores = NewStores(m.db, m.tx)
	m.merger = NewMerger(m.tx)
	return nil
}

// Stores returns the lookup stores
func (m *Module) Stores() *Stores { return m.stores }

// Merger returns the merge service
func (m *Module) Merger() *Merger { return m.merger }

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}
