// Package uploadmodule accepts image uploads from staff and stores them in
// Cloud Storage or a local directory.
package uploadmodule

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/mantonx/mediacatalog/internal/services"
	"gorm.io/gorm"
)

func init() {
	Register()
}

const (
	ModuleID   = "system.uploads"
	ModuleName = "Uploads"

	// LocalRoute serves files written by the local backend
	LocalRoute = "/uploads"
)

type Module struct {
	auth     *auth.Service
	store    ObjectStore
	uploader *Uploader
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return false }

func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) RequiredServices() []string { return []string{services.AuthService} }

func (m *Module) InjectServices(available map[string]interface{}) error {
	authService, err := modulemanager.ServiceFrom[*auth.Service](available, services.AuthService)
	if err != nil {
		return err
	}
	m.auth = authService
	return nil
}

func (m *Module) Init() error {
	if m.auth == nil {
		return fmt.Errorf("upload module requires the auth service")
	}
	cfg := config.Get().Uploads
	store, err := NewObjectStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	m.store = store
	m.uploader = NewUploader(store, cfg.MaxFileSize, cfg.AllowedTypes)
	return nil
}

// Shutdown releases the storage client
func (m *Module) Shutdown(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// RegisterRoutes registers the upload endpoint, and the file route when
// files are kept on local disk
func (m *Module) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/upload", m.auth.Guard.Require(auth.Staff...), m.upload)
	apiroutes.RegisterWithAccess("/api/upload", "POST", "Uploads an image (multipart file and folder).", "ADMIN, MODERATOR")

	if local, ok := m.store.(*LocalStore); ok {
		router.Static(LocalRoute, local.Dir())
	}
}

func (m *Module) upload(c *gin.Context) {
	// Leave room for the multipart envelope around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.uploader.MaxSize()+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		api.RespondWithValidationError(c, "file is required", err.Error())
		return
	}
	if file.Size > m.uploader.MaxSize() {
		api.RespondWithValidationError(c, "file is too large", fmt.Sprintf("maximum size is %d bytes", m.uploader.MaxSize()))
		return
	}

	f, err := file.Open()
	if err != nil {
		api.RespondWithValidationError(c, "failed to read file", err.Error())
		return
	}
	defer f.Close()

	result, err := m.uploader.Upload(c.Request.Context(), c.PostForm("folder"), f)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}
