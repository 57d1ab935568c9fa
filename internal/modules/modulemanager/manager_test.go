package modulemanager

import (
	"context"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeModule struct {
	id       string
	deps     []string
	provides []string
	requires []string
	log      *[]string
	injected map[string]interface{}
	initErr  error
}

func (m *fakeModule) ID() string   { return m.id }
func (m *fakeModule) Name() string { return m.id }
func (m *fakeModule) Core() bool   { return false }
func (m *fakeModule) Migrate(db *gorm.DB) error {
	*m.log = append(*m.log, "migrate:"+m.id)
	return nil
}
func (m *fakeModule) Init() error {
	*m.log = append(*m.log, "init:"+m.id)
	return m.initErr
}
func (m *fakeModule) Dependencies() []string     { return m.deps }
func (m *fakeModule) ProvidedServices() []string { return m.provides }
func (m *fakeModule) RequiredServices() []string { return m.requires }
func (m *fakeModule) RegisterServices() error {
	for _, name := range m.provides {
		services.RegisterService(name, m.id)
	}
	return nil
}
func (m *fakeModule) InjectServices(s map[string]interface{}) error {
	m.injected = s
	return nil
}
func (m *fakeModule) Shutdown(ctx context.Context) error {
	*m.log = append(*m.log, "shutdown:"+m.id)
	return nil
}

func TestLoadAllOrdersByServiceDependencies(t *testing.T) {
	services.Reset()
	t.Cleanup(services.Reset)

	var log []string
	r := NewRegistry()
	consumer := &fakeModule{id: "a.consumer", requires: []string{"auth"}, log: &log}
	provider := &fakeModule{id: "z.provider", provides: []string{"auth"}, log: &log}
	r.Register(consumer)
	r.Register(provider)

	require.NoError(t, r.LoadAll(nil))

	assert.Equal(t, []string{
		"migrate:z.provider", "migrate:a.consumer",
		"init:z.provider", "init:a.consumer",
	}, log)
	assert.Equal(t, "z.provider", consumer.injected["auth"])

	modules := r.ListModules()
	require.Len(t, modules, 2)
	assert.Equal(t, "z.provider", modules[0].ID())

	log = nil
	require.NoError(t, r.Shutdown(context.Background()))
	assert.Equal(t, []string{"shutdown:a.consumer", "shutdown:z.provider"}, log)
}

func TestLoadAllDetectsCycles(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.Register(&fakeModule{id: "a", deps: []string{"b"}, log: &log})
	r.Register(&fakeModule{id: "b", deps: []string{"a"}, log: &log})

	err := r.LoadAll(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
	assert.Empty(t, log)
}

func TestLoadAllRejectsUnknownDependency(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.Register(&fakeModule{id: "a", deps: []string{"ghost"}, log: &log})

	err := r.LoadAll(nil)
	assert.ErrorContains(t, err, "non-existent module ghost")
}

func TestLoadAllStopsOnInitError(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.Register(&fakeModule{id: "a", log: &log, initErr: errors.New("boom")})

	err := r.LoadAll(nil)
	assert.ErrorContains(t, err, "failed to initialize a")
}

type middlewareModule struct {
	fakeModule
}

func (m *middlewareModule) Middleware() []gin.HandlerFunc {
	return []gin.HandlerFunc{func(c *gin.Context) {
		c.Header("X-Module", m.id)
		c.Next()
	}}
}

func TestInstallMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var log []string
	r := NewRegistry()
	r.Register(&middlewareModule{fakeModule{id: "gate", log: &log}})
	require.NoError(t, r.LoadAll(nil))

	router := gin.New()
	r.InstallMiddleware(router)
	assert.Len(t, router.Handlers, 1)
}
