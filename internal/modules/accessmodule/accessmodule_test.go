package accessmodule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/testutil"
	"github.com/mantonx/mediacatalog/internal/types"
	"github.com/mantonx/mediacatalog/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGateConfig = config.GateConfig{
	AdminPrefixes:  []string{"/admin", "/api/admin"},
	EditorPrefixes: []string{"/admin/series", "/api/admin/series"},
	SkipPrefixes:   []string{"/_next", "/api/health"},
}

type gateFixture struct {
	env      *testutil.Env
	module   *Module
	router   *gin.Engine
	recorder *Recorder
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	env := testutil.NewEnv(t)
	recorder := NewRecorder(env.DB, 1, 64)
	t.Cleanup(recorder.Stop)

	m := &Module{
		db:       env.DB,
		auth:     env.Auth,
		recorder: recorder,
		gate:     NewGate(env.DB, env.Auth.Resolver, recorder, func() config.GateConfig { return testGateConfig }),
		service:  NewService(env.DB),
	}

	router := gin.New()
	router.Use(m.Middleware()...)
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	for _, p := range []string{"/", "/series/1", "/admin", "/admin/series", "/administer", "/_next/app.js", "/api/health"} {
		router.GET(p, ok)
	}
	m.RegisterRoutes(router)

	return &gateFixture{env: env, module: m, router: router, recorder: recorder}
}

// logs drains the recorder and returns every stored entry
func (f *gateFixture) logs(t *testing.T) []database.AccessLog {
	t.Helper()
	f.recorder.Stop()
	var logs []database.AccessLog
	require.NoError(t, f.env.DB.Order("id").Find(&logs).Error)
	return logs
}

func TestGateRecordsPublicRequests(t *testing.T) {
	f := newGateFixture(t)
	visitor := f.env.User(t, "fan@example.com", database.RoleVisitor)

	w := testutil.Request(t, f.router, http.MethodGet, "/series/1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.Request(t, f.router, http.MethodGet, "/", nil, f.env.Token(t, visitor))
	assert.Equal(t, http.StatusOK, w.Code)

	logs := f.logs(t)
	require.Len(t, logs, 2)
	assert.Equal(t, "/series/1", logs[0].Path)
	assert.Equal(t, ActionPageView, logs[0].Action)
	assert.Nil(t, logs[0].UserID)
	require.NotNil(t, logs[1].UserID)
	assert.Equal(t, visitor.ID, *logs[1].UserID)
}

func TestGateSkipsConfiguredPrefixes(t *testing.T) {
	f := newGateFixture(t)

	for _, p := range []string{"/_next/app.js", "/api/health"} {
		w := testutil.Request(t, f.router, http.MethodGet, p, nil, "")
		assert.Equal(t, http.StatusOK, w.Code, p)
	}
	assert.Empty(t, f.logs(t))
}

func TestGateBlocksBannedAddress(t *testing.T) {
	f := newGateFixture(t)
	require.NoError(t, f.env.DB.Create(&database.BannedIP{IP: "192.0.2.1", Reason: "spam"}).Error)

	// httptest requests originate from 192.0.2.1
	w := testutil.Request(t, f.router, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(types.ErrorCodeIPBlocked), testutil.ErrorCode(t, w))
	assert.Empty(t, f.logs(t))
}

func TestGateAdminAreas(t *testing.T) {
	f := newGateFixture(t)
	admin := f.env.User(t, "admin@example.com", database.RoleAdmin)
	mod := f.env.User(t, "mod@example.com", database.RoleModerator)
	visitor := f.env.User(t, "fan@example.com", database.RoleVisitor)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"anonymous admin", "/admin", "", http.StatusUnauthorized},
		{"visitor admin", "/admin", f.env.Token(t, visitor), http.StatusForbidden},
		{"moderator admin", "/admin", f.env.Token(t, mod), http.StatusForbidden},
		{"moderator editor area", "/admin/series", f.env.Token(t, mod), http.StatusOK},
		{"visitor editor area", "/admin/series", f.env.Token(t, visitor), http.StatusForbidden},
		{"admin", "/admin", f.env.Token(t, admin), http.StatusOK},
		{"segment boundary", "/administer", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Request(t, f.router, http.MethodGet, tt.path, nil, tt.token)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGateRejectsBannedAccountEverywhere(t *testing.T) {
	f := newGateFixture(t)
	user := f.env.User(t, "troll@example.com", database.RoleVisitor)
	token := f.env.Token(t, user)
	require.NoError(t, f.env.DB.Model(user).Updates(map[string]interface{}{"banned": true}).Error)

	w := testutil.Request(t, f.router, http.MethodGet, "/series/1", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(types.ErrorCodeAccountSuspended), testutil.ErrorCode(t, w))

	// Suspension wins over the role check on admin paths
	w = testutil.Request(t, f.router, http.MethodGet, "/admin/series", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(types.ErrorCodeAccountSuspended), testutil.ErrorCode(t, w))

	w = testutil.Request(t, f.router, http.MethodGet, "/api/admin/users", nil, token)
	assert.Equal(t, string(types.ErrorCodeAccountSuspended), testutil.ErrorCode(t, w))

	// Without the session the same client is an anonymous visitor
	w = testutil.Request(t, f.router, http.MethodGet, "/series/1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecorderDropsWhenQueueUnavailable(t *testing.T) {
	env := testutil.NewEnv(t)
	r := &Recorder{db: env.DB, pool: utils.NewWorkerPool(1, 1), log: logger.Named("access"), write: time.Second}

	assert.False(t, r.Record(database.AccessLog{IP: "198.51.100.7", Path: "/"}))

	var count int64
	require.NoError(t, env.DB.Model(&database.AccessLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBanIPValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := NewService(env.DB)
	ctx := context.Background()
	admin := env.User(t, "admin@example.com", database.RoleAdmin)

	_, err := svc.BanIP(ctx, "not-an-ip", "", admin.ID, "203.0.113.9")
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	_, err = svc.BanIP(ctx, "203.0.113.9", "", admin.ID, "203.0.113.9")
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation), "own address")

	ban, err := svc.BanIP(ctx, " 2001:DB8::1 ", "scraper", admin.ID, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", ban.IP)
	require.NotNil(t, ban.CreatedBy)
	assert.Equal(t, admin.ID, *ban.CreatedBy)

	_, err = svc.BanIP(ctx, "2001:db8::1", "", admin.ID, "203.0.113.9")
	assert.True(t, types.IsCode(err, types.ErrorCodeAlreadyExists))

	require.NoError(t, svc.UnbanIP(ctx, ban.ID))
	assert.True(t, types.IsCode(svc.UnbanIP(ctx, ban.ID), types.ErrorCodeNotFound))
}

func TestListAndPruneLogs(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := NewService(env.DB)
	ctx := context.Background()
	user := env.User(t, "fan@example.com", database.RoleVisitor)

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC().Add(-time.Minute)
	entries := []database.AccessLog{
		{IP: "198.51.100.1", Method: "GET", Path: "/series/1", Action: ActionPageView, CreatedAt: old},
		{IP: "198.51.100.1", Method: "GET", Path: "/api/series", Action: ActionAPI, UserID: &user.ID, CreatedAt: recent},
		{IP: "198.51.100.2", Method: "GET", Path: "/api_docs", Action: ActionPageView, CreatedAt: recent},
	}
	require.NoError(t, env.DB.Create(&entries).Error)

	page, err := svc.ListLogs(ctx, LogFilter{IP: "198.51.100.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "/api/series", page.Items[0].Path, "newest first")
	require.NotNil(t, page.Items[0].User)
	assert.Equal(t, "fan@example.com", page.Items[0].User.Email)

	page, err = svc.ListLogs(ctx, LogFilter{Path: "/api_"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "underscore is literal")
	assert.Equal(t, "/api_docs", page.Items[0].Path)

	page, err = svc.ListLogs(ctx, LogFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	deleted, err := svc.PruneLogs(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestAdminRoutes(t *testing.T) {
	f := newGateFixture(t)
	admin := f.env.User(t, "admin@example.com", database.RoleAdmin)
	token := f.env.Token(t, admin)

	w := testutil.Request(t, f.router, http.MethodPost, "/api/admin/banned-ips", gin.H{"ip": "198.51.100.20", "reason": "abuse"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ban := testutil.Decode[database.BannedIP](t, w)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/admin/banned-ips", gin.H{"reason": "abuse"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Request(t, f.router, http.MethodGet, "/api/admin/banned-ips", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	list := testutil.Decode[struct {
		Count int `json:"count"`
	}](t, w)
	assert.Equal(t, 1, list.Count)

	w = testutil.Request(t, f.router, http.MethodDelete, "/api/admin/banned-ips/"+itoa(ban.ID), nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.Request(t, f.router, http.MethodDelete, "/api/admin/logs", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = testutil.Request(t, f.router, http.MethodDelete, "/api/admin/logs?before=yesterday", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/logs?before="+time.Now().Add(time.Hour).UTC().Format(time.RFC3339), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthCheckReportsQueue(t *testing.T) {
	f := newGateFixture(t)
	status := f.module.HealthCheck(context.Background())
	assert.Equal(t, 64, status.Details["capacity"])
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
