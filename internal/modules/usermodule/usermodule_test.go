package usermodule

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/testutil"
	"github.com/mantonx/mediacatalog/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModule(t *testing.T) (*Module, *testutil.Env, *gin.Engine) {
	t.Helper()
	env := testutil.NewEnv(t)
	m := &Module{db: env.DB, tx: env.Tx, auth: env.Auth, service: NewService(env.DB, env.Tx)}
	router := gin.New()
	m.RegisterRoutes(router)
	return m, env, router
}

func withAuthConfig(t *testing.T, secret string, admins ...string) {
	t.Helper()
	cm := config.GetConfigManager()
	original := cm.GetConfig().Auth
	t.Cleanup(func() { cm.Update(func(c *config.Config) { c.Auth = original }) })
	cm.Update(func(c *config.Config) {
		c.Auth.CallbackSecret = secret
		c.Auth.AdminEmails = admins
	})
}

func doSignIn(t *testing.T, router *gin.Engine, secret string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(CallbackSecretHeader, secret)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignInCreatesVisitorAndPromotesAllowListedAdmin(t *testing.T) {
	m, env, _ := newTestModule(t)
	withAuthConfig(t, "s3cret", "Boss@Example.com")
	ctx := context.Background()

	visitor, err := m.service.SignIn(ctx, ExternalIdentity{Subject: "sub-1", Email: "Fan@Example.com", Name: "Fan"})
	require.NoError(t, err)
	assert.Equal(t, database.RoleVisitor, visitor.Role)
	assert.Equal(t, "fan@example.com", visitor.Email)

	boss, err := m.service.SignIn(ctx, ExternalIdentity{Email: "boss@example.com"})
	require.NoError(t, err)
	assert.Equal(t, database.RoleAdmin, boss.Role)

	// A second sign-in updates the profile without creating a new row
	again, err := m.service.SignIn(ctx, ExternalIdentity{Email: "fan@example.com", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, visitor.ID, again.ID)
	assert.Equal(t, "Renamed", again.Name)

	var count int64
	require.NoError(t, env.DB.Model(&database.User{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSignInKeepsExistingModeratorOffAllowList(t *testing.T) {
	m, env, _ := newTestModule(t)
	withAuthConfig(t, "s3cret")
	mod := env.User(t, "mod@example.com", database.RoleModerator)

	user, err := m.service.SignIn(context.Background(), ExternalIdentity{Email: mod.Email})
	require.NoError(t, err)
	assert.Equal(t, database.RoleModerator, user.Role)
}

func TestSignInEndpoint(t *testing.T) {
	_, env, router := newTestModule(t)
	withAuthConfig(t, "s3cret")

	w := doSignIn(t, router, "wrong", ExternalIdentity{Email: "a@example.com"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doSignIn(t, router, "s3cret", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email must be a valid email address")

	w = doSignIn(t, router, "s3cret", ExternalIdentity{Email: "a@example.com", Name: "A"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := testutil.Decode[struct {
		Token string        `json:"token"`
		User  database.User `json:"user"`
	}](t, w)
	require.NotEmpty(t, body.Token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=")

	me := testutil.Request(t, router, http.MethodGet, "/api/auth/me", nil, body.Token)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"email":"a@example.com"`)

	// Banned accounts are refused a new session
	require.NoError(t, env.DB.Model(&database.User{}).Where("id = ?", body.User.ID).Update("banned", true).Error)
	w = doSignIn(t, router, "s3cret", ExternalIdentity{Email: "a@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(types.ErrorCodeAccountSuspended), testutil.ErrorCode(t, w))
}

func TestSignInDisabledWithoutSecret(t *testing.T) {
	_, _, router := newTestModule(t)
	withAuthConfig(t, "")

	w := doSignIn(t, router, "", ExternalIdentity{Email: "a@example.com"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminCannotBanOrDemoteThemselves(t *testing.T) {
	_, env, router := newTestModule(t)
	admin := env.User(t, "admin@example.com", database.RoleAdmin)
	token := env.Token(t, admin)

	w := testutil.Request(t, router, http.MethodPost, "/api/admin/users/1/ban", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Request(t, router, http.MethodPatch, "/api/admin/users/1/role", map[string]string{"role": "VISITOR"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var reloaded database.User
	require.NoError(t, env.DB.First(&reloaded, admin.ID).Error)
	assert.False(t, reloaded.Banned)
	assert.Equal(t, database.RoleAdmin, reloaded.Role)
}

func TestBanUnbanAndRoleChange(t *testing.T) {
	_, env, router := newTestModule(t)
	admin := env.User(t, "admin@example.com", database.RoleAdmin)
	target := env.User(t, "target@example.com", database.RoleVisitor)
	token := env.Token(t, admin)

	w := testutil.Request(t, router, http.MethodPost, "/api/admin/users/2/ban", map[string]string{"reason": "spam"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var banned database.User
	require.NoError(t, env.DB.First(&banned, target.ID).Error)
	assert.True(t, banned.Banned)
	assert.NotNil(t, banned.BannedAt)
	assert.Equal(t, "spam", banned.BanReason)

	// The banned user is rejected on their next request
	me := testutil.Request(t, router, http.MethodGet, "/api/auth/me", nil, env.Token(t, target))
	assert.Equal(t, http.StatusForbidden, me.Code)

	w = testutil.Request(t, router, http.MethodDelete, "/api/admin/users/2/ban", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var unbanned database.User
	require.NoError(t, env.DB.First(&unbanned, target.ID).Error)
	assert.False(t, unbanned.Banned)
	assert.Nil(t, unbanned.BannedAt)
	assert.Empty(t, unbanned.BanReason)

	w = testutil.Request(t, router, http.MethodPatch, "/api/admin/users/2/role", map[string]string{"role": "MODERATOR"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"MODERATOR"`)

	w = testutil.Request(t, router, http.MethodPatch, "/api/admin/users/2/role", map[string]string{"role": "ROOT"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Request(t, router, http.MethodGet, "/api/admin/users/99", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	_, env, router := newTestModule(t)
	mod := env.User(t, "mod@example.com", database.RoleModerator)

	w := testutil.Request(t, router, http.MethodGet, "/api/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Request(t, router, http.MethodGet, "/api/admin/users", nil, env.Token(t, mod))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListUsersFilters(t *testing.T) {
	m, env, _ := newTestModule(t)
	env.User(t, "alice@example.com", database.RoleVisitor)
	env.User(t, "bob@example.com", database.RoleModerator)

	page, err := m.service.List(context.Background(), UserFilter{Search: "ALI"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice@example.com", page.Items[0].Email)

	page, err = m.service.List(context.Background(), UserFilter{Role: database.RoleModerator})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
