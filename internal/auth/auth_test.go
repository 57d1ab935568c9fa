package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	jwtManager, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)
	return NewService(db, jwtManager, "session", false), db
}

func createUser(t *testing.T, db *gorm.DB, email string, role database.Role, banned bool) *database.User {
	t.Helper()
	u := &database.User{Email: email, Name: email, Role: role, Banned: banned}
	require.NoError(t, db.Create(u).Error)
	return u
}

func tokenFor(t *testing.T, s *Service, u *database.User) string {
	t.Helper()
	token, _, err := s.JWT.GenerateToken(u.ID, u.Email, string(u.Role))
	require.NoError(t, err)
	return token
}

func TestJWTRoundTrip(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, expires, err := m.GenerateToken(7, "a@example.com", "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	other, _ := NewJWTManager("another-secret-another-secret-xx", time.Hour)

	token, _, err := other.GenerateToken(1, "a@example.com", "VISITOR")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.Error(t, err)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := m.GenerateToken(1, "a@example.com", "VISITOR")
	require.NoError(t, err)
	m.now = time.Now
	_, err = m.ValidateToken(stale)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTRejectsNoneAlgorithm(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "1"},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	assert.Error(t, err)
}

func guardedRouter(s *Service, roles ...database.Role) *gin.Engine {
	r := gin.New()
	r.GET("/protected", s.Guard.Require(roles...), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": id.UserID, "role": id.Role})
	})
	return r
}

func TestGuardRequire(t *testing.T) {
	s, db := newTestService(t)
	admin := createUser(t, db, "admin@example.com", database.RoleAdmin, false)
	visitor := createUser(t, db, "visitor@example.com", database.RoleVisitor, false)
	banned := createUser(t, db, "banned@example.com", database.RoleAdmin, true)

	router := guardedRouter(s, database.RoleAdmin)

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"no session", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"wrong role", tokenFor(t, s, visitor), http.StatusForbidden, "FORBIDDEN"},
		{"banned admin", tokenFor(t, s, banned), http.StatusForbidden, "ACCOUNT_SUSPENDED"},
		{"admin", tokenFor(t, s, admin), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			}
		})
	}
}

func TestGuardReadsCookie(t *testing.T) {
	s, db := newTestService(t)
	visitor := createUser(t, db, "visitor@example.com", database.RoleVisitor, false)

	router := guardedRouter(s)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tokenFor(t, s, visitor)})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"VISITOR"`)
}

func TestResolverSeesRoleChangesImmediately(t *testing.T) {
	s, db := newTestService(t)
	u := createUser(t, db, "mod@example.com", database.RoleModerator, false)
	token := tokenFor(t, s, u)

	require.NoError(t, db.Model(u).Update("role", database.RoleVisitor).Error)

	router := guardedRouter(s, Staff...)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResolverIgnoresDeletedUser(t *testing.T) {
	s, db := newTestService(t)
	u := createUser(t, db, "gone@example.com", database.RoleVisitor, false)
	token := tokenFor(t, s, u)
	require.NoError(t, db.Delete(u).Error)

	router := guardedRouter(s)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityHasRole(t *testing.T) {
	id := &Identity{Role: database.RoleModerator}
	assert.True(t, id.HasRole())
	assert.True(t, id.IsStaff())
	assert.False(t, id.HasRole(database.RoleAdmin))
	assert.NoError(t, Authorize(id, Staff...))
	assert.Error(t, Authorize(nil))
}
