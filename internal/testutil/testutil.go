// Package testutil wires in-memory databases, sessions and HTTP helpers
// for module tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/database/dbtest"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "test-secret-test-secret-test-secret"

// Env is a migrated database plus a session service
type Env struct {
	DB   *gorm.DB
	Tx   *databasemodule.TransactionManager
	Auth *auth.Service
}

// NewEnv builds a fresh environment for one test
func NewEnv(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	jwtManager, err := auth.NewJWTManager(jwtSecret, time.Hour)
	require.NoError(t, err)

	return &Env{
		DB:   db,
		Tx:   databasemodule.NewTransactionManager(db),
		Auth: auth.NewService(db, jwtManager, "session", false),
	}
}

// User creates an account with the given role
func (e *Env) User(t *testing.T, email string, role database.Role) *database.User {
	t.Helper()
	u := &database.User{Email: email, Name: email, Role: role}
	require.NoError(t, e.DB.Create(u).Error)
	return u
}

// Token issues a session token for u
func (e *Env) Token(t *testing.T, u *database.User) string {
	t.Helper()
	token, _, err := e.Auth.JWT.GenerateToken(u.ID, u.Email, string(u.Role))
	require.NoError(t, err)
	return token
}

// Request performs an HTTP request against h. body is JSON-encoded unless
// it is already an io.Reader. An empty token sends no session.
func Request(t *testing.T, h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a JSON response body
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// ErrorCode extracts error.code from an error response
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := Decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, w)
	return body.Error.Code
}
