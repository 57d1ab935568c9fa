package usermodule

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/types"
)

// CallbackSecretHeader authenticates the identity provider callback
const CallbackSecretHeader = "X-Auth-Secret"

// RegisterRoutes registers the session and user administration routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	guard := m.auth.Guard

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/signin", m.signIn)
		authGroup.GET("/me", guard.Require(), m.me)
		authGroup.POST("/signout", m.signOut)
	}

	admin := router.Group("/api/admin/users", guard.Require(database.RoleAdmin))
	{
		admin.GET("", m.listUsers)
		admin.GET("/:id", m.getUser)
		admin.PATCH("/:id/role", m.setRole)
		admin.POST("/:id/ban", m.banUser)
		admin.DELETE("/:id/ban", m.unbanUser)
	}

	apiroutes.Register("/api/auth/signin", "POST", "Identity provider callback; issues a session token.")
	apiroutes.RegisterWithAccess("/api/auth/me", "GET", "Returns the signed-in user.", "ANY")
	apiroutes.Register("/api/auth/signout", "POST", "Clears the session cookie.")
	apiroutes.RegisterWithAccess("/api/admin/users", "GET", "Lists users with search and paging.", "ADMIN")
	apiroutes.RegisterWithAccess("/api/admin/users/:id/role", "PATCH", "Changes a user's role.", "ADMIN")
	apiroutes.RegisterWithAccess("/api/admin/users/:id/ban", "POST, DELETE", "Bans or unbans a user.", "ADMIN")
}

// signIn is called by the identity provider after it verified the user
func (m *Module) signIn(c *gin.Context) {
	secret := config.Get().Auth.CallbackSecret
	if secret == "" {
		api.RespondWithError(c, types.NewUnavailableError("sign-in is not available", ErrSignInDisabled.Error()))
		return
	}
	provided := c.GetHeader(CallbackSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		logger.Warn("rejected sign-in callback", "ip", c.ClientIP())
		api.RespondWithError(c, types.NewUnauthenticatedError())
		return
	}

	var ident ExternalIdentity
	if err := c.ShouldBindJSON(&ident); err != nil {
		api.RespondWithBindError(c, err)
		return
	}

	user, err := m.service.SignIn(c.Request.Context(), ident)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	if user.Banned {
		api.RespondWithError(c, types.NewSuspendedError())
		return
	}

	token, expires, err := m.auth.JWT.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		api.RespondWithInternalError(c, "failed to issue session", err)
		return
	}
	m.auth.SetSessionCookie(c, token, expires)

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expires,
		"user":      user,
	})
}

func (m *Module) me(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	c.JSON(http.StatusOK, id)
}

func (m *Module) signOut(c *gin.Context) {
	m.auth.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (m *Module) listUsers(c *gin.Context) {
	var filter UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		api.RespondWithBindError(c, err)
		return
	}

	page, err := m.service.List(c.Request.Context(), filter)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (m *Module) getUser(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	user, err := m.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (m *Module) setRole(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role database.Role `json:"role" binding:"required,oneof=ADMIN MODERATOR VISITOR"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindError(c, err)
		return
	}

	user, err := m.service.SetRole(c.Request.Context(), auth.UserIDFrom(c), id, req.Role)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (m *Module) banUser(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"max=512"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			api.RespondWithBindError(c, err)
			return
		}
	}

	user, err := m.service.Ban(c.Request.Context(), auth.UserIDFrom(c), id, req.Reason)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (m *Module) unbanUser(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	user, err := m.service.Unban(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
