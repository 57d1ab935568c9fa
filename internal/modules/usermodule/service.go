package usermodule

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// ExternalIdentity is what the identity provider asserts about a user
type ExternalIdentity struct {
	Subject string `json:"subject"`
	Email   string `json:"email" binding:"required,email"`
	Name    string `json:"name" binding:"max=191"`
	Image   string `json:"image" binding:"omitempty,url"`
}

// UserFilter selects users for the admin listing
type UserFilter struct {
	Search string        `form:"search"`
	Role   database.Role `form:"role"`
	Banned *bool         `form:"banned"`
	database.PageRequest
}

// Service manages user accounts
type Service struct {
	db *gorm.DB
	tx *databasemodule.TransactionManager
}

// NewService creates an account service
func NewService(db *gorm.DB, tx *databasemodule.TransactionManager) *Service {
	return &Service{db: db, tx: tx}
}

// SignIn creates or refreshes the account for a verified external
// identity. Addresses on the admin allow-list are promoted to ADMIN.
// Promotion never demotes an existing role.
func (s *Service) SignIn(ctx context.Context, ident ExternalIdentity) (*database.User, error) {
	email := strings.ToLower(strings.TrimSpace(ident.Email))
	if email == "" {
		return nil, types.NewValidationError("email is required")
	}

	var user database.User
	err := s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case database.IsNotFound(err):
			user = database.User{Email: email, Role: database.RoleVisitor}
		case err != nil:
			return err
		}

		if ident.Subject != "" {
			user.Subject = ident.Subject
		}
		if ident.Name != "" {
			user.Name = ident.Name
		}
		if ident.Image != "" {
			user.Image = ident.Image
		}
		if user.Role != database.RoleAdmin && config.IsAdminEmail(email) {
			logger.Info("promoting allow-listed user", "email", email, "from", user.Role)
			user.Role = database.RoleAdmin
		}

		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, api.TranslateDBError(err, "user", email)
	}
	return &user, nil
}

// Get returns a user by id
func (s *Service) Get(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, api.TranslateDBError(err, "user", id)
	}
	return &user, nil
}

// List returns one page of users, newest first
func (s *Service) List(ctx context.Context, f UserFilter) (database.Page[database.User], error) {
	q := s.db.WithContext(ctx).Model(&database.User{})
	if f.Search != "" {
		like := database.ContainsPattern(f.Search)
		q = q.Where("LOWER(email) LIKE ?"+database.LikeEscapeClause+" OR LOWER(name) LIKE ?"+database.LikeEscapeClause, like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Banned != nil {
		q = q.Where("banned = ?", *f.Banned)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return database.Page[database.User]{}, api.TranslateDBError(err, "users", "")
	}

	var users []database.User
	if err := q.Scopes(f.PageRequest.Scope()).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return database.Page[database.User]{}, api.TranslateDBError(err, "users", "")
	}
	return database.NewPage(users, total, f.PageRequest), nil
}

// SetRole changes a user's role. Admins cannot change their own role.
func (s *Service) SetRole(ctx context.Context, actorID, userID uint, role database.Role) (*database.User, error) {
	if !role.Valid() {
		return nil, types.NewValidationError("invalid role", string(role))
	}
	if actorID == userID {
		return nil, types.NewValidationError("you cannot change your own role")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, api.TranslateDBError(err, "user", userID)
	}
	user.Role = role
	logger.Info("user role changed", "user", userID, "role", role, "by", actorID)
	return user, nil
}

// Ban suspends an account. Admins cannot ban themselves.
func (s *Service) Ban(ctx context.Context, actorID, userID uint, reason string) (*database.User, error) {
	if actorID == userID {
		return nil, types.NewValidationError("you cannot ban yourself")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"banned":     true,
		"banned_at":  now,
		"ban_reason": reason,
	}).Error
	if err != nil {
		return nil, api.TranslateDBError(err, "user", userID)
	}
	user.Banned, user.BannedAt, user.BanReason = true, &now, reason
	logger.Info("user banned", "user", userID, "by", actorID)
	return user, nil
}

// Unban lifts a suspension
func (s *Service) Unban(ctx context.Context, userID uint) (*database.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"banned":     false,
		"banned_at":  nil,
		"ban_reason": "",
	}).Error
	if err != nil {
		return nil, api.TranslateDBError(err, "user", userID)
	}
	user.Banned, user.BannedAt, user.BanReason = false, nil, ""
	return user, nil
}

// ErrSignInDisabled is returned when no callback secret is configured
var ErrSignInDisabled = errors.New("sign-in callback secret is not configured")
