package accessmodule

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// LogFilter selects access-log entries
type LogFilter struct {
	IP     string `form:"ip"`
	UserID uint   `form:"userId"`
	Path   string `form:"path"`
	Action string `form:"action"`
	database.PageRequest
}

// Service manages the IP block-list and the access log
type Service struct {
	db *gorm.DB
}

// NewService creates an access service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListBannedIPs returns the block-list, newest first
func (s *Service) ListBannedIPs(ctx context.Context) ([]database.BannedIP, error) {
	var bans []database.BannedIP
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&bans).Error; err != nil {
		return nil, api.TranslateDBError(err, "banned ips", "")
	}
	return bans, nil
}

// BanIP adds ip to the block-list. callerIP is the admin's own address,
// which cannot be banned.
func (s *Service) BanIP(ctx context.Context, ip, reason string, createdBy uint, callerIP string) (*database.BannedIP, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return nil, types.NewValidationError("invalid ip address", ip)
	}
	normalized := parsed.String()
	if caller := net.ParseIP(callerIP); caller != nil && caller.Equal(parsed) {
		return nil, types.NewValidationError("you cannot ban your own address")
	}

	ban := &database.BannedIP{IP: normalized, Reason: reason}
	if createdBy != 0 {
		ban.CreatedBy = &createdBy
	}
	if err := s.db.WithContext(ctx).Create(ban).Error; err != nil {
		return nil, api.TranslateDBError(err, "banned ip", normalized)
	}
	logger.Info("address banned", "ip", normalized, "by", createdBy)
	return ban, nil
}

// UnbanIP removes a block-list entry
func (s *Service) UnbanIP(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&database.BannedIP{}, id)
	if res.Error != nil {
		return api.TranslateDBError(res.Error, "banned ip", id)
	}
	if res.RowsAffected == 0 {
		return types.NewNotFoundError("banned ip", id)
	}
	return nil
}

// ListLogs returns one page of access logs, newest first
func (s *Service) ListLogs(ctx context.Context, f LogFilter) (database.Page[database.AccessLog], error) {
	q := s.db.WithContext(ctx).Model(&database.AccessLog{})
	if f.IP != "" {
		q = q.Where("ip = ?", f.IP)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Path != "" {
		q = q.Where("path LIKE ?"+database.LikeEscapeClause, database.PrefixPattern(f.Path))
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return database.Page[database.AccessLog]{}, api.TranslateDBError(err, "access logs", "")
	}

	var logs []database.AccessLog
	err := q.Scopes(f.PageRequest.Scope()).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "email", "name", "role") }).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return database.Page[database.AccessLog]{}, api.TranslateDBError(err, "access logs", "")
	}
	return database.NewPage(logs, total, f.PageRequest), nil
}

// PruneLogs deletes entries created before cutoff and returns the count
func (s *Service) PruneLogs(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&database.AccessLog{})
	if res.Error != nil {
		return 0, api.TranslateDBError(res.Error, "access logs", "")
	}
	logger.Info("pruned access logs", "before", before, "deleted", res.RowsAffected)
	return res.RowsAffected, nil
}
