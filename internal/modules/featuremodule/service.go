package featuremodule

import (
	"context"
	"strings"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

const resource = "feature request"

// Filter narrows the request list
type Filter struct {
	Status database.FeatureStatus `form:"status"`
	Type   database.FeatureType   `form:"type"`
	database.PageRequest
}

// CreateInput is a new request from a user
type CreateInput struct {
	Title       string               `json:"title" binding:"required,max=191"`
	Description string               `json:"description" binding:"max=5000"`
	Type        database.FeatureType `json:"type"`
}

// UpdateInput is an admin change of status or priority
type UpdateInput struct {
	Status   *database.FeatureStatus   `json:"status"`
	Priority *database.FeaturePriority `json:"priority"`
}

// VoteResult is the state after a vote toggle
type VoteResult struct {
	Voted bool  `json:"voted"`
	Votes int64 `json:"votes"`
}

type Service struct {
	db *gorm.DB
	tx *databasemodule.TransactionManager
}

func NewService(db *gorm.DB, tx *databasemodule.TransactionManager) *Service {
	return &Service{db: db, tx: tx}
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "image") })
}

// List returns one page of requests, newest first, with vote counts and
// whether viewerID voted. viewerID 0 is an anonymous caller.
func (s *Service) List(ctx context.Context, viewerID uint, f Filter) (database.Page[database.FeatureRequest], error) {
	if f.Status != "" && !validStatus(f.Status) {
		return database.Page[database.FeatureRequest]{}, types.NewValidationError("invalid status", string(f.Status))
	}
	if f.Type != "" && !validType(f.Type) {
		return database.Page[database.FeatureRequest]{}, types.NewValidationError("invalid type", string(f.Type))
	}

	db := s.db.WithContext(ctx)
	q := db.Model(&database.FeatureRequest{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return database.Page[database.FeatureRequest]{}, api.TranslateDBError(err, resource, "")
	}
	var items []database.FeatureRequest
	err := q.Scopes(withAuthor, f.PageRequest.Scope()).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return database.Page[database.FeatureRequest]{}, api.TranslateDBError(err, resource, "")
	}
	if err := attachVotes(db, viewerID, items); err != nil {
		return database.Page[database.FeatureRequest]{}, err
	}
	return database.NewPage(items, total, f.PageRequest), nil
}

// Get loads one request with its vote state
func (s *Service) Get(ctx context.Context, viewerID, id uint) (*database.FeatureRequest, error) {
	db := s.db.WithContext(ctx)
	var fr database.FeatureRequest
	if err := db.Scopes(withAuthor).First(&fr, id).Error; err != nil {
		return nil, api.TranslateDBError(err, resource, id)
	}
	items := []database.FeatureRequest{fr}
	if err := attachVotes(db, viewerID, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

type voteCount struct {
	FeatureRequestID uint
	Votes            int64
}

func attachVotes(db *gorm.DB, viewerID uint, items []database.FeatureRequest) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uint, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	var counts []voteCount
	err := db.Model(&database.FeatureVote{}).
		Select("feature_request_id, COUNT(*) AS votes").
		Where("feature_request_id IN ?", ids).
		Group("feature_request_id").
		Scan(&counts).Error
	if err != nil {
		return api.TranslateDBError(err, "feature votes", "")
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.FeatureRequestID] = c.Votes
	}

	voted := map[uint]bool{}
	if viewerID != 0 {
		var mine []uint
		err := db.Model(&database.FeatureVote{}).
			Where("user_id = ? AND feature_request_id IN ?", viewerID, ids).
			Pluck("feature_request_id", &mine).Error
		if err != nil {
			return api.TranslateDBError(err, "feature votes", "")
		}
		for _, id := range mine {
			voted[id] = true
		}
	}

	for i := range items {
		items[i].Votes = byID[items[i].ID]
		items[i].Voted = voted[items[i].ID]
	}
	return nil
}

// Create files a new request in pendiente with medium priority
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*database.FeatureRequest, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, types.NewValidationError("title is required")
	}
	kind := in.Type
	if kind == "" {
		kind = database.FeatureTypeIdea
	}
	if !validType(kind) {
		return nil, types.NewValidationError("invalid type", string(kind))
	}

	fr := &database.FeatureRequest{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Type:        kind,
		Status:      database.FeatureStatusPending,
		Priority:    database.FeaturePriorityMedium,
	}
	if err := s.db.WithContext(ctx).Create(fr).Error; err != nil {
		return nil, api.TranslateDBError(err, resource, title)
	}
	return s.Get(ctx, userID, fr.ID)
}

// Update applies an admin status or priority change. Status moves are
// checked against the lifecycle.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*database.FeatureRequest, error) {
	if in.Status == nil && in.Priority == nil {
		return nil, types.NewValidationError("status or priority is required")
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return nil, types.NewValidationError("invalid status", string(*in.Status))
	}
	if in.Priority != nil && !validPriority(*in.Priority) {
		return nil, types.NewValidationError("invalid priority", string(*in.Priority))
	}

	db := s.db.WithContext(ctx)
	var fr database.FeatureRequest
	if err := db.First(&fr, id).Error; err != nil {
		return nil, api.TranslateDBError(err, resource, id)
	}

	updates := map[string]interface{}{}
	if in.Status != nil && *in.Status != fr.Status {
		if !CanTransition(fr.Status, *in.Status) {
			return nil, types.NewValidationError("invalid status transition", string(fr.Status)+" -> "+string(*in.Status))
		}
		updates["status"] = *in.Status
	}
	if in.Priority != nil && *in.Priority != fr.Priority {
		updates["priority"] = *in.Priority
	}
	if len(updates) > 0 {
		if err := db.Model(&fr).Updates(updates).Error; err != nil {
			return nil, api.TranslateDBError(err, resource, id)
		}
		logger.Info("feature request updated", "id", id, "changes", updates)
	}
	return s.Get(ctx, 0, id)
}

// Delete removes a request and its votes. Admins may delete anything;
// authors only their own pending requests.
func (s *Service) Delete(ctx context.Context, caller *auth.Identity, id uint) error {
	return s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		var fr database.FeatureRequest
		if err := tx.First(&fr, id).Error; err != nil {
			return api.TranslateDBError(err, resource, id)
		}
		if !caller.HasRole(database.RoleAdmin) {
			if fr.UserID != caller.UserID {
				return types.NewForbiddenError("only the author or an admin can delete this request")
			}
			if fr.Status != database.FeatureStatusPending {
				return types.NewForbiddenError("only pending requests can be withdrawn")
			}
		}
		if err := tx.Where("feature_request_id = ?", id).Delete(&database.FeatureVote{}).Error; err != nil {
			return api.TranslateDBError(err, resource, id)
		}
		return api.TranslateDBError(tx.Delete(&fr).Error, resource, id)
	})
}

// ToggleVote adds the caller's vote, or removes it when present
func (s *Service) ToggleVote(ctx context.Context, userID, id uint) (*VoteResult, error) {
	result := &VoteResult{}
	err := s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND feature_request_id = ?", userID, id).Delete(&database.FeatureVote{})
		if res.Error != nil {
			return api.TranslateDBError(res.Error, "feature vote", id)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&database.FeatureRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return api.TranslateDBError(err, resource, id)
			}
			if count == 0 {
				return types.NewNotFoundError(resource, id)
			}
			vote := &database.FeatureVote{UserID: userID, FeatureRequestID: id}
			if err := tx.Create(vote).Error; err != nil {
				return api.TranslateDBError(err, "feature vote", id)
			}
			result.Voted = true
		}
		err := tx.Model(&database.FeatureVote{}).Where("feature_request_id = ?", id).Count(&result.Votes).Error
		return api.TranslateDBError(err, "feature vote", id)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
