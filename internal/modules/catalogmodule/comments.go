package catalogmodule

import (
	"context"
	"strings"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// CommentTarget names exactly one of series, season or episode
type CommentTarget struct {
	SeriesID  *uint `json:"seriesId" form:"seriesId"`
	SeasonID  *uint `json:"seasonId" form:"seasonId"`
	EpisodeID *uint `json:"episodeId" form:"episodeId"`
}

// CommentInput creates a comment
type CommentInput struct {
	Content string `json:"content" binding:"required,max=5000"`
	Private bool   `json:"private"`
	CommentTarget
}

// CommentUpdate edits a comment
type CommentUpdate struct {
	Content string `json:"content" binding:"required,max=5000"`
	Private *bool  `json:"private"`
}

type commentTarget struct {
	column   string
	model    interface{}
	resource string
	id       uint
}

func (t CommentTarget) resolve() (commentTarget, error) {
	var targets []commentTarget
	if t.SeriesID != nil {
		targets = append(targets, commentTarget{"series_id", &database.Series{}, "series", *t.SeriesID})
	}
	if t.SeasonID != nil {
		targets = append(targets, commentTarget{"season_id", &database.Season{}, "season", *t.SeasonID})
	}
	if t.EpisodeID != nil {
		targets = append(targets, commentTarget{"episode_id", &database.Episode{}, "episode", *t.EpisodeID})
	}
	if len(targets) != 1 {
		return commentTarget{}, types.NewValidationError("exactly one of seriesId, seasonId or episodeId is required")
	}
	return targets[0], nil
}

func withCommentAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "image") })
}

// ListComments returns the comments on a target, oldest first. Private
// comments are only included for their author.
func (s *Service) ListComments(ctx context.Context, viewerID uint, target CommentTarget) ([]database.Comment, error) {
	t, err := target.resolve()
	if err != nil {
		return nil, err
	}

	comments := []database.Comment{}
	err = s.db.WithContext(ctx).
		Scopes(withCommentAuthor).
		Where(t.column+" = ?", t.id).
		Where("private = ? OR user_id = ?", false, viewerID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, api.TranslateDBError(err, "comments", t.id)
	}
	return comments, nil
}

// CreateComment attaches a comment to an existing target
func (s *Service) CreateComment(ctx context.Context, userID uint, in CommentInput) (*database.Comment, error) {
	t, err := in.CommentTarget.resolve()
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, types.NewValidationError("content is required")
	}

	db := s.db.WithContext(ctx)
	if err := mustExist(db, t.model, t.resource, t.id); err != nil {
		return nil, err
	}

	comment := &database.Comment{UserID: userID, Content: content, Private: in.Private}
	switch t.column {
	case "series_id":
		comment.SeriesID = &t.id
	case "season_id":
		comment.SeasonID = &t.id
	default:
		comment.EpisodeID = &t.id
	}
	if err := db.Create(comment).Error; err != nil {
		return nil, api.TranslateDBError(err, "comment", "")
	}
	return s.loadComment(db, comment.ID)
}

// UpdateComment edits a comment. Only the author may edit.
func (s *Service) UpdateComment(ctx context.Context, caller *auth.Identity, id uint, in CommentUpdate) (*database.Comment, error) {
	db := s.db.WithContext(ctx)
	comment, err := s.loadComment(db, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != caller.UserID {
		return nil, types.NewForbiddenError("only the author can edit this comment")
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, types.NewValidationError("content is required")
	}
	updates := map[string]interface{}{"content": content}
	if in.Private != nil {
		updates["private"] = *in.Private
	}
	if err := db.Model(&database.Comment{ID: id}).Updates(updates).Error; err != nil {
		return nil, api.TranslateDBError(err, "comment", id)
	}
	return s.loadComment(db, id)
}

// DeleteComment removes a comment. Authors and staff may delete.
func (s *Service) DeleteComment(ctx context.Context, caller *auth.Identity, id uint) error {
	db := s.db.WithContext(ctx)
	var comment database.Comment
	if err := db.First(&comment, id).Error; err != nil {
		return api.TranslateDBError(err, "comment", id)
	}
	if comment.UserID != caller.UserID && !caller.IsStaff() {
		return types.NewForbiddenError("only the author or a moderator can delete this comment")
	}
	return api.TranslateDBError(db.Delete(&database.Comment{}, id).Error, "comment", id)
}

func (s *Service) loadComment(db *gorm.DB, id uint) (*database.Comment, error) {
	var comment database.Comment
	if err := db.Scopes(withCommentAuthor).First(&comment, id).Error; err != nil {
		return nil, api.TranslateDBError(err, "comment", id)
	}
	return &comment, nil
}
