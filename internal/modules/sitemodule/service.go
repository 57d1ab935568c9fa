package sitemodule

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

var channelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SiteInput creates or edits a recommended site
type SiteInput struct {
	Name        string `json:"name" binding:"required,max=191"`
	URL         string `json:"url" binding:"required,url,max=1024"`
	Description string `json:"description" binding:"max=5000"`
	Category    string `json:"category" binding:"max=64"`
}

// SuggestionInput is a site proposed by a user
type SuggestionInput struct {
	Name   string `json:"name" binding:"required,max=191"`
	URL    string `json:"url" binding:"required,url,max=1024"`
	Reason string `json:"reason" binding:"max=5000"`
}

// SuggestionFilter narrows the review queue
type SuggestionFilter struct {
	Status database.SuggestionStatus `form:"status"`
	database.PageRequest
}

// EmbedInput links an external video
type EmbedInput struct {
	Title     string `json:"title" binding:"required,max=512"`
	URL       string `json:"url" binding:"required,url,max=1024"`
	Provider  string `json:"provider" binding:"max=32"`
	Thumbnail string `json:"thumbnail" binding:"max=1024"`
	SeriesID  *uint  `json:"seriesId"`
}

// ImportInput names the channel to import and the series to attach to
type ImportInput struct {
	ChannelID string `json:"channelId" binding:"required"`
	SeriesID  *uint  `json:"seriesId"`
}

// ImportResult reports how many feed entries became embeds
type ImportResult struct {
	Created int                          `json:"created"`
	Skipped int                          `json:"skipped"`
	Items   []database.EmbeddableContent `json:"items"`
}

type feedFetcher interface {
	Fetch(ctx context.Context, channelID string) (*channelFeed, error)
}

type Service struct {
	db   *gorm.DB
	tx   *databasemodule.TransactionManager
	feed feedFetcher
	now  func() time.Time
}

func NewService(db *gorm.DB, tx *databasemodule.TransactionManager, feed feedFetcher) *Service {
	return &Service{db: db, tx: tx, feed: feed, now: func() time.Time { return time.Now().UTC() }}
}

// normalizeURL trims u and requires an absolute http(s) address
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", types.NewValidationError("url must be an absolute http or https address", raw)
	}
	return u.String(), nil
}

// ListSites returns every recommended site grouped by category then name
func (s *Service) ListSites(ctx context.Context, category string) ([]database.RecommendedSite, error) {
	q := s.db.WithContext(ctx).Order("category ASC, name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	sites := []database.RecommendedSite{}
	if err := q.Find(&sites).Error; err != nil {
		return nil, api.TranslateDBError(err, "sites", "")
	}
	return sites, nil
}

func (s *Service) CreateSite(ctx context.Context, in SiteInput) (*database.RecommendedSite, error) {
	site := &database.RecommendedSite{}
	if err := applySite(in, site); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(site).Error; err != nil {
		return nil, api.TranslateDBError(err, "site", site.URL)
	}
	return site, nil
}

func (s *Service) UpdateSite(ctx context.Context, id uint, in SiteInput) (*database.RecommendedSite, error) {
	db := s.db.WithContext(ctx)
	var site database.RecommendedSite
	if err := db.First(&site, id).Error; err != nil {
		return nil, api.TranslateDBError(err, "site", id)
	}
	if err := applySite(in, &site); err != nil {
		return nil, err
	}
	if err := db.Save(&site).Error; err != nil {
		return nil, api.TranslateDBError(err, "site", site.URL)
	}
	return &site, nil
}

func (s *Service) DeleteSite(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&database.RecommendedSite{}, id)
	if res.Error != nil {
		return api.TranslateDBError(res.Error, "site", id)
	}
	if res.RowsAffected == 0 {
		return types.NewNotFoundError("site", id)
	}
	return nil
}

func applySite(in SiteInput, site *database.RecommendedSite) error {
	u, err := normalizeURL(in.URL)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return types.NewValidationError("name is required")
	}
	site.Name = name
	site.URL = u
	site.Description = strings.TrimSpace(in.Description)
	site.Category = strings.ToLower(strings.TrimSpace(in.Category))
	return nil
}

// Suggest files a site proposal for review
func (s *Service) Suggest(ctx context.Context, userID uint, in SuggestionInput) (*database.SuggestedSite, error) {
	u, err := normalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	suggestion := &database.SuggestedSite{
		UserID: userID,
		Name:   strings.TrimSpace(in.Name),
		URL:    u,
		Reason: strings.TrimSpace(in.Reason),
		Status: database.SuggestionPending,
	}
	if err := s.db.WithContext(ctx).Create(suggestion).Error; err != nil {
		return nil, api.TranslateDBError(err, "suggestion", u)
	}
	return suggestion, nil
}

// ListSuggestions returns the review queue, oldest first
func (s *Service) ListSuggestions(ctx context.Context, f SuggestionFilter) (database.Page[database.SuggestedSite], error) {
	q := s.db.WithContext(ctx).Model(&database.SuggestedSite{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return database.Page[database.SuggestedSite]{}, api.TranslateDBError(err, "suggestions", "")
	}
	var items []database.SuggestedSite
	if err := q.Scopes(f.PageRequest.Scope()).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return database.Page[database.SuggestedSite]{}, api.TranslateDBError(err, "suggestions", "")
	}
	return database.NewPage(items, total, f.PageRequest), nil
}

// ApproveSuggestion publishes a pending suggestion as a recommended site
func (s *Service) ApproveSuggestion(ctx context.Context, reviewerID, id uint) (*database.RecommendedSite, error) {
	var site *database.RecommendedSite
	err := s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		suggestion, err := s.review(tx, reviewerID, id, database.SuggestionApproved)
		if err != nil {
			return err
		}
		site = &database.RecommendedSite{Name: suggestion.Name, URL: suggestion.URL, Description: suggestion.Reason}
		return api.TranslateDBError(tx.Create(site).Error, "site", suggestion.URL)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("site suggestion approved", "suggestion", id, "site", site.ID, "reviewer", reviewerID)
	return site, nil
}

// RejectSuggestion closes a pending suggestion
func (s *Service) RejectSuggestion(ctx context.Context, reviewerID, id uint) (*database.SuggestedSite, error) {
	var suggestion *database.SuggestedSite
	err := s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		suggestion, err = s.review(tx, reviewerID, id, database.SuggestionRejected)
		return err
	})
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

func (s *Service) review(tx *gorm.DB, reviewerID, id uint, status database.SuggestionStatus) (*database.SuggestedSite, error) {
	var suggestion database.SuggestedSite
	if err := tx.First(&suggestion, id).Error; err != nil {
		return nil, api.TranslateDBError(err, "suggestion", id)
	}
	if suggestion.Status != database.SuggestionPending {
		return nil, types.NewValidationError("suggestion was already reviewed", string(suggestion.Status))
	}
	now := s.now()
	suggestion.Status = status
	suggestion.ReviewedBy = &reviewerID
	suggestion.ReviewedAt = &now
	if err := tx.Save(&suggestion).Error; err != nil {
		return nil, api.TranslateDBError(err, "suggestion", id)
	}
	return &suggestion, nil
}

// ListEmbeds returns embeds, newest first, optionally for one series
func (s *Service) ListEmbeds(ctx context.Context, seriesID uint) ([]database.EmbeddableContent, error) {
	q := s.db.WithContext(ctx).Order("published_at DESC, id DESC")
	if seriesID != 0 {
		q = q.Where("series_id = ?", seriesID)
	}
	embeds := []database.EmbeddableContent{}
	if err := q.Find(&embeds).Error; err != nil {
		return nil, api.TranslateDBError(err, "embeds", "")
	}
	return embeds, nil
}

func (s *Service) CreateEmbed(ctx context.Context, in EmbedInput) (*database.EmbeddableContent, error) {
	u, err := normalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := seriesExists(db, in.SeriesID); err != nil {
		return nil, err
	}
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		provider = "youtube"
	}
	embed := &database.EmbeddableContent{
		Title:     strings.TrimSpace(in.Title),
		URL:       u,
		Provider:  provider,
		Thumbnail: strings.TrimSpace(in.Thumbnail),
		SeriesID:  in.SeriesID,
	}
	if err := db.Create(embed).Error; err != nil {
		return nil, api.TranslateDBError(err, "embed", u)
	}
	return embed, nil
}

func (s *Service) DeleteEmbed(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&database.EmbeddableContent{}, id)
	if res.Error != nil {
		return api.TranslateDBError(res.Error, "embed", id)
	}
	if res.RowsAffected == 0 {
		return types.NewNotFoundError("embed", id)
	}
	return nil
}

func seriesExists(db *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(&database.Series{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return api.TranslateDBError(err, "series", *id)
	}
	if count == 0 {
		return types.NewNotFoundError("series", *id)
	}
	return nil
}

// ImportChannel creates an embed for every feed entry whose URL is not
// stored yet
func (s *Service) ImportChannel(ctx context.Context, in ImportInput) (*ImportResult, error) {
	channelID := strings.TrimSpace(in.ChannelID)
	if !channelIDPattern.MatchString(channelID) {
		return nil, types.NewValidationError("invalid channelId", channelID)
	}
	if err := seriesExists(s.db.WithContext(ctx), in.SeriesID); err != nil {
		return nil, err
	}

	feed, err := s.feed.Fetch(ctx, channelID)
	if err != nil {
		return nil, err
	}

	candidates := make([]database.EmbeddableContent, 0, len(feed.Entries))
	urls := make([]string, 0, len(feed.Entries))
	seen := map[string]bool{}
	for _, e := range feed.Entries {
		u := e.url()
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
		entryChannel := e.ChannelID
		if entryChannel == "" {
			entryChannel = channelID
		}
		candidates = append(candidates, database.EmbeddableContent{
			Title:       strings.TrimSpace(e.Title),
			URL:         u,
			Provider:    "youtube",
			ExternalID:  e.VideoID,
			ChannelID:   entryChannel,
			Thumbnail:   e.Thumbnail.URL,
			PublishedAt: e.publishedAt(),
			SeriesID:    in.SeriesID,
		})
	}

	result := &ImportResult{Items: []database.EmbeddableContent{}}
	err = s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		var existing []string
		if len(urls) > 0 {
			if err := tx.Model(&database.EmbeddableContent{}).Where("url IN ?", urls).Pluck("url", &existing).Error; err != nil {
				return api.TranslateDBError(err, "embeds", channelID)
			}
		}
		stored := make(map[string]bool, len(existing))
		for _, u := range existing {
			stored[u] = true
		}
		for _, c := range candidates {
			if !stored[c.URL] {
				result.Items = append(result.Items, c)
			}
		}
		result.Created = len(result.Items)
		result.Skipped = len(feed.Entries) - result.Created
		if result.Created == 0 {
			return nil
		}
		return api.TranslateDBError(tx.CreateInBatches(&result.Items, 100).Error, "embeds", channelID)
	})
	if err != nil {
		return nil, err
	}

	metrics.ImportedItems.WithLabelValues("created").Add(float64(result.Created))
	metrics.ImportedItems.WithLabelValues("skipped").Add(float64(result.Skipped))
	logger.Info("channel imported", "channel", channelID, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}
