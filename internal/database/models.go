package database

import (
	"time"
)

// Role is the authorization level of a user account
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleVisitor   Role = "VISITOR"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleVisitor:
		return true
	}
	return false
}

// User is an account backed by an external identity
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Subject   string     `gorm:"size:191;index" json:"-"`
	Email     string     `gorm:"size:191;uniqueIndex;not null" json:"email,omitempty"`
	Name      string     `gorm:"size:191" json:"name"`
	Image     string     `gorm:"size:1024" json:"image,omitempty"`
	Role      Role       `gorm:"type:varchar(16);not null;default:'VISITOR'" json:"role,omitempty"`
	Banned    bool       `gorm:"not null;default:false" json:"banned,omitempty"`
	BannedAt  *time.Time `json:"bannedAt,omitempty"`
	BanReason string     `gorm:"size:512" json:"banReason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BannedIP is a block-list entry keyed by IP string
type BannedIP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IP        string    `gorm:"size:64;uniqueIndex;not null" json:"ip"`
	Reason    string    `gorm:"size:512" json:"reason"`
	CreatedBy *uint     `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AccessLog records a page view or API action
type AccessLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IP        string    `gorm:"size:64;index" json:"ip"`
	UserAgent string    `gorm:"size:512" json:"userAgent"`
	Method    string    `gorm:"size:8" json:"method"`
	Path      string    `gorm:"size:2048;index" json:"path"`
	Action    string    `gorm:"size:32;index" json:"action"`
	UserID    *uint     `gorm:"index" json:"userId,omitempty"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// Lookup entities

type Actor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Photo     string    `gorm:"size:1024" json:"photo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Director struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Photo     string    `gorm:"size:1024" json:"photo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Country struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Code      string    `gorm:"size:8" json:"code,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Language struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Code      string    `gorm:"size:8" json:"code,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProductionCompany struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Universe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SeriesType distinguishes series from one-off titles
type SeriesType string

const (
	SeriesTypeSeries  SeriesType = "series"
	SeriesTypeFilm    SeriesType = "film"
	SeriesTypeShort   SeriesType = "short"
	SeriesTypeSpecial SeriesType = "special"
)

// Series is the root catalog entry
type Series struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:191;not null;uniqueIndex:idx_series_title_year" json:"title"`
	OriginalTitle string     `gorm:"size:191" json:"originalTitle,omitempty"`
	Year          int        `gorm:"not null;default:0;uniqueIndex:idx_series_title_year" json:"year"`
	Type          SeriesType `gorm:"type:varchar(16);not null;default:'series';index" json:"type"`
	Synopsis      string     `gorm:"type:text" json:"synopsis,omitempty"`
	Poster        string     `gorm:"size:1024" json:"poster,omitempty"`
	Rating        *float64   `json:"rating,omitempty"`
	IMDBRating    *float64   `gorm:"column:imdb_rating" json:"imdbRating,omitempty"`
	Favorite      bool       `gorm:"not null;default:false;index" json:"favorite"`

	CountryID           *uint              `gorm:"index" json:"countryId,omitempty"`
	Country             *Country           `json:"country,omitempty"`
	UniverseID          *uint              `gorm:"index" json:"universeId,omitempty"`
	Universe            *Universe          `json:"universe,omitempty"`
	ProductionCompanyID *uint              `gorm:"index" json:"productionCompanyId,omitempty"`
	ProductionCompany   *ProductionCompany `json:"productionCompany,omitempty"`
	OriginalLanguageID  *uint              `gorm:"index" json:"originalLanguageId,omitempty"`
	OriginalLanguage    *Language          `gorm:"foreignKey:OriginalLanguageID" json:"originalLanguage,omitempty"`

	Seasons   []Season         `json:"seasons,omitempty"`
	Credits   []SeriesActor    `json:"credits,omitempty"`
	Directors []SeriesDirector `json:"directors,omitempty"`
	Tags      []SeriesTag      `json:"tags,omitempty"`
	Genres    []Genre          `gorm:"many2many:series_genres;" json:"genres,omitempty"`
	Related   []*Series        `gorm:"many2many:series_related;joinForeignKey:SeriesID;joinReferences:RelatedID" json:"related,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SeriesActor is an actor credit on a series. The natural key is
// (series, actor, character).
type SeriesActor struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	SeriesID      uint   `gorm:"not null;uniqueIndex:idx_series_actor_credit" json:"seriesId"`
	ActorID       uint   `gorm:"not null;index;uniqueIndex:idx_series_actor_credit" json:"actorId"`
	CharacterName string `gorm:"size:191;not null;default:'';uniqueIndex:idx_series_actor_credit" json:"character"`
	Actor         *Actor `json:"actor,omitempty"`
}

type SeriesDirector struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SeriesID   uint      `gorm:"not null;uniqueIndex:idx_series_director" json:"seriesId"`
	DirectorID uint      `gorm:"not null;index;uniqueIndex:idx_series_director" json:"directorId"`
	Director   *Director `json:"director,omitempty"`
}

type SeriesTag struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SeriesID uint `gorm:"not null;uniqueIndex:idx_series_tag" json:"seriesId"`
	TagID    uint `gorm:"not null;index;uniqueIndex:idx_series_tag" json:"tagId"`
	Tag      *Tag `json:"tag,omitempty"`
}

// Season belongs to a series and owns episodes
type Season struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	SeriesID     uint          `gorm:"not null;uniqueIndex:idx_season_number" json:"seriesId"`
	Number       int           `gorm:"not null;uniqueIndex:idx_season_number" json:"number"`
	Title        string        `gorm:"size:191" json:"title,omitempty"`
	Year         int           `json:"year,omitempty"`
	Poster       string        `gorm:"size:1024" json:"poster,omitempty"`
	EpisodeCount *int          `json:"episodeCount"`
	Episodes     []Episode     `json:"episodes,omitempty"`
	Credits      []SeasonActor `json:"credits,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type SeasonActor struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	SeasonID      uint   `gorm:"not null;uniqueIndex:idx_season_actor_credit" json:"seasonId"`
	ActorID       uint   `gorm:"not null;index;uniqueIndex:idx_season_actor_credit" json:"actorId"`
	CharacterName string `gorm:"size:191;not null;default:'';uniqueIndex:idx_season_actor_credit" json:"character"`
	Actor         *Actor `json:"actor,omitempty"`
}

// Episode belongs to a season
type Episode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SeasonID  uint       `gorm:"not null;uniqueIndex:idx_episode_number" json:"seasonId"`
	Number    int        `gorm:"not null;uniqueIndex:idx_episode_number" json:"number"`
	Title     string     `gorm:"size:191" json:"title"`
	Synopsis  string     `gorm:"type:text" json:"synopsis,omitempty"`
	AirDate   *time.Time `json:"airDate,omitempty"`
	Duration  int        `json:"duration,omitempty"` // minutes
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ViewState is the coarse per-user progress on a series
type ViewState string

const (
	ViewStatePending   ViewState = "PENDIENTE"
	ViewStateWatching  ViewState = "VIENDO"
	ViewStateWatched   ViewState = "VISTA"
	ViewStateAbandoned ViewState = "ABANDONADA"
)

// EpisodeStatus is the two-state per-user progress on an episode
type EpisodeStatus string

const (
	EpisodeSeen   EpisodeStatus = "VISTA"
	EpisodeUnseen EpisodeStatus = "NO_VISTA"
)

// SeriesViewStatus holds at most one row per (user, series)
type SeriesViewStatus struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;uniqueIndex:idx_series_view_status" json:"userId"`
	SeriesID      uint       `gorm:"not null;uniqueIndex:idx_series_view_status;index" json:"seriesId"`
	State         ViewState  `gorm:"type:varchar(16);not null;default:'PENDIENTE'" json:"state"`
	Watched       bool       `gorm:"not null;default:false" json:"watched"`
	WatchedDate   *time.Time `json:"watchedDate"`
	Watching      bool       `gorm:"not null;default:false" json:"watching"`
	LastWatchedAt *time.Time `json:"lastWatchedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// EpisodeViewStatus holds at most one row per (user, episode)
type EpisodeViewStatus struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"not null;uniqueIndex:idx_episode_view_status" json:"userId"`
	EpisodeID   uint          `gorm:"not null;uniqueIndex:idx_episode_view_status;index" json:"episodeId"`
	Status      EpisodeStatus `gorm:"type:varchar(16);not null" json:"status"`
	WatchedDate *time.Time    `json:"watchedDate"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Comment is attached to exactly one of series, season or episode
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Private   bool      `gorm:"not null;default:false" json:"private"`
	SeriesID  *uint     `gorm:"index" json:"seriesId,omitempty"`
	SeasonID  *uint     `gorm:"index" json:"seasonId,omitempty"`
	EpisodeID *uint     `gorm:"index" json:"episodeId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rating is a user's score for a series
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rating_user_series" json:"userId"`
	SeriesID  uint      `gorm:"not null;uniqueIndex:idx_rating_user_series;index" json:"seriesId"`
	Score     int       `gorm:"not null" json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Favorite marks a series as a user's favorite
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_series" json:"userId"`
	SeriesID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_series;index" json:"seriesId"`
	Series    *Series   `json:"series,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type FeatureType string

const (
	FeatureTypeIdea    FeatureType = "idea"
	FeatureTypeBug     FeatureType = "bug"
	FeatureTypeFeature FeatureType = "feature"
)

type FeatureStatus string

const (
	FeatureStatusPending    FeatureStatus = "pendiente"
	FeatureStatusInProgress FeatureStatus = "en_progreso"
	FeatureStatusCompleted  FeatureStatus = "completado"
	FeatureStatusDiscarded  FeatureStatus = "descartado"
)

type FeaturePriority string

const (
	FeaturePriorityLow    FeaturePriority = "baja"
	FeaturePriorityMedium FeaturePriority = "media"
	FeaturePriorityHigh   FeaturePriority = "alta"
)

// FeatureRequest is a user-submitted idea, bug or feature
type FeatureRequest struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"userId"`
	User        *User           `json:"user,omitempty"`
	Title       string          `gorm:"size:191;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Type        FeatureType     `gorm:"type:varchar(16);not null;default:'idea'" json:"type"`
	Status      FeatureStatus   `gorm:"type:varchar(16);not null;default:'pendiente';index" json:"status"`
	Priority    FeaturePriority `gorm:"type:varchar(16);not null;default:'media'" json:"priority"`
	Votes       int64           `gorm:"-" json:"votes"`
	Voted       bool            `gorm:"-" json:"voted"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FeatureVote is unique per (user, request)
type FeatureVote struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_feature_vote" json:"userId"`
	FeatureRequestID uint      `gorm:"not null;uniqueIndex:idx_feature_vote;index" json:"featureRequestId"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Sites

type RecommendedSite struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:191;not null" json:"name"`
	URL         string    `gorm:"size:1024;uniqueIndex;not null" json:"url"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Category    string    `gorm:"size:64;index" json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

type SuggestedSite struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index" json:"userId"`
	Name       string           `gorm:"size:191;not null" json:"name"`
	URL        string           `gorm:"size:1024;not null" json:"url"`
	Reason     string           `gorm:"type:text" json:"reason,omitempty"`
	Status     SuggestionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ReviewedBy *uint            `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time       `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// EmbeddableContent is an externally hosted video linked to the catalog
type EmbeddableContent struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:512;not null" json:"title"`
	URL         string     `gorm:"size:1024;uniqueIndex;not null" json:"url"`
	Provider    string     `gorm:"size:32;not null;default:'youtube'" json:"provider"`
	ExternalID  string     `gorm:"size:64;index" json:"externalId,omitempty"`
	ChannelID   string     `gorm:"size:64;index" json:"channelId,omitempty"`
	Thumbnail   string     `gorm:"size:1024" json:"thumbnail,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	SeriesID    *uint      `gorm:"index" json:"seriesId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
