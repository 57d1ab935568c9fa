package lookupmodule

import (
	"strings"

	"github.com/mantonx/mediacatalog/internal/database"
)

// Input is the writable part of any lookup. Kinds ignore the fields they do
// not have.
type Input struct {
	Name        string `json:"name" binding:"required,max=191"`
	Photo       string `json:"photo" binding:"max=1024"`
	Code        string `json:"code" binding:"max=8"`
	Description string `json:"description" binding:"max=5000"`
}

func (in Input) name() string {
	return strings.TrimSpace(in.Name)
}

// joinTable is a table referencing a lookup through Kind.Column. Owner and
// Credit form the natural key used to detect duplicates on merge.
type joinTable struct {
	Table  string
	Owner  string
	Credit string
}

// Kind describes one lookup entity: its route segment and the rows that
// reference it
type Kind struct {
	Path     string
	Resource string
	Table    string

	// Column is the referencing column in JoinTables
	Column     string
	JoinTables []joinTable
	// SeriesColumn is a nullable foreign key on series
	SeriesColumn string

	Mergeable bool
}

var (
	ActorKind = Kind{
		Path: "actors", Table: "actors", Resource: "actor", Column: "actor_id", Mergeable: true,
		JoinTables: []joinTable{
			{Table: "series_actors", Owner: "series_id", Credit: "character_name"},
			{Table: "season_actors", Owner: "season_id", Credit: "character_name"},
		},
	}
	DirectorKind = Kind{
		Path: "directors", Table: "directors", Resource: "director", Column: "director_id", Mergeable: true,
		JoinTables: []joinTable{{Table: "series_directors", Owner: "series_id"}},
	}
	TagKind = Kind{
		Path: "tags", Table: "tags", Resource: "tag", Column: "tag_id", Mergeable: true,
		JoinTables: []joinTable{{Table: "series_tags", Owner: "series_id"}},
	}
	GenreKind = Kind{
		Path: "genres", Table: "genres", Resource: "genre", Column: "genre_id",
		JoinTables: []joinTable{{Table: "series_genres", Owner: "series_id"}},
	}
	CountryKind           = Kind{Path: "countries", Table: "countries", Resource: "country", SeriesColumn: "country_id"}
	LanguageKind          = Kind{Path: "languages", Table: "languages", Resource: "language", SeriesColumn: "original_language_id"}
	ProductionCompanyKind = Kind{Path: "production-companies", Table: "production_companies", Resource: "production company", SeriesColumn: "production_company_id"}
	UniverseKind          = Kind{Path: "universes", Table: "universes", Resource: "universe", SeriesColumn: "universe_id"}
)

// MergeKinds maps the merge CLI and routes onto kinds
var MergeKinds = map[string]Kind{
	ActorKind.Path:    ActorKind,
	DirectorKind.Path: DirectorKind,
	TagKind.Path:      TagKind,
}

func applyActor(in Input, a *database.Actor) {
	a.Name = in.name()
	a.Photo = strings.TrimSpace(in.Photo)
}

func applyDirector(in Input, d *database.Director) {
	d.Name = in.name()
	d.Photo = strings.TrimSpace(in.Photo)
}

func applyTag(in Input, t *database.Tag) { t.Name = in.name() }

func applyGenre(in Input, g *database.Genre) { g.Name = in.name() }

func applyCountry(in Input, c *database.Country) {
	c.Name = in.name()
	c.Code = strings.ToUpper(strings.TrimSpace(in.Code))
}

func applyLanguage(in Input, l *database.Language) {
	l.Name = in.name()
	l.Code = strings.ToLower(strings.TrimSpace(in.Code))
}

func applyProductionCompany(in Input, p *database.ProductionCompany) { p.Name = in.name() }

func applyUniverse(in Input, u *database.Universe) {
	u.Name = in.name()
	u.Description = in.Description
}
