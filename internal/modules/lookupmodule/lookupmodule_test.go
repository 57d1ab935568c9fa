package lookupmodule

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/database/dbtest"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/testutil"
	"github.com/mantonx/mediacatalog/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env    *testutil.Env
	module *Module
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	m := &Module{
		db:     env.DB,
		tx:     env.Tx,
		auth:   env.Auth,
		stores: NewStores(env.DB, env.Tx),
		merger: NewMerger(env.Tx),
	}
	router := gin.New()
	m.RegisterRoutes(router)
	return &fixture{env: env, module: m, router: router}
}

func (f *fixture) create(t *testing.T, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, f.env.DB.Create(row).Error)
	}
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.env.DB.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func id(n uint) string { return strconv.FormatUint(uint64(n), 10) }

func TestMergeActorsMovesAndDiscardsCredits(t *testing.T) {
	f := newFixture(t)

	source := &database.Actor{ID: 5, Name: "Álvaro Morte"}
	target := &database.Actor{ID: 9, Name: "Alvaro Morte"}
	heist := &database.Series{Title: "La casa de papel", Year: 2017}
	ark := &database.Series{Title: "El embarcadero", Year: 2019}
	f.create(t, source, target, heist, ark)
	f.create(t,
		&database.SeriesActor{SeriesID: heist.ID, ActorID: source.ID, CharacterName: "El Profesor"},
		&database.SeriesActor{SeriesID: ark.ID, ActorID: source.ID, CharacterName: "Óscar"},
		&database.SeriesActor{SeriesID: heist.ID, ActorID: target.ID, CharacterName: "El Profesor"},
	)
	season := &database.Season{SeriesID: heist.ID, Number: 1}
	f.create(t, season)
	f.create(t, &database.SeasonActor{SeasonID: season.ID, ActorID: source.ID, CharacterName: "El Profesor"})

	result, err := f.module.merger.Merge(context.Background(), ActorKind, source.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Moved)
	assert.Equal(t, 1, result.Discarded)
	assert.Equal(t, target.ID, result.TargetID)

	assert.Zero(t, f.count(t, &database.Actor{}, "id = ?", source.ID))
	assert.Zero(t, f.count(t, &database.SeriesActor{}, "actor_id = ?", source.ID))
	assert.Equal(t, int64(2), f.count(t, &database.SeriesActor{}, "actor_id = ?", target.ID))
	assert.Equal(t, int64(1), f.count(t, &database.SeasonActor{}, "actor_id = ?", target.ID))

	var credit database.SeriesActor
	require.NoError(t, f.env.DB.Where("series_id = ? AND actor_id = ?", ark.ID, target.ID).First(&credit).Error)
	assert.Equal(t, "Óscar", credit.CharacterName)
}

func TestMergeKeepsDistinctCharacters(t *testing.T) {
	f := newFixture(t)

	source := &database.Actor{Name: "Source"}
	target := &database.Actor{Name: "Target"}
	series := &database.Series{Title: "Élite", Year: 2018}
	f.create(t, source, target, series)
	f.create(t,
		&database.SeriesActor{SeriesID: series.ID, ActorID: source.ID, CharacterName: "Samuel"},
		&database.SeriesActor{SeriesID: series.ID, ActorID: target.ID, CharacterName: "Nano"},
	)

	result, err := f.module.merger.Merge(context.Background(), ActorKind, source.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Moved)
	assert.Zero(t, result.Discarded)
	assert.Equal(t, int64(2), f.count(t, &database.SeriesActor{}, "actor_id = ?", target.ID))
}

func TestMergeTags(t *testing.T) {
	f := newFixture(t)

	source := &database.Tag{Name: "atracos"}
	target := &database.Tag{Name: "heist"}
	a := &database.Series{Title: "A", Year: 2001}
	b := &database.Series{Title: "B", Year: 2002}
	f.create(t, source, target, a, b)
	f.create(t,
		&database.SeriesTag{SeriesID: a.ID, TagID: source.ID},
		&database.SeriesTag{SeriesID: b.ID, TagID: source.ID},
		&database.SeriesTag{SeriesID: a.ID, TagID: target.ID},
	)

	result, err := f.module.merger.Merge(context.Background(), TagKind, source.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Moved)
	assert.Equal(t, 1, result.Discarded)
	assert.Equal(t, int64(2), f.count(t, &database.SeriesTag{}, "tag_id = ?", target.ID))
	assert.Zero(t, f.count(t, &database.Tag{}, "id = ?", source.ID))
}

func TestMergeRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	actor := &database.Actor{Name: "Úrsula Corberó"}
	series := &database.Series{Title: "Tokio", Year: 2020}
	f.create(t, actor, series)
	f.create(t, &database.SeriesActor{SeriesID: series.ID, ActorID: actor.ID, CharacterName: "Tokio"})

	t.Run("self merge", func(t *testing.T) {
		_, err := f.module.merger.Merge(ctx, ActorKind, actor.ID, actor.ID)
		assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
		assert.Equal(t, int64(1), f.count(t, &database.Actor{}, ""))
		assert.Equal(t, int64(1), f.count(t, &database.SeriesActor{}, "actor_id = ?", actor.ID))
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := f.module.merger.Merge(ctx, ActorKind, actor.ID, 999)
		assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
		assert.Equal(t, int64(1), f.count(t, &database.SeriesActor{}, "actor_id = ?", actor.ID))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := f.module.merger.Merge(ctx, ActorKind, 998, actor.ID)
		assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
	})

	t.Run("kind without merge", func(t *testing.T) {
		_, err := f.module.merger.Merge(ctx, GenreKind, 1, 2)
		assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
	})
}

func TestMergeFailureRollsBack(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	merger := NewMerger(databasemodule.NewTransactionManager(db))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "directors"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := merger.Merge(context.Background(), DirectorKind, 1, 2)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrorCodeMergeFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	countries := f.module.stores.Countries

	spain, err := countries.Create(ctx, Input{Name: " Spain ", Code: "es"})
	require.NoError(t, err)
	assert.Equal(t, "Spain", spain.Name)
	assert.Equal(t, "ES", spain.Code)

	_, err = countries.Create(ctx, Input{Name: "Spain"})
	assert.True(t, types.IsCode(err, types.ErrorCodeAlreadyExists))

	_, err = countries.Create(ctx, Input{Name: "   "})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	_, err = countries.Create(ctx, Input{Name: "Argentina", Code: "ar"})
	require.NoError(t, err)

	page, err := countries.List(ctx, ListFilter{Search: "SPA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, spain.ID, page.Items[0].ID)

	all, err := countries.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "Argentina", all.Items[0].Name, "ordered by name")

	updated, err := countries.Update(ctx, spain.ID, Input{Name: "España", Code: "es"})
	require.NoError(t, err)
	assert.Equal(t, "España", updated.Name)

	_, err = countries.Get(ctx, 404)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
	_, err = countries.Update(ctx, 404, Input{Name: "Nowhere"})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}

func TestStoreDeleteUnlinksSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	country := &database.Country{Name: "Spain"}
	genre := &database.Genre{Name: "Drama"}
	f.create(t, country, genre)
	series := &database.Series{Title: "Velvet", Year: 2014, CountryID: &country.ID}
	f.create(t, series)
	require.NoError(t, f.env.DB.Exec("INSERT INTO series_genres (series_id, genre_id) VALUES (?, ?)", series.ID, genre.ID).Error)

	require.NoError(t, f.module.stores.Countries.Delete(ctx, country.ID))
	var reloaded database.Series
	require.NoError(t, f.env.DB.First(&reloaded, series.ID).Error)
	assert.Nil(t, reloaded.CountryID)

	require.NoError(t, f.module.stores.Genres.Delete(ctx, genre.ID))
	var links int64
	require.NoError(t, f.env.DB.Table("series_genres").Where("series_id = ?", series.ID).Count(&links).Error)
	assert.Zero(t, links)

	err := f.module.stores.Genres.Delete(ctx, genre.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}

func TestLookupRoutes(t *testing.T) {
	f := newFixture(t)
	admin := f.env.Token(t, f.env.User(t, "admin@example.com", database.RoleAdmin))
	moderator := f.env.Token(t, f.env.User(t, "mod@example.com", database.RoleModerator))
	visitor := f.env.Token(t, f.env.User(t, "guest@example.com", database.RoleVisitor))

	w := testutil.Request(t, f.router, http.MethodPost, "/api/actors", Input{Name: "Itziar Ituño"}, visitor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/actors", Input{Name: "Itziar Ituño"}, moderator)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	source := testutil.Decode[database.Actor](t, w)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/actors", map[string]string{}, moderator)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/actors", Input{Name: "Itziar Ituno"}, moderator)
	require.Equal(t, http.StatusCreated, w.Code)
	target := testutil.Decode[database.Actor](t, w)

	w = testutil.Request(t, f.router, http.MethodGet, "/api/actors?search=itziar", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := testutil.Decode[database.Page[database.Actor]](t, w)
	assert.Equal(t, int64(2), page.Total)

	w = testutil.Request(t, f.router, http.MethodDelete, "/api/actors/"+id(source.ID), nil, moderator)
	assert.Equal(t, http.StatusForbidden, w.Code)

	merge := MergeRequest{SourceID: source.ID, TargetID: target.ID}
	w = testutil.Request(t, f.router, http.MethodPost, "/api/actors/merge", merge, moderator)
	assert.Equal(t, http.StatusForbidden, w.Code)

	self := MergeRequest{SourceID: source.ID, TargetID: source.ID}
	w = testutil.Request(t, f.router, http.MethodPost, "/api/actors/merge", self, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/actors/merge", merge, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := testutil.Decode[MergeResult](t, w)
	assert.Equal(t, target.ID, result.TargetID)

	w = testutil.Request(t, f.router, http.MethodGet, "/api/actors/"+id(source.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/genres/merge", merge, admin)
	assert.Equal(t, http.StatusNotFound, w.Code, "genres have no merge route")

	w = testutil.Request(t, f.router, http.MethodDelete, "/api/actors/"+id(target.ID), nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
