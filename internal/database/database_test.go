package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyOnSQLite(t *testing.T) {
	db := dbtest.New(t)

	require.NoError(t, db.Create(&database.Tag{Name: "drama"}).Error)
	err := db.Create(&database.Tag{Name: "drama"}).Error
	require.Error(t, err)
	assert.True(t, database.IsDuplicateKey(err))
	assert.False(t, database.IsNotFound(err))
}

func TestSeriesTitleYearIsUnique(t *testing.T) {
	db := dbtest.New(t)

	require.NoError(t, db.Create(&database.Series{Title: "Dark", Year: 2017}).Error)
	require.NoError(t, db.Create(&database.Series{Title: "Dark", Year: 2018}).Error)

	err := db.Create(&database.Series{Title: "Dark", Year: 2017}).Error
	assert.True(t, database.IsDuplicateKey(err))
}

func TestIsDuplicateKeyOnPostgresError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, database.IsDuplicateKey(fmt.Errorf("insert: %w", pgErr)))
	assert.False(t, database.IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.True(t, database.IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.False(t, database.IsDuplicateKey(nil))
	assert.False(t, database.IsDuplicateKey(errors.New("connection refused")))
}

func TestIsNotFound(t *testing.T) {
	db := dbtest.New(t)

	var actor database.Actor
	err := db.First(&actor, 42).Error
	assert.True(t, database.IsNotFound(err))
	assert.False(t, database.IsDuplicateKey(err))
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        database.PageRequest
		wantPage  int
		wantLimit int
		offset    int
	}{
		{"defaults", database.PageRequest{}, 1, database.DefaultPageSize, 0},
		{"third page", database.PageRequest{Page: 3, Limit: 10}, 3, 10, 20},
		{"clamped", database.PageRequest{Page: -2, Limit: 1000}, 1, database.MaxPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.in.Normalize()
			assert.Equal(t, tt.wantPage, n.Page)
			assert.Equal(t, tt.wantLimit, n.Limit)
			assert.Equal(t, tt.offset, tt.in.Offset())
		})
	}
}

func TestNewPage(t *testing.T) {
	page := database.NewPage([]int{1, 2}, 45, database.PageRequest{Page: 2, Limit: 20})
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(45), page.Total)
	assert.Equal(t, []int{1, 2}, page.Items)

	empty := database.NewPage[int](nil, 0, database.PageRequest{})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, database.RoleAdmin.Valid())
	assert.True(t, database.RoleModerator.Valid())
	assert.True(t, database.RoleVisitor.Valid())
	assert.False(t, database.Role("ROOT").Valid())
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, `%100\% pure%`, database.ContainsPattern(" 100% Pure "))
	assert.Equal(t, `/api/a\_b%`, database.PrefixPattern("/api/a_b"))

	db := dbtest.New(t)
	require.NoError(t, db.Create(&database.Tag{Name: "a_b"}).Error)
	require.NoError(t, db.Create(&database.Tag{Name: "axb"}).Error)

	var tags []database.Tag
	require.NoError(t, db.Where("LOWER(name) LIKE ?"+database.LikeEscapeClause, database.ContainsPattern("a_b")).Find(&tags).Error)
	require.Len(t, tags, 1)
	assert.Equal(t, "a_b", tags[0].Name)
}
