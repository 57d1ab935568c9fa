package featuremodule

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/testutil"
	"github.com/mantonx/mediacatalog/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env    *testutil.Env
	svc    *Service
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	svc := NewService(env.DB, env.Tx)
	m := &Module{db: env.DB, tx: env.Tx, auth: env.Auth, service: svc}
	router := gin.New()
	m.RegisterRoutes(router)
	return &fixture{env: env, svc: svc, router: router}
}

func (f *fixture) request(t *testing.T, author *database.User, id uint, status database.FeatureStatus) *database.FeatureRequest {
	t.Helper()
	fr := &database.FeatureRequest{
		ID:       id,
		UserID:   author.ID,
		Title:    "Dark mode",
		Type:     database.FeatureTypeFeature,
		Status:   status,
		Priority: database.FeaturePriorityMedium,
	}
	require.NoError(t, f.env.DB.Create(fr).Error)
	return fr
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func statusPtr(s database.FeatureStatus) *database.FeatureStatus { return &s }

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to database.FeatureStatus
		want     bool
	}{
		{database.FeatureStatusPending, database.FeatureStatusInProgress, true},
		{database.FeatureStatusPending, database.FeatureStatusDiscarded, true},
		{database.FeatureStatusPending, database.FeatureStatusCompleted, false},
		{database.FeatureStatusInProgress, database.FeatureStatusCompleted, true},
		{database.FeatureStatusInProgress, database.FeatureStatusPending, true},
		{database.FeatureStatusCompleted, database.FeatureStatusPending, false},
		{database.FeatureStatusCompleted, database.FeatureStatusCompleted, true},
		{database.FeatureStatusDiscarded, database.FeatureStatusPending, true},
		{database.FeatureStatusDiscarded, database.FeatureStatusInProgress, false},
		{"archived", "archived", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestVoteToggleRestoresCount(t *testing.T) {
	f := newFixture(t)
	author := f.env.User(t, "author@example.com", database.RoleVisitor)
	voter := f.env.User(t, "a@example.com", database.RoleVisitor)
	other := f.env.User(t, "b@example.com", database.RoleVisitor)
	fr := f.request(t, author, 7, database.FeatureStatusPending)
	require.NoError(t, f.env.DB.Create(&database.FeatureVote{UserID: other.ID, FeatureRequestID: fr.ID}).Error)

	token := f.env.Token(t, voter)
	w := testutil.Request(t, f.router, http.MethodPost, "/api/feature-requests/7/vote", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := testutil.Decode[VoteResult](t, w)
	assert.True(t, first.Voted)
	assert.Equal(t, int64(2), first.Votes)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/feature-requests/7/vote", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	second := testutil.Decode[VoteResult](t, w)
	assert.False(t, second.Voted)
	assert.Equal(t, int64(1), second.Votes)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/feature-requests/99/vote", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/feature-requests/7/vote", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListReportsVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.env.User(t, "author@example.com", database.RoleVisitor)
	viewer := f.env.User(t, "viewer@example.com", database.RoleVisitor)

	pending := f.request(t, author, 0, database.FeatureStatusPending)
	done := f.request(t, author, 0, database.FeatureStatusCompleted)
	require.NoError(t, f.env.DB.Create(&database.FeatureVote{UserID: viewer.ID, FeatureRequestID: pending.ID}).Error)
	require.NoError(t, f.env.DB.Create(&database.FeatureVote{UserID: author.ID, FeatureRequestID: pending.ID}).Error)

	page, err := f.svc.List(ctx, viewer.ID, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	byID := map[uint]database.FeatureRequest{}
	for _, fr := range page.Items {
		byID[fr.ID] = fr
	}
	assert.Equal(t, int64(2), byID[pending.ID].Votes)
	assert.True(t, byID[pending.ID].Voted)
	assert.Zero(t, byID[done.ID].Votes)
	assert.False(t, byID[done.ID].Voted)
	require.NotNil(t, byID[pending.ID].User)
	assert.Empty(t, byID[pending.ID].User.Email, "author email is not exposed")

	filtered, err := f.svc.List(ctx, 0, Filter{Status: database.FeatureStatusCompleted})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, done.ID, filtered.Items[0].ID)
	assert.False(t, filtered.Items[0].Voted)

	_, err = f.svc.List(ctx, 0, Filter{Status: "archived"})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	user := f.env.User(t, "user@example.com", database.RoleVisitor)

	fr, err := f.svc.Create(context.Background(), user.ID, CreateInput{Title: "  Export my list  "})
	require.NoError(t, err)
	assert.Equal(t, "Export my list", fr.Title)
	assert.Equal(t, database.FeatureTypeIdea, fr.Type)
	assert.Equal(t, database.FeatureStatusPending, fr.Status)
	assert.Equal(t, database.FeaturePriorityMedium, fr.Priority)

	_, err = f.svc.Create(context.Background(), user.ID, CreateInput{Title: "x", Type: "rant"})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
}

func TestUpdateLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.env.User(t, "author@example.com", database.RoleVisitor)
	fr := f.request(t, author, 0, database.FeatureStatusPending)

	_, err := f.svc.Update(ctx, fr.ID, UpdateInput{Status: statusPtr(database.FeatureStatusCompleted)})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation), "pending cannot jump to completed")

	updated, err := f.svc.Update(ctx, fr.ID, UpdateInput{Status: statusPtr(database.FeatureStatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, database.FeatureStatusInProgress, updated.Status)

	high := database.FeaturePriorityHigh
	updated, err = f.svc.Update(ctx, fr.ID, UpdateInput{Status: statusPtr(database.FeatureStatusCompleted), Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, database.FeatureStatusCompleted, updated.Status)
	assert.Equal(t, database.FeaturePriorityHigh, updated.Priority)

	_, err = f.svc.Update(ctx, fr.ID, UpdateInput{Status: statusPtr(database.FeatureStatusPending)})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation), "completed is terminal")

	_, err = f.svc.Update(ctx, fr.ID, UpdateInput{})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	_, err = f.svc.Update(ctx, 404, UpdateInput{Priority: &high})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}

func TestDeletePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.env.User(t, "author@example.com", database.RoleVisitor)
	stranger := f.env.User(t, "stranger@example.com", database.RoleVisitor)
	admin := f.env.User(t, "admin@example.com", database.RoleAdmin)

	pending := f.request(t, author, 0, database.FeatureStatusPending)
	started := f.request(t, author, 0, database.FeatureStatusInProgress)
	require.NoError(t, f.env.DB.Create(&database.FeatureVote{UserID: stranger.ID, FeatureRequestID: started.ID}).Error)

	err := f.svc.Delete(ctx, auth.NewIdentity(stranger), pending.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeForbidden))

	err = f.svc.Delete(ctx, auth.NewIdentity(author), started.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeForbidden))

	require.NoError(t, f.svc.Delete(ctx, auth.NewIdentity(author), pending.ID))
	require.NoError(t, f.svc.Delete(ctx, auth.NewIdentity(admin), started.ID))

	var votes int64
	require.NoError(t, f.env.DB.Model(&database.FeatureVote{}).Count(&votes).Error)
	assert.Zero(t, votes)

	err = f.svc.Delete(ctx, auth.NewIdentity(admin), started.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}

func TestFeatureRoutesRequireAdminForPatch(t *testing.T) {
	f := newFixture(t)
	author := f.env.User(t, "author@example.com", database.RoleVisitor)
	moderator := f.env.User(t, "mod@example.com", database.RoleModerator)
	admin := f.env.User(t, "admin@example.com", database.RoleAdmin)

	w := testutil.Request(t, f.router, http.MethodPost, "/api/feature-requests",
		CreateInput{Title: "Calendar view", Type: database.FeatureTypeFeature}, f.env.Token(t, author))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.Decode[database.FeatureRequest](t, w)

	body := map[string]string{"status": string(database.FeatureStatusInProgress)}
	path := "/api/feature-requests/" + itoa(created.ID)

	w = testutil.Request(t, f.router, http.MethodPatch, path, body, f.env.Token(t, moderator))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Request(t, f.router, http.MethodPatch, path, body, f.env.Token(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, database.FeatureStatusInProgress, testutil.Decode[database.FeatureRequest](t, w).Status)

	w = testutil.Request(t, f.router, http.MethodGet, "/api/feature-requests?status=en_progreso", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), testutil.Decode[database.Page[database.FeatureRequest]](t, w).Total)

	w = testutil.Request(t, f.router, http.MethodPost, "/api/feature-requests", map[string]string{}, f.env.Token(t, author))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
