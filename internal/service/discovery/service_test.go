package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaking/internal/app"
	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
	svcErr "github.com/oggyb/matchmaking/internal/errors"
	"github.com/oggyb/matchmaking/internal/service/discovery"
	"github.com/oggyb/matchmaking/internal/testutil"
)

func setupService(t *testing.T) (*discovery.Service, *app.AppContext) {
	t.Helper()
	appCtx, _ := testutil.NewApp(t)
	return discovery.NewService(appCtx), appCtx
}

func candidateIDs(list []domain.ScoredCandidate) []uint64 {
	out := make([]uint64, len(list))
	for i, c := range list {
		out[i] = c.User.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func maleSeekingWomen() []testutil.UserOpt {
	return []testutil.UserOpt{
		testutil.WithGender(domain.GenderMale),
		testutil.WithInterest(domain.Specific(domain.GenderFemale)),
		testutil.WithLocation(52.0, 4.0),
		testutil.WithInterests("hiking", "jazz", "cooking", "chess"),
	}
}

// TestNearbySharedInterestsRankFirst covers the core ranking scenario: a
// nearby woman sharing three interests beats one 80 km away sharing none.
func TestNearbySharedInterestsRankFirst(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	me := testutil.CreateUser(t, appCtx.DB, "me", maleSeekingWomen()...)
	far := testutil.CreateUser(t, appCtx.DB, "far",
		testutil.WithLocation(52.72, 4.0),
		testutil.WithInterests("surfing"))
	near := testutil.CreateUser(t, appCtx.DB, "near",
		testutil.WithLocation(52.03, 4.0),
		testutil.WithInterests("hiking", "jazz", "cooking"))

	got, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{
		AgeRange:      &domain.AgeRange{Min: 25, Max: 35},
		MaxDistanceKm: ptr(50.0),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, near.ID, got[0].User.ID)
	assert.Equal(t, far.ID, got[1].User.ID)
	assert.Greater(t, got[0].Score, got[1].Score)
	assert.Equal(t, 3, got[0].SharedInterestCount)
	assert.Equal(t, 0, got[1].SharedInterestCount)
	require.NotNil(t, got[0].DistanceKm)
	assert.Less(t, *got[0].DistanceKm, 5.0)
	require.NotNil(t, got[1].DistanceKm)
	assert.InDelta(t, 80, *got[1].DistanceKm, 1)
	assert.True(t, got[0].MatchesMutualPreference)
}

func TestExclusions(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	gdb := appCtx.DB

	me := testutil.CreateUser(t, gdb, "me")
	liked := testutil.CreateUser(t, gdb, "liked")
	passed := testutil.CreateUser(t, gdb, "passed")
	matched := testutil.CreateUser(t, gdb, "matched")
	unmatched := testutil.CreateUser(t, gdb, "unmatched")
	forced := testutil.CreateUser(t, gdb, "forced")
	visible := testutil.CreateUser(t, gdb, "visible")
	testutil.CreateUser(t, gdb, "inactive", testutil.Inactive())
	testutil.CreateUser(t, gdb, "nophoto", testutil.WithPhotos(0))

	now := time.Now().UTC()
	require.NoError(t, gdb.Create(&db.Action{SenderID: me.ID, ReceiverID: liked.ID, Kind: domain.ActionLike}).Error)
	require.NoError(t, gdb.Create(&db.Action{SenderID: me.ID, ReceiverID: passed.ID, Kind: domain.ActionPass}).Error)
	u1, u2 := domain.CanonicalPair(me.ID, matched.ID)
	require.NoError(t, gdb.Create(&db.Match{User1ID: u1, User2ID: u2, IsActive: true, MatchedAt: now}).Error)
	// an inactive match does not hide the other user
	u1, u2 = domain.CanonicalPair(me.ID, unmatched.ID)
	m := db.Match{User1ID: u1, User2ID: u2, IsActive: true, MatchedAt: now}
	require.NoError(t, gdb.Create(&m).Error)
	require.NoError(t, gdb.Model(&m).Update("is_active", false).Error)

	got, err := svc.GetCandidates(ctx, me.ID, 50, []uint64{forced.ID}, domain.Filters{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{visible.ID, unmatched.ID}, candidateIDs(got))
}

func TestPassedUserNeverReturns(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	gdb := appCtx.DB

	me := testutil.CreateUser(t, gdb, "me", maleSeekingWomen()...)
	x := testutil.CreateUser(t, gdb, "x", testutil.WithLocation(52.01, 4.0))
	require.NoError(t, gdb.Create(&db.Action{SenderID: me.ID, ReceiverID: x.ID, Kind: domain.ActionPass}).Error)

	filterSets := []domain.Filters{
		{},
		{StrictMode: true},
		{OnlyWithPhotos: ptr(false)},
		{AgeRange: &domain.AgeRange{Min: 18, Max: 120}, StrictAge: true},
		{MaxDistanceKm: ptr(20000.0), StrictDistance: true},
	}
	for _, f := range filterSets {
		got, err := svc.GetCandidates(ctx, me.ID, 50, nil, f)
		require.NoError(t, err)
		assert.NotContains(t, candidateIDs(got), x.ID)
	}
}

func TestMutualPreferenceSortsFirst(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	gdb := appCtx.DB

	me := testutil.CreateUser(t, gdb, "me", maleSeekingWomen()...)
	// a man with many shared interests still ranks below a woman with none
	man := testutil.CreateUser(t, gdb, "man",
		testutil.WithGender(domain.GenderMale),
		testutil.WithLocation(52.0, 4.0),
		testutil.WithInterests("hiking", "jazz", "cooking"),
		testutil.Premium())
	woman := testutil.CreateUser(t, gdb, "woman")

	got, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{woman.ID, man.ID}, candidateIDs(got))
	assert.False(t, got[1].MatchesMutualPreference)

	strict, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{StrictMode: true})
	require.NoError(t, err)
	assert.Equal(t, []uint64{woman.ID}, candidateIDs(strict))
}

func TestStrictFiltersPartition(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	gdb := appCtx.DB

	me := testutil.CreateUser(t, gdb, "me", maleSeekingWomen()...)
	smoker := testutil.CreateUser(t, gdb, "smoker",
		testutil.WithSmoking("REGULARLY"),
		testutil.WithInterests("hiking", "jazz", "cooking"))
	nonSmoker := testutil.CreateUser(t, gdb, "nonsmoker", testutil.WithSmoking("NEVER"))
	unknown := testutil.CreateUser(t, gdb, "unknown")

	soft, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{Smoking: []string{"NEVER"}})
	require.NoError(t, err)
	assert.Equal(t, smoker.ID, soft[0].User.ID)

	strict, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{
		Smoking:       []string{"NEVER"},
		StrictSmoking: true,
	})
	require.NoError(t, err)
	require.Len(t, strict, 3)
	assert.ElementsMatch(t, []uint64{nonSmoker.ID, unknown.ID}, candidateIDs(strict[:2]))
	assert.Equal(t, smoker.ID, strict[2].User.ID)

	limited, err := svc.GetCandidates(ctx, me.ID, 2, nil, domain.Filters{
		Smoking:       []string{"NEVER"},
		StrictSmoking: true,
	})
	require.NoError(t, err)
	assert.NotContains(t, candidateIDs(limited), smoker.ID)
}

func TestOnlyWithPhotosDefaultsOn(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	gdb := appCtx.DB

	me := testutil.CreateUser(t, gdb, "me")
	bare := testutil.CreateUser(t, gdb, "bare", testutil.WithPhotos(0))

	got, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got, err = svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{OnlyWithPhotos: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, []uint64{bare.ID}, candidateIDs(got))
}

func TestStoredPreferencesUsedAsDefaults(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	gdb := appCtx.DB

	me := testutil.CreateUser(t, gdb, "me")
	require.NoError(t, gdb.Model(&db.User{}).Where("id = ?", me.ID).
		Updates(map[string]any{"preferred_age_min": 40, "preferred_age_max": 45}).Error)
	testutil.CreateUser(t, gdb, "thirty")

	got, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	// 10 years below the stored minimum
	assert.Equal(t, 0.0, got[0].Breakdown.AgeFit)

	got, err = svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{AgeRange: &domain.AgeRange{Min: 25, Max: 35}})
	require.NoError(t, err)
	assert.Equal(t, 50.0, got[0].Breakdown.AgeFit)
}

func TestInvalidFiltersFailFast(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	cases := map[string]struct {
		limit   int
		filters domain.Filters
	}{
		"zero limit":           {0, domain.Filters{}},
		"limit over max":       {51, domain.Filters{}},
		"min above max":        {10, domain.Filters{AgeRange: &domain.AgeRange{Min: 40, Max: 30}}},
		"under 18":             {10, domain.Filters{AgeRange: &domain.AgeRange{Min: 16, Max: 30}}},
		"zero distance":        {10, domain.Filters{MaxDistanceKm: ptr(0.0)}},
		"negative distance":    {10, domain.Filters{MaxDistanceKm: ptr(-5.0)}},
		"unknown relationship": {10, domain.Filters{RelationshipTypes: []domain.RelationshipType{"SOMETHING"}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			// user 1 does not exist: validation must fail before any lookup
			_, err := svc.GetCandidates(ctx, 1, tc.limit, nil, tc.filters)
			assert.ErrorIs(t, err, svcErr.ErrInvalidFilter)
		})
	}
}

func TestUnknownRequester(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.GetCandidates(context.Background(), 404, 10, nil, domain.Filters{})
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestCandidatesCarryNoCredentials(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	me := testutil.CreateUser(t, appCtx.DB, "me")
	testutil.CreateUser(t, appCtx.DB, "other", testutil.WithPhotos(3))

	got, err := svc.GetCandidates(ctx, me.ID, 10, nil, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "other", got[0].User.Username)
	assert.Equal(t, 3, got[0].User.PhotoCount)
	assert.Equal(t, 30, got[0].Age)
	assert.Nil(t, got[0].DistanceKm)
}
