package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
	"github.com/oggyb/matchmaking/internal/repository"
	"github.com/oggyb/matchmaking/internal/testutil"
)

func act(t *testing.T, repos *repository.Repositories, from, to uint64, kind domain.ActionKind) {
	t.Helper()
	require.NoError(t, repos.Actions.Create(context.Background(), &db.Action{SenderID: from, ReceiverID: to, Kind: kind}))
}

func TestActionCreate_DuplicatePairRejected(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)

	act(t, repos, 1, 2, domain.ActionLike)

	err := repos.Actions.Create(ctx, &db.Action{SenderID: 1, ReceiverID: 2, Kind: domain.ActionPass})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// reverse direction is a different pair
	act(t, repos, 2, 1, domain.ActionPass)

	var n int64
	require.NoError(t, gdb.Model(&db.Action{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestActionLatestAndDelete(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)

	none, err := repos.Actions.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, none)

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, gdb.Create(&db.Action{SenderID: 1, ReceiverID: 2, Kind: domain.ActionLike, CreatedAt: base.Add(-time.Minute)}).Error)
	require.NoError(t, gdb.Create(&db.Action{SenderID: 1, ReceiverID: 3, Kind: domain.ActionPass, CreatedAt: base}).Error)

	latest, err := repos.Actions.Latest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(3), latest.ReceiverID)

	n, err := repos.Actions.Delete(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repos.Actions.Delete(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	ids, err := repos.Actions.ActedOnIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids)
}

func TestActionLatestBreaksTimestampTies(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repos.Actions.Create(ctx, &db.Action{SenderID: 1, ReceiverID: 3, Kind: domain.ActionLike, CreatedAt: at}))
	require.NoError(t, repos.Actions.Create(ctx, &db.Action{SenderID: 1, ReceiverID: 2, Kind: domain.ActionPass, CreatedAt: at}))
	require.NoError(t, repos.Actions.Create(ctx, &db.Action{SenderID: 9, ReceiverID: 1, Kind: domain.ActionLike, CreatedAt: at}))

	latest, err := repos.Actions.Latest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(2), latest.ReceiverID)
	assert.Equal(t, uint64(2), latest.Seq)

	other, err := repos.Actions.Latest(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, uint64(1), other.Seq)

	// after deleting the latest, the earlier one is next
	_, err = repos.Actions.Delete(ctx, 1, 2)
	require.NoError(t, err)
	latest, err = repos.Actions.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest.ReceiverID)
}

func TestPendingLikers(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)

	me := testutil.CreateUser(t, gdb, "me")
	a := testutil.CreateUser(t, gdb, "a")
	b := testutil.CreateUser(t, gdb, "b")
	c := testutil.CreateUser(t, gdb, "c")
	gone := testutil.CreateUser(t, gdb, "gone", testutil.Inactive())
	passer := testutil.CreateUser(t, gdb, "passer")

	act(t, repos, a.ID, me.ID, domain.ActionLike)
	act(t, repos, b.ID, me.ID, domain.ActionSuperLike)
	act(t, repos, c.ID, me.ID, domain.ActionLike)
	act(t, repos, gone.ID, me.ID, domain.ActionLike)
	act(t, repos, passer.ID, me.ID, domain.ActionPass)
	// already answered
	act(t, repos, me.ID, c.ID, domain.ActionPass)

	likers, err := repos.Actions.ListLikers(ctx, me.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, likers, 2)
	got := []uint64{likers[0].SenderID, likers[1].SenderID}
	assert.ElementsMatch(t, []uint64{a.ID, b.ID}, got)

	count, err := repos.Actions.CountPendingLikers(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	page, err := repos.Actions.ListLikers(ctx, me.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, likers[1].SenderID, page[0].SenderID)

	liked, err := repos.Actions.HasLiked(ctx, b.ID, me.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repos.Actions.HasLiked(ctx, passer.ID, me.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestEnsureMatch_CreateGetReactivate(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)
	now := time.Now().UTC().Truncate(time.Millisecond)

	m, created, err := repos.Matches.EnsureMatch(ctx, 9, 4, now)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(4), m.User1ID)
	assert.Equal(t, uint64(9), m.User2ID)

	again, created, err := repos.Matches.EnsureMatch(ctx, 4, 9, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)

	ok, err := repos.Matches.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repos.Matches.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := repos.Matches.FindActive(ctx, 4, 9)
	require.NoError(t, err)
	assert.Nil(t, active)

	later := now.Add(time.Hour)
	re, created, err := repos.Matches.EnsureMatch(ctx, 9, 4, later)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, m.ID, re.ID)
	assert.True(t, re.IsActive)
	assert.True(t, later.Equal(re.MatchedAt))

	assert.Equal(t, int64(1), testutil.CountMatches(t, gdb, 4, 9))
}

func TestActivePartnersAndList(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, _, err := repos.Matches.EnsureMatch(ctx, 5, 2, now.Add(-time.Hour))
	require.NoError(t, err)
	_, _, err = repos.Matches.EnsureMatch(ctx, 5, 8, now)
	require.NoError(t, err)
	old, _, err := repos.Matches.EnsureMatch(ctx, 5, 11, now)
	require.NoError(t, err)
	_, err = repos.Matches.Deactivate(ctx, old.ID)
	require.NoError(t, err)

	ids, err := repos.Matches.ActivePartnerIDs(ctx, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 8}, ids)

	list, err := repos.Matches.ListActive(ctx, 5, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(8), list[0].User2ID)
}

func TestCountersNeverNegative(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)

	a := testutil.CreateUser(t, gdb, "a")
	b := testutil.CreateUser(t, gdb, "b")

	require.NoError(t, repos.Users.IncrementLikes(ctx, a.ID))
	require.NoError(t, repos.Users.DecrementLikes(ctx, a.ID))
	require.NoError(t, repos.Users.DecrementLikes(ctx, a.ID))

	require.NoError(t, repos.Users.IncrementMatches(ctx, a.ID, b.ID))
	require.NoError(t, repos.Users.DecrementMatches(ctx, a.ID, b.ID))
	require.NoError(t, repos.Users.DecrementMatches(ctx, a.ID, b.ID))

	likes, matches, err := repos.Users.Counters(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), likes)
	assert.Equal(t, int64(0), matches)
	assert.Equal(t, int64(0), testutil.Reload(t, gdb, b.ID).TotalMatches)
}

func TestLockUsersInIDOrder(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)

	a := testutil.CreateUser(t, gdb, "a")
	b := testutil.CreateUser(t, gdb, "b")

	err := repository.InTx(ctx, gdb, func(r *repository.Repositories) error {
		users, err := r.Users.LockUsers(ctx, b.ID, a.ID, 999)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, a.ID, users[0].ID)
		assert.Equal(t, b.ID, users[1].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	boom := errors.New("boom")

	err := repository.InTx(ctx, gdb, func(r *repository.Repositories) error {
		require.NoError(t, r.Actions.Create(ctx, &db.Action{SenderID: 1, ReceiverID: 2, Kind: domain.ActionLike}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repository.New(gdb).Actions.Find(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindCandidatePool(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)
	now := time.Now().UTC()

	me := testutil.CreateUser(t, gdb, "me",
		testutil.WithGender(domain.GenderMale),
		testutil.WithInterest(domain.Specific(domain.GenderFemale)))
	fem := testutil.CreateUser(t, gdb, "fem", testutil.WithLastActive(now.Add(-time.Hour)))
	femStrict := testutil.CreateUser(t, gdb, "femStrict",
		testutil.WithInterest(domain.Specific(domain.GenderFemale)))
	male := testutil.CreateUser(t, gdb, "male", testutil.WithGender(domain.GenderMale))
	noPhoto := testutil.CreateUser(t, gdb, "nophoto", testutil.WithPhotos(0))
	testutil.CreateUser(t, gdb, "inactive", testutil.Inactive())
	excluded := testutil.CreateUser(t, gdb, "excluded")

	ids := func(users []db.User) []uint64 {
		out := make([]uint64, len(users))
		for i, u := range users {
			out[i] = u.ID
		}
		return out
	}

	broad, err := repos.Users.FindCandidatePool(ctx, repository.CandidateQuery{
		ExcludeIDs:     []uint64{me.ID, excluded.ID},
		OnlyWithPhotos: true,
		PoolSize:       100,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{fem.ID, femStrict.ID, male.ID}, ids(broad))
	// least recently active sorts last
	assert.Equal(t, fem.ID, broad[len(broad)-1].ID)
	for _, u := range broad {
		assert.NotEmpty(t, u.Photos)
	}

	withoutPhotoReq, err := repos.Users.FindCandidatePool(ctx, repository.CandidateQuery{
		ExcludeIDs: []uint64{me.ID},
		PoolSize:   100,
	})
	require.NoError(t, err)
	assert.Contains(t, ids(withoutPhotoReq), noPhoto.ID)

	strict, err := repos.Users.FindCandidatePool(ctx, repository.CandidateQuery{
		ExcludeIDs:     []uint64{me.ID},
		OnlyWithPhotos: true,
		PoolSize:       100,
		MutualGender: &repository.MutualGender{
			RequesterGender: me.Gender,
			RequesterWants:  me.GenderInterest(),
		},
	})
	require.NoError(t, err)
	// femStrict wants women only, male is the wrong gender
	assert.ElementsMatch(t, []uint64{fem.ID, excluded.ID}, ids(strict))

	capped, err := repos.Users.FindCandidatePool(ctx, repository.CandidateQuery{
		ExcludeIDs: []uint64{me.ID},
		PoolSize:   2,
	})
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestGetProfileLoadsRelations(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repos := repository.New(gdb)

	u := testutil.CreateUser(t, gdb, "full",
		testutil.WithPhotos(3),
		testutil.WithInterests("hiking", "jazz"))

	got, err := repos.Users.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Photos, 3)
	assert.ElementsMatch(t, []string{"hiking", "jazz"}, got.InterestNames())

	missing, err := repos.Users.GetProfile(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, missing)

	profiles, err := repos.Users.FindProfiles(ctx, []uint64{u.ID, 12345})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}
