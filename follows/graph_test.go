package follows

import (
	"context"
	"fmt"
	"testing"
	"time"

	"warbler/cache"
	"warbler/database/dbtest"
	"warbler/logger"
	"warbler/models"
	"warbler/repositories"
	"warbler/users"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	graph     *Graph
	directory *users.Directory
	u         *models.User
	u2        *models.User
}

func setup(t *testing.T, c *cache.Cache) fixture {
	t.Helper()
	db := dbtest.Open(t)
	log := logger.Discard()
	dir := users.NewDirectory(db, bcrypt.MinCost, c, log)

	u := &models.User{Email: "test@test.com", Username: "testuser", Password: "HASHED_PASSWORD"}
	u2 := &models.User{Email: "test2@test.com", Username: "testuser2", Password: "HASHED_PASSWORD"}
	require.NoError(t, dir.CommitAll(context.Background(), u, u2))

	return fixture{
		graph:     NewGraph(repositories.NewFollowRepository(db), dir, c, log),
		directory: dir,
		u:         u,
		u2:        u2,
	}
}

func TestUserFollowing(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, f.graph.Follow(ctx, f.u.ID, f.u2.ID))

	ok, err := f.graph.IsFollowing(ctx, f.u.ID, f.u2.ID)
	require.NoError(t, err)
	assert.True(t, ok, "u is following u2")

	ok, err = f.graph.IsFollowedBy(ctx, f.u2.ID, f.u.ID)
	require.NoError(t, err)
	assert.True(t, ok, "u2 is followed by u")

	ok, err = f.graph.IsFollowedBy(ctx, f.u.ID, f.u2.ID)
	require.NoError(t, err)
	assert.False(t, ok, "u is not followed by u2")
}

func TestUserNotFollowing_WhenFollowedBack(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	// u2 follows u; that must not make u a follower of u2.
	require.NoError(t, f.graph.Follow(ctx, f.u2.ID, f.u.ID))

	ok, err := f.graph.IsFollowing(ctx, f.u.ID, f.u2.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFreshUserHasNoFollowers(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	followers, err := f.graph.Followers(ctx, f.u.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	n, err := f.graph.FollowingCount(ctx, f.u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowersAndFollowing(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, f.graph.Follow(ctx, f.u.ID, f.u2.ID))
	require.NoError(t, f.graph.Follow(ctx, f.u.ID, f.u2.ID))

	followers, err := f.graph.Followers(ctx, f.u2.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "testuser", followers[0].Username)

	following, err := f.graph.Following(ctx, f.u.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "testuser2", following[0].Username)

	require.NoError(t, f.graph.Unfollow(ctx, f.u.ID, f.u2.ID))
	n, err := f.graph.FollowerCount(ctx, f.u2.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSelfFollowAllowed(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, f.graph.Follow(ctx, f.u.ID, f.u.ID))
	ok, err := f.graph.IsFollowedBy(ctx, f.u.ID, f.u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollowUnknownUser(t *testing.T) {
	f := setup(t, nil)
	err := f.graph.Follow(context.Background(), f.u.ID, f.u2.ID+100)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestCachedListsAreInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := setup(t, cache.New(client, time.Minute, logger.Discard()))
	ctx := context.Background()

	ids, err := f.graph.FollowerIDs(ctx, f.u2.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.True(t, mr.Exists(cache.FollowersKey(f.u2.ID)))

	require.NoError(t, f.graph.Follow(ctx, f.u.ID, f.u2.ID))
	assert.False(t, mr.Exists(cache.FollowersKey(f.u2.ID)))

	ids, err = f.graph.FollowerIDs(ctx, f.u2.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.u.ID}, ids)

	following, err := f.graph.FollowingIDs(ctx, f.u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.u2.ID}, following)
	assert.True(t, mr.Exists(cache.FollowingKey(f.u.ID)))

	// Deleting u2 must not leave u's cached following list pointing at it.
	require.NoError(t, f.directory.Delete(ctx, f.u2.ID))
	assert.False(t, mr.Exists(cache.FollowersKey(f.u2.ID)))
	assert.False(t, mr.Exists(cache.FollowingKey(f.u.ID)))

	following, err = f.graph.FollowingIDs(ctx, f.u.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
	count, err := f.graph.FollowingCount(ctx, f.u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// vanishingRepo behaves as if the followed user was deleted between the
// existence check and the insert.
type vanishingRepo struct {
	repositories.FollowRepository
}

func (vanishingRepo) Follow(context.Context, uint, uint) error {
	return fmt.Errorf("insert edge: %w", gorm.ErrForeignKeyViolated)
}

func TestFollowUserDeletedConcurrently(t *testing.T) {
	f := setup(t, nil)
	g := NewGraph(vanishingRepo{}, f.directory, nil, logger.Discard())

	err := g.Follow(context.Background(), f.u.ID, f.u2.ID)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}
