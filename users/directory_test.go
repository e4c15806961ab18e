package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"warbler/database/dbtest"
	"warbler/logger"
	"warbler/models"
	"warbler/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newDirectory(t *testing.T) (*Directory, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return NewDirectory(db, bcrypt.MinCost, nil, logger.Discard()), db
}

func signupTestUser(t *testing.T, d *Directory) *models.User {
	t.Helper()
	u, err := d.Register(context.Background(), "testuser", "test@test.com", "HASHED_PASSWORD", "https:kskljlsfkjfk")
	require.NoError(t, err)
	return u
}

func TestUserModel(t *testing.T) {
	d, db := newDirectory(t)
	ctx := context.Background()

	u := &models.User{Email: "test@test.com", Username: "testuser", Password: "HASHED_PASSWORD"}
	require.NoError(t, d.Commit(ctx, u))

	var messages, followers int64
	require.NoError(t, db.Model(&models.Message{}).Where("user_id = ?", u.ID).Count(&messages).Error)
	require.NoError(t, db.Model(&models.Follow{}).Where("user_being_followed_id = ?", u.ID).Count(&followers).Error)
	assert.Zero(t, messages)
	assert.Zero(t, followers)
}

func TestUserString(t *testing.T) {
	d, _ := newDirectory(t)
	u := &models.User{Email: "test@test.com", Username: "testuser", Password: "HASHED_PASSWORD"}
	require.NoError(t, d.Commit(context.Background(), u))

	assert.Equal(t, fmt.Sprintf("<User #%d: testuser, test@test.com>", u.ID), u.String())
}

func TestSignup_HashesAndDoesNotPersist(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	u, err := d.Signup("testuser", "test@test.com", "HASHED_PASSWORD", "")
	require.NoError(t, err)
	assert.Zero(t, u.ID)
	assert.NotEqual(t, "HASHED_PASSWORD", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("HASHED_PASSWORD")))
	assert.Equal(t, models.DefaultImageURL, u.ImageURL)

	count, err := d.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSignup_PasswordTooLong(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.Signup("testuser", "test@test.com", strings.Repeat("p", MaxPasswordBytes+1), "")
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = d.Register(ctx, "testuser", "test@test.com", strings.Repeat("p", 80), "")
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	u, err := d.Register(ctx, "testuser", "test@test.com", strings.Repeat("p", MaxPasswordBytes), "")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
}

func TestNewUser_IncrementsCount(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	before, err := d.Count(ctx)
	require.NoError(t, err)

	u, err := d.Signup("testuser", "test@test.com", "HASHED_PASSWORD", "https:kskljlsfkjfk")
	require.NoError(t, err)
	require.NoError(t, d.Commit(ctx, u))

	after, err := d.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
	assert.Equal(t, "https:kskljlsfkjfk", u.ImageURL)
}

func TestDuplicateUsername_CountUnchanged(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	signupTestUser(t, d)

	before, err := d.Count(ctx)
	require.NoError(t, err)

	dup, err := d.Signup("testuser", "test2@test.com", "HASHED_PASSWORD", "https:kskljlsfkjfk")
	require.NoError(t, err)
	assert.ErrorIs(t, d.Commit(ctx, dup), ErrUsernameTaken)
	assert.Zero(t, dup.ID)

	after, err := d.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The directory is still usable after the failed commit.
	_, err = d.Register(ctx, "testuser2", "test2@test.com", "HASHED_PASSWORD", "")
	assert.NoError(t, err)
}

func TestDuplicateEmail(t *testing.T) {
	d, _ := newDirectory(t)
	signupTestUser(t, d)

	_, err := d.Register(context.Background(), "someone", "test@test.com", "pw", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCommitAll_RollsBackWholeBatch(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	a, err := d.Signup("a", "a@test.com", "pw", "")
	require.NoError(t, err)
	b, err := d.Signup("b", "b@test.com", "pw", "")
	require.NoError(t, err)
	clash, err := d.Signup("a", "other@test.com", "pw", "")
	require.NoError(t, err)

	assert.ErrorIs(t, d.CommitAll(ctx, a, b, clash), ErrUsernameTaken)
	count, err := d.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, a.ID)

	require.NoError(t, d.CommitAll(ctx, a, b))
	count, err = d.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// blindRepo skips the pre-check so the store's unique constraint is what
// rejects the insert, as when two signups race.
type blindRepo struct {
	repositories.UserRepository
}

func (r blindRepo) WithTx(tx *gorm.DB) repositories.UserRepository {
	return blindRepo{r.UserRepository.WithTx(tx)}
}

func (blindRepo) UsernameExists(context.Context, string) (bool, error) { return false, nil }
func (blindRepo) EmailExists(context.Context, string) (bool, error)    { return false, nil }

func TestCommit_ConstraintViolationIsRecoverable(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	signupTestUser(t, d)

	d.users = blindRepo{d.users}

	dup, err := d.Signup("testuser", "test2@test.com", "HASHED_PASSWORD", "")
	require.NoError(t, err)
	assert.ErrorIs(t, d.Commit(ctx, dup), ErrDuplicateUser)

	count, err := d.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestClassifyDuplicate_AfterRace(t *testing.T) {
	d, _ := newDirectory(t)
	signupTestUser(t, d)

	err := d.classifyDuplicate(context.Background(), []*models.User{{Username: "fresh", Email: "test@test.com"}})
	assert.ErrorIs(t, err, ErrEmailTaken)

	err = d.classifyDuplicate(context.Background(), []*models.User{{Username: "testuser", Email: "x@test.com"}})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthenticate(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	created := signupTestUser(t, d)

	res, err := d.Authenticate(ctx, "testuser", "HASHED_PASSWORD")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, created.ID, res.User().ID)
	assert.Equal(t, created.Username, res.User().Username)
}

func TestAuthenticate_Failures(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	signupTestUser(t, d)

	badUser, err := d.Authenticate(ctx, "test", "HASHED_PASSWORD")
	require.NoError(t, err)
	assert.False(t, badUser.OK())
	assert.Nil(t, badUser.User())

	badPassword, err := d.Authenticate(ctx, "testuser", "bad password")
	require.NoError(t, err)
	assert.False(t, badPassword.OK())

	assert.Equal(t, badUser, badPassword, "failures must be indistinguishable")
}

func TestGetAndSearch(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	u := signupTestUser(t, d)
	_, err := d.Register(ctx, "another", "another@test.com", "pw", "")
	require.NoError(t, err)

	got, err := d.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", got.Username)

	_, err = d.Get(ctx, u.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = d.GetByUsername(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	hits, err := d.Search(ctx, "test")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	all, err := d.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDelete(t *testing.T) {
	d, db := newDirectory(t)
	ctx := context.Background()
	u := signupTestUser(t, d)
	other, err := d.Register(ctx, "other", "other@test.com", "pw", "")
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Follow{UserFollowingID: u.ID, UserBeingFollowedID: other.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{UserFollowingID: other.ID, UserBeingFollowedID: u.ID}).Error)
	require.NoError(t, db.Create(&models.Message{Text: "hi", UserID: u.ID}).Error)

	require.NoError(t, d.Delete(ctx, u.ID))
	assert.ErrorIs(t, d.Delete(ctx, u.ID), ErrUserNotFound)

	var follows, messages int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, db.Model(&models.Message{}).Count(&messages).Error)
	assert.Zero(t, follows)
	assert.Zero(t, messages)
}
