// Package users owns user identity records and credentials.
package users

import (
	"context"
	"errors"
	"fmt"

	"warbler/cache"
	"warbler/database"
	"warbler/models"
	"warbler/repositories"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already taken")
	// ErrDuplicateUser is returned when the store rejects a duplicate but the
	// offending field can no longer be identified.
	ErrDuplicateUser   = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password too long")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

const searchLimit = 100

// Directory signs users up, authenticates them and looks them up.
type Directory struct {
	db         *gorm.DB
	users      repositories.UserRepository
	follows    repositories.FollowRepository
	messages   repositories.MessageRepository
	cache      *cache.Cache
	bcryptCost int
	log        logrus.FieldLogger
}

// NewDirectory builds a Directory. c may be nil; when set, Delete drops the
// cached follow lists that mention the deleted user.
func NewDirectory(db *gorm.DB, bcryptCost int, c *cache.Cache, log logrus.FieldLogger) *Directory {
	return &Directory{
		db:         db,
		users:      repositories.NewUserRepository(db),
		follows:    repositories.NewFollowRepository(db),
		messages:   repositories.NewMessageRepository(db),
		cache:      c,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// Signup builds a pending user with a hashed password. Nothing is written
// until the user is passed to Commit or CommitAll.
func (d *Directory) Signup(username, email, password, imageURL string) (*models.User, error) {
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}
	return &models.User{
		Username:       username,
		Email:          email,
		Password:       string(hashed),
		ImageURL:       imageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}, nil
}

// Commit persists one pending user.
func (d *Directory) Commit(ctx context.Context, user *models.User) error {
	return d.CommitAll(ctx, user)
}

// CommitAll persists pending users in one transaction. If any of them
// collides with an existing username or email, none are written.
func (d *Directory) CommitAll(ctx context.Context, pending ...*models.User) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := d.users.WithTx(tx)
		for _, u := range pending {
			if err := checkAvailable(ctx, repo, u); err != nil {
				return err
			}
			if err := repo.Create(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		for _, u := range pending {
			d.log.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user signed up")
		}
		return nil
	}

	for _, u := range pending {
		u.ID = 0
	}
	if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
		return err
	}
	if database.IsUniqueViolation(err) {
		// Lost a race with another writer; the pre-check passed but the
		// constraint did not.
		return d.classifyDuplicate(ctx, pending)
	}
	return fmt.Errorf("commit users: %w", err)
}

func checkAvailable(ctx context.Context, repo repositories.UserRepository, u *models.User) error {
	taken, err := repo.UsernameExists(ctx, u.Username)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = repo.EmailExists(ctx, u.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

func (d *Directory) classifyDuplicate(ctx context.Context, pending []*models.User) error {
	seenNames := map[string]bool{}
	seenEmails := map[string]bool{}
	for _, u := range pending {
		if seenNames[u.Username] {
			return ErrUsernameTaken
		}
		if seenEmails[u.Email] {
			return ErrEmailTaken
		}
		seenNames[u.Username] = true
		seenEmails[u.Email] = true
		if err := checkAvailable(ctx, d.users, u); err != nil {
			if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
				return err
			}
			break
		}
	}
	return ErrDuplicateUser
}

// Register signs up and commits a user in one step.
func (d *Directory) Register(ctx context.Context, username, email, password, imageURL string) (*models.User, error) {
	u, err := d.Signup(username, email, password, imageURL)
	if err != nil {
		return nil, err
	}
	if err := d.Commit(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns ErrUserNotFound for unknown ids.
func (d *Directory) Get(ctx context.Context, id uint) (*models.User, error) {
	u, err := d.users.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (d *Directory) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetMany returns the users with the given ids, ordered by id.
func (d *Directory) GetMany(ctx context.Context, ids []uint) ([]models.User, error) {
	return d.users.FindByIDs(ctx, ids)
}

func (d *Directory) Count(ctx context.Context) (int64, error) {
	return d.users.Count(ctx)
}

// Search lists users whose username contains q; an empty q lists everyone.
func (d *Directory) Search(ctx context.Context, q string) ([]models.User, error) {
	return d.users.Search(ctx, q, searchLimit)
}

// Delete removes a user with its messages, likes and follow edges, then
// drops the cached follow lists of the user and of everyone linked to them.
func (d *Directory) Delete(ctx context.Context, id uint) error {
	var followerIDs, followingIDs []uint
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follows := d.follows.WithTx(tx)
		var err error
		if followerIDs, err = follows.FollowerIDs(ctx, id); err != nil {
			return err
		}
		if followingIDs, err = follows.FollowingIDs(ctx, id); err != nil {
			return err
		}
		if err := d.messages.WithTx(tx).DeleteAllFor(ctx, id); err != nil {
			return err
		}
		if err := follows.DeleteAllFor(ctx, id); err != nil {
			return err
		}
		return d.users.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if repositories.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	d.cache.InvalidateUser(ctx, id)
	for _, f := range followerIDs {
		d.cache.Invalidate(ctx, cache.FollowingKey(f))
	}
	for _, f := range followingIDs {
		d.cache.Invalidate(ctx, cache.FollowersKey(f))
	}
	d.log.WithField("user_id", id).Info("user deleted")
	return nil
}
