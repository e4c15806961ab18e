// Package follows maintains the directed follow graph between users.
package follows

import (
	"context"
	"fmt"

	"warbler/cache"
	"warbler/database"
	"warbler/models"
	"warbler/repositories"
	"warbler/users"

	"github.com/sirupsen/logrus"
)

// Graph answers who follows whom. Self-follows are allowed.
type Graph struct {
	follows   repositories.FollowRepository
	directory *users.Directory
	cache     *cache.Cache
	log       logrus.FieldLogger
}

func NewGraph(follows repositories.FollowRepository, directory *users.Directory, c *cache.Cache, log logrus.FieldLogger) *Graph {
	return &Graph{follows: follows, directory: directory, cache: c, log: log}
}

// Follow records followerID -> followedID. Following twice is not an error.
func (g *Graph) Follow(ctx context.Context, followerID, followedID uint) error {
	if err := g.requireUsers(ctx, followerID, followedID); err != nil {
		return err
	}
	if err := g.follows.Follow(ctx, followerID, followedID); err != nil {
		// One side was deleted after the existence check.
		if database.IsForeignKeyViolation(err) {
			return users.ErrUserNotFound
		}
		return fmt.Errorf("follow: %w", err)
	}
	g.cache.InvalidateEdge(ctx, followerID, followedID)
	g.log.WithFields(logrus.Fields{"follower_id": followerID, "followed_id": followedID}).Debug("follow")
	return nil
}

// Unfollow removes followerID -> followedID if present.
func (g *Graph) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if err := g.follows.Unfollow(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	g.cache.InvalidateEdge(ctx, followerID, followedID)
	g.log.WithFields(logrus.Fields{"follower_id": followerID, "followed_id": followedID}).Debug("unfollow")
	return nil
}

// IsFollowing reports whether user follows other.
func (g *Graph) IsFollowing(ctx context.Context, user, other uint) (bool, error) {
	return g.follows.Exists(ctx, user, other)
}

// IsFollowedBy reports whether other follows user.
func (g *Graph) IsFollowedBy(ctx context.Context, user, other uint) (bool, error) {
	return g.follows.Exists(ctx, other, user)
}

func (g *Graph) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return g.cache.IDs(ctx, cache.FollowersKey(userID), func() ([]uint, error) {
		return g.follows.FollowerIDs(ctx, userID)
	})
}

func (g *Graph) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return g.cache.IDs(ctx, cache.FollowingKey(userID), func() ([]uint, error) {
		return g.follows.FollowingIDs(ctx, userID)
	})
}

// Followers lists the users following userID, ordered by id.
func (g *Graph) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	ids, err := g.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return g.directory.GetMany(ctx, ids)
}

// Following lists the users userID follows, ordered by id.
func (g *Graph) Following(ctx context.Context, userID uint) ([]models.User, error) {
	ids, err := g.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return g.directory.GetMany(ctx, ids)
}

func (g *Graph) FollowerCount(ctx context.Context, userID uint) (int, error) {
	ids, err := g.FollowerIDs(ctx, userID)
	return len(ids), err
}

func (g *Graph) FollowingCount(ctx context.Context, userID uint) (int, error) {
	ids, err := g.FollowingIDs(ctx, userID)
	return len(ids), err
}

func (g *Graph) requireUsers(ctx context.Context, ids ...uint) error {
	for _, id := range ids {
		if _, err := g.directory.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
