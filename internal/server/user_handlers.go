package server

import (
	"context"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile returns a user's profile with their post count, follower
// count, and a page of their posts, newest first.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username := c.Params("username")

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return handleRepoError(c, err)
	}

	listing, err := s.buildListing(ctx, parsePage(c),
		func(ctx context.Context) (int64, error) {
			return s.postRepo.CountByAuthorID(ctx, user.ID)
		},
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return s.postRepo.GetByAuthorID(ctx, user.ID, limit, offset)
		},
	)
	if err != nil {
		return handleRepoError(c, err)
	}

	followers, err := s.followRepo.CountFollowers(ctx, user.ID)
	if err != nil {
		return handleRepoError(c, err)
	}

	following := false
	if viewerID, ok := s.optionalUserID(c); ok && viewerID != user.ID {
		following, err = s.followRepo.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return handleRepoError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"user":        user,
		"posts":       listing.Posts,
		"page":        listing.Page,
		"posts_count": listing.TotalItems,
		"followers":   followers,
		"following":   following,
	})
}
