package server

import (
	"inkwell/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// FollowAuthor subscribes the caller to an author's posts and redirects to
// the author's profile. Following yourself or someone you already follow
// changes nothing.
func (s *Server) FollowAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	username := c.Params("username")

	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return handleRepoError(c, err)
	}

	if author.ID != userID {
		if err := s.followRepo.Follow(ctx, userID, author.ID); err != nil {
			return handleRepoError(c, err)
		}
		middleware.Logger.InfoContext(ctx, "follow created",
			"follower_id", userID, "author", author.Username)
	}

	return c.Redirect("/api/users/"+author.Username, fiber.StatusSeeOther)
}

// UnfollowAuthor removes the follow edge and redirects to the author's
// profile. Unfollowing someone you don't follow changes nothing.
func (s *Server) UnfollowAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	username := c.Params("username")

	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return handleRepoError(c, err)
	}

	if author.ID != userID {
		if err := s.followRepo.Unfollow(ctx, userID, author.ID); err != nil {
			return handleRepoError(c, err)
		}
	}

	return c.Redirect("/api/users/"+author.Username, fiber.StatusSeeOther)
}
