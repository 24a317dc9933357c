package server

import (
	"context"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxPostLength = 10000

type postRequest struct {
	Text      string `json:"text"`
	GroupSlug string `json:"group"`
	ImageURL  string `json:"image_url"`
}

// GetPosts returns the newest-first listing of every post. Rendered pages
// are cached whole; any post write clears every cached listing page.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requested := parsePage(c)

	key := cache.ListingKey(c.Path(), requested)
	if body, ok := cache.GetPage(ctx, key); ok {
		return sendCached(c, body)
	}

	listing, err := s.buildListing(ctx, requested, s.postRepo.CountAll, s.postRepo.List)
	if err != nil {
		return handleRepoError(c, err)
	}

	return s.renderListing(c, key, listing, s.config.CacheTTL)
}

// GetFeed returns posts authored by users the caller follows. Per-user
// content, so it bypasses the shared page cache.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	listing, err := s.buildListing(ctx, parsePage(c),
		func(ctx context.Context) (int64, error) {
			return s.postRepo.CountFollowed(ctx, userID)
		},
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return s.postRepo.ListFollowed(ctx, userID, limit, offset)
		},
	)
	if err != nil {
		return handleRepoError(c, err)
	}

	return c.JSON(listing)
}

// GetPost returns a single post with its author, group, and comments.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return handleRepoError(c, err)
	}

	comments, err := s.commentRepo.ListByPost(c.UserContext(), id)
	if err != nil {
		return handleRepoError(c, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
	})
}

// CreatePost stores a new post for the authenticated user. On success the
// Location header points at the author's profile listing.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post text is required"))
	}
	if len(req.Text) > maxPostLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post text is too long"))
	}

	post := &models.Post{
		Text:     req.Text,
		ImageURL: req.ImageURL,
		AuthorID: userID,
	}

	if req.GroupSlug != "" {
		group, err := s.groupRepo.GetBySlug(ctx, req.GroupSlug)
		if err != nil {
			return handleRepoError(c, err)
		}
		post.GroupID = &group.ID
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return handleRepoError(c, err)
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return handleRepoError(c, err)
	}
	post.Author = *author

	middleware.PostsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "post created",
		"post_id", post.ID, "author", author.Username)

	c.Set(fiber.HeaderLocation, "/api/users/"+author.Username)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost edits a post's text, image, or group. Only the author may
// edit; anyone else is redirected to the unchanged post detail.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return handleRepoError(c, err)
	}

	if post.AuthorID != userID {
		// Not an error: the caller just gets the read-only view
		return c.Redirect("/api/posts/"+c.Params("id"), fiber.StatusSeeOther)
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post text is required"))
	}
	if len(req.Text) > maxPostLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post text is too long"))
	}

	post.Text = req.Text
	post.ImageURL = req.ImageURL

	if req.GroupSlug != "" {
		group, err := s.groupRepo.GetBySlug(ctx, req.GroupSlug)
		if err != nil {
			return handleRepoError(c, err)
		}
		post.GroupID = &group.ID
	} else {
		post.GroupID = nil
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return handleRepoError(c, err)
	}

	return c.JSON(post)
}
