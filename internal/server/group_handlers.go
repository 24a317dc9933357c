package server

import (
	"context"
	"encoding/json"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type groupRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// GetGroups lists all groups ordered by title.
func (s *Server) GetGroups(c *fiber.Ctx) error {
	page := parsePage(c)
	if page < 1 {
		page = 1
	}
	limit := s.config.PageSize
	offset := (page - 1) * limit

	groups, err := s.groupRepo.List(c.UserContext(), limit, offset)
	if err != nil {
		return handleRepoError(c, err)
	}
	if groups == nil {
		groups = []models.Group{}
	}

	return c.JSON(fiber.Map{"groups": groups, "page": page})
}

// GetGroupPosts returns a group and its posts, newest first. An unknown
// slug is a 404, not an empty listing.
func (s *Server) GetGroupPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	slug := c.Params("slug")
	requested := parsePage(c)

	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return handleRepoError(c, err)
	}

	key := cache.ListingKey(c.Path(), requested)
	if body, ok := cache.GetPage(ctx, key); ok {
		return sendCached(c, body)
	}

	listing, err := s.buildListing(ctx, requested,
		func(ctx context.Context) (int64, error) {
			return s.postRepo.CountByGroupID(ctx, group.ID)
		},
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return s.postRepo.GetByGroupID(ctx, group.ID, limit, offset)
		},
	)
	if err != nil {
		return handleRepoError(c, err)
	}

	return s.renderGroupListing(c, key, group, listing)
}

// renderGroupListing wraps the listing with its group header and caches the
// rendered body like any other listing page.
func (s *Server) renderGroupListing(c *fiber.Ctx, key string, group *models.Group, listing *listingResponse) error {
	body, err := json.Marshal(struct {
		Group *models.Group `json:"group"`
		*listingResponse
	}{group, listing})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	cache.SetPage(c.UserContext(), key, body, s.config.CacheTTL)
	return sendCached(c, body)
}

// CreateGroup adds a new group. Admin only; slugs are validated against
// the reserved set so they can't shadow API routes.
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var req groupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(strings.ToLower(req.Slug))

	if req.Title == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Group title is required"))
	}
	if err := validation.ValidateGroupSlug(req.Slug); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	group := &models.Group{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
	}

	if err := s.groupRepo.Create(c.UserContext(), group); err != nil {
		return handleRepoError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "group created",
		"slug", group.Slug)

	return c.Status(fiber.StatusCreated).JSON(group)
}
