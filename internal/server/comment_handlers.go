package server

import (
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxCommentLength = 2000

type commentRequest struct {
	Text string `json:"text"`
}

// GetComments lists a post's comments, oldest first.
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	// Commenting on a missing post is a 404, same as viewing it
	if _, err := s.postRepo.GetByID(c.UserContext(), id); err != nil {
		return handleRepoError(c, err)
	}

	comments, err := s.commentRepo.ListByPost(c.UserContext(), id)
	if err != nil {
		return handleRepoError(c, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	return c.JSON(fiber.Map{"comments": comments})
}

// CreateComment attaches a comment to a post for the authenticated user.
func (s *Server) CreateComment(c *fiber.Ctx) error {
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

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment text is required"))
	}
	if len(req.Text) > maxCommentLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment text is too long"))
	}

	comment := &models.Comment{
		Text:     req.Text,
		AuthorID: userID,
		PostID:   post.ID,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return handleRepoError(c, err)
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return handleRepoError(c, err)
	}
	comment.Author = *author

	c.Set(fiber.HeaderLocation, "/api/posts/"+c.Params("id"))
	return c.Status(fiber.StatusCreated).JSON(comment)
}
