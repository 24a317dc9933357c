package server

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// errResponseWritten signals that the handler already wrote the HTTP
// response; callers should return it as-is without writing again.
var errResponseWritten = errors.New("response already written")

// parsePage reads the 1-based page number from the query string.
// Out-of-range values are left for the paginator to clamp.
func parsePage(c *fiber.Ctx) int {
	return c.QueryInt("page", 1)
}

// parseID parses a numeric route parameter. A non-numeric value can't name
// a post, so it gets the same not-found treatment as any unknown path.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// listingResponse is the JSON body for every paginated post listing.
type listingResponse struct {
	Posts []*models.Post `json:"posts"`
	pagination.Page
}

// buildListing fetches one page of posts and wraps it with page metadata.
// The count and fetch callbacks let each feed scope share the same
// clamp-then-query flow.
func (s *Server) buildListing(ctx context.Context, requested int,
	count func(context.Context) (int64, error),
	fetch func(ctx context.Context, limit, offset int) ([]*models.Post, error),
) (*listingResponse, error) {
	total, err := count(ctx)
	if err != nil {
		return nil, err
	}

	page := pagination.Paginate(int(total), requested, s.config.PageSize)

	posts, err := fetch(ctx, page.Size, page.Offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return &listingResponse{Posts: posts, Page: page}, nil
}

// sendCached writes a previously rendered JSON listing body.
func sendCached(c *fiber.Ctx, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// renderListing marshals the listing, stores it in the page cache under
// key, and writes it. A failed marshal falls through to the error handler.
func (s *Server) renderListing(c *fiber.Ctx, key string, listing *listingResponse, ttl time.Duration) error {
	body, err := json.Marshal(listing)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	cache.SetPage(c.UserContext(), key, body, ttl)
	return sendCached(c, body)
}

// optionalUserID extracts the caller's user ID from a bearer token when one
// is present and valid. Public routes use it to personalize responses
// without requiring authentication.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	if id, ok := c.Locals("userID").(uint); ok {
		return id, true
	}

	authHeader := c.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		return 0, false
	}

	token, err := jwt.Parse(authHeader[len(prefix):], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// isAdminByUserID checks the admin flag without loading the full user row.
func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	var isAdmin bool
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("is_admin").
		Where("id = ?", userID).
		Scan(&isAdmin).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return isAdmin, nil
}

// handleRepoError maps repository errors onto HTTP responses.
func handleRepoError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}
