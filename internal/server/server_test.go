package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestServer wires a full server against in-memory SQLite and miniredis.
func setupTestServer(t *testing.T) (*Server, *fiber.App, *miniredis.Miniredis) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	s, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app, mr
}

func createUser(t *testing.T, s *Server, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func createPost(t *testing.T, s *Server, authorID uint, text string) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: authorID}
	require.NoError(t, s.db.Create(post).Error)
	return post
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

func TestListingCacheLifecycle(t *testing.T) {
	s, app, mr := setupTestServer(t)

	author := createUser(t, s, "cacher")
	createPost(t, s, author.ID, "first post")

	// First fetch renders and caches; second must serve identical bytes
	resp1 := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusOK, resp1.StatusCode)
	body1 := readBody(t, resp1)

	resp2 := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	body2 := readBody(t, resp2)
	assert.Equal(t, body1, body2)

	// A write that bypasses the repository leaves the cached page stale
	createPost(t, s, author.ID, "sneaky direct insert")
	resp3 := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	body3 := readBody(t, resp3)
	assert.Equal(t, body1, body3)

	// Clearing the listing cache makes the next fetch see the new post
	cache.InvalidateListings(t.Context())
	resp4 := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	body4 := readBody(t, resp4)
	assert.NotEqual(t, body1, body4)
	assert.Contains(t, string(body4), "sneaky direct insert")

	// And the TTL bounds staleness on its own
	mr.FastForward(21 * time.Second)
	createPost(t, s, author.ID, "post after expiry")
	resp5 := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	assert.Contains(t, string(readBody(t, resp5)), "post after expiry")
}

func TestCreatePostClearsListingCache(t *testing.T) {
	s, app, _ := setupTestServer(t)

	author := createUser(t, s, "writer")
	token, err := s.generateToken(author.ID)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	before := readBody(t, resp)
	assert.NotContains(t, string(before), "fresh off the press")

	created := doRequest(t, app, http.MethodPost, "/api/posts", token,
		map[string]string{"text": "fresh off the press"})
	assert.Equal(t, http.StatusCreated, created.StatusCode)
	assert.Equal(t, "/api/users/writer", created.Header.Get("Location"))
	readBody(t, created)

	after := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	assert.Contains(t, string(readBody(t, after)), "fresh off the press")
}

func TestFollowFeedScenario(t *testing.T) {
	s, app, _ := setupTestServer(t)

	follower := createUser(t, s, "reader")
	author := createUser(t, s, "novelist")
	bystander := createUser(t, s, "lurker")

	followerToken, err := s.generateToken(follower.ID)
	require.NoError(t, err)
	bystanderToken, err := s.generateToken(bystander.ID)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodPost, "/api/users/novelist/follow", followerToken, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	readBody(t, resp)

	createPost(t, s, author.ID, "chapter one")

	var feed struct {
		Posts []models.Post `json:"posts"`
	}

	resp = doRequest(t, app, http.MethodGet, "/api/posts/feed", followerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(readBody(t, resp), &feed))
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "chapter one", feed.Posts[0].Text)

	// Someone who never followed sees nothing
	resp = doRequest(t, app, http.MethodGet, "/api/posts/feed", bystanderToken, nil)
	require.NoError(t, json.Unmarshal(readBody(t, resp), &feed))
	assert.Empty(t, feed.Posts)

	// After unfollowing, the feed is empty again
	resp = doRequest(t, app, http.MethodDelete, "/api/users/novelist/follow", followerToken, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	readBody(t, resp)

	resp = doRequest(t, app, http.MethodGet, "/api/posts/feed", followerToken, nil)
	require.NoError(t, json.Unmarshal(readBody(t, resp), &feed))
	assert.Empty(t, feed.Posts)
}

func TestSelfFollowLeavesNoEdge(t *testing.T) {
	s, app, _ := setupTestServer(t)

	user := createUser(t, s, "narcissus")
	token, err := s.generateToken(user.ID)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodPost, "/api/users/narcissus/follow", token, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	readBody(t, resp)

	var count int64
	require.NoError(t, s.db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFeedOrderingNewestFirst(t *testing.T) {
	s, app, _ := setupTestServer(t)

	author := createUser(t, s, "chronicler")
	older := &models.Post{Text: "older", AuthorID: author.ID,
		CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, s.db.Create(older).Error)
	newer := &models.Post{Text: "newer", AuthorID: author.ID,
		CreatedAt: time.Now()}
	require.NoError(t, s.db.Create(newer).Error)

	resp := doRequest(t, app, http.MethodGet, "/api/posts", "", nil)
	var body struct {
		Posts []models.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	require.Len(t, body.Posts, 2)
	assert.Equal(t, "newer", body.Posts[0].Text)
	assert.Equal(t, "older", body.Posts[1].Text)
}

func TestPostDetailWithComments(t *testing.T) {
	s, app, _ := setupTestServer(t)

	author := createUser(t, s, "poster")
	commenter := createUser(t, s, "replier")
	post := createPost(t, s, author.ID, "discuss")

	token, err := s.generateToken(commenter.ID)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/api/posts/%d/comments", post.ID), token,
		map[string]string{"text": "first!"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	readBody(t, resp)

	resp = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Post     models.Post      `json:"post"`
		Comments []models.Comment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	assert.Equal(t, "discuss", body.Post.Text)
	require.Len(t, body.Comments, 1)
	assert.Equal(t, "first!", body.Comments[0].Text)
	assert.Equal(t, "replier", body.Comments[0].Author.Username)
}

func TestSignupAndLogin(t *testing.T) {
	_, app, _ := setupTestServer(t)

	signup := map[string]string{
		"username": "newcomer",
		"email":    "newcomer@example.com",
		"password": "Str0ng!passw0rd",
	}

	resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", signup)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var auth authResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &auth))
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "newcomer", auth.User.Username)

	// Duplicate signup is rejected
	resp = doRequest(t, app, http.MethodPost, "/api/auth/signup", "", signup)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	readBody(t, resp)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "newcomer@example.com", "password": "Str0ng!passw0rd"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	readBody(t, resp)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "newcomer@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	readBody(t, resp)
}

func TestUnknownPathReturnsCustom404(t *testing.T) {
	_, app, _ := setupTestServer(t)

	resp := doRequest(t, app, http.MethodGet, "/api/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, "/api/does-not-exist", body.Path)
}

func TestCreateGroupRequiresAdmin(t *testing.T) {
	s, app, _ := setupTestServer(t)

	regular := createUser(t, s, "commoner")
	regularToken, err := s.generateToken(regular.ID)
	require.NoError(t, err)

	payload := map[string]string{"title": "Poetry", "slug": "poetry"}

	resp := doRequest(t, app, http.MethodPost, "/api/groups", regularToken, payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	assert.Equal(t, "FORBIDDEN", body.Code)

	admin := &models.User{
		Username: "curator",
		Email:    "curator@example.com",
		Password: "x",
		IsAdmin:  true,
	}
	require.NoError(t, s.db.Create(admin).Error)
	adminToken, err := s.generateToken(admin.ID)
	require.NoError(t, err)

	resp = doRequest(t, app, http.MethodPost, "/api/groups", adminToken, payload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	readBody(t, resp)
}

func TestFeedRequiresAuth(t *testing.T) {
	_, app, _ := setupTestServer(t)

	resp := doRequest(t, app, http.MethodGet, "/api/posts/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
