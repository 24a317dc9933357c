package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupSQLiteDB opens an isolated in-memory database with the full schema.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func mustCreatePost(t *testing.T, db *gorm.DB, authorID uint, text string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: authorID, CreatedAt: createdAt}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestPostRepository_ListNewestFirstWithStableTieBreak(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := mustCreateUser(t, db, "chronicler")
	now := time.Now().Truncate(time.Second)

	mustCreatePost(t, db, author.ID, "oldest", now.Add(-2*time.Hour))
	// Two posts share a timestamp; the higher ID must come first
	tied1 := mustCreatePost(t, db, author.ID, "tied-first-inserted", now)
	tied2 := mustCreatePost(t, db, author.ID, "tied-second-inserted", now)

	posts, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, tied2.ID, posts[0].ID)
	assert.Equal(t, tied1.ID, posts[1].ID)
	assert.Equal(t, "oldest", posts[2].Text)
}

func TestPostRepository_GetByGroupID(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := mustCreateUser(t, db, "joiner")
	group := &models.Group{Title: "Poetry", Slug: "poetry"}
	require.NoError(t, db.Create(group).Error)

	inGroup := &models.Post{Text: "a poem", AuthorID: author.ID, GroupID: &group.ID}
	require.NoError(t, db.Create(inGroup).Error)
	mustCreatePost(t, db, author.ID, "ungrouped", time.Now())

	posts, err := repo.GetByGroupID(ctx, group.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a poem", posts[0].Text)

	count, err := repo.CountByGroupID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostRepository_GetByAuthorID(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	ana := mustCreateUser(t, db, "ana")
	ben := mustCreateUser(t, db, "ben")
	mustCreatePost(t, db, ana.ID, "by ana", time.Now())
	mustCreatePost(t, db, ben.ID, "by ben", time.Now())

	posts, err := repo.GetByAuthorID(ctx, ana.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "by ana", posts[0].Text)

	count, err := repo.CountByAuthorID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostRepository_ListFollowed(t *testing.T) {
	db := setupSQLiteDB(t)
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	reader := mustCreateUser(t, db, "reader")
	novelist := mustCreateUser(t, db, "novelist")
	lurker := mustCreateUser(t, db, "lurker")

	require.NoError(t, follows.Follow(ctx, reader.ID, novelist.ID))
	mustCreatePost(t, db, novelist.ID, "chapter one", time.Now())

	feed, err := posts.ListFollowed(ctx, reader.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "chapter one", feed[0].Text)

	// The feed only covers followed authors
	empty, err := posts.ListFollowed(ctx, lurker.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	count, err := posts.CountFollowed(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostRepository_GetByIDIncludesCommentCount(t *testing.T) {
	db := setupSQLiteDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := mustCreateUser(t, db, "poster")
	replier := mustCreateUser(t, db, "replier")
	post := mustCreatePost(t, db, author.ID, "discuss", time.Now())

	for i := 0; i < 3; i++ {
		require.NoError(t, comments.Create(ctx, &models.Comment{
			Text: "reply", AuthorID: replier.ID, PostID: post.ID,
		}))
	}

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CommentsCount)
	assert.Equal(t, "poster", got.Author.Username)

	// The count must survive scanning in listings too, not just detail
	listed, err := posts.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 3, listed[0].CommentsCount)
}

func TestFollowRepository_FollowIsIdempotent(t *testing.T) {
	db := setupSQLiteDB(t)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	reader := mustCreateUser(t, db, "reader")
	novelist := mustCreateUser(t, db, "novelist")

	require.NoError(t, follows.Follow(ctx, reader.ID, novelist.ID))
	require.NoError(t, follows.Follow(ctx, reader.ID, novelist.ID))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	following, err := follows.IsFollowing(ctx, reader.ID, novelist.ID)
	require.NoError(t, err)
	assert.True(t, following)
}

func TestFollowRepository_UnfollowRemovesEdge(t *testing.T) {
	db := setupSQLiteDB(t)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	reader := mustCreateUser(t, db, "reader")
	novelist := mustCreateUser(t, db, "novelist")

	require.NoError(t, follows.Follow(ctx, reader.ID, novelist.ID))
	require.NoError(t, follows.Unfollow(ctx, reader.ID, novelist.ID))

	following, err := follows.IsFollowing(ctx, reader.ID, novelist.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// Unfollowing again is harmless
	require.NoError(t, follows.Unfollow(ctx, reader.ID, novelist.ID))
}

func TestCommentRepository_ListByPostOldestFirst(t *testing.T) {
	db := setupSQLiteDB(t)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := mustCreateUser(t, db, "poster")
	post := mustCreatePost(t, db, author.ID, "discuss", time.Now())

	first := &models.Comment{Text: "first", AuthorID: author.ID, PostID: post.ID,
		CreatedAt: time.Now().Add(-time.Minute)}
	require.NoError(t, db.Create(first).Error)
	second := &models.Comment{Text: "second", AuthorID: author.ID, PostID: post.ID,
		CreatedAt: time.Now()}
	require.NoError(t, db.Create(second).Error)

	got, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
}
