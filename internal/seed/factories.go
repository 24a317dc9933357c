// Package seed provides helpers to create demo data for development
// databases. Not for production use.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password assigned to every seeded account.
const DefaultPassword = "inkwell-dev"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rng  *rand.Rand
	hash string
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())

	// One bcrypt hash shared by all seeded users; hashing per user makes
	// large seeds unbearably slow.
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	return &Factory{
		db:   db,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		hash: string(hashed),
	}
}

// CreateUser persists a user with a generated identity.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := strings.ToLower(gofakeit.Username())
	if len(username) > 24 {
		username = username[:24]
	}

	user := &models.User{
		Username: fmt.Sprintf("%s%d", username, f.rng.Intn(10000)),
		Email:    gofakeit.Email(),
		Password: f.hash,
		Bio:      gofakeit.Sentence(8),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateGroup persists a group with a slug derived from its title.
func (f *Factory) CreateGroup(title, slug string) (*models.Group, error) {
	group := &models.Group{
		Title:       title,
		Slug:        slug,
		Description: gofakeit.Sentence(12),
	}
	if err := f.db.Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// CreatePost persists a post with a created_at spread over the past days
// so feeds look lived-in.
func (f *Factory) CreatePost(author *models.User, group *models.Group, maxDaysBack int) (*models.Post, error) {
	if maxDaysBack <= 0 {
		maxDaysBack = 90
	}

	post := &models.Post{
		Text:     gofakeit.Paragraph(1, 3, 8, "\n"),
		AuthorID: author.ID,
		CreatedAt: time.Now().
			Add(-time.Duration(f.rng.Intn(maxDaysBack)) * 24 * time.Hour).
			Add(-time.Duration(f.rng.Intn(24)) * time.Hour).
			Add(-time.Duration(f.rng.Intn(60)) * time.Minute),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	if f.rng.Intn(4) == 0 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a short comment on a post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Text:     gofakeit.Sentence(6 + f.rng.Intn(10)),
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow persists a follow edge; self-follows are silently skipped.
func (f *Factory) CreateFollow(follower, author *models.User) error {
	if follower.ID == author.ID {
		return nil
	}
	follow := &models.Follow{FollowerID: follower.ID, AuthorID: author.ID}
	return f.db.Where(&models.Follow{
		FollowerID: follower.ID,
		AuthorID:   author.ID,
	}).FirstOrCreate(follow).Error
}
