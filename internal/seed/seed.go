package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options controls how much data the seeder generates.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// defaultGroups are the community groups every development database gets.
var defaultGroups = []struct {
	Title string
	Slug  string
}{
	{"Poetry", "poetry"},
	{"Short Fiction", "short-fiction"},
	{"Essays", "essays"},
	{"Travel Writing", "travel-writing"},
	{"Technology", "technology"},
	{"Photography", "photography"},
}

// Seeder populates the database with demo users, groups, posts, comments,
// and follow edges.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll removes all seeded content. Deletion order respects foreign keys.
func (s *Seeder) ClearAll() error {
	tables := []any{
		&models.Comment{},
		&models.Follow{},
		&models.Post{},
		&models.Group{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", table, err)
		}
	}
	log.Println("cleared existing data")
	return nil
}

// Run seeds the database: groups, users, posts spread across groups,
// comments, and a follow mesh so follow feeds have content.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	groups := make([]*models.Group, 0, len(defaultGroups))
	for _, g := range defaultGroups {
		group, err := s.factory.CreateGroup(g.Title, g.Slug)
		if err != nil {
			return fmt.Errorf("seeding group %q: %w", g.Slug, err)
		}
		groups = append(groups, group)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return fmt.Errorf("seeding user %d: %w", i, err)
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return fmt.Errorf("need at least one user to seed posts")
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		var group *models.Group
		// Roughly two thirds of posts land in a group
		if s.factory.rng.Intn(3) != 0 {
			group = groups[s.factory.rng.Intn(len(groups))]
		}

		post, err := s.factory.CreatePost(author, group, 90)
		if err != nil {
			return fmt.Errorf("seeding post %d: %w", i, err)
		}

		for c := s.factory.rng.Intn(4); c > 0; c-- {
			commenter := users[s.factory.rng.Intn(len(users))]
			if _, err := s.factory.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("seeding comment on post %d: %w", post.ID, err)
			}
		}
	}

	// Each user follows a handful of others
	for _, follower := range users {
		for n := 2 + s.factory.rng.Intn(4); n > 0; n-- {
			author := users[s.factory.rng.Intn(len(users))]
			if err := s.factory.CreateFollow(follower, author); err != nil {
				return fmt.Errorf("seeding follow: %w", err)
			}
		}
	}

	log.Printf("seeded %d groups, %d users, %d posts", len(groups), len(users), opts.NumPosts)
	return nil
}
