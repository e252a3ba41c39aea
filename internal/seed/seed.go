package seed

import (
	"fmt"
	"log"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// Options tune the generated data set.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// FollowsPerUser is the average out-degree of the follow graph.
	FollowsPerUser int
	// MaxDays bounds how far back generated timestamps reach.
	MaxDays   int
	BatchSize int
	DryRun    bool
	// RandomSeed makes a run reproducible when non-zero.
	RandomSeed int64
}

// DefaultOptions is the data set cmd/seed produces without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:       50,
		NumPosts:       200,
		ShouldClean:    true,
		FollowsPerUser: 8,
		MaxDays:        90,
		BatchSize:      100,
	}
}

// Stats counts what a run wrote.
type Stats struct {
	Users    int
	Follows  int
	Posts    int
	Comments int
	Likes    int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d users, %d follows, %d posts, %d comments, %d likes",
		s.Users, s.Follows, s.Posts, s.Comments, s.Likes)
}

// Seeder drives a Factory to build a connected social graph.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying factory for ad-hoc fixtures.
func (s *Seeder) Factory() *Factory { return s.factory }

// Seed populates the database according to s's options.
func (s *Seeder) Seed() (Stats, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return Stats{}, err
		}
	}

	users, follows, err := s.SeedSocialMesh(s.opts.NumUsers)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created, %d follows", len(users), follows)

	stats, err := s.SeedEngagement(users, s.opts.NumPosts)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create engagement: %w", err)
	}
	stats.Users = len(users)
	stats.Follows = follows

	log.Printf("🎉 Database seeding completed: %s", stats)
	return stats, nil
}

// ClearAll removes every row the seeder can write.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		return nil
	}
	log.Println("🗑️  Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE notifications, likes, comments, posts, follows, users RESTART IDENTITY CASCADE`).Error
	}
	for _, model := range []interface{}{
		&models.Notification{}, &models.Like{}, &models.Comment{},
		&models.Post{}, &models.Follow{}, &models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// SeedSocialMesh creates count users and a random follow graph between them.
// It returns the users and the number of follows written.
func (s *Seeder) SeedSocialMesh(count int) ([]*models.User, int, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if len(users) < 2 {
		return users, 0, nil
	}

	degree := s.opts.FollowsPerUser
	if degree <= 0 {
		degree = 5
	}
	if degree > len(users)-1 {
		degree = len(users) - 1
	}

	follows := 0
	rnd := s.factory.rnd
	for _, follower := range users {
		n := rnd.Intn(degree) + 1
		for _, idx := range rnd.Perm(len(users))[:min(len(users), n+1)] {
			target := users[idx]
			if target.ID == follower.ID || n == 0 {
				continue
			}
			if err := s.factory.CreateFollow(follower, target); err != nil {
				return nil, 0, err
			}
			follows++
			n--
		}
	}
	return users, follows, nil
}

// SeedEngagement writes numPosts posts spread over users, then comments and
// likes from random other users.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) (Stats, error) {
	var stats Stats
	if len(users) == 0 || numPosts <= 0 {
		return stats, nil
	}

	rnd := s.factory.rnd
	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		posts = append(posts, s.factory.BuildPost(users[rnd.Intn(len(users))]))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return stats, fmt.Errorf("create posts: %w", err)
	}
	stats.Posts = len(posts)

	for _, post := range posts {
		for _, idx := range rnd.Perm(len(users))[:rnd.Intn(min(len(users), 6))] {
			if _, err := s.factory.CreateComment(users[idx], post); err != nil {
				return stats, err
			}
			stats.Comments++
		}
		for _, idx := range rnd.Perm(len(users))[:rnd.Intn(min(len(users), 12))] {
			if err := s.factory.CreateLike(users[idx], post); err != nil {
				return stats, err
			}
			stats.Likes++
		}
	}
	return stats, nil
}
