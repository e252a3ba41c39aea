// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"murmur/internal/models"
	"murmur/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder, scenarios and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rnd   *rand.Rand
	used  map[string]bool
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.RandomSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rnd:    rand.New(rand.NewSource(seed)), //nolint:gosec // seeding only
		used:   make(map[string]bool),
		nextID: 1000,
	}
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

// createdAt returns a timestamp spread over the last opts.MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().UTC().Add(-back)
}

// uniqueHandle derives a username from first and last that has not been
// handed out by this factory yet.
func (f *Factory) uniqueHandle(first, last string) string {
	base := validation.NormalizeHandle(first + "_" + last)
	if base == "" {
		base = "user"
	}
	for _, candidate := range validation.HandleCandidates(base) {
		if !f.used[candidate] {
			f.used[candidate] = true
			return candidate
		}
	}
	h := validation.NormalizeHandle(fmt.Sprintf("%s%d", base[:min(len(base), 20)], f.faker.Number(1000, 9999)))
	f.used[h] = true
	return h
}

// CreateUser constructs and persists a sample models.User.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := f.uniqueHandle(first, last)
	user := &models.User{
		ExternalID: "seed_" + uuid.NewString(),
		Email:      handle + "@" + f.faker.DomainName(),
		Name:       first + " " + last,
		Username:   handle,
		Bio:        f.faker.Sentence(10),
		Image:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", handle),
		Location:   f.faker.City(),
	}
	if f.rnd.Intn(3) == 0 {
		user.Website = "https://" + f.faker.DomainName()
	}

	for _, override := range overrides {
		override(user)
	}
	f.used[user.Username] = true

	if f.opts.DryRun {
		user.ID = f.assignID()
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost constructs a post for author without persisting it. Useful for
// batching.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		AuthorID:  author.ID,
		Content:   f.faker.Paragraph(1, f.rnd.Intn(3)+1, 12, "\n"),
		CreatedAt: f.createdAt(),
	}
	if f.rnd.Intn(4) == 0 {
		post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}

	for _, override := range overrides {
		override(post)
	}
	if len(post.Content) > validation.MaxPostLength {
		post.Content = strings.TrimSpace(post.Content[:validation.MaxPostLength])
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.assignID()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.Omit("Author", "Comments", "Likes").CreateInBatches(posts, batch).Error
}

// CreatePost constructs and persists a sample models.Post for author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.CreatePostsBatch([]*models.Post{post}); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment adds a comment by author on post and notifies the post's
// author.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Content:   f.faker.Sentence(f.rnd.Intn(12) + 3),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rnd.Intn(72)+1) * time.Hour),
	}
	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		comment.ID = f.assignID()
		return comment, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author").Create(comment).Error; err != nil {
			return err
		}
		return notify(tx, post.AuthorID, author.ID, models.NotificationComment, &post.ID, &comment.ID, comment.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateLike records user liking post and notifies the post's author.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	at := post.CreatedAt.Add(time.Duration(f.rnd.Intn(48)+1) * time.Hour)
	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Like{UserID: user.ID, PostID: post.ID, CreatedAt: at}).Error; err != nil {
			return fmt.Errorf("create like: %w", err)
		}
		return notify(tx, post.AuthorID, user.ID, models.NotificationLike, &post.ID, nil, at)
	})
}

// CreateFollow records follower following target and notifies target.
func (f *Factory) CreateFollow(follower, target *models.User) error {
	if follower.ID == target.ID {
		return fmt.Errorf("user %d cannot follow themselves", follower.ID)
	}
	if f.opts.DryRun {
		return nil
	}
	at := f.createdAt()
	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Follow{FollowerID: follower.ID, FollowingID: target.ID, CreatedAt: at}).Error; err != nil {
			return fmt.Errorf("create follow: %w", err)
		}
		return notify(tx, target.ID, follower.ID, models.NotificationFollow, nil, nil, at)
	})
}

// notify writes an unread notification unless the actor is the recipient.
func notify(tx *gorm.DB, recipient, creator uint, kind models.NotificationType, postID, commentID *uint, at time.Time) error {
	if recipient == creator {
		return nil
	}
	n := &models.Notification{
		UserID:    recipient,
		CreatorID: creator,
		Type:      kind,
		PostID:    postID,
		CommentID: commentID,
		CreatedAt: at,
	}
	if err := tx.Omit("Creator", "Post", "Comment").Create(n).Error; err != nil {
		return fmt.Errorf("create %s notification: %w", strings.ToLower(string(kind)), err)
	}
	return nil
}
