package service

import (
	"context"
	"strings"

	"murmur/internal/cache"
	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"golang.org/x/sync/errgroup"
)

type UserService struct {
	store repository.Store
	views invalidation.Enqueuer
}

// UpdateProfileInput carries the fields to change. Nil fields are left as they are.
type UpdateProfileInput struct {
	Name     *string
	Bio      *string
	Location *string
	Website  *string
	Image    *string
}

// Me is the signed-in user's own view.
type Me struct {
	User                *models.User `json:"user"`
	UnreadNotifications int64        `json:"unread_notifications"`
}

func NewUserService(store repository.Store, views invalidation.Enqueuer) *UserService {
	return &UserService{store: store, views: views}
}

// GetProfile returns the profile of username with its follower, following and post counts.
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}

	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(username), &profile, cache.ProfileTTL, func() error {
		repos := s.store.Repos()
		user, err := repos.Users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return models.NewNotFoundError("User", username)
		}
		profile = models.Profile{User: *user}
		profile.Email = ""

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			n, err := repos.Follows.CountFollowers(gctx, user.ID)
			profile.FollowerCount = n
			return err
		})
		g.Go(func() error {
			n, err := repos.Follows.CountFollowing(gctx, user.ID)
			profile.FollowingCount = n
			return err
		})
		g.Go(func() error {
			n, err := repos.Posts.CountByAuthor(gctx, user.ID)
			profile.PostCount = n
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Me returns the actor's user row and unread notification count.
func (s *UserService) Me(ctx context.Context, actor identity.Actor) (*Me, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	user, err := repos.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	unread, err := repos.Notifications.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &Me{User: user, UnreadNotifications: unread}, nil
}

// UpdateProfile changes the actor's editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, actor identity.Actor, in UpdateProfileInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "UpdateProfile")
	defer func() {
		recordMutation("profile", err)
		observability.EndSpan(span, err)
	}()

	if err := requireActor(actor); err != nil {
		return nil, err
	}

	users := s.store.Repos().Users
	user, err = users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		name  string
		value *string
		dest  *string
		max   int
	}{
		{"name", in.Name, &user.Name, validation.MaxNameLength},
		{"bio", in.Bio, &user.Bio, validation.MaxBioLength},
		{"location", in.Location, &user.Location, validation.MaxLocationLength},
		{"website", in.Website, &user.Website, validation.MaxWebsiteLength},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := validation.SanitizeText(*f.value)
		if err := validation.CheckLength(f.name, v, f.max); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if f.name == "website" {
			if err := validation.ValidateHTTPURL(f.name, v); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
		}
		*f.dest = v
	}
	if in.Image != nil {
		image := strings.TrimSpace(*in.Image)
		if err := validation.ValidateHTTPURL("image", image); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Image = image
	}

	if err := users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	// name and image are embedded in every post view of this author
	s.views.Enqueue(ctx,
		invalidation.Profile(user.Username),
		invalidation.Author(user.ID),
		invalidation.Feed(),
	)
	return user, nil
}
