package server

import (
	"murmur/internal/middleware"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/me
// @Summary Current user
// @Description The signed-in user's profile and unread notification count.
// @Tags users
// @Produce json
// @Success 200 {object} service.Me
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	me, err := s.userSvc.Me(c.UserContext(), middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(me)
}

// UpdateMe handles PUT /api/me. Omitted fields are left unchanged; an empty
// string clears a field.
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{name=string,bio=string,location=string,website=string,image=string} true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [put]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		Name     *string `json:"name"`
		Bio      *string `json:"bio"`
		Location *string `json:"location"`
		Website  *string `json:"website"`
		Image    *string `json:"image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userSvc.UpdateProfile(c.UserContext(), middleware.Actor(c), service.UpdateProfileInput{
		Name:     req.Name,
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
		Image:    req.Image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:username
// @Summary Profile by username
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userSvc.GetProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetSuggestedUsers handles GET /api/users/suggested
// @Summary Who to follow
// @Description Users the caller does not follow yet, most followed first.
// @Tags users
// @Produce json
// @Param limit query int false "Number of suggestions (default 3, max 20)"
// @Success 200 {array} models.UserSummary
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/suggested [get]
func (s *Server) GetSuggestedUsers(c *fiber.Ctx) error {
	users, err := s.followSvc.ListSuggested(c.UserContext(), middleware.Actor(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ToggleFollow handles POST /api/users/:id/follow
// @Summary Follow or unfollow a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.followSvc.ToggleFollow(c.UserContext(), middleware.Actor(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "following": res.Active})
}

// GetFollowingStatus handles GET /api/users/:id/following-status.
// Anonymous callers always get false.
// @Summary Whether the caller follows a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{following=bool}
// @Router /users/{id}/following-status [get]
func (s *Server) GetFollowingStatus(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.followSvc.IsFollowing(c.UserContext(), middleware.Actor(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}
