// Package members implements the group membership API.
package members

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/membership"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
	"github.com/ajo-platform/ajo-admin/internal/web/handler"
)

// Path is the base path of the membership routes.
const Path = handler.APIRoot + "/groups/:groupID/members"

// Service is the members handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	clk clock.Clock
}

// Handler is the members handler.
var Handler = Service{clk: clock.System{}}

// AddRequest is the payload for adding a member to a group.
type AddRequest struct {
	UserID   uint64 `json:"user_id" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin member"`
	Position *int   `json:"position"`
}

// RoleRequest is the payload for changing a member's role.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

// Init initializes the members handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.cfg = cfg
	s.db = db

	if s.clk == nil {
		s.clk = clock.System{}
	}

	app.Route(Path, func(router fiber.Router) {
		router.Post("/", s.Post)
		router.Get("/", s.List)
		router.Delete("/:userID", s.Delete)
		router.Patch("/:userID/role", s.PatchRole)
	})

	return nil
}

// Post adds a user to the group.
func (s *Service) Post(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var req AddRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	role := models.MemberRole(req.Role)
	if req.Role == "" {
		role = models.RoleMember
	}

	m, err := membership.Add(s.db, s.clk, groupID, req.UserID, role, req.Position)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

// List returns the group's members. Pass ?include_inactive=true to include
// pending, suspended and removed memberships.
func (s *Service) List(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	includeInactive := c.QueryBool("include_inactive")

	members, err := membership.List(s.db, groupID, includeInactive)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"members": members, "count": len(members)})
}

// Delete removes a member from the group.
func (s *Service) Delete(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	userID, err := handler.ID64(c, "userID")
	if err != nil {
		return err
	}

	if err = membership.Remove(s.db, groupID, userID); err != nil {
		return handler.RespondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PatchRole changes a member's role.
func (s *Service) PatchRole(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	userID, err := handler.ID64(c, "userID")
	if err != nil {
		return err
	}

	var req RoleRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	if err = membership.UpdateRole(s.db, groupID, userID, models.MemberRole(req.Role)); err != nil {
		return handler.RespondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
