// Package groups implements the group lifecycle API.
package groups

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/group"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
	"github.com/ajo-platform/ajo-admin/internal/web/handler"
)

// Path is the base path of the group routes.
const Path = handler.APIRoot + "/groups"

// Service is the groups handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the groups handler.
var Handler = Service{}

// CreateRequest is the payload for creating a group.
type CreateRequest struct {
	Name               string     `json:"name" validate:"required,max=120"`
	Description        string     `json:"description" validate:"max=500"`
	ContributionAmount float64    `json:"contribution_amount" validate:"required"`
	Frequency          string     `json:"frequency" validate:"required,oneof=weekly monthly"`
	StartDate          *time.Time `json:"start_date"`
	DurationMonths     int        `json:"duration_months" validate:"min=0,max=36"`
	MaxMembers         int        `json:"max_members" validate:"required"`
	CreatedBy          uint64     `json:"created_by" validate:"required"`
}

// SettingsRequest is the payload for updating group settings.
type SettingsRequest struct {
	ContributionAmount float64 `json:"contribution_amount" validate:"required"`
	MaxMembers         int     `json:"max_members" validate:"required"`
}

// Init initializes the groups handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.cfg = cfg
	s.db = db

	app.Route(Path, func(router fiber.Router) {
		router.Post("/", s.Post)
		router.Get("/invite/:code", s.GetByInvite)
		router.Get("/:groupID", s.Get)
		router.Put("/:groupID/settings", s.PutSettings)
		router.Get("/:groupID/can-join/:userID", s.GetCanJoin)
	})

	return nil
}

// Post creates a new group.
func (s *Service) Post(c *fiber.Ctx) error {
	var req CreateRequest
	if err := handler.ParseBody(c, &req); err != nil {
		return err
	}

	g, err := group.Create(s.db, group.Params{
		Name:               req.Name,
		Description:        req.Description,
		ContributionAmount: req.ContributionAmount,
		Frequency:          models.GroupFrequency(req.Frequency),
		StartDate:          req.StartDate,
		DurationMonths:     req.DurationMonths,
		MaxMembers:         req.MaxMembers,
		CreatedBy:          req.CreatedBy,
	})
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(g)
}

// Get returns a single group.
func (s *Service) Get(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	g, err := group.Get(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(g)
}

// GetByInvite resolves a group by its invitation code.
func (s *Service) GetByInvite(c *fiber.Ctx) error {
	g, err := group.GetByInvitationCode(s.db, c.Params("code"))
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(g)
}

// GetCanJoin prechecks whether a user may join the group.
func (s *Service) GetCanJoin(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	userID, err := handler.ID64(c, "userID")
	if err != nil {
		return err
	}

	check, err := group.CanUserJoin(s.db, groupID, userID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(check)
}

// PutSettings updates the mutable group settings.
func (s *Service) PutSettings(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var req SettingsRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	g, err := group.UpdateSettings(s.db, groupID, req.ContributionAmount, req.MaxMembers)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(g)
}
