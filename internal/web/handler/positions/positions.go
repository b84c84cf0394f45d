// Package positions implements the payout position API.
package positions

import (
	"errors"
	"math/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/position"
	"github.com/ajo-platform/ajo-admin/internal/web/handler"
)

// Path is the base path of the position routes.
const Path = handler.APIRoot + "/groups/:groupID/positions"

// Service is the positions handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the positions handler.
var Handler = Service{}

// ManualRequest is the payload for assigning positions explicitly.
type ManualRequest struct {
	Assignments []ManualAssignment `json:"assignments" validate:"required,min=1,dive"`
}

// ManualAssignment is one user-to-position pair.
type ManualAssignment struct {
	UserID   uint64 `json:"user_id" validate:"required"`
	Position int    `json:"position" validate:"required,min=1"`
}

// SwapRequest is the payload for swapping two members' positions.
type SwapRequest struct {
	UserA uint64 `json:"user_a" validate:"required"`
	UserB uint64 `json:"user_b" validate:"required,nefield=UserA"`
}

// Init initializes the positions handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.cfg = cfg
	s.db = db

	app.Route(Path, func(router fiber.Router) {
		router.Get("/", s.List)
		router.Post("/random", s.PostRandom)
		router.Post("/auto", s.PostAuto)
		router.Put("/", s.PutManual)
		router.Post("/swap", s.PostSwap)
		router.Get("/validate", s.GetValidate)
	})

	return nil
}

// List returns the current position assignments.
func (s *Service) List(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	positions, err := position.Positions(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"positions": positions, "count": len(positions)})
}

// PostRandom shuffles all active members into a fresh random order.
func (s *Service) PostRandom(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec

	assigned, err := position.AssignRandom(s.db, rng, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"assigned": assigned})
}

// PostAuto fills in positions for members that have none, in join order.
func (s *Service) PostAuto(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	assigned, err := position.AutoAssignMissing(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"assigned": assigned, "count": len(assigned)})
}

// PutManual applies an explicit set of position assignments.
func (s *Service) PutManual(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var req ManualRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	assignments := make([]position.Assignment, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		assignments = append(assignments, position.Assignment{
			UserID:   a.UserID,
			Position: a.Position,
		})
	}

	assigned, err := position.AssignManual(s.db, groupID, assignments)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"assigned": assigned})
}

// PostSwap exchanges the positions of two members.
func (s *Service) PostSwap(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var req SwapRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	result, err := position.Swap(s.db, groupID, req.UserA, req.UserB)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(result)
}

// GetValidate reports on the integrity of the group's position assignment.
func (s *Service) GetValidate(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	report, err := position.Validate(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(report)
}
