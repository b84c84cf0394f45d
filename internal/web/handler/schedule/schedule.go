// Package schedule implements the read-only rotation schedule API.
package schedule

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/config"
	schedulectl "github.com/ajo-platform/ajo-admin/internal/db/controller/schedule"
	"github.com/ajo-platform/ajo-admin/internal/web/handler"
)

// Path is the path of the schedule route.
const Path = handler.APIRoot + "/groups/:groupID/schedule"

// Service is the schedule handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the schedule handler.
var Handler = Service{}

// Init initializes the schedule handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, s.Get)

	return nil
}

// Get returns the group's payout schedule with the next recipient flagged.
func (s *Service) Get(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	sched, err := schedulectl.Get(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(sched)
}
