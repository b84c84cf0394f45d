// Package contributions implements the contribution ledger API.
package contributions

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/contribution"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
	"github.com/ajo-platform/ajo-admin/internal/web/handler"
)

// GroupPath is the base path of the group-scoped contribution routes.
const GroupPath = handler.APIRoot + "/groups/:groupID/contributions"

// Path is the base path of the contribution-scoped routes.
const Path = handler.APIRoot + "/contributions"

// Service is the contributions handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	clk clock.Clock
}

// Handler is the contributions handler.
var Handler = Service{clk: clock.System{}}

// RecordRequest is the payload for recording a scheduled contribution.
type RecordRequest struct {
	UserID        uint64    `json:"user_id" validate:"required"`
	Amount        float64   `json:"amount" validate:"required"`
	DueDate       time.Time `json:"due_date" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"omitempty,oneof=bank_transfer cash card wallet"`
}

// BulkRequest is the payload for creating one pending contribution per active
// member for a cycle.
type BulkRequest struct {
	DueDate      time.Time `json:"due_date" validate:"required"`
	ExcludeUsers []uint64  `json:"exclude_users"`
}

// PayRequest is the payload for marking a contribution paid.
type PayRequest struct {
	TransactionRef string     `json:"transaction_ref" validate:"max=120"`
	PaidDate       *time.Time `json:"paid_date"`
}

// CancelRequest is the payload for cancelling a contribution.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=250"`
}

// Init initializes the contributions handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.cfg = cfg
	s.db = db

	if s.clk == nil {
		s.clk = clock.System{}
	}

	app.Route(GroupPath, func(router fiber.Router) {
		router.Post("/", s.Post)
		router.Post("/bulk", s.PostBulk)
		router.Get("/", s.List)
		router.Get("/summary", s.GetSummary)
	})

	app.Route(Path, func(router fiber.Router) {
		router.Get("/overdue", s.GetOverdue)
		router.Post("/sweep-overdue", s.PostSweep)
		router.Post("/:contributionID/pay", s.PostPay)
		router.Post("/:contributionID/cancel", s.PostCancel)
	})

	app.Get(handler.APIRoot+"/users/:userID/contributions", s.ListForUser)

	return nil
}

// Post records a scheduled contribution for a member.
func (s *Service) Post(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var req RecordRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	contrib, err := contribution.Record(s.db, groupID, req.UserID, req.Amount, req.DueDate, req.PaymentMethod)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(contrib)
}

// PostBulk creates one pending contribution per active member for a cycle.
func (s *Service) PostBulk(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var req BulkRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	created, err := contribution.BulkCreateForCycle(s.db, groupID, req.DueDate, req.ExcludeUsers)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"contributions": created,
		"count":         len(created),
	})
}

// List returns the group's contributions, optionally filtered by ?status.
func (s *Service) List(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var status *models.ContributionStatus

	if q := c.Query("status"); q != "" {
		st := models.ContributionStatus(q)
		status = &st
	}

	rows, err := contribution.ForGroup(s.db, groupID, status)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"contributions": rows, "count": len(rows)})
}

// ListForUser returns a user's contributions across groups, optionally
// narrowed by ?group_id.
func (s *Service) ListForUser(c *fiber.Ctx) error {
	userID, err := handler.ID64(c, "userID")
	if err != nil {
		return err
	}

	var groupID *uint

	if q := c.QueryInt("group_id"); q > 0 {
		id := uint(q)
		groupID = &id
	}

	rows, err := contribution.ForUser(s.db, userID, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"contributions": rows, "count": len(rows)})
}

// GetSummary returns aggregate contribution stats for the group.
func (s *Service) GetSummary(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	summary, err := contribution.Summarize(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(summary)
}

// GetOverdue lists overdue contributions across all groups, at least
// ?min_days late.
func (s *Service) GetOverdue(c *fiber.Ctx) error {
	rows, err := contribution.ListOverdue(s.db, s.clk, c.QueryInt("min_days"))
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"overdue": rows, "count": len(rows)})
}

// PostPay marks a pending contribution as paid.
func (s *Service) PostPay(c *fiber.Ctx) error {
	id, err := handler.ID64(c, "contributionID")
	if err != nil {
		return err
	}

	var req PayRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	contrib, err := contribution.MarkPaid(s.db, s.clk, id, req.TransactionRef, req.PaidDate)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(contrib)
}

// PostCancel cancels a pending or overdue contribution.
func (s *Service) PostCancel(c *fiber.Ctx) error {
	id, err := handler.ID64(c, "contributionID")
	if err != nil {
		return err
	}

	var req CancelRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	contrib, err := contribution.Cancel(s.db, id, req.Reason)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(contrib)
}

// PostSweep flips every pending contribution past its due date to overdue.
func (s *Service) PostSweep(c *fiber.Ctx) error {
	ids, err := contribution.SweepOverdue(s.db, s.clk)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"swept": ids, "count": len(ids)})
}
