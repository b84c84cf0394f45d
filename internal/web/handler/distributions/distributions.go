// Package distributions implements the payout distribution API.
package distributions

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/distribution"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
	"github.com/ajo-platform/ajo-admin/internal/web/handler"
)

// GroupPath is the base path of the group-scoped distribution routes.
const GroupPath = handler.APIRoot + "/groups/:groupID/distributions"

// Path is the base path of the distribution-scoped routes.
const Path = handler.APIRoot + "/distributions"

// Service is the distributions handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
	clk clock.Clock
}

// Handler is the distributions handler.
var Handler = Service{clk: clock.System{}}

// CreateRequest is the payload for recording a payout.
type CreateRequest struct {
	RecipientID uint64     `json:"recipient_id" validate:"required"`
	Amount      float64    `json:"amount" validate:"required"`
	Date        *time.Time `json:"date"`
	Notes       string     `json:"notes" validate:"max=500"`
}

// CompleteRequest is the payload for confirming a payout.
type CompleteRequest struct {
	TransactionRef string `json:"transaction_ref" validate:"max=120"`
}

// FailRequest is the payload for marking a payout failed.
type FailRequest struct {
	Reason string `json:"reason" validate:"required,max=250"`
}

// Init initializes the distributions handler.
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
		router.Get("/", s.List)
		router.Get("/next-recipient", s.GetNextRecipient)
		router.Get("/amount", s.GetAmount)
		router.Get("/history", s.GetHistory)
		router.Get("/summary", s.GetSummary)
		router.Get("/eligibility/:userID", s.GetEligibility)
	})

	app.Route(Path, func(router fiber.Router) {
		router.Post("/:distributionID/complete", s.PostComplete)
		router.Post("/:distributionID/fail", s.PostFail)
	})

	app.Get(handler.APIRoot+"/users/:userID/distributions", s.ListForUser)

	return nil
}

// Post records a payout to the given recipient.
func (s *Service) Post(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var req CreateRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	d, err := distribution.Create(s.db, s.clk, groupID, req.RecipientID, req.Amount, req.Date, req.Notes)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(d)
}

// List returns the group's distributions, optionally filtered by ?status.
func (s *Service) List(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	var status *models.DistributionStatus

	if q := c.Query("status"); q != "" {
		st := models.DistributionStatus(q)
		status = &st
	}

	rows, err := distribution.ForGroup(s.db, groupID, status)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"distributions": rows, "count": len(rows)})
}

// ListForUser returns a user's payout history across groups, optionally
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

	rows, err := distribution.ForUser(s.db, userID, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"distributions": rows, "count": len(rows)})
}

// GetNextRecipient returns the member next in line for a payout.
func (s *Service) GetNextRecipient(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	recipient, err := distribution.NextRecipient(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(recipient)
}

// GetAmount reports the distributable pool for a period. The period defaults
// to the current month through today; override with ?period_start and
// ?period_end (RFC 3339).
func (s *Service) GetAmount(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	periodStart, err := queryTime(c, "period_start")
	if err != nil {
		return err
	}

	periodEnd, err := queryTime(c, "period_end")
	if err != nil {
		return err
	}

	report, err := distribution.CalculateAmount(s.db, s.clk, groupID, periodStart, periodEnd)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(report)
}

// GetHistory returns the most recent distributions, newest first. Defaults to
// ten entries; override with ?limit.
func (s *Service) GetHistory(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 10)

	rows, err := distribution.History(s.db, groupID, limit)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"distributions": rows, "count": len(rows)})
}

// GetSummary returns aggregate payout stats for the group.
func (s *Service) GetSummary(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	summary, err := distribution.Summarize(s.db, groupID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(summary)
}

// GetEligibility checks whether a member may receive the next payout and
// surfaces any advisory warnings.
func (s *Service) GetEligibility(c *fiber.Ctx) error {
	groupID, err := handler.GroupID(c)
	if err != nil {
		return err
	}

	userID, err := handler.ID64(c, "userID")
	if err != nil {
		return err
	}

	elig, err := distribution.ValidateEligibility(s.db, s.clk, s.cfg.Rotation, groupID, userID)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(elig)
}

// PostComplete confirms a pending payout.
func (s *Service) PostComplete(c *fiber.Ctx) error {
	id, err := handler.ID64(c, "distributionID")
	if err != nil {
		return err
	}

	var req CompleteRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	d, err := distribution.Complete(s.db, id, req.TransactionRef)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(d)
}

// PostFail marks a pending payout as failed, keeping the reason on record.
func (s *Service) PostFail(c *fiber.Ctx) error {
	id, err := handler.ID64(c, "distributionID")
	if err != nil {
		return err
	}

	var req FailRequest
	if err = handler.ParseBody(c, &req); err != nil {
		return err
	}

	d, err := distribution.Fail(s.db, id, req.Reason)
	if err != nil {
		return handler.RespondError(c, err)
	}

	return c.JSON(d)
}

func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	q := c.Query(name)
	if q == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, q)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	return &t, nil
}
