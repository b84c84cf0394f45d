package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ajo-platform/ajo-admin/internal/db/controller/contribution"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/distribution"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/group"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/membership"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/position"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/schedule"
)

var notFoundErrors = []error{
	group.ErrGroupNotFound,
	membership.ErrGroupNotFound,
	position.ErrGroupNotFound,
	contribution.ErrGroupNotFound,
	contribution.ErrContributionNotFound,
	distribution.ErrGroupNotFound,
	distribution.ErrDistributionNotFound,
	schedule.ErrGroupNotFound,
}

var conflictErrors = []error{
	membership.ErrAlreadyMember,
	membership.ErrPositionTaken,
	membership.ErrLastAdmin,
	membership.ErrGroupFull,
	group.ErrSettingsLocked,
	contribution.ErrAlreadyProcessed,
	distribution.ErrAlreadyProcessed,
}

var badRequestErrors = []error{
	group.ErrInvalidAmount,
	group.ErrInvalidFrequency,
	group.ErrInvalidMaxMembers,
	membership.ErrInvalidRole,
	membership.ErrInvalidPosition,
	membership.ErrNotActiveMember,
	position.ErrInvalidAssignment,
	position.ErrNotActiveMember,
	position.ErrNoPosition,
	position.ErrNoActiveMembers,
	contribution.ErrNotActiveMember,
	contribution.ErrAmountMismatch,
	contribution.ErrNoEligibleMembers,
	distribution.ErrNotActiveMember,
	distribution.ErrExceedsMaximum,
	distribution.ErrNoActiveMembers,
}

// RespondError maps controller errors to HTTP responses. Business-rule
// violations surface their specific reason; anything unrecognized is treated
// as a storage fault and reported as service unavailable.
func RespondError(c *fiber.Ctx, err error) error {
	for _, known := range notFoundErrors {
		if errors.Is(err, known) {
			return respond(c, fiber.StatusNotFound, err)
		}
	}

	for _, known := range conflictErrors {
		if errors.Is(err, known) {
			return respond(c, fiber.StatusConflict, err)
		}
	}

	for _, known := range badRequestErrors {
		if errors.Is(err, known) {
			return respond(c, fiber.StatusBadRequest, err)
		}
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("storage error")

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "storage unavailable",
	})
}

func respond(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
