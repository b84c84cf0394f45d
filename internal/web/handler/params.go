package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validate is the shared request validator instance.
var Validate = validator.New() //nolint:gochecknoglobals

// GroupID parses the :groupID route parameter.
func GroupID(c *fiber.Ctx) (uint, error) {
	v, err := strconv.ParseUint(c.Params("groupID"), 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid group id")
	}

	return uint(v), nil
}

// ID64 parses a 64-bit route parameter such as :userID or :distributionID.
func ID64(c *fiber.Ctx, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	return v, nil
}

// ParseBody unmarshals and validates a JSON request body.
func ParseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := Validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return nil
}
