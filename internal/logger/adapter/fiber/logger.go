// Package fiber provides a fiber access logging middleware backed by zerolog.
package fiber

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ajo-platform/ajo-admin/internal/logger"
)

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Config of the logger.
	Config logger.Log

	// CheckAliveURI for disabling logging of check alive http calls.
	CheckAliveURI string
}

// New creates a new fiber access logging middleware using zerolog.
func New(config Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if config.Next != nil && config.Next(c) {
			return c.Next()
		}

		// health checks spam the access log, skip them when configured
		if config.Config.DisableCheckAlive && c.Path() == config.CheckAliveURI {
			return c.Next()
		}

		start := time.Now()
		chainErr := c.Next()

		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Msg("access")

		return nil
	}
}
