// Package handler defines the shared contract and helpers for web handlers.
package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/config"
)

// APIRoot is the common prefix of all JSON API routes.
const APIRoot = "/api/v1"

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error
}
