package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

// seed creates a handful of demo users for dev mode so the API can be
// exercised against a fresh database.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		log.Error().Err(err).Msg("seed: failed to count users")
		return
	}

	if count > 0 {
		return
	}

	users := []models.User{
		{Active: true, FullName: "Amina Bello", Email: "amina@example.com"},
		{Active: true, FullName: "Chike Obi", Email: "chike@example.com"},
		{Active: true, FullName: "Funmi Adeyemi", Email: "funmi@example.com"},
		{Active: true, FullName: "Tunde Okafor", Email: "tunde@example.com"},
		{Active: true, FullName: "Ngozi Eze", Email: "ngozi@example.com"},
	}

	if err := db.Create(&users).Error; err != nil {
		log.Error().Err(err).Msg("seed: failed to create demo users")
		return
	}

	log.Info().Int("users", len(users)).Msg("seeded demo users")
}
