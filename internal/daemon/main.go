// Package daemon wires configuration, database and web service together.
package daemon

import (
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/dsn"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
	"github.com/ajo-platform/ajo-admin/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	return d.webService.Run()
}

// OpenDB opens the configured database engine and migrates the schema.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Contribution{},
		&models.Distribution{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := OpenDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
		return nil
	}

	if cfg.DevMode {
		seed(cfg, db)
	}

	return &Daemon{
		webService: web.New(cfg, db),
	}
}
