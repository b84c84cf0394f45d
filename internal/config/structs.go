package config

import (
	"github.com/ajo-platform/ajo-admin/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Rotation  Rotation
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

// Rotation holds the distribution eligibility policy knobs. The thresholds
// are advisory warning levels surfaced to group admins, not hard blocks.
type Rotation struct {
	// RecentPayoutLockoutDays is how far back a completed distribution to the
	// same recipient raises a "recently received" warning.
	RecentPayoutLockoutDays int
	// MinContributionRate is the trailing contribution rate (percent) below
	// which a recipient raises a "low contribution rate" warning.
	MinContributionRate float64
	// ContributionRateWindowDays is the trailing window over which the
	// contribution rate is computed.
	ContributionRateWindowDays int
}
