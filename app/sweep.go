package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/daemon"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/contribution"
	"github.com/ajo-platform/ajo-admin/internal/logger"
)

func init() { //nolint: gochecknoinits
	sweepCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	rootCmd.AddCommand(sweepCmd)
}

// sweepCmd runs the overdue sweep once and exits. The sweep is an explicit,
// externally triggered batch: pending contributions never flip to overdue as
// a side effect of a read.
var sweepCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Mark past-due pending contributions as overdue and exit",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}

		if err = logger.Init(cfg.Log); err != nil {
			panic(err)
		}
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := daemon.OpenDB(&cfg)
		if err != nil {
			return err
		}

		swept, err := contribution.SweepOverdue(db, clock.System{})
		if err != nil {
			return err
		}

		log.Info().Int("count", len(swept)).Msg("overdue sweep finished")

		return nil
	},
}
