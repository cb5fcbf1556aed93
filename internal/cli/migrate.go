package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/calltrace/internal/config"
	"github.com/shaiso/calltrace/internal/repo"
	"github.com/shaiso/calltrace/internal/telemetry"
)

// NewMigrateCmd создаёт команду migrate.
func NewMigrateCmd(configFn func() (config.Config, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the record collection in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			out := outputFn()
			telemetry.SetupLogger(cfg.Log())

			pool, err := repo.NewPool(cmd.Context(), cfg.DBURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			records, err := repo.NewRecordRepo(pool, cfg.DBName, cfg.Collection)
			if err != nil {
				return err
			}
			if err := records.EnsureCollection(cmd.Context()); err != nil {
				return err
			}

			out.Info("Collection %s is ready", records.Table())
			return nil
		},
	}
}
