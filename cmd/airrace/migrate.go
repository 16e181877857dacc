package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/database"
)

// ErrPostgresUnreachable is returned by migrate when only the local fallback
// could be opened.
var ErrPostgresUnreachable = errors.New("postgres unreachable")

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the race tables in Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setupRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			dbCfg, err := config.GetDBConfig()
			if err != nil {
				return err
			}
			mgr := database.NewManager(dbCfg, rt.zlog)
			if err := mgr.Connect(); err != nil {
				return err
			}
			defer func() {
				if mgr.SqlDB != nil {
					_ = mgr.SqlDB.Close()
				}
			}()
			if mgr.ShouldSaveLocal {
				return fmt.Errorf("%w at %s:%d", ErrPostgresUnreachable, dbCfg.Host, dbCfg.Port)
			}
			if err := mgr.Setup(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date on %s/%s\n", dbCfg.Host, dbCfg.Database)
			return nil
		},
	}
}
