package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"taskTracker/internal/db"
	"taskTracker/internal/logging"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRawDB(cmd, opts, func(cmd *cobra.Command, d *sql.DB) error {
					applied, err := db.Migrate(cmd.Context(), d)
					if err != nil {
						return err
					}
					if len(applied) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
						return nil
					}
					for _, v := range applied {
						fmt.Fprintf(cmd.OutOrStdout(), "applied %04d\n", v)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Roll back the most recently applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRawDB(cmd, opts, func(cmd *cobra.Command, d *sql.DB) error {
					v, err := db.RollbackLast(cmd.Context(), d)
					if err != nil {
						return err
					}
					if v == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %04d\n", v)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied migration versions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRawDB(cmd, opts, func(cmd *cobra.Command, d *sql.DB) error {
					versions, err := db.AppliedVersions(cmd.Context(), d)
					if err != nil {
						return err
					}
					for _, v := range versions {
						fmt.Fprintf(cmd.OutOrStdout(), "%04d\n", v)
					}
					return nil
				})
			},
		},
	)
	return migrate
}

// withRawDB opens the configured database without migrating it.
func withRawDB(cmd *cobra.Command, opts *rootOptions, fn func(*cobra.Command, *sql.DB) error) error {
	cfg, err := opts.load(false)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level)
	d, err := db.OpenRaw(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer d.Close()
	return fn(cmd, d)
}
