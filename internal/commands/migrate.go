package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/paystream/internal/db"
)

func newMigrateCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				files, err := db.EmbeddedMigrations()
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			}

			cfg, log, err := loadEnv()
			if err != nil {
				return err
			}
			pool, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.RunMigrations(cmd.Context(), pool)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			log.Info("migrations applied", "files", applied)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migration files and exit")

	return cmd
}
