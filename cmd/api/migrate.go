package main

import (
	"github.com/cmlabs-hris/contractor-backend-go/internal/repository/postgresql"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.Password == "" {
			return eris.New("DB_PASSWORD is required")
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgresql.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		zap.L().Info("migrations complete")
		return nil
	},
}
