package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones de PostgreSQL (o revierte con --down)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.App.StorageDriver != "postgres" {
			return errors.New("migrate requiere STORAGE_DRIVER=postgres")
		}
		dsn := cfg.DB.ConnectionString()
		mlog := log.Component("migrate")
		if downSteps > 0 {
			return postgres.MigrateDown(dsn, downSteps, mlog)
		}
		return postgres.Migrate(dsn, mlog)
	},
}

func init() {
	migrateCmd.Flags().IntVar(&downSteps, "down", 0, "revertir N migraciones")
}
