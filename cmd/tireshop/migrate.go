package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applied, err := migrations.Up(cfg.Database.URL())
			if err != nil {
				return err
			}
			logging.New("migrate").WithFields(logging.Fields{"applied": applied}).Info("Schema up to date")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := migrations.Down(cfg.Database.URL()); err != nil {
				return err
			}
			logging.New("migrate").Info("Rolled back one migration")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			v, dirty, err := migrations.Version(cfg.Database.URL())
			if err != nil {
				return err
			}
			fmt.Printf("schema version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	})

	return cmd
}
