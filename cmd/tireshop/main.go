// Command tireshop runs the tire shop service and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tireshop",
		Short:         "Tire shop work orders, inventory and scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tireshop version %s\n", handlers.BuildVersion)
		},
	})
	return cmd
}

// loadConfig reads the environment and configures logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, errors.Wrap(err, "configure logging")
	}
	return cfg, nil
}
