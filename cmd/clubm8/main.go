// Command clubm8 serves the club's REST API and manages its database.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clubm8/clubm8api/internal/config"
	"github.com/clubm8/clubm8api/internal/database"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "clubm8",
	Short:         "Club events, plans, slots and news over REST",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	def := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.String("port", def.Port, "HTTP listen port")
	flags.String("log-level", def.LogLevel, "log level (debug, info, warn, error)")
	flags.String("timezone", def.Timezone, "IANA zone used for calendar dates")
	flags.String("db-driver", def.Database.Driver, "database driver (sqlite, mysql)")
	flags.String("db-dsn", def.Database.DSN, "database path or DSN")

	rootCmd.AddCommand(serveCmd, migrateCmd, loaddataCmd, slotCmd, userCmd, apikeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openDatabase loads the configuration and opens the migrated database.
func openDatabase(cmd *cobra.Command) (*config.Config, *sql.DB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, nil
}
