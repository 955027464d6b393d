package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"gojsm/adapters/db/postgres/migrations"
	"gojsm/internal"
	"gojsm/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var configPath string
	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the run storage schema",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("JSM_CONFIG_FILE"), "YAML configuration file")

	open := func() (*sqlx.DB, *migrations.Migrator, error) {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, nil, err
		}
		if !cfg.Database.Enabled() {
			return nil, nil, fmt.Errorf("DATABASE_URL is required")
		}
		db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
		return db, migrations.NewMigrator(db, logger), nil
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, m, err := open()
				if err != nil {
					return err
				}
				defer db.Close()

				applied, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, m, err := open()
				if err != nil {
					return err
				}
				defer db.Close()

				status, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
				for _, s := range status {
					fmt.Fprintf(tw, "%s\t%s\t%v\n", s.Version, s.Name, s.Applied)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Check applied migrations against their recorded checksums",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, m, err := open()
				if err != nil {
					return err
				}
				defer db.Close()

				drifted, err := m.Verify(cmd.Context())
				if err != nil {
					return err
				}
				if len(drifted) > 0 {
					return fmt.Errorf("migrations changed after being applied: %v", drifted)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all applied migrations match")
				return nil
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
