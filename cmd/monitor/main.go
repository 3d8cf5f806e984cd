package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/deposit-monitor/pkg/app"
	"github.com/chainsafe/deposit-monitor/pkg/app/server"
	"github.com/chainsafe/deposit-monitor/pkg/auth"
	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/migrations/monitordb"
	"github.com/chainsafe/deposit-monitor/pkg/pgutil"
	mghelper "github.com/chainsafe/deposit-monitor/pkg/pgutil/migrations"
)

func main() {
	root := &cobra.Command{
		Use:          "monitor",
		Short:        "Identity deposit monitor and automatic refunder",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "config file path")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the reconciliation engine and admin API",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:       "migrate [init|up|down|status]",
			Short:     "Manage the monitor database schema",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{mghelper.CommandInit, mghelper.CommandUp, mghelper.CommandDown, mghelper.CommandStatus},
			RunE:      runMigrate,
		},
	)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API bearer token",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
	tokenCmd.Flags().String("subject", "operator", "token subject recorded in audit logs")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	root.AddCommand(tokenCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var runner app.Runner = server.NewServer(cfg)
	return runner.Run()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := pgutil.ConnectDB(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migrate.NewMigrator(db, monitordb.Migrations)
	return mghelper.RunMigrations(context.Background(), migrator, logger, args[0])
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	subject, _ := cmd.Flags().GetString("subject")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := auth.NewJWTValidator(cfg.Auth).IssueToken(subject, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
