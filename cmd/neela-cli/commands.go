package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"neela-data/common/database"
	"neela-data/common/logger"
	"neela-data/internal/config"
	"neela-data/internal/repository"
	"neela-data/internal/search"
	"neela-data/internal/service"
	"neela-data/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "neela-cli",
		Short:         "Operator tools for the neela-data property console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDashboardCmd())
	root.AddCommand(newExportTicketsCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

// loadSession 按配置的数据源加载一次快照；CLI 下加载失败直接报错
func loadSession(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Session, func(), error) {
	cleanup := func() {}
	var source service.DataSource
	switch cfg.DataSource {
	case "postgres":
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = database.Close(db) }
		source = repository.NewPostgresDataSource(db)
	case "http":
		source = repository.NewHTTPDataSource(cfg.Backend, log)
	default:
		source = repository.NewMemoryDataSource()
	}

	session := store.NewSession()
	if err := service.NewLoader(source, session, log).Load(ctx); err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return session, cleanup, nil
}

func cliLogger(cfg *config.Config) *zap.Logger {
	log, err := logger.NewLogger(cfg.Log.Level, "console", "neela-cli")
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard KPIs as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := cliLogger(cfg)
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			session, cleanup, err := loadSession(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to load data: %w", err)
			}
			defer cleanup()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(service.NewDashboardService(session).Summary())
		},
	}
}

func newExportTicketsCmd() *cobra.Command {
	var (
		out string
		q   search.TicketQuery
	)
	cmd := &cobra.Command{
		Use:   "export-tickets",
		Short: "Export maintenance tickets to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := cliLogger(cfg)
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			session, cleanup, err := loadSession(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to load data: %w", err)
			}
			defer cleanup()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			maintenance := service.NewMaintenanceService(session, nil, service.NewLogNotifier(log), log)
			if err := maintenance.ExportTickets(q, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tickets to %s\n", len(maintenance.List(q)), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "maintenance.xlsx", "output file")
	cmd.Flags().StringVar(&q.Text, "q", "", "text search over description, category and tenant name")
	cmd.Flags().StringVar(&q.Status, "status", "", "ticket status (Open, In Progress, Resolved, Closed)")
	cmd.Flags().StringVar(&q.Priority, "priority", "", "ticket priority (Low, Medium, High, Emergency)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), repository.Schema())
				return err
			}
			cfg := config.Load()
			db, err := database.NewPostgresDB(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema applied to %s\n", cfg.Database.Database)
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}
