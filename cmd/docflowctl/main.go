// Command docflowctl is the administrative CLI: schema migration, document
// review from the terminal, statistics and the role catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/DocFlow/internal/config"
	"github.com/dharsanguruparan/DocFlow/internal/database"
	"github.com/dharsanguruparan/DocFlow/internal/document"
	"github.com/dharsanguruparan/DocFlow/internal/logger"
	"github.com/dharsanguruparan/DocFlow/internal/query"
	"github.com/dharsanguruparan/DocFlow/internal/repository"
	"github.com/dharsanguruparan/DocFlow/internal/roles"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docflowctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docflowctl",
		Short: "DocFlow administration CLI",
		Long: `docflowctl talks to the DocFlow database directly. It migrates the schema,
lists and reviews documents, prints statistics and manages the role catalog.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $DOCFLOW_CONFIG)")
	cmd.AddCommand(
		newMigrateCmd(),
		newDocumentsCmd(),
		newStatsCmd(),
		newRolesCmd(),
	)
	return cmd
}

// app holds the services a command needs. close releases the pool.
type app struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	engine *document.Engine
	query  *query.Service
	roles  *roles.Service
	log    *zap.Logger
}

func (a *app) close() {
	a.pool.Close()
	_ = a.log.Sync()
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	zlog, err := logger.New(cfg.LogEnvironment, level)
	if err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	store := repository.NewPostgres(pool)
	return &app{
		cfg:    cfg,
		pool:   pool,
		engine: document.NewEngine(store, zlog, document.WithDownloadPrefix(cfg.DownloadPrefix)),
		query:  query.NewService(store, zlog),
		roles:  roles.NewService(store, cfg.RoleCacheTTL, zlog),
		log:    zlog,
	}, nil
}

// withApp wraps a command body that needs the services.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, a, args)
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the DocFlow tables if they do not exist",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := database.EnsureSchema(cmd.Context(), a.pool); err != nil {
				return err
			}
			success("schema is up to date")
			return nil
		}),
	}
}
