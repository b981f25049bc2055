package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/autoconfig/internal/config"
	"github.com/yanizio/autoconfig/internal/database"
	"github.com/yanizio/autoconfig/internal/source"
	"github.com/yanizio/autoconfig/internal/vault"
)

var (
	// Global flags
	rootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "autoconfig",
	Short: "Mail client autoconfiguration service",
	Long: `autoconfig answers Mozilla-style clientConfig requests for the mail
domains it serves.

Settings come in three layers: provider defaults, per-domain overrides, and
per-user overrides.  Values may reference each other with ##NAME## tokens,
for example username = "##EMAILLOCALPART##".

Running without a subcommand is the same as "autoconfig serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "directory holding conf/autoconfig.yaml (default: discovered)")
}

// loadConfig honours --root, then AUTOCONFIG_ROOT, then discovery.
func loadConfig() (*config.Config, error) {
	if rootFlag != "" {
		return config.LoadFrom(rootFlag)
	}
	return config.Load()
}

// openLoader resolves secrets and builds the configured Loader.  The
// returned close func releases the database handle, if any.
func openLoader(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (source.Loader, func(), error) {
	if cfg.HasSecretRefs() {
		vc, err := vault.New(ctx, log)
		if err != nil {
			return nil, nil, fmt.Errorf("vault: %w", err)
		}
		if err := cfg.ResolveSecrets(ctx, vc); err != nil {
			return nil, nil, err
		}
	}

	switch cfg.Source.Kind {
	case config.SourceMySQL:
		db, err := database.Open(ctx, cfg.Database.DSN, cfg.Database.Password)
		if err != nil {
			return nil, nil, err
		}
		return source.MySQLLoader{DB: db}, func() { _ = db.Close() }, nil
	default:
		return source.FileLoader{Path: cfg.Source.File}, func() {}, nil
	}
}

// loadOnce builds a Store and performs the first load.
func loadOnce(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*source.Store, func(), error) {
	l, closeFn, err := openLoader(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	store := source.NewStore(l, log)
	if _, err := store.Reload(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}
