// Package main is the gymtracker command line: backups, history and plans
// read straight from the configured storage.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/gymtracker/internal/catalog"
	"github.com/2beens/gymtracker/internal/config"
	"github.com/2beens/gymtracker/internal/store"
)

var (
	ui = newUI()

	env           string
	configPath    string
	redisPassword string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "gymtracker",
	Short: "gymtracker tools: backups, exercise history and workout plans",
	Long: `gymtracker reads the storage configured for the service.
Export and import backups, also to google drive, and inspect the
recorded history and the effective workout plans.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().StringVar(&redisPassword, "redis-pass", os.Getenv("GYMTRACKER_REDIS_PASS"), "redis password, when the redis storage is used")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}

type deps struct {
	cfg     *config.Config
	storage *store.Opened
	store   *store.Store
}

func (d *deps) Close() {
	if err := d.storage.Close(); err != nil {
		log.Errorf("close storage: %s", err)
	}
}

func openDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, err
	}

	storage, err := store.Open(ctx, store.OpenParams{
		Config:        cfg,
		RedisPassword: redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	return &deps{
		cfg:     cfg,
		storage: storage,
		store:   store.New(storage.Backend),
	}, nil
}

func (d *deps) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var source catalog.Source
	if d.cfg.CatalogURL != "" {
		source = catalog.NewHTTPSource(d.cfg.CatalogURL, &http.Client{Timeout: 30 * time.Second}, d.cfg.CatalogCacheTTL())
	} else {
		source = catalog.NewFileSource(d.cfg.CatalogPath)
	}

	cat := catalog.New(source, d.store)
	if err := cat.Load(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
