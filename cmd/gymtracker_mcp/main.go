// Package main runs the gymtracker MCP server over stdio (for local editor use).
// The same tools are mounted on the service at /mcp over HTTP. This command
// only reads what the service persisted, it never drives the session.
package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/catalog"
	"github.com/2beens/gymtracker/internal/config"
	"github.com/2beens/gymtracker/internal/history"
	gymmcp "github.com/2beens/gymtracker/internal/mcp"
	"github.com/2beens/gymtracker/internal/session"
	"github.com/2beens/gymtracker/internal/store"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	redisPassword := flag.String("redis-pass", "", "redis password, when the redis storage is used")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the protocol
	log.SetLevel(log.WarnLevel)

	ctx := context.Background()
	storage, err := store.Open(ctx, store.OpenParams{
		Config:        cfg,
		RedisPassword: *redisPassword,
	})
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Errorf("close storage: %v", err)
		}
	}()

	var source catalog.Source
	if cfg.CatalogURL != "" {
		source = catalog.NewHTTPSource(cfg.CatalogURL, &http.Client{Timeout: 30 * time.Second}, cfg.CatalogCacheTTL())
	} else {
		source = catalog.NewFileSource(cfg.CatalogPath)
	}

	st := store.New(storage.Backend)
	cat := catalog.New(source, st)
	if err := cat.Load(ctx); err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	mcpServer := gymmcp.NewServer(
		"stdio",
		session.NewStoredReader(st, nil),
		cat,
		history.NewRecorder(st, nil),
	)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatal(err)
	}
}
