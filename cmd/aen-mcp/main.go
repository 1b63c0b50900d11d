package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/config"
	"github.com/kingdomofaen/aen-server-go/internal/game"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/logging"
	aenmcp "github.com/kingdomofaen/aen-server-go/internal/mcp"
	"github.com/kingdomofaen/aen-server-go/internal/storage"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var presets *catalog.PresetFile
	if cfg.Decks.Presets != "" {
		if presets, err = catalog.LoadPresets(cfg.Decks.Presets); err != nil {
			logger.Fatal("failed to load deck presets", zap.Error(err))
		}
	}
	settings, err := game.SettingsFromConfig(cfg.Match, presets)
	if err != nil {
		logger.Fatal("invalid match settings", zap.Error(err))
	}

	store, err := storage.Open(context.Background(), cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open deck store", zap.Error(err))
	}
	defer store.Close()

	sess := aenmcp.NewSession(game.NewManager(settings, nil, logger), store, cfg.Storage.DeckKey, logger)
	s := server.NewMCPServer("aen-duel", version, server.WithToolCapabilities(false))
	sess.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
