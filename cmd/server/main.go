package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/config"
	"github.com/kingdomofaen/aen-server-go/internal/game"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/logging"
	"github.com/kingdomofaen/aen-server-go/internal/server"
	"github.com/kingdomofaen/aen-server-go/internal/storage"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Kingdom of Aen duel server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Deck presets are optional unless the AI plays one
	var presets *catalog.PresetFile
	if cfg.Decks.Presets != "" {
		presets, err = catalog.LoadPresets(cfg.Decks.Presets)
		if err != nil {
			logger.Fatal("failed to load deck presets", zap.String("path", cfg.Decks.Presets), zap.Error(err))
		}
		logger.Info("deck presets loaded", zap.Int("decks", len(presets.Decks)))
	}

	settings, err := game.SettingsFromConfig(cfg.Match, presets)
	if err != nil {
		logger.Fatal("invalid match settings", zap.Error(err))
	}

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open deck store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer store.Close()
	logger.Info("deck store initialized", zap.String("driver", cfg.Storage.Driver))

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Directory))
	}

	gameMgr := game.NewManager(settings, recorder, logger)
	logger.Info("match manager initialized",
		zap.Int("hand_size", settings.HandSize),
		zap.Duration("ai_think", settings.AIThink),
	)

	hub := server.NewHub(gameMgr, store, cfg.Storage.DeckKey, cfg.Server.Tick, logger)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	grpcServer, healthServer := server.NewGRPCServer(cfg.Server.GRPC, logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	// Start gRPC health server
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start WebSocket server
	go func() {
		if wsErr := server.StartWebSocketServer(ctx, cfg.Server.WebSocket, hub, logger); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("duel server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	healthServer.Shutdown()
	cancel()
	// The hub removes every match, saving replays, before it returns.
	<-hubDone

	grpcServer.GracefulStop()

	logger.Info("duel server stopped")
}
