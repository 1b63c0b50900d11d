package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/config"
	"github.com/kingdomofaen/aen-server-go/internal/game"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/logging"
	"github.com/kingdomofaen/aen-server-go/internal/sim"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	matches    = flag.Int("matches", 10, "number of matches to play")
	seed       = flag.Int64("seed", 1, "seed of the first match; match i uses seed+i")
	playerDeck = flag.String("player-preset", "", "deck preset for the player side (default: every unit card)")
	replayDir  = flag.String("replays", "", "save a replay of every match to this directory")
	verifyPath = flag.String("verify", "", "replay the recorded match in this file and check every snapshot")
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

	deck := catalog.UnitDeck()
	if *playerDeck != "" {
		if presets == nil {
			logger.Fatal("player preset requires decks.presets")
		}
		preset, err := presets.ByName(*playerDeck)
		if err != nil {
			logger.Fatal("unknown player preset", zap.Error(err))
		}
		deck = preset.IDs()
		if preset.Leader != "" {
			settings.PlayerLeader = preset.Leader
		}
	}

	if *verifyPath != "" {
		replay, err := game.ReadReplay(*verifyPath)
		if err != nil {
			logger.Fatal("failed to read replay", zap.Error(err))
		}
		res, err := sim.NewRunner(settings, nil, logger).Verify(replay)
		if err != nil {
			logger.Fatal("replay verification failed", zap.Error(err))
		}
		fmt.Printf("replay %s ok: %d snapshots, outcome %s\n", replay.MatchID, replay.Len(), res.Outcome)
		return
	}

	var recorder *game.ReplayRecorder
	if *replayDir != "" {
		recorder = game.NewReplayRecorder(logger, *replayDir)
	}

	runner := sim.NewRunner(settings, recorder, logger)
	summary, err := runner.Run(deck, *seed, *matches)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	fmt.Printf("matches: %d  player: %d  opponent: %d  draws: %d  avg rounds: %.2f\n",
		summary.Matches, summary.PlayerWins, summary.OpponentWins, summary.Draws, summary.AverageRounds())

	totals := map[string][2]int{}
	var keys []string
	for _, res := range summary.Results {
		for _, tally := range res.Stats {
			if _, seen := totals[tally.Key]; !seen {
				keys = append(keys, tally.Key)
			}
			t := totals[tally.Key]
			t[0] += tally.Player
			t[1] += tally.Opponent
			totals[tally.Key] = t
		}
	}
	for _, key := range keys {
		fmt.Printf("%-20s player: %4d  opponent: %4d\n", key, totals[key][0], totals[key][1])
	}
}
