// Command simulate plays a full game without a presentation layer: scripted
// input first, then random eligible actions for every role.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hegemony-sim/hegemony-server-go/internal/config"
	"github.com/hegemony-sim/hegemony-server-go/internal/game"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	inspect    = flag.String("inspect", "", "print the frames of a saved replay by game id and exit")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *inspect != "" {
		if err := printReplay(cfg.Replay.Directory, *inspect); err != nil {
			logger.Fatal("failed to read replay", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	r := cfg.Game.Rand()
	engineCfg, err := cfg.Game.EngineConfig(r, logger)
	if err != nil {
		return err
	}
	g, err := game.New(engineCfg)
	if err != nil {
		return err
	}

	script := game.NewScriptedInput()
	if cfg.Script != "" {
		if script, err = game.LoadScript(cfg.Script); err != nil {
			return err
		}
	}
	script.Fallback = g.AutoInput(r)
	g.SetInputProvider(script.Request)

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		detach := recorder.Attach(g)
		defer detach()
	}

	logger.Info("starting simulation",
		zap.String("version", version),
		zap.String("game_id", g.ID()),
		zap.Strings("roles", g.State().PlayerRoles()),
	)

	g.Next(rules.FlowStart.Event())
	for !g.Ended() {
		if err := g.Flush(ctx, game.FlushOptions{After: rules.FlowTurnEnd.Event()}); err != nil {
			return fmt.Errorf("round %d turn %d: %w", g.State().Round, g.State().Turn, err)
		}
	}

	checksum, err := g.Checksum()
	if err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("game_id", g.ID()),
		zap.Int("events", g.State().Queue.Len()),
		zap.Int("scripted_inputs", len(script.Calls())),
		zap.String("checksum", checksum),
	}
	for _, role := range g.State().PlayerRoles() {
		fields = append(fields, zap.Int(role, g.State().Roles[role].Score().Value()))
	}
	logger.Info("simulation finished", fields...)

	if recorder != nil {
		return recorder.SaveReplay(g.ID())
	}
	return nil
}

func printReplay(directory, gameID string) error {
	replay, err := game.LoadReplayFromFile(directory, gameID)
	if err != nil {
		return err
	}
	for i := 0; i < replay.Size(); i++ {
		frame, err := replay.FrameAt(i)
		if err != nil {
			return err
		}
		role := "-"
		if frame.CurrentRoleName != nil {
			role = *frame.CurrentRoleName
		}
		current := ""
		if frame.CurrentActionIndex < len(frame.ActionQueue) {
			current = frame.ActionQueue[frame.CurrentActionIndex].Type
		}
		fmt.Printf("%4d  round %d turn %d  %-13s next %s\n", i, frame.Round, frame.Turn, role, current)
	}
	return nil
}
