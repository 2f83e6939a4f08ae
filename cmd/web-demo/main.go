// Command web-demo serves one game over a websocket at /ws. Each input
// request goes to the client seated as the acting role and the state is
// broadcast after every tick.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hegemony-sim/hegemony-server-go/internal/bridge"
	"github.com/hegemony-sim/hegemony-server-go/internal/config"
	"github.com/hegemony-sim/hegemony-server-go/internal/game"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

var configPath = flag.String("config", "config/config.yaml", "path to configuration file")

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineCfg, err := cfg.Game.EngineConfig(cfg.Game.Rand(), logger)
	if err != nil {
		logger.Fatal("failed to configure game", zap.Error(err))
	}
	g, err := game.New(engineCfg)
	if err != nil {
		logger.Fatal("failed to create game", zap.Error(err))
	}

	hub := bridge.NewHub(cfg.Server.InputTimeout, logger)
	go hub.Run(ctx)
	g.SetInputProvider(hub.InputProvider(g))
	detach, err := hub.Attach(g)
	if err != nil {
		logger.Fatal("failed to attach bridge", zap.Error(err))
	}
	defer detach()

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		defer recorder.Attach(g)()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	srv := &http.Server{Addr: cfg.Server.Address, Handler: mux}
	go func() {
		logger.Info("websocket server starting",
			zap.String("address", cfg.Server.Address),
			zap.String("game_id", g.ID()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server error", zap.Error(err))
			stop()
		}
	}()

	play(ctx, g, logger)
	if recorder != nil && g.Ended() {
		if err := recorder.SaveReplay(g.ID()); err != nil {
			logger.Error("failed to save replay", zap.Error(err))
		}
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("web demo stopped")
}

// play ticks until the game ends. A rejected or timed out input leaves the
// event current, so the same request is simply asked again.
func play(ctx context.Context, g *game.Game, logger *zap.Logger) {
	g.Next(rules.FlowStart.Event())
	for !g.Ended() {
		if ctx.Err() != nil {
			return
		}
		err := g.Flush(ctx, game.FlushOptions{After: rules.FlowTurnEnd.Event()})
		if err == nil {
			continue
		}
		if !retryable(err) {
			logger.Error("game stopped", zap.String("game_id", g.ID()), zap.Error(err))
			return
		}
		logger.Info("tick failed, asking again",
			zap.Int("round", g.State().Round),
			zap.Int("turn", g.State().Turn),
			zap.String("role", g.State().CurrentRoleName),
			zap.Error(err),
		)
	}
	logger.Info("game over", zap.String("game_id", g.ID()))
}

// retryable reports whether a failed tick is a player mistake or a timeout
// rather than a broken game.
func retryable(err error) bool {
	for _, target := range []error{
		action.ErrValidationFailed,
		action.ErrInputRejected,
		game.ErrFlushLimit,
		context.DeadlineExceeded,
		bridge.ErrRequestPending,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
