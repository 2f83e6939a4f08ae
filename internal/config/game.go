package config

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/hegemony-sim/hegemony-server-go/internal/game"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
)

// enginePlayers converts the seating list.
func (c GameConfig) enginePlayers() []game.Player {
	players := make([]game.Player, len(c.Players))
	for i, p := range c.Players {
		players[i] = game.Player{Name: p.Name, Role: p.Role}
	}
	return players
}

// Rand returns the random source for shuffles and automatic play, seeded
// from Seed when it is set.
func (c GameConfig) Rand() *rand.Rand {
	if c.Seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
}

// EngineConfig assembles the engine configuration. The input provider is
// left for the caller to install.
func (c GameConfig) EngineConfig(r *rand.Rand, logger *zap.Logger) (game.Config, error) {
	decks := cards.Default()
	if c.DecksDir != "" {
		var err error
		if decks, err = cards.LoadDir(c.DecksDir); err != nil {
			return game.Config{}, err
		}
	}
	return game.Config{
		Debug:    c.Debug,
		Decks:    decks,
		Players:  c.enginePlayers(),
		Logger:   logger,
		Shuffler: r,
	}, nil
}
