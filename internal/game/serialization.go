package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// snapshot is the observable state layout.
type snapshot struct {
	GameID             string              `json:"gameId,omitempty"`
	Players            []Player            `json:"players"`
	Round              int                 `json:"round"`
	Turn               int                 `json:"turn"`
	CurrentRoleName    *string             `json:"currentRoleName"`
	Board              *Board              `json:"board"`
	Roles              map[string]Role     `json:"roles"`
	NextWorkerID       int                 `json:"nextWorkerId"`
	ActionQueue        []rules.ActionEvent `json:"actionQueue"`
	CurrentActionIndex int                 `json:"currentActionIndex"`
	NextActionIndex    int                 `json:"nextActionIndex"`
	Error              string              `json:"error,omitempty"`
}

func (g *Game) snapshot(withID bool) snapshot {
	s := g.state
	snap := snapshot{
		Players:            s.Players,
		Round:              s.Round,
		Turn:               s.Turn,
		Board:              s.Board,
		Roles:              s.Roles,
		NextWorkerID:       s.NextWorkerID,
		ActionQueue:        s.Queue.Events(),
		CurrentActionIndex: s.Queue.Cursor(),
		NextActionIndex:    s.Queue.NextIndex(),
	}
	if withID {
		snap.GameID = s.ID
	}
	if s.CurrentRoleName != "" {
		role := s.CurrentRoleName
		snap.CurrentRoleName = &role
	}
	if s.Err != nil {
		snap.Error = s.Err.Error()
	}
	return snap
}

// Snapshot renders the game state as JSON.
func (g *Game) Snapshot() ([]byte, error) {
	raw, err := json.Marshal(g.snapshot(true))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", g.state.ID, err)
	}
	return raw, nil
}

// Checksum returns the SHA-256 of the snapshot without the game id, so two
// games driven through the same events with the same shuffles agree.
func (g *Game) Checksum() (string, error) {
	raw, err := json.Marshal(g.snapshot(false))
	if err != nil {
		return "", fmt.Errorf("checksum %s: %w", g.state.ID, err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Frame is the decoded summary of one recorded snapshot.
type Frame struct {
	GameID             string                     `json:"gameId"`
	Players            []Player                   `json:"players"`
	Round              int                        `json:"round"`
	Turn               int                        `json:"turn"`
	CurrentRoleName    *string                    `json:"currentRoleName"`
	Board              json.RawMessage            `json:"board"`
	Roles              map[string]json.RawMessage `json:"roles"`
	ActionQueue        []rules.ActionEvent        `json:"actionQueue"`
	CurrentActionIndex int                        `json:"currentActionIndex"`
	NextActionIndex    int                        `json:"nextActionIndex"`
	Error              string                     `json:"error"`
}

// DecodeFrame parses a snapshot.
func DecodeFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}
