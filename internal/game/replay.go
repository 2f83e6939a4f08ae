package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

const replayVersion = 1

// Replay is a recorded game: one snapshot per successful tick.
type Replay struct {
	GameID       string
	States       []json.RawMessage
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates a new replay instance
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		States: make([]json.RawMessage, 0),
	}
}

// RecordState appends a snapshot.
func (r *Replay) RecordState(snapshot []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, append(json.RawMessage(nil), snapshot...))
}

// Start resets the replay to the beginning
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state at the current index and moves forward.
func (r *Replay) Next() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		state := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return state
	}
	return nil
}

// Previous moves back one state and returns it.
func (r *Replay) Previous() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Skip moves by count states, clamped to the recorded range, and returns
// the state reached.
func (r *Replay) Skip(count int) json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.States) {
		newIndex = len(r.States) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.States) {
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded states
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// StateAt returns the state at index, or nil.
func (r *Replay) StateAt(index int) json.RawMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

// FrameAt decodes the state at index.
func (r *Replay) FrameAt(index int) (*Frame, error) {
	raw := r.StateAt(index)
	if raw == nil {
		return nil, fmt.Errorf("replay %s has no state %d", r.GameID, index)
	}
	return DecodeFrame(raw)
}

type replayFile struct {
	GameID    string            `json:"gameId"`
	Timestamp time.Time         `json:"timestamp"`
	Version   int               `json:"version"`
	States    []json.RawMessage `json:"states"`
}

func replayPath(directory, gameID string) string {
	return filepath.Join(directory, gameID+".replay.zst")
}

// SaveToFile writes the replay as zstd-compressed JSON.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(replayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	payload := replayFile{
		GameID:    r.GameID,
		Timestamp: time.Now().UTC(),
		Version:   replayVersion,
		States:    r.States,
	}
	if err := json.NewEncoder(enc).Encode(&payload); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	var payload replayFile
	if err := json.NewDecoder(dec).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if payload.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", payload.Version)
	}

	replay := NewReplay(payload.GameID)
	replay.States = payload.States
	return replay, nil
}

// ReplayRecorder keeps replays of the games it is attached to.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // gameID -> Replay
	enabled map[string]bool    // gameID -> whether recording is enabled
	saveDir string
}

// NewReplayRecorder creates a new replay recorder
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// Attach starts recording g: the initial state, then a snapshot after every
// successful tick. The returned function detaches the recorder.
func (rr *ReplayRecorder) Attach(g *Game) (detach func()) {
	rr.StartRecording(g.ID())
	rr.record(g)
	handle := g.Bus().SubscribeTyped(rules.EventTicked, func(rules.Event) {
		rr.record(g)
	})
	return func() {
		g.Bus().Unsubscribe(handle)
		rr.StopRecording(g.ID())
	}
}

func (rr *ReplayRecorder) record(g *Game) {
	snap, err := g.Snapshot()
	if err != nil {
		if rr.logger != nil {
			rr.logger.Warn("failed to snapshot game for replay",
				zap.String("game_id", g.ID()),
				zap.Error(err),
			)
		}
		return
	}
	rr.RecordState(g.ID(), snap)
}

// StartRecording begins recording a game
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[gameID] = NewReplay(gameID)
	rr.enabled[gameID] = true

	if rr.logger != nil {
		rr.logger.Info("started replay recording",
			zap.String("game_id", gameID),
		)
	}
}

// StopRecording stops recording a game
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[gameID] = false

	if rr.logger != nil {
		rr.logger.Info("stopped replay recording",
			zap.String("game_id", gameID),
		)
	}
}

// RecordState records a snapshot if recording is enabled
func (rr *ReplayRecorder) RecordState(gameID string, snapshot []byte) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}

	replay.RecordState(snapshot)

	if rr.logger != nil {
		rr.logger.Debug("recorded replay state",
			zap.String("game_id", gameID),
			zap.Int("state_count", replay.Size()),
		)
	}
}

// GetReplay returns the replay for a game
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay saves a replay to disk and removes it from memory
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("state_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}

	return nil
}

// LoadReplay loads a replay from disk
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}

	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("game_id", gameID),
			zap.Int("state_count", replay.Size()),
		)
	}

	return replay, nil
}

// ClearReplay removes a replay from memory without saving
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
}

// IsRecording returns whether recording is enabled for a game
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[gameID]
}
