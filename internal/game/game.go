// Package game implements the turn and action scheduling engine.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/deck"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

const tracerName = "github.com/hegemony-sim/hegemony-server-go/internal/game"

var (
	// ErrFlushLimit is returned when Flush hits its iteration ceiling.
	ErrFlushLimit = errors.New("flush iteration limit reached")
	// ErrNoInputProvider is returned when an action needs input and none can be obtained.
	ErrNoInputProvider = errors.New("no player input provider configured")
	// ErrActionPanicked wraps a panic recovered from an action.
	ErrActionPanicked = errors.New("action panicked")
)

// InputProvider obtains the input for an action event from a player. It is
// the only point where a tick waits on the outside world.
type InputProvider func(ctx context.Context, eventType string) (any, error)

// Config configures a game.
type Config struct {
	// Debug disables deck shuffling.
	Debug              bool
	RequestPlayerInput InputProvider
	// Decks defaults to the embedded card data.
	Decks   *cards.Set
	Players []Player
	Logger  *zap.Logger
	// Shuffler defaults to a randomly seeded PCG source.
	Shuffler deck.Shuffler
	// Bus defaults to a new bus, see Game.Bus.
	Bus *rules.EventBus
}

// Game is the scheduler: it owns the state and executes the action queue one
// tick at a time. Ticks must not run concurrently; Tick and Flush serialize
// themselves.
type Game struct {
	tickMu       sync.Mutex
	state        *GameState
	registry     *action.Registry
	logger       *zap.Logger
	tracer       trace.Tracer
	bus          *rules.EventBus
	requestInput InputProvider
	shuffler     deck.Shuffler
	debug        bool
}

// New validates the configuration and builds the game with its four roles.
func New(cfg Config) (*Game, error) {
	if len(cfg.Players) == 0 {
		return nil, errors.New("at least one player is required")
	}
	seen := make(map[string]bool, len(cfg.Players))
	for _, p := range cfg.Players {
		if roleRank(p.Role) < 0 {
			return nil, fmt.Errorf("player %q: unknown role %q", p.Name, p.Role)
		}
		if seen[p.Role] {
			return nil, fmt.Errorf("role %q is taken by more than one player", p.Role)
		}
		seen[p.Role] = true
	}

	decks := cfg.Decks
	if decks == nil {
		decks = cards.Default()
	}
	board, err := newBoard(decks)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = rules.NewEventBus()
	}
	shuffler := cfg.Shuffler
	if shuffler == nil {
		shuffler = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g := &Game{
		state: &GameState{
			ID:      uuid.NewString(),
			Players: slices.Clone(cfg.Players),
			Board:   board,
			Roles:   make(map[string]Role, len(RoleOrder)),
			Queue:   rules.NewActionQueue(),
		},
		registry:     action.NewRegistry(),
		logger:       logger,
		tracer:       otel.Tracer(tracerName),
		bus:          bus,
		requestInput: cfg.RequestPlayerInput,
		shuffler:     shuffler,
		debug:        cfg.Debug,
	}

	g.state.Roles[RoleWorkingClass] = newWorkingClass(g)
	g.state.Roles[RoleMiddleClass] = newMiddleClass(g)
	g.state.Roles[RoleCapitalist] = newCapitalist(g)
	g.state.Roles[RoleState] = newState(g)
	if err := g.dealStartingCompanies(); err != nil {
		return nil, err
	}

	g.registry.Register(rules.GameTarget, g.flowActions())
	for name, role := range g.state.Roles {
		g.registry.Register(name, role.Actions())
	}
	return g, nil
}

// dealStartingCompanies gives every company owner the first company of its market.
func (g *Game) dealStartingCompanies() error {
	for _, name := range RoleOrder {
		owner, ok := g.state.Roles[name].(CompanyOwner)
		if !ok {
			continue
		}
		market := g.state.Board.CompanyCards[name]
		if market.Size() == 0 {
			continue
		}
		def, err := market.DrawByID(market.Cards()[0].ID)
		if err != nil {
			return err
		}
		owner.addCompany(&Company{ID: def.ID, DefinitionID: def.ID, Owner: name, Workers: []int{}, WageLevel: g.minimumWageLevel()})
	}
	return nil
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.state.ID
}

// State returns the live game state. Callers must not mutate it while a tick runs.
func (g *Game) State() *GameState {
	return g.state
}

// Bus returns the event bus the game publishes to.
func (g *Game) Bus() *rules.EventBus {
	return g.bus
}

// Registry returns the action registry.
func (g *Game) Registry() *action.Registry {
	return g.registry
}

// Role returns a role container by name.
func (g *Game) Role(name string) (Role, bool) {
	r, ok := g.state.Roles[name]
	return r, ok
}

// SetInputProvider replaces the player-input provider. It must not be called
// while a tick is running.
func (g *Game) SetInputProvider(p InputProvider) {
	g.requestInput = p
}

// Err returns the error of the last failed tick, nil after a successful one.
func (g *Game) Err() error {
	return g.state.Err
}

// Next appends an event to the tail of the queue.
func (g *Game) Next(eventType string, opts ...action.NextOption) rules.ActionEvent {
	ev := g.state.Queue.Append(action.NewEvent(eventType, opts...))
	g.publish(rules.EventEnqueued, ev, nil)
	return ev
}

// Ended reports whether the terminal flow step has run.
func (g *Game) Ended() bool {
	for _, ev := range g.state.Queue.Events()[:g.state.Queue.Cursor()] {
		if ev.Type == rules.FlowEnd.Event() {
			return true
		}
	}
	return false
}

// Tick executes the current event. It reports false when the event failed;
// the error is then kept on the state and the cursor stays on the event.
// Ticking an exhausted queue does nothing and reports true.
func (g *Game) Tick(ctx context.Context) bool {
	g.tickMu.Lock()
	defer g.tickMu.Unlock()

	ev, ok := g.state.Queue.Current()
	if !ok {
		return true
	}

	ctx, span := g.tracer.Start(ctx, "game.Tick", trace.WithAttributes(
		attribute.String("game.id", g.state.ID),
		attribute.String("event.type", ev.Type),
		attribute.Int("event.index", ev.Index),
		attribute.Int("game.round", g.state.Round),
		attribute.Int("game.turn", g.state.Turn),
	))
	defer span.End()

	if err := g.step(ctx, ev); err != nil {
		g.state.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.publish(rules.EventTickFailed, ev, err)
		return false
	}
	g.state.Err = nil
	g.publish(rules.EventTicked, ev, nil)
	return true
}

// step runs one event. A panic anywhere in the action is turned into an
// error before the queue is touched, so the cursor stays on the event.
func (g *Game) step(ctx context.Context, ev rules.ActionEvent) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s: %w: %v", ev.Type, ErrActionPanicked, recovered)
			g.logger.Error("action panicked",
				zap.String("event", ev.Type),
				zap.Int("index", ev.Index),
				zap.Strings("queue", g.state.Queue.Trace()),
				zap.Any("panic", recovered),
				zap.Stack("stack"),
			)
		}
	}()

	_, _, act, err := g.registry.ResolveEvent(ev.Type)
	if err != nil {
		g.logger.Warn("cannot resolve action", zap.String("event", ev.Type), zap.Error(err))
		return err
	}

	if err := act.Eligible(); err != nil {
		g.logger.Warn("action condition failed",
			zap.String("event", ev.Type),
			zap.String("role", g.state.CurrentRoleName),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", ev.Type, err)
	}

	var in action.Input
	if act.NeedsInput() {
		in, err = g.obtainInput(ctx, ev)
		if err != nil {
			return err
		}
		if err := act.InputSchema.Validate(in); err != nil {
			g.logger.Warn("player input does not match schema", zap.String("event", ev.Type), zap.Error(err))
			return fmt.Errorf("%s: %w", ev.Type, err)
		}
		if act.ValidateInput != nil {
			if err := act.ValidateInput(in).Err(action.ErrInputRejected); err != nil {
				g.logger.Warn("player input rejected",
					zap.String("event", ev.Type),
					zap.String("role", g.state.CurrentRoleName),
					zap.Error(err),
				)
				return fmt.Errorf("%s: %w", ev.Type, err)
			}
		}
	}

	rc := action.NewRunContext(ev, g.state.CurrentRoleName)
	if err := act.Run(rc, in); err != nil {
		g.logger.Error("action failed",
			zap.String("event", ev.Type),
			zap.Int("index", ev.Index),
			zap.Strings("queue", g.state.Queue.Trace()),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", ev.Type, err)
	}

	insertAt := g.state.Queue.Cursor() + 1
	for _, next := range rc.Queued() {
		queued, err := g.state.Queue.InsertAt(insertAt, next)
		if err != nil {
			return err
		}
		insertAt++
		g.publish(rules.EventEnqueued, queued, nil)
	}
	if !in.Empty() {
		g.state.Queue.SetCurrentData(in)
	}
	g.state.Queue.Advance()
	return nil
}

func (g *Game) obtainInput(ctx context.Context, ev rules.ActionEvent) (action.Input, error) {
	raw := ev.DebugInput
	if raw == nil {
		if g.requestInput == nil {
			return action.Input{}, fmt.Errorf("%s: %w", ev.Type, ErrNoInputProvider)
		}
		g.publish(rules.EventInputRequested, ev, nil)
		var err error
		raw, err = g.requestInput(ctx, ev.Type)
		if err != nil {
			return action.Input{}, fmt.Errorf("request input for %s: %w", ev.Type, err)
		}
	}
	in, err := action.NewInput(raw)
	if err != nil {
		return action.Input{}, fmt.Errorf("%s: %w", ev.Type, err)
	}
	return in, nil
}

// FlushOptions bounds a Flush.
type FlushOptions struct {
	// To stops before the first event of this type runs.
	To string
	// After stops once an event of this type has run.
	After string
	// Limit caps the number of ticks, rules.FlushIterationCap when zero.
	Limit int
}

// Flush ticks until the queue drains or a boundary from opts is reached. A
// failed tick stops the flush and its error is returned.
func (g *Game) Flush(ctx context.Context, opts FlushOptions) error {
	limit := opts.Limit
	if limit <= 0 {
		limit = rules.FlushIterationCap
	}
	for i := 0; ; i++ {
		ev, ok := g.state.Queue.Current()
		if !ok {
			return nil
		}
		if opts.To != "" && ev.Type == opts.To {
			return nil
		}
		if i >= limit {
			return fmt.Errorf("%w (%d) at %s", ErrFlushLimit, limit, ev.Type)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !g.Tick(ctx) {
			return g.state.Err
		}
		if opts.After != "" && ev.Type == opts.After {
			return nil
		}
	}
}

func (g *Game) publish(t rules.EventType, ev rules.ActionEvent, err error) {
	e := rules.NewEvent(t, ev.Type, ev.Index)
	e.Role = g.state.CurrentRoleName
	e.Round = g.state.Round
	e.Turn = g.state.Turn
	e.Err = err
	g.bus.Publish(e)
}
