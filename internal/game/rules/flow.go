package rules

import "fmt"

// GameTarget is the pseudo-role that owns the flow actions.
const GameTarget = "game"

// Game structure limits.
const (
	MaxRounds         = 4
	TurnsPerRound     = 4
	ActionsPerTurn    = 2
	MaxRoleProposals  = 3
	FlushIterationCap = 50
)

// FlowStep names one of the macro game-flow actions.
type FlowStep string

const (
	FlowStart       FlowStep = "start"
	FlowRoundStart  FlowStep = "roundStart"
	FlowTurnStart   FlowStep = "turnStart"
	FlowRoleNext    FlowStep = "roleNext"
	FlowRoleTurn    FlowStep = "roleTurn"
	FlowRoleCurrent FlowStep = "roleCurrent"
	FlowTurnEnd     FlowStep = "turnEnd"
	FlowRoundEnd    FlowStep = "roundEnd"
	FlowEnd         FlowStep = "end"
)

// FlowSteps lists every flow step in the order a game passes through them.
var FlowSteps = []FlowStep{
	FlowStart,
	FlowRoundStart,
	FlowTurnStart,
	FlowRoleNext,
	FlowRoleTurn,
	FlowRoleCurrent,
	FlowTurnEnd,
	FlowRoundEnd,
	FlowEnd,
}

// Event returns the queue event type for the step, e.g. "game:roundStart".
func (s FlowStep) Event() string {
	return EventName(GameTarget, string(s))
}

func (s FlowStep) String() string {
	return string(s)
}

// EventName joins a target and an action key into an event type.
func EventName(target, key string) string {
	return fmt.Sprintf("%s:%s", target, key)
}

// ActionKind classifies per-turn role actions against the turn budget.
type ActionKind string

const (
	ActionBasic ActionKind = "basic"
	ActionFree  ActionKind = "free"
)

// FreeActionPrefix marks action keys that are free actions.
const FreeActionPrefix = "freeAction."

// FreeKey namespaces a free action name, e.g. FreeKey("payLoan") == "freeAction.payLoan".
func FreeKey(name string) string {
	return FreeActionPrefix + name
}
