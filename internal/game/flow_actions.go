package game

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/deck"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

var roleTurnSchema = action.MustSchema(`{
	"type": "string",
	"pattern": "^[A-Za-z]+:[A-Za-z.]+$"
}`)

// IfPolicy evaluates a compact policy check such as IfPolicy("6A", "==").
func (g *Game) IfPolicy(check, op string) (bool, error) {
	policy, want, err := rules.ParsePolicyString(check)
	if err != nil {
		return false, err
	}
	return rules.ComparePolicy(g.state.Board.Policy(policy), op, want)
}

func (g *Game) flowActions() *action.Set {
	set := action.NewSet()
	set.Actions[string(rules.FlowStart)] = &action.Action{Run: g.start}
	set.Actions[string(rules.FlowRoundStart)] = &action.Action{Run: g.roundStart}
	set.Actions[string(rules.FlowTurnStart)] = &action.Action{Run: g.turnStart}
	set.Actions[string(rules.FlowRoleNext)] = &action.Action{Run: g.roleNext}
	set.Actions[string(rules.FlowRoleTurn)] = &action.Action{
		Condition: func() action.Checks {
			return action.Checks{action.Require("currentRole", g.state.CurrentRoleName != "")}
		},
		InputSchema:   roleTurnSchema,
		ValidateInput: g.validateRoleTurn,
		Run:           g.roleTurn,
	}
	set.Actions[string(rules.FlowRoleCurrent)] = &action.Action{Run: g.roleCurrent}
	set.Actions[string(rules.FlowTurnEnd)] = &action.Action{Run: g.turnEnd}
	set.Actions[string(rules.FlowRoundEnd)] = &action.Action{Run: g.roundEnd}
	set.Actions[string(rules.FlowEnd)] = &action.Action{Run: g.end}
	return set
}

func (g *Game) start(rc *action.RunContext, _ action.Input) error {
	slices.SortStableFunc(g.state.Players, func(a, b Player) int {
		return roleRank(a.Role) - roleRank(b.Role)
	})
	g.state.Round = 0
	if !g.debug {
		g.state.Board.ForeignMarketCards.Shuffle(g.shuffler)
		g.state.Board.BusinessDealCards.Shuffle(g.shuffler)
	}
	g.logger.Info("game started",
		zap.String("game_id", g.state.ID),
		zap.Strings("roles", g.state.PlayerRoles()),
	)
	rc.Next(rules.FlowRoundStart.Event())
	return nil
}

// businessDealDraws returns how many business deals a round opens with.
func (g *Game) businessDealDraws() (int, error) {
	for _, tier := range []struct {
		check string
		draws int
	}{{"6A", 2}, {"6B", 1}} {
		ok, err := g.IfPolicy(tier.check, "==")
		if err != nil {
			return 0, err
		}
		if ok {
			return tier.draws, nil
		}
	}
	return 0, nil
}

// roundStart checks the decks first and commits the round counter and the
// card draws only once every seated role's round setup succeeded.
func (g *Game) roundStart(rc *action.RunContext, _ action.Input) error {
	board := g.state.Board
	draws, err := g.businessDealDraws()
	if err != nil {
		return err
	}
	if board.ForeignMarketCards.Size() == 0 {
		return fmt.Errorf("foreign market: %w", deck.ErrNoMoreCards)
	}
	if draws > board.BusinessDealCards.Size() {
		return fmt.Errorf("business deals: need %d, %d left: %w", draws, board.BusinessDealCards.Size(), deck.ErrNoMoreCards)
	}

	for _, role := range g.state.PlayerRoles() {
		if err := g.state.Roles[role].SetupRound(); err != nil {
			return fmt.Errorf("%s setup: %w", role, err)
		}
	}

	card, err := board.ForeignMarketCards.Draw()
	if err != nil {
		return fmt.Errorf("foreign market: %w", err)
	}
	g.state.CurrentRoleName = ""
	g.state.Round++
	g.state.Turn = 0
	board.ForeignMarketCard = card.ID
	clear(board.ForeignMarketStock)
	for _, good := range tradedGoods {
		if offer, ok := card.OfferFor(good); ok {
			board.ForeignMarketStock[good] = offer.Quantity
		}
	}
	for i := 0; i < draws; i++ {
		deal, err := board.BusinessDealCards.Draw()
		if err != nil {
			return fmt.Errorf("business deals: %w", err)
		}
		board.BusinessDeals = append(board.BusinessDeals, deal.ID)
	}

	g.logger.Debug("round started",
		zap.Int("round", g.state.Round),
		zap.String("foreign_market", card.ID),
		zap.Int("business_deals", draws),
	)
	rc.Next(rules.FlowTurnStart.Event())
	return nil
}

func (g *Game) turnStart(rc *action.RunContext, _ action.Input) error {
	g.state.Turn++
	for _, role := range g.state.Roles {
		role.ResetUsedActions()
	}
	g.logger.Debug("turn started", zap.Int("round", g.state.Round), zap.Int("turn", g.state.Turn))
	rc.Next(rules.FlowRoleNext.Event())
	return nil
}

func (g *Game) roleNext(rc *action.RunContext, _ action.Input) error {
	roles := g.state.PlayerRoles()
	current := g.state.CurrentRoleName
	idx := slices.Index(roles, current)
	last := idx == len(roles)-1

	if last && len(g.state.Roles[current].UsedActions()) > 0 {
		rc.Next(rules.FlowTurnEnd.Event())
		return nil
	}
	if idx < 0 || last {
		g.state.CurrentRoleName = roles[0]
	} else {
		g.state.CurrentRoleName = roles[idx+1]
	}
	g.logger.Debug("role to act",
		zap.Int("round", g.state.Round),
		zap.Int("turn", g.state.Turn),
		zap.String("role", g.state.CurrentRoleName),
	)
	rc.Next(rules.FlowRoleTurn.Event())
	return nil
}

func (g *Game) validateRoleTurn(in action.Input) action.Checks {
	var chosen string
	if err := in.Decode(&chosen); err != nil {
		return action.Checks{action.Require("actionName", false)}
	}
	target, key, err := action.ParseEventType(chosen)
	if err != nil {
		return action.Checks{action.Require("actionName", false)}
	}
	ownTurn := strings.HasPrefix(chosen, g.state.CurrentRoleName+":")
	act, err := g.registry.Resolve(target, key)
	known := err == nil && target != rules.GameTarget
	return action.Checks{
		action.Require("currentTurn", ownTurn),
		action.Require("knownAction", known),
		action.Require("actionEligible", known && act.Eligible() == nil),
	}
}

func (g *Game) roleTurn(rc *action.RunContext, in action.Input) error {
	var chosen string
	if err := in.Decode(&chosen); err != nil {
		return err
	}
	_, key, err := action.ParseEventType(chosen)
	if err != nil {
		return err
	}
	g.state.Roles[g.state.CurrentRoleName].UseAction(action.KindOf(key))
	rc.Next(chosen)
	rc.Next(rules.FlowRoleCurrent.Event())
	return nil
}

func (g *Game) roleCurrent(rc *action.RunContext, _ action.Input) error {
	role := g.state.Roles[g.state.CurrentRoleName]
	if role == nil {
		return fmt.Errorf("no role is acting")
	}
	if len(role.UsedActions()) >= rules.ActionsPerTurn {
		rc.Next(rules.FlowRoleNext.Event())
	} else {
		rc.Next(rules.FlowRoleTurn.Event())
	}
	return nil
}

func (g *Game) turnEnd(rc *action.RunContext, _ action.Input) error {
	if g.state.Turn >= rules.TurnsPerRound {
		rc.Next(rules.FlowRoundEnd.Event())
	} else {
		rc.Next(rules.FlowTurnStart.Event())
	}
	return nil
}

// roundEnd enacts the pending bills before moving on.
func (g *Game) roundEnd(rc *action.RunContext, _ action.Input) error {
	board := g.state.Board
	bills := make(map[rules.Policy]int, len(board.PolicyProposals))
	for name, proposal := range board.PolicyProposals {
		policy, ok := rules.PolicyByName(name)
		if !ok {
			return fmt.Errorf("%w: unknown policy %q", rules.ErrMalformedPolicy, name)
		}
		if err := rules.CheckPolicyValue(proposal.Value); err != nil {
			return fmt.Errorf("%s bill: %w", name, err)
		}
		bills[policy] = proposal.Value
	}
	for policy, value := range bills {
		if err := board.SetPolicy(policy, value); err != nil {
			return err
		}
		delete(board.PolicyProposals, policy.String())
	}
	if g.state.Round >= rules.MaxRounds {
		rc.Next(rules.FlowEnd.Event())
	} else {
		rc.Next(rules.FlowRoundStart.Event())
	}
	return nil
}

func (g *Game) end(*action.RunContext, action.Input) error {
	scores := make([]zap.Field, 0, len(g.state.Players)+1)
	scores = append(scores, zap.String("game_id", g.state.ID))
	for _, role := range g.state.PlayerRoles() {
		scores = append(scores, zap.Int(role, g.state.Roles[role].Score().Value()))
	}
	g.logger.Info("game ended", scores...)
	g.publish(rules.EventGameEnded, rules.ActionEvent{Type: rules.FlowEnd.Event()}, nil)
	return nil
}
