package game

import (
	"encoding/json"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// Tax rates indexed by the taxation policy position.
var (
	incomeTaxPerPopulation = [3]int{3, 2, 1}
	corporateTaxPerCompany = [3]int{5, 3, 2}
)

// State is the state role container.
type State struct {
	roleBase
	legitimacy  map[string]*resources.Manager
	companies   []*Company
	taxedRounds map[int]bool
}

func newState(g *Game) *State {
	s := &State{
		roleBase:    newRoleBase(g, RoleState, resources.NewMoney(RoleState+".money", 120)),
		legitimacy:  make(map[string]*resources.Manager, 3),
		taxedRounds: make(map[int]bool),
	}
	for _, class := range []string{RoleWorkingClass, RoleMiddleClass, RoleCapitalist} {
		s.legitimacy[class] = resources.New("legitimacy."+class, resources.WithValue(2), resources.WithMax(10), resources.WithClamp())
	}
	registerCommon(g, s)
	s.set.Basic["buyCompany"] = buyCompanyAction(g, s)
	s.set.Basic["collectTaxes"] = collectTaxesAction(g, s)
	return s
}

// Legitimacy returns the state's legitimacy towards a class.
func (s *State) Legitimacy(class string) (*resources.Manager, bool) {
	m, ok := s.legitimacy[class]
	return m, ok
}

// SetupRound runs the public companies and refills the shared influence
// pool, one per seated player.
func (s *State) SetupRound() error {
	if err := s.game.operateCompanies(s); err != nil {
		return err
	}
	_, err := s.game.state.Board.AvailableInfluence.Add(len(s.game.state.Players))
	return err
}

func (s *State) Companies() []*Company {
	return s.companies
}

func (s *State) addCompany(c *Company) {
	s.companies = append(s.companies, c)
}

func (s *State) MarshalJSON() ([]byte, error) {
	v := s.view()
	v["legitimacy"] = s.legitimacy
	v["companies"] = s.companies
	return json.Marshal(v)
}

func collectTaxesAction(g *Game, s *State) *action.Action {
	return &action.Action{
		Condition: func() action.Checks {
			return action.Checks{action.Require("notCollected", !s.taxedRounds[g.state.Round])}
		},
		Run: func(*action.RunContext, action.Input) error {
			_, err := g.CollectTaxes()
			if err != nil {
				return err
			}
			s.taxedRounds[g.state.Round] = true
			return nil
		},
	}
}

// CollectTaxes charges income tax to the seated classes and corporate tax to
// the capitalist, crediting the state. Taxpayers take loans when short.
// It returns the total collected.
func (g *Game) CollectTaxes() (int, error) {
	state := g.state.Roles[RoleState]
	rate := g.state.Board.Policy(rules.PolicyTaxation)
	total := 0
	for _, role := range g.state.PlayerRoles() {
		var due int
		switch r := g.state.Roles[role].(type) {
		case *WorkingClass:
			due = r.population.Value() * incomeTaxPerPopulation[rate]
		case *MiddleClass:
			due = r.population.Value() * incomeTaxPerPopulation[rate]
		case *Capitalist:
			due = len(r.companies) * corporateTaxPerCompany[rate]
		default:
			continue
		}
		if err := g.state.Roles[role].Pay(due, resources.RemoveOptions{CanTakeLoans: true}); err != nil {
			return total, err
		}
		total += due
	}
	return total, state.Earn(total)
}
