package game

import (
	"errors"
	"fmt"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/deck"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// ErrNotFound is returned by the id resolution helpers.
var ErrNotFound = errors.New("not found")

// Role names.
const (
	RoleWorkingClass = "workingClass"
	RoleMiddleClass  = "middleClass"
	RoleCapitalist   = "capitalist"
	RoleState        = "state"
)

// RoleOrder is the fixed seating order players are sorted into at game start.
var RoleOrder = []string{RoleWorkingClass, RoleMiddleClass, RoleCapitalist, RoleState}

func roleRank(role string) int {
	for i, r := range RoleOrder {
		if r == role {
			return i
		}
	}
	return -1
}

// Player seats a named participant in a role.
type Player struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	Role string `json:"role" yaml:"role" mapstructure:"role"`
}

// PolicyProposal is a pending bill on one policy.
type PolicyProposal struct {
	Role  string `json:"role"`
	Value int    `json:"value"`
}

// Board is the shared public state.
type Board struct {
	Policies           map[string]int                                 `json:"policies"`
	PolicyProposals    map[string]PolicyProposal                      `json:"policyProposals"`
	ForeignMarketCards *deck.Deck[cards.ForeignMarketCard]            `json:"foreignMarketCards"`
	BusinessDealCards  *deck.Deck[cards.BusinessDealCard]             `json:"businessDealCards"`
	CompanyCards       map[string]*deck.Deck[cards.CompanyDefinition] `json:"companyCards"`
	ForeignMarketCard  string                                         `json:"foreignMarketCard,omitempty"`
	ForeignMarketStock map[cards.Good]int                             `json:"foreignMarketStock"`
	BusinessDeals      []string                                       `json:"businessDeals"`
	VotingCubeBag      map[string]int                                 `json:"votingCubeBag"`
	AvailableInfluence *resources.Manager                             `json:"availableInfluence"`
}

func newBoard(set *cards.Set) (*Board, error) {
	fm, err := deck.New(set.ForeignMarket)
	if err != nil {
		return nil, fmt.Errorf("foreign market deck: %w", err)
	}
	bd, err := deck.New(set.BusinessDeals)
	if err != nil {
		return nil, fmt.Errorf("business deal deck: %w", err)
	}
	b := &Board{
		Policies:           make(map[string]int, len(rules.Policies)),
		PolicyProposals:    make(map[string]PolicyProposal),
		ForeignMarketCards: fm,
		BusinessDealCards:  bd,
		CompanyCards:       make(map[string]*deck.Deck[cards.CompanyDefinition]),
		ForeignMarketStock: make(map[cards.Good]int),
		BusinessDeals:      []string{},
		VotingCubeBag:      make(map[string]int),
		AvailableInfluence: resources.New("availableInfluence", resources.WithMax(25), resources.WithClamp()),
	}
	for _, p := range rules.Policies {
		b.Policies[p.String()] = rules.PolicyB
	}
	for _, role := range []string{RoleMiddleClass, RoleCapitalist, RoleState} {
		companies, err := deck.New(set.CompaniesFor(role))
		if err != nil {
			return nil, fmt.Errorf("%s company deck: %w", role, err)
		}
		b.CompanyCards[role] = companies
	}
	return b, nil
}

// Policy returns the current position of a policy.
func (b *Board) Policy(p rules.Policy) int {
	return b.Policies[p.String()]
}

// SetPolicy moves a policy to value.
func (b *Board) SetPolicy(p rules.Policy, value int) error {
	if _, ok := rules.PolicyByName(p.String()); !ok {
		return fmt.Errorf("%w: %s", rules.ErrMalformedPolicy, p)
	}
	if err := rules.CheckPolicyValue(value); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	b.Policies[p.String()] = value
	return nil
}

// ProposalsBy counts the pending proposals of a role.
func (b *Board) ProposalsBy(role string) int {
	n := 0
	for _, proposal := range b.PolicyProposals {
		if proposal.Role == role {
			n++
		}
	}
	return n
}

// Worker is a population token of a class.
type Worker struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
	Union     bool   `json:"union"`
	Committed bool   `json:"committed"`
}

// Company is a company card in play. WageLevel indexes the definition's
// wages and never drops below the labor market minimum.
type Company struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definitionId"`
	Owner        string `json:"owner"`
	Workers      []int  `json:"workers"`
	WageLevel    int    `json:"wageLevel"`
}

func (c *Company) hasWorker(id int) bool {
	for _, w := range c.Workers {
		if w == id {
			return true
		}
	}
	return false
}

func (c *Company) removeWorker(id int) {
	for i, w := range c.Workers {
		if w == id {
			c.Workers = append(c.Workers[:i], c.Workers[i+1:]...)
			return
		}
	}
}

// GameState is the single mutable root of a game.
type GameState struct {
	ID              string
	Players         []Player
	Round           int
	Turn            int
	CurrentRoleName string // empty between rounds and before the first turn
	Board           *Board
	Roles           map[string]Role
	NextWorkerID    int
	Queue           *rules.ActionQueue
	Err             error
}

// PlayerRoles returns the roles of the seated players in seating order.
func (s *GameState) PlayerRoles() []string {
	roles := make([]string, len(s.Players))
	for i, p := range s.Players {
		roles[i] = p.Role
	}
	return roles
}

// HasPlayer reports whether a role is seated.
func (s *GameState) HasPlayer(role string) bool {
	for _, p := range s.Players {
		if p.Role == role {
			return true
		}
	}
	return false
}

func (s *GameState) newWorkerID() int {
	id := s.NextWorkerID
	s.NextWorkerID++
	return id
}
