package game

import (
	"encoding/json"
	"slices"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// Capitalist is the capitalist role container. Its money is split into
// revenue and capital.
type Capitalist struct {
	roleBase
	wallet    *resources.CapitalistMoney
	companies []*Company
}

func newCapitalist(g *Game) *Capitalist {
	wallet := resources.NewCapitalistMoney(RoleCapitalist+".money", 0, 120)
	c := &Capitalist{
		roleBase: newRoleBase(g, RoleCapitalist, wallet),
		wallet:   wallet,
	}
	registerCommon(g, c)
	c.set.Basic["buyCompany"] = buyCompanyAction(g, c)
	c.set.Basic["makeBusinessDeal"] = makeBusinessDealAction(g, c)
	c.set.Free[rules.FreeKey("moveCapital")] = moveCapitalAction(c)
	return c
}

// Wallet returns the split money resource.
func (c *Capitalist) Wallet() *resources.CapitalistMoney {
	return c.wallet
}

// SetupRound runs the companies, then moves the revenue left into capital.
func (c *Capitalist) SetupRound() error {
	if err := c.game.operateCompanies(c); err != nil {
		return err
	}
	return c.wallet.MoveToCapital(c.wallet.Revenue())
}

func (c *Capitalist) Companies() []*Company {
	return c.companies
}

func (c *Capitalist) addCompany(company *Company) {
	c.companies = append(c.companies, company)
}

func (c *Capitalist) MarshalJSON() ([]byte, error) {
	v := c.view()
	v["companies"] = c.companies
	return json.Marshal(v)
}

var cardIDSchema = action.MustSchema(`{
	"type": "object",
	"required": ["cardId"],
	"additionalProperties": false,
	"properties": {"cardId": {"type": "string", "minLength": 1}}
}`)

// CardInput selects a card by id.
type CardInput struct {
	CardID string `json:"cardId"`
}

func buyCompanyAction(g *Game, owner CompanyOwner) *action.Action {
	return &action.Action{
		InputSchema: cardIDSchema,
		ValidateInput: func(in action.Input) action.Checks {
			var pick CardInput
			if err := in.Decode(&pick); err != nil {
				return action.Checks{action.Require("card", false)}
			}
			def, ok := g.state.Board.CompanyCards[owner.Name()].SeekSafe(pick.CardID)
			return action.Checks{
				action.Require("companyAvailable", ok),
				action.Require("affordable", ok && owner.Money().Value() >= def.Cost),
			}
		},
		Run: func(_ *action.RunContext, in action.Input) error {
			var pick CardInput
			if err := in.Decode(&pick); err != nil {
				return err
			}
			_, err := g.BuyCompany(owner, pick.CardID)
			return err
		},
	}
}

func makeBusinessDealAction(g *Game, c *Capitalist) *action.Action {
	return &action.Action{
		Condition: func() action.Checks {
			return action.Checks{
				action.Require("dealAvailable", len(g.state.Board.BusinessDeals) > 0),
			}
		},
		InputSchema: cardIDSchema,
		ValidateInput: func(in action.Input) action.Checks {
			var pick CardInput
			if err := in.Decode(&pick); err != nil {
				return action.Checks{action.Require("card", false)}
			}
			active := slices.Contains(g.state.Board.BusinessDeals, pick.CardID)
			affordable := false
			if card, ok := g.state.Board.BusinessDealCards.OriginalSafe(pick.CardID); ok {
				affordable = c.wallet.Value() >= card.Cost+card.Tariff
			}
			return action.Checks{
				action.Require("dealActive", active),
				action.Require("affordable", affordable),
			}
		},
		Run: func(_ *action.RunContext, in action.Input) error {
			var pick CardInput
			if err := in.Decode(&pick); err != nil {
				return err
			}
			return g.MakeBusinessDeal(c, pick.CardID)
		},
	}
}

var amountSchema = action.MustSchema(`{
	"type": "object",
	"required": ["amount"],
	"additionalProperties": false,
	"properties": {"amount": {"type": "integer", "minimum": 1}}
}`)

// AmountInput carries a money amount.
type AmountInput struct {
	Amount int `json:"amount"`
}

func moveCapitalAction(c *Capitalist) *action.Action {
	return &action.Action{
		Condition: func() action.Checks {
			return action.Checks{action.Require("hasRevenue", c.wallet.Revenue() > 0)}
		},
		InputSchema: amountSchema,
		ValidateInput: func(in action.Input) action.Checks {
			var move AmountInput
			if err := in.Decode(&move); err != nil {
				return action.Checks{action.Require("amount", false)}
			}
			return action.Checks{action.Require("enoughRevenue", move.Amount <= c.wallet.Revenue())}
		},
		Run: func(_ *action.RunContext, in action.Input) error {
			var move AmountInput
			if err := in.Decode(&move); err != nil {
				return err
			}
			return c.wallet.MoveToCapital(move.Amount)
		},
	}
}
