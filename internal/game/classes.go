package game

import (
	"encoding/json"
	"fmt"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// WorkingClass is the working class role container.
type WorkingClass struct {
	classRole
}

func newWorkingClass(g *Game) *WorkingClass {
	wc := &WorkingClass{classRole: newClassRole(g, RoleWorkingClass, 30, 3, 2)}
	registerCommon(g, wc)
	registerClassActions(g, &wc.classRole)
	wc.set.Free[rules.FreeKey("useLuxury")] = consumeAction(&wc.classRole, cards.GoodLuxury, "hasLuxury")
	return wc
}

func (wc *WorkingClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(wc.view())
}

// MiddleClass is the middle class role container. It employs workers in its
// own companies as well as working in others'.
type MiddleClass struct {
	classRole
	companies []*Company
}

func newMiddleClass(g *Game) *MiddleClass {
	mc := &MiddleClass{classRole: newClassRole(g, RoleMiddleClass, 40, 3, 2)}
	registerCommon(g, mc)
	registerClassActions(g, &mc.classRole)
	return mc
}

// SetupRound pays the round income and runs the companies.
func (mc *MiddleClass) SetupRound() error {
	if err := mc.classRole.SetupRound(); err != nil {
		return err
	}
	return mc.game.operateCompanies(mc)
}

func (mc *MiddleClass) Companies() []*Company {
	return mc.companies
}

func (mc *MiddleClass) addCompany(c *Company) {
	mc.companies = append(mc.companies, c)
}

func (mc *MiddleClass) MarshalJSON() ([]byte, error) {
	v := mc.view()
	v["companies"] = mc.companies
	return json.Marshal(v)
}

func registerClassActions(g *Game, c *classRole) {
	c.set.Basic["assignWorkers"] = assignWorkersAction(g, c)
	c.set.Basic["buyGoods"] = buyGoodsAction(g, c)
	c.set.Free[rules.FreeKey("useHealthcare")] = consumeAction(c, cards.GoodHealthcare, "hasHealthcare")
}

// consumeAction spends one unit of good per population to gain a
// prosperity step, then scores the new prosperity.
func consumeAction(c *classRole, good cards.Good, label string) *action.Action {
	stock := c.goods[good]
	return &action.Action{
		Condition: func() action.Checks {
			return action.Checks{
				action.Require(label, stock.Value() >= c.population.Value()),
			}
		},
		Run: func(*action.RunContext, action.Input) error {
			if _, err := stock.Remove(c.population.Value()); err != nil {
				return err
			}
			prosperity, err := c.prosperity.Add(1)
			if err != nil {
				return err
			}
			_, err = c.score.Add(prosperity)
			return err
		},
	}
}

var assignWorkersSchema = action.MustSchema(`{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["workerId", "target"],
		"properties": {
			"workerId": {"type": "integer", "minimum": 0},
			"target": {"enum": ["union", "company"]},
			"companyId": {"type": "string"}
		},
		"if": {"properties": {"target": {"const": "company"}}},
		"then": {"required": ["companyId"]}
	}
}`)

func assignWorkersAction(g *Game, c *classRole) *action.Action {
	decode := func(in action.Input) ([]WorkerAssignment, error) {
		var assignments []WorkerAssignment
		err := in.Decode(&assignments)
		return assignments, err
	}
	return &action.Action{
		InputSchema: assignWorkersSchema,
		ValidateInput: func(in action.Input) action.Checks {
			assignments, err := decode(in)
			if err != nil {
				return action.Checks{action.Require("assignments", false)}
			}
			own, companies := true, true
			for _, a := range assignments {
				w, ok := g.WorkerByIDSafe(a.WorkerID)
				if !ok || w.Role != c.name {
					own = false
				}
				if a.Target == TargetCompany {
					if _, ok := g.CompanyByIDSafe(a.CompanyID); !ok {
						companies = false
					}
				}
			}
			return action.Checks{
				action.Require("ownWorkers", own),
				action.Require("companyExists", companies),
			}
		},
		Run: func(_ *action.RunContext, in action.Input) error {
			assignments, err := decode(in)
			if err != nil {
				return err
			}
			return g.AssignWorkers(assignments)
		},
	}
}

var buyGoodsSchema = action.MustSchema(fmt.Sprintf(`{
	"type": "object",
	"required": ["resource", "count"],
	"additionalProperties": false,
	"properties": {
		"resource": {"enum": %s},
		"count": {"type": "integer", "minimum": 1, "maximum": %d}
	}
}`, mustJSON(tradedGoods), MaxImportCount))

// GoodsInput is the input of buyGoods.
type GoodsInput struct {
	Resource cards.Good `json:"resource"`
	Count    int        `json:"count"`
}

func buyGoodsAction(g *Game, c *classRole) *action.Action {
	return &action.Action{
		InputSchema: buyGoodsSchema,
		ValidateInput: func(in action.Input) action.Checks {
			var order GoodsInput
			if err := in.Decode(&order); err != nil {
				return action.Checks{action.Require("order", false)}
			}
			cost, err := g.ForeignMarketCost(order.Resource, order.Count, BuyOptions{PayTariff: true})
			_, left, limited, _ := g.ForeignMarketOffer(order.Resource)
			return action.Checks{
				action.Require("inStock", !limited || order.Count <= left),
				action.Require("affordable", err == nil && c.money.Value() >= cost),
			}
		},
		Run: func(_ *action.RunContext, in action.Input) error {
			var order GoodsInput
			if err := in.Decode(&order); err != nil {
				return err
			}
			_, err := g.BuyFromForeignMarket(c.name, order.Resource, order.Count, BuyOptions{PayTariff: true})
			return err
		},
	}
}
