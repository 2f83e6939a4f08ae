package game

import (
	"fmt"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// minimumWageLevel is the lowest wage level the labor market allows:
// L3 under policy A, L2 under B and L1 under C.
func (g *Game) minimumWageLevel() int {
	return rules.PolicyC - g.state.Board.Policy(rules.PolicyLaborMarket)
}

// operateCompanies runs the owner's companies for a round. Workers of other
// classes are paid the company wage, taking loans if the owner is short, and
// every fully staffed company adds its production to the owner's goods.
func (g *Game) operateCompanies(owner CompanyOwner) error {
	floor := g.minimumWageLevel()
	for _, company := range owner.Companies() {
		def, err := g.CompanyDefinition(company.DefinitionID)
		if err != nil {
			return err
		}
		company.WageLevel = min(max(company.WageLevel, floor), len(def.Wages)-1)
		wage := def.Wages[company.WageLevel]

		for _, id := range company.Workers {
			w, err := g.WorkerByID(id)
			if err != nil {
				return err
			}
			if w.Role == owner.Name() || wage == 0 {
				continue
			}
			if err := owner.Pay(wage, resources.RemoveOptions{CanTakeLoans: true}); err != nil {
				return fmt.Errorf("%s wages: %w", company.ID, err)
			}
			if err := g.state.Roles[w.Role].Earn(wage); err != nil {
				return fmt.Errorf("%s wages: %w", company.ID, err)
			}
		}

		if len(company.Workers) < def.Workers || def.Production == 0 {
			continue
		}
		stock, ok := owner.Goods(def.Resource)
		if !ok {
			return fmt.Errorf("%s cannot hold %s produced by %s", owner.Name(), def.Resource, company.ID)
		}
		if _, err := stock.Add(def.Production); err != nil {
			return err
		}
	}
	return nil
}
