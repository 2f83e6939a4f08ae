package game

import (
	"fmt"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
)

// CompanyDefinition resolves a company card by id, whether or not it has
// been bought.
func (g *Game) CompanyDefinition(id string) (cards.CompanyDefinition, error) {
	if def, ok := g.CompanyDefinitionSafe(id); ok {
		return def, nil
	}
	return cards.CompanyDefinition{}, fmt.Errorf("company definition %q: %w", id, ErrNotFound)
}

// CompanyDefinitionSafe is CompanyDefinition without the error.
func (g *Game) CompanyDefinitionSafe(id string) (cards.CompanyDefinition, bool) {
	for _, d := range g.state.Board.CompanyCards {
		if def, ok := d.OriginalSafe(id); ok {
			return def, true
		}
	}
	return cards.CompanyDefinition{}, false
}

// WorkerByID finds a worker of either class.
func (g *Game) WorkerByID(id int) (*Worker, error) {
	if w, ok := g.WorkerByIDSafe(id); ok {
		return w, nil
	}
	return nil, fmt.Errorf("worker %d: %w", id, ErrNotFound)
}

// WorkerByIDSafe is WorkerByID without the error.
func (g *Game) WorkerByIDSafe(id int) (*Worker, bool) {
	for _, role := range RoleOrder {
		owner, ok := g.state.Roles[role].(WorkerOwner)
		if !ok {
			continue
		}
		for _, w := range owner.Workers() {
			if w.ID == id {
				return w, true
			}
		}
	}
	return nil, false
}

// CompanyByID finds a company in play.
func (g *Game) CompanyByID(id string) (*Company, error) {
	if c, ok := g.CompanyByIDSafe(id); ok {
		return c, nil
	}
	return nil, fmt.Errorf("company %q: %w", id, ErrNotFound)
}

// CompanyByIDSafe is CompanyByID without the error.
func (g *Game) CompanyByIDSafe(id string) (*Company, bool) {
	for _, role := range RoleOrder {
		owner, ok := g.state.Roles[role].(CompanyOwner)
		if !ok {
			continue
		}
		for _, c := range owner.Companies() {
			if c.ID == id {
				return c, true
			}
		}
	}
	return nil, false
}
