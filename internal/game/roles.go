package game

import (
	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// Role is the uniform view the engine has of a role container.
type Role interface {
	Name() string
	Actions() *action.Set
	UsedActions() []rules.ActionKind
	UseAction(kind rules.ActionKind)
	ResetUsedActions()
	SetupRound() error
	Money() resources.Account
	Pay(amount int, opts resources.RemoveOptions) error
	Earn(amount int) error
	Goods(good cards.Good) (*resources.Manager, bool)
	Score() *resources.Manager
}

// WorkerOwner is implemented by the classes.
type WorkerOwner interface {
	Role
	Workers() []*Worker
}

// CompanyOwner is implemented by roles that own companies.
type CompanyOwner interface {
	Role
	Companies() []*Company
	addCompany(c *Company)
}

var tradedGoods = []cards.Good{cards.GoodFood, cards.GoodLuxury, cards.GoodHealthcare, cards.GoodEducation}

// roleBase holds what every role has. The game pointer is a handle to the
// owning game for cross-role operations.
type roleBase struct {
	name  string
	game  *Game
	money resources.Account
	score *resources.Manager
	goods map[cards.Good]*resources.Manager
	used  []rules.ActionKind
	set   *action.Set
}

func newRoleBase(g *Game, name string, money resources.Account) roleBase {
	goods := make(map[cards.Good]*resources.Manager, len(tradedGoods)+1)
	for _, good := range tradedGoods {
		goods[good] = resources.New(name + "." + string(good))
	}
	goods[cards.GoodInfluence] = resources.New(name+".influence", resources.WithValue(1))
	set := action.NewSet()
	set.Basic["skip"] = skipAction()
	return roleBase{
		name:  name,
		game:  g,
		money: money,
		score: resources.New(name + ".score"),
		goods: goods,
		used:  []rules.ActionKind{},
		set:   set,
	}
}

func (r *roleBase) Name() string {
	return r.name
}

func (r *roleBase) Actions() *action.Set {
	return r.set
}

func (r *roleBase) UsedActions() []rules.ActionKind {
	return append([]rules.ActionKind(nil), r.used...)
}

func (r *roleBase) UseAction(kind rules.ActionKind) {
	r.used = append(r.used, kind)
}

func (r *roleBase) ResetUsedActions() {
	r.used = r.used[:0]
}

func (r *roleBase) Money() resources.Account {
	return r.money
}

func (r *roleBase) Pay(amount int, opts resources.RemoveOptions) error {
	_, err := r.money.Remove(amount, opts)
	return err
}

func (r *roleBase) Earn(amount int) error {
	_, err := r.money.Deposit(amount, resources.AddOptions{})
	return err
}

func (r *roleBase) Goods(good cards.Good) (*resources.Manager, bool) {
	m, ok := r.goods[good]
	return m, ok
}

func (r *roleBase) Score() *resources.Manager {
	return r.score
}

func (r *roleBase) view() map[string]any {
	goods := make(map[string]*resources.Manager, len(r.goods))
	for good, m := range r.goods {
		goods[string(good)] = m
	}
	return map[string]any{
		"name":        r.name,
		"money":       r.money,
		"score":       r.score,
		"resources":   goods,
		"usedActions": r.UsedActions(),
	}
}

// classRole is shared by the working and middle class.
type classRole struct {
	roleBase
	population *resources.Manager
	prosperity *resources.Manager
	workers    []*Worker
}

func newClassRole(g *Game, name string, money, population, prosperity int) classRole {
	c := classRole{
		roleBase:   newRoleBase(g, name, resources.NewMoney(name+".money", money)),
		population: resources.New(name+".population", resources.WithValue(population)),
		prosperity: resources.New(name+".prosperity", resources.WithValue(prosperity), resources.WithMax(10), resources.WithClamp()),
	}
	for i := 0; i < population; i++ {
		c.workers = append(c.workers, &Worker{ID: g.state.newWorkerID(), Role: name})
	}
	return c
}

// Population returns the population resource.
func (c *classRole) Population() *resources.Manager {
	return c.population
}

// Prosperity returns the prosperity resource.
func (c *classRole) Prosperity() *resources.Manager {
	return c.prosperity
}

func (c *classRole) Workers() []*Worker {
	return c.workers
}

// SetupRound pays the round income.
func (c *classRole) SetupRound() error {
	return c.Earn(c.population.Value() * classIncomePerPopulation)
}

func (c *classRole) view() map[string]any {
	v := c.roleBase.view()
	v["population"] = c.population
	v["prosperity"] = c.prosperity
	v["workers"] = c.workers
	return v
}

const classIncomePerPopulation = 5
