package game

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

func allRoles(t *testing.T) *Game {
	return newTestGame(t, nil, RoleOrder...)
}

func goods(t *testing.T, r Role, good cards.Good) int {
	t.Helper()
	m, ok := r.Goods(good)
	require.True(t, ok)
	return m.Value()
}

func TestStartingValues(t *testing.T) {
	g := allRoles(t)
	roles := g.State().Roles

	wc := roles[RoleWorkingClass].(*WorkingClass)
	assert.Equal(t, 30, wc.Money().Value())
	assert.Equal(t, 3, wc.Population().Value())
	assert.Equal(t, 2, wc.Prosperity().Value())
	maxProsperity, ok := wc.Prosperity().Max()
	assert.True(t, ok)
	assert.Equal(t, 10, maxProsperity)

	mc := roles[RoleMiddleClass].(*MiddleClass)
	assert.Equal(t, 40, mc.Money().Value())
	require.Len(t, mc.Companies(), 1)
	assert.Equal(t, "mc-shop-1", mc.Companies()[0].ID)

	var ids []int
	for _, owner := range []WorkerOwner{wc, mc} {
		for _, w := range owner.Workers() {
			ids = append(ids, w.ID)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, ids)
	assert.Equal(t, 6, g.State().NextWorkerID)

	capitalist := roles[RoleCapitalist].(*Capitalist)
	assert.Equal(t, 0, capitalist.Wallet().Revenue())
	assert.Equal(t, 120, capitalist.Wallet().Capital())
	assert.Equal(t, 120, capitalist.Money().Value())
	require.Len(t, capitalist.Companies(), 1)
	assert.Equal(t, "cc-farm-1", capitalist.Companies()[0].ID)

	state := roles[RoleState].(*State)
	assert.Equal(t, 120, state.Money().Value())
	legitimacy, ok := state.Legitimacy(RoleMiddleClass)
	require.True(t, ok)
	assert.Equal(t, 2, legitimacy.Value())
	_, ok = state.Legitimacy(RoleState)
	assert.False(t, ok)
	require.Len(t, state.Companies(), 1)
	assert.Equal(t, "st-hospital-1", state.Companies()[0].ID)

	for _, name := range RoleOrder {
		assert.Equal(t, 1, goods(t, roles[name], cards.GoodInfluence), name)
		assert.Equal(t, 0, goods(t, roles[name], cards.GoodFood), name)
		assert.Zero(t, roles[name].Score().Value(), name)
	}
	for _, policy := range rules.Policies {
		assert.Equal(t, rules.PolicyB, g.State().Board.Policy(policy), policy.String())
	}
}

func TestLookups(t *testing.T) {
	g := allRoles(t)

	def, err := g.CompanyDefinition("cc-farm-2")
	require.NoError(t, err)
	assert.Equal(t, 25, def.Cost)
	_, err = g.CompanyDefinition("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	w, err := g.WorkerByID(4)
	require.NoError(t, err)
	assert.Equal(t, RoleMiddleClass, w.Role)
	_, err = g.WorkerByID(99)
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := g.CompanyByID("st-hospital-1")
	require.NoError(t, err)
	assert.Equal(t, RoleState, c.Owner)
	_, err = g.CompanyByID("cc-farm-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignWorkersResetsOrigin(t *testing.T) {
	g := allRoles(t)
	require.NoError(t, g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "cc-farm-1"},
		{WorkerID: 1, Target: TargetCompany, CompanyID: "cc-farm-1"},
		{WorkerID: 3, Target: TargetCompany, CompanyID: "cc-farm-1"},
	}))
	farm, _ := g.CompanyByID("cc-farm-1")
	assert.Equal(t, []int{0, 1, 3}, farm.Workers)

	require.NoError(t, g.AssignWorkers([]WorkerAssignment{{WorkerID: 0, Target: TargetUnion}}))

	assert.Empty(t, farm.Workers)
	for _, id := range []int{1, 3} {
		w, _ := g.WorkerByID(id)
		assert.Empty(t, w.CompanyID, id)
		assert.False(t, w.Committed, id)
	}
	w0, _ := g.WorkerByID(0)
	assert.True(t, w0.Union)
	assert.False(t, w0.Committed)
}

func TestAssignWorkersMiddleClassExemption(t *testing.T) {
	g := allRoles(t)
	require.NoError(t, g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "mc-shop-1"},
		{WorkerID: 1, Target: TargetCompany, CompanyID: "mc-shop-1"},
	}))

	require.NoError(t, g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "st-hospital-1"},
	}))

	shop, _ := g.CompanyByID("mc-shop-1")
	assert.Equal(t, []int{1}, shop.Workers)
	assert.True(t, shop.hasWorker(1))
	w1, _ := g.WorkerByID(1)
	assert.True(t, w1.Committed)

	hospital, _ := g.CompanyByID("st-hospital-1")
	assert.True(t, hospital.hasWorker(0))
}

func TestAssignWorkersMovesWithinBatch(t *testing.T) {
	g := allRoles(t)
	require.NoError(t, g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "cc-farm-1"},
		{WorkerID: 1, Target: TargetCompany, CompanyID: "cc-farm-1"},
	}))

	// Worker 1 is part of the batch so the reset leaves it where it lands.
	require.NoError(t, g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "st-hospital-1"},
		{WorkerID: 1, Target: TargetCompany, CompanyID: "cc-farm-1"},
	}))
	farm, _ := g.CompanyByID("cc-farm-1")
	assert.Equal(t, []int{1}, farm.Workers)
	w1, _ := g.WorkerByID(1)
	assert.Equal(t, "cc-farm-1", w1.CompanyID)
	assert.True(t, w1.Committed)
}

func TestAssignWorkersRejectsWithoutChanges(t *testing.T) {
	g := allRoles(t)

	err := g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "mc-shop-1"},
		{WorkerID: 1, Target: TargetCompany, CompanyID: "mc-shop-1"},
		{WorkerID: 2, Target: TargetCompany, CompanyID: "mc-shop-1"},
	})
	assert.ErrorIs(t, err, ErrCompanyFull)

	err = g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetUnion},
		{WorkerID: 42, Target: TargetUnion},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	err = g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetUnion},
		{WorkerID: 0, Target: TargetUnion},
	})
	assert.Error(t, err)

	err = g.AssignWorkers([]WorkerAssignment{{WorkerID: 0, Target: TargetCompany, CompanyID: "cc-farm-2"}})
	assert.ErrorIs(t, err, ErrNotFound)

	err = g.AssignWorkers([]WorkerAssignment{{WorkerID: 0, Target: "beach"}})
	assert.Error(t, err)

	shop, _ := g.CompanyByID("mc-shop-1")
	assert.Empty(t, shop.Workers)
	for _, id := range []int{0, 1, 2} {
		w, _ := g.WorkerByID(id)
		assert.Empty(t, w.CompanyID)
		assert.False(t, w.Union)
	}
}

func TestAssignWorkersAction(t *testing.T) {
	g := allRoles(t)
	g.Next("workingClass:assignWorkers", action.WithDebugInput([]map[string]any{
		{"workerId": 3, "target": "union"},
	}))
	assert.False(t, g.Tick(context.Background()))
	var checkErr *action.CheckError
	require.ErrorAs(t, g.Err(), &checkErr)
	assert.Equal(t, []string{"ownWorkers"}, checkErr.Labels)

	g = allRoles(t)
	g.Next("workingClass:assignWorkers", action.WithDebugInput([]map[string]any{
		{"workerId": 0, "target": "company"},
	}))
	assert.False(t, g.Tick(context.Background()))
	assert.ErrorIs(t, g.Err(), action.ErrValidationFailed)

	g = allRoles(t)
	g.Next("workingClass:assignWorkers", action.WithDebugInput([]map[string]any{
		{"workerId": 0, "target": "company", "companyId": "st-hospital-1"},
		{"workerId": 1, "target": "union"},
	}))
	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	hospital, _ := g.CompanyByID("st-hospital-1")
	assert.Equal(t, []int{0}, hospital.Workers)
}

func TestBuyFromForeignMarket(t *testing.T) {
	g := allRoles(t)
	wc := g.State().Roles[RoleWorkingClass]
	state := g.State().Roles[RoleState]

	cost, err := g.BuyFromForeignMarket(RoleWorkingClass, cards.GoodFood, 2, BuyOptions{PayTariff: true})
	require.NoError(t, err)
	assert.Equal(t, 26, cost)
	assert.Equal(t, 4, wc.Money().Value())
	assert.Equal(t, 2, goods(t, wc, cards.GoodFood))
	assert.Equal(t, 126, state.Money().Value())

	_, err = g.BuyFromForeignMarket(RoleWorkingClass, cards.GoodFood, 1, BuyOptions{PayTariff: true})
	assert.ErrorIs(t, err, resources.ErrInsufficientFunds)
	assert.Equal(t, 2, goods(t, wc, cards.GoodFood))

	cost, err = g.BuyFromForeignMarket(RoleState, cards.GoodHealthcare, 1, BuyOptions{PayTariff: true})
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
	assert.Equal(t, 116, state.Money().Value())

	require.NoError(t, g.State().Board.SetPolicy(rules.PolicyForeignTrade, rules.PolicyC))
	assert.Equal(t, 0, g.Tariff(cards.GoodLuxury))
	cost, err = g.ForeignMarketCost(cards.GoodLuxury, 2, BuyOptions{PayTariff: true})
	require.NoError(t, err)
	assert.Equal(t, 12, cost)

	_, err = g.BuyFromForeignMarket(RoleWorkingClass, cards.GoodInfluence, 1, BuyOptions{})
	assert.Error(t, err)
	_, err = g.BuyFromForeignMarket(RoleWorkingClass, cards.GoodFood, 0, BuyOptions{})
	assert.Error(t, err)
}

func TestBuyGoodsAction(t *testing.T) {
	g := allRoles(t)
	g.Next("middleClass:buyGoods", action.WithDebugInput(map[string]any{"resource": "luxury", "count": 5}))
	assert.False(t, g.Tick(context.Background()))
	assert.Contains(t, g.Err().Error(), "affordable")

	g = allRoles(t)
	g.Next("middleClass:buyGoods", action.WithDebugInput(map[string]any{"resource": "luxury", "count": 4}))
	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	mc := g.State().Roles[RoleMiddleClass]
	assert.Equal(t, 4, goods(t, mc, cards.GoodLuxury))
	assert.Equal(t, 4, mc.Money().Value())
}

func TestBuyCompany(t *testing.T) {
	g := allRoles(t)
	capitalist := g.State().Roles[RoleCapitalist].(*Capitalist)
	require.NoError(t, capitalist.Earn(10))

	company, err := g.BuyCompany(capitalist, "cc-farm-2")
	require.NoError(t, err)
	assert.Equal(t, RoleCapitalist, company.Owner)
	assert.Equal(t, 10, capitalist.Wallet().Revenue())
	assert.Equal(t, 95, capitalist.Wallet().Capital())
	assert.Len(t, capitalist.Companies(), 2)

	_, err = g.BuyCompany(capitalist, "cc-farm-2")
	assert.Error(t, err)

	state := g.State().Roles[RoleState].(*State)
	_, err = g.BuyCompany(state, "cc-mall-1")
	assert.Error(t, err)
	assert.Len(t, state.Companies(), 1)
}

func TestBuyCompanyAction(t *testing.T) {
	g := allRoles(t)
	g.Next("state:buyCompany", action.WithDebugInput(map[string]any{"cardId": "st-hospital-1"}))
	assert.False(t, g.Tick(context.Background()))
	var checkErr *action.CheckError
	require.ErrorAs(t, g.Err(), &checkErr)
	assert.Equal(t, []string{"companyAvailable", "affordable"}, checkErr.Labels)

	g = allRoles(t)
	g.Next("state:buyCompany", action.WithDebugInput(map[string]any{"cardId": "st-tv-1"}))
	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	assert.Equal(t, 100, g.State().Roles[RoleState].Money().Value())
	_, err := g.CompanyByID("st-tv-1")
	assert.NoError(t, err)
}

func TestMakeBusinessDeal(t *testing.T) {
	g := allRoles(t)
	capitalist := g.State().Roles[RoleCapitalist].(*Capitalist)
	g.State().Board.BusinessDeals = []string{"bd-01", "bd-02"}

	require.NoError(t, g.MakeBusinessDeal(capitalist, "bd-01"))
	assert.Equal(t, 70, capitalist.Money().Value())
	assert.Equal(t, 6, goods(t, capitalist, cards.GoodFood))
	assert.Equal(t, []string{"bd-02"}, g.State().Board.BusinessDeals)
	assert.Equal(t, 130, g.State().Roles[RoleState].Money().Value())

	assert.ErrorIs(t, g.MakeBusinessDeal(capitalist, "bd-01"), ErrNotFound)
}

func TestMakeBusinessDealAction(t *testing.T) {
	g := allRoles(t)
	g.Next("capitalist:makeBusinessDeal", action.WithDebugInput(map[string]any{"cardId": "bd-01"}))
	assert.False(t, g.Tick(context.Background()))
	assert.ErrorIs(t, g.Err(), action.ErrConditionFailed)
	assert.Contains(t, g.Err().Error(), "dealAvailable")

	g = allRoles(t)
	g.State().Board.BusinessDeals = []string{"bd-02"}
	g.Next("capitalist:makeBusinessDeal", action.WithDebugInput(map[string]any{"cardId": "bd-01"}))
	assert.False(t, g.Tick(context.Background()))
	assert.Contains(t, g.Err().Error(), "dealActive")

	g = allRoles(t)
	g.State().Board.BusinessDeals = []string{"bd-02"}
	g.Next("capitalist:makeBusinessDeal", action.WithDebugInput(map[string]any{"cardId": "bd-02"}))
	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	assert.Equal(t, 8, goods(t, g.State().Roles[RoleCapitalist], cards.GoodLuxury))
}

func TestMoveCapitalAction(t *testing.T) {
	g := allRoles(t)
	g.Next("capitalist:freeAction.moveCapital", action.WithDebugInput(map[string]any{"amount": 5}))
	assert.False(t, g.Tick(context.Background()))
	assert.Contains(t, g.Err().Error(), "hasRevenue")

	g = allRoles(t)
	capitalist := g.State().Roles[RoleCapitalist].(*Capitalist)
	require.NoError(t, capitalist.Earn(20))
	g.Next("capitalist:freeAction.moveCapital", action.WithDebugInput(map[string]any{"amount": 30}))
	assert.False(t, g.Tick(context.Background()))
	assert.Contains(t, g.Err().Error(), "enoughRevenue")

	g = allRoles(t)
	capitalist = g.State().Roles[RoleCapitalist].(*Capitalist)
	require.NoError(t, capitalist.Earn(20))
	g.Next("capitalist:freeAction.moveCapital", action.WithDebugInput(map[string]any{"amount": 15}))
	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	assert.Equal(t, 5, capitalist.Wallet().Revenue())
	assert.Equal(t, 135, capitalist.Wallet().Capital())
}

func TestPayLoanAction(t *testing.T) {
	g := allRoles(t)
	wc := g.State().Roles[RoleWorkingClass]
	g.Next("workingClass:freeAction.payLoan")
	assert.False(t, g.Tick(context.Background()))
	assert.Contains(t, g.Err().Error(), "hasLoan")

	require.NoError(t, wc.Pay(40, resources.RemoveOptions{CanTakeLoans: true}))
	assert.Equal(t, 1, wc.Money().Loans())
	assert.Equal(t, 40, wc.Money().Value())
	assert.False(t, g.Tick(context.Background()))
	assert.Contains(t, g.Err().Error(), "canRepay")

	require.NoError(t, wc.Earn(10))
	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	assert.Zero(t, wc.Money().Loans())
	assert.Zero(t, wc.Money().Value())
}

func TestUseLuxury(t *testing.T) {
	g := allRoles(t)
	wc := g.State().Roles[RoleWorkingClass].(*WorkingClass)
	luxury, _ := wc.Goods(cards.GoodLuxury)
	_, err := luxury.Set(4)
	require.NoError(t, err)
	_, err = wc.Prosperity().Set(10)
	require.NoError(t, err)

	g.Next("workingClass:freeAction.useLuxury")
	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	assert.Equal(t, 1, luxury.Value())
	assert.Equal(t, 10, wc.Prosperity().Value())
	assert.Equal(t, 10, wc.Score().Value())

	_, ok := g.State().Roles[RoleMiddleClass].Actions().Lookup(rules.FreeKey("useLuxury"))
	assert.False(t, ok)
}

func TestCollectTaxes(t *testing.T) {
	g := allRoles(t)
	wc := g.State().Roles[RoleWorkingClass]
	_, err := wc.Money().Set(0)
	require.NoError(t, err)

	total, err := g.CollectTaxes()
	require.NoError(t, err)
	assert.Equal(t, 15, total)
	assert.Equal(t, 135, g.State().Roles[RoleState].Money().Value())
	assert.Equal(t, 34, g.State().Roles[RoleMiddleClass].Money().Value())
	assert.Equal(t, 117, g.State().Roles[RoleCapitalist].Money().Value())
	assert.Equal(t, 1, wc.Money().Loans())
	assert.Equal(t, 44, wc.Money().Value())

	g = newTestGame(t, nil, RoleState, RoleWorkingClass)
	require.NoError(t, g.State().Board.SetPolicy(rules.PolicyTaxation, rules.PolicyA))
	total, err = g.CollectTaxes()
	require.NoError(t, err)
	assert.Equal(t, 9, total)
}

func TestCollectTaxesOncePerRound(t *testing.T) {
	g := allRoles(t)
	g.Next("state:collectTaxes")
	g.Next("state:collectTaxes")

	require.True(t, g.Tick(context.Background()), "%v", g.Err())
	assert.False(t, g.Tick(context.Background()))
	assert.Contains(t, g.Err().Error(), "notCollected")
}

func TestSetupRound(t *testing.T) {
	g := newTestGame(t, nil, RoleWorkingClass, RoleCapitalist, RoleState)
	capitalist := g.State().Roles[RoleCapitalist].(*Capitalist)
	require.NoError(t, capitalist.Earn(10))

	g.Next(rules.FlowStart.Event())
	require.NoError(t, g.Flush(context.Background(), FlushOptions{After: rules.FlowRoundStart.Event()}))

	assert.Equal(t, 45, g.State().Roles[RoleWorkingClass].Money().Value())
	assert.Equal(t, 0, capitalist.Wallet().Revenue())
	assert.Equal(t, 130, capitalist.Wallet().Capital())
	assert.Equal(t, 3, g.State().Board.AvailableInfluence.Value())
	// Unseated roles sit the round out.
	assert.Equal(t, 40, g.State().Roles[RoleMiddleClass].Money().Value())
}

func TestBuyGoodsRejectsHugeCount(t *testing.T) {
	g := allRoles(t)
	mc := g.State().Roles[RoleMiddleClass]
	g.Next("middleClass:buyGoods", action.WithDebugInput(map[string]any{"resource": "luxury", "count": 1100000000000000000}))

	assert.False(t, g.Tick(context.Background()))
	assert.ErrorIs(t, g.Err(), action.ErrValidationFailed)
	assert.Equal(t, 40, mc.Money().Value())
	assert.Equal(t, 0, goods(t, mc, cards.GoodLuxury))
	assert.Equal(t, 120, g.State().Roles[RoleState].Money().Value())

	for _, count := range []int{0, -3, MaxImportCount + 1, math.MaxInt} {
		_, err := g.ForeignMarketCost(cards.GoodLuxury, count, BuyOptions{PayTariff: true})
		assert.ErrorIs(t, err, ErrImportCount, count)
		_, err = g.BuyFromForeignMarket(RoleMiddleClass, cards.GoodLuxury, count, BuyOptions{PayTariff: true})
		assert.ErrorIs(t, err, ErrImportCount, count)
	}
	assert.Equal(t, 40, mc.Money().Value())

	cost, err := g.ForeignMarketCost(cards.GoodLuxury, MaxImportCount, BuyOptions{PayTariff: true})
	require.NoError(t, err)
	assert.Equal(t, 9*MaxImportCount, cost)
}

func TestForeignMarketCardSetsPriceAndStock(t *testing.T) {
	g := allRoles(t)
	g.Next(rules.FlowStart.Event())
	require.NoError(t, g.Flush(context.Background(), FlushOptions{After: rules.FlowRoundStart.Event()}))

	board := g.State().Board
	require.Equal(t, "fm-08", board.ForeignMarketCard)
	assert.Equal(t, map[cards.Good]int{cards.GoodFood: 1, cards.GoodLuxury: 4}, board.ForeignMarketStock)

	cost, err := g.ForeignMarketCost(cards.GoodFood, 1, BuyOptions{PayTariff: true})
	require.NoError(t, err)
	assert.Equal(t, 16+3, cost)
	cost, err = g.ForeignMarketCost(cards.GoodLuxury, 2, BuyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 12, cost)
	// Goods the card does not cover keep the fixed table.
	cost, err = g.ForeignMarketCost(cards.GoodHealthcare, 1, BuyOptions{PayTariff: true})
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	mc := g.State().Roles[RoleMiddleClass]
	state := g.State().Roles[RoleState]
	money, treasury := mc.Money().Value(), state.Money().Value()

	_, err = g.BuyFromForeignMarket(RoleMiddleClass, cards.GoodFood, 2, BuyOptions{PayTariff: true})
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, money, mc.Money().Value())

	cost, err = g.BuyFromForeignMarket(RoleMiddleClass, cards.GoodFood, 1, BuyOptions{PayTariff: true})
	require.NoError(t, err)
	assert.Equal(t, 19, cost)
	assert.Equal(t, money-19, mc.Money().Value())
	assert.Equal(t, treasury+3, state.Money().Value())
	assert.Equal(t, 0, board.ForeignMarketStock[cards.GoodFood])

	_, err = g.BuyFromForeignMarket(RoleMiddleClass, cards.GoodFood, 1, BuyOptions{PayTariff: true})
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = g.BuyFromForeignMarket(RoleState, cards.GoodHealthcare, 3, BuyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, board.ForeignMarketStock[cards.GoodLuxury])
}

func TestBuyGoodsActionChecksStock(t *testing.T) {
	g := allRoles(t)
	board := g.State().Board
	board.ForeignMarketCard = "fm-08"
	board.ForeignMarketStock[cards.GoodFood] = 1
	board.ForeignMarketStock[cards.GoodLuxury] = 4

	g.Next("middleClass:buyGoods", action.WithDebugInput(map[string]any{"resource": "food", "count": 2}))
	assert.False(t, g.Tick(context.Background()))
	assert.ErrorIs(t, g.Err(), action.ErrInputRejected)
	assert.Contains(t, g.Err().Error(), "inStock")
	assert.NotContains(t, g.Err().Error(), "affordable")
	assert.Equal(t, 40, g.State().Roles[RoleMiddleClass].Money().Value())
}

func TestCompaniesPayWagesAndProduce(t *testing.T) {
	g := allRoles(t)
	capitalist := g.State().Roles[RoleCapitalist].(*Capitalist)
	wc := g.State().Roles[RoleWorkingClass]
	require.NoError(t, g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "cc-farm-1"},
		{WorkerID: 1, Target: TargetCompany, CompanyID: "cc-farm-1"},
		{WorkerID: 2, Target: TargetCompany, CompanyID: "cc-farm-1"},
	}))

	require.NoError(t, capitalist.SetupRound())

	farm, _ := g.CompanyByID("cc-farm-1")
	assert.Equal(t, 1, farm.WageLevel)
	// Three wages of 8 come out of capital once revenue is empty.
	assert.Equal(t, 0, capitalist.Wallet().Revenue())
	assert.Equal(t, 96, capitalist.Wallet().Capital())
	assert.Equal(t, 54, wc.Money().Value())
	assert.Equal(t, 4, goods(t, capitalist, cards.GoodFood))

	require.NoError(t, g.State().Board.SetPolicy(rules.PolicyLaborMarket, rules.PolicyA))
	require.NoError(t, capitalist.SetupRound())
	assert.Equal(t, 2, farm.WageLevel)
	assert.Equal(t, 66, capitalist.Wallet().Capital())
	assert.Equal(t, 84, wc.Money().Value())
	assert.Equal(t, 8, goods(t, capitalist, cards.GoodFood))
}

func TestCompaniesPartiallyStaffed(t *testing.T) {
	g := allRoles(t)
	mc := g.State().Roles[RoleMiddleClass].(*MiddleClass)
	wc := g.State().Roles[RoleWorkingClass]
	capitalist := g.State().Roles[RoleCapitalist].(*Capitalist)
	require.NoError(t, g.AssignWorkers([]WorkerAssignment{
		{WorkerID: 0, Target: TargetCompany, CompanyID: "cc-farm-1"},
		{WorkerID: 1, Target: TargetCompany, CompanyID: "mc-shop-1"},
		{WorkerID: 3, Target: TargetCompany, CompanyID: "mc-shop-1"},
	}))

	require.NoError(t, g.operateCompanies(capitalist))
	assert.Equal(t, 112, capitalist.Money().Value())
	assert.Equal(t, 0, goods(t, capitalist, cards.GoodFood))

	// Only the working class worker draws a wage from the middle class.
	require.NoError(t, g.operateCompanies(mc))
	assert.Equal(t, 34, mc.Money().Value())
	assert.Equal(t, 30+8+6, wc.Money().Value())
	assert.Equal(t, 3, goods(t, mc, cards.GoodLuxury))
}

func TestCapitalistMoneyKeepsBuckets(t *testing.T) {
	g := allRoles(t)
	capitalist := g.State().Roles[RoleCapitalist].(*Capitalist)
	var role Role = capitalist

	require.NoError(t, role.Earn(10))
	assert.Equal(t, 10, capitalist.Wallet().Revenue())

	_, err := role.Money().Set(50)
	require.NoError(t, err)
	assert.Equal(t, 0, capitalist.Wallet().Revenue())
	assert.Equal(t, 50, capitalist.Wallet().Capital())
	assert.Equal(t, 50, role.Money().Value())

	_, err = role.Money().Deposit(5, resources.AddOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, capitalist.Wallet().Revenue())
	assert.Equal(t, 55, capitalist.Wallet().Revenue()+capitalist.Wallet().Capital())
}
