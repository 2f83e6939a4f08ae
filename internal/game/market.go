package game

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// MaxImportCount caps a single foreign market purchase.
const MaxImportCount = 99

var (
	// ErrImportCount is returned for purchase counts outside 1..MaxImportCount.
	ErrImportCount = errors.New("invalid import count")
	// ErrOutOfStock is returned when the round's foreign market card has too
	// few units of a good left.
	ErrOutOfStock = errors.New("foreign market out of stock")
)

// foreignBasePrice is the unit price of imports the round's foreign market
// card does not price.
var foreignBasePrice = map[cards.Good]int{
	cards.GoodFood:       10,
	cards.GoodLuxury:     6,
	cards.GoodHealthcare: 8,
	cards.GoodEducation:  8,
}

// foreignTariff is the per-unit tariff indexed by the foreign trade policy.
var foreignTariff = [3]map[cards.Good]int{
	rules.PolicyA: {cards.GoodFood: 5, cards.GoodLuxury: 6, cards.GoodHealthcare: 5, cards.GoodEducation: 5},
	rules.PolicyB: {cards.GoodFood: 3, cards.GoodLuxury: 3, cards.GoodHealthcare: 2, cards.GoodEducation: 2},
	rules.PolicyC: {},
}

// BuyOptions tunes a foreign market purchase.
type BuyOptions struct {
	PayTariff bool
}

// Tariff returns the per-unit tariff currently levied on a good.
func (g *Game) Tariff(good cards.Good) int {
	return foreignTariff[g.state.Board.Policy(rules.PolicyForeignTrade)][good]
}

// ForeignMarketOffer returns the unit price of a good before tariffs and, when
// the round's foreign market card covers the good, the units left on it.
func (g *Game) ForeignMarketOffer(good cards.Good) (price, stock int, limited bool, err error) {
	board := g.state.Board
	if board.ForeignMarketCard != "" {
		card, err := board.ForeignMarketCards.Original(board.ForeignMarketCard)
		if err != nil {
			return 0, 0, false, err
		}
		if offer, ok := card.OfferFor(good); ok {
			return offer.Price, board.ForeignMarketStock[good], true, nil
		}
	}
	price, ok := foreignBasePrice[good]
	if !ok {
		return 0, 0, false, fmt.Errorf("%s is not sold on the foreign market", good)
	}
	return price, 0, false, nil
}

// ForeignMarketCost returns what count units of good cost on the foreign market.
func (g *Game) ForeignMarketCost(good cards.Good, count int, opts BuyOptions) (int, error) {
	if count < 1 || count > MaxImportCount {
		return 0, fmt.Errorf("%w: %d %s", ErrImportCount, count, good)
	}
	unit, _, _, err := g.ForeignMarketOffer(good)
	if err != nil {
		return 0, err
	}
	if opts.PayTariff {
		unit += g.Tariff(good)
	}
	if unit > math.MaxInt/count {
		return 0, fmt.Errorf("%w: %d %s at %d overflows", ErrImportCount, count, good, unit)
	}
	return unit * count, nil
}

// BuyFromForeignMarket charges the buyer base price plus tariff per unit,
// credits the goods and pays the tariff to the state. Goods priced by the
// round's foreign market card come out of its stock. It returns the total
// charged.
func (g *Game) BuyFromForeignMarket(role string, good cards.Good, count int, opts BuyOptions) (int, error) {
	buyer, ok := g.state.Roles[role]
	if !ok {
		return 0, fmt.Errorf("role %q: %w", role, ErrNotFound)
	}
	stock, ok := buyer.Goods(good)
	if !ok {
		return 0, fmt.Errorf("%s cannot hold %s", role, good)
	}
	cost, err := g.ForeignMarketCost(good, count, opts)
	if err != nil {
		return 0, err
	}
	base, left, limited, err := g.ForeignMarketOffer(good)
	if err != nil {
		return 0, err
	}
	if limited && count > left {
		return 0, fmt.Errorf("%w: %d %s wanted, %d left", ErrOutOfStock, count, good, left)
	}

	if err := buyer.Pay(cost, resources.RemoveOptions{}); err != nil {
		return 0, err
	}
	if _, err := stock.Add(count); err != nil {
		return 0, err
	}
	if limited {
		g.state.Board.ForeignMarketStock[good] = left - count
	}
	if tariff := cost - base*count; tariff > 0 && role != RoleState {
		if err := g.state.Roles[RoleState].Earn(tariff); err != nil {
			return 0, err
		}
	}
	return cost, nil
}

// BuyCompany takes a company card from the owner's market and puts it in play.
func (g *Game) BuyCompany(owner CompanyOwner, cardID string) (*Company, error) {
	market, ok := g.state.Board.CompanyCards[owner.Name()]
	if !ok {
		return nil, fmt.Errorf("%s cannot own companies", owner.Name())
	}
	def, err := market.Seek(cardID)
	if err != nil {
		return nil, err
	}
	if err := owner.Pay(def.Cost, resources.RemoveOptions{UseCapital: true}); err != nil {
		return nil, err
	}
	if _, err := market.DrawByID(cardID); err != nil {
		return nil, err
	}
	company := &Company{ID: def.ID, DefinitionID: def.ID, Owner: owner.Name(), Workers: []int{}, WageLevel: g.minimumWageLevel()}
	owner.addCompany(company)
	return company, nil
}

// MakeBusinessDeal buys an active business deal: the capitalist pays cost
// and tariff, receives the goods and the state collects the tariff.
func (g *Game) MakeBusinessDeal(c *Capitalist, cardID string) error {
	board := g.state.Board
	idx := slices.Index(board.BusinessDeals, cardID)
	if idx < 0 {
		return fmt.Errorf("business deal %q is not active: %w", cardID, ErrNotFound)
	}
	card, err := board.BusinessDealCards.Original(cardID)
	if err != nil {
		return err
	}
	stock, ok := c.Goods(card.Resource)
	if !ok {
		return fmt.Errorf("%s cannot hold %s", c.Name(), card.Resource)
	}
	if err := c.Pay(card.Cost+card.Tariff, resources.RemoveOptions{}); err != nil {
		return err
	}
	if _, err := stock.Add(card.Quantity); err != nil {
		return err
	}
	board.BusinessDeals = slices.Delete(board.BusinessDeals, idx, idx+1)
	return g.state.Roles[RoleState].Earn(card.Tariff)
}
