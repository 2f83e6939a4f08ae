package deck

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a card id is unknown or no longer available.
	ErrNotFound = errors.New("card not found")
	// ErrNoMoreCards is returned when drawing from an empty deck.
	ErrNoMoreCards = errors.New("no more cards")
	// ErrDuplicateCard is returned when a deck is built with a repeated id.
	ErrDuplicateCard = errors.New("duplicate card id")
)

// Card is anything with a stable unique id.
type Card interface {
	CardID() string
}

// Shuffler randomizes n elements through swap. *math/rand/v2.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Deck is an ordered, shuffle-able collection of immutable cards.
//
// The original card list and the allCards lookup never change; draws only
// affect the available map and the draw order.
type Deck[C Card] struct {
	cards     []C
	allCards  map[string]C
	available map[string]C
	order     []string
}

// New builds a deck in the given order. Cards are drawn from the end of the list.
func New[C Card](cards []C) (*Deck[C], error) {
	all := make(map[string]C, len(cards))
	for _, card := range cards {
		id := card.CardID()
		if _, exists := all[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, id)
		}
		all[id] = card
	}

	d := &Deck[C]{
		cards:    append([]C(nil), cards...),
		allCards: all,
	}
	d.reset()
	return d, nil
}

// MustNew is New for static card data.
func MustNew[C Card](cards []C) *Deck[C] {
	d, err := New(cards)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Deck[C]) reset() {
	d.available = make(map[string]C, len(d.cards))
	d.order = make([]string, 0, len(d.cards))
	for _, card := range d.cards {
		d.available[card.CardID()] = card
		d.order = append(d.order, card.CardID())
	}
}

// Size returns the number of undrawn cards.
func (d *Deck[C]) Size() int {
	return len(d.order)
}

// Cards returns the original card definitions in their original order.
func (d *Deck[C]) Cards() []C {
	return append([]C(nil), d.cards...)
}

// Order returns a copy of the current draw order (next draw is last).
func (d *Deck[C]) Order() []string {
	return append([]string(nil), d.order...)
}

// Original returns a card definition regardless of draw state.
func (d *Deck[C]) Original(id string) (C, error) {
	card, ok := d.allCards[id]
	if !ok {
		var zero C
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return card, nil
}

// OriginalSafe is Original without the error: ok is false for unknown ids.
func (d *Deck[C]) OriginalSafe(id string) (C, bool) {
	card, ok := d.allCards[id]
	return card, ok
}

// Seek returns a card that is still in the deck without removing it.
func (d *Deck[C]) Seek(id string) (C, error) {
	card, ok := d.available[id]
	if !ok {
		var zero C
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return card, nil
}

// SeekSafe is Seek without the error.
func (d *Deck[C]) SeekSafe(id string) (C, bool) {
	card, ok := d.available[id]
	return card, ok
}

// Shuffle randomizes the draw order. A nil shuffler leaves the order as is,
// which is what deterministic games rely on.
func (d *Deck[C]) Shuffle(s Shuffler) {
	if s == nil {
		return
	}
	s.Shuffle(len(d.order), func(i, j int) {
		d.order[i], d.order[j] = d.order[j], d.order[i]
	})
}

// Draw removes and returns the card at the end of the draw order.
func (d *Deck[C]) Draw() (C, error) {
	if len(d.order) == 0 {
		var zero C
		return zero, ErrNoMoreCards
	}
	last := len(d.order) - 1
	id := d.order[last]
	d.order = d.order[:last]

	card := d.available[id]
	delete(d.available, id)
	return card, nil
}

// DrawByID removes a specific card from the deck.
func (d *Deck[C]) DrawByID(id string) (C, error) {
	for idx, candidate := range d.order {
		if candidate != id {
			continue
		}
		d.order = append(d.order[:idx], d.order[idx+1:]...)
		card := d.available[id]
		delete(d.available, id)
		return card, nil
	}
	var zero C
	return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Clone returns a fresh deck over the same card list with a reset draw order.
func (d *Deck[C]) Clone() *Deck[C] {
	clone := &Deck[C]{
		cards:    d.cards,
		allCards: d.allCards,
	}
	clone.reset()
	return clone
}

// MarshalJSON exposes the draw state; card definitions are static data.
func (d *Deck[C]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Size  int      `json:"size"`
		Order []string `json:"order"`
	}{len(d.order), d.order})
}
