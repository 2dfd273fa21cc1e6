package engine

import (
	"errors"
	"maps"
	"slices"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/world"
)

// Validation failures. None of them change state.
var (
	ErrNotEnoughCash  = errors.New("not enough cash")
	ErrNotEnoughStash = errors.New("not enough stash")
	ErrInventoryFull  = errors.New("inventory limit reached")
	ErrGameOver       = errors.New("game is over")
	ErrOfferPending   = errors.New("accept or decline the upgrade offer first")
	ErrNoOffer        = errors.New("no upgrade offer open")
	ErrSameLocation   = errors.New("already in that location")
)

// OverrideKind tags a scheduled price override.
type OverrideKind string

const (
	High OverrideKind = "high" // buyers pay max * 1.5
	Low  OverrideKind = "low"  // stash sells at floor(min * 0.5)
)

// Override forces one commodity's price on the next arrival at Location.
type Override struct {
	Kind      OverrideKind      `json:"kind"`
	Commodity economy.Commodity `json:"commodity"`
	Location  world.Location    `json:"location"`
}

// Price returns the forced price for the override's commodity.
func (o Override) Price() int {
	r, _ := economy.RangeOf(o.Commodity)
	if o.Kind == High {
		return r.HighPrice()
	}
	return r.LowPrice()
}

// UpgradeOffer is an open proposal to buy more stash capacity.
type UpgradeOffer struct {
	Price    int `json:"price"`
	Capacity int `json:"capacity"` // units added on accept
}

// State is everything a single game tracks.
type State struct {
	Cash      int                       `json:"cash"`
	Day       int                       `json:"day"`
	Location  world.Location            `json:"location"`
	Inventory map[economy.Commodity]int `json:"inventory"`
	Capacity  int                       `json:"capacity"`
	Upgrades  int                       `json:"upgrades"`
	Prices    economy.Prices            `json:"prices"`
	Overrides []Override                `json:"overrides,omitempty"` // at most one per kind
	Offer     *UpgradeOffer             `json:"offer,omitempty"`
	Over      bool                      `json:"over"`
	LastEvent *Event                    `json:"last_event,omitempty"`
}

// NewGame returns the opening state with a freshly generated price board.
func NewGame(r Rules, src entropy.Source) State {
	inv := make(map[economy.Commodity]int, 6)
	for _, c := range economy.Commodities() {
		inv[c] = 0
	}
	return State{
		Cash:      r.StartCash,
		Day:       1,
		Location:  world.Start,
		Inventory: inv,
		Capacity:  r.StartCapacity,
		Prices:    economy.GenerateAll(src, r.PriceModel),
	}
}

// Clone returns a deep copy so transitions never alias the caller's state.
func (s State) Clone() State {
	out := s
	out.Inventory = maps.Clone(s.Inventory)
	if out.Inventory == nil {
		out.Inventory = map[economy.Commodity]int{}
	}
	out.Prices = slices.Clone(s.Prices)
	out.Overrides = slices.Clone(s.Overrides)
	if s.Offer != nil {
		offer := *s.Offer
		out.Offer = &offer
	}
	if s.LastEvent != nil {
		ev := *s.LastEvent
		out.LastEvent = &ev
	}
	return out
}

// Held returns the total units across all commodities.
func (s State) Held() int {
	total := 0
	for _, n := range s.Inventory {
		total += n
	}
	return total
}

// FreeSpace returns how many more units fit in the stash.
func (s State) FreeSpace() int {
	return s.Capacity - s.Held()
}

// Score is the final result: cash on hand.
func (s State) Score() int {
	return s.Cash
}

// PendingOverride returns the scheduled override of the given kind, if any.
func (s State) PendingOverride(kind OverrideKind) (Override, bool) {
	for _, o := range s.Overrides {
		if o.Kind == kind {
			return o, true
		}
	}
	return Override{}, false
}

// schedule registers o, replacing any override of the same kind.
func (s *State) schedule(o Override) {
	s.Overrides = slices.DeleteFunc(s.Overrides, func(x Override) bool { return x.Kind == o.Kind })
	s.Overrides = append(s.Overrides, o)
}

// consume removes and returns the override of kind targeting loc.
func (s *State) consume(kind OverrideKind, loc world.Location) (Override, bool) {
	for i, o := range s.Overrides {
		if o.Kind == kind && o.Location == loc {
			s.Overrides = slices.Delete(s.Overrides, i, i+1)
			return o, true
		}
	}
	return Override{}, false
}

// playable rejects moves once the game has ended or while an offer waits.
func (s State) playable() error {
	if s.Over {
		return ErrGameOver
	}
	if s.Offer != nil {
		return ErrOfferPending
	}
	return nil
}
