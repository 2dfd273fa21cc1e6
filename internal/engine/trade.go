package engine

import (
	"fmt"

	"github.com/talgya/blackmarket/internal/economy"
)

// Trade describes an executed buy or sell.
type Trade struct {
	Commodity economy.Commodity `json:"commodity"`
	Quantity  int               `json:"quantity"`
	Price     int               `json:"price"`
	Total     int               `json:"total"`
}

// quote looks up today's price for c.
func (s State) quote(c economy.Commodity) (int, error) {
	price, ok := s.Prices.Of(c)
	if !ok {
		return 0, fmt.Errorf("%w: %q", economy.ErrUnknownCommodity, c)
	}
	return price, nil
}

// Buy purchases qty units of c at today's price. A quantity below one is a
// no-op. Cash is checked before capacity; a failed check leaves s untouched.
func Buy(s State, c economy.Commodity, qty int) (State, Trade, error) {
	if err := s.playable(); err != nil {
		return s, Trade{}, err
	}
	price, err := s.quote(c)
	if err != nil {
		return s, Trade{}, err
	}
	if qty < 1 {
		return s, Trade{Commodity: c, Price: price}, nil
	}

	// Compare by division so a huge qty cannot wrap cost or held stock.
	if price > 0 && qty > s.Cash/price {
		return s, Trade{}, ErrNotEnoughCash
	}
	if qty > s.FreeSpace() {
		return s, Trade{}, ErrInventoryFull
	}
	cost := price * qty

	next := s.Clone()
	next.Cash -= cost
	next.Inventory[c] += qty
	return next, Trade{Commodity: c, Quantity: qty, Price: price, Total: cost}, nil
}

// Sell disposes of qty units of c at today's price. A quantity below one is
// a no-op.
func Sell(s State, c economy.Commodity, qty int) (State, Trade, error) {
	if err := s.playable(); err != nil {
		return s, Trade{}, err
	}
	price, err := s.quote(c)
	if err != nil {
		return s, Trade{}, err
	}
	if qty < 1 {
		return s, Trade{Commodity: c, Price: price}, nil
	}
	if s.Inventory[c] < qty {
		return s, Trade{}, ErrNotEnoughStash
	}

	proceeds := price * qty
	next := s.Clone()
	next.Cash += proceeds
	next.Inventory[c] -= qty
	return next, Trade{Commodity: c, Quantity: qty, Price: price, Total: proceeds}, nil
}

// MaxBuy returns the largest quantity of c that is both affordable and fits.
func MaxBuy(s State, c economy.Commodity) int {
	price, err := s.quote(c)
	if err != nil || price <= 0 {
		return 0
	}
	n := s.Cash / price
	if free := s.FreeSpace(); n > free {
		n = free
	}
	if n < 0 {
		return 0
	}
	return n
}
