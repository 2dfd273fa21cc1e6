// Package engine runs the trading game: the player's state, the travel turn
// with its price resolution and random market events, trades, and the stash
// upgrade offer. Transitions take a State value and return a new one; the
// input is never modified.
package engine

import (
	"fmt"

	"github.com/talgya/blackmarket/internal/economy"
)

// Rules are the tunable constants of a game.
type Rules struct {
	StartCash       int                `yaml:"start_cash" json:"start_cash"`
	Days            int                `yaml:"days" json:"days"`
	StartCapacity   int                `yaml:"start_capacity" json:"start_capacity"`
	UpgradeStep     int                `yaml:"upgrade_step" json:"upgrade_step"`
	MaxUpgrades     int                `yaml:"max_upgrades" json:"max_upgrades"`
	OfferMinPrice   int                `yaml:"offer_min_price" json:"offer_min_price"`
	OfferMaxPrice   int                `yaml:"offer_max_price" json:"offer_max_price"`
	EventChance     float64            `yaml:"event_chance" json:"event_chance"`
	CashPenaltyMax  int                `yaml:"cash_penalty_max" json:"cash_penalty_max"`
	StashPenaltyMax int                `yaml:"stash_penalty_max" json:"stash_penalty_max"`
	PriceModel      economy.PriceModel `yaml:"price_model" json:"price_model"`
}

// DefaultRules returns the standard 30-day game.
func DefaultRules() Rules {
	return Rules{
		StartCash:       2500,
		Days:            30,
		StartCapacity:   100,
		UpgradeStep:     50,
		MaxUpgrades:     3,
		OfferMinPrice:   250,
		OfferMaxPrice:   800,
		EventChance:     0.3,
		CashPenaltyMax:  300,
		StashPenaltyMax: 5,
		PriceModel:      economy.Biased,
	}
}

// Validate rejects rule sets that cannot produce a playable game.
func (r Rules) Validate() error {
	switch {
	case r.StartCash < 0:
		return fmt.Errorf("start_cash must not be negative, got %d", r.StartCash)
	case r.Days < 2:
		return fmt.Errorf("days must be at least 2, got %d", r.Days)
	case r.StartCapacity < 1:
		return fmt.Errorf("start_capacity must be positive, got %d", r.StartCapacity)
	case r.UpgradeStep < 0 || r.MaxUpgrades < 0:
		return fmt.Errorf("upgrade_step and max_upgrades must not be negative")
	case r.OfferMinPrice < 0 || r.OfferMaxPrice < r.OfferMinPrice:
		return fmt.Errorf("offer price range [%d, %d] is invalid", r.OfferMinPrice, r.OfferMaxPrice)
	case r.EventChance < 0 || r.EventChance > 1:
		return fmt.Errorf("event_chance must be within [0, 1], got %v", r.EventChance)
	case r.CashPenaltyMax < 1 || r.StashPenaltyMax < 1:
		return fmt.Errorf("penalty maxima must be positive")
	}
	if _, err := economy.ParsePriceModel(string(r.PriceModel)); err != nil {
		return err
	}
	return nil
}
