package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/world"
)

// EventKind names a random market event.
type EventKind string

const (
	Crackdown    EventKind = "crackdown"
	Overdose     EventKind = "overdose"
	TechGlitch   EventKind = "tech_glitch"
	CrazyLow     EventKind = "crazy_low"
	HighDemand   EventKind = "high_demand"
	CheapStash   EventKind = "cheap_stash"
	StashUpgrade EventKind = "upgrade_offer"
)

// pool lists every event in selection order.
var pool = [...]EventKind{Crackdown, Overdose, TechGlitch, CrazyLow, HighDemand, CheapStash, StashUpgrade}

// Event is a fully drawn random event. Applying it needs no further randomness.
type Event struct {
	Kind      EventKind         `json:"kind"`
	Message   string            `json:"message"`
	Commodity economy.Commodity `json:"commodity,omitempty"`
	Location  world.Location    `json:"location,omitempty"`
	Amount    int               `json:"amount,omitempty"` // units lost, cash lost, or offer price
}

// Eligible returns the events that may fire from state s.
func Eligible(r Rules, s State) []EventKind {
	out := make([]EventKind, 0, len(pool))
	for _, k := range pool {
		if k == StashUpgrade && s.Upgrades >= r.MaxUpgrades {
			continue
		}
		out = append(out, k)
	}
	return out
}

// SelectEvent rolls for a random event and, when one fires, draws all of its
// parameters. It only reads s.
func SelectEvent(r Rules, s State, src entropy.Source) (Event, bool) {
	if !entropy.Chance(src, r.EventChance) {
		return Event{}, false
	}
	return DrawEvent(r, s, entropy.Pick(src, Eligible(r, s)), src), true
}

// DrawEvent fills in the random parameters for an event of the given kind.
func DrawEvent(r Rules, s State, kind EventKind, src entropy.Source) Event {
	ev := Event{Kind: kind}
	switch kind {
	case Crackdown:
		ev.Commodity = entropy.Pick(src, economy.Commodities())
		ev.Amount = entropy.Between(src, 1, r.StashPenaltyMax)
		ev.Message = "Government Crackdown! You lost some stash."
	case Overdose:
		ev.Amount = entropy.Between(src, 1, r.CashPenaltyMax)
		ev.Message = "Addict Overdose! You lost some cash."
	case TechGlitch:
		ev.Amount = entropy.Between(src, 1, r.CashPenaltyMax)
		ev.Message = "Tech Glitch! You lost some cash."
	case CrazyLow:
		ev.Commodity = entropy.Pick(src, economy.Commodities())
		ev.Message = fmt.Sprintf("%s is selling at crazy low rates!", ev.Commodity)
	case HighDemand:
		ev.Commodity = entropy.Pick(src, economy.Commodities())
		ev.Location = entropy.Pick(src, world.Destinations(s.Location))
		ev.Message = fmt.Sprintf("Addicts in %s will pay anything for %s!", ev.Location, ev.Commodity)
	case CheapStash:
		ev.Commodity = entropy.Pick(src, economy.Commodities())
		ev.Location = entropy.Pick(src, world.Destinations(s.Location))
		ev.Message = fmt.Sprintf("Go to %s for cheap %s. Limited stash!", ev.Location, ev.Commodity)
	case StashUpgrade:
		ev.Amount = entropy.Between(src, r.OfferMinPrice, r.OfferMaxPrice)
		ev.Message = fmt.Sprintf("A fixer offers %d more stash space for $%s. Deal?",
			r.UpgradeStep, humanize.Comma(int64(ev.Amount)))
	}
	return ev
}

// ApplyEvent returns s with the event's effect applied.
func ApplyEvent(r Rules, s State, ev Event) State {
	next := s.Clone()
	switch ev.Kind {
	case Crackdown:
		next.Inventory[ev.Commodity] = max(0, next.Inventory[ev.Commodity]-ev.Amount)
	case Overdose, TechGlitch:
		next.Cash = max(0, next.Cash-ev.Amount)
	case CrazyLow:
		if rng, ok := economy.RangeOf(ev.Commodity); ok {
			next.Prices = next.Prices.With(ev.Commodity, rng.LowPrice())
		}
	case HighDemand:
		next.schedule(Override{Kind: High, Commodity: ev.Commodity, Location: ev.Location})
	case CheapStash:
		next.schedule(Override{Kind: Low, Commodity: ev.Commodity, Location: ev.Location})
	case StashUpgrade:
		next.Offer = &UpgradeOffer{Price: ev.Amount, Capacity: r.UpgradeStep}
	}
	next.LastEvent = &ev
	return next
}
