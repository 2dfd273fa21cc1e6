package engine

import (
	"fmt"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/world"
)

// TurnReport summarises what happened during one travel turn.
type TurnReport struct {
	Day      int            `json:"day"`
	From     world.Location `json:"from"`
	To       world.Location `json:"to"`
	Override *Override      `json:"override,omitempty"` // consumed on arrival
	Event    *Event         `json:"event,omitempty"`
	GameOver bool           `json:"game_over"`
	Score    int            `json:"score,omitempty"`
}

// Travel moves the player to dest and plays out the turn:
//
//  1. location changes and the day advances;
//  2. a fresh price board is drawn, then a pending high override for dest
//     (or failing that a low one) forces its commodity's price;
//  3. a random event may fire;
//  4. reaching the final day ends the game with cash as the score.
func Travel(r Rules, s State, dest world.Location, src entropy.Source) (State, TurnReport, error) {
	if err := s.playable(); err != nil {
		return s, TurnReport{}, err
	}
	if !dest.Valid() {
		return s, TurnReport{}, fmt.Errorf("%w: %q", world.ErrUnknownLocation, dest)
	}
	if dest == s.Location {
		return s, TurnReport{}, ErrSameLocation
	}

	next := s.Clone()
	next.Location = dest
	next.Day++
	next.LastEvent = nil
	report := TurnReport{Day: next.Day, From: s.Location, To: dest}

	next.Prices = economy.GenerateAll(src, r.PriceModel)
	if o, ok := next.consume(High, dest); ok {
		next.Prices = next.Prices.With(o.Commodity, o.Price())
		report.Override = &o
	} else if o, ok := next.consume(Low, dest); ok {
		next.Prices = next.Prices.With(o.Commodity, o.Price())
		report.Override = &o
	}

	if ev, ok := SelectEvent(r, next, src); ok {
		next = ApplyEvent(r, next, ev)
		report.Event = &ev
	}

	if next.Day >= r.Days {
		next.Over = true
		next.Offer = nil
		report.GameOver = true
		report.Score = next.Score()
	}
	return next, report, nil
}
