package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Journal categories.
const (
	CategoryTravel   = "travel"
	CategoryMarket   = "market"
	CategoryEvent    = "event"
	CategoryUpgrade  = "upgrade"
	CategoryGameOver = "game_over"
)

// Entry is a notable happening in a game.
type Entry struct {
	Day         int    `json:"day" db:"day"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"`
}

func overrideNote(o Override) string {
	if o.Kind == High {
		return fmt.Sprintf("%s buyers in %s paid $%s", o.Commodity, o.Location, humanize.Comma(int64(o.Price())))
	}
	return fmt.Sprintf("cheap %s in %s at $%s", o.Commodity, o.Location, humanize.Comma(int64(o.Price())))
}

func scoreNote(score int) string {
	return fmt.Sprintf("game over with $%s", humanize.Comma(int64(score)))
}
