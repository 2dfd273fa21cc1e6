package engine

import (
	"log/slog"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/world"
)

// Engine drives one game: it owns the current State, feeds the pure
// transitions with its random source, and notifies listeners.
// Not safe for concurrent use; callers serialise access.
type Engine struct {
	Rules Rules
	Src   entropy.Source
	State State

	// Journal of notable happenings, oldest first.
	Journal []Entry

	// Callbacks, populated during setup.
	OnTurn     func(TurnReport) // after every successful travel
	OnEvent    func(Event)      // when a random event fires
	OnGameOver func(State)      // once, when the final day is reached
}

// NewEngine starts a fresh game.
func NewEngine(r Rules, src entropy.Source) *Engine {
	e := &Engine{Rules: r, Src: src}
	e.Restart()
	return e
}

// Restart discards the current game and deals a new one.
func (e *Engine) Restart() {
	e.State = NewGame(e.Rules, e.Src)
	e.Journal = nil
	e.record(Entry{Day: 1, Category: CategoryTravel, Description: "arrived in " + string(e.State.Location)})
}

// Travel plays one turn to dest.
func (e *Engine) Travel(dest world.Location) (TurnReport, error) {
	next, report, err := Travel(e.Rules, e.State, dest, e.Src)
	if err != nil {
		return report, err
	}
	e.State = next
	e.journalTurn(report)

	if e.OnTurn != nil {
		e.OnTurn(report)
	}
	if report.Event != nil && e.OnEvent != nil {
		e.OnEvent(*report.Event)
	}
	if report.GameOver {
		slog.Debug("game over", "score", report.Score, "day", report.Day)
		if e.OnGameOver != nil {
			e.OnGameOver(e.State)
		}
	}
	return report, nil
}

// Buy purchases qty units of c.
func (e *Engine) Buy(c economy.Commodity, qty int) (Trade, error) {
	next, trade, err := Buy(e.State, c, qty)
	if err == nil {
		e.State = next
	}
	return trade, err
}

// Sell disposes of qty units of c.
func (e *Engine) Sell(c economy.Commodity, qty int) (Trade, error) {
	next, trade, err := Sell(e.State, c, qty)
	if err == nil {
		e.State = next
	}
	return trade, err
}

// Answer accepts or declines the open upgrade offer.
func (e *Engine) Answer(accept bool) error {
	var (
		next State
		err  error
	)
	if accept {
		next, err = AcceptOffer(e.State)
	} else {
		next, err = DeclineOffer(e.State)
	}
	if err != nil {
		return err
	}
	if accept {
		e.record(Entry{Day: next.Day, Category: CategoryUpgrade, Description: "stash upgraded"})
	}
	e.State = next
	return nil
}

func (e *Engine) journalTurn(report TurnReport) {
	e.record(Entry{Day: report.Day, Category: CategoryTravel, Description: "arrived in " + string(report.To)})
	if report.Override != nil {
		e.record(Entry{Day: report.Day, Category: CategoryMarket, Description: overrideNote(*report.Override)})
	}
	if report.Event != nil {
		e.record(Entry{Day: report.Day, Category: CategoryEvent, Description: report.Event.Message})
	}
	if report.GameOver {
		e.record(Entry{Day: report.Day, Category: CategoryGameOver, Description: scoreNote(report.Score)})
	}
}

func (e *Engine) record(entry Entry) {
	e.Journal = append(e.Journal, entry)
}
