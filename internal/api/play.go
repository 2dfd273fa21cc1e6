package api

import (
	"errors"
	"fmt"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/engine"
	"github.com/talgya/blackmarket/internal/world"
)

type moveKind string

const (
	moveBuy    moveKind = "buy"
	moveSell   moveKind = "sell"
	moveTravel moveKind = "travel"
	moveOffer  moveKind = "offer"
)

var errBadMove = errors.New("bad move")

// moveRequest is the body of every move, over HTTP or WebSocket.
type moveRequest struct {
	Commodity   string `json:"commodity,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	Max         bool   `json:"max,omitempty"` // buy as many as affordable, or sell everything held
	Destination string `json:"destination,omitempty"`
	Accept      *bool  `json:"accept,omitempty"`
}

// gameView is what a client sees after every move.
type gameView struct {
	ID           string             `json:"id"`
	State        engine.State       `json:"state"`
	FreeSpace    int                `json:"free_space"`
	Destinations []world.Location   `json:"destinations"`
	Trade        *engine.Trade      `json:"trade,omitempty"`
	Turn         *engine.TurnReport `json:"turn,omitempty"`
}

// view snapshots g. Caller holds g.mu.
func (s *Server) view(g *game) gameView {
	st := g.eng.State.Clone()
	return gameView{
		ID:           g.id,
		State:        st,
		FreeSpace:    st.FreeSpace(),
		Destinations: world.Destinations(st.Location),
	}
}

// play applies one move to g under its lock and persists new journal entries.
func (s *Server) play(g *game, kind moveKind, req moveRequest) (gameView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer s.flushJournal(g)

	switch kind {
	case moveBuy, moveSell:
		c, err := economy.ParseCommodity(req.Commodity)
		if err != nil {
			return gameView{}, err
		}
		qty := req.Quantity
		var trade engine.Trade
		if kind == moveBuy {
			if req.Max {
				qty = engine.MaxBuy(g.eng.State, c)
			}
			trade, err = g.eng.Buy(c, qty)
		} else {
			if req.Max {
				qty = g.eng.State.Inventory[c]
			}
			trade, err = g.eng.Sell(c, qty)
		}
		if err != nil {
			return gameView{}, err
		}
		view := s.view(g)
		view.Trade = &trade
		return view, nil

	case moveTravel:
		dest, err := world.ParseLocation(req.Destination)
		if err != nil {
			return gameView{}, err
		}
		report, err := g.eng.Travel(dest)
		if err != nil {
			return gameView{}, err
		}
		view := s.view(g)
		view.Turn = &report
		return view, nil

	case moveOffer:
		if req.Accept == nil {
			return gameView{}, fmt.Errorf("%w: accept must be true or false", errBadMove)
		}
		if err := g.eng.Answer(*req.Accept); err != nil {
			return gameView{}, err
		}
		return s.view(g), nil
	}
	return gameView{}, fmt.Errorf("%w: unknown move %q", errBadMove, kind)
}
