package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/blackmarket/internal/engine"
)

// game is one hosted session. mu serialises every move on it.
type game struct {
	mu     sync.Mutex
	id     string
	eng    *engine.Engine
	saved  int  // journal entries already persisted
	scored bool // leaderboard entry submitted

	touched time.Time // guarded by registry.mu
}

func newGame(eng *engine.Engine) *game {
	return &game{id: uuid.NewString(), eng: eng, touched: time.Now()}
}

// registry holds live games, evicting the least recently used past max.
type registry struct {
	mu    sync.Mutex
	games map[string]*game
	max   int
}

func newRegistry(max int) *registry {
	if max < 1 {
		max = 1
	}
	return &registry{games: make(map[string]*game), max: max}
}

// add stores g and returns the id of any game evicted to make room.
func (r *registry) add(g *game) (evicted string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.games) >= r.max {
		var oldest *game
		for _, candidate := range r.games {
			if oldest == nil || candidate.touched.Before(oldest.touched) {
				oldest = candidate
			}
		}
		delete(r.games, oldest.id)
		evicted = oldest.id
	}
	g.touched = time.Now()
	r.games[g.id] = g
	return evicted
}

func (r *registry) get(id string) (*game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if ok {
		g.touched = time.Now()
	}
	return g, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	delete(r.games, id)
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}
