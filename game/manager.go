package game

import (
	cmap "github.com/orcaman/concurrent-map"
)

// Arena keeps one engine per room so several rooms can play at once without
// a global game. Engines are created on first use.
type Arena struct {
	engines cmap.ConcurrentMap
	opts    []EngineOption
}

// NewArena applies opts to every engine it creates. Pass WithSourceFactory
// rather than WithRandSource so engines do not share a source.
func NewArena(opts ...EngineOption) *Arena {
	return &Arena{
		engines: cmap.New(),
		opts:    opts,
	}
}

// Engine returns the engine for the room, creating it if needed.
func (a *Arena) Engine(roomID string) *Engine {
	v := a.engines.Upsert(roomID, nil, func(exist bool, valueInMap interface{}, _ interface{}) interface{} {
		if exist {
			return valueInMap
		}
		return NewEngine(a.opts...)
	})
	return v.(*Engine)
}

// Lookup returns the room's engine without creating one.
func (a *Arena) Lookup(roomID string) (*Engine, bool) {
	v, ok := a.engines.Get(roomID)
	if !ok {
		return nil, false
	}
	return v.(*Engine), true
}

func (a *Arena) StartGame(roomID string, playerIDs []string) (TexasHoldemGame, error) {
	return a.Engine(roomID).StartGame(roomID, playerIDs)
}

// EndGame ends the room's game and forgets its engine. Idempotent.
func (a *Arena) EndGame(roomID string) {
	if v, ok := a.engines.Pop(roomID); ok {
		v.(*Engine).EndGame()
	}
}

func (a *Arena) Count() int {
	return a.engines.Count()
}

func (a *Arena) RoomIDs() []string {
	return a.engines.Keys()
}
