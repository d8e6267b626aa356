package combat

import (
	"fmt"
	"sync"
)

// Engine manages all active Combat encounters, keyed by combat ID.
//
// Each combat carries its own mutex, so mutations for the same combat apply
// one at a time in arrival order while different combats proceed fully in
// parallel. All Engine methods are safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	combats map[string]*managedCombat
}

type managedCombat struct {
	mu  sync.Mutex
	cbt *Combat
}

// NewEngine creates an empty combat Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{combats: make(map[string]*managedCombat)}
}

// Register adds a combat to the engine.
//
// Precondition: cbt must be non-nil with a non-empty ID.
// Postcondition: Returns an error if a combat with the same ID is already registered.
func (e *Engine) Register(cbt *Combat) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.combats[cbt.ID]; exists {
		return fmt.Errorf("combat %q already registered", cbt.ID)
	}
	e.combats[cbt.ID] = &managedCombat{cbt: cbt}
	return nil
}

// Mutate runs fn on the combat with the given ID while holding that combat's
// lock. This is the single-writer path: every state change to a combat goes
// through here.
//
// Precondition: fn must not retain the *Combat past its return.
// Postcondition: Returns ErrNotFound for an unknown combat ID, otherwise
// fn's error.
func (e *Engine) Mutate(combatID string, fn func(*Combat) error) error {
	e.mu.RLock()
	mc, ok := e.combats[combatID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: combat %q", ErrNotFound, combatID)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	return fn(mc.cbt)
}

// Snapshot returns a deep copy of the combat with the given ID, taken under
// the combat's lock. Reconnecting clients re-fetch this snapshot instead of
// relying on replayed events.
//
// Postcondition: Returns ErrNotFound for an unknown combat ID. Mutating the
// returned copy does not affect engine state.
func (e *Engine) Snapshot(combatID string) (*Combat, error) {
	e.mu.RLock()
	mc, ok := e.combats[combatID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: combat %q", ErrNotFound, combatID)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.cbt.Clone(), nil
}

// Remove drops the combat record for the given ID. Ended combats stay
// readable from storage; Remove only frees the live coordinator state.
//
// Postcondition: Snapshot(combatID) returns ErrNotFound.
func (e *Engine) Remove(combatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.combats, combatID)
}

// ActiveCount returns the number of combats currently registered.
func (e *Engine) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.combats)
}
