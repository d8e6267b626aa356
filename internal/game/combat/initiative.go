package combat

import (
	"fmt"
	"sort"
)

// Initiative bounds for player-facing rolls, matching the d20+bonus range the
// sheet UI accepts.
const (
	InitiativeMin = 1
	InitiativeMax = 30
)

// RollInitiative records the initial initiative roll for a participant.
// Re-rolling through this path is rejected; use ForceInitiative for GM
// corrections. When the last outstanding roll lands, the turn order is
// resolved and the combat transitions to StatusInProgress.
//
// Precondition: value must be in [InitiativeMin, InitiativeMax].
// Postcondition: Returns (complete, nil) on success where complete reports
// that the order was resolved by this roll. On ErrAlreadyRolled the stored
// value is unchanged.
func (c *Combat) RollInitiative(participantID string, value int) (bool, error) {
	if c.Status != StatusAwaitingInitiative {
		return false, fmt.Errorf("%w: cannot roll initiative while combat is %s", ErrInvalidCombatState, c.Status)
	}
	if value < InitiativeMin || value > InitiativeMax {
		return false, fmt.Errorf("%w: initiative must be in [%d, %d], got %d", ErrValidation, InitiativeMin, InitiativeMax, value)
	}
	p, ok := c.Participant(participantID)
	if !ok {
		return false, fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}
	if p.Rolled {
		return false, fmt.Errorf("%w: participant %q already rolled %d", ErrAlreadyRolled, participantID, p.Initiative)
	}

	p.Initiative = value
	p.Rolled = true

	if !c.allRolled() {
		return false, nil
	}
	c.resolveOrder()
	return true, nil
}

// ForceInitiative sets a participant's initiative regardless of whether it was
// already rolled. This is the GM-only correction path. While awaiting
// initiative it behaves like a roll (and may complete the order); once in
// progress the order is re-resolved and the turn cursor is kept on the same
// slot index.
//
// Precondition: value must be in [InitiativeMin, InitiativeMax].
// Postcondition: Returns ErrInvalidCombatState when the combat has ended.
func (c *Combat) ForceInitiative(participantID string, value int) (bool, error) {
	if c.Status == StatusEnded {
		return false, fmt.Errorf("%w: combat already ended", ErrInvalidCombatState)
	}
	if value < InitiativeMin || value > InitiativeMax {
		return false, fmt.Errorf("%w: initiative must be in [%d, %d], got %d", ErrValidation, InitiativeMin, InitiativeMax, value)
	}
	p, ok := c.Participant(participantID)
	if !ok {
		return false, fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}

	p.Initiative = value
	p.Rolled = true

	if c.Status == StatusInProgress {
		c.reorder()
		return false, nil
	}
	if !c.allRolled() {
		return false, nil
	}
	c.resolveOrder()
	return true, nil
}

// allRolled reports whether every participant has a recorded initiative.
func (c *Combat) allRolled() bool {
	if len(c.Participants) == 0 {
		return false
	}
	for _, p := range c.Participants {
		if !p.Rolled {
			return false
		}
	}
	return true
}

// resolveOrder computes the initiative order and starts the first round.
//
// Precondition: allRolled() must be true.
// Postcondition: Status is StatusInProgress, TurnIndex is 0, Round is 1, and
// Order holds every participant ID sorted by initiative descending with ties
// preserving insertion order.
func (c *Combat) resolveOrder() {
	c.reorder()
	c.Status = StatusInProgress
	c.TurnIndex = 0
	c.Round = 1
}

// reorder rebuilds Order from the current initiative values. The sort is
// stable so that equal initiatives keep roster insertion order.
func (c *Combat) reorder() {
	ids := make([]string, 0, len(c.Participants))
	byID := make(map[string]*Participant, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return byID[ids[i]].Initiative > byID[ids[j]].Initiative
	})
	c.Order = ids
	if c.TurnIndex >= len(c.Order) {
		c.TurnIndex = 0
	}
}
