package combat

import (
	"fmt"

	"github.com/chronique-jdr/chronique/internal/game/condition"
)

// Transition classifies the HP threshold crossed by an update, if any.
type Transition int

const (
	// TransitionNone means no threshold was crossed.
	TransitionNone Transition = iota
	// TransitionKO means HPCurrent reached 0 from a positive value without
	// the lethal flag.
	TransitionKO
	// TransitionDied means HPCurrent reached 0 from a positive value and the
	// caller declared the damage lethal. The server never infers death.
	TransitionDied
	// TransitionRevived means HPCurrent left 0 for a positive value.
	TransitionRevived
)

// HPUpdate describes one hit point mutation. Exactly one of Delta or Absolute
// drives the update: when Absolute is non-nil it replaces the pool value,
// otherwise Delta is applied.
type HPUpdate struct {
	// Delta is a signed adjustment to the pool.
	Delta int
	// Absolute, when non-nil, sets the pool directly.
	Absolute *int
	// AffectsTemp routes a positive adjustment into the temporary buffer
	// instead of the HP pool.
	AffectsTemp bool
	// Lethal is caller-declared intent: damage dropping the participant to 0
	// emits a death instead of a knockout.
	Lethal bool
}

// HPResult reports the outcome of an applied HPUpdate.
type HPResult struct {
	ParticipantID string
	HPCurrent     int
	HPMax         int
	TempHP        int
	Transition    Transition
}

// ApplyHP applies an HPUpdate to the participant's pools.
//
// Damage (a negative delta) depletes TempHP before touching HPCurrent.
// The HP pool is clamped to [0, HPMax] whatever the magnitude or sign of the
// request; the temporary buffer is clamped at >= 0 with no ceiling.
//
// Postcondition: 0 <= HPCurrent <= HPMax and TempHP >= 0. The returned
// Transition reflects crossing the zero boundary in either direction.
func (c *Combat) ApplyHP(participantID string, upd HPUpdate) (HPResult, error) {
	if c.Status == StatusEnded {
		return HPResult{}, fmt.Errorf("%w: combat already ended", ErrInvalidCombatState)
	}
	p, ok := c.Participant(participantID)
	if !ok {
		return HPResult{}, fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}

	before := p.HPCurrent

	switch {
	case upd.Absolute != nil:
		if upd.AffectsTemp {
			p.TempHP = max(*upd.Absolute, 0)
		} else {
			p.HPCurrent = clampHP(*upd.Absolute, p.HPMax)
		}
	case upd.AffectsTemp && upd.Delta > 0:
		// Granting temporary hit points never touches the pool.
		p.TempHP += upd.Delta
	case upd.Delta < 0:
		absorbed := min(-upd.Delta, p.TempHP)
		p.TempHP -= absorbed
		p.HPCurrent = clampHP(p.HPCurrent+upd.Delta+absorbed, p.HPMax)
	default:
		p.HPCurrent = clampHP(p.HPCurrent+upd.Delta, p.HPMax)
	}

	tr := TransitionNone
	switch {
	case before > 0 && p.HPCurrent == 0 && upd.Lethal:
		tr = TransitionDied
	case before > 0 && p.HPCurrent == 0:
		tr = TransitionKO
	case before == 0 && p.HPCurrent > 0:
		tr = TransitionRevived
	}

	return HPResult{
		ParticipantID: p.ID,
		HPCurrent:     p.HPCurrent,
		HPMax:         p.HPMax,
		TempHP:        p.TempHP,
		Transition:    tr,
	}, nil
}

// AddCondition attaches a status effect to the participant. Re-adding a
// condition with an ID already present replaces it.
//
// Postcondition: Returns ErrNotFound for an unknown participant; otherwise
// the condition is present in the participant's set.
func (c *Combat) AddCondition(participantID string, cond condition.Condition) error {
	if c.Status == StatusEnded {
		return fmt.Errorf("%w: combat already ended", ErrInvalidCombatState)
	}
	if err := cond.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	p, ok := c.Participant(participantID)
	if !ok {
		return fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}
	p.Conditions.Add(cond)
	return nil
}

// RemoveCondition detaches a status effect. Removing an absent condition is a
// no-op; only an unknown participant is an error.
//
// Postcondition: the participant's set no longer contains conditionID.
func (c *Combat) RemoveCondition(participantID, conditionID string) error {
	if c.Status == StatusEnded {
		return fmt.Errorf("%w: combat already ended", ErrInvalidCombatState)
	}
	p, ok := c.Participant(participantID)
	if !ok {
		return fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}
	p.Conditions.Remove(conditionID)
	return nil
}

// clampHP bounds a pool value to [0, maxHP].
func clampHP(v, maxHP int) int {
	if v < 0 {
		return 0
	}
	if v > maxHP {
		return maxHP
	}
	return v
}
