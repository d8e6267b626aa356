// Package combat implements the turn-order and initiative coordinator for
// campaign encounters: the participant roster, initiative resolution, the
// turn/round sequencer, and the HP/condition ledger.
//
// A Combat value is not safe for concurrent use. All mutations must go
// through the Engine, which serialises them per combat.
package combat

import (
	"fmt"

	"github.com/chronique-jdr/chronique/internal/game/condition"
)

// Kind distinguishes player-character participants from enemy instances.
type Kind int

const (
	KindPlayerCharacter Kind = iota
	KindEnemyInstance
)

// String returns the storage identifier for the Kind.
func (k Kind) String() string {
	switch k {
	case KindPlayerCharacter:
		return "player_character"
	case KindEnemyInstance:
		return "enemy_instance"
	default:
		return "unknown"
	}
}

// ParseKind converts a storage identifier back into a Kind.
//
// Postcondition: Returns an error for any string String() does not produce.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "player_character":
		return KindPlayerCharacter, nil
	case "enemy_instance":
		return KindEnemyInstance, nil
	default:
		return 0, fmt.Errorf("%w: unknown participant kind %q", ErrValidation, s)
	}
}

// Status is the combat lifecycle state.
type Status int

const (
	// StatusAwaitingInitiative is the initial state: roster is open and
	// initiative rolls are being collected.
	StatusAwaitingInitiative Status = iota
	// StatusInProgress means the turn order is resolved and the sequencer
	// is live.
	StatusInProgress
	// StatusEnded is terminal.
	StatusEnded
)

// String returns the storage identifier for the Status.
func (s Status) String() string {
	switch s {
	case StatusAwaitingInitiative:
		return "awaiting_initiative"
	case StatusInProgress:
		return "in_progress"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ParseStatus converts a storage identifier back into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "awaiting_initiative":
		return StatusAwaitingInitiative, nil
	case "in_progress":
		return StatusInProgress, nil
	case "ended":
		return StatusEnded, nil
	default:
		return 0, fmt.Errorf("%w: unknown combat status %q", ErrValidation, s)
	}
}

// Participant is one combat-tracked actor: a player's character or an enemy
// instance. A Participant belongs to exactly one Combat.
type Participant struct {
	// ID uniquely identifies the participant within its combat.
	ID string
	// Kind distinguishes player characters from enemy instances.
	Kind Kind
	// DisplayName is the name shown in the tracker.
	DisplayName string
	// CharacterID links a player participant to its character sheet (0 for enemies).
	CharacterID int64
	// OwnerAccountID is the account allowed to roll for this participant
	// besides the GM (0 when only the GM may act, i.e. enemies).
	OwnerAccountID int64
	// HPCurrent is the current hit point pool. Never negative.
	HPCurrent int
	// HPMax is the hit point ceiling. Always > 0.
	HPMax int
	// TempHP is a separate buffer depleted before HPCurrent.
	TempHP int
	// Initiative is the rolled initiative value; meaningful only when Rolled.
	Initiative int
	// Rolled reports whether this participant's initiative has been set.
	Rolled bool
	// Conditions is the set of status effects attached to this participant.
	Conditions *condition.Set
}

// IsDefeated reports whether the participant is at zero hit points.
func (p *Participant) IsDefeated() bool { return p.HPCurrent == 0 }

// ParticipantSpec describes one participant to seed into a roster.
type ParticipantSpec struct {
	Kind           Kind
	DisplayName    string
	CharacterID    int64
	OwnerAccountID int64
	HPMax          int
	HPCurrent      int
	TempHP         int
}

// Validate checks that s can produce a valid Participant.
func (s ParticipantSpec) Validate() error {
	if s.DisplayName == "" {
		return fmt.Errorf("%w: participant display name must not be empty", ErrValidation)
	}
	if s.HPMax <= 0 {
		return fmt.Errorf("%w: participant %q hp_max must be > 0, got %d", ErrValidation, s.DisplayName, s.HPMax)
	}
	if s.HPCurrent < 0 || s.HPCurrent > s.HPMax {
		return fmt.Errorf("%w: participant %q hp_current must be in [0, %d], got %d", ErrValidation, s.DisplayName, s.HPMax, s.HPCurrent)
	}
	if s.TempHP < 0 {
		return fmt.Errorf("%w: participant %q temp_hp must be >= 0, got %d", ErrValidation, s.DisplayName, s.TempHP)
	}
	return nil
}

// Combat holds the live state of a single encounter.
//
// Participants is kept in insertion order; Order is the resolved initiative
// order (participant IDs, highest initiative first, ties broken by insertion
// order). Order is empty until every participant has rolled.
type Combat struct {
	// ID uniquely identifies the combat.
	ID string
	// CampaignID is the owning campaign.
	CampaignID int64
	// GMAccountID is the account running this encounter.
	GMAccountID int64
	// Status is the lifecycle state.
	Status Status
	// Round is the current round number; 1 once the order is resolved.
	Round int
	// TurnIndex is the cursor into Order; meaningful only when InProgress.
	TurnIndex int
	// Participants is the roster in insertion order.
	Participants []*Participant
	// Order is the resolved initiative order of participant IDs.
	Order []string
}

// New creates an empty Combat awaiting its roster and initiative rolls.
//
// Precondition: id must be non-empty; campaignID and gmAccountID must be > 0.
// Postcondition: Status is StatusAwaitingInitiative with an empty roster.
func New(id string, campaignID, gmAccountID int64) *Combat {
	return &Combat{
		ID:          id,
		CampaignID:  campaignID,
		GMAccountID: gmAccountID,
		Status:      StatusAwaitingInitiative,
	}
}

// AddParticipant seeds one participant into the roster.
//
// Precondition: id must be unique within the combat.
// Postcondition: Returns ErrInvalidCombatState unless Status is
// StatusAwaitingInitiative; on success the participant is appended with
// HPCurrent defaulting to HPMax when spec.HPCurrent is zero.
func (c *Combat) AddParticipant(id string, spec ParticipantSpec) (*Participant, error) {
	if c.Status != StatusAwaitingInitiative {
		return nil, fmt.Errorf("%w: cannot add participants while combat is %s", ErrInvalidCombatState, c.Status)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if _, ok := c.Participant(id); ok {
		return nil, fmt.Errorf("%w: duplicate participant id %q", ErrValidation, id)
	}

	hp := spec.HPCurrent
	if hp == 0 && spec.HPMax > 0 {
		hp = spec.HPMax
	}
	p := &Participant{
		ID:             id,
		Kind:           spec.Kind,
		DisplayName:    spec.DisplayName,
		CharacterID:    spec.CharacterID,
		OwnerAccountID: spec.OwnerAccountID,
		HPCurrent:      hp,
		HPMax:          spec.HPMax,
		TempHP:         spec.TempHP,
		Conditions:     condition.NewSet(),
	}
	c.Participants = append(c.Participants, p)
	return p, nil
}

// Participant returns the participant with the given ID.
//
// Postcondition: Returns (participant, true) if found, or (nil, false) otherwise.
func (c *Combat) Participant(id string) (*Participant, bool) {
	for _, p := range c.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// CurrentParticipant returns the participant whose turn it is.
//
// Postcondition: Returns (nil, false) unless Status is StatusInProgress.
func (c *Combat) CurrentParticipant() (*Participant, bool) {
	if c.Status != StatusInProgress || c.TurnIndex < 0 || c.TurnIndex >= len(c.Order) {
		return nil, false
	}
	return c.Participant(c.Order[c.TurnIndex])
}

// AdvanceTurn moves the cursor to the next participant in the resolved order,
// wrapping to the first participant and incrementing Round at the end.
// Defeated participants are NOT skipped; whether to pass over them is the
// GM's call at the table.
//
// Postcondition: Returns (wrapped, nil) on success where wrapped reports a
// round boundary, or ErrInvalidCombatState unless Status is StatusInProgress.
func (c *Combat) AdvanceTurn() (bool, error) {
	if c.Status != StatusInProgress {
		return false, fmt.Errorf("%w: cannot advance turn while combat is %s", ErrInvalidCombatState, c.Status)
	}
	c.TurnIndex++
	if c.TurnIndex == len(c.Order) {
		c.TurnIndex = 0
		c.Round++
		return true, nil
	}
	return false, nil
}

// Summary captures end-of-combat statistics.
type Summary struct {
	// RoundsElapsed is the number of the round in which combat ended.
	RoundsElapsed int `json:"roundsEcoules"`
	// ParticipantsDefeated counts participants at zero HP when combat ended.
	ParticipantsDefeated int `json:"participantsVaincus"`
}

// End transitions the combat to StatusEnded and computes summary statistics.
// Ending an already-ended combat is rejected, keeping combat_ended emission
// idempotent for the broadcaster.
//
// Postcondition: Returns ErrInvalidCombatState if Status is already
// StatusEnded; otherwise Status is StatusEnded and the Summary is returned.
func (c *Combat) End() (Summary, error) {
	if c.Status == StatusEnded {
		return Summary{}, fmt.Errorf("%w: combat already ended", ErrInvalidCombatState)
	}
	defeated := 0
	for _, p := range c.Participants {
		if p.IsDefeated() {
			defeated++
		}
	}
	c.Status = StatusEnded
	return Summary{
		RoundsElapsed:        c.Round,
		ParticipantsDefeated: defeated,
	}, nil
}

// Clone returns a deep copy of the combat for snapshot reads.
// Mutating the clone does not affect the original.
func (c *Combat) Clone() *Combat {
	cp := &Combat{
		ID:          c.ID,
		CampaignID:  c.CampaignID,
		GMAccountID: c.GMAccountID,
		Status:      c.Status,
		Round:       c.Round,
		TurnIndex:   c.TurnIndex,
	}
	cp.Order = append([]string(nil), c.Order...)
	for _, p := range c.Participants {
		pc := *p
		pc.Conditions = p.Conditions.Clone()
		cp.Participants = append(cp.Participants, &pc)
	}
	return cp
}
