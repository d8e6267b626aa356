// Package character defines the character-sheet domain model.
package character

import (
	"errors"
	"fmt"
	"time"
)

// AbilityScores holds the six ability score values for a character sheet.
// Scores are stored as typed columns, never as serialized text.
type AbilityScores struct {
	Strength     int `json:"force"`
	Dexterity    int `json:"dexterite"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"sagesse"`
	Charisma     int `json:"charisme"`
}

// Modifier returns the ability modifier for a given score: floor((score-10)/2).
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// Validate checks that every score is in the sheet-editable range [1, 30].
func (a AbilityScores) Validate() error {
	for name, v := range map[string]int{
		"strength": a.Strength, "dexterity": a.Dexterity, "constitution": a.Constitution,
		"intelligence": a.Intelligence, "wisdom": a.Wisdom, "charisma": a.Charisma,
	} {
		if v < 1 || v > 30 {
			return fmt.Errorf("%s must be in [1, 30], got %d", name, v)
		}
	}
	return nil
}

// Character represents a player character's persistent sheet.
//
// ID is set by the persistence layer; a zero value indicates an unsaved character.
type Character struct {
	ID             int64
	CampaignID     int64
	OwnerAccountID int64

	Name  string
	Race  string
	Class string
	Level int

	Abilities AbilityScores
	MaxHP     int
	CurrentHP int
	TempHP    int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the sheet invariants.
//
// Postcondition: Returns nil iff the character can be persisted.
func (c Character) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if c.CampaignID <= 0 {
		errs = append(errs, errors.New("campaign id must be > 0"))
	}
	if c.OwnerAccountID <= 0 {
		errs = append(errs, errors.New("owner account id must be > 0"))
	}
	if c.Level < 1 || c.Level > 20 {
		errs = append(errs, fmt.Errorf("level must be in [1, 20], got %d", c.Level))
	}
	if c.MaxHP <= 0 {
		errs = append(errs, fmt.Errorf("max hp must be > 0, got %d", c.MaxHP))
	}
	if c.CurrentHP < 0 || c.CurrentHP > c.MaxHP {
		errs = append(errs, fmt.Errorf("current hp must be in [0, %d], got %d", c.MaxHP, c.CurrentHP))
	}
	if c.TempHP < 0 {
		errs = append(errs, fmt.Errorf("temp hp must be >= 0, got %d", c.TempHP))
	}
	if err := c.Abilities.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("character invalid: %v", errs)
	}
	return nil
}

// InitiativeBonus returns the dexterity modifier used to pre-fill the
// initiative prompt in the tracker.
func (c Character) InitiativeBonus() int {
	return Modifier(c.Abilities.Dexterity)
}
