package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/chronique-jdr/chronique/internal/game/character"
)

func baseAbilities() character.AbilityScores {
	return character.AbilityScores{
		Strength: 14, Dexterity: 12, Constitution: 13,
		Intelligence: 10, Wisdom: 11, Charisma: 9,
	}
}

func validCharacter() character.Character {
	return character.Character{
		CampaignID:     1,
		OwnerAccountID: 2,
		Name:           "Sylvaine",
		Race:           "elfe",
		Class:          "rôdeuse",
		Level:          3,
		Abilities:      baseAbilities(),
		MaxHP:          24,
		CurrentHP:      24,
	}
}

func TestModifier(t *testing.T) {
	tests := []struct{ score, want int }{
		{10, 0}, {12, 1}, {8, -1}, {9, -1}, {20, 5}, {1, -5}, {30, 10},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, character.Modifier(tc.score), "score=%d", tc.score)
	}
}

func TestModifier_Property_EvenScoresSymmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		assert.Equal(rt, n, character.Modifier(10+2*n))
		assert.Equal(rt, -n, character.Modifier(10-2*n))
	})
}

func TestCharacter_Validate(t *testing.T) {
	assert.NoError(t, validCharacter().Validate())

	mutate := func(fn func(*character.Character)) character.Character {
		c := validCharacter()
		fn(&c)
		return c
	}
	tests := []struct {
		name string
		c    character.Character
	}{
		{"empty name", mutate(func(c *character.Character) { c.Name = "" })},
		{"no campaign", mutate(func(c *character.Character) { c.CampaignID = 0 })},
		{"no owner", mutate(func(c *character.Character) { c.OwnerAccountID = 0 })},
		{"level zero", mutate(func(c *character.Character) { c.Level = 0 })},
		{"level too high", mutate(func(c *character.Character) { c.Level = 21 })},
		{"zero max hp", mutate(func(c *character.Character) { c.MaxHP = 0 })},
		{"current above max", mutate(func(c *character.Character) { c.CurrentHP = 30 })},
		{"negative temp", mutate(func(c *character.Character) { c.TempHP = -1 })},
		{"ability out of range", mutate(func(c *character.Character) { c.Abilities.Wisdom = 0 })},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.c.Validate())
		})
	}
}

func TestCharacter_InitiativeBonus(t *testing.T) {
	c := validCharacter()
	assert.Equal(t, 1, c.InitiativeBonus()) // dex 12

	c.Abilities.Dexterity = 7
	assert.Equal(t, -2, c.InitiativeBonus())
}
