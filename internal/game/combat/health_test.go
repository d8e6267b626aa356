package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/condition"
)

func intPtr(v int) *int { return &v }

func TestApplyHP_DamageAndHealClamp(t *testing.T) {
	c := seedThree(t)

	res, err := c.ApplyHP("pa", combat.HPUpdate{Delta: -6})
	require.NoError(t, err)
	assert.Equal(t, 14, res.HPCurrent)
	assert.Equal(t, combat.TransitionNone, res.Transition)

	res, err = c.ApplyHP("pa", combat.HPUpdate{Delta: +50})
	require.NoError(t, err)
	assert.Equal(t, 20, res.HPCurrent) // clamped to hpMax
}

// Spec scenario: hpMax=20, hpCurrent=5, tempHp=0; delta -10 clamps to 0 and
// reports a knockout.
func TestApplyHP_ScenarioOverkillIsKO(t *testing.T) {
	c := seedThree(t)
	_, err := c.ApplyHP("pa", combat.HPUpdate{Absolute: intPtr(5)})
	require.NoError(t, err)

	res, err := c.ApplyHP("pa", combat.HPUpdate{Delta: -10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.HPCurrent)
	assert.Equal(t, combat.TransitionKO, res.Transition)
}

func TestApplyHP_LethalFlagReportsDeath(t *testing.T) {
	c := seedThree(t)
	res, err := c.ApplyHP("pa", combat.HPUpdate{Delta: -100, Lethal: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.HPCurrent)
	assert.Equal(t, combat.TransitionDied, res.Transition)
}

func TestApplyHP_ReviveFromZero(t *testing.T) {
	c := seedThree(t)
	_, err := c.ApplyHP("pa", combat.HPUpdate{Delta: -100})
	require.NoError(t, err)

	res, err := c.ApplyHP("pa", combat.HPUpdate{Delta: +3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.HPCurrent)
	assert.Equal(t, combat.TransitionRevived, res.Transition)
}

func TestApplyHP_TempHPAbsorbsFirst(t *testing.T) {
	c := seedThree(t)
	_, err := c.ApplyHP("pa", combat.HPUpdate{Delta: +5, AffectsTemp: true})
	require.NoError(t, err)

	res, err := c.ApplyHP("pa", combat.HPUpdate{Delta: -3})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TempHP)
	assert.Equal(t, 20, res.HPCurrent) // pool untouched

	res, err = c.ApplyHP("pa", combat.HPUpdate{Delta: -6})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TempHP)
	assert.Equal(t, 16, res.HPCurrent) // 2 absorbed, 4 spill
}

func TestApplyHP_AbsoluteSetsPool(t *testing.T) {
	c := seedThree(t)
	res, err := c.ApplyHP("pa", combat.HPUpdate{Absolute: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, res.HPCurrent)

	// Absolute above max clamps; absolute below zero floors.
	res, err = c.ApplyHP("pa", combat.HPUpdate{Absolute: intPtr(99)})
	require.NoError(t, err)
	assert.Equal(t, 20, res.HPCurrent)

	res, err = c.ApplyHP("pa", combat.HPUpdate{Absolute: intPtr(-4)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.HPCurrent)
}

func TestApplyHP_AbsoluteTemp(t *testing.T) {
	c := seedThree(t)
	res, err := c.ApplyHP("pa", combat.HPUpdate{Absolute: intPtr(8), AffectsTemp: true})
	require.NoError(t, err)
	assert.Equal(t, 8, res.TempHP)
	assert.Equal(t, 20, res.HPCurrent)
}

func TestApplyHP_UnknownParticipant(t *testing.T) {
	c := seedThree(t)
	_, err := c.ApplyHP("ghost", combat.HPUpdate{Delta: -1})
	assert.ErrorIs(t, err, combat.ErrNotFound)
}

func TestApplyHP_RejectedAfterEnd(t *testing.T) {
	c := seedThree(t)
	_, err := c.End()
	require.NoError(t, err)
	_, err = c.ApplyHP("pa", combat.HPUpdate{Delta: -1})
	assert.ErrorIs(t, err, combat.ErrInvalidCombatState)
}

// hpCurrent stays in [0, hpMax] regardless of delta magnitude or sign, and
// tempHp never goes negative.
func TestApplyHP_Property_BoundsAlwaysHold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hpMax := rapid.IntRange(1, 200).Draw(rt, "hp_max")
		temp := rapid.IntRange(0, 50).Draw(rt, "temp")
		c := combat.New("cbt-p", 1, 1)
		if _, err := c.AddParticipant("p0", combat.ParticipantSpec{
			DisplayName: "P0", HPMax: hpMax, TempHP: temp,
		}); err != nil {
			rt.Fatalf("AddParticipant: %v", err)
		}

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			upd := combat.HPUpdate{
				Delta:       rapid.IntRange(-300, 300).Draw(rt, "delta"),
				AffectsTemp: rapid.Bool().Draw(rt, "affects_temp"),
			}
			res, err := c.ApplyHP("p0", upd)
			if err != nil {
				rt.Fatalf("ApplyHP: %v", err)
			}
			assert.GreaterOrEqual(rt, res.HPCurrent, 0)
			assert.LessOrEqual(rt, res.HPCurrent, hpMax)
			assert.GreaterOrEqual(rt, res.TempHP, 0)
		}
	})
}

func TestAddRemoveCondition(t *testing.T) {
	c := seedThree(t)
	err := c.AddCondition("pa", condition.Condition{ID: "c1", Name: "Aveuglé"})
	require.NoError(t, err)

	p, _ := c.Participant("pa")
	assert.True(t, p.Conditions.Has("c1"))

	require.NoError(t, c.RemoveCondition("pa", "c1"))
	assert.False(t, p.Conditions.Has("c1"))

	// Removing again is a no-op, not an error.
	assert.NoError(t, c.RemoveCondition("pa", "c1"))
}

func TestAddCondition_Validation(t *testing.T) {
	c := seedThree(t)
	err := c.AddCondition("pa", condition.Condition{ID: "", Name: "X"})
	assert.ErrorIs(t, err, combat.ErrValidation)
}

func TestConditionOps_UnknownParticipant(t *testing.T) {
	c := seedThree(t)
	assert.ErrorIs(t, c.AddCondition("ghost", condition.Condition{ID: "c1", Name: "X"}), combat.ErrNotFound)
	assert.ErrorIs(t, c.RemoveCondition("ghost", "c1"), combat.ErrNotFound)
}
