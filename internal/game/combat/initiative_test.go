package combat_test

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/chronique-jdr/chronique/internal/game/combat"
)

func TestRollInitiative_Bounds(t *testing.T) {
	c := seedThree(t)
	for _, v := range []int{0, -5, 31, 100} {
		_, err := c.RollInitiative("pa", v)
		assert.ErrorIs(t, err, combat.ErrValidation, "value %d", v)
	}
	_, err := c.RollInitiative("pa", 1)
	assert.NoError(t, err)
	_, err = c.RollInitiative("pb", 30)
	assert.NoError(t, err)
}

func TestRollInitiative_UnknownParticipant(t *testing.T) {
	c := seedThree(t)
	_, err := c.RollInitiative("ghost", 12)
	assert.ErrorIs(t, err, combat.ErrNotFound)
}

func TestRollInitiative_SecondRollRejectedValueUnchanged(t *testing.T) {
	c := seedThree(t)
	_, err := c.RollInitiative("pa", 17)
	require.NoError(t, err)

	_, err = c.RollInitiative("pa", 3)
	assert.ErrorIs(t, err, combat.ErrAlreadyRolled)

	p, ok := c.Participant("pa")
	require.True(t, ok)
	assert.Equal(t, 17, p.Initiative)
}

func TestRollInitiative_IncompleteRosterStaysAwaiting(t *testing.T) {
	c := seedThree(t)
	complete, err := c.RollInitiative("pa", 15)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, combat.StatusAwaitingInitiative, c.Status)
	assert.Empty(t, c.Order)
}

func TestRollInitiative_LastRollResolvesOrder(t *testing.T) {
	c := seedThree(t)
	_, err := c.RollInitiative("pa", 8)
	require.NoError(t, err)
	_, err = c.RollInitiative("pb", 22)
	require.NoError(t, err)
	complete, err := c.RollInitiative("pc", 15)
	require.NoError(t, err)

	assert.True(t, complete)
	assert.Equal(t, combat.StatusInProgress, c.Status)
	assert.Equal(t, []string{"pb", "pc", "pa"}, c.Order)
	assert.Equal(t, 0, c.TurnIndex)
	assert.Equal(t, 1, c.Round)
}

func TestRollInitiative_RejectedOnceInProgress(t *testing.T) {
	c := seedThree(t)
	rollAll(t, c, map[string]int{"pa": 15, "pb": 12, "pc": 8})
	_, err := c.RollInitiative("pa", 20)
	assert.ErrorIs(t, err, combat.ErrInvalidCombatState)
}

// The resolved order is exactly the participant set sorted by initiative
// descending, ties preserving insertion order.
func TestRollInitiative_Property_OrderSortedDescStable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "participants")
		c := combat.New("cbt-p", 1, 1)
		values := make([]int, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("p%d", i)
			if _, err := c.AddParticipant(id, combat.ParticipantSpec{DisplayName: id, HPMax: 10}); err != nil {
				rt.Fatalf("AddParticipant: %v", err)
			}
			values[i] = rapid.IntRange(combat.InitiativeMin, combat.InitiativeMax).Draw(rt, fmt.Sprintf("init%d", i))
		}
		for i := 0; i < n; i++ {
			if _, err := c.RollInitiative(fmt.Sprintf("p%d", i), values[i]); err != nil {
				rt.Fatalf("RollInitiative: %v", err)
			}
		}

		if len(c.Order) != n {
			rt.Fatalf("order has %d entries, want %d", len(c.Order), n)
		}
		// Descending and, within equal values, ascending insertion index.
		idx := func(id string) int {
			var i int
			fmt.Sscanf(id, "p%d", &i)
			return i
		}
		sorted := sort.SliceIsSorted(c.Order, func(a, b int) bool {
			va, vb := values[idx(c.Order[a])], values[idx(c.Order[b])]
			if va != vb {
				return va > vb
			}
			return idx(c.Order[a]) < idx(c.Order[b])
		})
		assert.True(rt, sorted, "order %v not initiative-descending stable", c.Order)
	})
}

func TestForceInitiative_OverridesExistingRoll(t *testing.T) {
	c := seedThree(t)
	_, err := c.RollInitiative("pa", 10)
	require.NoError(t, err)

	_, err = c.ForceInitiative("pa", 25)
	require.NoError(t, err)

	p, _ := c.Participant("pa")
	assert.Equal(t, 25, p.Initiative)
}

func TestForceInitiative_CompletesOrderForUnrolled(t *testing.T) {
	c := seedThree(t)
	_, err := c.RollInitiative("pa", 10)
	require.NoError(t, err)
	_, err = c.RollInitiative("pb", 20)
	require.NoError(t, err)

	complete, err := c.ForceInitiative("pc", 15)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, []string{"pb", "pc", "pa"}, c.Order)
}

func TestForceInitiative_ReordersInProgressKeepingCursorSlot(t *testing.T) {
	c := seedThree(t)
	rollAll(t, c, map[string]int{"pa": 20, "pb": 15, "pc": 10})
	require.Equal(t, []string{"pa", "pb", "pc"}, c.Order)

	_, err := c.AdvanceTurn()
	require.NoError(t, err)
	require.Equal(t, 1, c.TurnIndex)

	// Correct pc upward: new order pc,pa,pb; cursor stays on slot 1.
	_, err = c.ForceInitiative("pc", 28)
	require.NoError(t, err)
	assert.Equal(t, []string{"pc", "pa", "pb"}, c.Order)
	assert.Equal(t, 1, c.TurnIndex)
}

func TestForceInitiative_RejectedAfterEnd(t *testing.T) {
	c := seedThree(t)
	_, err := c.End()
	require.NoError(t, err)
	_, err = c.ForceInitiative("pa", 12)
	assert.ErrorIs(t, err, combat.ErrInvalidCombatState)
}
