package combat_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronique-jdr/chronique/internal/game/combat"
)

func TestEngine_RegisterAndSnapshot(t *testing.T) {
	eng := combat.NewEngine()
	c := seedThree(t)
	require.NoError(t, eng.Register(c))
	assert.Equal(t, 1, eng.ActiveCount())

	snap, err := eng.Snapshot(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, snap.ID)

	// The snapshot is independent of engine state.
	snap.Participants[0].HPCurrent = 1
	fresh, err := eng.Snapshot(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, fresh.Participants[0].HPCurrent)
}

func TestEngine_RegisterDuplicate(t *testing.T) {
	eng := combat.NewEngine()
	c := seedThree(t)
	require.NoError(t, eng.Register(c))
	assert.Error(t, eng.Register(c))
}

func TestEngine_MutateUnknownCombat(t *testing.T) {
	eng := combat.NewEngine()
	err := eng.Mutate("ghost", func(*combat.Combat) error { return nil })
	assert.ErrorIs(t, err, combat.ErrNotFound)
}

func TestEngine_Remove(t *testing.T) {
	eng := combat.NewEngine()
	c := seedThree(t)
	require.NoError(t, eng.Register(c))
	eng.Remove(c.ID)
	_, err := eng.Snapshot(c.ID)
	assert.ErrorIs(t, err, combat.ErrNotFound)
	assert.Equal(t, 0, eng.ActiveCount())
}

// Two concurrent rolls for the same unrolled participant: exactly one value
// persists, the loser sees ErrAlreadyRolled.
func TestEngine_ConcurrentDoubleRoll(t *testing.T) {
	eng := combat.NewEngine()
	c := seedThree(t)
	require.NoError(t, eng.Register(c))

	values := []int{11, 23}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = eng.Mutate(c.ID, func(cbt *combat.Combat) error {
				_, err := cbt.RollInitiative("pa", values[i])
				return err
			})
		}(i)
	}
	wg.Wait()

	var okCount, conflictCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case assert.ErrorIs(t, err, combat.ErrAlreadyRolled):
			conflictCount++
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, conflictCount)

	snap, err := eng.Snapshot(c.ID)
	require.NoError(t, err)
	p, ok := snap.Participant("pa")
	require.True(t, ok)
	assert.True(t, p.Rolled)
	assert.Contains(t, values, p.Initiative)
}

// Concurrent HP decrements for the same combat are applied one at a time;
// none are lost.
func TestEngine_ConcurrentHPUpdatesSerialised(t *testing.T) {
	eng := combat.NewEngine()
	c := seedThree(t)
	require.NoError(t, eng.Register(c))

	const clicks = 12
	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = eng.Mutate(c.ID, func(cbt *combat.Combat) error {
				_, err := cbt.ApplyHP("pb", combat.HPUpdate{Delta: -1})
				return err
			})
		}()
	}
	wg.Wait()

	snap, err := eng.Snapshot(c.ID)
	require.NoError(t, err)
	p, _ := snap.Participant("pb")
	assert.Equal(t, 18-clicks, p.HPCurrent)
}
