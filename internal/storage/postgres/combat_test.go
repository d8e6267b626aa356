package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/condition"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
	"github.com/chronique-jdr/chronique/internal/testutil"
)

func seedCombat(t *testing.T, campaignID, gmID int64) *combat.Combat {
	t.Helper()
	cbt := combat.New(uuid.NewString(), campaignID, gmID)

	_, err := cbt.AddParticipant("pa", combat.ParticipantSpec{
		Kind: combat.KindPlayerCharacter, DisplayName: "Aline",
		OwnerAccountID: gmID, HPMax: 20,
	})
	require.NoError(t, err)
	_, err = cbt.AddParticipant("gob1", combat.ParticipantSpec{
		Kind: combat.KindEnemyInstance, DisplayName: "Gobelin 1",
		HPMax: 7, TempHP: 2,
	})
	require.NoError(t, err)
	return cbt
}

func TestCombatRepository_SaveLoadRoundTrip(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	cbt := seedCombat(t, camp.ID, camp.GMAccountID)

	// One rolled, one pending: exercises the nullable initiative column.
	_, err := cbt.RollInitiative("pa", 17)
	require.NoError(t, err)
	pa, _ := cbt.Participant("pa")
	pa.Conditions.Add(condition.Condition{
		ID: "empoisonne", Name: "Empoisonné",
		Metadata: map[string]string{"source": "gob1"},
	})

	require.NoError(t, repo.Save(ctx, cbt))

	loaded, err := repo.Load(ctx, cbt.ID)
	require.NoError(t, err)
	assert.Equal(t, cbt.ID, loaded.ID)
	assert.Equal(t, camp.ID, loaded.CampaignID)
	assert.Equal(t, combat.StatusAwaitingInitiative, loaded.Status)
	require.Len(t, loaded.Participants, 2)

	lpa, ok := loaded.Participant("pa")
	require.True(t, ok)
	assert.True(t, lpa.Rolled)
	assert.Equal(t, 17, lpa.Initiative)
	assert.Equal(t, combat.KindPlayerCharacter, lpa.Kind)
	require.True(t, lpa.Conditions.Has("empoisonne"))
	cond, _ := lpa.Conditions.Get("empoisonne")
	assert.Equal(t, "Empoisonné", cond.Name)
	assert.Equal(t, "gob1", cond.Metadata["source"])

	lgob, ok := loaded.Participant("gob1")
	require.True(t, ok)
	assert.False(t, lgob.Rolled)
	assert.Equal(t, 2, lgob.TempHP)
	assert.Equal(t, int64(0), lgob.OwnerAccountID)
}

func TestCombatRepository_SaveIsUpsert(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	cbt := seedCombat(t, camp.ID, camp.GMAccountID)
	require.NoError(t, repo.Save(ctx, cbt))

	_, err := cbt.RollInitiative("pa", 12)
	require.NoError(t, err)
	complete, err := cbt.RollInitiative("gob1", 15)
	require.NoError(t, err)
	require.True(t, complete)
	require.NoError(t, repo.Save(ctx, cbt))

	loaded, err := repo.Load(ctx, cbt.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.StatusInProgress, loaded.Status)
	assert.Equal(t, 1, loaded.Round)
	assert.Equal(t, []string{"gob1", "pa"}, loaded.Order)

	cur, ok := loaded.CurrentParticipant()
	require.True(t, ok)
	assert.Equal(t, "gob1", cur.ID)
}

func TestCombatRepository_Load_NotFound(t *testing.T) {
	repo := postgres.NewCombatRepository(testutil.NewPool(t))
	_, err := repo.Load(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrCombatNotFound)
}

func TestCombatRepository_ListActiveByCampaign(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	live := seedCombat(t, camp.ID, camp.GMAccountID)
	require.NoError(t, repo.Save(ctx, live))

	done := seedCombat(t, camp.ID, camp.GMAccountID)
	_, err := done.End()
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, done))

	ids, err := repo.ListActiveByCampaign(ctx, camp.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{live.ID}, ids)
}

func TestCombatRepository_Delete(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	cbt := seedCombat(t, camp.ID, camp.GMAccountID)
	require.NoError(t, repo.Save(ctx, cbt))

	require.NoError(t, repo.Delete(ctx, cbt.ID))
	_, err := repo.Load(ctx, cbt.ID)
	assert.ErrorIs(t, err, postgres.ErrCombatNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, cbt.ID), postgres.ErrCombatNotFound)
}
