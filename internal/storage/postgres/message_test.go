package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronique-jdr/chronique/internal/storage/postgres"
	"github.com/chronique-jdr/chronique/internal/testutil"
)

func TestMessageRepository_AppendAndListRecent(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewMessageRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	room := "campagne"

	for i := 1; i <= 5; i++ {
		_, err := repo.Append(ctx, postgres.Message{
			CampaignID:      camp.ID,
			AuthorAccountID: camp.GMAccountID,
			Room:            room,
			Body:            fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	// Limit trims to the latest messages, returned oldest first.
	msgs, err := repo.ListRecent(ctx, camp.ID, room, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "message 3", msgs[0].Body)
	assert.Equal(t, "message 5", msgs[2].Body)

	empty, err := repo.ListRecent(ctx, camp.ID, "autre-salle", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
