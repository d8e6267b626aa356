package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronique-jdr/chronique/internal/game/wiki"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
	"github.com/chronique-jdr/chronique/internal/testutil"
)

func TestArticleRepository_CreateDerivesSlug(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewArticleRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	created, err := repo.Create(ctx, &wiki.Article{
		CampaignID:      camp.ID,
		AuthorAccountID: camp.GMAccountID,
		Title:           "La Forêt d'Émeraude",
		Body:            "Une forêt ancienne au nord.",
		Category:        wiki.CategoryLocation,
	})
	require.NoError(t, err)
	assert.Equal(t, "la-foret-d-emeraude", created.Slug)

	fetched, err := repo.GetBySlug(ctx, camp.ID, "la-foret-d-emeraude")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	// Same title in the same campaign collides on the slug.
	_, err = repo.Create(ctx, &wiki.Article{
		CampaignID:      camp.ID,
		AuthorAccountID: camp.GMAccountID,
		Title:           "La Forêt d'Émeraude",
		Category:        wiki.CategoryLore,
	})
	assert.ErrorIs(t, err, postgres.ErrSlugTaken)
}

func TestArticleRepository_GetBySlug_NotFound(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewArticleRepository(pool)
	camp := seedCampaign(t, pool)

	_, err := repo.GetBySlug(context.Background(), camp.ID, "inconnu")
	assert.ErrorIs(t, err, postgres.ErrArticleNotFound)
}

func TestArticleRepository_ListByCampaignWithCategory(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewArticleRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	for _, a := range []wiki.Article{
		{Title: "Bastion du Nord", Category: wiki.CategoryLocation},
		{Title: "Aldric le Rouge", Category: wiki.CategoryNPC},
		{Title: "Crypte des Rois", Category: wiki.CategoryLocation},
	} {
		a.CampaignID = camp.ID
		a.AuthorAccountID = camp.GMAccountID
		_, err := repo.Create(ctx, &a)
		require.NoError(t, err)
	}

	all, err := repo.ListByCampaign(ctx, camp.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	locations, err := repo.ListByCampaign(ctx, camp.ID, wiki.CategoryLocation)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "Bastion du Nord", locations[0].Title)
	assert.Equal(t, "Crypte des Rois", locations[1].Title)
}

func TestArticleRepository_UpdateAndDelete(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewArticleRepository(pool)
	ctx := context.Background()

	camp := seedCampaign(t, pool)
	created, err := repo.Create(ctx, &wiki.Article{
		CampaignID:      camp.ID,
		AuthorAccountID: camp.GMAccountID,
		Title:           "Règles maison",
		Category:        wiki.CategoryHouseRule,
	})
	require.NoError(t, err)

	created.Body = "Les critiques doublent les dés, pas les bonus."
	require.NoError(t, repo.Update(ctx, created))

	fetched, err := repo.GetBySlug(ctx, camp.ID, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.Body, fetched.Body)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), postgres.ErrArticleNotFound)
}
