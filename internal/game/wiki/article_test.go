package wiki_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chronique-jdr/chronique/internal/game/wiki"
)

func TestArticle_Validate(t *testing.T) {
	ok := wiki.Article{
		CampaignID: 1,
		Slug:       "la-tour-des-brumes",
		Title:      "La Tour des Brumes",
		Category:   wiki.CategoryLocation,
	}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name string
		a    wiki.Article
	}{
		{"no campaign", wiki.Article{Slug: "x", Title: "X", Category: wiki.CategoryLore}},
		{"empty title", wiki.Article{CampaignID: 1, Slug: "x", Category: wiki.CategoryLore}},
		{"overlong title", wiki.Article{CampaignID: 1, Slug: "x", Title: strings.Repeat("t", 201), Category: wiki.CategoryLore}},
		{"empty slug", wiki.Article{CampaignID: 1, Title: "X", Category: wiki.CategoryLore}},
		{"bad category", wiki.Article{CampaignID: 1, Slug: "x", Title: "X", Category: "recipe"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.a.Validate())
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"La Tour des Brumes", "la-tour-des-brumes"},
		{"Forêt d'Émeraude", "foret-d-emeraude"},
		{"  espaces   multiples  ", "espaces-multiples"},
		{"Règles maison / combats", "regles-maison-combats"},
		{"Château-Gaillard", "chateau-gaillard"},
		{"ça marche!!!", "ca-marche"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, wiki.Slugify(tc.title), "title=%q", tc.title)
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range []string{
		wiki.CategoryLore, wiki.CategoryLocation, wiki.CategoryNPC,
		wiki.CategoryFaction, wiki.CategoryItem, wiki.CategoryHouseRule,
	} {
		assert.True(t, wiki.ValidCategory(c), c)
	}
	assert.False(t, wiki.ValidCategory(""))
	assert.False(t, wiki.ValidCategory("recipe"))
}
