package campaign_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chronique-jdr/chronique/internal/game/campaign"
)

func TestCampaign_Validate(t *testing.T) {
	ok := campaign.Campaign{Name: "Les Brumes d'Averoigne", GMAccountID: 3}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name string
		c    campaign.Campaign
	}{
		{"empty name", campaign.Campaign{GMAccountID: 3}},
		{"overlong name", campaign.Campaign{Name: strings.Repeat("x", 121), GMAccountID: 3}},
		{"missing gm", campaign.Campaign{Name: "X"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.c.Validate())
		})
	}
}

func TestCampaign_IsGM(t *testing.T) {
	c := campaign.Campaign{Name: "X", GMAccountID: 3}
	assert.True(t, c.IsGM(3))
	assert.False(t, c.IsGM(4))
	assert.False(t, c.IsGM(0))
}
