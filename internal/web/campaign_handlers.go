package web

import (
	"net/http"
	"time"

	"github.com/chronique-jdr/chronique/internal/game/campaign"
)

// campaignRequest is the body of a create-campaign call.
type campaignRequest struct {
	Name        string `json:"nom"`
	Description string `json:"description"`
}

// campaignView is the public projection of a campaign.
type campaignView struct {
	ID          int64  `json:"id"`
	Name        string `json:"nom"`
	Description string `json:"description"`
	GMAccountID int64  `json:"mjCompteId"`
	CreatedAt   string `json:"creeLe"`
}

func newCampaignView(c *campaign.Campaign) campaignView {
	return campaignView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		GMAccountID: c.GMAccountID,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	var req campaignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	camp := &campaign.Campaign{
		Name:        req.Name,
		Description: req.Description,
		GMAccountID: ident.AccountID,
	}
	if err := camp.Validate(); err != nil {
		respondError(w, s.logger, invalid(err))
		return
	}

	created, err := s.campaigns.Create(r.Context(), camp)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCampaignView(created))
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaigns, err := s.campaigns.ListByMember(r.Context(), ident.AccountID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	views := make([]campaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, newCampaignView(c))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireMember(r, id, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}

	camp, err := s.campaigns.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newCampaignView(camp))
}

func (s *Server) handleJoinCampaign(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.campaigns.AddMember(r.Context(), id, ident.AccountID); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
