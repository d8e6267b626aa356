package web

import (
	"net/http"
	"time"

	"github.com/chronique-jdr/chronique/internal/storage/postgres"
)

// messageRequest is the body of a send-message call.
type messageRequest struct {
	Body string `json:"contenu"`
}

// messageView is the public projection of a stored chat line.
type messageView struct {
	ID         int64  `json:"id"`
	CampaignID int64  `json:"campagneId"`
	AuthorID   int64  `json:"auteurId"`
	Body       string `json:"contenu"`
	SentAt     string `json:"envoyeLe"`
}

// diceRequest is the body of a table dice roll.
type diceRequest struct {
	Expression string `json:"expression"`
}

func newMessageView(m postgres.Message) messageView {
	return messageView{
		ID:         m.ID,
		CampaignID: m.CampaignID,
		AuthorID:   m.AuthorAccountID,
		Body:       m.Body,
		SentAt:     m.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaignID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	payload, err := s.chat.Send(r.Context(), ident, campaignID, req.Body)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, payload)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaignID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	messages, err := s.chat.History(r.Context(), ident, campaignID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, newMessageView(m))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleRollDice(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaignID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req diceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	payload, err := s.dice.Roll(r.Context(), ident, campaignID, req.Expression)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}
