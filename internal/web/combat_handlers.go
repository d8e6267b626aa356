package web

import (
	"net/http"

	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/condition"
	"github.com/chronique-jdr/chronique/internal/gameserver"
)

// startCombatRequest is the body of a start-combat call.
type startCombatRequest struct {
	CampaignID   int64                         `json:"campagneId"`
	Participants []gameserver.ParticipantInput `json:"participants"`
}

// initiativeRequest is the body of an initiative roll. Force marks the GM's
// correction path, which overwrites an already recorded roll.
type initiativeRequest struct {
	ParticipantID string `json:"participantId"`
	Value         int    `json:"valeur"`
	Force         bool   `json:"forcer"`
}

// actionRequest is the body of an action declaration.
type actionRequest struct {
	ParticipantID string `json:"participantId"`
	Action        string `json:"action"`
}

// hpRequest is the body of a hit point mutation. Exactly one of delta or
// absolute drives the update.
type hpRequest struct {
	Delta       int  `json:"delta"`
	Absolute    *int `json:"valeurAbsolue"`
	AffectsTemp bool `json:"pvTemporaires"`
	Lethal      bool `json:"letal"`
}

// conditionRequest is the body of an add-condition call.
type conditionRequest struct {
	ID       string            `json:"id"`
	Name     string            `json:"nom"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) handleStartCombat(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	var req startCombatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	view, err := s.broadcaster.StartCombat(r.Context(), ident, req.CampaignID, req.Participants)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetCombat(w http.ResponseWriter, r *http.Request) {
	view, err := s.broadcaster.GetCombat(r.PathValue("id"))
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleEndCombat(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	if err := s.broadcaster.EndCombat(r.Context(), ident, r.PathValue("id")); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRollInitiative(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	var req initiativeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	combatID := r.PathValue("id")
	var err error
	if req.Force {
		err = s.broadcaster.ForceInitiative(r.Context(), ident, combatID, req.ParticipantID, req.Value)
	} else {
		err = s.broadcaster.RollInitiative(r.Context(), ident, combatID, req.ParticipantID, req.Value)
	}
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleNextTurn(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	if err := s.broadcaster.AdvanceTurn(r.Context(), ident, r.PathValue("id")); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	if err := s.broadcaster.AdvanceRound(r.Context(), ident, r.PathValue("id")); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeclareAction(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.broadcaster.DeclareAction(r.Context(), ident, r.PathValue("id"), req.ParticipantID, req.Action); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUpdateHP(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	var req hpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	upd := combat.HPUpdate{
		Delta:       req.Delta,
		Absolute:    req.Absolute,
		AffectsTemp: req.AffectsTemp,
		Lethal:      req.Lethal,
	}
	if err := s.broadcaster.UpdateHP(r.Context(), ident, r.PathValue("id"), r.PathValue("pid"), upd); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	var req conditionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	cond := condition.Condition{
		ID:       req.ID,
		Name:     req.Name,
		Metadata: req.Metadata,
	}
	if err := s.broadcaster.AddCondition(r.Context(), ident, r.PathValue("id"), r.PathValue("pid"), cond); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	if err := s.broadcaster.RemoveCondition(r.Context(), ident, r.PathValue("id"), r.PathValue("pid"), r.PathValue("cid")); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListConditions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.conditions.All())
}
