package web

import (
	"net/http"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/character"
)

// characterRequest is the body of character create and update calls.
type characterRequest struct {
	Name      string                  `json:"nom"`
	Race      string                  `json:"race"`
	Class     string                  `json:"classe"`
	Level     int                     `json:"niveau"`
	Abilities character.AbilityScores `json:"statistiques"`
	MaxHP     int                     `json:"pvMax"`
	CurrentHP int                     `json:"pvActuels"`
	TempHP    int                     `json:"pvTemporaires"`
}

// characterView is the public projection of a character sheet.
type characterView struct {
	ID              int64                   `json:"id"`
	CampaignID      int64                   `json:"campagneId"`
	OwnerAccountID  int64                   `json:"proprietaireId"`
	Name            string                  `json:"nom"`
	Race            string                  `json:"race"`
	Class           string                  `json:"classe"`
	Level           int                     `json:"niveau"`
	Abilities       character.AbilityScores `json:"statistiques"`
	MaxHP           int                     `json:"pvMax"`
	CurrentHP       int                     `json:"pvActuels"`
	TempHP          int                     `json:"pvTemporaires"`
	InitiativeBonus int                     `json:"bonusInitiative"`
}

func newCharacterView(c *character.Character) characterView {
	return characterView{
		ID:              c.ID,
		CampaignID:      c.CampaignID,
		OwnerAccountID:  c.OwnerAccountID,
		Name:            c.Name,
		Race:            c.Race,
		Class:           c.Class,
		Level:           c.Level,
		Abilities:       c.Abilities,
		MaxHP:           c.MaxHP,
		CurrentHP:       c.CurrentHP,
		TempHP:          c.TempHP,
		InitiativeBonus: c.InitiativeBonus(),
	}
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaignID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireMember(r, campaignID, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}

	var req characterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	ch := &character.Character{
		CampaignID:     campaignID,
		OwnerAccountID: ident.AccountID,
		Name:           req.Name,
		Race:           req.Race,
		Class:          req.Class,
		Level:          req.Level,
		Abilities:      req.Abilities,
		MaxHP:          req.MaxHP,
		CurrentHP:      req.CurrentHP,
		TempHP:         req.TempHP,
	}
	if err := ch.Validate(); err != nil {
		respondError(w, s.logger, invalid(err))
		return
	}

	created, err := s.characters.Create(r.Context(), ch)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCharacterView(created))
}

func (s *Server) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	campaignID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireMember(r, campaignID, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}

	chars, err := s.characters.ListByCampaign(r.Context(), campaignID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	views := make([]characterView, 0, len(chars))
	for _, c := range chars {
		views = append(views, newCharacterView(c))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	ch, err := s.fetchCharacter(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireMember(r, ch.CampaignID, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newCharacterView(ch))
}

func (s *Server) handleUpdateCharacter(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	ch, err := s.fetchCharacter(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireSheetEditor(r, ch.CampaignID, ch.OwnerAccountID, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}

	var req characterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	ch.Name = req.Name
	ch.Race = req.Race
	ch.Class = req.Class
	ch.Level = req.Level
	ch.Abilities = req.Abilities
	ch.MaxHP = req.MaxHP
	ch.CurrentHP = req.CurrentHP
	ch.TempHP = req.TempHP
	if err := ch.Validate(); err != nil {
		respondError(w, s.logger, invalid(err))
		return
	}

	if err := s.characters.Update(r.Context(), ch); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newCharacterView(ch))
}

func (s *Server) handleDeleteCharacter(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	ch, err := s.fetchCharacter(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.requireSheetEditor(r, ch.CampaignID, ch.OwnerAccountID, ident); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.characters.Delete(r.Context(), ch.ID); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) fetchCharacter(r *http.Request, param string) (*character.Character, error) {
	id, err := pathID(r, param)
	if err != nil {
		return nil, err
	}
	return s.characters.GetByID(r.Context(), id)
}

// requireSheetEditor allows the sheet's owner, the campaign GM, and admins.
func (s *Server) requireSheetEditor(r *http.Request, campaignID, ownerAccountID int64, ident auth.Identity) error {
	if ident.AccountID == ownerAccountID || ident.Role == auth.RoleAdmin {
		return nil
	}
	camp, err := s.campaigns.GetByID(r.Context(), campaignID)
	if err != nil {
		return err
	}
	if !camp.IsGM(ident.AccountID) {
		return forbiddenf("only the sheet owner or the campaign GM may edit this character")
	}
	return nil
}
