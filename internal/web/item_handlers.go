package web

import (
	"net/http"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/inventory"
)

// itemRequest is the body of a create-item call.
type itemRequest struct {
	Name        string  `json:"nom"`
	Description string  `json:"description"`
	Slot        string  `json:"emplacement"`
	Weight      float64 `json:"poids"`
	Value       int     `json:"valeur"`
	Stackable   bool    `json:"empilable"`
}

// itemView is the public projection of a catalog item.
type itemView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nom"`
	Description string  `json:"description"`
	Slot        string  `json:"emplacement"`
	Weight      float64 `json:"poids"`
	Value       int     `json:"valeur"`
	Stackable   bool    `json:"empilable"`
}

// entryRequest is one line of a save-inventory call.
type entryRequest struct {
	ItemID   int64 `json:"objetId"`
	Quantity int   `json:"quantite"`
	Equipped bool  `json:"equipe"`
}

// entryView is one line of an inventory response.
type entryView struct {
	Item     itemView `json:"objet"`
	Quantity int      `json:"quantite"`
	Equipped bool     `json:"equipe"`
}

// inventoryView is the full inventory response with encumbrance math.
type inventoryView struct {
	Entries     []entryView `json:"lignes"`
	TotalWeight float64     `json:"poidsTotal"`
	Capacity    float64     `json:"capacite"`
	Overloaded  bool        `json:"surcharge"`
}

func newItemView(i inventory.Item) itemView {
	return itemView{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Slot:        i.Slot,
		Weight:      i.Weight,
		Value:       i.Value,
		Stackable:   i.Stackable,
	}
}

func newInventoryView(sheet *inventory.Sheet, strength int) inventoryView {
	entries := sheet.Entries()
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			Item:     newItemView(e.Item),
			Quantity: e.Quantity,
			Equipped: e.Equipped,
		})
	}
	return inventoryView{
		Entries:     views,
		TotalWeight: sheet.TotalWeight(),
		Capacity:    inventory.CarryCapacity(strength),
		Overloaded:  sheet.Overloaded(strength),
	}
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	if ident.Role == auth.RolePlayer {
		respondError(w, s.logger, forbiddenf("only GMs may extend the item catalog"))
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	item := inventory.Item{
		Name:        req.Name,
		Description: req.Description,
		Slot:        req.Slot,
		Weight:      req.Weight,
		Value:       req.Value,
		Stackable:   req.Stackable,
	}
	if err := item.Validate(); err != nil {
		respondError(w, s.logger, invalid(err))
		return
	}

	created, err := s.items.Create(r.Context(), item)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, newItemView(created))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.List(r.Context())
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	views := make([]itemView, 0, len(items))
	for _, i := range items {
		views = append(views, newItemView(i))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetInventory(w http.ResponseWriter, r *http.Request) {
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

	sheet, err := s.items.SheetFor(r.Context(), ch.ID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newInventoryView(sheet, ch.Abilities.Strength))
}

func (s *Server) handleSaveInventory(w http.ResponseWriter, r *http.Request) {
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

	var reqs []entryRequest
	if err := decodeJSON(r, &reqs); err != nil {
		respondError(w, s.logger, err)
		return
	}

	// Rebuild the sheet line by line so slot conflicts and stack rules are
	// enforced before anything is persisted.
	sheet := inventory.NewSheet()
	for _, line := range reqs {
		item, err := s.items.GetByID(r.Context(), line.ItemID)
		if err != nil {
			respondError(w, s.logger, err)
			return
		}
		if err := sheet.Add(item, line.Quantity); err != nil {
			respondError(w, s.logger, invalid(err))
			return
		}
		if line.Equipped {
			if err := sheet.Equip(item.ID); err != nil {
				respondError(w, s.logger, invalid(err))
				return
			}
		}
	}

	if err := s.items.SaveSheet(r.Context(), ch.ID, sheet); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newInventoryView(sheet, ch.Abilities.Strength))
}
