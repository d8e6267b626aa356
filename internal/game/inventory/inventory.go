// Package inventory models items, equipment slots, and carry-capacity math
// for character sheets.
package inventory

import (
	"errors"
	"fmt"
)

// Slot constants for equippable items. SlotNone marks carried-only items.
const (
	SlotNone    = ""
	SlotHead    = "head"
	SlotBody    = "body"
	SlotMain    = "main_hand"
	SlotOff     = "off_hand"
	SlotHands   = "hands"
	SlotFeet    = "feet"
	SlotTrinket = "trinket"
)

// validSlots is the set of recognised equipment slots.
var validSlots = map[string]bool{
	SlotNone: true, SlotHead: true, SlotBody: true, SlotMain: true,
	SlotOff: true, SlotHands: true, SlotFeet: true, SlotTrinket: true,
}

// ValidSlot reports whether slot is a recognised equipment slot.
func ValidSlot(slot string) bool { return validSlots[slot] }

// Item is a catalog entry shared across campaigns.
//
// ID is set by the persistence layer; a zero value indicates an unsaved item.
type Item struct {
	ID          int64
	Name        string
	Description string
	// Slot is the equipment slot, or SlotNone for carried-only items.
	Slot string
	// Weight is in kilograms; fractional weights are common for coins and vials.
	Weight float64
	// Value is in copper pieces.
	Value int
	// Stackable items merge into one inventory line with a quantity.
	Stackable bool
}

// Validate checks the item invariants.
func (i Item) Validate() error {
	var errs []error
	if i.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !ValidSlot(i.Slot) {
		errs = append(errs, fmt.Errorf("unknown slot %q", i.Slot))
	}
	if i.Weight < 0 {
		errs = append(errs, fmt.Errorf("weight must be >= 0, got %g", i.Weight))
	}
	if i.Value < 0 {
		errs = append(errs, fmt.Errorf("value must be >= 0, got %d", i.Value))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item invalid: %v", errs)
	}
	return nil
}

// Entry is one line of a character's inventory.
type Entry struct {
	Item     Item
	Quantity int
	Equipped bool
}

// Sheet is the inventory attached to one character. It is not safe for
// concurrent use; callers serialise access per character.
type Sheet struct {
	entries []Entry
}

// NewSheet creates an empty inventory sheet.
func NewSheet() *Sheet {
	return &Sheet{}
}

// Add inserts quantity of item into the sheet. Stackable items merge into an
// existing unequipped line; everything else gets its own line.
//
// Precondition: quantity must be >= 1.
// Postcondition: Count(item.ID) increases by quantity.
func (s *Sheet) Add(item Item, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be >= 1, got %d", quantity)
	}
	if err := item.Validate(); err != nil {
		return err
	}
	if item.Stackable {
		for i := range s.entries {
			if s.entries[i].Item.ID == item.ID && !s.entries[i].Equipped {
				s.entries[i].Quantity += quantity
				return nil
			}
		}
	}
	s.entries = append(s.entries, Entry{Item: item, Quantity: quantity})
	return nil
}

// Remove takes quantity of the item with itemID out of the sheet, consuming
// unequipped lines first.
//
// Postcondition: Returns an error if fewer than quantity are held; on
// success Count(itemID) decreases by exactly quantity.
func (s *Sheet) Remove(itemID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be >= 1, got %d", quantity)
	}
	if s.Count(itemID) < quantity {
		return fmt.Errorf("not enough of item %d: have %d, want %d", itemID, s.Count(itemID), quantity)
	}

	remaining := quantity
	// Two passes: unequipped lines first, then equipped.
	for _, equippedPass := range []bool{false, true} {
		for i := 0; i < len(s.entries) && remaining > 0; {
			e := &s.entries[i]
			if e.Item.ID != itemID || e.Equipped != equippedPass {
				i++
				continue
			}
			take := min(remaining, e.Quantity)
			e.Quantity -= take
			remaining -= take
			if e.Quantity == 0 {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				continue
			}
			i++
		}
	}
	return nil
}

// Count returns the total quantity held of the item with itemID.
func (s *Sheet) Count(itemID int64) int {
	total := 0
	for _, e := range s.entries {
		if e.Item.ID == itemID {
			total += e.Quantity
		}
	}
	return total
}

// Equip marks one line of the item as equipped.
//
// Postcondition: Returns an error when the item is not held, not equippable,
// or its slot is already occupied.
func (s *Sheet) Equip(itemID int64) error {
	var target *Entry
	for i := range s.entries {
		if s.entries[i].Item.ID == itemID && !s.entries[i].Equipped {
			target = &s.entries[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("item %d not held unequipped", itemID)
	}
	if target.Item.Slot == SlotNone {
		return fmt.Errorf("item %q is not equippable", target.Item.Name)
	}
	for _, e := range s.entries {
		if e.Equipped && e.Item.Slot == target.Item.Slot {
			return fmt.Errorf("slot %q already occupied by %q", target.Item.Slot, e.Item.Name)
		}
	}
	if target.Quantity > 1 {
		// Split one unit off a stack so the rest stays unequipped.
		target.Quantity--
		s.entries = append(s.entries, Entry{Item: target.Item, Quantity: 1, Equipped: true})
		return nil
	}
	target.Equipped = true
	return nil
}

// Unequip clears the equipped flag for the item occupying its slot.
func (s *Sheet) Unequip(itemID int64) error {
	for i := range s.entries {
		if s.entries[i].Item.ID == itemID && s.entries[i].Equipped {
			s.entries[i].Equipped = false
			return nil
		}
	}
	return fmt.Errorf("item %d not equipped", itemID)
}

// Entries returns a copy of the inventory lines.
func (s *Sheet) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// TotalWeight returns the summed weight of all lines.
//
// Postcondition: Returns >= 0.
func (s *Sheet) TotalWeight() float64 {
	total := 0.0
	for _, e := range s.entries {
		total += e.Item.Weight * float64(e.Quantity)
	}
	return total
}

// CarryCapacity returns the weight limit in kilograms for a strength score:
// strength × 7.5, the sheet's encumbrance rule.
//
// Precondition: strength >= 1.
func CarryCapacity(strength int) float64 {
	return float64(strength) * 7.5
}

// Overloaded reports whether the sheet exceeds the capacity for strength.
func (s *Sheet) Overloaded(strength int) bool {
	return s.TotalWeight() > CarryCapacity(strength)
}
