// Package condition models status effects attached to combat participants
// and the static condition catalog loaded from YAML.
package condition

import (
	"errors"
	"fmt"
)

// Condition is one status effect applied to a participant. Conditions are
// inert markers: the server tracks them, the table interprets them. They
// never persist past combat end.
type Condition struct {
	// ID uniquely identifies this application of the effect.
	ID string `json:"id"`
	// Name is the effect name, usually one of the catalog entries.
	Name string `json:"nom"`
	// Metadata carries free-form detail, e.g. {"source": "Sort de terreur"}.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks the condition invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty.
func (c Condition) Validate() error {
	if c.ID == "" {
		return errors.New("condition id must not be empty")
	}
	if c.Name == "" {
		return errors.New("condition name must not be empty")
	}
	return nil
}

// Set tracks the conditions currently applied to one participant, preserving
// application order. It is not safe for concurrent use; the combat engine
// serialises access.
type Set struct {
	order []string
	byID  map[string]Condition
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{byID: make(map[string]Condition)}
}

// Add inserts or replaces a condition keyed by its ID.
//
// Postcondition: Has(c.ID) is true.
func (s *Set) Add(c Condition) {
	if _, ok := s.byID[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.byID[c.ID] = c
}

// Remove deletes the condition with the given ID. Removing an absent
// condition is a no-op.
//
// Postcondition: Has(id) is false.
func (s *Set) Remove(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Has reports whether the condition with id is currently applied.
func (s *Set) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns the condition with the given ID.
func (s *Set) Get(id string) (Condition, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Len returns the number of applied conditions.
func (s *Set) Len() int { return len(s.byID) }

// All returns the conditions in application order. The slice is a new
// allocation; mutating it does not affect the set.
func (s *Set) All() []Condition {
	out := make([]Condition, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	cp := NewSet()
	for _, id := range s.order {
		c := s.byID[id]
		if c.Metadata != nil {
			md := make(map[string]string, len(c.Metadata))
			for k, v := range c.Metadata {
				md[k] = v
			}
			c.Metadata = md
		}
		cp.Add(c)
	}
	return cp
}

// String returns a short debug representation.
func (s *Set) String() string {
	return fmt.Sprintf("conditions%v", s.order)
}
