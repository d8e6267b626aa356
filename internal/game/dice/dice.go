// Package dice evaluates tabletop roll expressions such as "d20", "2d6+3"
// or "4d6kh3" and keeps an audit trail of every die that hit the table.
package dice

import "fmt"

// Source is the randomness provider behind every roll.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult is the audit trail of one evaluated expression. Dice holds the
// dice that count toward the total; Dropped holds dice discarded by a keep
// rule, in the order they were rolled.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // die results that count toward the total
	Dropped    []int  // die results discarded by a keep rule, if any
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of the kept dice plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	sum := r.Modifier
	for _, d := range r.Dice {
		sum += d
	}
	return sum
}

// String renders the roll for logs and chat transcripts, for example
// "2d6+3 → [4 5] +3 = 12". Dropped dice, when present, are appended as
// "dropped [...]".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	s := fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
	if len(r.Dropped) > 0 {
		s += fmt.Sprintf(" dropped %v", r.Dropped)
	}
	return s
}
