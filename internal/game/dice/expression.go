package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadExpression reports an expression that could not be parsed or that
// exceeds the table limits. Use errors.Is to detect it.
var ErrBadExpression = errors.New("dice: bad expression")

// Limits on a single expression. Anything a table would legitimately roll
// fits well inside these; they mostly guard against chat-typed garbage.
const (
	maxCount = 100
	maxSides = 1000
)

// KeepMode selects which dice survive a keep rule.
type KeepMode int

const (
	KeepAll     KeepMode = iota // no keep rule, every die counts
	KeepHighest                 // "khN": keep the N highest dice
	KeepLowest                  // "klN": keep the N lowest dice
)

// Expression is a parsed roll expression ready to be evaluated.
//
// Invariant: after a successful Parse, 1 <= Count <= maxCount and
// 2 <= Sides <= maxSides, and Keep is in [1, Count) whenever Mode != KeepAll.
type Expression struct {
	Raw      string   // original input string
	Count    int      // number of dice
	Sides    int      // faces per die
	Modifier int      // flat modifier (may be negative)
	Mode     KeepMode // keep rule, KeepAll when absent
	Keep     int      // dice kept when Mode != KeepAll
}

// exprPattern matches the grammar: [count] 'd' sides [keep rule] [modifier].
// Examples: "d20", "2d6", "2d6+3", "4d8-2", "4d6kh3", "2d20kl1+5".
var exprPattern = regexp.MustCompile(`^([0-9]*)d([0-9]+)(k[hl][0-9]+)?([+-][0-9]+)?$`)

// Parse parses a roll expression. Input is case-insensitive and may not
// contain spaces.
//
// Postcondition: the returned Expression satisfies the type invariant, or
// the error wraps ErrBadExpression.
func Parse(expr string) (Expression, error) {
	raw := expr
	m := exprPattern.FindStringSubmatch(strings.ToLower(expr))
	if m == nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrBadExpression, raw)
	}

	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	if count < 1 || count > maxCount {
		return Expression{}, fmt.Errorf("%w: die count in %q must be between 1 and %d", ErrBadExpression, raw, maxCount)
	}

	sides, _ := strconv.Atoi(m[2])
	if sides < 2 || sides > maxSides {
		return Expression{}, fmt.Errorf("%w: die sides in %q must be between 2 and %d", ErrBadExpression, raw, maxSides)
	}

	mode, keep := KeepAll, 0
	if m[3] != "" {
		if m[3][1] == 'h' {
			mode = KeepHighest
		} else {
			mode = KeepLowest
		}
		keep, _ = strconv.Atoi(m[3][2:])
		if keep < 1 || keep >= count {
			return Expression{}, fmt.Errorf("%w: keep value %d in %q must be in [1, %d)", ErrBadExpression, keep, raw, count)
		}
	}

	modifier := 0
	if m[4] != "" {
		modifier, _ = strconv.Atoi(m[4])
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
		Mode:     mode,
		Keep:     keep,
	}, nil
}
