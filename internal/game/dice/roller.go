package dice

import (
	"sort"

	"go.uber.org/zap"
)

// Roller evaluates expressions against a Source and logs every roll, so a
// game master can reconstruct any contested result from the server logs.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws randomness from src and logs
// each roll to logger at debug level.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// RollExpr parses and evaluates expr in one call.
//
// Postcondition: returns a RollResult, or an error wrapping ErrBadExpression
// when expr does not parse.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Roll evaluates a parsed expression.
//
// Precondition: e must come from Parse.
// Postcondition: len(result.Dice) == e.Count when e.Mode == KeepAll, and
// len(result.Dice) == e.Keep otherwise.
func (r *Roller) Roll(e Expression) RollResult {
	result := evaluate(e, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Ints("dropped", result.Dropped),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// evaluate rolls every die of e and applies its keep rule.
func evaluate(e Expression, src Source) RollResult {
	rolled := make([]int, e.Count)
	for i := range rolled {
		rolled[i] = src.Intn(e.Sides) + 1
	}

	result := RollResult{
		Expression: e.Raw,
		Dice:       rolled,
		Modifier:   e.Modifier,
	}
	if e.Mode == KeepAll {
		return result
	}

	// Rank indices rather than values so Dropped preserves roll order.
	order := make([]int, e.Count)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if e.Mode == KeepHighest {
			return rolled[order[a]] > rolled[order[b]]
		}
		return rolled[order[a]] < rolled[order[b]]
	})

	keep := make(map[int]bool, e.Keep)
	for _, idx := range order[:e.Keep] {
		keep[idx] = true
	}

	result.Dice = make([]int, 0, e.Keep)
	result.Dropped = make([]int, 0, e.Count-e.Keep)
	for i, v := range rolled {
		if keep[i] {
			result.Dice = append(result.Dice, v)
		} else {
			result.Dropped = append(result.Dropped, v)
		}
	}
	return result
}
