package dice_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/chronique-jdr/chronique/internal/game/dice"
)

// scriptedSource replays a fixed sequence of values, so roll outcomes are
// deterministic in tests. Intn(n) returns the next scripted value mod n.
type scriptedSource struct {
	values []int
	next   int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

func TestParse(t *testing.T) {
	cases := []struct {
		expr string
		want dice.Expression
	}{
		{"d20", dice.Expression{Raw: "d20", Count: 1, Sides: 20}},
		{"2d6", dice.Expression{Raw: "2d6", Count: 2, Sides: 6}},
		{"2d6+3", dice.Expression{Raw: "2d6+3", Count: 2, Sides: 6, Modifier: 3}},
		{"4d8-2", dice.Expression{Raw: "4d8-2", Count: 4, Sides: 8, Modifier: -2}},
		{"4d6kh3", dice.Expression{Raw: "4d6kh3", Count: 4, Sides: 6, Mode: dice.KeepHighest, Keep: 3}},
		{"2d20kl1+5", dice.Expression{Raw: "2d20kl1+5", Count: 2, Sides: 20, Modifier: 5, Mode: dice.KeepLowest, Keep: 1}},
		{"2D6+3", dice.Expression{Raw: "2D6+3", Count: 2, Sides: 6, Modifier: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := dice.Parse(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, expr := range []string{
		"",
		"pas une expression",
		"20",
		"d1",
		"0d6",
		"2d6++3",
		"2 d6",
		"2d6kh2", // keep must be below the count
		"4d6kh0",
		"101d6",  // above the die count limit
		"1d1001", // above the sides limit
	} {
		t.Run(strconv.Quote(expr), func(t *testing.T) {
			_, err := dice.Parse(expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, dice.ErrBadExpression)
		})
	}
}

func TestRoller_RollExpr(t *testing.T) {
	// Scripted values 3 and 4 become die faces 4 and 5.
	src := &scriptedSource{values: []int{3, 4}}
	roller := dice.NewLoggedRoller(src, zaptest.NewLogger(t))

	result, err := roller.RollExpr("2d6+3")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, result.Dice)
	assert.Empty(t, result.Dropped)
	assert.Equal(t, 3, result.Modifier)
	assert.Equal(t, 12, result.Total())
}

func TestRoller_RollExpr_BadExpression(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), zaptest.NewLogger(t))

	_, err := roller.RollExpr("pas une expression")
	require.Error(t, err)
	assert.ErrorIs(t, err, dice.ErrBadExpression)
}

func TestRoller_KeepHighest(t *testing.T) {
	// Faces rolled: 2, 6, 4, 6. kh3 drops the single lowest die.
	src := &scriptedSource{values: []int{1, 5, 3, 5}}
	roller := dice.NewLoggedRoller(src, zaptest.NewLogger(t))

	result, err := roller.RollExpr("4d6kh3")
	require.NoError(t, err)
	assert.Equal(t, []int{6, 4, 6}, result.Dice, "kept dice stay in roll order")
	assert.Equal(t, []int{2}, result.Dropped)
	assert.Equal(t, 16, result.Total())
}

func TestRoller_KeepLowest(t *testing.T) {
	// Faces rolled: 18, 7. kl1 keeps the worse die, as a disadvantage roll.
	src := &scriptedSource{values: []int{17, 6}}
	roller := dice.NewLoggedRoller(src, zaptest.NewLogger(t))

	result, err := roller.RollExpr("2d20kl1")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, result.Dice)
	assert.Equal(t, []int{18}, result.Dropped)
	assert.Equal(t, 7, result.Total())
}

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total())
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, "2d6+3 → [4 5] +3 = 12", r.String())

	r.Dropped = []int{1}
	assert.Equal(t, "2d6+3 → [4 5] +3 = 12 dropped [1]", r.String())
}

func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}}
	assert.Panics(t, func() { _ = r.String() })
}

// TestRollExpr_Property checks the evaluation postconditions over arbitrary
// well-formed expressions: every die lands in [1, Sides], the keep rule
// splits the dice without losing any, and Total() stays consistent with the
// kept dice and the modifier.
func TestRollExpr_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 20).Draw(rt, "count")
		sides := rapid.IntRange(2, 100).Draw(rt, "sides")
		modifier := rapid.IntRange(-50, 50).Draw(rt, "modifier")

		expr := strconv.Itoa(count) + "d" + strconv.Itoa(sides)
		keep := 0
		if count > 1 && rapid.Bool().Draw(rt, "withKeep") {
			keep = rapid.IntRange(1, count-1).Draw(rt, "keep")
			if rapid.Bool().Draw(rt, "highest") {
				expr += "kh" + strconv.Itoa(keep)
			} else {
				expr += "kl" + strconv.Itoa(keep)
			}
		}
		if modifier >= 0 {
			expr += "+" + strconv.Itoa(modifier)
		} else {
			expr += strconv.Itoa(modifier)
		}

		roller := dice.NewLoggedRoller(dice.NewCryptoSource(), zap.NewNop())
		result, err := roller.RollExpr(expr)
		require.NoError(rt, err)

		wantKept := count
		if keep > 0 {
			wantKept = keep
		}
		assert.Len(rt, result.Dice, wantKept)
		assert.Len(rt, result.Dropped, count-wantKept)

		for _, d := range append(append([]int{}, result.Dice...), result.Dropped...) {
			assert.GreaterOrEqual(rt, d, 1)
			assert.LessOrEqual(rt, d, sides)
		}
		sum := modifier
		for _, d := range result.Dice {
			sum += d
		}
		assert.Equal(rt, sum, result.Total())
		assert.True(rt, strings.Contains(result.String(), expr))
	})
}

func TestCryptoSource_Intn(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
	assert.Panics(t, func() { src.Intn(0) })
}
