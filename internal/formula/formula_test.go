package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		expr string
		vars map[string]float64
		want float64
	}{
		{"constant", "25", nil, 25},
		{"input", "10 + level_bonus", map[string]float64{"level_bonus": 2}, 12},
		{"precedence", "2 + 3 * roll", map[string]float64{"roll": 4}, 14},
		{"negative", "-(5 * staff_count)", map[string]float64{"staff_count": 2}, -10},
		{"math library", "math.floor(roll / 2)", map[string]float64{"roll": 7}, 3},
		{"max", "math.max(1, check - 10)", map[string]float64{"check": 8}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Eval(tc.expr, tc.vars)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestEvalInt_RoundsHalfAwayFromZero(t *testing.T) {
	e := New()

	v, err := e.EvalInt("x / 2", map[string]float64{"x": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = e.EvalInt("x / 2", map[string]float64{"x": -5})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), v)
}

func TestEvalInt_OutOfRange(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		x    float64
	}{
		{"above int64", 1e19},
		{"below int64", -1e19},
		{"exactly two to the 63", 9223372036854775808},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.EvalInt("10 + x", map[string]float64{"x": tc.x})
			require.ErrorIs(t, err, ErrNotNumber)
		})
	}

	v, err := e.EvalInt("x", map[string]float64{"x": 1 << 62})
	require.NoError(t, err)
	assert.Equal(t, int64(1<<62), v)
}

func TestEval_Errors(t *testing.T) {
	e := New()

	_, err := e.Eval("10 +", nil)
	require.ErrorIs(t, err, ErrSyntax)

	_, err = e.Eval("10 + missing", nil)
	require.ErrorIs(t, err, ErrEval)

	_, err = e.Eval("1 / 0", nil)
	require.ErrorIs(t, err, ErrNotNumber)

	_, err = e.Eval("(function() while true do end end)()", nil)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = e.Eval("1", map[string]float64{"bad name": 1})
	require.ErrorIs(t, err, ErrEval)
}

func TestCheck(t *testing.T) {
	e := New()
	require.NoError(t, e.Check("10 + level_bonus * 2"))
	require.ErrorIs(t, e.Check("10 +* 2"), ErrSyntax)
	require.ErrorIs(t, e.Check("repeat until false"), ErrForbidden)

	// Only the math library is loaded
	_, err := e.Eval("os.time()", nil)
	require.ErrorIs(t, err, ErrEval)
}

func TestVariables(t *testing.T) {
	assert.Equal(t, []string{"level_bonus", "roll"}, Variables("10 + level_bonus * math.floor(roll / 2) + 1e3"))
	assert.Empty(t, Variables("42"))
}
