// Package formula evaluates effect formulas such as "10 + level_bonus".
//
// Formulas are Lua arithmetic expressions evaluated in a fresh interpreter
// with only the math library loaded. Variables are bound as globals.
package formula

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/Shopify/go-lua"
)

// Built-in variables the engine binds for every order resolution
const (
	VarRoll       = "roll"
	VarStaffCount = "staff_count"
	VarStaffLevel = "staff_level"
	VarTurn       = "turn"
)

// Builtins lists the names bound by the engine in addition to order inputs
var Builtins = []string{VarRoll, VarStaffCount, VarStaffLevel, VarTurn}

var (
	// ErrSyntax indicates the formula does not parse.
	ErrSyntax = errors.New("formula syntax error")
	// ErrEval indicates the formula failed at runtime, e.g. an unbound variable.
	ErrEval = errors.New("formula evaluation failed")
	// ErrNotNumber indicates the formula produced a non-numeric or non-finite value.
	ErrNotNumber = errors.New("formula result is not a number")
	// ErrForbidden indicates the formula uses a statement keyword.
	ErrForbidden = errors.New("formula uses a forbidden construct")
)

var (
	identRe     = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	validNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Formulas are expressions; anything that could loop or define code is refused
var forbidden = map[string]bool{
	"function": true, "while": true, "repeat": true, "until": true,
	"for": true, "goto": true, "do": true, "end": true, "local": true, "return": true,
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "nil": true, "true": true, "false": true,
	"if": true, "then": true, "else": true, "elseif": true, "in": true, "break": true,
}

// Evaluator compiles and evaluates formulas. The zero value is ready to use.
type Evaluator struct{}

// New returns an Evaluator
func New() *Evaluator {
	return &Evaluator{}
}

// Check reports whether expr compiles
func (e *Evaluator) Check(expr string) error {
	if err := checkTokens(expr); err != nil {
		return err
	}
	l := newState()
	if err := lua.LoadString(l, chunk(expr)); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSyntax, expr, err)
	}
	return nil
}

// Eval evaluates expr with vars bound as globals
func (e *Evaluator) Eval(expr string, vars map[string]float64) (float64, error) {
	if err := checkTokens(expr); err != nil {
		return 0, err
	}
	l := newState()

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !validNameRe.MatchString(name) || keywords[name] || forbidden[name] {
			return 0, fmt.Errorf("%w: invalid variable name %q", ErrEval, name)
		}
		l.PushNumber(vars[name])
		l.SetGlobal(name)
	}

	if err := lua.LoadString(l, chunk(expr)); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrSyntax, expr, err)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrEval, expr, err)
	}
	v, ok := l.ToNumber(-1)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, expr)
	}
	return v, nil
}

// EvalInt evaluates expr and rounds half away from zero
func (e *Evaluator) EvalInt(expr string, vars map[string]float64) (int64, error) {
	v, err := e.Eval(expr, vars)
	if err != nil {
		return 0, err
	}
	r := math.Round(v)
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return 0, fmt.Errorf("%w: %q = %g is out of integer range", ErrNotNumber, expr, v)
	}
	return int64(r), nil
}

// Variables returns the free variable names referenced by expr, sorted.
// Library members such as math.floor are not reported.
func Variables(expr string) []string {
	seen := make(map[string]bool)
	for _, loc := range identRe.FindAllStringIndex(expr, -1) {
		name := expr[loc[0]:loc[1]]
		if loc[0] > 0 && expr[loc[0]-1] == '.' {
			continue
		}
		// Digits glued to a name, as in 1e5, are part of a number literal
		if loc[0] > 0 && isDigit(expr[loc[0]-1]) {
			continue
		}
		if keywords[name] || forbidden[name] || name == "math" {
			continue
		}
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func checkTokens(expr string) error {
	for _, name := range identRe.FindAllString(expr, -1) {
		if forbidden[name] {
			return fmt.Errorf("%w: %q in %q", ErrForbidden, name, expr)
		}
	}
	return nil
}

func chunk(expr string) string {
	return "return (" + expr + ")"
}

func newState() *lua.State {
	l := lua.NewState()
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)
	return l
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
