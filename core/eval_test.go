package mylisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEval(t *testing.T, env *Env, input, expected string) {
	t.Helper()
	var ev Evaluator
	val, err := ev.EvalString(env, input)
	require.NoError(t, err, "eval %q", input)
	assert.Equal(t, expected, val.String(), "eval %q", input)
}

func testEvalError(t *testing.T, env *Env, input string, kind ErrorKind) {
	t.Helper()
	var ev Evaluator
	val, err := ev.EvalString(env, input)
	require.NoError(t, err, "eval %q", input)
	assert.True(t, val.IsErr(kind), "eval %q: expected %s error, got %s", input, kind, val)
}

// --- Atoms ---

func TestEvalAtoms(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "42", "42")
	testEval(t, env, "-7", "-7")
	testEval(t, env, "{1 2 (+ 1 2)}", "{1 2 (+ 1 2)}")
	testEval(t, env, "", "()")
	testEval(t, env, "()", "()")
	testEval(t, env, "+", "<function>")
}

func TestEvalSingleChildCollapses(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "(5)", "5")
	testEval(t, env, "((((5))))", "5")
	testEval(t, env, "({1 2})", "{1 2}")
}

// --- Arithmetic ---

func TestEvalArithmetic(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "(+ 1 2)", "3")
	testEval(t, env, "+ 1 2 3", "6")
	testEval(t, env, "(- 5)", "-5")
	testEval(t, env, "- 10 3 2", "5")
	testEval(t, env, "* 2 3 4", "24")
	testEval(t, env, "(/ 6 3)", "2")
	testEval(t, env, "/ 7 2", "3")
	testEval(t, env, "/ -7 2", "-3")
	testEval(t, env, "+ 1 (* 2 3) (- 10 4)", "13")
	testEval(t, env, "+ 5", "5")
}

func TestEvalArithmeticWraps(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "+ 9223372036854775807 1", "-9223372036854775808")
	testEval(t, env, "/ -9223372036854775808 -1", "-9223372036854775808")
}

func TestEvalArithmeticErrors(t *testing.T) {
	env := NewGlobalEnv()
	testEvalError(t, env, "(/ 1 0)", ErrDivisionByZero)
	testEvalError(t, env, "/ 10 2 0", ErrDivisionByZero)
	testEvalError(t, env, "(+)", ErrArityMismatch)
	testEvalError(t, env, "+ 1 {2}", ErrTypeMismatch)
	testEvalError(t, env, "* 2 +", ErrTypeMismatch)
	testEvalError(t, env, "+ 1 99999999999999999999", ErrInvalidNumber)
}

// --- Q-expressions ---

func TestEvalList(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "(list 1 2 3)", "{1 2 3}")
	testEval(t, env, "list (+ 1 1) {a}", "{2 {a}}")
	testEval(t, env, "list", "<function>")
}

func TestEvalFirstLast(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "first (list 1 2 3)", "{1}")
	testEval(t, env, "last (list 1 2 3)", "{2 3}")
	testEval(t, env, "eval (first {1 2 3})", "1")
	testEval(t, env, "last {1}", "{}")
	testEval(t, env, "first {(+ 1 2) 4}", "{(+ 1 2)}")

	testEvalError(t, env, "first {}", ErrEmptyCollection)
	testEvalError(t, env, "last {}", ErrEmptyCollection)
	testEvalError(t, env, "first {1} {2}", ErrArityMismatch)
	testEvalError(t, env, "first 1", ErrTypeMismatch)
}

func TestEvalJoin(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "(join {1 2} {3 4})", "{1 2 3 4}")
	testEval(t, env, "join {} {1} {} {2 3}", "{1 2 3}")
	testEval(t, env, "join {a}", "{a}")
	testEvalError(t, env, "join {1} 2", ErrTypeMismatch)
}

func TestEvalEval(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "(eval {+ 1 2})", "3")
	testEval(t, env, "eval {}", "()")
	testEval(t, env, "eval (join {+} {1 2})", "3")
	testEval(t, env, "eval (first {+ - *})", "<function>")
	testEvalError(t, env, "(eval (list 1 2 3))", ErrNotAFunction)
	testEvalError(t, env, "eval 1", ErrTypeMismatch)
}

// --- Symbols and def ---

func TestEvalDef(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "def {x} 10", "()")
	testEval(t, env, "x", "10")
	testEval(t, env, "def {a b} 1 2", "()")
	testEval(t, env, "+ a b x", "13")
	testEval(t, env, "def {x} {1 2}", "()")
	testEval(t, env, "x", "{1 2}")
}

func TestEvalDefDuplicateSymbols(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "def {x x} 1 2", "()")
	testEval(t, env, "x", "2")
	assert.Equal(t, 11, env.Len())
}

func TestEvalDefComputedSymbols(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "def {names} {p q}", "()")
	testEval(t, env, "def names 3 4", "()")
	testEval(t, env, "* p q", "12")
}

func TestEvalDefRebindBuiltin(t *testing.T) {
	env := NewGlobalEnv()
	testEval(t, env, "def {plus} +", "()")
	testEval(t, env, "plus 2 2", "4")
	testEval(t, env, "def {+} 1", "()")
	testEvalError(t, env, "+ 1 2", ErrNotAFunction)
}

func TestEvalDefErrorsLeaveEnvUnchanged(t *testing.T) {
	env := NewGlobalEnv()
	before := env.Names()
	version := env.Version()

	testEvalError(t, env, "def {x y} 1 2 3", ErrArityMismatch)
	testEvalError(t, env, "def {x 1} 1 2", ErrTypeMismatch)
	testEvalError(t, env, "def x 1", ErrUnboundSymbol)
	testEvalError(t, env, "def 1 1", ErrTypeMismatch)

	assert.Equal(t, before, env.Names())
	assert.Equal(t, version, env.Version())
	assert.False(t, env.Has("x"))
}

func TestEvalDefEmpty(t *testing.T) {
	env := NewGlobalEnv()
	ev := Evaluator{}
	v := ev.Eval(env, SExprVal(SymVal("def"), QExprVal()))
	assert.Equal(t, "()", v.String())
	v = builtinDef(&ev, env, SExprVal())
	assert.True(t, v.IsErr(ErrArityMismatch))
}

func TestEvalUnbound(t *testing.T) {
	env := NewGlobalEnv()
	testEvalError(t, env, "(foo)", ErrUnboundSymbol)
	testEvalError(t, env, "foo", ErrUnboundSymbol)
	testEvalError(t, env, "+ 1 foo", ErrUnboundSymbol)
}

func TestEvalNotAFunction(t *testing.T) {
	env := NewGlobalEnv()
	testEvalError(t, env, "1 2 3", ErrNotAFunction)
	testEvalError(t, env, "{+} 1 2", ErrNotAFunction)
}

// The first error by position wins, but every child is still evaluated.
func TestEvalFirstErrorWins(t *testing.T) {
	env := NewGlobalEnv()
	var ev Evaluator
	v, err := ev.EvalString(env, "+ (/ 1 0) foo (def {seen} 1)")
	require.NoError(t, err)
	assert.True(t, v.IsErr(ErrDivisionByZero))
	assert.True(t, env.Has("seen"))
}

func TestEvalParseError(t *testing.T) {
	var ev Evaluator
	_, err := ev.EvalString(NewGlobalEnv(), "(+ 1 2")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
}

func TestEvalIndependentEnvs(t *testing.T) {
	a, b := NewGlobalEnv(), NewGlobalEnv()
	testEval(t, a, "def {x} 1", "()")
	testEval(t, a, "x", "1")
	testEvalError(t, b, "x", ErrUnboundSymbol)
}

func TestEvalPackageFunc(t *testing.T) {
	env := NewGlobalEnv()
	v := Eval(env, SExprVal(SymVal("*"), NumVal(6), NumVal(7)))
	assert.Equal(t, NumVal(42), v)
}

func TestEvalTrace(t *testing.T) {
	env := NewGlobalEnv()
	tr := NewTrace("+ 1 (* 2 3)")
	ev := Evaluator{Trace: tr}
	v, err := ev.EvalString(env, tr.Entry)
	require.NoError(t, err)
	tr.Finish(v)

	require.Len(t, tr.Steps, 2)
	assert.Equal(t, Step{Depth: 1, Input: "(* 2 3)", Output: "6"}, tr.Steps[0])
	assert.Equal(t, Step{Depth: 0, Input: "(+ 1 (* 2 3))", Output: "7"}, tr.Steps[1])
	assert.Equal(t, "7", tr.Result)
	assert.Empty(t, tr.Error)
}
