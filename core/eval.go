package mylisp

import (
	"fmt"
)

// Evaluator reduces Values against an Env. The zero value is ready to use.
type Evaluator struct {
	// Trace, when set, records every S-expression reduction.
	Trace *Trace
	depth int
}

// Eval reduces v with a zero Evaluator.
func Eval(env *Env, v Value) Value {
	var ev Evaluator
	return ev.Eval(env, v)
}

// Eval consumes v and returns its reduction.
func (e *Evaluator) Eval(env *Env, v Value) Value {
	switch v.Kind {
	case ValSym:
		return env.Get(v.Str)
	case ValSExpr:
		return e.evalSExpr(env, v)
	case ValNum, ValErr, ValQExpr, ValFun:
		return v
	default:
		return Errorf(ErrTypeMismatch, "cannot evaluate %s", v.KindName())
	}
}

func (e *Evaluator) evalSExpr(env *Env, v Value) Value {
	var input string
	if e.Trace != nil {
		input = v.String()
	}
	e.depth++
	result := e.reduce(env, v)
	e.depth--
	if e.Trace != nil {
		e.Trace.record(e.depth, input, result)
	}
	return result
}

func (e *Evaluator) reduce(env *Env, v Value) Value {
	for i := range v.Cells {
		v.Cells[i] = e.Eval(env, v.Cells[i])
	}

	// Every child is reduced before the first error by index is surfaced.
	for i, c := range v.Cells {
		if c.Kind == ValErr {
			return v.take(i)
		}
	}

	switch v.Count() {
	case 0:
		return v
	case 1:
		return v.take(0)
	}

	f := v.pop(0)
	if f.Kind != ValFun {
		return Errorf(ErrNotAFunction, "first element is not a function: %s", f.KindName())
	}
	return f.Fun.Call(e, env, v)
}

// EvalString parses input, reads the root and evaluates it. Parse failures
// are returned as Go errors; evaluation failures are Error values.
func (e *Evaluator) EvalString(env *Env, input string) (Value, error) {
	v, err := ReadString(input)
	if err != nil {
		return Value{}, fmt.Errorf("parse error: %w", err)
	}
	return e.Eval(env, v), nil
}
