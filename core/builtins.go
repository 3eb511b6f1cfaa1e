package mylisp

// Builtin is a native function. args is an owned S-expression whose children
// have already been evaluated; the builtin may consume it.
type Builtin func(ev *Evaluator, env *Env, args Value) Value

var builtinTable = []struct {
	name string
	fn   Builtin
}{
	// List
	{"list", builtinList},
	{"first", builtinFirst},
	{"last", builtinLast},
	{"eval", builtinEval},
	{"join", builtinJoin},
	// Arithmetic
	{"+", builtinAdd},
	{"-", builtinSub},
	{"*", builtinMul},
	{"/", builtinDiv},
	// Variables
	{"def", builtinDef},
}

// Builtins returns the builtin registry keyed by name.
func Builtins() map[string]Builtin {
	m := make(map[string]Builtin, len(builtinTable))
	for _, b := range builtinTable {
		m[b.name] = b.fn
	}
	return m
}

// AddBuiltins binds every builtin into env as a Function value.
func AddBuiltins(env *Env) {
	for _, b := range builtinTable {
		env.Put(b.name, FunVal(&FunValue{Name: b.name, Call: b.fn}))
	}
}

// --- List ---

func builtinList(ev *Evaluator, env *Env, args Value) Value {
	args.Kind = ValQExpr
	return args
}

// soleQExpr checks that args holds exactly one Q-expression and returns it.
func soleQExpr(name string, args Value, nonEmpty bool) (Value, bool) {
	if args.Count() != 1 {
		return Errorf(ErrArityMismatch, "%s: expected 1 arg, got %d", name, args.Count()), false
	}
	q := args.Cells[0]
	if q.Kind != ValQExpr {
		return Errorf(ErrTypeMismatch, "%s: expected Q-Expression, got %s", name, q.KindName()), false
	}
	if nonEmpty && q.Count() == 0 {
		return Errorf(ErrEmptyCollection, "%s: empty Q-Expression", name), false
	}
	return args.take(0), true
}

// builtinFirst: (first {a b c}) → {a}
func builtinFirst(ev *Evaluator, env *Env, args Value) Value {
	q, ok := soleQExpr("first", args, true)
	if !ok {
		return q
	}
	q.Cells = q.Cells[:1]
	return q
}

// builtinLast: (last {a b c}) → {b c}
func builtinLast(ev *Evaluator, env *Env, args Value) Value {
	q, ok := soleQExpr("last", args, true)
	if !ok {
		return q
	}
	q.pop(0)
	return q
}

func builtinEval(ev *Evaluator, env *Env, args Value) Value {
	q, ok := soleQExpr("eval", args, false)
	if !ok {
		return q
	}
	q.Kind = ValSExpr
	return ev.Eval(env, q)
}

func builtinJoin(ev *Evaluator, env *Env, args Value) Value {
	if args.Count() == 0 {
		return Errorf(ErrArityMismatch, "join: expected at least 1 arg, got 0")
	}
	for _, c := range args.Cells {
		if c.Kind != ValQExpr {
			return Errorf(ErrTypeMismatch, "join: expected Q-Expression, got %s", c.KindName())
		}
	}
	x := args.pop(0)
	for args.Count() > 0 {
		x.join(args.pop(0))
	}
	return x
}

// --- Arithmetic ---

func builtinAdd(ev *Evaluator, env *Env, args Value) Value { return builtinOp(args, "+") }
func builtinSub(ev *Evaluator, env *Env, args Value) Value { return builtinOp(args, "-") }
func builtinMul(ev *Evaluator, env *Env, args Value) Value { return builtinOp(args, "*") }
func builtinDiv(ev *Evaluator, env *Env, args Value) Value { return builtinOp(args, "/") }

// builtinOp folds args left to right. A lone operand to "-" is negated.
// Overflow wraps.
func builtinOp(args Value, op string) Value {
	if args.Count() == 0 {
		return Errorf(ErrArityMismatch, "%s: expected at least 1 arg, got 0", op)
	}
	for _, c := range args.Cells {
		if c.Kind != ValNum {
			return Errorf(ErrTypeMismatch, "%s: can only operate on numbers, got %s", op, c.KindName())
		}
	}

	x := args.pop(0)
	if op == "-" && args.Count() == 0 {
		x.Num = -x.Num
	}

	for args.Count() > 0 {
		y := args.pop(0)
		switch op {
		case "+":
			x.Num += y.Num
		case "-":
			x.Num -= y.Num
		case "*":
			x.Num *= y.Num
		case "/":
			if y.Num == 0 {
				return ErrVal(ErrDivisionByZero, "division by zero")
			}
			x.Num /= y.Num
		}
	}
	return x
}

// --- Variables ---

// builtinDef: (def {a b} 1 2) binds a=1, b=2 and returns ().
// All checks run before the first binding.
func builtinDef(ev *Evaluator, env *Env, args Value) Value {
	if args.Count() == 0 {
		return Errorf(ErrArityMismatch, "def: expected at least 1 arg, got 0")
	}
	syms := args.Cells[0]
	if syms.Kind != ValQExpr {
		return Errorf(ErrTypeMismatch, "def: first arg must be Q-Expression, got %s", syms.KindName())
	}
	for _, s := range syms.Cells {
		if s.Kind != ValSym {
			return Errorf(ErrTypeMismatch, "def: can only define symbols, got %s", s.KindName())
		}
	}
	if syms.Count() != args.Count()-1 {
		return Errorf(ErrArityMismatch, "def: %d symbols but %d values", syms.Count(), args.Count()-1)
	}

	for i, s := range syms.Cells {
		env.Put(s.Str, args.Cells[i+1])
	}
	return SExprVal()
}
