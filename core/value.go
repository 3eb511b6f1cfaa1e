package mylisp

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	ValNum ValueKind = iota
	ValErr
	ValSym
	ValSExpr
	ValQExpr
	ValFun
)

// ErrorKind classifies an Error value.
type ErrorKind int

const (
	ErrUnboundSymbol ErrorKind = iota
	ErrInvalidNumber
	ErrTypeMismatch
	ErrArityMismatch
	ErrEmptyCollection
	ErrDivisionByZero
	ErrNotAFunction
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnboundSymbol:
		return "UnboundSymbol"
	case ErrInvalidNumber:
		return "InvalidNumber"
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrArityMismatch:
		return "ArityMismatch"
	case ErrEmptyCollection:
		return "EmptyCollection"
	case ErrDivisionByZero:
		return "DivisionByZero"
	case ErrNotAFunction:
		return "NotAFunction"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// FunValue references one native builtin.
type FunValue struct {
	Name string
	Call Builtin
}

// Value is the tagged variant for all runtime data. Containers own Cells;
// nothing else may hold a reference to them.
type Value struct {
	Kind    ValueKind
	Num     int64
	Str     string // error message or symbol name
	ErrKind ErrorKind
	Fun     *FunValue
	Cells   []Value
}

// NumVal returns a Number.
func NumVal(n int64) Value { return Value{Kind: ValNum, Num: n} }

// SymVal returns a Symbol named s.
func SymVal(s string) Value { return Value{Kind: ValSym, Str: s} }

// FunVal returns a Function referencing fn.
func FunVal(fn *FunValue) Value { return Value{Kind: ValFun, Fun: fn} }

// ErrVal returns an Error of the given kind.
func ErrVal(kind ErrorKind, msg string) Value {
	return Value{Kind: ValErr, ErrKind: kind, Str: msg}
}

// Errorf builds an Error value with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) Value {
	return ErrVal(kind, fmt.Sprintf(format, args...))
}

// SExprVal returns an S-expression owning cells.
func SExprVal(cells ...Value) Value {
	if cells == nil {
		cells = []Value{}
	}
	return Value{Kind: ValSExpr, Cells: cells}
}

// QExprVal returns a Q-expression owning cells.
func QExprVal(cells ...Value) Value {
	if cells == nil {
		cells = []Value{}
	}
	return Value{Kind: ValQExpr, Cells: cells}
}

// IsErr reports whether v is an Error value, optionally of the given kind.
func (v Value) IsErr(kinds ...ErrorKind) bool {
	if v.Kind != ValErr {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if v.ErrKind == k {
			return true
		}
	}
	return false
}

// Count returns the number of children of a container, 0 otherwise.
func (v Value) Count() int {
	return len(v.Cells)
}

// Copy returns a deep copy. Number, Error, Symbol and Function copy by value;
// containers duplicate every child recursively.
func (v Value) Copy() Value {
	switch v.Kind {
	case ValSExpr, ValQExpr:
		cells := make([]Value, len(v.Cells))
		for i, c := range v.Cells {
			cells[i] = c.Copy()
		}
		v.Cells = cells
		return v
	default:
		v.Cells = nil
		return v
	}
}

// pop removes and returns the child at index i.
func (v *Value) pop(i int) Value {
	x := v.Cells[i]
	v.Cells = append(v.Cells[:i], v.Cells[i+1:]...)
	return x
}

// take removes the child at index i and drops the rest of the container.
func (v *Value) take(i int) Value {
	x := v.pop(i)
	v.Cells = nil
	return x
}

func (v *Value) add(x Value) {
	v.Cells = append(v.Cells, x)
}

// join moves every child of y onto the end of v.
func (v *Value) join(y Value) {
	v.Cells = append(v.Cells, y.Cells...)
}

func (v Value) String() string {
	switch v.Kind {
	case ValNum:
		return strconv.FormatInt(v.Num, 10)
	case ValErr:
		return "Error: " + v.Str
	case ValSym:
		return v.Str
	case ValSExpr:
		return exprString(v.Cells, '(', ')')
	case ValQExpr:
		return exprString(v.Cells, '{', '}')
	case ValFun:
		return "<function>"
	default:
		return fmt.Sprintf("<unknown:%d>", v.Kind)
	}
}

func exprString(cells []Value, open, end byte) string {
	var b strings.Builder
	b.WriteByte(open)
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.String())
	}
	b.WriteByte(end)
	return b.String()
}

func (v Value) KindName() string {
	switch v.Kind {
	case ValNum:
		return "Number"
	case ValErr:
		return "Error"
	case ValSym:
		return "Symbol"
	case ValSExpr:
		return "S-Expression"
	case ValQExpr:
		return "Q-Expression"
	case ValFun:
		return "Function"
	default:
		return "Unknown"
	}
}
