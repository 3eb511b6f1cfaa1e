package mylisp

// Env is the flat symbol table consulted during symbol reduction. Entries
// hold private copies; nothing returned by Get aliases an entry.
//
// Env is not safe for concurrent use. Callers sharing one Env across
// goroutines must serialize Get and Put (see Core).
type Env struct {
	syms    []string
	vals    []Value
	version uint64
}

// NewEnv returns an empty Env with no builtins bound.
func NewEnv() *Env {
	return &Env{}
}

// NewGlobalEnv returns an Env with every builtin bound.
func NewGlobalEnv() *Env {
	e := NewEnv()
	AddBuiltins(e)
	return e
}

// Get returns a copy of the value bound to name, or an UnboundSymbol error.
func (e *Env) Get(name string) Value {
	for i, s := range e.syms {
		if s == name {
			return e.vals[i].Copy()
		}
	}
	return Errorf(ErrUnboundSymbol, "unbound symbol: %s", name)
}

// Put binds name to a copy of v, replacing any existing binding.
func (e *Env) Put(name string, v Value) {
	e.version++
	for i, s := range e.syms {
		if s == name {
			e.vals[i] = v.Copy()
			return
		}
	}
	e.syms = append(e.syms, name)
	e.vals = append(e.vals, v.Copy())
}

// Has reports whether name is bound.
func (e *Env) Has(name string) bool {
	for _, s := range e.syms {
		if s == name {
			return true
		}
	}
	return false
}

// Names returns bound names in insertion order.
func (e *Env) Names() []string {
	names := make([]string, len(e.syms))
	copy(names, e.syms)
	return names
}

func (e *Env) Len() int {
	return len(e.syms)
}

// Version increases on every Put.
func (e *Env) Version() uint64 {
	return e.version
}
