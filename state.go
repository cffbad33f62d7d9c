package tiny

// ForeignFunc is a host-provided native function bound into a State's
// foreign-function table (spec.md §6). It receives the calling
// thread and its arguments (already popped off the value stack by the
// VM) and returns a single Value plus an error that, if non-nil,
// becomes a RuntimeError fatal to that thread only.
type ForeignFunc func(th *Thread, args []Value) (Value, error)

// ForeignBinding pairs a bound native function with the signature
// metadata recorded at bind time, so CALLF can validate arity at
// runtime even though the resolver already checked it at compile
// time (defense for values created via the host API directly).
type ForeignBinding struct {
	Name     string
	Fn       ForeignFunc
	ParamTypes []*Type
	Variadic bool
	ReturnType *Type
}

// State is a compiled Tiny program: bytecode, intern pools, the
// symbol table used to resolve names from the host side, and the
// function/foreign tables the VM's CALL/CALLF instructions index
// into. One State can back many concurrently executing Threads
// (spec.md §6 — "thread" there names a single execution context over
// a shared compiled program, not an OS thread).
//
// Grounded on the teacher's Bytecode/Program split (vm_program.go):
// an immutable compiled artifact consumed by a separate execution
// engine, adapted from PEG programs to Tiny's function+globals shape.
type State struct {
	Code    []byte
	Strings *StringPool
	Floats  *FloatPool
	Sources *SourceSet

	Symbols *SymbolTable
	Funcs   []FuncEntry
	Foreigns []*ForeignBinding

	Config *Config

	GlobalNames []string
	GlobalTypes []*Type
}

func NewState(cfg *Config) *State {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &State{
		Strings: NewStringPool(),
		Floats:  NewFloatPool(),
		Sources: NewSourceSet(),
		Symbols: NewSymbolTable(),
		Config:  cfg,
	}
}

// GetFunctionIndex looks up a script function's index by name, for
// use with Host.CallFunction (spec.md §6).
func (s *State) GetFunctionIndex(name string) (int, bool) {
	sym, ok := s.Symbols.ReferenceFunction(name)
	if !ok || sym.Kind != SymFunction {
		return 0, false
	}
	return sym.FuncIndex, true
}

// GetGlobalIndex looks up a global variable's slot by name, for use
// with Thread.GetGlobal/SetGlobal (spec.md §6).
func (s *State) GetGlobalIndex(name string) (int, bool) {
	sym, ok := s.Symbols.ReferenceVariable(name)
	if !ok || sym.Kind != SymGlobal {
		return 0, false
	}
	return sym.GlobalIndex, true
}
