package tiny

import (
	"fmt"
	"os"
	"strings"
)

// Host is the embedding API: it owns a State under construction,
// accepts type/function/constant bindings from the embedding program,
// compiles script sources into it, and drives Threads over the result
// (spec.md §6).
//
// Grounded on the teacher's api.go/api_internal.go split (a thin
// public surface delegating to internal helpers for grammar loading
// and compilation), adapted from PEG grammar loading to Tiny's
// foreign-binding + compile + run lifecycle.
type Host struct {
	state        *State
	foreignTypes map[string]bool
}

// NewHost creates a Host ready to accept bindings and compile sources.
// cfg may be nil, in which case NewConfig's defaults apply.
func NewHost(cfg *Config) *Host {
	return &Host{
		state:        NewState(cfg),
		foreignTypes: make(map[string]bool),
	}
}

// State exposes the Host's underlying compiled State, for callers that
// need to construct Threads directly.
func (h *Host) State() *State { return h.state }

// RegisterType declares a foreign (host-owned) type name so script
// source can reference it in type position and `cast` expressions
// (spec.md §3, §6).
func (h *Host) RegisterType(name string) {
	h.foreignTypes[name] = true
}

// typeByName resolves one signature type token to a Type: one of the
// primitive tags (void/bool/int/float/str/any) or a name previously
// passed to RegisterType.
func (h *Host) typeByName(name string) (*Type, error) {
	switch name {
	case "void":
		return VoidType, nil
	case "bool":
		return BoolType, nil
	case "int":
		return IntType, nil
	case "float":
		return FloatType, nil
	case "str":
		return StringType, nil
	case "any":
		return AnyType, nil
	default:
		if h.foreignTypes[name] {
			return ForeignType(name), nil
		}
		return nil, fmt.Errorf("unknown type %q", name)
	}
}

// BindFunction registers a native Go function under spec.md §6's
// signature grammar:
//
//	sig    := name [ "(" params ")" [ ":" type ] ]
//	params := /* empty */ | "..." | type ("," type)* [ "," "..." ]
//	type   := identifier // a primitive tag or a RegisterType'd name
//
// A missing parameter list means fully untyped and variadic (any...) :
// any. Missing ": type" means a void return. Whitespace around tokens
// is ignored.
//
// Examples: "print(any, ...): void" binds a variadic void function
// whose first argument is `any`; "clamp(float, float): float" binds a
// two-float function returning float; bare "trace" binds
// `trace(any...) : any`.
//
// Grounded on the teacher's grammar_builtin_handler.go, which binds
// native Go funcs into the grammar's callable namespace by name at
// setup time rather than via reflection over Go function signatures.
func (h *Host) BindFunction(signature string, fn ForeignFunc) error {
	name, params, variadic, ret, err := h.parseSignature(signature)
	if err != nil {
		return fmt.Errorf("bind %q: %w", signature, err)
	}
	sym, err := h.state.Symbols.DeclareForeign(name, params, variadic, ret, Pos{})
	if err != nil {
		return err
	}
	h.state.Foreigns = append(h.state.Foreigns, &ForeignBinding{
		Name:       name,
		Fn:         fn,
		ParamTypes: params,
		Variadic:   variadic,
		ReturnType: ret,
	})
	if sym.ForeignIndex != len(h.state.Foreigns)-1 {
		return fmt.Errorf("foreign index mismatch (symtab/host out of sync)")
	}
	return nil
}

// parseSignature implements the grammar documented on BindFunction.
func (h *Host) parseSignature(sig string) (name string, params []*Type, variadic bool, ret *Type, err error) {
	s := strings.TrimSpace(sig)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		name = strings.TrimSpace(s)
		if name == "" {
			return "", nil, false, nil, fmt.Errorf("missing function name")
		}
		return name, nil, true, AnyType, nil
	}
	name = strings.TrimSpace(s[:open])
	if name == "" {
		return "", nil, false, nil, fmt.Errorf("missing function name")
	}
	shut := strings.IndexByte(s[open:], ')')
	if shut < 0 {
		return "", nil, false, nil, fmt.Errorf("unterminated parameter list")
	}
	shut += open

	paramList := strings.TrimSpace(s[open+1 : shut])
	if paramList != "" && paramList != "..." {
		for _, raw := range strings.Split(paramList, ",") {
			tname := strings.TrimSpace(raw)
			if tname == "..." {
				variadic = true
				continue
			}
			t, terr := h.typeByName(tname)
			if terr != nil {
				return "", nil, false, nil, terr
			}
			params = append(params, t)
		}
	} else if paramList == "..." {
		variadic = true
	}

	ret = VoidType
	rest := strings.TrimSpace(s[shut+1:])
	if rest != "" {
		rest = strings.TrimPrefix(rest, ":")
		tname := strings.TrimSpace(rest)
		t, terr := h.typeByName(tname)
		if terr != nil {
			return "", nil, false, nil, terr
		}
		ret = t
	}
	return name, params, variadic, ret, nil
}

// BindConstBool/Int/Float/String declare a compile-time constant in
// the shared global namespace, the same namespace `::` literal
// bindings populate inside script source (spec.md §4.2).
func (h *Host) BindConstBool(name string, v bool) error {
	sym, err := h.state.Symbols.DeclareConstant(name, BoolType, Pos{})
	if err != nil {
		return err
	}
	sym.ConstBool = v
	return nil
}

func (h *Host) BindConstInt(name string, v int64) error {
	sym, err := h.state.Symbols.DeclareConstant(name, IntType, Pos{})
	if err != nil {
		return err
	}
	sym.ConstInt = v
	return nil
}

func (h *Host) BindConstFloat(name string, v float64) error {
	sym, err := h.state.Symbols.DeclareConstant(name, FloatType, Pos{})
	if err != nil {
		return err
	}
	sym.ConstFloat = v
	return nil
}

func (h *Host) BindConstString(name string, v string) error {
	sym, err := h.state.Symbols.DeclareConstant(name, StringType, Pos{})
	if err != nil {
		return err
	}
	sym.ConstStr = v
	return nil
}

// CompileString runs the lex -> parse -> resolve -> codegen pipeline
// over `source`, named `name` in diagnostics, appending its generated
// code and globals onto the Host's State (spec.md §4).
func (h *Host) CompileString(name, source string) error {
	fileID := h.state.Sources.Add(name, []byte(source))
	annotate := func(err error) error {
		if ce, ok := err.(CompileError); ok && ce.Snippet == "" {
			ce.Snippet = h.state.Sources.Caret(ce.Pos)
			return ce
		}
		return err
	}

	p, err := NewParser(fileID, source, h.state.Symbols, h.foreignTypes)
	if err != nil {
		return annotate(err)
	}
	prog, err := p.ParseProgram()
	if err != nil {
		return annotate(err)
	}
	if err := NewResolver(h.state.Symbols).Resolve(prog); err != nil {
		return annotate(err)
	}

	gen := NewCodeGen(h.state.Strings, h.state.Floats)
	if n := len(h.state.Code); n > 0 {
		// continue after the previous compilation, overwriting its OpHalt
		gen.code = h.state.Code[: n-1 : n-1]
	}
	funcs := gen.Generate(prog, h.state.Symbols)
	copy(funcs, h.state.Funcs)

	h.state.Code = gen.Bytecode()
	h.state.Funcs = funcs

	globals := h.state.Symbols.Globals()
	h.state.GlobalNames = make([]string, len(globals))
	h.state.GlobalTypes = make([]*Type, len(globals))
	for i, g := range globals {
		h.state.GlobalNames[i] = g.Name
		h.state.GlobalTypes[i] = g.Type
	}
	return nil
}

// CompileFile reads `path` and compiles it via CompileString, naming
// diagnostics after the file's path.
func (h *Host) CompileFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return h.CompileString(path, string(data))
}

// GetFunctionIndex/GetGlobalIndex expose the underlying State's lookup
// helpers, so embedders don't need to reach into Host.State() for the
// common case (spec.md §6).
func (h *Host) GetFunctionIndex(name string) (int, bool) { return h.state.GetFunctionIndex(name) }
func (h *Host) GetGlobalIndex(name string) (int, bool)   { return h.state.GetGlobalIndex(name) }

// NewThread starts a fresh state-thread over the Host's compiled
// program (spec.md §6).
func (h *Host) NewThread() *Thread { return NewThread(h.state) }

// CallFunction invokes a script function by name on an idle thread
// (one not mid-Run), re-entrantly if called from within a foreign
// function during that thread's own Run/ExecuteCycle: it pushes args,
// synthesizes a call frame, and drives execution until that frame (and
// only that frame) returns, handing control back to the caller rather
// than running the rest of the thread's program.
func (h *Host) CallFunction(th *Thread, name string, args []Value) (Value, error) {
	idx, ok := h.GetFunctionIndex(name)
	if !ok {
		return NullValue, fmt.Errorf("no such function %q", name)
	}
	baseFrame := len(th.frames)
	baseSP := th.sp
	for _, a := range args {
		if err := th.push(a); err != nil {
			return NullValue, err
		}
	}
	if err := th.call(idx, len(args)); err != nil {
		return NullValue, err
	}
	if _, err := th.run(0, baseFrame); err != nil {
		return NullValue, err
	}
	if th.err != nil {
		return NullValue, th.err
	}
	// OpReturn leaves exactly one value above baseSP; OpReturnVoid
	// leaves none. sp alone can't tell the two apart when th already
	// held live values from a suspended caller frame (a re-entrant
	// call), so compare against the baseline captured before this
	// call's own args went on the stack.
	if th.sp > baseSP {
		return th.pop(), nil
	}
	return NullValue, nil
}
