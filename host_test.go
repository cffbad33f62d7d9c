package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostBindFunctionSignatureGrammar(t *testing.T) {
	cases := []struct {
		sig      string
		wantName string
		wantN    int
		variadic bool
		wantRet  TypeKind
	}{
		{"trace", "trace", 0, true, TypeAny},
		{"time(): int", "time", 0, false, TypeInt},
		{"clamp(float, float): float", "clamp", 2, false, TypeFloat},
		{"print(any, ...): void", "print", 1, true, TypeVoid},
		{"noop()", "noop", 0, false, TypeVoid},
	}
	for _, c := range cases {
		h := NewHost(nil)
		err := h.BindFunction(c.sig, func(th *Thread, args []Value) (Value, error) {
			return NullValue, nil
		})
		require.NoError(t, err, c.sig)
		sym, ok := h.state.Symbols.ReferenceFunction(c.wantName)
		require.True(t, ok, c.sig)
		require.Equal(t, SymForeign, sym.Kind, c.sig)
		assert.Len(t, sym.ParamTypes, c.wantN, c.sig)
		assert.Equal(t, c.variadic, sym.Variadic, c.sig)
		assert.Equal(t, c.wantRet, sym.ReturnType.Kind, c.sig)
	}
}

func TestHostBindFunctionForeignParamType(t *testing.T) {
	h := NewHost(nil)
	h.RegisterType("file")
	err := h.BindFunction("fsize(file): int", func(th *Thread, args []Value) (Value, error) {
		return IntValue(0), nil
	})
	require.NoError(t, err)

	sym, ok := h.state.Symbols.ReferenceFunction("fsize")
	require.True(t, ok)
	require.Len(t, sym.ParamTypes, 1)
	assert.Equal(t, TypeForeign, sym.ParamTypes[0].Kind)
	assert.Equal(t, "file", sym.ParamTypes[0].Name)
}

func TestHostBindFunctionUnknownTypeErrors(t *testing.T) {
	h := NewHost(nil)
	err := h.BindFunction("f(bogus): int", func(th *Thread, args []Value) (Value, error) {
		return NullValue, nil
	})
	assert.Error(t, err)
}

func TestHostCompileAndRun(t *testing.T) {
	h := NewHost(nil)
	var got int64
	require.NoError(t, h.BindFunction("record(int): void", func(th *Thread, args []Value) (Value, error) {
		got = args[0].I
		return NullValue, nil
	}))
	require.NoError(t, h.BindConstInt("ANSWER", 42))

	src := `record(ANSWER)`
	require.NoError(t, h.CompileString("test.tiny", src))

	th := h.NewThread()
	require.NoError(t, th.Run())
	assert.EqualValues(t, 42, got)
}

func TestHostCallFunctionReentrant(t *testing.T) {
	h := NewHost(nil)

	src := `
func double(x: int): int {
	return x * 2
}
`
	require.NoError(t, h.CompileString("test.tiny", src))

	th := h.NewThread()
	idx, ok := h.GetFunctionIndex("double")
	require.True(t, ok)

	result, err := h.CallFunction(th, "double", []Value{IntValue(21)})
	require.NoError(t, err)
	assert.EqualValues(t, 42, result.I)
	assert.GreaterOrEqual(t, idx, 0)
}

// TestHostCallFunctionReentrantVoidDoesNotLeakCallerStack exercises a
// foreign function that itself calls CallFunction on the same thread
// mid-Run, while the thread's operand stack already holds a value left
// by the suspended outer expression. A void-returning nested call must
// not be mistaken for one that pushed a result and pop that live value
// instead (see CallFunction's baseSP bookkeeping).
func TestHostCallFunctionReentrantVoidDoesNotLeakCallerStack(t *testing.T) {
	h := NewHost(nil)

	var nestedResult Value
	var nestedErr error
	require.NoError(t, h.BindFunction("poke(): int", func(th *Thread, args []Value) (Value, error) {
		nestedResult, nestedErr = h.CallFunction(th, "mark", nil)
		return IntValue(7), nil
	}))

	src := `
func mark(): void {
	return
}

y := 1 + poke()
`
	require.NoError(t, h.CompileString("test.tiny", src))

	th := h.NewThread()
	require.NoError(t, th.Run())
	require.NoError(t, nestedErr)
	assert.Equal(t, NullValue, nestedResult)

	idx, ok := th.state.GetGlobalIndex("y")
	require.True(t, ok)
	assert.EqualValues(t, 8, th.GetGlobal(idx).I)
}

func TestHostBindConstValues(t *testing.T) {
	h := NewHost(nil)
	require.NoError(t, h.BindConstBool("DEBUG", true))
	require.NoError(t, h.BindConstInt("MAX", 100))
	require.NoError(t, h.BindConstFloat("PI", 3.14))
	require.NoError(t, h.BindConstString("NAME", "tiny"))

	sym, ok := h.state.Symbols.ReferenceVariable("NAME")
	require.True(t, ok)
	assert.Equal(t, SymConstant, sym.Kind)
	assert.Equal(t, "tiny", sym.ConstStr)
}
