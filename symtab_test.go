package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTableDeclareGlobalTwiceErrors(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareGlobal("x", IntType, Pos{})
	require.NoError(t, err)
	_, err = st.DeclareGlobal("x", IntType, Pos{})
	assert.Error(t, err)
}

func TestSymbolTableScopeShadowing(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareGlobal("x", IntType, Pos{})
	require.NoError(t, err)

	fnSym, err := st.DeclareFunction("f", Pos{})
	require.NoError(t, err)
	st.EnterFunction(fnSym)
	st.OpenScope()
	_, err = st.DeclareLocal("x", IntType, Pos{})
	require.NoError(t, err)

	sym, ok := st.ReferenceVariable("x")
	require.True(t, ok)
	assert.Equal(t, SymLocal, sym.Kind)

	st.CloseScope()
	sym, ok = st.ReferenceVariable("x")
	require.True(t, ok)
	assert.Equal(t, SymGlobal, sym.Kind)
}

func TestSymbolTableFunctionAndForeignShareNamespace(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareFunction("f", Pos{})
	require.NoError(t, err)
	_, err = st.DeclareForeign("f", nil, false, VoidType, Pos{})
	assert.Error(t, err)
}

func TestSymbolTableStructForwardReference(t *testing.T) {
	st := NewSymbolTable()
	sym, ok := st.ReferenceStruct("Node")
	assert.False(t, ok)
	assert.Nil(t, sym)

	declared := st.DeclareStruct("Node", Pos{})
	require.NotNil(t, declared)
	assert.False(t, declared.Defined)

	sym, ok = st.ReferenceStruct("Node")
	require.True(t, ok)
	assert.Same(t, declared, sym)
}
