package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, src string) *Program {
	t.Helper()
	p, err := NewParser(0, src, NewSymbolTable(), nil)
	require.NoError(t, err)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	return prog
}

func TestParserDeclareStmt(t *testing.T) {
	prog := parseProgram(t, `x := 1 + 2`)
	require.Len(t, prog.Stmts, 1)
	decl, ok := prog.Stmts[0].(*DeclareStmt)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	bin, ok := decl.Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TkPlus, bin.Op)
}

func TestParserOperatorPrecedence(t *testing.T) {
	prog := parseProgram(t, `x := 1 + 2 * 3`)
	decl := prog.Stmts[0].(*DeclareStmt)
	bin := decl.Value.(*BinaryExpr)
	assert.Equal(t, TkPlus, bin.Op)
	_, leftIsLit := bin.Left.(*IntLit)
	assert.True(t, leftIsLit)
	rightMul, ok := bin.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TkStar, rightMul.Op)
}

func TestParserFuncDef(t *testing.T) {
	prog := parseProgram(t, `
func add(a: int, b: int): int {
	return a + b
}
`)
	require.Len(t, prog.Funcs, 1)
	fn := prog.Funcs[0]
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, IntType, fn.Params[0].Type)
}

func TestParserIfElseChain(t *testing.T) {
	prog := parseProgram(t, `
if 1 < 2 {
	a := 1
} else if 2 < 3 {
	b := 2
} else {
	c := 3
}
`)
	require.Len(t, prog.Stmts, 1)
	ifStmt, ok := prog.Stmts[0].(*IfStmt)
	require.True(t, ok)
	elseIf, ok := ifStmt.Else.(*IfStmt)
	require.True(t, ok)
	_, hasFinalElse := elseIf.Else.(*BlockStmt)
	assert.True(t, hasFinalElse)
}

func TestParserStructDef(t *testing.T) {
	prog := parseProgram(t, `
struct Point {
	x: int,
	y: int
}
`)
	require.Len(t, prog.Structs, 1)
	sd := prog.Structs[0]
	assert.Equal(t, "Point", sd.Name)
	require.Len(t, sd.Fields, 2)
	assert.Equal(t, "y", sd.Fields[1].Name)
}

func TestParserUnterminatedBlockErrors(t *testing.T) {
	p, err := NewParser(0, `if 1 < 2 { x := 1`, NewSymbolTable(), nil)
	require.NoError(t, err)
	_, err = p.ParseProgram()
	assert.Error(t, err)
}

func TestParserMissingParenErrors(t *testing.T) {
	p, err := NewParser(0, `x := (1 + 2`, NewSymbolTable(), nil)
	require.NoError(t, err)
	_, err = p.ParseProgram()
	assert.Error(t, err)
}
