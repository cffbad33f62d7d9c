package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, source string) []Token {
	t.Helper()
	l := NewLexer(0, source)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TkEOF {
			return toks
		}
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "func foo struct Bar")
	kinds := []TokenKind{TkFunc, TkIdent, TkStruct, TkIdent, TkEOF}
	require.Len(t, toks, len(kinds))
	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind)
	}
	assert.Equal(t, "foo", toks[1].Lexeme)
	assert.Equal(t, "Bar", toks[3].Lexeme)
}

func TestLexerIntLiterals(t *testing.T) {
	toks := lexAll(t, "42 0x1F")
	require.Len(t, toks, 3)
	assert.Equal(t, TkInt, toks[0].Kind)
	assert.EqualValues(t, 42, toks[0].IntVal)
	assert.Equal(t, TkInt, toks[1].Kind)
	assert.EqualValues(t, 31, toks[1].IntVal)
}

func TestLexerFloatLiteral(t *testing.T) {
	toks := lexAll(t, "3.14")
	require.Len(t, toks, 2)
	assert.Equal(t, TkFloat, toks[0].Kind)
	assert.InDelta(t, 3.14, toks[0].FloatVal, 1e-9)
}

func TestLexerStringEscapes(t *testing.T) {
	toks := lexAll(t, `"hi\n\t\"there\""`)
	require.Len(t, toks, 2)
	assert.Equal(t, TkString, toks[0].Kind)
	assert.Equal(t, "hi\n\t\"there\"", toks[0].StringVal)
}

func TestLexerCharLiteral(t *testing.T) {
	toks := lexAll(t, `'a' '\n'`)
	require.Len(t, toks, 3)
	assert.Equal(t, TkChar, toks[0].Kind)
	assert.EqualValues(t, 'a', toks[0].CharVal)
	assert.EqualValues(t, '\n', toks[1].CharVal)
}

func TestLexerOperatorsLongestMatch(t *testing.T) {
	toks := lexAll(t, ":= :: == != <= >= += &&")
	kinds := []TokenKind{TkDeclare, TkConstBind, TkEq, TkNeq, TkLe, TkGe, TkPlusAssign, TkAndAnd, TkEOF}
	require.Len(t, toks, len(kinds))
	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestLexerSkipsLineComments(t *testing.T) {
	toks := lexAll(t, "1 // a comment\n2")
	require.Len(t, toks, 3)
	assert.EqualValues(t, 1, toks[0].IntVal)
	assert.EqualValues(t, 2, toks[1].IntVal)
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	l := NewLexer(0, `"unterminated`)
	_, err := l.Next()
	assert.Error(t, err)
}

func TestLexerBadEscapeErrors(t *testing.T) {
	l := NewLexer(0, `"\q"`)
	_, err := l.Next()
	assert.Error(t, err)
}
