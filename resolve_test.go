package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileErr(t *testing.T, src string) error {
	t.Helper()
	h := NewHost(nil)
	return h.CompileString("test.tiny", src)
}

func TestResolveTypeMismatchOnDeclareErrors(t *testing.T) {
	err := compileErr(t, `x : int = "nope"`)
	assert.Error(t, err)
}

func TestResolveUndeclaredVariableErrors(t *testing.T) {
	err := compileErr(t, `y := x + 1`)
	assert.Error(t, err)
}

func TestResolveCallArityMismatchErrors(t *testing.T) {
	err := compileErr(t, `
func f(a: int, b: int): int {
	return a + b
}
z := f(1)
`)
	assert.Error(t, err)
}

func TestResolveReturnTypeMismatchErrors(t *testing.T) {
	err := compileErr(t, `
func f(): int {
	return "oops"
}
`)
	assert.Error(t, err)
}

func TestResolveValidProgramCompiles(t *testing.T) {
	err := compileErr(t, `
func add(a: int, b: int): int {
	return a + b
}
z := add(1, 2)
`)
	require.NoError(t, err)
}

func TestResolveCastFromConcreteTypeErrors(t *testing.T) {
	err := compileErr(t, `
x := 1
y := cast(x, int)
`)
	assert.Error(t, err)
}

func TestResolveCastFromAnyCompiles(t *testing.T) {
	err := compileErr(t, `
x : any = 1
y := cast(x, int)
`)
	require.NoError(t, err)
}

func TestResolveStructUndefinedFieldErrors(t *testing.T) {
	err := compileErr(t, `
struct Point {
	x: int
}
p := new Point{1}
q := p.y
`)
	assert.Error(t, err)
}
