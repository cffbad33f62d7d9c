package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// significantOps strips OpFile/OpLine debug markers from a decoded
// instruction stream, returning just the opcodes that actually affect
// execution, so tests aren't coupled to exactly when line numbers
// change.
func significantOps(t *testing.T, code []byte) []Op {
	t.Helper()
	var ops []Op
	pc := 0
	for pc < len(code) {
		op := Op(code[pc])
		pc++
		pc = operandEnd(op, pc)
		if op != OpFile && op != OpLine && op != OpPad {
			ops = append(ops, op)
		}
	}
	return ops
}

func generate(t *testing.T, src string) []byte {
	t.Helper()
	h := NewHost(nil)
	require.NoError(t, h.CompileString("test.tiny", src))
	return h.State().Code
}

func TestCodeGenSimpleAssignEndsInHalt(t *testing.T) {
	code := generate(t, `x := 42`)
	ops := significantOps(t, code)
	require.NotEmpty(t, ops)
	assert.Equal(t, OpHalt, ops[len(ops)-1])
	assert.Contains(t, ops, OpConstInt)
	assert.Contains(t, ops, OpSetGlobal)
}

func TestCodeGenTopLevelJumpsOverFunctionBodies(t *testing.T) {
	code := generate(t, `
func f(): int {
	return 1
}
x := f()
`)
	ops := significantOps(t, code)
	// the very first opcode is the unconditional jump generated by
	// Generate to skip over the function body placed ahead of
	// top-level code.
	require.NotEmpty(t, ops)
	assert.Equal(t, OpJump, ops[0])
	assert.Contains(t, ops, OpReturn)
	assert.Contains(t, ops, OpCall)
}

func TestCodeGenIfEmitsConditionalJumps(t *testing.T) {
	code := generate(t, `
y := 0
if 1 < 2 {
	y = 1
}
`)
	ops := significantOps(t, code)
	assert.Contains(t, ops, OpJumpFalse)
	assert.Contains(t, ops, OpLt)
}

func TestCodeGenWhileEmitsBackwardJump(t *testing.T) {
	code := generate(t, `
i := 0
while i < 3 {
	i += 1
}
`)
	ops := significantOps(t, code)
	assert.Contains(t, ops, OpJumpFalse)
	assert.Contains(t, ops, OpJump)
}
