package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run compiles src and executes it to completion on a fresh Thread,
// returning the thread for assertions against captured globals.
func run(t *testing.T, src string, bind func(h *Host)) *Thread {
	t.Helper()
	h := NewHost(nil)
	if bind != nil {
		bind(h)
	}
	require.NoError(t, h.CompileString("test.tiny", src))
	th := h.NewThread()
	require.NoError(t, th.Run())
	return th
}

func TestVMArithmeticAndGlobals(t *testing.T) {
	th := run(t, `x := 2 + 3 * 4`, nil)
	idx, ok := th.state.GetGlobalIndex("x")
	require.True(t, ok)
	assert.EqualValues(t, 14, th.GetGlobal(idx).I)
}

func TestVMIfElse(t *testing.T) {
	th := run(t, `
y := 0
if 1 < 2 {
	y = 10
} else {
	y = 20
}
`, nil)
	idx, _ := th.state.GetGlobalIndex("y")
	assert.EqualValues(t, 10, th.GetGlobal(idx).I)
}

func TestVMWhileLoop(t *testing.T) {
	th := run(t, `
i := 0
sum := 0
while i < 5 {
	sum += i
	i += 1
}
`, nil)
	idx, _ := th.state.GetGlobalIndex("sum")
	assert.EqualValues(t, 10, th.GetGlobal(idx).I)
}

func TestVMForLoop(t *testing.T) {
	th := run(t, `
total := 0
for (i := 0; i < 4; i += 1) {
	total += i
}
`, nil)
	idx, _ := th.state.GetGlobalIndex("total")
	assert.EqualValues(t, 6, th.GetGlobal(idx).I)
}

func TestVMFunctionCallAndReturn(t *testing.T) {
	th := run(t, `
func square(n: int): int {
	return n * n
}
result := square(6)
`, nil)
	idx, _ := th.state.GetGlobalIndex("result")
	assert.EqualValues(t, 36, th.GetGlobal(idx).I)
}

func TestVMRecursion(t *testing.T) {
	th := run(t, `
func fib(n: int): int {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}
result := fib(10)
`, nil)
	idx, _ := th.state.GetGlobalIndex("result")
	assert.EqualValues(t, 55, th.GetGlobal(idx).I)
}

func TestVMStructFieldAccess(t *testing.T) {
	th := run(t, `
struct Point {
	x: int
	y: int
}
p := new Point{3, 4}
sum := p.x + p.y
`, nil)
	idx, _ := th.state.GetGlobalIndex("sum")
	assert.EqualValues(t, 7, th.GetGlobal(idx).I)
}

func TestVMForeignCallRoundTrip(t *testing.T) {
	var calls []int64
	th := run(t, `
add(1)
add(2)
add(3)
`, func(h *Host) {
		require.NoError(t, h.BindFunction("add(int): void", func(th *Thread, args []Value) (Value, error) {
			calls = append(calls, args[0].I)
			return NullValue, nil
		}))
	})
	assert.Equal(t, []int64{1, 2, 3}, calls)
	_ = th
}

func TestVMBreakAndContinue(t *testing.T) {
	th := run(t, `
i := 0
sum := 0
while i < 10 {
	i += 1
	if i == 5 {
		break
	}
	if i % 2 == 0 {
		continue
	}
	sum += i
}
`, nil)
	idx, _ := th.state.GetGlobalIndex("sum")
	assert.EqualValues(t, 4, th.GetGlobal(idx).I) // 1 + 3
}

func TestVMStringConcatAndCompare(t *testing.T) {
	th := run(t, `
a := concat("foo", "bar")
ok := a == "foobar"
`, func(h *Host) {
		require.NoError(t, h.BindFunction("concat(str, str): str", func(th *Thread, args []Value) (Value, error) {
			return th.NewString(args[0].String() + args[1].String()), nil
		}))
	})
	idx, _ := th.state.GetGlobalIndex("ok")
	assert.True(t, th.GetGlobal(idx).Bool())
}
