package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiny-lang/tiny"
)

func TestBindMathFloorCeil(t *testing.T) {
	h := tiny.NewHost(nil)
	require.NoError(t, BindMath(h))

	var lo, hi float64
	require.NoError(t, h.BindFunction("capture_lo(float): void", func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		lo = args[0].F
		return tiny.NullValue, nil
	}))
	require.NoError(t, h.BindFunction("capture_hi(float): void", func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		hi = args[0].F
		return tiny.NullValue, nil
	}))

	require.NoError(t, h.CompileString("test.tiny", `
capture_lo(floor(1.9))
capture_hi(ceil(1.1))
`))
	th := h.NewThread()
	require.NoError(t, th.Run())

	assert.InDelta(t, 1.0, lo, 1e-9)
	assert.InDelta(t, 2.0, hi, 1e-9)
}

func TestRandDeterministicAfterSrand(t *testing.T) {
	srandFn(nil, []tiny.Value{tiny.IntValue(7)})
	first, _ := randFn(nil, nil)
	srandFn(nil, []tiny.Value{tiny.IntValue(7)})
	second, _ := randFn(nil, nil)
	assert.Equal(t, first.I, second.I)
}
