package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiny-lang/tiny"
)

func TestBindCoreStringHelpers(t *testing.T) {
	h := tiny.NewHost(nil)
	require.NoError(t, BindCore(h))

	var length, char int64
	var cat, num string
	var f float64
	require.NoError(t, h.BindFunction("capture_int(int): void", func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		length = args[0].I
		return tiny.NullValue, nil
	}))
	require.NoError(t, h.BindFunction("capture_char(int): void", func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		char = args[0].I
		return tiny.NullValue, nil
	}))
	require.NoError(t, h.BindFunction("capture_str(str): void", func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		cat = args[0].String()
		return tiny.NullValue, nil
	}))
	require.NoError(t, h.BindFunction("capture_float(float): void", func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		f = args[0].F
		return tiny.NullValue, nil
	}))
	_ = num

	require.NoError(t, h.CompileString("test.tiny", `
capture_int(strlen("hello"))
capture_char(strchar("hello", 0))
capture_str(strcat("foo", "bar"))
capture_float(ston("3.5"))
`))
	th := h.NewThread()
	require.NoError(t, th.Run())

	assert.EqualValues(t, 5, length)
	assert.EqualValues(t, 'h', char)
	assert.Equal(t, "foobar", cat)
	assert.InDelta(t, 3.5, f, 1e-9)
}

func TestBindCoreStrcharOutOfRangeErrors(t *testing.T) {
	th := &tiny.Thread{}
	_, err := strcharFn(th, []tiny.Value{tiny.NullValue, tiny.IntValue(5)})
	assert.Error(t, err)
}
