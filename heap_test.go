package tiny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHeapCollectSweepsUnreachableKeepsRoots is a unit test against
// Heap directly: an object reachable from roots survives Collect, an
// unreachable one is swept, and a Protected foreign object survives
// even with no root pointing at it (spec.md §5).
func TestHeapCollectSweepsUnreachableKeepsRoots(t *testing.T) {
	h := NewHeap(1, 2)

	kept := h.NewString("kept")
	garbage := h.NewStruct("Point", []Value{IntValue(1)})
	protected := h.NewForeign("file", 42, nil)
	protected.Protected = true

	require.Equal(t, 3, h.count)
	h.Collect([]Value{{Kind: ValString, Obj: kept}})

	assert.Equal(t, 2, h.count, "unreachable, unprotected garbage should be swept")
	assert.True(t, kept.mark)
	assert.True(t, protected.mark)
}

// TestHeapCollectFinalizesSweptForeign checks that a foreign object's
// Finalize callback runs exactly once, at the point it's swept, never
// while it's still reachable.
func TestHeapCollectFinalizesSweptForeign(t *testing.T) {
	h := NewHeap(1, 2)
	var finalized int
	h.NewForeign("file", 7, func(any) { finalized++ })

	h.Collect(nil)
	assert.Equal(t, 1, finalized)

	h.Collect(nil)
	assert.Equal(t, 1, finalized, "finalize must not run again for an already-swept object")
}

// TestVMCollectsUnreachableStringsFromForeignAllocation exercises
// Thread.NewString's maybeCollect call (used by foreign bindings that
// hand scripts a fresh string, e.g. stdlib's strcat): a program that
// allocates many throwaway strings through a foreign call, never
// storing them anywhere, must not let the heap grow unbounded.
func TestVMCollectsUnreachableStringsFromForeignAllocation(t *testing.T) {
	h := NewHost(nil)
	require.NoError(t, h.BindFunction("garbage(): void", func(th *Thread, args []Value) (Value, error) {
		th.NewString("scratch")
		return NullValue, nil
	}))
	require.NoError(t, h.CompileString("test.tiny", `
i := 0
while i < 50 {
	garbage()
	i += 1
}
`))

	th := h.NewThread()
	require.NoError(t, th.Run())
	assert.Less(t, th.heap.count, 50, "collection should have reclaimed unreachable strings")
}

// TestVMCollectsUnreachableStringLiterals exercises OpConstStr's
// maybeCollect call directly: string literals evaluated and discarded
// inside a loop (never assigned to a global or local that survives the
// iteration) must still get swept.
func TestVMCollectsUnreachableStringLiterals(t *testing.T) {
	h := NewHost(nil)
	require.NoError(t, h.BindFunction("sink(str): void", func(th *Thread, args []Value) (Value, error) {
		return NullValue, nil
	}))
	require.NoError(t, h.CompileString("test.tiny", `
i := 0
while i < 50 {
	sink("scratch")
	i += 1
}
`))

	th := h.NewThread()
	require.NoError(t, th.Run())
	assert.Less(t, th.heap.count, 50, "collection should have reclaimed discarded string literals")
}
