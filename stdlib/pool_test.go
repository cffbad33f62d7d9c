package stdlib

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiny-lang/tiny"
)

func TestPoolRecompilesOnChange(t *testing.T) {
	path := t.TempDir() + "/script.tiny"
	require.NoError(t, os.WriteFile(path, []byte(`x := 1`), 0644))

	var bindCalls int
	pool := NewPool(func(h *tiny.Host) {
		bindCalls++
	})

	h1, err := pool.Get(path)
	require.NoError(t, err)
	require.NotNil(t, h1)
	assert.Equal(t, 1, bindCalls)

	h2, err := pool.Get(path)
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, 1, bindCalls, "unchanged file should not recompile")

	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))
	require.NoError(t, os.WriteFile(path, []byte(`x := 2`), 0644))
	require.NoError(t, os.Chtimes(path, future, future))

	h3, err := pool.Get(path)
	require.NoError(t, err)
	assert.NotSame(t, h1, h3)
	assert.Equal(t, 2, bindCalls, "changed mtime should force recompile")
}

func TestPoolEvictForcesRecompile(t *testing.T) {
	path := t.TempDir() + "/script.tiny"
	require.NoError(t, os.WriteFile(path, []byte(`x := 1`), 0644))

	pool := NewPool(nil)
	h1, err := pool.Get(path)
	require.NoError(t, err)

	pool.Evict(path)

	h2, err := pool.Get(path)
	require.NoError(t, err)
	assert.NotSame(t, h1, h2)
}
