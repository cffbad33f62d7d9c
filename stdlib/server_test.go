package stdlib

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"go.uber.org/zap"

	"github.com/tiny-lang/tiny"
)

func TestNewServerBindingsLogsToObserver(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := tiny.NewHost(nil)
	require.NoError(t, NewServerBindings(logger)(h))

	require.NoError(t, h.CompileString("test.tiny", `log_info("booted")`))
	th := h.NewThread()
	require.NoError(t, th.Run())

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "booted", entries[0].Message)
}

func TestNewServerBindingsNilLoggerIsNoop(t *testing.T) {
	h := tiny.NewHost(nil)
	require.NoError(t, NewServerBindings(nil)(h))
	require.NoError(t, h.CompileString("test.tiny", `log_warn("quiet")`))
	th := h.NewThread()
	require.NoError(t, th.Run())
}
