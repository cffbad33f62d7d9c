package stdlib

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tiny-lang/tiny"
)

// NewServerBindings registers log_info/log_warn/log_error, giving
// scripts a narrow logging surface backed by a host-supplied
// structured logger rather than BindCore's bare stdout print. This
// mirrors how goodpaul6/Tiny's examples/server logs accepted
// connections and per-script errors outside of the scripts themselves
// — here a script can emit into that same log stream. logger may be
// the no-op zap.NewNop() if the embedder wants the functions bound
// but silent.
func NewServerBindings(logger *zap.Logger) func(h *tiny.Host) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(h *tiny.Host) error {
		binds := []struct {
			sig string
			fn  tiny.ForeignFunc
		}{
			{"log_info(str): void", logFn(logger.Info)},
			{"log_warn(str): void", logFn(logger.Warn)},
			{"log_error(str): void", logFn(logger.Error)},
		}
		for _, b := range binds {
			if err := h.BindFunction(b.sig, b.fn); err != nil {
				return fmt.Errorf("stdlib: %w", err)
			}
		}
		return nil
	}
}

func logFn(level func(string, ...zap.Field)) tiny.ForeignFunc {
	return func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		level(args[0].String(), zap.String("thread", th.ID.String()))
		return tiny.NullValue, nil
	}
}
