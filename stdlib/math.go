package stdlib

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/tiny-lang/tiny"
)

// BindMath registers floor, ceil, time, srand, rand, and sleep,
// grounded on tinystd.c's Lib_Floor/Lib_Ceil/Lib_Time/SeedRand/Rand/
// Lib_Sleep. perf_count/perf_freq are Windows QueryPerformanceCounter
// bindings in the original with no portable Go equivalent worth
// reproducing; time(), which the original also exposes, covers the
// same "wall clock" need.
func BindMath(h *tiny.Host) error {
	binds := []struct {
		sig string
		fn  tiny.ForeignFunc
	}{
		{"floor(float): float", floorFn},
		{"ceil(float): float", ceilFn},
		{"time(): int", timeFn},
		{"srand(int): void", srandFn},
		{"rand(): int", randFn},
		{"sleep(int): void", sleepFn},
	}
	for _, b := range binds {
		if err := h.BindFunction(b.sig, b.fn); err != nil {
			return fmt.Errorf("stdlib: %w", err)
		}
	}
	return nil
}

func floorFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	return tiny.FloatValue(math.Floor(args[0].F)), nil
}

func ceilFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	return tiny.FloatValue(math.Ceil(args[0].F)), nil
}

func timeFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	return tiny.IntValue(time.Now().Unix()), nil
}

var stdRand = rand.New(rand.NewSource(1))

func srandFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	stdRand = rand.New(rand.NewSource(args[0].I))
	return tiny.NullValue, nil
}

func randFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	return tiny.IntValue(int64(stdRand.Int31())), nil
}

func sleepFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	time.Sleep(time.Duration(args[0].I) * time.Millisecond)
	return tiny.NullValue, nil
}
