// Package stdlib binds optional host-side standard library functions
// into a Tiny Host: string helpers, stdout formatting, file I/O, the
// system clock, and a process-exit builtin. None of this is part of
// the language core — spec.md keeps it a "consumer of the host
// interface", so every binding here goes through tiny's exported Host
// API only, the same boundary goodpaul6/Tiny's tinystd.c keeps by
// binding only against tiny.h's public surface.
package stdlib

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/tiny-lang/tiny"
)

// BindCore registers strlen, strcat, strchar, ston, ntos, print,
// printf, and input — the string/formatting subset of goodpaul6/Tiny's
// Tiny_BindStandardLib/Tiny_BindStandardIO that has no native-array or
// native-dict dependency (Tiny's type system in this module has no
// array/dict primitive, so the array_*/dict_* bindings from the
// original have no type to attach to and are left unported).
func BindCore(h *tiny.Host) error {
	binds := []struct {
		sig string
		fn  tiny.ForeignFunc
	}{
		{"strlen(str): int", strlenFn},
		{"strchar(str, int): int", strcharFn},
		{"strcat(str, str): str", strcatFn},
		{"ston(str): float", stonFn},
		{"ntos(float): str", ntosFn},
		{"print(any, ...): void", printFn},
		{"printf(str, ...): void", printfFn},
		{"input(str): str", inputFn},
	}
	for _, b := range binds {
		if err := h.BindFunction(b.sig, b.fn); err != nil {
			return fmt.Errorf("stdlib: %w", err)
		}
	}
	return nil
}

func strlenFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	return tiny.IntValue(int64(len(args[0].String()))), nil
}

func strcharFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	s := args[0].String()
	i := args[1].I
	if i < 0 || int(i) >= len(s) {
		return tiny.NullValue, fmt.Errorf("strchar: index %d out of range (len %d)", i, len(s))
	}
	return tiny.IntValue(int64(s[i])), nil
}

func strcatFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	return th.NewString(args[0].String() + args[1].String()), nil
}

func stonFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	f, err := strconv.ParseFloat(args[0].String(), 64)
	if err != nil {
		return tiny.FloatValue(0), nil
	}
	return tiny.FloatValue(f), nil
}

func ntosFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	return th.NewString(args[0].String()), nil
}

func printFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(a.String())
	}
	return tiny.NullValue, nil
}

func printfFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	rest := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		rest = append(rest, a.String())
	}
	fmt.Printf(args[0].String(), rest...)
	return tiny.NullValue, nil
}

var stdinReader = bufio.NewReader(os.Stdin)

func inputFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	if prompt := args[0].String(); prompt != "" {
		fmt.Print(prompt)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return th.NewString(""), nil
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return th.NewString(line), nil
}
