package stdlib

import (
	"fmt"
	"os"

	"github.com/tiny-lang/tiny"
)

// fileTypeName is the foreign type tag scripts see on a value returned
// by fopen, matching tinystd.c's FileProp.name ("file").
const fileTypeName = "file"

// BindFile registers fopen/fclose/fread/fwrite/fseek/fsize over a
// foreign "file" handle, grounded on tinystd.c's Lib_Fopen family. The
// host must call h.RegisterType("file") once (BindFile does this) so
// script source can declare `file`-typed parameters and locals.
func BindFile(h *tiny.Host) error {
	h.RegisterType(fileTypeName)

	binds := []struct {
		sig string
		fn  tiny.ForeignFunc
	}{
		{"fopen(str, str): file", fopenFn},
		{"fclose(file): void", fcloseFn},
		{"fread(file, int): str", freadFn},
		{"fwrite(file, str): int", fwriteFn},
		{"fseek(file, int): void", fseekFn},
		{"fsize(file): int", fsizeFn},
	}
	for _, b := range binds {
		if err := h.BindFunction(b.sig, b.fn); err != nil {
			return fmt.Errorf("stdlib: %w", err)
		}
	}
	return nil
}

func fopenFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	name := args[0].String()
	mode := args[1].String()

	var flag int
	switch mode {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		flag = os.O_RDWR | os.O_CREATE
	}

	f, err := os.OpenFile(name, flag, 0644)
	if err != nil {
		return tiny.NullValue, nil
	}
	return th.NewForeign(fileTypeName, f, true, func(native any) {
		if f, ok := native.(*os.File); ok {
			f.Close()
		}
	}), nil
}

func asFile(th *tiny.Thread, v tiny.Value) (*os.File, error) {
	native, ok := th.Foreign(v)
	if !ok {
		return nil, fmt.Errorf("expected a file handle")
	}
	f, ok := native.(*os.File)
	if !ok {
		return nil, fmt.Errorf("expected a file handle")
	}
	return f, nil
}

func fcloseFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	f, err := asFile(th, args[0])
	if err != nil {
		return tiny.NullValue, err
	}
	th.Unprotect(args[0])
	f.Close()
	return tiny.NullValue, nil
}

func freadFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	f, err := asFile(th, args[0])
	if err != nil {
		return tiny.NullValue, err
	}
	n := args[1].I
	buf := make([]byte, n)
	read, _ := f.Read(buf)
	return th.NewString(string(buf[:read])), nil
}

func fwriteFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	f, err := asFile(th, args[0])
	if err != nil {
		return tiny.NullValue, err
	}
	n, werr := f.WriteString(args[1].String())
	if werr != nil {
		return tiny.IntValue(-1), nil
	}
	return tiny.IntValue(int64(n)), nil
}

func fseekFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	f, err := asFile(th, args[0])
	if err != nil {
		return tiny.NullValue, err
	}
	_, serr := f.Seek(args[1].I, 0)
	if serr != nil {
		return tiny.NullValue, serr
	}
	return tiny.NullValue, nil
}

func fsizeFn(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
	f, err := asFile(th, args[0])
	if err != nil {
		return tiny.NullValue, err
	}
	info, serr := f.Stat()
	if serr != nil {
		return tiny.IntValue(0), nil
	}
	return tiny.IntValue(info.Size()), nil
}

// BindExit registers `exit(n)`, mapping a script's exit(n) call
// directly onto process exit code n, per spec.md §6 and tinystd.c's
// Exit/tiny.c's main.
func BindExit(h *tiny.Host) error {
	return h.BindFunction("exit(int): void", func(th *tiny.Thread, args []tiny.Value) (tiny.Value, error) {
		os.Exit(int(args[0].I))
		return tiny.NullValue, nil
	})
}
