// Command tiny is the reference standalone interpreter: it compiles a
// script, binds the standard library, and runs it to completion (or
// drops into an interactive shell with -interactive). Grounded on the
// teacher's cmd/langlang/main.go: flag-based CLI, a --dis-style debug
// flag, and an -interactive REPL path, adapted from grammar
// compile-and-match to Tiny's compile-and-run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/peterh/liner"

	"github.com/tiny-lang/tiny"
	"github.com/tiny-lang/tiny/stdlib"
)

type args struct {
	scriptPath  *string
	dis         *bool
	interactive *bool
	noStdlib    *bool
}

func readArgs() *args {
	a := &args{
		dis:         flag.Bool("dis", false, "Print the compiled bytecode instead of running it"),
		interactive: flag.Bool("interactive", false, "Drop into a REPL shell"),
		noStdlib:    flag.Bool("no-stdlib", false, "Don't bind the standard library"),
	}
	flag.Parse()
	if flag.NArg() > 0 {
		path := flag.Arg(0)
		a.scriptPath = &path
	}
	return a
}

func bindStdlib(h *tiny.Host) {
	if err := stdlib.BindCore(h); err != nil {
		log.Fatal(err)
	}
	if err := stdlib.BindMath(h); err != nil {
		log.Fatal(err)
	}
	if err := stdlib.BindFile(h); err != nil {
		log.Fatal(err)
	}
	if err := stdlib.BindExit(h); err != nil {
		log.Fatal(err)
	}
}

func main() {
	a := readArgs()

	if *a.interactive {
		runREPL(!*a.noStdlib)
		return
	}

	if a.scriptPath == nil {
		log.Fatal("no script given; usage: tiny [-dis] [-interactive] <script.tiny>")
	}

	h := tiny.NewHost(nil)
	if !*a.noStdlib {
		bindStdlib(h)
	}
	if err := h.CompileFile(*a.scriptPath); err != nil {
		log.Fatal(err)
	}

	if *a.dis {
		Disassemble(os.Stdout, h.State())
		return
	}

	th := h.NewThread()
	if err := th.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Disassemble prints st's compiled bytecode to w, colorized when w is a
// terminal.
func Disassemble(w *os.File, st *tiny.State) {
	tiny.Disassemble(w, st, tiny.IsTerminalStdout(w.Fd()))
}

// runREPL drives an interactive shell via peterh/liner: each line is
// compiled onto one shared Host, appending to its program (so
// functions/globals declared on one line are visible on the next), and
// a fresh Thread then runs the whole accumulated program from the
// start, so top-level statements of earlier lines run again;
// replacing the teacher's bare bufio.Scanner REPL loop in
// cmd/langlang/main.go with line editing and history.
func runREPL(withStdlib bool) {
	h := tiny.NewHost(nil)
	if withStdlib {
		bindStdlib(h)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := replHistoryPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	fmt.Println("tiny interactive shell, Ctrl-D to exit")
	for {
		text, err := line.Prompt("tiny> ")
		if err != nil {
			break
		}
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		if err := h.CompileString("<repl>", text); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		th := h.NewThread()
		if err := th.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	if f, err := os.Create(histPath); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

func replHistoryPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".tiny_history"
	}
	return dir + "/.tiny_history"
}
