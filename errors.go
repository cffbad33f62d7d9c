package tiny

import "fmt"

// CompileError is the error produced by any of the lex/parse/resolve/
// codegen stages. It carries the offending position and, when a
// SourceSet is available, renders a captioned snippet the way
// goodpaul6/Tiny's pos_error.cpp does.
//
// Grounded on the teacher's ParsingError (errors.go): a flat struct
// with a position and a message, returned rather than logged.
type CompileError struct {
	Pos     Pos
	Stage   string // "lex", "parse", "resolve", "codegen"
	Message string
	Snippet string // pre-rendered caret snippet, optional
}

func (e CompileError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("%s error: %s\n%s", e.Stage, e.Message, e.Snippet)
	}
	return fmt.Sprintf("%s error: %s", e.Stage, e.Message)
}

func newCompileError(stage string, pos Pos, format string, args ...any) CompileError {
	return CompileError{Stage: stage, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// RuntimeError is fatal to the state-thread that produced it: per
// spec.md §7, it sets pc = -1 on that thread and records file/line,
// but never kills sibling threads and never panics the host process.
type RuntimeError struct {
	File    string
	Line    int
	Message string
}

func (e RuntimeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("runtime error at %s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("runtime error: %s", e.Message)
}

func newRuntimeError(file string, line int, format string, args ...any) RuntimeError {
	return RuntimeError{File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}
