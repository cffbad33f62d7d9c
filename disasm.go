package tiny

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/tiny-lang/tiny/ascii"
)

// Disassemble renders st.Code as one instruction per line, annotating
// operands with their resolved operand (string/float-pool contents,
// struct/foreign names) rather than raw indices where that's more
// useful for a human reading it.
//
// Grounded on the teacher's disassembly/pretty-printers (grammar_ast_
// printer.go, tree_printer.go): a theme-driven colorizer gated on
// whether stdout is actually a terminal, via mattn/go-isatty, so piped
// output (e.g. into a file or `less`) stays plain text.
func Disassemble(w io.Writer, st *State, colorize bool) {
	th := &disasmPrinter{w: w, st: st, colorize: colorize, theme: ascii.DefaultTheme}
	th.run()
}

// IsTerminalStdout reports whether fd is an interactive terminal,
// the signal cmd/tiny uses to decide whether Disassemble should emit
// ANSI color.
func IsTerminalStdout(fd uintptr) bool {
	return isatty.IsTerminal(fd)
}

type disasmPrinter struct {
	w        io.Writer
	st       *State
	colorize bool
	theme    ascii.Theme
}

func (p *disasmPrinter) color(c, format string, args ...any) string {
	if !p.colorize {
		return fmt.Sprintf(format, args...)
	}
	return ascii.Color(c, format, args...)
}

func (p *disasmPrinter) run() {
	code := p.st.Code
	funcStarts := make(map[int]string)
	for _, sym := range p.st.Symbols.Functions() {
		funcStarts[sym.EntryPC] = sym.Name
	}

	pc := 0
	for pc < len(code) {
		if name, ok := funcStarts[pc]; ok {
			fmt.Fprintf(p.w, "%s\n", p.color(p.theme.Label, "func %s:", name))
		}
		start := pc
		op := Op(code[pc])
		pc++
		text, next := p.decode(op, code, pc)
		fmt.Fprintf(p.w, "  %s  %s\n",
			p.color(p.theme.Muted, "%04d", start),
			text)
		pc = next
	}
}

// decode formats op's mnemonic and operand starting at pos (the offset
// immediately after op's 1-byte tag), returning the rendered text and
// the offset of the next instruction. It re-derives alignment the same
// way the VM's fetch loop does (alignedOffset before any 32-bit read)
// rather than trusting a fixed per-opcode size, since the encoder may
// have inserted 0-3 MISALIGNED_PADDING bytes before that field.
func (p *disasmPrinter) decode(op Op, code []byte, pos int) (string, int) {
	mnemonic := p.color(p.theme.Operator, "%-12s", op.String())
	switch op {
	case OpConstBool:
		return mnemonic + p.color(p.theme.Literal, "%v", code[pos] != 0), pos + 1
	case OpConstInt:
		v := int64(binary.LittleEndian.Uint64(code[pos:]))
		return mnemonic + p.color(p.theme.Literal, "%d", v), pos + 8
	case OpConstFloat:
		pos = alignedOffset(pos)
		idx := binary.LittleEndian.Uint32(code[pos:])
		return mnemonic + p.color(p.theme.Literal, "%g", p.st.Floats.Get(int(idx))), pos + 4
	case OpConstStr:
		pos = alignedOffset(pos)
		idx := binary.LittleEndian.Uint32(code[pos:])
		return mnemonic + p.color(p.theme.Literal, "%q", p.st.Strings.Get(int(idx))), pos + 4
	case OpGetGlobal, OpSetGlobal:
		pos = alignedOffset(pos)
		idx := int(binary.LittleEndian.Uint32(code[pos:]))
		return mnemonic + p.color(p.theme.Operand, "%s", p.globalName(idx)), pos + 4
	case OpGetLocal, OpSetLocal:
		pos = alignedOffset(pos)
		slot := int32(binary.LittleEndian.Uint32(code[pos:]))
		return mnemonic + p.color(p.theme.Operand, "%d", slot), pos + 4
	case OpGetField, OpSetField:
		idx := binary.LittleEndian.Uint16(code[pos:])
		return mnemonic + p.color(p.theme.Operand, "#%d", idx), pos + 2
	case OpJump, OpJumpFalse, OpJumpTrue:
		pos = alignedOffset(pos)
		target := binary.LittleEndian.Uint32(code[pos:])
		return mnemonic + p.color(p.theme.Span, "-> %04d", target), pos + 4
	case OpCall:
		pos = alignedOffset(pos)
		idx := binary.LittleEndian.Uint32(code[pos:])
		argc := code[pos+4]
		return mnemonic + p.color(p.theme.Operand, "%s(%d)", p.funcName(int(idx)), argc), pos + 5
	case OpCallF:
		pos = alignedOffset(pos)
		idx := binary.LittleEndian.Uint32(code[pos:])
		argc := code[pos+4]
		return mnemonic + p.color(p.theme.Operand, "%s(%d)", p.foreignName(int(idx)), argc), pos + 5
	case OpNewStruct:
		pos = alignedOffset(pos)
		idx := binary.LittleEndian.Uint32(code[pos:])
		count := binary.LittleEndian.Uint16(code[pos+4:])
		return mnemonic + p.color(p.theme.Operand, "%s{%d}", p.st.Strings.Get(int(idx)), count), pos + 6
	case OpCast:
		kind := TypeKind(code[pos])
		pos = alignedOffset(pos + 1)
		idx := binary.LittleEndian.Uint32(code[pos:])
		name := p.st.Strings.Get(int(idx))
		pos += 4
		if name == "" {
			return mnemonic + p.color(p.theme.Operand, "%s", kind), pos
		}
		return mnemonic + p.color(p.theme.Operand, "%s %s", kind, name), pos
	case OpFile:
		pos = alignedOffset(pos)
		idx := int(binary.LittleEndian.Uint32(code[pos:]))
		f := p.st.Sources.File(idx)
		name := "?"
		if f != nil {
			name = f.Name
		}
		return mnemonic + p.color(p.theme.Comment, "%s", name), pos + 4
	case OpLine:
		pos = alignedOffset(pos)
		line := binary.LittleEndian.Uint32(code[pos:])
		return mnemonic + p.color(p.theme.Comment, "%d", line), pos + 4
	case OpPad:
		return p.color(p.theme.Comment, "; pad"), pos
	default:
		return strings.TrimRight(mnemonic, " "), pos
	}
}

func (p *disasmPrinter) globalName(idx int) string {
	if idx >= 0 && idx < len(p.st.GlobalNames) {
		return p.st.GlobalNames[idx]
	}
	return fmt.Sprintf("g%d", idx)
}

func (p *disasmPrinter) funcName(idx int) string {
	funcs := p.st.Symbols.Functions()
	if idx >= 0 && idx < len(funcs) {
		return funcs[idx].Name
	}
	return fmt.Sprintf("f%d", idx)
}

func (p *disasmPrinter) foreignName(idx int) string {
	if idx >= 0 && idx < len(p.st.Foreigns) {
		return p.st.Foreigns[idx].Name
	}
	return fmt.Sprintf("ff%d", idx)
}
