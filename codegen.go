package tiny

import "encoding/binary"

// CodeGen walks a resolved AST and emits a flat bytecode stream, with
// jump targets backpatched once known (spec.md §4.6). Struct tags and
// foreign type names referenced by OpCast are recorded through the
// same StringPool used for string literals, so the VM never needs a
// separate name table.
//
// Grounded on the teacher's vm_encoder.go (two-pass encode: compute
// label offsets, then emit with `encodeJmp` backpatch helpers) and
// vm_program.go (Program as code + side tables), adapted here into a
// single-pass emitter that backpatches in place since Tiny's jump
// targets (loop exits, if/else arms) are always known by the time the
// jump byte offset needs finalizing.
type CodeGen struct {
	code    []byte
	strings *StringPool
	floats  *FloatPool

	curFile int
	curLine int

	breakPatches    [][]int // stack of patch-site lists, one per enclosing loop
	continuePatches [][]int
}

func NewCodeGen(strings *StringPool, floats *FloatPool) *CodeGen {
	return &CodeGen{strings: strings, floats: floats}
}

func (g *CodeGen) here() int { return len(g.code) }

// Bytecode returns the emitted instruction stream. Valid after Generate.
func (g *CodeGen) Bytecode() []byte { return g.code }

func (g *CodeGen) emit(op Op) { g.code = append(g.code, byte(op)) }

func (g *CodeGen) emitU8(v byte) { g.code = append(g.code, v) }

func (g *CodeGen) emitU16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	g.code = append(g.code, buf[:]...)
}

// align4 pads the code stream with MISALIGNED_PADDING bytes until its
// length is a multiple of 4, so the 32-bit immediate written right
// after starts at an aligned offset (spec.md §4.6, §6).
func (g *CodeGen) align4() {
	for len(g.code) < alignedOffset(len(g.code)) {
		g.emit(OpPad)
	}
}

func (g *CodeGen) emitU32(v uint32) {
	g.align4()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	g.code = append(g.code, buf[:]...)
}

func (g *CodeGen) emitI64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	g.code = append(g.code, buf[:]...)
}

// emitJump writes `op` followed by a 4-byte placeholder and returns
// the byte offset of that placeholder, for a later patchJump call.
func (g *CodeGen) emitJump(op Op) int {
	g.emit(op)
	g.align4()
	at := g.here()
	g.emitU32(0)
	return at
}

func (g *CodeGen) patchJump(at int, target int) {
	binary.LittleEndian.PutUint32(g.code[at:at+4], uint32(target))
}

// markLine emits FILE/LINE debug opcodes whenever the source position
// advances, so runtime errors can report an accurate location (spec.md
// §4.8, §7).
func (g *CodeGen) markLine(fileID, line int) {
	if fileID != g.curFile {
		g.emit(OpFile)
		g.emitU32(uint32(fileID))
		g.curFile = fileID
	}
	if line != g.curLine {
		g.emit(OpLine)
		g.emitU32(uint32(line))
		g.curLine = line
	}
}

// FuncEntry records where a script function's code begins, used to
// build the function-PC table the VM's CALL instruction indexes into.
type FuncEntry struct {
	EntryPC  int
	NumArgs  int
	NumLocals int
}

// Generate emits code for an entire program: functions first (each
// CALL site only needs the function's index, resolved once all
// functions have an EntryPC), then top-level statements, terminated
// by OpHalt.
func (g *CodeGen) Generate(prog *Program, sym *SymbolTable) []FuncEntry {
	funcs := sym.Functions()
	entries := make([]FuncEntry, len(funcs))

	// An explicit jump comes first and skips over the function bodies,
	// so execution entering this code lands on the top-level
	// statements; CALL addresses a function by its index into the
	// returned entry table, not by PC.
	overJump := g.emitJump(OpJump)

	for i, fn := range prog.Funcs {
		entry := g.genFuncDef(fn)
		fn.Sym.EntryPC = entry.EntryPC
		entries[fn.Sym.FuncIndex] = entry
		_ = i
	}

	g.patchJump(overJump, g.here())

	for _, stmt := range prog.Stmts {
		g.genStmt(stmt)
	}
	g.emit(OpHalt)

	return entries
}

func (g *CodeGen) genFuncDef(fn *FuncDef) FuncEntry {
	entry := FuncEntry{EntryPC: g.here(), NumArgs: len(fn.Params), NumLocals: len(fn.Sym.Locals)}
	g.genBlock(fn.Body)
	// a function falling off its own closing brace (legal only when
	// its declared return type is void) needs an implicit return.
	g.emit(OpReturnVoid)
	return entry
}

func (g *CodeGen) genBlock(b *BlockStmt) {
	for _, stmt := range b.Stmts {
		g.genStmt(stmt)
	}
}

func (g *CodeGen) genStmt(n Node) {
	g.markLine(n.Pos().File, n.Line())
	switch s := n.(type) {
	case *BlockStmt:
		g.genBlock(s)
	case *DeclareStmt:
		g.genExpr(s.Value)
		g.genStore(s.Sym)
	case *ConstDeclStmt:
		// constants are folded at every use site; nothing to emit here
	case *AssignStmt:
		g.genAssignStmt(s)
	case *IfStmt:
		g.genIfStmt(s)
	case *WhileStmt:
		g.genWhileStmt(s)
	case *ForStmt:
		g.genForStmt(s)
	case *ReturnStmt:
		if s.Value != nil {
			g.genExpr(s.Value)
			g.emit(OpReturn)
		} else {
			g.emit(OpReturnVoid)
		}
	case *BreakStmt:
		at := g.emitJump(OpJump)
		top := len(g.breakPatches) - 1
		g.breakPatches[top] = append(g.breakPatches[top], at)
	case *ContinueStmt:
		at := g.emitJump(OpJump)
		top := len(g.continuePatches) - 1
		g.continuePatches[top] = append(g.continuePatches[top], at)
	case *CallExpr:
		g.genExpr(s)
		if !IsVoid(s.NodeType()) {
			g.emit(OpPop)
		}
	}
}

func (g *CodeGen) genStore(sym *Symbol) {
	if sym.Kind == SymGlobal {
		g.emit(OpSetGlobal)
		g.emitU32(uint32(sym.GlobalIndex))
	} else {
		g.emit(OpSetLocal)
		g.emitU32(uint32(int32(sym.SlotIndex)))
	}
}

func (g *CodeGen) genLoad(sym *Symbol) {
	switch sym.Kind {
	case SymGlobal:
		g.emit(OpGetGlobal)
		g.emitU32(uint32(sym.GlobalIndex))
	case SymLocal:
		g.emit(OpGetLocal)
		g.emitU32(uint32(int32(sym.SlotIndex)))
	case SymConstant:
		g.genConstLoad(sym)
	}
}

func (g *CodeGen) genConstLoad(sym *Symbol) {
	switch sym.Type.Kind {
	case TypeBool:
		g.emit(OpConstBool)
		if sym.ConstBool {
			g.emitU8(1)
		} else {
			g.emitU8(0)
		}
	case TypeInt:
		g.emit(OpConstInt)
		g.emitI64(sym.ConstInt)
	case TypeFloat:
		g.emit(OpConstFloat)
		g.emitU32(uint32(g.floats.Intern(sym.ConstFloat)))
	case TypeString:
		g.emit(OpConstStr)
		g.emitU32(uint32(g.strings.Intern(sym.ConstStr)))
	}
}

func (g *CodeGen) genAssignStmt(s *AssignStmt) {
	switch target := s.Target.(type) {
	case *IdentExpr:
		if s.Op == TkAssign {
			g.genExpr(s.Value)
		} else {
			g.genLoad(target.Sym)
			g.genExpr(s.Value)
			g.emit(compoundOp(s.Op))
		}
		g.genStore(target.Sym)
	case *DotExpr:
		g.genExpr(target.Receiver)
		if s.Op != TkAssign {
			g.emit(OpDup)
			g.emit(OpGetField)
			g.emitU16(uint16(target.FieldIndex))
			g.genExpr(s.Value)
			g.emit(compoundOp(s.Op))
		} else {
			g.genExpr(s.Value)
		}
		g.emit(OpSetField)
		g.emitU16(uint16(target.FieldIndex))
	}
}

func compoundOp(op TokenKind) Op {
	switch op {
	case TkPlusAssign:
		return OpAdd
	case TkMinusAssign:
		return OpSub
	case TkStarAssign:
		return OpMul
	case TkSlashAssign:
		return OpDiv
	case TkPercentAssign:
		return OpMod
	case TkAmpAssign:
		return OpBitAnd
	case TkPipeAssign:
		return OpBitOr
	default:
		return OpNop
	}
}

func (g *CodeGen) genIfStmt(s *IfStmt) {
	g.genExpr(s.Cond)
	elseJump := g.emitJump(OpJumpFalse)
	g.genStmt(s.Then)
	if s.Else != nil {
		endJump := g.emitJump(OpJump)
		g.patchJump(elseJump, g.here())
		g.genStmt(s.Else)
		g.patchJump(endJump, g.here())
	} else {
		g.patchJump(elseJump, g.here())
	}
}

func (g *CodeGen) genWhileStmt(s *WhileStmt) {
	g.breakPatches = append(g.breakPatches, nil)
	g.continuePatches = append(g.continuePatches, nil)

	condPC := g.here()
	g.genExpr(s.Cond)
	exitJump := g.emitJump(OpJumpFalse)
	g.genStmt(s.Body)
	g.emit(OpJump)
	g.emitU32(uint32(condPC))
	g.patchJump(exitJump, g.here())

	g.patchLoopExits(condPC)
}

func (g *CodeGen) genForStmt(s *ForStmt) {
	if s.Init != nil {
		g.genStmt(s.Init)
	}
	g.breakPatches = append(g.breakPatches, nil)
	g.continuePatches = append(g.continuePatches, nil)

	condPC := g.here()
	var exitJump int
	hasCond := s.Cond != nil
	if hasCond {
		g.genExpr(s.Cond)
		exitJump = g.emitJump(OpJumpFalse)
	}
	g.genStmt(s.Body)
	stepPC := g.here()
	if s.Step != nil {
		g.genStmt(s.Step)
	}
	g.emit(OpJump)
	g.emitU32(uint32(condPC))
	exitPC := g.here()
	if hasCond {
		g.patchJump(exitJump, exitPC)
	}

	top := len(g.continuePatches) - 1
	for _, at := range g.continuePatches[top] {
		g.patchJump(at, stepPC)
	}
	g.continuePatches = g.continuePatches[:top]
	topB := len(g.breakPatches) - 1
	for _, at := range g.breakPatches[topB] {
		g.patchJump(at, exitPC)
	}
	g.breakPatches = g.breakPatches[:topB]
}

// patchLoopExits resolves a `while` loop's pending break/continue
// sites: break jumps to just past the loop, continue jumps back to
// the condition check.
func (g *CodeGen) patchLoopExits(continueTarget int) {
	top := len(g.continuePatches) - 1
	for _, at := range g.continuePatches[top] {
		g.patchJump(at, continueTarget)
	}
	g.continuePatches = g.continuePatches[:top]
	topB := len(g.breakPatches) - 1
	for _, at := range g.breakPatches[topB] {
		g.patchJump(at, g.here())
	}
	g.breakPatches = g.breakPatches[:topB]
}

// ---- expressions ----

func (g *CodeGen) genExpr(n Node) {
	switch e := n.(type) {
	case *NullLit:
		g.emit(OpConstNull)
	case *BoolLit:
		g.emit(OpConstBool)
		if e.Value {
			g.emitU8(1)
		} else {
			g.emitU8(0)
		}
	case *IntLit:
		g.emit(OpConstInt)
		g.emitI64(e.Value)
	case *FloatLit:
		g.emit(OpConstFloat)
		g.emitU32(uint32(g.floats.Intern(e.Value)))
	case *CharLit:
		g.emit(OpConstInt)
		g.emitI64(int64(e.Value))
	case *StringLit:
		g.emit(OpConstStr)
		g.emitU32(uint32(g.strings.Intern(e.Value)))
	case *IdentExpr:
		g.genLoad(e.Sym)
	case *ParenExpr:
		g.genExpr(e.Inner)
	case *UnaryExpr:
		g.genExpr(e.Operand)
		if e.Op == TkMinus {
			g.emit(OpNeg)
		} else {
			g.emit(OpNot)
		}
	case *BinaryExpr:
		g.genBinaryExpr(e)
	case *DotExpr:
		g.genExpr(e.Receiver)
		g.emit(OpGetField)
		g.emitU16(uint16(e.FieldIndex))
	case *CallExpr:
		g.genCallExpr(e)
	case *NewExpr:
		g.genNewExpr(e)
	case *CastExpr:
		g.genCastExpr(e)
	}
}

func (g *CodeGen) genBinaryExpr(e *BinaryExpr) {
	if e.Op == TkAndAnd || e.Op == TkOrOr {
		g.genShortCircuit(e)
		return
	}
	g.genExpr(e.Left)
	g.genExpr(e.Right)
	switch e.Op {
	case TkPlus:
		g.emit(OpAdd)
	case TkMinus:
		g.emit(OpSub)
	case TkStar:
		g.emit(OpMul)
	case TkSlash:
		g.emit(OpDiv)
	case TkPercent:
		g.emit(OpMod)
	case TkAmp:
		g.emit(OpBitAnd)
	case TkPipe:
		g.emit(OpBitOr)
	case TkEq:
		g.emit(OpEq)
	case TkNeq:
		g.emit(OpNeq)
	case TkLt:
		g.emit(OpLt)
	case TkLe:
		g.emit(OpLe)
	case TkGt:
		g.emit(OpGt)
	case TkGe:
		g.emit(OpGe)
	}
}

// genShortCircuit emits `&&`/`||` with true short-circuit control
// flow rather than an eager AND/OR opcode, so the right operand is
// never evaluated when the result is already determined.
func (g *CodeGen) genShortCircuit(e *BinaryExpr) {
	g.genExpr(e.Left)
	if e.Op == TkAndAnd {
		shortJump := g.emitJump(OpJumpFalse)
		g.genExpr(e.Right)
		endJump := g.emitJump(OpJump)
		g.patchJump(shortJump, g.here())
		g.emit(OpConstBool)
		g.emitU8(0)
		g.patchJump(endJump, g.here())
	} else {
		shortJump := g.emitJump(OpJumpTrue)
		g.genExpr(e.Right)
		endJump := g.emitJump(OpJump)
		g.patchJump(shortJump, g.here())
		g.emit(OpConstBool)
		g.emitU8(1)
		g.patchJump(endJump, g.here())
	}
}

func (g *CodeGen) genCallExpr(e *CallExpr) {
	for _, a := range e.Args {
		g.genExpr(a)
	}
	if e.Sym.Kind == SymForeign {
		g.emit(OpCallF)
		g.emitU32(uint32(e.Sym.ForeignIndex))
	} else {
		g.emit(OpCall)
		g.emitU32(uint32(e.Sym.FuncIndex))
	}
	g.emitU8(byte(len(e.Args)))
}

func (g *CodeGen) genNewExpr(e *NewExpr) {
	for _, a := range e.Args {
		g.genExpr(a)
	}
	g.emit(OpNewStruct)
	g.emitU32(uint32(g.strings.Intern(e.StructName)))
	g.emitU16(uint16(len(e.Args)))
}

func (g *CodeGen) genCastExpr(e *CastExpr) {
	g.genExpr(e.Value)
	g.emit(OpCast)
	g.emitU8(byte(e.Target.Kind))
	if e.Target.Kind == TypeStruct || e.Target.Kind == TypeForeign {
		g.emitU32(uint32(g.strings.Intern(e.Target.Name)))
	} else {
		g.emitU32(^uint32(0))
	}
}
