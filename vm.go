package tiny

import "encoding/binary"

// Run executes `th` starting from its current pc until it halts
// (OpHalt), returns from the outermost frame it was started in, or
// hits a RuntimeError. It implements the fetch-decode-execute loop
// spec.md §4.7 describes: a flat switch over Op, each case advancing
// pc past its own operands.
//
// Grounded on the teacher's VM.Match loop (vm.go): a pc-driven switch
// over a byte-encoded instruction stream operating on an explicit
// value/choice stack, adapted from PEG backtracking control flow to
// Tiny's call/frame/arithmetic instruction set.
func (th *Thread) Run() error {
	_, err := th.run(0, len(th.frames))
	return err
}

// ExecuteCycle runs at most `budget` instructions before yielding,
// reporting whether the thread finished (halted, returned past its
// starting frame, or hit an error) or merely ran out of budget. A
// budget of 0 or less runs to completion, equivalent to Run. This
// backs a cooperative scheduler driving many Threads round-robin
// without dedicating an OS thread to each one (spec.md §6).
func (th *Thread) ExecuteCycle(budget int) (bool, error) {
	return th.run(budget, len(th.frames))
}

// run is the fetch-decode-execute loop. baseFrame is the call-frame
// depth execution was entered at; OpReturn/OpReturnVoid stop the loop
// once the frame stack unwinds back to that depth rather than running
// on into whatever code follows, which is what lets CallFunction push
// one frame and drive only that frame to completion (spec.md §6's
// re-entrant host call).
func (th *Thread) run(budget, baseFrame int) (bool, error) {
	st := th.state
	code := st.Code
	executed := 0

	for {
		if budget > 0 && executed >= budget {
			return false, nil
		}
		executed++
		if th.pc < 0 || th.pc >= len(code) {
			th.halted = true
			return true, nil
		}
		op := Op(code[th.pc])
		th.pc++

		switch op {
		case OpNop:

		case OpFile:
			th.pc = alignedOffset(th.pc)
			th.curFile = int(binary.LittleEndian.Uint32(code[th.pc:]))
			th.pc += 4
		case OpLine:
			th.pc = alignedOffset(th.pc)
			th.curLine = int(binary.LittleEndian.Uint32(code[th.pc:]))
			th.pc += 4

		case OpConstBool:
			if err := th.push(BoolValue(code[th.pc] != 0)); err != nil {
				return true, err
			}
			th.pc++
		case OpConstInt:
			v := int64(binary.LittleEndian.Uint64(code[th.pc:]))
			if err := th.push(IntValue(v)); err != nil {
				return true, err
			}
			th.pc += 8
		case OpConstFloat:
			th.pc = alignedOffset(th.pc)
			idx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			if err := th.push(FloatValue(st.Floats.Get(int(idx)))); err != nil {
				return true, err
			}
		case OpConstStr:
			th.pc = alignedOffset(th.pc)
			idx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			if err := th.push(Value{Kind: ValString, Obj: th.heap.NewString(st.Strings.Get(int(idx)))}); err != nil {
				return true, err
			}
			th.maybeCollect()
		case OpConstNull:
			if err := th.push(NullValue); err != nil {
				return true, err
			}

		case OpPop:
			th.pop()
		case OpDup:
			if err := th.push(th.top()); err != nil {
				return true, err
			}

		case OpGetGlobal:
			th.pc = alignedOffset(th.pc)
			idx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			if err := th.push(th.GetGlobal(int(idx))); err != nil {
				return true, err
			}
		case OpSetGlobal:
			th.pc = alignedOffset(th.pc)
			idx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			th.SetGlobal(int(idx), th.top())
			th.pop()

		case OpGetLocal:
			th.pc = alignedOffset(th.pc)
			slot := int32(binary.LittleEndian.Uint32(code[th.pc:]))
			th.pc += 4
			bp := th.currentBasePtr()
			if err := th.push(th.stack[bp+int(slot)]); err != nil {
				return true, err
			}
		case OpSetLocal:
			th.pc = alignedOffset(th.pc)
			slot := int32(binary.LittleEndian.Uint32(code[th.pc:]))
			th.pc += 4
			bp := th.currentBasePtr()
			th.stack[bp+int(slot)] = th.top()
			th.pop()

		case OpGetField:
			idx := binary.LittleEndian.Uint16(code[th.pc:])
			th.pc += 2
			recv := th.pop()
			if recv.Obj == nil || int(idx) >= len(recv.Obj.Fields) {
				return true, th.fail("field access on invalid struct reference")
			}
			if err := th.push(recv.Obj.Fields[idx]); err != nil {
				return true, err
			}
		case OpSetField:
			idx := binary.LittleEndian.Uint16(code[th.pc:])
			th.pc += 2
			val := th.pop()
			recv := th.pop()
			if recv.Obj == nil || int(idx) >= len(recv.Obj.Fields) {
				return true, th.fail("field assignment on invalid struct reference")
			}
			recv.Obj.Fields[idx] = val

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			if err := th.arith(op); err != nil {
				return true, err
			}
		case OpNeg:
			v := th.pop()
			if v.Kind == ValFloat {
				if err := th.push(FloatValue(-v.F)); err != nil {
					return true, err
				}
			} else {
				if err := th.push(IntValue(-v.I)); err != nil {
					return true, err
				}
			}
		case OpBitAnd:
			r, l := th.pop(), th.pop()
			if err := th.push(IntValue(l.I & r.I)); err != nil {
				return true, err
			}
		case OpBitOr:
			r, l := th.pop(), th.pop()
			if err := th.push(IntValue(l.I | r.I)); err != nil {
				return true, err
			}

		case OpEq:
			r, l := th.pop(), th.pop()
			if err := th.push(BoolValue(l.Equal(r))); err != nil {
				return true, err
			}
		case OpNeq:
			r, l := th.pop(), th.pop()
			if err := th.push(BoolValue(!l.Equal(r))); err != nil {
				return true, err
			}
		case OpLt, OpLe, OpGt, OpGe:
			if err := th.compare(op); err != nil {
				return true, err
			}
		case OpNot:
			v := th.pop()
			if err := th.push(BoolValue(!v.Bool())); err != nil {
				return true, err
			}
		case OpAnd:
			r, l := th.pop(), th.pop()
			if err := th.push(BoolValue(l.Bool() && r.Bool())); err != nil {
				return true, err
			}
		case OpOr:
			r, l := th.pop(), th.pop()
			if err := th.push(BoolValue(l.Bool() || r.Bool())); err != nil {
				return true, err
			}

		case OpJump:
			th.pc = alignedOffset(th.pc)
			th.pc = int(binary.LittleEndian.Uint32(code[th.pc:]))
		case OpJumpFalse:
			th.pc = alignedOffset(th.pc)
			target := int(binary.LittleEndian.Uint32(code[th.pc:]))
			th.pc += 4
			if !th.pop().Bool() {
				th.pc = target
			}
		case OpJumpTrue:
			th.pc = alignedOffset(th.pc)
			target := int(binary.LittleEndian.Uint32(code[th.pc:]))
			th.pc += 4
			if th.pop().Bool() {
				th.pc = target
			}

		case OpCall:
			th.pc = alignedOffset(th.pc)
			idx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			argc := int(code[th.pc])
			th.pc++
			if err := th.call(int(idx), argc); err != nil {
				return true, err
			}
		case OpCallF:
			th.pc = alignedOffset(th.pc)
			idx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			argc := int(code[th.pc])
			th.pc++
			if err := th.callForeign(int(idx), argc); err != nil {
				return true, err
			}

		case OpReturn:
			ret := th.pop()
			if len(th.frames) <= baseFrame {
				th.halted = true
				th.pc = -1
				return true, nil
			}
			th.doReturn()
			if err := th.push(ret); err != nil {
				return true, err
			}
			if len(th.frames) == baseFrame {
				return true, nil
			}
		case OpReturnVoid:
			if len(th.frames) <= baseFrame {
				th.halted = true
				th.pc = -1
				return true, nil
			}
			th.doReturn()
			if len(th.frames) == baseFrame {
				return true, nil
			}

		case OpNewStruct:
			th.pc = alignedOffset(th.pc)
			nameIdx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			fieldCount := int(binary.LittleEndian.Uint16(code[th.pc:]))
			th.pc += 2
			fields := make([]Value, fieldCount)
			for i := fieldCount - 1; i >= 0; i-- {
				fields[i] = th.pop()
			}
			tag := st.Strings.Get(int(nameIdx))
			if err := th.push(Value{Kind: ValStruct, Obj: th.heap.NewStruct(tag, fields)}); err != nil {
				return true, err
			}
			th.maybeCollect()

		case OpCast:
			kind := TypeKind(code[th.pc])
			th.pc++
			th.pc = alignedOffset(th.pc)
			nameIdx := binary.LittleEndian.Uint32(code[th.pc:])
			th.pc += 4
			v := th.pop()
			casted, err := th.castValue(v, kind, st.Strings.Get(int(nameIdx)))
			if err != nil {
				return true, err
			}
			if err := th.push(casted); err != nil {
				return true, err
			}

		case OpHalt:
			th.halted = true
			return true, nil

		case OpPad:
			return true, th.fail("misaligned instruction")

		default:
			return true, th.fail("unknown opcode %d", op)
		}
	}
}

func (th *Thread) currentBasePtr() int {
	if len(th.frames) == 0 {
		return 0
	}
	return th.frames[len(th.frames)-1].basePtr
}

func (th *Thread) fail(format string, args ...any) error {
	file := ""
	if f := th.state.Sources.File(th.curFile); f != nil {
		file = f.Name
	}
	rerr := newRuntimeError(file, th.curLine, format, args...)
	th.err = rerr
	th.halted = true
	th.pc = -1
	return rerr
}

func (th *Thread) arith(op Op) error {
	r, l := th.pop(), th.pop()
	isFloat := l.Kind == ValFloat || r.Kind == ValFloat
	if isFloat {
		lf, rf := asFloat(l), asFloat(r)
		switch op {
		case OpAdd:
			if err := th.push(FloatValue(lf + rf)); err != nil {
				return err
			}
		case OpSub:
			if err := th.push(FloatValue(lf - rf)); err != nil {
				return err
			}
		case OpMul:
			if err := th.push(FloatValue(lf * rf)); err != nil {
				return err
			}
		case OpDiv:
			if rf == 0 {
				return th.fail("division by zero")
			}
			if err := th.push(FloatValue(lf / rf)); err != nil {
				return err
			}
		case OpMod:
			return th.fail("`%%` requires int operands")
		}
		return nil
	}
	switch op {
	case OpAdd:
		if err := th.push(IntValue(l.I + r.I)); err != nil {
			return err
		}
	case OpSub:
		if err := th.push(IntValue(l.I - r.I)); err != nil {
			return err
		}
	case OpMul:
		if err := th.push(IntValue(l.I * r.I)); err != nil {
			return err
		}
	case OpDiv:
		if r.I == 0 {
			return th.fail("division by zero")
		}
		if err := th.push(IntValue(l.I / r.I)); err != nil {
			return err
		}
	case OpMod:
		if r.I == 0 {
			return th.fail("division by zero")
		}
		if err := th.push(IntValue(l.I % r.I)); err != nil {
			return err
		}
	}
	return nil
}

func asFloat(v Value) float64 {
	if v.Kind == ValFloat {
		return v.F
	}
	return float64(v.I)
}

func (th *Thread) compare(op Op) error {
	r, l := th.pop(), th.pop()
	lf, rf := asFloat(l), asFloat(r)
	var result bool
	switch op {
	case OpLt:
		result = lf < rf
	case OpLe:
		result = lf <= rf
	case OpGt:
		result = lf > rf
	case OpGe:
		result = lf >= rf
	}
	if err := th.push(BoolValue(result)); err != nil {
		return err
	}
	return nil
}

// call invokes script function `idx` with `argc` arguments already on
// the operand stack, pushing a new frame whose base pointer sits just
// past the arguments (spec.md §4.2's "frame_pointer - N" argument
// addressing, §4.7's CALL instruction).
func (th *Thread) call(idx int, argc int) error {
	if idx < 0 || idx >= len(th.state.Funcs) {
		return th.fail("call to unknown function index %d", idx)
	}
	entry := th.state.Funcs[idx]
	if len(th.frames) >= cap(th.frames) && cap(th.frames) > 0 {
		return th.fail("call stack overflow")
	}
	basePtr := th.sp
	for i := 0; i < entry.NumLocals; i++ {
		if err := th.push(NullValue); err != nil {
			return err
		}
	}
	th.frames = append(th.frames, frame{returnPC: th.pc, basePtr: basePtr, funcIdx: idx})
	th.pc = entry.EntryPC
	return nil
}

func (th *Thread) callForeign(idx int, argc int) error {
	if idx < 0 || idx >= len(th.state.Foreigns) {
		return th.fail("call to unknown foreign function index %d", idx)
	}
	binding := th.state.Foreigns[idx]
	if argc < len(binding.ParamTypes) || (!binding.Variadic && argc != len(binding.ParamTypes)) {
		return th.fail("%s: expected %d argument(s), got %d", binding.Name, len(binding.ParamTypes), argc)
	}
	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = th.pop()
	}
	result, err := binding.Fn(th, args)
	if err != nil {
		return th.fail("%s: %v", binding.Name, err)
	}
	if !IsVoid(binding.ReturnType) {
		if err := th.push(result); err != nil {
			return err
		}
	}
	return nil
}

// doReturn pops the active frame, discarding its locals/arguments
// from the operand stack and resuming the caller's pc.
func (th *Thread) doReturn() {
	top := th.frames[len(th.frames)-1]
	th.frames = th.frames[:len(th.frames)-1]
	th.sp = top.basePtr - th.state.Funcs[top.funcIdx].NumArgs
	th.pc = top.returnPC
}

// castValue implements the runtime half of spec.md §4.5's cast rule:
// narrowing from `any` checks the value's actual kind (and, for
// struct/foreign, its tag) matches the requested target, failing with
// a RuntimeError otherwise; widening to `any` or an identity cast is
// always safe and already guaranteed by the resolver.
func (th *Thread) castValue(v Value, kind TypeKind, name string) (Value, error) {
	if kind == TypeAny {
		return v, nil
	}
	switch kind {
	case TypeBool:
		if v.Kind != ValBool {
			return Value{}, th.fail("cannot cast %s to bool", v)
		}
	case TypeInt:
		if v.Kind != ValInt {
			return Value{}, th.fail("cannot cast %s to int", v)
		}
	case TypeFloat:
		if v.Kind != ValFloat {
			return Value{}, th.fail("cannot cast %s to float", v)
		}
	case TypeString:
		if v.Kind != ValString {
			return Value{}, th.fail("cannot cast %s to str", v)
		}
	case TypeStruct:
		if v.Kind != ValStruct || v.Obj == nil || v.Obj.StructTag != name {
			return Value{}, th.fail("cannot cast %s to struct %s", v, name)
		}
	case TypeForeign:
		if v.Kind != ValForeign || v.Obj == nil || v.Obj.ForeignTag != name {
			return Value{}, th.fail("cannot cast %s to foreign type %s", v, name)
		}
	}
	return v, nil
}
