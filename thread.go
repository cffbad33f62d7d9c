package tiny

import "github.com/google/uuid"

// frame is one activation record on the call stack: where to resume
// the caller, and the value-stack index its locals/arguments begin
// at (spec.md §4.2, §4.7).
type frame struct {
	returnPC int
	basePtr  int // index into Thread.stack where this frame's slot 0 lives
	funcIdx  int
}

// Thread is one execution context over a State's compiled program: an
// operand stack, a call-frame stack, a globals array, and a private
// heap. Multiple Threads may run concurrently over the same State
// (spec.md §6's "state thread"); each gets a google/uuid identity so
// host code embedding multiple scripts can tell them apart in logs.
//
// Grounded on the teacher's vm.go VM struct (registers + stack +
// cursor over one Program), adapted from PEG backtracking state to
// Tiny's call/frame/global execution model.
type Thread struct {
	ID uuid.UUID

	state *State
	heap  *Heap

	stack []Value
	sp    int

	frames []frame

	globals []Value

	pc int

	curFile int
	curLine int

	halted bool
	err    error

	UserData any
}

// NewThread allocates a Thread over `state` with stacks sized from
// its Config (spec.md §6's vm.stack_size / vm.frame_stack_size, §5's
// gc.initial_threshold / gc.growth_factor).
func NewThread(state *State) *Thread {
	stackSize := state.Config.GetInt("vm.stack_size")
	frameSize := state.Config.GetInt("vm.frame_stack_size")
	th := &Thread{
		ID:      uuid.New(),
		state:   state,
		heap:    NewHeap(int(state.Config.GetInt("gc.initial_threshold")), int(state.Config.GetInt("gc.growth_factor"))),
		stack:   make([]Value, stackSize),
		frames:  make([]frame, 0, frameSize),
		globals: make([]Value, len(state.GlobalNames)),
	}
	return th
}

// push places v on top of the operand stack, failing with a
// RuntimeError once sp reaches the configured vm.stack_size instead of
// growing past it (spec.md §3 Invariants: "The value stack never grows
// past its declared bound; violation is a fatal runtime error").
func (th *Thread) push(v Value) error {
	if th.sp >= len(th.stack) {
		return th.fail("value stack overflow (bound %d)", len(th.stack))
	}
	th.stack[th.sp] = v
	th.sp++
	return nil
}

func (th *Thread) pop() Value {
	th.sp--
	return th.stack[th.sp]
}

func (th *Thread) top() Value { return th.stack[th.sp-1] }

// Halted reports whether the thread has stopped, either by running
// off the end of its program (OpHalt) or by taking a fatal runtime
// error (spec.md §7 — a RuntimeError sets pc = -1, never panics).
func (th *Thread) Halted() bool { return th.halted }

// Err returns the error that halted the thread, if it halted due to a
// RuntimeError rather than a normal OpHalt.
func (th *Thread) Err() error { return th.err }

func (th *Thread) GetGlobal(index int) Value {
	if index < 0 || index >= len(th.globals) {
		return NullValue
	}
	return th.globals[index]
}

func (th *Thread) SetGlobal(index int, v Value) {
	if index < 0 || index >= len(th.globals) {
		return
	}
	th.globals[index] = v
}

// gcRoots collects every live Value reachable from this thread's
// stack and globals array, the root set Heap.Collect needs (spec.md
// §5).
func (th *Thread) gcRoots() []Value {
	roots := make([]Value, 0, th.sp+len(th.globals))
	roots = append(roots, th.stack[:th.sp]...)
	roots = append(roots, th.globals...)
	return roots
}

// NewString allocates a heap string and returns it as a Value, for use
// by foreign functions that produce script-visible strings (spec.md
// §6).
func (th *Thread) NewString(s string) Value {
	v := Value{Kind: ValString, Obj: th.heap.NewString(s)}
	th.maybeCollect()
	return v
}

// NewForeign wraps a host-owned value as an opaque Tiny value tagged
// with `typeName` (previously registered via Host.RegisterType), for
// foreign functions that hand scripts an opaque handle (e.g. an open
// file). protect keeps the object alive across GC even if the script
// drops every reference to it, for handles the host itself still
// holds; finalize, if non-nil, runs once when the object is swept.
func (th *Thread) NewForeign(typeName string, native any, protect bool, finalize func(any)) Value {
	obj := th.heap.NewForeign(typeName, native, finalize)
	obj.Protected = protect
	v := Value{Kind: ValForeign, Obj: obj}
	th.maybeCollect()
	return v
}

// Foreign extracts the native payload from a foreign-tagged Value,
// returning ok=false if v isn't a foreign value or carries no payload.
func (th *Thread) Foreign(v Value) (any, bool) {
	if v.Kind != ValForeign || v.Obj == nil {
		return nil, false
	}
	return v.Obj.Native, true
}

// Unprotect clears the GC-root pin set by NewForeign(protect=true),
// letting the object be swept once the script (and host) are both
// done referencing it — used when a foreign handle is explicitly
// closed (e.g. fclose).
func (th *Thread) Unprotect(v Value) {
	if v.Kind == ValForeign && v.Obj != nil {
		v.Obj.Protected = false
	}
}

func (th *Thread) maybeCollect() {
	if th.heap.ShouldCollect() {
		th.heap.Collect(th.gcRoots())
	}
}
