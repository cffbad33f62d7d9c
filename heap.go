package tiny

// HeapKind discriminates the payload a HeapObject carries.
type HeapKind byte

const (
	HeapString HeapKind = iota
	HeapStruct
	HeapForeign
)

// HeapObject is a garbage-collected allocation: a string buffer, a
// struct's field array, or an opaque host-owned pointer wrapped for
// GC bookkeeping (spec.md §3, §5).
//
// Grounded on the teacher's grammar AST node allocation discipline
// (value.go's boxed Value + tree.go's node pooling), adapted into an
// explicit mark-and-sweep object per spec.md §5's GC description
// rather than relying on Go's own collector to approximate Tiny's
// user-visible GC semantics (host-registered native finalizers must
// fire deterministically at sweep time, which Go's GC cannot promise).
type HeapObject struct {
	Kind HeapKind
	mark bool
	next *HeapObject

	Str string // HeapString

	StructTag string  // HeapStruct
	Fields    []Value // HeapStruct, ordered like the struct's field declarations

	ForeignTag string      // HeapForeign
	Native     any         // HeapForeign: host-owned payload
	Finalize   func(any)   // HeapForeign: called once at sweep, may be nil
	Protected  bool        // HeapForeign: host has a live external reference; GC root
}

// Heap is a simple mark-and-sweep allocator: every HeapObject is
// linked into one intrusive list, `Collect` marks everything
// transitively reachable from the provided roots plus any Protected
// foreign object, then frees (drops the reference to, relying on Go's
// GC to reclaim) everything unmarked (spec.md §5).
type Heap struct {
	all   *HeapObject
	count int

	threshold int // Collect runs automatically once count exceeds this
	growth    int
}

func NewHeap(initialThreshold, growthFactor int) *Heap {
	if initialThreshold <= 0 {
		initialThreshold = 8
	}
	if growthFactor <= 0 {
		growthFactor = 2
	}
	return &Heap{threshold: initialThreshold, growth: growthFactor}
}

func (h *Heap) alloc(o *HeapObject) *HeapObject {
	o.next = h.all
	h.all = o
	h.count++
	return o
}

func (h *Heap) NewString(s string) *HeapObject {
	return h.alloc(&HeapObject{Kind: HeapString, Str: s})
}

func (h *Heap) NewStruct(tag string, fields []Value) *HeapObject {
	return h.alloc(&HeapObject{Kind: HeapStruct, StructTag: tag, Fields: fields})
}

func (h *Heap) NewForeign(tag string, native any, finalize func(any)) *HeapObject {
	return h.alloc(&HeapObject{Kind: HeapForeign, ForeignTag: tag, Native: native, Finalize: finalize})
}

// ShouldCollect reports whether the live object count has crossed the
// current threshold, the trigger condition spec.md §5 describes.
func (h *Heap) ShouldCollect() bool { return h.count > h.threshold }

// Collect marks every object reachable from roots (the VM's value
// stack, the globals array, and any Protected foreign object), then
// sweeps the unmarked rest, growing the threshold so collection
// frequency tapers off as the live set grows (spec.md §5).
func (h *Heap) Collect(roots []Value) {
	for o := h.all; o != nil; o = o.next {
		o.mark = false
	}
	for _, v := range roots {
		h.mark(v)
	}
	for o := h.all; o != nil; o = o.next {
		if o.Kind == HeapForeign && o.Protected {
			h.markObject(o)
		}
	}

	var kept *HeapObject
	count := 0
	for o := h.all; o != nil; {
		next := o.next
		if o.mark {
			o.next = kept
			kept = o
			count++
		} else if o.Kind == HeapForeign && o.Finalize != nil {
			o.Finalize(o.Native)
		}
		o = next
	}
	h.all = kept
	h.count = count
	h.threshold = count * h.growth
	if h.threshold < 8 {
		h.threshold = 8
	}
}

func (h *Heap) mark(v Value) {
	if v.Obj != nil {
		h.markObject(v.Obj)
	}
}

func (h *Heap) markObject(o *HeapObject) {
	if o == nil || o.mark {
		return
	}
	o.mark = true
	if o.Kind == HeapStruct {
		for _, f := range o.Fields {
			h.mark(f)
		}
	}
}
