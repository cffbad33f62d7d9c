package stdlib

import (
	"os"
	"sync"

	"github.com/tiny-lang/tiny"
)

// Pool is a cache of compiled Hosts keyed by script path, recompiling
// a script only when its file's mtime has advanced since the cached
// copy was built. It adapts the shape of examples/server/src/
// scriptpool.c's ScriptPool — the one piece of that example generic
// enough to exercise the host interface rather than being HTTP-
// specific — without the original's own thread-pool scheduling, which
// is out of scope per spec.md §1's non-goals around preemptive
// scheduling.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry

	// Init runs against a freshly created Host before CompileFile,
	// the pool's equivalent of scriptpool.c's InitStateFunction: bind
	// whatever stdlib/host functions the caller's scripts need.
	Init func(h *tiny.Host)
}

type poolEntry struct {
	host    *tiny.Host
	modTime int64
}

func NewPool(initState func(h *tiny.Host)) *Pool {
	return &Pool{entries: make(map[string]*poolEntry), Init: initState}
}

// Get returns a compiled Host for `path`, recompiling it if the file
// has changed since the last call (or if it was never compiled). A
// thread started against a stale *Host remains valid; only future
// callers of Get see the new one, matching scriptpool.c's
// in-use check before replacing a cached state.
func (p *Pool) Get(path string) (*tiny.Host, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	mtime := info.ModTime().UnixNano()

	if e, ok := p.entries[path]; ok && e.modTime >= mtime {
		return e.host, nil
	}

	h := tiny.NewHost(nil)
	if p.Init != nil {
		p.Init(h)
	}
	if err := h.CompileFile(path); err != nil {
		return nil, err
	}
	p.entries[path] = &poolEntry{host: h, modTime: mtime}
	return h, nil
}

// Evict drops `path` from the cache, forcing the next Get to recompile
// it from disk even if its mtime hasn't changed.
func (p *Pool) Evict(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, path)
}
