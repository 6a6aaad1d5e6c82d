package kv

import (
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// entry records a live handle on a canonical path.
type entry struct {
	path string
	mode Mode
	h    *handle
}

// registry tracks which paths have a live handle in this process. The engine
// only locks directories against other processes; the registry is what
// refuses a second open, a destroy or a repair from within this one.
type registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

var handles = sync.OnceValue(func() *registry {
	return &registry{entries: make(map[string]*entry)}
})

// do runs fn while holding the registry lock.
func (r *registry) do(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// get requires the registry lock.
func (r *registry) get(path string) *entry {
	return r.entries[path]
}

// open registers the handle built by open under path. The lookup, the engine
// open and the insert happen under one lock, so two concurrent opens of the
// same path cannot both succeed. A failed open registers nothing.
func (r *registry) open(path string, mode Mode, open func() (*handle, error)) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.entries[path]; e != nil {
		return nil, errors.Wrapf(ErrAlreadyOpen, "held by a %s handle", e.mode)
	}
	h, err := open()
	if err != nil {
		return nil, err
	}
	r.entries[path] = &entry{path: path, mode: mode, h: h}
	return h, nil
}

// release drops the entry for path if it still belongs to h.
func (r *registry) release(path string, h *handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.entries[path]; e != nil && e.h == h {
		delete(r.entries, path)
	}
}

// exclusive runs fn on an unregistered path, keeping the registry locked so
// that no handle can be opened on path until fn returns.
func (r *registry) exclusive(path string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.entries[path]; e != nil {
		return errors.Wrapf(ErrInUse, "held by a %s handle", e.mode)
	}
	return fn()
}

func (r *registry) isOpen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[path] != nil
}

// IsOpen reports whether a live handle in this process holds path.
func IsOpen(path string) bool {
	canonical, err := canonicalPath(path)
	if err != nil {
		return false
	}
	return handles().isOpen(canonical)
}

// canonicalPath returns the absolute, cleaned form of path with symlinks
// resolved for the longest prefix that exists.
func canonicalPath(path string) (string, error) {
	if path == "" {
		return "", engineError(errors.New("empty database path"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", engineError(err)
	}

	dir, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
