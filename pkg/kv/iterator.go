package kv

import (
	"iter"
	"runtime"

	"go.uber.org/multierr"

	"github.com/eigerco/kvbind/pkg/db"
)

// Iterator walks every live entry of a handle in ascending key order, as of
// the moment it was created. It is a one-shot sequence: once Next returns
// false it stays exhausted.
//
//	it, err := d.NewIterator()
//	...
//	defer it.Close()
//	for it.Next() {
//		use(it.Key(), it.Value())
//	}
//	return it.Err()
//
// An Iterator keeps its DB reachable. If the DB is closed while the iterator
// is in use, Next returns false and Err returns ErrClosedHandle. An Iterator
// must not be used from several goroutines at once.
type Iterator struct {
	db *DB
	st *iterState
}

// iterState is tracked by the handle, which finishes it on close.
type iterState struct {
	it    db.Iterator
	gen   *generation
	key   []byte
	value []byte
	err   error
	done  bool
}

// NewIterator returns an iterator over the whole keyspace.
func (d *DB) NewIterator() (*Iterator, error) {
	st, err := d.h.newIterator()
	if err != nil {
		return nil, observe("iterate", err)
	}
	it := &Iterator{db: d, st: st}
	runtime.SetFinalizer(it, (*Iterator).Close)
	return it, observe("iterate", nil)
}

func (h *handle) newIterator() (*iterState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosedHandle
	}
	dbIt, err := h.gen.store.NewIterator(nil, nil)
	if err != nil {
		return nil, engineError(err)
	}
	st := &iterState{it: dbIt, gen: h.gen}
	h.gen.pins++
	h.iters[st] = struct{}{}
	return st, nil
}

// Next advances to the next entry and reports whether there is one.
func (it *Iterator) Next() bool {
	h := it.db.h
	st := it.st

	h.mu.RLock()
	if st.done {
		h.mu.RUnlock()
		return false
	}
	for st.it.Next() {
		raw, err := st.it.Value()
		if err != nil {
			h.mu.RUnlock()
			it.stop(engineError(err))
			return false
		}
		value, live := h.unframe(raw)
		if !live {
			continue
		}
		st.key, st.value = st.it.Key(), value
		h.mu.RUnlock()
		return true
	}
	err := engineError(st.it.Error())
	h.mu.RUnlock()

	it.stop(err)
	return false
}

func (it *Iterator) stop(err error) {
	it.st.key, it.st.value = nil, nil
	if ferr := it.db.h.finish(it.st, err); ferr != nil && err == nil {
		it.db.h.mu.Lock()
		it.st.err = ferr
		it.db.h.mu.Unlock()
	}
}

// Key returns the key of the current entry. It is nil before the first call
// to Next and after the iterator is exhausted.
func (it *Iterator) Key() []byte {
	return it.st.key
}

// Value returns the value of the current entry.
func (it *Iterator) Value() []byte {
	return it.st.value
}

// Err returns the error that stopped the iteration, if any. Exhaustion is not
// an error.
func (it *Iterator) Err() error {
	it.db.h.mu.RLock()
	defer it.db.h.mu.RUnlock()
	return it.st.err
}

// All returns the remaining entries as a sequence. Check Err after ranging.
func (it *Iterator) All() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		for it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Close releases the iterator. It is safe to call more than once and after
// the DB has been closed.
func (it *Iterator) Close() error {
	runtime.SetFinalizer(it, nil)
	return it.db.h.finish(it.st, nil)
}

func (h *handle) finish(st *iterState, cause error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finishLocked(st, cause)
}

// finishLocked requires h.mu held for writing.
func (h *handle) finishLocked(st *iterState, cause error) error {
	if st.done {
		return nil
	}
	st.done = true
	st.err = cause
	delete(h.iters, st)

	err := st.it.Close()
	st.gen.pins--
	if st.gen.retired && st.gen.pins == 0 {
		err = multierr.Append(err, st.gen.release())
	}
	return engineError(err)
}
