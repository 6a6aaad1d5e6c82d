package kv

import (
	"runtime"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/eigerco/kvbind/pkg/db"
	pebblestore "github.com/eigerco/kvbind/pkg/db/pebble"
)

// DB is a handle on one open database. A DB is safe for concurrent use.
//
// Close releases the handle. A DB that becomes unreachable without being
// closed is closed by the garbage collector, so its path is eventually
// released even on unstructured control flow; callers should still close
// handles explicitly, or use With.
type DB struct {
	h *handle
}

// handle holds the state of a DB. It is split from DB so that the registry
// and iterators can reference the state without keeping the DB reachable.
type handle struct {
	path        string
	primaryPath string
	mode        Mode
	ttl         time.Duration
	opts        Options
	log         zerolog.Logger
	reg         *registry

	mu     sync.RWMutex
	closed bool
	gen    *generation
	iters  map[*iterState]struct{}

	catchUpMu sync.Mutex
}

// generation is one open engine instance. A secondary replaces its
// generation on every catch-up; a retired generation stays open until the
// last iterator created on it is done.
type generation struct {
	store   db.KVStore
	dir     string
	pins    int
	retired bool
}

func (g *generation) release() error {
	err := g.store.Close()
	if g.dir != "" {
		err = multierr.Append(err, pebblestore.Destroy(g.dir))
	}
	return err
}

func newHandle(reg *registry, path string, mode Mode, ttl time.Duration, opts Options, gen *generation) *handle {
	return &handle{
		path:  path,
		mode:  mode,
		ttl:   ttl,
		opts:  opts,
		log:   opts.Logger.With().Str("path", path).Str("mode", mode.String()).Logger(),
		reg:   reg,
		gen:   gen,
		iters: make(map[*iterState]struct{}),
	}
}

func newDB(h *handle) *DB {
	d := &DB{h: h}
	runtime.SetFinalizer(d, (*DB).finalize)
	openHandles.WithLabelValues(h.mode.String()).Inc()
	h.log.Debug().Msg("database opened")
	return d
}

func (d *DB) finalize() {
	if d.h.isClosed() {
		return
	}
	d.h.log.Warn().Msg("database handle was not closed; closing it")
	if err := d.h.close(); err != nil {
		d.h.log.Error().Err(err).Msg("closing leaked database handle")
	}
}

// Path returns the canonical path the handle was opened on. It stays valid
// after Close.
func (d *DB) Path() string {
	return d.h.path
}

func (d *DB) Mode() Mode {
	return d.h.mode
}

// TTL returns the expiry of entries written through a ModePrimaryTTL handle.
// Zero means entries never expire.
func (d *DB) TTL() time.Duration {
	return d.h.ttl
}

// Get returns the value stored under key. ok is false if the key is absent
// (or expired); a present key always yields a non-nil value.
func (d *DB) Get(key []byte) (value []byte, ok bool, err error) {
	value, ok, err = d.h.get(key)
	if err != nil {
		return nil, false, observe("get", errors.Wrapf(err, "can not get key %q", key))
	}
	observe("get", nil)
	return value, ok, nil
}

// Put stores value under key, overwriting any previous value.
func (d *DB) Put(key, value []byte) error {
	if err := d.h.put(key, value); err != nil {
		return observe("put", errors.Wrapf(err, "can not put key %q", key))
	}
	return observe("put", nil)
}

// Delete removes key. Deleting an absent key is not an error.
func (d *DB) Delete(key []byte) error {
	if err := d.h.delete(key); err != nil {
		return observe("delete", errors.Wrapf(err, "can not delete key %q", key))
	}
	return observe("delete", nil)
}

// Write applies the operations recorded in batch, in order, as one atomic
// unit. The batch is left untouched and can be written again.
func (d *DB) Write(batch *WriteBatch) error {
	if batch == nil {
		return observe("write", errors.Wrap(ErrTypeConstraint, "can not write batch: batch is nil"))
	}
	if err := d.h.write(batch); err != nil {
		return observe("write", errors.Wrapf(err, "can not write batch of %d elements", batch.Len()))
	}
	return observe("write", nil)
}

// TryCatchUpWithPrimary refreshes a secondary handle with the primary's
// current state. Reads issued before it returns see the previous state.
func (d *DB) TryCatchUpWithPrimary() error {
	if err := d.h.catchUp(); err != nil {
		return observe("catch_up", errors.Wrap(err, "can not catch up with the primary"))
	}
	d.h.log.Debug().Str("primary", d.h.primaryPath).Msg("caught up with primary")
	return observe("catch_up", nil)
}

// Close closes the handle and releases its path. Iterators created from the
// handle stop with ErrClosedHandle. Close is idempotent.
func (d *DB) Close() error {
	runtime.SetFinalizer(d, nil)
	if err := d.h.close(); err != nil {
		return observe("close", errors.Wrapf(err, "can not close %s", d.h.path))
	}
	return observe("close", nil)
}

func (h *handle) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// writable requires h.mu.
func (h *handle) writable() error {
	if h.closed {
		return ErrClosedHandle
	}
	if h.mode == ModeSecondary {
		return errors.Wrap(ErrMode, "secondary handles are read-only")
	}
	return nil
}

func (h *handle) get(key []byte) ([]byte, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil, false, ErrClosedHandle
	}
	raw, err := h.gen.store.Get(key)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, engineError(err)
	}
	value, live := h.unframe(raw)
	if !live {
		return nil, false, nil
	}
	return value, true, nil
}

func (h *handle) put(key, value []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if err := h.writable(); err != nil {
		return err
	}
	return engineError(h.gen.store.Put(key, h.frame(value)))
}

func (h *handle) delete(key []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if err := h.writable(); err != nil {
		return err
	}
	return engineError(h.gen.store.Delete(key))
}

func (h *handle) write(batch *WriteBatch) (err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if err := h.writable(); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}

	eb := h.gen.store.NewBatch()
	defer func() {
		err = multierr.Append(err, engineError(eb.Close()))
	}()
	for _, op := range batch.ops {
		switch op.kind {
		case opPut:
			err = eb.Put(op.key, h.frame(op.value))
		case opDelete:
			err = eb.Delete(op.key)
		}
		if err != nil {
			return engineError(err)
		}
	}
	return engineError(eb.Commit())
}

// checkpoint writes a copy of the handle's database into dir for a secondary.
func (h *handle) checkpoint(dir string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosedHandle
	}
	return engineError(h.gen.store.Checkpoint(dir))
}

// close must not be called with the registry lock held.
func (h *handle) close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true

	var err error
	for st := range h.iters {
		err = multierr.Append(err, h.finishLocked(st, ErrClosedHandle))
	}
	err = multierr.Append(err, h.gen.release())
	h.mu.Unlock()

	h.reg.release(h.path, h)
	openHandles.WithLabelValues(h.mode.String()).Dec()
	h.log.Debug().Msg("database closed")
	return engineError(err)
}
