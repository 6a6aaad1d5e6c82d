package kv

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/uuid"

	pebblestore "github.com/eigerco/kvbind/pkg/db/pebble"
)

// A secondary reads from a private checkpoint of the primary kept under
// secondaryPath. Catching up takes a new checkpoint and swaps it in.
const checkpointPrefix = "checkpoint-"

// OpenAsSecondary opens a read-only handle on secondaryPath that mirrors the
// database at primaryPath as of the open, and later as of every call to
// TryCatchUpWithPrimary. Only secondaryPath is registered, so the secondary
// can coexist with a live primary handle.
func OpenAsSecondary(primaryPath, secondaryPath string, opts ...Option) (*DB, error) {
	d, err := openSecondary(primaryPath, secondaryPath, newOptions(opts))
	if err != nil {
		return nil, observe("open", errors.Wrapf(err, "can not open secondary instance %s with %s", secondaryPath, primaryPath))
	}
	return d, observe("open", nil)
}

func openSecondary(primaryPath, secondaryPath string, o Options) (*DB, error) {
	primary, err := canonicalPath(primaryPath)
	if err != nil {
		return nil, err
	}
	secondary, err := canonicalPath(secondaryPath)
	if err != nil {
		return nil, err
	}
	if primary == secondary {
		return nil, errors.Wrap(ErrMode, "secondary path must differ from the primary path")
	}

	reg := handles()
	h, err := reg.open(secondary, ModeSecondary, func() (*handle, error) {
		if err := clearCheckpoints(secondary); err != nil {
			return nil, engineError(err)
		}
		gen, err := checkpointLocked(reg, primary, secondary, o)
		if err != nil {
			return nil, err
		}
		h := newHandle(reg, secondary, ModeSecondary, 0, o, gen)
		h.primaryPath = primary
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return newDB(h), nil
}

// catchUp swaps in a fresh checkpoint of the primary. The previous
// generation is released once no iterator uses it.
func (h *handle) catchUp() error {
	if h.isClosed() {
		return ErrClosedHandle
	}
	if h.mode != ModeSecondary {
		return errors.Wrapf(ErrMode, "a %s handle does not trail a primary", h.mode)
	}

	h.catchUpMu.Lock()
	defer h.catchUpMu.Unlock()

	var gen *generation
	err := h.reg.do(func() (err error) {
		gen, err = checkpointLocked(h.reg, h.primaryPath, h.path, h.opts)
		return err
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		if err := gen.release(); err != nil {
			h.log.Error().Err(err).Msg("releasing checkpoint of a closed secondary")
		}
		return ErrClosedHandle
	}

	old := h.gen
	h.gen = gen
	old.retired = true
	if old.pins == 0 {
		return engineError(old.release())
	}
	return nil
}

// checkpointLocked copies the primary into a new directory under secondary
// and opens it read-only. It requires the registry lock: a live primary
// handle is checkpointed in place, otherwise the primary's files are copied
// while holding its file lock.
func checkpointLocked(reg *registry, primary, secondary string, o Options) (*generation, error) {
	if err := vfs.Default.MkdirAll(secondary, 0755); err != nil {
		return nil, engineError(err)
	}
	dir := filepath.Join(secondary, checkpointPrefix+uuid.NewString())

	var err error
	if e := reg.get(primary); e != nil {
		if e.mode == ModeSecondary {
			return nil, errors.Wrapf(ErrMode, "%s is held by a secondary handle", primary)
		}
		err = e.h.checkpoint(dir)
		if errors.Is(err, ErrClosedHandle) {
			// The primary is closing and waits on the registry to release
			// its entry; its files are no longer in use.
			err = pebblestore.CopyStore(primary, dir)
		}
	} else {
		err = pebblestore.CopyStore(primary, dir)
	}
	if err != nil {
		return nil, errors.CombineErrors(engineError(err), pebblestore.Destroy(dir))
	}

	store, err := pebblestore.Open(dir, o.engine(true))
	if err != nil {
		return nil, errors.CombineErrors(engineError(err), pebblestore.Destroy(dir))
	}
	return &generation{store: store, dir: dir}, nil
}

// clearCheckpoints removes checkpoints left behind by a secondary that was
// not closed.
func clearCheckpoints(secondary string) error {
	names, err := vfs.Default.List(secondary)
	if oserror.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, name := range names {
		if !strings.HasPrefix(name, checkpointPrefix) {
			continue
		}
		if err := pebblestore.Destroy(filepath.Join(secondary, name)); err != nil {
			return err
		}
	}
	return nil
}
