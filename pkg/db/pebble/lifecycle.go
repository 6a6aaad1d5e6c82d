package pebble

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/multierr"
)

const (
	lockFile    = "LOCK"
	currentFile = "CURRENT"
)

// Destroy removes every file of the store at path, and the directory itself.
// A missing directory is not an error. The store's file lock is taken first,
// so a store held by another process is left untouched.
func Destroy(path string) (err error) {
	fs := vfs.Default
	if _, err := fs.Stat(path); err != nil {
		if oserror.IsNotExist(err) {
			return nil
		}
		return err
	}

	lock, err := fs.Lock(fs.PathJoin(path, lockFile))
	if err != nil {
		return errors.Wrap(err, "kv-store: database is locked")
	}
	defer func() {
		err = multierr.Append(err, closeLock(lock))
	}()

	return fs.RemoveAll(path)
}

// Repair brings the store at path back into a consistent, openable state: it
// is opened (which replays the WAL), the recovered memtable is flushed into
// sstables and the store is closed again.
func Repair(path string, opts Options) (err error) {
	if !Exists(path) {
		return ErrNotExist
	}

	opts.ReadOnly = false
	opts.ErrorIfNotExists = true
	store, err := Open(path, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	return store.Flush()
}

// Exists reports whether path holds a store.
func Exists(path string) bool {
	_, err := vfs.Default.Stat(vfs.Default.PathJoin(path, currentFile))
	return err == nil
}

// CopyStore copies a closed store from src into the new directory dst while
// holding src's file lock. It is used when no open handle is available to
// take a checkpoint from.
func CopyStore(src, dst string) (err error) {
	fs := vfs.Default
	if !Exists(src) {
		return ErrNotExist
	}
	if _, err := fs.Stat(dst); !oserror.IsNotExist(err) {
		return errors.Newf("kv-store: copy destination %q already exists", dst)
	}

	lock, err := fs.Lock(fs.PathJoin(src, lockFile))
	if err != nil {
		return errors.Wrap(err, "kv-store: database is locked")
	}
	defer func() {
		err = multierr.Append(err, closeLock(lock))
	}()

	names, err := fs.List(src)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(dst, 0755); err != nil {
		return err
	}
	for _, name := range names {
		if name == lockFile {
			continue
		}
		from := fs.PathJoin(src, name)
		info, err := fs.Stat(from)
		if err != nil {
			return err
		}
		if info.IsDir() {
			continue
		}
		if err := vfs.Copy(fs, from, fs.PathJoin(dst, name)); err != nil {
			return multierr.Append(err, fs.RemoveAll(dst))
		}
	}
	return nil
}

func closeLock(lock io.Closer) error {
	if lock == nil {
		return nil
	}
	return lock.Close()
}
