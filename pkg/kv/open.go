package kv

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"

	pebblestore "github.com/eigerco/kvbind/pkg/db/pebble"
)

// OpenDefault opens the database at path for reading and writing, creating
// it if it does not exist. It fails with ErrAlreadyOpen if a live handle in
// this process holds path.
func OpenDefault(path string, opts ...Option) (*DB, error) {
	d, err := openPrimary(path, ModePrimary, 0, newOptions(opts))
	if err != nil {
		return nil, observe("open", errors.Wrapf(err, "can not open %s", path))
	}
	return d, observe("open", nil)
}

// OpenWithTTL opens the database at path like OpenDefault, with entries
// becoming invisible ttl after they were written. ttl is truncated to whole
// seconds; a non-positive ttl means entries never expire.
func OpenWithTTL(path string, ttl time.Duration, opts ...Option) (*DB, error) {
	ttl = ttl.Truncate(time.Second)
	d, err := openPrimary(path, ModePrimaryTTL, ttl, newOptions(opts))
	if err != nil {
		return nil, observe("open", errors.Wrapf(err, "can not open %s with ttl %d seconds", path, int64(ttl/time.Second)))
	}
	return d, observe("open", nil)
}

func openPrimary(path string, mode Mode, ttl time.Duration, o Options) (*DB, error) {
	canonical, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}
	reg := handles()
	h, err := reg.open(canonical, mode, func() (*handle, error) {
		store, err := pebblestore.Open(canonical, o.engine(false))
		if err != nil {
			return nil, engineError(err)
		}
		return newHandle(reg, canonical, mode, ttl, o, &generation{store: store}), nil
	})
	if err != nil {
		return nil, err
	}
	return newDB(h), nil
}

// With opens the database at path, runs fn and closes the database, also
// when fn fails or panics.
func With(path string, fn func(*DB) error, opts ...Option) (err error) {
	d, err := OpenDefault(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, d.Close())
	}()
	return fn(d)
}
