package kv

import (
	"github.com/cockroachdb/errors"

	pebblestore "github.com/eigerco/kvbind/pkg/db/pebble"
	"github.com/eigerco/kvbind/pkg/log"
)

// Destroy irreversibly deletes the database at path. It fails with ErrInUse
// while a live handle holds path; a missing database is not an error.
func Destroy(path string) error {
	canonical, err := canonicalPath(path)
	if err == nil {
		err = handles().exclusive(canonical, func() error {
			return engineError(pebblestore.Destroy(canonical))
		})
	}
	if err != nil {
		return observe("destroy", errors.Wrapf(err, "can not destroy %s", path))
	}
	log.Storage.Debug().Str("path", canonical).Msg("database destroyed")
	return observe("destroy", nil)
}

// Repair brings the database at path back into a consistent, openable state.
// It fails with ErrInUse while a live handle holds path.
func Repair(path string, opts ...Option) error {
	o := newOptions(opts)
	canonical, err := canonicalPath(path)
	if err == nil {
		err = handles().exclusive(canonical, func() error {
			return engineError(pebblestore.Repair(canonical, o.engine(false)))
		})
	}
	if err != nil {
		return observe("repair", errors.Wrapf(err, "can not repair %s", path))
	}
	o.Logger.Debug().Str("path", canonical).Msg("database repaired")
	return observe("repair", nil)
}
