/*
Package kv exposes an embedded, persistent, ordered key-value store.

A database directory is opened as a primary (OpenDefault), as a primary whose
entries expire (OpenWithTTL), or as a read-only secondary that trails a
primary (OpenAsSecondary). The returned *DB supports Get, Put, Delete, atomic
Write of a WriteBatch and ordered iteration.

At most one live handle may hold a directory within the process. Opening a
held directory fails with ErrAlreadyOpen, and Destroy and Repair fail with
ErrInUse until the handle is closed. Close is idempotent; after it every
operation on the handle fails with ErrClosedHandle.

	err := kv.With(path, func(d *kv.DB) error {
		return d.Put([]byte("hello"), []byte("world"))
	})

Keys and values are byte slices. Hosts that pass untyped values use the
*Value methods, which reject anything that is not a byte sequence with
ErrTypeConstraint before touching the engine.
*/
package kv
