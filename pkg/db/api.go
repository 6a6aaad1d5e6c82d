package db

// KVStore represents an ordered key-value storage engine providing basic
// operations for data manipulation and iteration.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator(start, end []byte) (Iterator, error)
	// Checkpoint writes a consistent, openable copy of the store into dir.
	// dir must not exist.
	Checkpoint(dir string) error
	Flush() error
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch represents an atomic batch of operations.
// All operations in a batch are performed atomically.
type Batch interface {
	Writer
	Delete(key []byte) error
	Count() int
	Commit() error
	Close() error
}

// Iterator provides sequential, ascending access over a range of key-value
// pairs as of the moment it was created.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Error() error
	Close() error
}
