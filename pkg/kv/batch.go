package kv

import "bytes"

type opKind uint8

const (
	opPut opKind = iota
	opDelete
)

type batchOp struct {
	kind  opKind
	key   []byte
	value []byte
}

// WriteBatch records puts and deletes to be applied atomically by DB.Write.
// It is an in-memory value: it owns copies of the recorded keys and values,
// is not bound to any handle and can be written any number of times.
// A WriteBatch is not safe for concurrent mutation.
type WriteBatch struct {
	ops []batchOp
}

func NewWriteBatch() *WriteBatch {
	return &WriteBatch{}
}

// Put records a put of value under key.
func (b *WriteBatch) Put(key, value []byte) {
	b.ops = append(b.ops, batchOp{kind: opPut, key: bytes.Clone(key), value: bytes.Clone(value)})
}

// Delete records a delete of key.
func (b *WriteBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{kind: opDelete, key: bytes.Clone(key)})
}

// Clear drops every recorded operation. Handles the batch was already
// written to are not affected.
func (b *WriteBatch) Clear() {
	b.ops = nil
}

// Len returns the number of recorded operations.
func (b *WriteBatch) Len() int {
	return len(b.ops)
}
