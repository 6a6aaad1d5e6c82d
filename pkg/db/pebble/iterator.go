package pebble

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"github.com/eigerco/kvbind/pkg/db"
)

// Iterator walks the store in ascending key order. pebble iterators observe
// the state of the store at the time they were created.
type Iterator struct {
	iter    *pebble.Iterator
	started bool
}

func (p *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, errors.Wrap(err, "kv-store: unable to create iterator")
	}
	return &Iterator{iter: iter}, nil
}

// Next advances the iterator. The first call positions it at the first key.
// Once it has returned false it keeps returning false.
func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	if !it.iter.Valid() {
		return false
	}
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	key := it.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, ErrIteratorInvalid
	}

	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, errors.Wrap(err, "kv-store: unable to read iterator value")
	}

	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *Iterator) Valid() bool {
	return it.iter.Valid()
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
