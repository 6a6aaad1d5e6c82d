package pebble

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"

	"github.com/eigerco/kvbind/pkg/db"
)

const (
	DefaultCacheSize    = 64 * 1024 * 1024 // 64MB
	DefaultMemTableSize = 32 * 1024 * 1024 // 32MB
)

// Options configures how a store is opened. The zero value opens (and creates
// if missing) a writable store with the default cache and memtable sizes.
type Options struct {
	// ReadOnly opens the store without write access. The directory must exist.
	ReadOnly bool
	// ErrorIfNotExists refuses to create a new store.
	ErrorIfNotExists bool
	CacheSize        int64
	MemTableSize     uint64
	Logger           zerolog.Logger
}

type KVStore struct {
	db       *pebble.DB
	readOnly bool
	closed   bool
	mu       sync.RWMutex
}

var _ db.KVStore = (*KVStore)(nil)

// Open opens the pebble store rooted at path.
func Open(path string, opts Options) (*KVStore, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.MemTableSize == 0 {
		opts.MemTableSize = DefaultMemTableSize
	}

	cache := pebble.NewCache(opts.CacheSize)
	defer cache.Unref()

	pdb, err := pebble.Open(path, &pebble.Options{
		Cache:            cache,
		MemTableSize:     opts.MemTableSize,
		ReadOnly:         opts.ReadOnly,
		ErrorIfNotExists: opts.ErrorIfNotExists,
		Logger:           newLogger(opts.Logger),
	})
	if err != nil {
		return nil, err
	}

	return &KVStore{db: pdb, readOnly: opts.ReadOnly}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck // closer only releases a reference

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

// Checkpoint writes a consistent copy of the store into dir, including writes
// that are still only in the WAL.
func (p *KVStore) Checkpoint(dir string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	if p.readOnly {
		return pebble.ErrReadOnly
	}

	return p.db.Checkpoint(dir, pebble.WithFlushedWAL())
}

// Flush persists the memtable into sstables.
func (p *KVStore) Flush() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Flush()
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
