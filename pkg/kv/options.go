package kv

import (
	"time"

	"github.com/rs/zerolog"

	pebblestore "github.com/eigerco/kvbind/pkg/db/pebble"
	"github.com/eigerco/kvbind/pkg/log"
)

// Mode is the way a handle was opened.
type Mode uint8

const (
	ModePrimary Mode = iota
	ModePrimaryTTL
	ModeSecondary
)

func (m Mode) String() string {
	switch m {
	case ModePrimary:
		return "primary"
	case ModePrimaryTTL:
		return "primary-ttl"
	case ModeSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Options tune the engine behind a handle.
type Options struct {
	CacheSize    int64
	MemTableSize uint64
	Logger       zerolog.Logger
	// Now is the clock used to stamp and expire TTL entries.
	Now func() time.Time
}

type Option func(*Options)

func WithCacheSize(bytes int64) Option {
	return func(o *Options) { o.CacheSize = bytes }
}

func WithMemTableSize(bytes uint64) Option {
	return func(o *Options) { o.MemTableSize = bytes }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

func newOptions(opts []Option) Options {
	o := Options{
		CacheSize:    pebblestore.DefaultCacheSize,
		MemTableSize: pebblestore.DefaultMemTableSize,
		Logger:       log.Storage,
		Now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o Options) engine(readOnly bool) pebblestore.Options {
	return pebblestore.Options{
		ReadOnly:     readOnly,
		CacheSize:    o.CacheSize,
		MemTableSize: o.MemTableSize,
		Logger:       o.Logger,
	}
}
