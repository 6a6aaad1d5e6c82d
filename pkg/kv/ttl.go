package kv

import (
	"encoding/binary"
	"time"
)

// ttlTimestampSize is the size of the creation timestamp appended to every
// value written through a TTL handle.
const ttlTimestampSize = 8

// frame appends the creation timestamp to value on TTL handles.
func (h *handle) frame(value []byte) []byte {
	if h.mode != ModePrimaryTTL {
		return value
	}
	return appendTTLTimestamp(value, h.opts.Now())
}

// unframe strips the creation timestamp on TTL handles. live is false when
// the entry has expired.
func (h *handle) unframe(raw []byte) (value []byte, live bool) {
	if h.mode != ModePrimaryTTL || len(raw) < ttlTimestampSize {
		return raw, true
	}
	if isExpired(extractTTLTimestamp(raw), h.ttl, h.opts.Now()) {
		return nil, false
	}
	return raw[:len(raw)-ttlTimestampSize], true
}

func appendTTLTimestamp(value []byte, created time.Time) []byte {
	out := make([]byte, len(value)+ttlTimestampSize)
	copy(out, value)
	binary.LittleEndian.PutUint64(out[len(value):], uint64(created.Unix()))
	return out
}

func extractTTLTimestamp(raw []byte) int64 {
	return int64(binary.LittleEndian.Uint64(raw[len(raw)-ttlTimestampSize:]))
}

// isExpired reports whether an entry created at the given unix second is past
// its ttl. A non-positive ttl never expires.
func isExpired(created int64, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.After(time.Unix(created, 0).Add(ttl))
}
