package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func openTestTTL(t *testing.T, path string, ttl time.Duration, clock *fakeClock) *DB {
	t.Helper()
	d, err := OpenWithTTL(path, ttl, append(testOptions, WithClock(clock.Now))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	d := openTestTTL(t, tempPath(t, "db"), 10*time.Second, clock)
	assert.Equal(t, ModePrimaryTTL, d.Mode())
	assert.Equal(t, 10*time.Second, d.TTL())

	require.NoError(t, d.Put([]byte("old"), []byte("v1")))
	clock.Advance(5 * time.Second)

	batch := NewWriteBatch()
	batch.Put([]byte("new"), []byte("v2"))
	require.NoError(t, d.Write(batch))

	v, ok, err := d.Get([]byte("old"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v, "the timestamp is stripped")

	clock.Advance(6 * time.Second)

	_, ok, err = d.Get([]byte("old"))
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are invisible")

	v, ok, err = d.Get([]byte("new"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	it, err := d.NewIterator()
	require.NoError(t, err)
	defer it.Close() //nolint:errcheck // test teardown
	assert.Equal(t, []pair{{"new", "v2"}}, drain(t, it))

	// Rewriting refreshes the timestamp
	require.NoError(t, d.Put([]byte("old"), []byte("v3")))
	v, ok, err = d.Get([]byte("old"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v3"), v)
}

func TestTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	d := openTestTTL(t, tempPath(t, "db"), 0, clock)

	require.NoError(t, d.Put([]byte("k"), []byte{}))
	clock.Advance(100 * 365 * 24 * time.Hour)

	v, ok, err := d.Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, v)
	assert.Empty(t, v)
}

func TestTTLTruncatesToSeconds(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	d := openTestTTL(t, tempPath(t, "db"), 1500*time.Millisecond, clock)
	assert.Equal(t, time.Second, d.TTL())

	_, err := OpenWithTTL(d.Path(), time.Second, testOptions...)
	assert.ErrorIs(t, err, ErrAlreadyOpen)
	assert.Contains(t, err.Error(), "with ttl 1 seconds")
}

func TestTTLFraming(t *testing.T) {
	created := time.Unix(1_700_000_000, 0)
	framed := appendTTLTimestamp([]byte("value"), created)
	require.Len(t, framed, len("value")+ttlTimestampSize)
	assert.Equal(t, created.Unix(), extractTTLTimestamp(framed))

	assert.False(t, isExpired(created.Unix(), time.Minute, created.Add(time.Minute)))
	assert.True(t, isExpired(created.Unix(), time.Minute, created.Add(time.Minute+time.Second)))
	assert.False(t, isExpired(created.Unix(), -time.Second, created.Add(time.Hour)))
}
