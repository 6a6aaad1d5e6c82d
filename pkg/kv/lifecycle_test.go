package kv

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroy(t *testing.T) {
	path := tempPath(t, "db")
	d := openTestDB(t, path)
	require.NoError(t, d.Put([]byte("k"), []byte("v")))

	err := Destroy(path)
	assert.ErrorIs(t, err, ErrInUse)
	assert.Equal(t, KindInUse, KindOf(err))
	assert.Contains(t, err.Error(), "can not destroy")

	// Refusal left the data and the handle alone
	v, ok, err := d.Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, d.Close())
	require.NoError(t, Destroy(d.Path()))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// A destroyed database reopens empty
	d = openTestDB(t, path)
	_, ok, err = d.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDestroyMissing(t *testing.T) {
	assert.NoError(t, Destroy(tempPath(t, "missing")))
}

func TestRepair(t *testing.T) {
	path := tempPath(t, "db")
	d := openTestDB(t, path)
	require.NoError(t, d.Put([]byte("k"), []byte("v")))

	err := Repair(path, testOptions...)
	assert.ErrorIs(t, err, ErrInUse)
	assert.Contains(t, err.Error(), "can not repair")

	require.NoError(t, d.Close())
	require.NoError(t, Repair(path, testOptions...))
	assert.False(t, IsOpen(path), "repair does not leave the path registered")

	d = openTestDB(t, path)
	v, ok, err := d.Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestRepairMissing(t *testing.T) {
	err := Repair(tempPath(t, "missing"), testOptions...)
	assert.ErrorIs(t, err, ErrEngine)
}

func TestWith(t *testing.T) {
	path := tempPath(t, "db")

	t.Run("closes_on_success", func(t *testing.T) {
		err := With(path, func(d *DB) error {
			assert.True(t, IsOpen(path))
			return d.Put([]byte("k"), []byte("v"))
		}, testOptions...)
		require.NoError(t, err)
		assert.False(t, IsOpen(path))
	})

	t.Run("closes_on_error", func(t *testing.T) {
		sentinel := assert.AnError
		err := With(path, func(*DB) error { return sentinel }, testOptions...)
		assert.ErrorIs(t, err, sentinel)
		assert.False(t, IsOpen(path))
	})

	t.Run("closes_on_panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = With(path, func(*DB) error { panic("boom") }, testOptions...)
		})
		assert.False(t, IsOpen(path))
		assert.NoError(t, Destroy(path))
	})
}
