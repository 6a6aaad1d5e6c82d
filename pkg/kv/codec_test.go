package kv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    []byte
		wantErr bool
	}{
		{name: "bytes", in: []byte("abc"), want: []byte("abc")},
		{name: "empty_bytes", in: []byte{}, want: []byte{}},
		{name: "named_byte_slice", in: json.RawMessage(`{}`), want: []byte(`{}`)},
		{name: "byte_array", in: [3]byte{1, 2, 3}, want: []byte{1, 2, 3}},
		{name: "string", in: "abc", wantErr: true},
		{name: "nil", in: nil, wantErr: true},
		{name: "int", in: 42, wantErr: true},
		{name: "rune_slice", in: []rune("abc"), wantErr: true},
		{name: "int_array", in: [2]int{1, 2}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrTypeConstraint)
				assert.Equal(t, KindTypeConstraint, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeStringMessage(t *testing.T) {
	_, err := Encode("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected bytes, got string")
}

func TestDecode(t *testing.T) {
	assert.Nil(t, Decode(nil, false))
	assert.Nil(t, Decode([]byte("ignored"), false))

	raw := []byte("v")
	got := Decode(raw, true)
	assert.Equal(t, []byte("v"), got)
	raw[0] = 'x'
	assert.Equal(t, []byte("v"), got, "decode copies")

	empty, ok := Decode(nil, true).([]byte)
	require.True(t, ok)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestDynamicValues(t *testing.T) {
	d := openTestDB(t, tempPath(t, "db"))

	require.NoError(t, d.PutValue([]byte("hello"), []byte("world")))
	got, err := d.GetValue([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), got)

	got, err = d.GetValue([]byte("absent"))
	require.NoError(t, err)
	assert.Nil(t, got)

	tests := []struct {
		name string
		fn   func() error
	}{
		{name: "put_string_key", fn: func() error { return d.PutValue("hello", []byte("x")) }},
		{name: "put_string_value", fn: func() error { return d.PutValue([]byte("hello"), "x") }},
		{name: "delete_string_key", fn: func() error { return d.DeleteValue("hello") }},
		{name: "get_string_key", fn: func() error { _, err := d.GetValue("hello"); return err }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.fn(), ErrTypeConstraint)

			// Nothing was mutated
			v, ok, err := d.Get([]byte("hello"))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte("world"), v)
		})
	}

	require.NoError(t, d.DeleteValue([]byte("hello")))
	got, err = d.GetValue([]byte("hello"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDynamicBatch(t *testing.T) {
	batch := NewWriteBatch()
	assert.ErrorIs(t, batch.PutValue("k", []byte("v")), ErrTypeConstraint)
	assert.ErrorIs(t, batch.PutValue([]byte("k"), "v"), ErrTypeConstraint)
	assert.ErrorIs(t, batch.DeleteValue(1), ErrTypeConstraint)
	assert.Zero(t, batch.Len(), "rejected operations are not recorded")

	require.NoError(t, batch.PutValue([]byte("k"), []byte("v")))
	require.NoError(t, batch.DeleteValue([]byte("gone")))
	assert.Equal(t, 2, batch.Len())

	d := openTestDB(t, tempPath(t, "db"))
	require.NoError(t, d.Write(batch))
	got, err := d.GetValue([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestTypeCheckBeforeClosedCheck(t *testing.T) {
	d := openTestDB(t, tempPath(t, "db"))
	require.NoError(t, d.Close())

	assert.ErrorIs(t, d.PutValue("k", []byte("v")), ErrTypeConstraint)
	assert.ErrorIs(t, d.PutValue([]byte("k"), []byte("v")), ErrClosedHandle)
}
