package kv

import (
	"reflect"
)

// Encode converts a host value into the raw bytes handed to the engine. Only
// byte sequences are accepted: []byte, named byte slice types and byte
// arrays. Strings are rejected rather than implicitly UTF-8 encoded.
func Encode(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, typeError(v)
	case []byte:
		return b, nil
	case string:
		return nil, typeError(v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), nil
		}
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			out := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(out), rv)
			return out, nil
		}
	}
	return nil, typeError(v)
}

// Decode converts a lookup result back into a host value. An absent key
// decodes to nil; a present key always decodes to a non-nil []byte, even when
// the stored value is empty.
func Decode(raw []byte, found bool) any {
	if !found {
		return nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

// GetValue is Get for host values.
func (d *DB) GetValue(key any) (any, error) {
	k, err := Encode(key)
	if err != nil {
		return nil, observe("get", err)
	}
	v, ok, err := d.Get(k)
	if err != nil {
		return nil, err
	}
	return Decode(v, ok), nil
}

// PutValue is Put for host values. Both arguments are checked before
// anything is written.
func (d *DB) PutValue(key, value any) error {
	k, err := Encode(key)
	if err != nil {
		return observe("put", err)
	}
	v, err := Encode(value)
	if err != nil {
		return observe("put", err)
	}
	return d.Put(k, v)
}

// DeleteValue is Delete for host values.
func (d *DB) DeleteValue(key any) error {
	k, err := Encode(key)
	if err != nil {
		return observe("delete", err)
	}
	return d.Delete(k)
}

// PutValue is Put for host values. Nothing is recorded on error.
func (b *WriteBatch) PutValue(key, value any) error {
	k, err := Encode(key)
	if err != nil {
		return err
	}
	v, err := Encode(value)
	if err != nil {
		return err
	}
	b.Put(k, v)
	return nil
}

// DeleteValue is Delete for host values. Nothing is recorded on error.
func (b *WriteBatch) DeleteValue(key any) error {
	k, err := Encode(key)
	if err != nil {
		return err
	}
	b.Delete(k)
	return nil
}
