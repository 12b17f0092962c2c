package keyvaluedb

import (
	"errors"
	"reflect"
)

var (
	ErrEmptyKey   = errors.New("key is empty")
	ErrNilValue   = errors.New("value is nil")
	ErrInvalidPtr = errors.New("value must be a non-nil pointer")
)

// CheckKey validates the key before it is handed to the backing store.
func CheckKey(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}

// CheckKeyAndValue validates both read/write inputs.
func CheckKeyAndValue(key []byte, v any) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if v == nil {
		return ErrNilValue
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return ErrInvalidPtr
	}
	return nil
}
