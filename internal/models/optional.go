// internal/models/optional.go
package models

import (
	"bytes"
	"encoding/json"
)

// Optional marks a request field that may be absent. A JSON key that is
// missing or null leaves the Optional unset; any other value sets it, even
// the zero value of T.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// ApplyTo overwrites *dst when the value is set and reports whether it did.
func (o Optional[T]) ApplyTo(dst *T) bool {
	if !o.set {
		return false
	}
	*dst = o.value
	return true
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*o = Some(value)
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
