package tasks

import "encoding/json"

// Optional distinguishes an absent field from a present one. For pointer
// types a present null is Set with a nil Value, which clears the column.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present, empty value.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON marks the field present. It is only called for keys that
// appear in the document, null included.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

