package models

// Optional is a tri-state field value used by partial updates: not provided,
// explicitly null, or set to a value. The zero value is "not provided".
type Optional[T any] struct {
	value T
	set   bool
	null  bool
}

// Some returns a provided, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Null returns a provided value that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// IsSet reports whether the caller provided the field at all.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// IsNull reports whether the field was provided as an explicit null.
func (o Optional[T]) IsNull() bool {
	return o.set && o.null
}

// Get returns the value and true when the field carries a non-null value.
func (o Optional[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// OptionalString builds a text overlay from a value that may be absent.
// Absent stays unset; an empty string is treated as an explicit null.
func OptionalString(v string, present bool) Optional[string] {
	if !present {
		return Optional[string]{}
	}
	if v == "" {
		return Null[string]()
	}
	return Some(v)
}
