package rules

// Param is an optional rule field. It distinguishes three states: the key is
// absent, the key is declared with a null value, and the key is declared with
// a value.
type Param[T any] struct {
	declared bool
	value    *T
}

// Set returns a Param declared with v.
func Set[T any](v T) Param[T] {
	return Param[T]{declared: true, value: &v}
}

// Null returns a Param declared with a null value.
func Null[T any]() Param[T] {
	return Param[T]{declared: true}
}

// Declared reports whether the key is present, null or not.
func (p Param[T]) Declared() bool { return p.declared }

// Get returns the value and whether it is non-null.
func (p Param[T]) Get() (T, bool) {
	if p.value == nil {
		var zero T
		return zero, false
	}
	return *p.value, true
}

// IsNull reports whether the key is declared with a null value.
func (p Param[T]) IsNull() bool { return p.declared && p.value == nil }
