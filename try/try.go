// Package try holds a value/error pair produced by a computation that may fail.
package try

// Try is the outcome of a computation: either a Value or an Error.
type Try[A any] struct {
	Value A
	Error error
}

// Of builds a Try from a Go-style (value, error) return.
func Of[A any](value A, err error) Try[A] {
	if err != nil {
		var zero A

		return Try[A]{Value: zero, Error: err}
	}

	return Try[A]{Value: value}
}

func (t Try[A]) IsSuccess() bool {
	return t.Error == nil
}

func (t Try[A]) IsFailure() bool {
	return t.Error != nil
}

func (t Try[A]) Get() (A, error) { //nolint:ireturn
	if t.IsFailure() {
		var zero A

		return zero, t.Error
	}

	return t.Value, nil
}
