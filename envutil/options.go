package envutil

// Option modifies a Reader, e.g. to supply a default.
type Option[T any] func(Reader[T]) Reader[T]

// Default provides a value for a Reader whose variable is unset.
func Default[T any](dfl T) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithDefault(dfl)
	}
}
