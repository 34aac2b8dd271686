// Package result holds the success-or-error value returned by every repository
// operation. A Result never exposes its value without its error alongside.
package result

// Result is either a value of T or an Error, never both.
type Result[T any] struct {
	value T
	err   *Error
}

// Deleted is the success payload of a delete.
type Deleted struct{}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Fail[T any](err Error) Result[T] {
	return Result[T]{err: &err}
}

func (r Result[T]) IsOk() bool { return r.err == nil }

// Unwrap returns the value, or the zero value and the Error.
// The returned error is nil on success.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, *r.err
	}
	return r.value, nil
}

// UnwrapOr returns the value, or fallback when the result is a failure.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Err returns the Error and true when the result is a failure.
func (r Result[T]) Err() (Error, bool) {
	if r.err == nil {
		return Error{}, false
	}
	return *r.err, true
}

// Match calls exactly one of ok or fail and returns its value.
func Match[T, R any](r Result[T], ok func(T) R, fail func(Error) R) R {
	if r.err != nil {
		return fail(*r.err)
	}
	return ok(r.value)
}

// Map transforms a successful value and passes failures through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Ok(fn(r.value))
}

// AndThen chains an operation that may itself fail.
func AndThen[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return fn(r.value)
}
