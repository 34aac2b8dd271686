package result

import "fmt"

// Kind classifies an Error so callers can branch without parsing codes.
type Kind int

const (
	// Failure is an unexpected storage or infrastructure fault.
	Failure Kind = iota
	// NotFound means the entity, or a parent it references, is absent.
	NotFound
	// Conflict covers uniqueness violations and stale concurrent writes.
	Conflict
	// Validation means the input broke a business rule.
	Validation
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Validation:
		return "validation"
	default:
		return "failure"
	}
}

// Error is a structured, recoverable error. Code is a stable dotted identifier
// such as "Patient.DuplicateMrn"; Description is human readable.
type Error struct {
	Kind        Kind
	Code        string
	Description string

	cause error
}

func NewError(kind Kind, code, description string) Error {
	return Error{Kind: kind, Code: code, Description: description}
}

func NotFoundError(code, description string) Error {
	return NewError(NotFound, code, description)
}

func ConflictError(code, description string) Error {
	return NewError(Conflict, code, description)
}

func ValidationError(code, description string) Error {
	return NewError(Validation, code, description)
}

func FailureError(code, description string) Error {
	return NewError(Failure, code, description)
}

func (e Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return e.Code + ": " + e.Description
}

// Unwrap exposes the underlying cause, if any, to errors.Is and errors.As.
func (e Error) Unwrap() error { return e.cause }

// Is reports a match when target is an Error with the same kind and code,
// regardless of description or cause.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t.Kind == e.Kind && t.Code == e.Code
}

// WithCause returns a copy of e wrapping err.
func (e Error) WithCause(err error) Error {
	e.cause = err
	return e
}

// WithDescription returns a copy of e with a different description.
func (e Error) WithDescription(format string, args ...any) Error {
	e.Description = fmt.Sprintf(format, args...)
	return e
}
