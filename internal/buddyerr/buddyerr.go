// Package buddyerr defines the error kinds shared by every buddy package.
//
// Library code never exits the process. It returns errors tagged with a Kind
// and the CLI decides what to do with them; only KindFatal terminates.
package buddyerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way callers need to react to it.
type Kind int

const (
	KindUnknown   Kind = iota
	KindGuess          // content type or format could not be determined
	KindType           // wrong argument type or wrong alphabet for an operation
	KindValue          // out-of-range argument or malformed expression
	KindAttribute      // unsupported tool or missing required argument
	KindFatal          // missing binary, user declined; the process should exit
)

func (k Kind) String() string {
	switch k {
	case KindGuess:
		return "GuessError"
	case KindType:
		return "TypeError"
	case KindValue:
		return "ValueError"
	case KindAttribute:
		return "AttributeError"
	case KindFatal:
		return "FatalError"
	default:
		return "Error"
	}
}

// Kinded is implemented by struct errors in other packages that carry their own
// fields but still belong to one of the kinds.
type Kinded interface {
	Kind() Kind
}

// Error is a message tagged with a Kind. The original underlying error (if any)
// can be accessed via errors.Unwrap.
type Error struct {
	kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Kind returns the error kind.
func (e *Error) Kind() Kind { return e.kind }

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with a kind and a message.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Guessf(format string, args ...any) *Error     { return New(KindGuess, format, args...) }
func Typef(format string, args ...any) *Error      { return New(KindType, format, args...) }
func Valuef(format string, args ...any) *Error     { return New(KindValue, format, args...) }
func Attributef(format string, args ...any) *Error { return New(KindAttribute, format, args...) }
func Fatalf(format string, args ...any) *Error     { return New(KindFatal, format, args...) }

// KindOf walks the error chain and returns the first kind found.
func KindOf(err error) Kind {
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
