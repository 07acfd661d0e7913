package softether

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedNumber         = errors.New("malformed number")
	ErrMalformedConnectionPair = errors.New("malformed connection pair")

	// ErrToolFailed marks a vpncmd run that exited non-zero.
	ErrToolFailed = errors.New("vpncmd failed")
	// ErrToolTimeout marks a vpncmd run killed by the configured command timeout.
	ErrToolTimeout = errors.New("vpncmd timed out")
)

// InvokeError reports a problem running vpncmd itself: missing binary, pipe
// failure, non-zero exit or timeout. Output holds the tool's stdout verbatim.
type InvokeError struct {
	Hub     string
	Command string
	Output  string
	Err     error
}

func (e *InvokeError) Error() string {
	if errors.Is(e.Err, ErrToolFailed) {
		return fmt.Sprintf("%s %s: %v ( %s )", e.Hub, e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("%s %s: %v", e.Hub, e.Command, e.Err)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}

type DecodeKind int

const (
	// DecodeIO means the report could not be read as a table at all.
	DecodeIO DecodeKind = iota + 1
	// DecodeNumeric means a known numeric field could not be normalized.
	DecodeNumeric
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeIO:
		return "io"
	case DecodeNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// DecodeError reports vpncmd output that ran fine but holds data we cannot use.
type DecodeError struct {
	Kind  DecodeKind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: field %q: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func ioError(err error) *DecodeError {
	return &DecodeError{Kind: DecodeIO, Err: err}
}

func numericError(field string, err error) *DecodeError {
	return &DecodeError{Kind: DecodeNumeric, Field: field, Err: err}
}
